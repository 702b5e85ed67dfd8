// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"context"
	"net/http"
	"sync"
)

// Live handles GET /health/live. It only proves the process serves HTTP.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"}, Metadata{})
}

// Ready handles GET /health/ready. Every check runs concurrently under one
// deadline; any failure turns the response into a 503.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.readyTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	healthy := true
	for _, c := range h.checks {
		wg.Add(1)
		go func(c HealthCheck) {
			defer wg.Done()
			status := "ok"
			if err := c.Check(ctx); err != nil {
				status = err.Error()
				h.logger.Warn().Err(err).Str("check", c.Name).Msg("Readiness check failed")
			}
			mu.Lock()
			defer mu.Unlock()
			results[c.Name] = status
			if status != "ok" {
				healthy = false
			}
		}(c)
	}
	wg.Wait()

	data := map[string]any{"checks": results}
	if !healthy {
		data["status"] = "unavailable"
		respondJSON(w, r, http.StatusServiceUnavailable, data, Metadata{})
		return
	}
	data["status"] = "ok"
	respondJSON(w, r, http.StatusOK, data, Metadata{})
}
