// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package cache provides the recommendation response cache.

Two backends implement Store:

  - Memory: a thread-safe in-process LRU with per-entry TTL and a background
    cleanup loop. Used for single-instance deployments and in tests.
  - Redis: a shared cache over go-redis for multi-instance deployments.

Values are opaque byte slices; callers serialize with goccy/go-json. Keys are
namespaced strings built with Key, and a whole namespace (for example every
entry of one user) can be invalidated with DeletePrefix.

Concurrent writers for the same key are last-writer-wins.

# Usage

	c := cache.NewMemory(10000)
	defer c.Close()

	_ = c.Set(ctx, cache.Key("rec", userID, "hybrid", "10"), payload, time.Hour)
	if data, ok, err := c.Get(ctx, key); err == nil && ok {
	    // use data
	}
*/
package cache
