// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"fmt"

	"github.com/goccy/go-json"
)

// encodeJSON marshals a list or map column. nil encodes as the empty value
// for its kind so that reads never see SQL NULL.
func encodeJSON(v any, empty string) (string, error) {
	switch x := v.(type) {
	case []string:
		if x == nil {
			return empty, nil
		}
	case []float64:
		if x == nil {
			return empty, nil
		}
	case map[string]string:
		if x == nil {
			return empty, nil
		}
	case map[string]any:
		if x == nil {
			return empty, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode json column: %w", err)
	}
	return string(b), nil
}

func decodeStrings(s string) ([]string, error) {
	out := []string{}
	if s == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode string list: %w", err)
	}
	return out, nil
}

func decodeFloats(s string) ([]float64, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var out []float64
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode vector: %w", err)
	}
	return out, nil
}
