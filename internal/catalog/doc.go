// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package catalog is an HTTP client for a remote catalog service. It implements
recommend.Catalog and recommend.ReadingHistory so the engine can run against
an external book catalog and reading history instead of the local store.

Every request passes through three layers:

  - a token bucket (golang.org/x/time/rate) that caps the request rate
  - resty retries on transport errors, 429 and 5xx responses
  - a circuit breaker (sony/gobreaker) that fails fast while the service is down

A 404 is reported as recommend.ErrNotFound and does not count against the
breaker.

# Wire Contract

	GET /items/{id}                          -> models.Item
	GET /items?id=a&id=b                     -> {"items": [...]}
	GET /items?category=x&limit=n            -> {"items": [...]}
	GET /items?author=x&limit=n              -> {"items": [...]}
	GET /items/popular?limit=n&exclude=a     -> {"items": [...]}
	GET /users/{id}/history?limit=n          -> {"entries": [...]}  newest first
	GET /users/{id}/history?status=completed -> {"entries": [...]}
	GET /users/{id}/history/{item}           -> {"read": true}
*/
package catalog
