// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package middleware provides the HTTP middleware shared by every Folio
// route: request ids wired into the logging context, Prometheus request
// metrics keyed by chi route pattern, and security headers.
package middleware
