// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package api exposes the recommendation engine over HTTP using the chi router.

# Routes

	POST /api/v1/users/{userID}/recommendations        generate a set
	GET  /api/v1/users/{userID}/recommendations        generate with query params
	POST /api/v1/users/{userID}/interactions           record an interaction
	GET  /api/v1/users/{userID}/preferences            read the profile
	PUT  /api/v1/users/{userID}/preferences            update preferences
	GET  /api/v1/items/{itemID}/similar                similar items
	GET  /api/v1/trending                              active trend list
	POST /api/v1/recommendations/{recID}/impression     mark viewed
	POST /api/v1/recommendations/{recID}/click          mark clicked
	POST /api/v1/recommendations/{recID}/conversion     mark converted
	POST /api/v1/recommendations/{recID}/feedback       explicit feedback
	GET  /api/v1/sets/{setID}/feedback                 feedback summary
	GET  /health/live, /health/ready                   probes
	GET  /metrics                                      Prometheus

Every response uses the envelope {"status", "data", "metadata", "error"}.
Engine sentinel errors map to status codes in errorStatus.
*/
package api
