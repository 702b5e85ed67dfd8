// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package testinfra provides container-backed infrastructure for integration tests.
//
// Every file carries the integration build tag, so the package is only
// compiled with -tags integration. Tests call SkipIfNoDocker first so they
// degrade gracefully on machines without Docker.
//
//	func TestRedisCache(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    rc, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, rc)
//
//	    c, err := cache.NewRedis(ctx, cache.RedisConfig{Addr: rc.Addr})
//	    // ...
//	}
package testinfra
