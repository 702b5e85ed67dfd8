// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Command server runs the Folio recommendation engine.

# Startup Order

 1. Configuration (koanf: defaults, config.yaml, environment)
 2. Logging (zerolog)
 3. Storage backend (DuckDB or in-memory)
 4. Catalog collaborators (local store or remote HTTP service)
 5. Result cache (in-process LRU or Redis)
 6. Event bus (Watermill over gochannel or NATS)
 7. Engine, feedback processor and batch jobs
 8. Supervisor tree: scheduler, event router, HTTP server

# Configuration

Common environment variables:

	HTTP_PORT=8380
	DATABASE_BACKEND=duckdb        # or memory
	DUCKDB_PATH=/data/folio.duckdb
	CACHE_BACKEND=redis            # or memory
	REDIS_ADDR=redis:6379
	EVENTBUS_TRANSPORT=nats        # or memory
	NATS_URL=nats://nats:4222
	CATALOG_SOURCE=remote          # or database
	CATALOG_BASE_URL=http://catalog:8080

# Signals

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for
HTTP_SHUTDOWN_TIMEOUT, running batch jobs see their context canceled and
the event router closes before storage is released.
*/
package main
