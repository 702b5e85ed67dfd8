// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package supervisor runs Folio's long-lived services under a suture v4 tree.

	RootSupervisor ("folio")
	├── BatchSupervisor ("batch-layer")
	│   └── SchedulerService (similarity, trends, vector refresh, retention)
	├── MessagingSupervisor ("messaging-layer")
	│   └── eventbus.Bus (Watermill router, memory or NATS)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crashing scheduler or event router restarts on its own with suture's
backoff while the API keeps serving. Supervisor events are logged through
sutureslog into the zerolog pipeline.
*/
package supervisor
