// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package eventbus carries Folio's domain events over Watermill.

The bus is an injected dependency, constructed once at process start. Two
transports are supported:

  - memory: Watermill's gochannel pub/sub, in-process and at-most-once
  - nats: Watermill-NATS over JetStream, optionally against an embedded
    nats-server for single-node deployments

Publishing goes through a circuit breaker so a failing broker degrades to
dropped events instead of blocking the caller. Consumers are registered with
Subscribe before Serve starts the router.

# Handlers

Subscribers never act on the world directly. A Handler is a pure function
from an Event to a list of Commands:

	cmds, err := eventbus.HandleItemCompleted(event)

The bus hands the returned commands to an Executor (the recommendation
engine), so handlers are testable in isolation without a running bus.

# Events

  - interaction_recorded: an interaction was appended to the log
  - recommendation_generated: a recommendation set was persisted
  - recommendation_clicked: a recommendation transitioned to clicked
  - preferences_updated: a profile changed; cached responses are invalidated
  - item_completed: a user finished a book; its genres and authors are merged
    into the profile
*/
package eventbus
