// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package logging holds the process-wide zerolog logger.

Init configures the global logger once at startup from LoggingConfig values.
Packages that do not receive a logger by injection log through the package
level helpers:

	logging.Info().Str("path", path).Msg("database opened")
	logging.Warn().Err(err).Msg("checkpoint failed")

Request scoped code logs through Ctx, which adds the request, correlation and
user ids stored by the HTTP middleware:

	logging.Ctx(ctx).Info().Str("algorithm", "hybrid").Msg("recommendations generated")

NewSlogLogger bridges the global logger to log/slog for libraries such as
sutureslog that only accept a *slog.Logger.
*/
package logging
