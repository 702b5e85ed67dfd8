// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

var (
	httpSchemes = []string{"http", "https"}
	natsSchemes = []string{"nats", "tls", "ws", "wss"}
)

// checkEndpointURL parses rawURL and requires one of schemes and a host.
// Query strings are rejected because clients append their own paths and
// parameters to the base.
func checkEndpointURL(field, rawURL string, schemes []string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if !slices.Contains(schemes, u.Scheme) {
		return fmt.Errorf("%s scheme must be one of %s, got %q", field, strings.Join(schemes, ", "), u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host", field)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s must not carry a query string (?%s)", field, u.RawQuery)
	}
	return nil
}

// checkHostPort requires a host:port pair with a numeric port, as used by
// REDIS_ADDR.
func checkHostPort(field, addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if host == "" {
		return fmt.Errorf("%s has no host", field)
	}
	if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("%s port %q is not a valid TCP port", field, port)
	}
	return nil
}
