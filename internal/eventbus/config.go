// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package eventbus

import (
	"fmt"
	"time"
)

// Transport selects the pub/sub implementation.
type Transport string

const (
	TransportMemory Transport = "memory"
	TransportNATS   Transport = "nats"
)

// Config configures the bus.
type Config struct {
	Transport Transport `koanf:"transport"`

	// TopicPrefix is prepended to every event type to form the topic name.
	TopicPrefix string `koanf:"topic_prefix"`

	// BufferSize is the gochannel output buffer per subscriber.
	BufferSize int64 `koanf:"buffer_size"`

	// CloseTimeout bounds router shutdown.
	CloseTimeout time.Duration `koanf:"close_timeout"`

	// Handler retry policy for transient command failures.
	RetryMaxRetries      int           `koanf:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`

	Breaker BreakerConfig `koanf:"breaker"`
	NATS    NATSConfig    `koanf:"nats"`
}

// BreakerConfig configures the publish circuit breaker.
type BreakerConfig struct {
	Name             string        `koanf:"name"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// NATSConfig configures the NATS transport.
type NATSConfig struct {
	URL string `koanf:"url"`

	// Embedded starts an in-process nats-server and ignores URL.
	Embedded bool   `koanf:"embedded"`
	StoreDir string `koanf:"store_dir"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`

	JetStream     bool          `koanf:"jetstream"`
	QueueGroup    string        `koanf:"queue_group"`
	DurableName   string        `koanf:"durable_name"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	AckWait       time.Duration `koanf:"ack_wait"`
}

// DefaultConfig returns an in-memory bus configuration.
func DefaultConfig() Config {
	return Config{
		Transport:            TransportMemory,
		TopicPrefix:          "folio_",
		BufferSize:           256,
		CloseTimeout:         10 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		Breaker: BreakerConfig{
			Name:             "eventbus-publish",
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			Host:          "127.0.0.1",
			Port:          4222,
			StoreDir:      "/data/nats",
			JetStream:     true,
			QueueGroup:    "folio",
			DurableName:   "folio",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			AckWait:       30 * time.Second,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportMemory:
	case TransportNATS:
		if !c.NATS.Embedded && c.NATS.URL == "" {
			return fmt.Errorf("eventbus.nats.url is required when not embedded")
		}
	default:
		return fmt.Errorf("unknown eventbus transport %q", string(c.Transport))
	}
	if c.BufferSize < 0 {
		return fmt.Errorf("eventbus.buffer_size must be non-negative, got %d", c.BufferSize)
	}
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("eventbus.breaker.failure_threshold must be positive")
	}
	return nil
}
