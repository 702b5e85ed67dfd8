// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package eventbus

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NewNATSBus creates a bus on Watermill-NATS. With cfg.NATS.Embedded it
// first starts an in-process nats-server and connects to it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewNATSBus(cfg Config, logger zerolog.Logger) (*Bus, error) {
	wlogger := NewWatermillLogger(logger.With().Str("component", "eventbus-nats").Logger())

	var closers []func() error
	url := cfg.NATS.URL
	if cfg.NATS.Embedded {
		srv, err := NewEmbeddedServer(cfg.NATS)
		if err != nil {
			return nil, err
		}
		url = srv.ClientURL()
		closers = append(closers, srv.Shutdown)
	}

	natsOpts := natsOptions(cfg.NATS, wlogger)
	jsCfg := wmNats.JetStreamConfig{
		Disabled:      !cfg.NATS.JetStream,
		AutoProvision: cfg.NATS.JetStream,
		DurablePrefix: cfg.NATS.DurableName,
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jsCfg,
	}, wlogger)
	if err != nil {
		shutdownAll(closers)
		return nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: cfg.NATS.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   cfg.NATS.AckWait,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        jsCfg,
	}, wlogger)
	if err != nil {
		_ = pub.Close()
		shutdownAll(closers)
		return nil, fmt.Errorf("create nats subscriber: %w", err)
	}

	// Transport closes run before the embedded server shuts down.
	closers = append([]func() error{pub.Close, sub.Close}, closers...)
	return newBus(cfg, pub, sub, logger, closers...)
}

func natsOptions(cfg NATSConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

func shutdownAll(closers []func() error) {
	for _, c := range closers {
		_ = c()
	}
}
