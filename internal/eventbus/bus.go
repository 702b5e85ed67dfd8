// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/folio/internal/metrics"
)

const metadataEventType = "event_type"

// Bus publishes events and routes subscribed events to handlers.
// It is safe for concurrent use.
type Bus struct {
	cfg     Config
	pub     message.Publisher
	sub     message.Subscriber
	router  *message.Router
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger

	// closers run after the router stops, in order.
	closers []func() error

	mu       sync.Mutex
	handlers int
	closed   bool
}

// NewMemoryBus creates an in-process bus on Watermill's gochannel pub/sub.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMemoryBus(cfg Config, logger zerolog.Logger) (*Bus, error) {
	wlogger := NewWatermillLogger(logger)
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, wlogger)
	return newBus(cfg, ch, ch, logger, ch.Close)
}

// New creates a bus for the configured transport.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg Config, logger zerolog.Logger) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Transport {
	case TransportNATS:
		return NewNATSBus(cfg, logger)
	default:
		return NewMemoryBus(cfg, logger)
	}
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newBus(cfg Config, pub message.Publisher, sub message.Subscriber, logger zerolog.Logger, closers ...func() error) (*Bus, error) {
	logger = logger.With().Str("component", "eventbus").Logger()
	wlogger := NewWatermillLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, wlogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	if cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			Logger:          wlogger,
		}
		router.AddMiddleware(retry.Middleware)
	}

	return &Bus{
		cfg:     cfg,
		pub:     pub,
		sub:     sub,
		router:  router,
		breaker: newBreaker(cfg.Breaker, logger),
		logger:  logger,
		closers: closers,
	}, nil
}

// Topic returns the topic name of an event type.
func (b *Bus) Topic(t Type) string {
	return b.cfg.TopicPrefix + string(t)
}

// Publish serializes and publishes an event. An empty ID or timestamp is
// filled in. Errors mean the event was dropped; callers log and continue.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if e.ID == "" || e.OccurredAt.IsZero() {
		fresh := NewEvent(e.Type, e.UserID)
		if e.ID == "" {
			e.ID = fresh.ID
		}
		if e.OccurredAt.IsZero() {
			e.OccurredAt = fresh.OccurredAt
		}
	}

	payload, err := Marshal(&e)
	if err != nil {
		metrics.RecordEventPublished(string(e.Type), "invalid")
		return err
	}

	msg := message.NewMessage(e.ID, payload)
	msg.Metadata.Set(metadataEventType, string(e.Type))
	msg.SetContext(ctx)

	_, err = b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.pub.Publish(b.Topic(e.Type), msg)
	})
	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "breaker_open"
		}
		metrics.RecordEventPublished(string(e.Type), outcome)
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	metrics.RecordEventPublished(string(e.Type), "ok")
	return nil
}

// Subscribe routes events of type t through h and hands the resulting
// commands to exec. It must be called before Serve.
func (b *Bus) Subscribe(t Type, h Handler, exec Executor) {
	b.mu.Lock()
	b.handlers++
	b.mu.Unlock()

	name := "folio-" + string(t)
	b.router.AddConsumerHandler(name, b.Topic(t), b.sub, func(msg *message.Message) error {
		event, err := Unmarshal(msg.Payload)
		if err != nil {
			// Malformed payloads never succeed on retry.
			b.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping malformed event")
			metrics.RecordEventHandled(string(t), "malformed")
			return nil
		}

		cmds, err := h(*event)
		if err != nil {
			metrics.RecordEventHandled(string(t), "handler_error")
			return fmt.Errorf("handle %s: %w", t, err)
		}

		for _, cmd := range cmds {
			if err := exec.Execute(msg.Context(), cmd); err != nil {
				metrics.RecordEventHandled(string(t), "command_error")
				return fmt.Errorf("execute %s: %w", cmd.CommandName(), err)
			}
		}
		metrics.RecordEventHandled(string(t), "ok")
		return nil
	})
}

// SubscribeAll registers every handler of the routing table.
func (b *Bus) SubscribeAll(table map[Type]Handler, exec Executor) {
	for _, t := range Types {
		if h, ok := table[t]; ok {
			b.Subscribe(t, h, exec)
		}
	}
}

// Serve runs the router until ctx is cancelled. It implements suture.Service.
func (b *Bus) Serve(ctx context.Context) error {
	b.mu.Lock()
	handlers := b.handlers
	b.mu.Unlock()

	b.logger.Info().
		Str("transport", string(b.cfg.Transport)).
		Int("handlers", handlers).
		Msg("event bus router starting")

	if err := b.router.Run(ctx); err != nil {
		return fmt.Errorf("event bus router: %w", err)
	}
	return ctx.Err()
}

// Running is closed once the router has started all handlers.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

// String implements fmt.Stringer for supervisor logging.
func (b *Bus) String() string {
	return "eventbus"
}

// Close stops the router and releases the transport.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	var errs []error
	if err := b.router.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close router: %w", err))
	}
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ watermill.LoggerAdapter = zerologAdapter{}
