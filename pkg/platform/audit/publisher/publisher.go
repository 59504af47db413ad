// Package publisher provides the append-only audit event publisher.
//
// The publisher is synchronous by default so a successful Emit means the event
// reached the store. WithAsyncBuffer trades that guarantee for non-blocking
// emission on hot paths. Sinks (extra fan-out targets such as Kafka) receive
// events best-effort after the store append succeeds.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	id "rotalog/pkg/domain"
	audit "rotalog/pkg/platform/audit"
)

// Store persists audit events append-only.
type Store interface {
	Append(ctx context.Context, event audit.Event) error
	ListByIntern(ctx context.Context, internID id.InternID) ([]audit.Event, error)
}

// Sink receives a copy of every stored event, best-effort.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  Store
	sinks  []Sink
	logger *slog.Logger

	buffer chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking with the given buffer size.
// Events are dropped (and logged) when the buffer is full.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = make(chan audit.Event, size)
	}
}

// WithSink registers an additional fan-out target.
func WithSink(sink Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

// WithLogger sets the logger used for drop and sink failure reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher constructs a Publisher over the given store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records an audit event. In sync mode the event is durable when Emit
// returns; in async mode it is queued and a full buffer drops the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.buffer != nil {
		select {
		case p.buffer <- event:
		default:
			if p.logger != nil {
				p.logger.Warn("audit buffer full, event dropped",
					"action", event.Action,
					"entity_id", event.EntityID,
				)
			}
		}
		return nil
	}

	return p.append(ctx, event)
}

// List returns all audit events recorded for a trainee.
func (p *Publisher) List(ctx context.Context, internID id.InternID) ([]audit.Event, error) {
	return p.store.ListByIntern(ctx, internID)
}

// Close flushes the async buffer and stops the drain goroutine.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		if err := p.append(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("audit append failed",
				"action", event.Action,
				"entity_id", event.EntityID,
				"error", err,
			)
		}
	}
}

func (p *Publisher) append(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil && p.logger != nil {
			p.logger.Warn("audit sink publish failed",
				"action", event.Action,
				"entity_id", event.EntityID,
				"error", err,
			)
		}
	}
	return nil
}
