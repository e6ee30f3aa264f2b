package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists audit events. Append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Event, error)
}

// Publisher captures structured audit events. By default it writes
// synchronously; WithAsyncBuffer moves persistence off the request path.
type Publisher struct {
	store Store

	inbox chan Event
	wg    sync.WaitGroup
	once  sync.Once
}

type Option func(p *Publisher)

// WithAsyncBuffer buffers events in a channel drained by a background
// goroutine. Close drains the buffer before returning.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan Event, size)
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.inbox != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.inbox {
		// Audit persistence failures must not take down the portal;
		// events are best-effort observability, not a ledger.
		_ = p.store.Append(context.Background(), event)
	}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if p.inbox != nil {
		p.inbox <- base
		return nil
	}
	return p.store.Append(ctx, base)
}

func (p *Publisher) List(ctx context.Context, userID uuid.UUID) ([]Event, error) {
	return p.store.ListByUser(ctx, userID)
}

// Close stops the async drain goroutine, flushing buffered events first.
// Safe to call on a synchronous publisher and safe to call twice.
func (p *Publisher) Close() {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			p.wg.Wait()
		}
	})
}
