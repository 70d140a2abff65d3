package party

import (
	"context"
	"log/slog"
	"sync"

	"github.com/houseparty/houseparty/internal/houseparty"
)

type EventType string

const (
	EventLocked   EventType = "party_locked"
	EventUnlocked EventType = "party_unlocked"
)

// Event is published after a party state change has been committed.
type Event struct {
	Type  EventType
	Party houseparty.Party
}

// Hook reacts to an event. Hooks run synchronously in the publishing
// request and cannot fail it.
type Hook func(ctx context.Context, e Event)

// Broker is an in-process pub/sub for party events, keyed by event type.
type Broker struct {
	mu     sync.RWMutex
	hooks  map[EventType][]Hook
	logger *slog.Logger
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{
		hooks:  make(map[EventType][]Hook),
		logger: logger,
	}
}

// Subscribe registers h for events of type t.
func (b *Broker) Subscribe(t EventType, h Hook) {
	b.mu.Lock()
	b.hooks[t] = append(b.hooks[t], h)
	b.mu.Unlock()
}

// Publish runs every hook registered for e.Type. A panicking hook is
// logged and skipped.
func (b *Broker) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	hooks := append([]Hook(nil), b.hooks[e.Type]...)
	b.mu.RUnlock()

	for _, h := range hooks {
		b.run(ctx, h, e)
	}
}

func (b *Broker) run(ctx context.Context, h Hook, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("party hook panicked", "event", e.Type, "party", e.Party.Code, "panic", r)
		}
	}()
	h(ctx, e)
}
