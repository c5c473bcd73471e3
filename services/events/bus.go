package events

import (
	"context"
	"fmt"
	"sync"

	"wedbook/utils"

	"go.uber.org/zap"
)

// Name identifies one of the bus's closed set of events.
type Name string

const (
	BookingCreated   Name = "bookingCreated"
	BookingCancelled Name = "bookingCancelled"
	BookingVerified  Name = "bookingVerified"
)

var known = map[Name]bool{
	BookingCreated:   true,
	BookingCancelled: true,
	BookingVerified:  true,
}

// Names lists every event the bus accepts.
func Names() []Name {
	return []Name{BookingCreated, BookingCancelled, BookingVerified}
}

// Handler receives an event payload. Handlers run on the publisher's goroutine.
type Handler func(ctx context.Context, name Name, payload any)

// Bus announces booking outcomes to decoupled listeners.
type Bus interface {
	Publish(ctx context.Context, name Name, payload any) error
	Subscribe(name Name, h Handler) (unsubscribe func())
}

type subscription struct {
	id int
	h  Handler
}

// LocalBus is a synchronous, in-process, best-effort Bus: no persistence,
// no replay for late subscribers.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[Name][]subscription
	nextID int
	logger *zap.Logger
}

func NewLocalBus(logger *zap.Logger) *LocalBus {
	return &LocalBus{
		subs:   make(map[Name][]subscription),
		logger: logger,
	}
}

// Publish delivers payload to every current subscriber of name, in subscription order.
// A panicking handler is logged and skipped.
func (b *LocalBus) Publish(ctx context.Context, name Name, payload any) error {
	if !known[name] {
		return fmt.Errorf("events: unknown event %q", name)
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs[name]))
	copy(subs, b.subs[name])
	b.mu.RUnlock()

	utils.IncEventPublished(string(name))
	b.logger.Debug("events: publish", zap.String("event", string(name)), zap.Int("subscribers", len(subs)))

	for _, s := range subs {
		b.deliver(ctx, name, payload, s)
	}
	return nil
}

// Subscribe registers h for name. Subscribing to an unknown event panics.
func (b *LocalBus) Subscribe(name Name, h Handler) func() {
	if !known[name] {
		panic(fmt.Sprintf("events: subscribe to unknown event %q", name))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, h: h})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(name, id) })
	}
}

func (b *LocalBus) unsubscribe(name Name, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			b.subs[name] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

func (b *LocalBus) deliver(ctx context.Context, name Name, payload any, s subscription) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("events: subscriber panicked",
				zap.String("event", string(name)), zap.Any("panic", r))
		}
	}()
	s.h(ctx, name, payload)
}
