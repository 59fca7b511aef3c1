package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// subscriberBuffer is the number of events queued per subscriber before
// new events are dropped for it.
const subscriberBuffer = 64

// MemoryBroker delivers events within one process.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{}
	closed bool
	log    *zap.Logger
}

type memorySub struct {
	ch   chan Event
	once sync.Once
}

var _ Broker = (*MemoryBroker)(nil)

// NewMemoryBroker creates an in-process broker.
func NewMemoryBroker(log *zap.Logger) *MemoryBroker {
	return &MemoryBroker{subs: make(map[string]map[*memorySub]struct{}), log: log}
}

// Publish delivers e to the current subscribers of e.OwnerID without
// blocking; a subscriber whose buffer is full misses the event.
func (b *MemoryBroker) Publish(_ context.Context, e Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs[e.OwnerID] {
		select {
		case s.ch <- e:
		default:
			b.log.Warn("dropping event for slow subscriber", zap.String("owner_id", e.OwnerID), zap.String("type", string(e.Type)))
		}
	}
	return nil
}

// Subscribe registers a subscriber for ownerID.
func (b *MemoryBroker) Subscribe(ctx context.Context, ownerID string) (<-chan Event, func(), error) {
	s := &memorySub{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.ch)
		return s.ch, func() {}, nil
	}
	if b.subs[ownerID] == nil {
		b.subs[ownerID] = make(map[*memorySub]struct{})
	}
	b.subs[ownerID][s] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		delete(b.subs[ownerID], s)
		if len(b.subs[ownerID]) == 0 {
			delete(b.subs, ownerID)
		}
		b.mu.Unlock()
		s.once.Do(func() { close(s.ch) })
	}
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return s.ch, cancel, nil
}

// Close ends every subscription.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for owner, subs := range b.subs {
		for s := range subs {
			s.once.Do(func() { close(s.ch) })
		}
		delete(b.subs, owner)
	}
	return nil
}
