package application

import (
	"sync"

	"github.com/polling-network/polling-daemon/internal/core/domain"
)

// EventBroadcaster fans out store events to live subscribers through
// buffered channels, dropping messages for slow readers.
type EventBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan EventMessage]struct{}
	buffer int
}

func NewEventBroadcaster(buffer int) *EventBroadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &EventBroadcaster{
		subs:   make(map[chan EventMessage]struct{}),
		buffer: buffer,
	}
}

// Listen makes the broadcaster publish every event applied to the store.
// The returned func detaches it.
func (b *EventBroadcaster) Listen(store *Store) func() {
	return store.Subscribe(func(event domain.Event, state domain.State) {
		b.Publish(NewEventMessage(event, state))
	})
}

func (b *EventBroadcaster) Publish(msg EventMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe returns a channel that receives messages until Unsubscribe is
// called.
func (b *EventBroadcaster) Subscribe() chan EventMessage {
	ch := make(chan EventMessage, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *EventBroadcaster) Unsubscribe(ch chan EventMessage) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
