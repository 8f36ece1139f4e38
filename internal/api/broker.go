package api

import (
	"sync"
)

type SSEEvent struct {
	Type string
	Data map[string]any
}

// Broker fans quote lifecycle events out to in-process stream subscribers,
// keyed by customer id.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan SSEEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan SSEEvent]struct{}{}}
}

func (b *Broker) Subscribe(customerID string) chan SSEEvent {
	ch := make(chan SSEEvent, 8)
	b.mu.Lock()
	if b.subs[customerID] == nil {
		b.subs[customerID] = map[chan SSEEvent]struct{}{}
	}
	b.subs[customerID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(customerID string, ch chan SSEEvent) {
	b.mu.Lock()
	if m := b.subs[customerID]; m != nil {
		delete(m, ch)
		if len(m) == 0 {
			delete(b.subs, customerID)
		}
	}
	b.mu.Unlock()
	close(ch)
}

func (b *Broker) Publish(customerID string, evt SSEEvent) {
	b.mu.Lock()
	m := b.subs[customerID]
	for ch := range m {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.Unlock()
}
