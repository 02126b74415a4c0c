// Package backend moves bus deliveries onto the UI event loop. Bus handlers
// run on their own goroutines; the bridge serialises them into a channel the
// Bubble Tea program drains one message at a time.
package backend

import (
	"context"
	"sync"

	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/logging/events"
)

// Kind says which side of the bus an event came from.
type Kind int

const (
	KindResponse Kind = iota
	KindInteraction
)

// Event wraps one delivered envelope.
type Event struct {
	Kind     Kind
	Envelope bus.Envelope
}

// InteractionTopics are published by one view for the others.
func InteractionTopics() []bus.Topic {
	return []bus.Topic{
		bus.SelectionChangedTopic,
		bus.DetailsToggledTopic,
		bus.OpenFileRequestedTopic,
	}
}

// Bridge subscribes to response and interaction topics and forwards each
// delivery as an Event.
type Bridge struct {
	bus    *bus.Bus
	topics []bus.Topic

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	events chan Event
}

// NewBridge subscribes to b. buffer sizes the events channel.
func NewBridge(b *bus.Bus, buffer int) (*Bridge, error) {
	if buffer <= 0 {
		buffer = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	br := &Bridge{
		bus:    b,
		topics: append(bus.ResponseTopics(), InteractionTopics()...),
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, buffer),
	}
	if err := b.SubscribeAll(br, br.topics...); err != nil {
		cancel()
		return nil, err
	}
	return br, nil
}

// Events returns the channel of forwarded deliveries. It is closed by Stop.
func (br *Bridge) Events() <-chan Event {
	return br.events
}

// HandleMessage blocks until the UI has room for the event, so publish
// returns only once the response is queued for the views.
func (br *Bridge) HandleMessage(ctx context.Context, env bus.Envelope) error {
	br.mu.RLock()
	defer br.mu.RUnlock()
	if br.closed {
		events.Bridge.Drop(string(env.Topic), env.ID)
		return nil
	}
	evt := Event{Kind: kindOf(env.Topic), Envelope: env}
	select {
	case br.events <- evt:
		events.Bridge.Forward(string(env.Topic), env.ID)
		return nil
	case <-br.ctx.Done():
		events.Bridge.Drop(string(env.Topic), env.ID)
		return nil
	case <-ctx.Done():
		events.Bridge.Drop(string(env.Topic), env.ID)
		return ctx.Err()
	}
}

// Stop unsubscribes and closes the events channel. Pending deliveries are
// dropped.
func (br *Bridge) Stop() {
	br.cancel()
	for _, topic := range br.topics {
		br.bus.Unsubscribe(topic, br)
	}
	br.mu.Lock()
	defer br.mu.Unlock()
	if !br.closed {
		br.closed = true
		close(br.events)
	}
}

func kindOf(topic bus.Topic) Kind {
	for _, t := range InteractionTopics() {
		if t == topic {
			return KindInteraction
		}
	}
	return KindResponse
}
