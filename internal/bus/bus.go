// Package bus implements the typed publish/subscribe channel that connects
// the views to the conductor. A Bus is constructed by the application root and
// handed to every component; there is no process-wide instance.
package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/metrics"
)

var (
	ErrNilMessage             = errors.New("bus: nil message")
	ErrNilSubscriber          = errors.New("bus: nil subscriber")
	ErrUncomparableSubscriber = errors.New("bus: subscriber type is not comparable")
)

// Envelope is what subscribers receive: the message plus the id assigned to
// this publish.
type Envelope struct {
	ID      uint64
	Topic   Topic
	Message Message
}

// Subscriber handles messages for the topics it is registered on.
// Registration is by identity, so implementations are usually pointers.
type Subscriber interface {
	HandleMessage(ctx context.Context, env Envelope) error
}

// Handler adapts a function into a Subscriber with a stable identity.
type Handler struct {
	fn func(context.Context, Envelope) error
}

// NewHandler wraps fn. Keep the returned pointer to unsubscribe later.
func NewHandler(fn func(context.Context, Envelope) error) *Handler {
	return &Handler{fn: fn}
}

func (h *Handler) HandleMessage(ctx context.Context, env Envelope) error {
	if h == nil || h.fn == nil {
		return nil
	}
	return h.fn(ctx, env)
}

// Bus fans messages out to subscribers.
type Bus struct {
	mu   sync.RWMutex
	subs map[Topic][]Subscriber
	seq  atomic.Uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]Subscriber)}
}

// Subscribe registers s for topic. Registering the same subscriber twice is a
// no-op.
func (b *Bus) Subscribe(topic Topic, s Subscriber) error {
	if !Known(topic) {
		return &UnknownTopicError{Topic: topic}
	}
	if s == nil {
		return ErrNilSubscriber
	}
	if !reflect.TypeOf(s).Comparable() {
		return ErrUncomparableSubscriber
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.subs[topic] {
		if sameSubscriber(existing, s) {
			events.Bus.Subscribe(string(topic), true)
			return nil
		}
	}
	b.subs[topic] = append(b.subs[topic], s)
	events.Bus.Subscribe(string(topic), false)
	return nil
}

// SubscribeAll registers s on each topic, stopping at the first error.
func (b *Bus) SubscribeAll(s Subscriber, topics ...Topic) error {
	for _, topic := range topics {
		if err := b.Subscribe(topic, s); err != nil {
			return err
		}
	}
	return nil
}

// Unsubscribe removes a registration. Unknown topics and subscribers are
// ignored.
func (b *Bus) Unsubscribe(topic Topic, s Subscriber) {
	if s == nil || !reflect.TypeOf(s).Comparable() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.subs[topic]
	for i, existing := range current {
		if sameSubscriber(existing, s) {
			next := make([]Subscriber, 0, len(current)-1)
			next = append(next, current[:i]...)
			next = append(next, current[i+1:]...)
			b.subs[topic] = next
			events.Bus.Unsubscribe(string(topic), true)
			return
		}
	}
	events.Bus.Unsubscribe(string(topic), false)
}

// Subscribers returns the number of subscribers on topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Publish delivers msg to every current subscriber of its topic. Subscribers
// run concurrently and Publish returns once all of them have finished. Errors
// and panics from individual subscribers are joined into the returned error;
// they never stop the remaining subscribers from running.
func (b *Bus) Publish(ctx context.Context, msg Message) (uint64, error) {
	if msg == nil {
		return 0, ErrNilMessage
	}
	topic := msg.Topic()
	if !Known(topic) {
		return 0, &UnknownTopicError{Topic: topic}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	id := b.seq.Add(1)

	b.mu.RLock()
	subs := append([]Subscriber(nil), b.subs[topic]...)
	b.mu.RUnlock()

	events.Bus.Publish(string(topic), id, len(subs))
	env := Envelope{ID: id, Topic: topic, Message: msg}

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		combined error
		failures int
	)
	for _, s := range subs {
		wg.Add(1)
		go func(s Subscriber) {
			defer wg.Done()
			if err := deliver(ctx, s, env); err != nil {
				events.Bus.HandlerError(string(topic), id, err)
				errMu.Lock()
				combined = multierr.Append(combined, err)
				failures++
				errMu.Unlock()
			}
		}(s)
	}
	wg.Wait()

	metrics.RecordPublish(string(topic), failures)
	if combined != nil {
		return id, fmt.Errorf("publish %s #%d: %w", topic, id, combined)
	}
	return id, nil
}

// LastID returns the id assigned to the most recent publish.
func (b *Bus) LastID() uint64 {
	return b.seq.Load()
}

func deliver(ctx context.Context, s Subscriber, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber %T panicked: %v", s, r)
		}
	}()
	return s.HandleMessage(ctx, env)
}

func sameSubscriber(a, b Subscriber) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return a == b
}
