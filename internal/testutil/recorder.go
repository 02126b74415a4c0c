package testutil

import (
	"context"
	"sync"

	"github.com/atomicstack/vault-browser/internal/bus"
)

// Recorder is a bus subscriber that keeps every envelope it receives.
type Recorder struct {
	mu   sync.Mutex
	envs []bus.Envelope
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// Attach subscribes the recorder to topics, or to the whole catalogue when
// none are given.
func (r *Recorder) Attach(b *bus.Bus, topics ...bus.Topic) error {
	if len(topics) == 0 {
		topics = bus.Topics()
	}
	return b.SubscribeAll(r, topics...)
}

func (r *Recorder) HandleMessage(_ context.Context, env bus.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = append(r.envs, env)
	return nil
}

// Envelopes returns a copy of everything recorded so far.
func (r *Recorder) Envelopes() []bus.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bus.Envelope(nil), r.envs...)
}

// Count returns the number of envelopes recorded on topic.
func (r *Recorder) Count(topic bus.Topic) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, env := range r.envs {
		if env.Topic == topic {
			n++
		}
	}
	return n
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.envs = nil
}

// All returns the recorded messages of type T in delivery order.
func All[T bus.Message](r *Recorder) []T {
	var out []T
	for _, env := range r.Envelopes() {
		if msg, ok := env.Message.(T); ok {
			out = append(out, msg)
		}
	}
	return out
}

// Last returns the most recent recorded message of type T.
func Last[T bus.Message](r *Recorder) (T, bool) {
	all := All[T](r)
	if len(all) == 0 {
		var zero T
		return zero, false
	}
	return all[len(all)-1], true
}
