package bus

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/atomicstack/vault-browser/internal/tree"
)

type countingSubscriber struct {
	calls atomic.Int32
	err   error
}

func (c *countingSubscriber) HandleMessage(context.Context, Envelope) error {
	c.calls.Add(1)
	return c.err
}

type valueSubscriber struct {
	fn func()
}

func (v valueSubscriber) HandleMessage(context.Context, Envelope) error { return nil }

func TestSubscribeUnknownTopic(t *testing.T) {
	b := New()
	err := b.Subscribe(Topic("DirectoryChagned"), &countingSubscriber{})
	var unknown *UnknownTopicError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTopicError, got %v", err)
	}
	if unknown.Topic != "DirectoryChagned" {
		t.Fatalf("expected offending topic in error, got %q", unknown.Topic)
	}
}

func TestSubscribeIsIdempotent(t *testing.T) {
	b := New()
	sub := &countingSubscriber{}
	for i := 0; i < 3; i++ {
		if err := b.Subscribe(DirectoryChangedTopic, sub); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}
	if got := b.Subscribers(DirectoryChangedTopic); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}
	if _, err := b.Publish(context.Background(), DirectoryChanged{}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if got := sub.calls.Load(); got != 1 {
		t.Fatalf("expected handler invoked once, got %d", got)
	}
}

func TestSubscribeRejectsUncomparable(t *testing.T) {
	b := New()
	err := b.Subscribe(DirectoryChangedTopic, valueSubscriber{fn: func() {}})
	if !errors.Is(err, ErrUncomparableSubscriber) {
		t.Fatalf("expected ErrUncomparableSubscriber, got %v", err)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	a := &countingSubscriber{}
	c := &countingSubscriber{}
	_ = b.Subscribe(RenameCompletedTopic, a)
	_ = b.Subscribe(RenameCompletedTopic, c)
	b.Unsubscribe(RenameCompletedTopic, a)
	b.Unsubscribe(RenameCompletedTopic, a)
	b.Unsubscribe(MoveCompletedTopic, c)

	if _, err := b.Publish(context.Background(), RenameCompleted{}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if a.calls.Load() != 0 {
		t.Fatalf("expected unsubscribed handler not to run")
	}
	if c.calls.Load() != 1 {
		t.Fatalf("expected remaining handler to run once, got %d", c.calls.Load())
	}
}

func TestPublishAssignsMonotonicIDs(t *testing.T) {
	b := New()
	var last uint64
	for i := 0; i < 5; i++ {
		id, err := b.Publish(context.Background(), DetailsToggled{Open: true})
		if err != nil {
			t.Fatalf("publish failed: %v", err)
		}
		if id <= last {
			t.Fatalf("expected id greater than %d, got %d", last, id)
		}
		last = id
	}
	if b.LastID() != last {
		t.Fatalf("expected LastID %d, got %d", last, b.LastID())
	}
}

func TestPublishRunsHandlersConcurrently(t *testing.T) {
	b := New()
	var started sync.WaitGroup
	started.Add(2)
	release := make(chan struct{})
	for i := 0; i < 2; i++ {
		h := NewHandler(func(context.Context, Envelope) error {
			started.Done()
			<-release
			return nil
		})
		if err := b.Subscribe(ChildrenRespondedTopic, h); err != nil {
			t.Fatalf("subscribe failed: %v", err)
		}
	}
	done := make(chan error, 1)
	go func() {
		_, err := b.Publish(context.Background(), ChildrenResponded{})
		done <- err
	}()

	waited := make(chan struct{})
	go func() {
		started.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected both handlers to start before either finished")
	}
	select {
	case <-done:
		t.Fatalf("publish returned before handlers finished")
	default:
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}

func TestPublishSurfacesHandlerErrorsWithoutStoppingOthers(t *testing.T) {
	b := New()
	boom := errors.New("boom")
	failing := &countingSubscriber{err: boom}
	healthy := &countingSubscriber{}
	panicking := NewHandler(func(context.Context, Envelope) error { panic("kaboom") })
	_ = b.Subscribe(DeleteCompletedTopic, failing)
	_ = b.Subscribe(DeleteCompletedTopic, healthy)
	_ = b.Subscribe(DeleteCompletedTopic, panicking)

	_, err := b.Publish(context.Background(), DeleteCompleted{})
	if err == nil {
		t.Fatalf("expected handler error to be surfaced")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("expected recovered panic in error, got %v", err)
	}
	if healthy.calls.Load() != 1 {
		t.Fatalf("expected healthy handler to run")
	}
}

func TestPublishRejectsNil(t *testing.T) {
	b := New()
	if _, err := b.Publish(context.Background(), nil); !errors.Is(err, ErrNilMessage) {
		t.Fatalf("expected ErrNilMessage, got %v", err)
	}
}

func TestCatalogueHasEveryCoreTopic(t *testing.T) {
	for _, topic := range append(RequestTopics(), ResponseTopics()...) {
		if !Known(topic) {
			t.Fatalf("expected %s in catalogue", topic)
		}
	}
	if len(Topics()) != 15 {
		t.Fatalf("expected 15 topics, got %d", len(Topics()))
	}
}

func TestBatchError(t *testing.T) {
	ok := ItemResult{Node: tree.Node{ID: "a"}}
	bad := ItemResult{Node: tree.Node{ID: "b"}, Err: errors.New("server error")}
	if err := BatchError("move", []ItemResult{ok}); err != nil {
		t.Fatalf("expected nil for full success, got %v", err)
	}
	err := BatchError("move", []ItemResult{ok, bad})
	var partial *PartialBatchFailure
	if !errors.As(err, &partial) {
		t.Fatalf("expected PartialBatchFailure, got %v", err)
	}
	if partial.Total != 2 || len(partial.Failed) != 1 || partial.Failed[0].Node.ID != "b" {
		t.Fatalf("unexpected batch failure %#v", partial)
	}
	if !errors.Is(err, bad.Err) {
		t.Fatalf("expected batch failure to unwrap item errors")
	}
	if got := Succeeded([]ItemResult{ok, bad}); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected succeeded list %#v", got)
	}
}
