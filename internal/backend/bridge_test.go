package backend

import (
	"context"
	"testing"
	"time"

	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/tree"
)

func TestBridgeForwardsResponses(t *testing.T) {
	b := bus.New()
	br, err := NewBridge(b, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer br.Stop()

	node := tree.Node{ID: "col", Type: tree.TypeCollection}
	if _, err := b.Publish(context.Background(), bus.DirectoryChanged{Node: node, Seq: 1}); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}
	if _, err := b.Publish(context.Background(), bus.DetailsToggled{Open: true}); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	first := <-br.Events()
	if first.Kind != KindResponse || first.Envelope.Topic != bus.DirectoryChangedTopic {
		t.Fatalf("expected directory response, got %+v", first)
	}
	second := <-br.Events()
	if second.Kind != KindInteraction {
		t.Fatalf("expected interaction, got %+v", second)
	}
}

func TestBridgeIgnoresRequests(t *testing.T) {
	b := bus.New()
	br, err := NewBridge(b, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer br.Stop()

	if n := b.Subscribers(bus.RenameRequestedTopic); n != 0 {
		t.Fatalf("expected no request subscription, got %d", n)
	}
}

func TestBridgeStopClosesAndUnsubscribes(t *testing.T) {
	b := bus.New()
	br, err := NewBridge(b, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	br.Stop()
	br.Stop()

	if _, ok := <-br.Events(); ok {
		t.Fatalf("expected closed channel")
	}
	if n := b.Subscribers(bus.DirectoryChangedTopic); n != 0 {
		t.Fatalf("expected subscription removed, got %d", n)
	}
	if err := br.HandleMessage(context.Background(), bus.Envelope{Topic: bus.DirectoryChangedTopic}); err != nil {
		t.Fatalf("expected silent drop after stop, got %v", err)
	}
}

func TestBridgeStopReleasesBlockedPublish(t *testing.T) {
	b := bus.New()
	br, err := NewBridge(b, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	if _, err := b.Publish(ctx, bus.DetailsToggled{Open: true}); err != nil {
		t.Fatalf("unexpected publish error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = b.Publish(ctx, bus.DetailsToggled{Open: false})
	}()

	time.Sleep(20 * time.Millisecond)
	br.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected blocked publish to return after stop")
	}
}
