package command

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/menu"
)

var errNoPublisher = errors.New("no publisher")

// Publisher is the part of the message bus the UI needs.
type Publisher interface {
	Publish(ctx context.Context, msg bus.Message) (uint64, error)
}

// Request encapsulates a menu action invocation.
type Request struct {
	ID      string
	Label   string
	Handler menu.Action
	Item    menu.Item
}

// PublishedMsg reports that a request left the UI. Responses arrive later
// through the bridge.
type PublishedMsg struct {
	Topic bus.Topic
	ID    uint64
	Err   error
}

// Bus turns publishes and menu actions into Bubble Tea commands.
type Bus struct {
	pub Publisher
	ctx context.Context
}

// New initialises a command bus instance. pub may be nil when the UI runs
// without a conductor.
func New(ctx context.Context, pub Publisher) *Bus {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Bus{pub: pub, ctx: ctx}
}

// Publish wraps a bus publish into a command. The command yields a
// PublishedMsg carrying the message id or the publish error.
func (b *Bus) Publish(msg bus.Message) tea.Cmd {
	if msg == nil {
		return nil
	}
	topic := msg.Topic()
	return func() tea.Msg {
		if b.pub == nil {
			events.Command.Published(string(topic), 0, errNoPublisher)
			return nil
		}
		id, err := b.pub.Publish(b.ctx, msg)
		events.Command.Published(string(topic), id, err)
		return PublishedMsg{Topic: topic, ID: id, Err: err}
	}
}

// Execute runs a menu action's handler and yields whatever its command
// produces.
func (b *Bus) Execute(ctx menu.Context, req Request) tea.Cmd {
	events.Command.Action("queued", req.ID, req.Label)
	return func() tea.Msg {
		if req.Handler == nil {
			events.Command.Action("unbound", req.ID, req.Label)
			return nil
		}
		cmd := req.Handler(ctx, req.Item)
		if cmd == nil {
			events.Command.Action("noop", req.ID, req.Label)
			return nil
		}
		msg := cmd()
		events.Command.Action(fmt.Sprintf("done:%T", msg), req.ID, req.Label)
		return msg
	}
}
