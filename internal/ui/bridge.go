package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/vault-browser/internal/backend"
	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/tree"
)

func waitForBridgeEvent(b *backend.Bridge) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-b.Events()
		if !ok {
			return bridgeDoneMsg{}
		}
		return bridgeEventMsg{event: evt}
	}
}

type bridgeEventMsg struct {
	event backend.Event
}

type bridgeDoneMsg struct{}

func (m *Model) handleBridgeEventMsg(msg tea.Msg) tea.Cmd {
	eventMsg, ok := msg.(bridgeEventMsg)
	if !ok {
		return nil
	}
	cmd := m.applyBridgeEvent(eventMsg.event)
	if m.bridge != nil && m.listening {
		waitCmd := waitForBridgeEvent(m.bridge)
		if cmd != nil {
			return tea.Batch(cmd, waitCmd)
		}
		return waitCmd
	}
	return cmd
}

func (m *Model) handleBridgeDoneMsg(tea.Msg) tea.Cmd {
	m.bridge = nil
	return nil
}

func (m *Model) applyBridgeEvent(evt backend.Event) tea.Cmd {
	res := m.dispatcher.Handle(evt)
	var cmds []tea.Cmd

	switch msg := evt.Envelope.Message.(type) {
	case bus.DirectoryChanged:
		if msg.Err == nil {
			m.loading = false
			m.errMsg = ""
			m.syncNavigatorViewport()
		} else if res.Notice != "" {
			m.loading = false
		}
	case bus.RenameCompleted:
		if m.mode == ModeRenameForm && m.form != nil && m.form.target.ID == msg.Node.ID {
			if res.RenameErr != "" {
				m.form.setError(res.RenameErr)
			} else {
				m.closeForm()
			}
		}
	case bus.CreateCompleted:
		if m.mode == ModeCreateForm && m.form != nil && m.form.target.ID == msg.Parent.ID {
			if res.CreateErr != "" {
				m.form.setError(res.CreateErr)
			} else {
				m.closeForm()
			}
		}
	case bus.MoveCompleted:
		if m.mode == ModePicker {
			m.mode = ModeBrowse
		}
		if len(msg.Results) == 0 && msg.Err != nil {
			m.errMsg = msg.Err.Error()
		}
	case bus.ChildrenResponded:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
		}
		if cmd := m.ensureListingFilled(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	if res.Notice != "" {
		m.errMsg = res.Notice
	}
	if res.Open != nil {
		m.setInfo(openInfo(res.Open.Node))
	}
	if res.ListingUpdated {
		m.syncViewport(m.views.Listing.Level)
	}
	return tea.Batch(cmds...)
}

func openInfo(n tree.Node) string {
	events.Action.Success("open " + n.ID)
	if n.URL != "" {
		return "Open " + nodeLabel(n) + ": " + n.URL
	}
	return "Open " + nodeLabel(n)
}
