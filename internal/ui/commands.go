package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/logging"
	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/menu"
	"github.com/atomicstack/vault-browser/internal/tree"
	"github.com/atomicstack/vault-browser/internal/ui/command"
	uistate "github.com/atomicstack/vault-browser/internal/ui/state"
)

type historyMsg struct {
	moved bool
	err   error
}

func (m *Model) handlePublishedMsg(msg tea.Msg) tea.Cmd {
	res, ok := msg.(command.PublishedMsg)
	if !ok || res.Err == nil {
		return nil
	}
	logging.Error(res.Err)
	m.errMsg = uistate.MsgGenericError
	m.loading = false
	return nil
}

func (m *Model) historyCmd(forward bool) tea.Cmd {
	if m.history == nil {
		return nil
	}
	h := m.history
	ctx := m.ctx
	return func() tea.Msg {
		var (
			moved bool
			err   error
		)
		if forward {
			moved, err = h.Forward(ctx)
		} else {
			moved, err = h.Back(ctx)
		}
		return historyMsg{moved: moved, err: err}
	}
}

func (m *Model) handleHistoryMsg(msg tea.Msg) tea.Cmd {
	res, ok := msg.(historyMsg)
	if !ok {
		return nil
	}
	if res.err != nil {
		logging.Error(res.err)
		m.errMsg = uistate.MsgGenericError
		return nil
	}
	if !res.moved {
		m.setInfo("No more history")
	}
	return nil
}

func (m *Model) handleActionResultMsg(msg tea.Msg) tea.Cmd {
	result, ok := msg.(menu.ActionResult)
	if !ok {
		return nil
	}
	m.closeMenu()
	if result.Err != nil {
		m.errMsg = result.Err.Error()
		m.forceClearInfo()
		events.Action.Error(result.Err)
		return nil
	}
	if result.Info != "" {
		m.setInfo(result.Info)
	}
	events.Action.Success(result.Info)
	return nil
}

func (m *Model) handleDetailsPromptMsg(tea.Msg) tea.Cmd {
	m.closeMenu()
	return m.bus.Publish(bus.DetailsToggled{Open: true})
}

func (m *Model) handleRenamePromptMsg(msg tea.Msg) tea.Cmd {
	prompt, ok := msg.(menu.RenamePromptMsg)
	if !ok {
		return nil
	}
	m.closeMenu()
	return m.startRenameForm(prompt.Node)
}

func (m *Model) handleNewFolderPromptMsg(msg tea.Msg) tea.Cmd {
	prompt, ok := msg.(menu.NewFolderPromptMsg)
	if !ok {
		return nil
	}
	m.closeMenu()
	return m.startCreateForm(prompt.Parent)
}

func (m *Model) handleDeletePromptMsg(msg tea.Msg) tea.Cmd {
	prompt, ok := msg.(menu.DeletePromptMsg)
	if !ok {
		return nil
	}
	m.closeMenu()
	m.confirm = append([]tree.Node(nil), prompt.Nodes...)
	m.mode = ModeConfirmDelete
	events.UI.Prompt("delete", uistate.DeleteConfirmation(len(m.confirm)))
	return nil
}

func (m *Model) handleMovePromptMsg(msg tea.Msg) tea.Cmd {
	prompt, ok := msg.(menu.MovePromptMsg)
	if !ok {
		return nil
	}
	m.closeMenu()
	start := prompt.Start
	if start.IsZero() {
		start = m.views.Listing.Dir
	}
	picker, req := m.views.Picker.Open(prompt.Sources, start, m.views.Breadcrumbs.Trail)
	m.views.Picker = picker
	m.mode = ModePicker
	events.UI.Prompt("move", start.ID)
	return m.publishChildren(req)
}

func (m *Model) publishChildren(req *bus.ChildrenRequested) tea.Cmd {
	if req == nil {
		return nil
	}
	return m.bus.Publish(*req)
}

func (m *Model) publishDirectory(req *bus.DirectoryChangeRequested) tea.Cmd {
	if req == nil {
		return nil
	}
	m.loading = true
	return m.bus.Publish(*req)
}

// menuContext describes the listing selection for the context menu.
func (m *Model) menuContext() menu.Context {
	return menu.Context{
		Selection:   m.views.Listing.Selection(),
		Dir:         m.views.Listing.Dir,
		DetailsOpen: m.views.Details.Open,
	}
}

// syncSelection publishes SelectionChanged when the highlighted listing row
// differs from the last one announced.
func (m *Model) syncSelection() tea.Cmd {
	node, ok := m.views.Listing.Current()
	id := ""
	if ok {
		id = node.ID
	}
	count := 0
	if l := m.views.Listing.Level; l != nil {
		count = len(l.SelectedItems())
	}
	key := fmt.Sprintf("%s#%d", id, count)
	if key == m.lastSelect {
		return nil
	}
	m.lastSelect = key
	msg := bus.SelectionChanged{Count: count}
	if ok {
		n := node
		msg.Node = &n
	}
	return m.bus.Publish(msg)
}

// ensureListingFilled loads the next page when the cursor sits on the last
// loaded row.
func (m *Model) ensureListingFilled() tea.Cmd {
	l := m.views.Listing.Level
	if l == nil || len(l.Items) == 0 || l.Filter != "" {
		return nil
	}
	if l.Cursor < len(l.Items)-1 {
		return nil
	}
	listing, req := m.views.Listing.LoadMore()
	m.views.Listing = listing
	return m.publishChildren(req)
}
