package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/menu"
	"github.com/atomicstack/vault-browser/internal/tree"
	"github.com/atomicstack/vault-browser/internal/ui/command"
	uistate "github.com/atomicstack/vault-browser/internal/ui/state"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if keyMsg.String() == "ctrl+c" {
		return tea.Quit
	}
	switch m.mode {
	case ModeFilter:
		return m.handleFilterKey(keyMsg)
	case ModeMenu:
		return m.handleMenuKey(keyMsg)
	case ModePicker:
		return m.handlePickerKey(keyMsg)
	case ModeConfirmDelete:
		return m.handleConfirmKey(keyMsg)
	}
	return m.handleBrowseKey(keyMsg)
}

func (m *Model) handleBrowseKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return tea.Quit
	case key.Matches(msg, k.Cancel):
		if l := m.views.Listing.Level; l != nil && len(l.Selected) > 0 {
			m.views.Listing = m.views.Listing.Update(func(l *level) { l.ClearSelection() })
			return nil
		}
		m.errMsg = ""
		m.forceClearInfo()
		return nil
	case key.Matches(msg, k.Focus):
		m.cycleFocus()
		return nil
	case key.Matches(msg, k.Back):
		return m.historyCmd(false)
	case key.Matches(msg, k.Forward):
		return m.historyCmd(true)
	case key.Matches(msg, k.Parent):
		return m.publishDirectory(m.views.Listing.Up())
	case key.Matches(msg, k.Details):
		return m.bus.Publish(bus.DetailsToggled{Open: !m.views.Details.Open})
	case key.Matches(msg, k.Menu):
		m.openMenu()
		return nil
	}
	if m.focus == FocusNavigator {
		return m.handleNavigatorKey(msg)
	}
	return m.handleListingKey(msg)
}

func (m *Model) cycleFocus() {
	switch m.focus {
	case FocusListing:
		m.focus = FocusNavigator
	case FocusNavigator:
		if m.views.Details.Open {
			m.focus = FocusDetails
		} else {
			m.focus = FocusListing
		}
	default:
		m.focus = FocusListing
	}
	events.UI.Focus(m.focus.String())
}

func (m *Model) handleNavigatorKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	nav := m.views.Navigator
	switch {
	case key.Matches(msg, k.Up):
		m.views.Navigator = nav.MoveCursor(-1)
	case key.Matches(msg, k.Down):
		m.views.Navigator = nav.MoveCursor(1)
	case key.Matches(msg, k.Home):
		m.views.Navigator = nav.MoveCursor(-len(nav.Rows()))
	case key.Matches(msg, k.End):
		m.views.Navigator = nav.MoveCursor(len(nav.Rows()))
	case key.Matches(msg, k.Expand):
		row, ok := nav.CurrentRow()
		if !ok {
			return nil
		}
		next, req := nav.Expand(row.Node.ID)
		m.views.Navigator = next
		events.UI.Expand(row.Node.ID, req != nil)
		return m.publishChildren(req)
	case key.Matches(msg, k.Collapse):
		if row, ok := nav.CurrentRow(); ok {
			m.views.Navigator = nav.Collapse(row.Node.ID)
		}
	case key.Matches(msg, k.LoadMore):
		row, ok := nav.CurrentRow()
		if !ok {
			return nil
		}
		next, req := nav.LoadMore(row.Node.ID)
		m.views.Navigator = next
		return m.publishChildren(req)
	case key.Matches(msg, k.Open):
		return m.publishDirectory(nav.Open())
	default:
		return nil
	}
	events.UI.Cursor(FocusNavigator.String(), m.views.Navigator.Cursor)
	m.syncNavigatorViewport()
	return nil
}

func (m *Model) handleListingKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	listing := m.views.Listing
	if listing.Level == nil {
		return nil
	}
	switch {
	case key.Matches(msg, k.Up):
		m.updateListing(func(l *level) { l.MoveCursorUp() })
	case key.Matches(msg, k.Down):
		m.updateListing(func(l *level) { l.MoveCursorDown() })
		return m.ensureListingFilled()
	case key.Matches(msg, k.PageUp):
		m.updateListing(func(l *level) { l.MoveCursorPageUp(m.maxVisibleItems()) })
	case key.Matches(msg, k.PageDown):
		m.updateListing(func(l *level) { l.MoveCursorPageDown(m.maxVisibleItems()) })
		return m.ensureListingFilled()
	case key.Matches(msg, k.Home):
		m.updateListing(func(l *level) { l.MoveCursorHome() })
	case key.Matches(msg, k.End):
		m.updateListing(func(l *level) { l.MoveCursorEnd() })
		return m.ensureListingFilled()
	case key.Matches(msg, k.Mark):
		m.updateListing(func(l *level) {
			l.ToggleCurrentSelection()
			l.MoveCursorDown()
		})
	case key.Matches(msg, k.LoadMore):
		next, req := listing.LoadMore()
		m.views.Listing = next
		return m.publishChildren(req)
	case key.Matches(msg, k.Open):
		return m.openListingRow()
	case key.Matches(msg, k.Filter):
		m.mode = ModeFilter
		return nil
	case key.Matches(msg, k.Rename):
		return m.runMenuAction(menu.IDRename)
	case key.Matches(msg, k.Move):
		return m.runMenuAction(menu.IDMove)
	case key.Matches(msg, k.Delete):
		return m.runMenuAction(menu.IDDelete)
	case key.Matches(msg, k.NewFolder):
		return m.runMenuAction(menu.IDNewFolder)
	}
	return nil
}

func (m *Model) updateListing(fn func(*level)) {
	m.views.Listing = m.views.Listing.Update(fn)
	if l := m.views.Listing.Level; l != nil {
		m.syncViewport(l)
		events.UI.Cursor(FocusListing.String(), l.Cursor)
	}
}

func (m *Model) openListingRow() tea.Cmd {
	msg := m.views.Listing.Open()
	if msg == nil {
		return nil
	}
	if l := m.views.Listing.Level; l != nil {
		if row, ok := l.Current(); ok {
			events.UI.Enter(FocusListing.String(), row.ID, row.Label, l.Filter)
		}
	}
	if req, ok := msg.(bus.DirectoryChangeRequested); ok {
		return m.publishDirectory(&req)
	}
	return m.bus.Publish(msg)
}

// runMenuAction runs a context menu entry directly when it applies to the
// current selection.
func (m *Model) runMenuAction(id string) tea.Cmd {
	ctx := m.menuContext()
	for _, item := range menu.ContextItems(ctx) {
		if item.ID != id {
			continue
		}
		action, _ := m.registry.Find(id)
		return m.bus.Execute(ctx, command.Request{ID: id, Label: item.Label, Handler: action, Item: item})
	}
	return nil
}

func (m *Model) openMenu() {
	ctx := m.menuContext()
	items := menu.ContextItems(ctx)
	rows := make([]uistate.Item, 0, len(items))
	for _, it := range items {
		rows = append(rows, uistate.Item{ID: it.ID, Label: it.Label})
	}
	m.menuCtx = ctx
	m.menuLevel = uistate.NewLevel("menu", "Actions", rows)
	m.mode = ModeMenu
	events.UI.Prompt("menu", m.views.Listing.Dir.ID)
}

func (m *Model) closeMenu() {
	m.menuLevel = nil
	if m.mode == ModeMenu {
		m.mode = ModeBrowse
	}
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	l := m.menuLevel
	if l == nil {
		m.mode = ModeBrowse
		return nil
	}
	switch {
	case key.Matches(msg, k.Cancel), key.Matches(msg, k.Menu):
		m.closeMenu()
	case key.Matches(msg, k.Up):
		l.MoveCursorUp()
	case key.Matches(msg, k.Down):
		l.MoveCursorDown()
	case key.Matches(msg, k.Open):
		row, ok := l.Current()
		if !ok {
			return nil
		}
		item := menu.Item{ID: row.ID, Label: row.Label}
		action, _ := m.registry.Find(row.ID)
		return m.bus.Execute(m.menuCtx, command.Request{ID: row.ID, Label: row.Label, Handler: action, Item: item})
	}
	return nil
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	p := m.views.Picker
	switch {
	case key.Matches(msg, k.Cancel):
		m.views.Picker = p.Close()
		m.mode = ModeBrowse
	case key.Matches(msg, k.Up):
		m.views.Picker = p.Update(func(l *level) { l.MoveCursorUp() })
	case key.Matches(msg, k.Down):
		m.views.Picker = p.Update(func(l *level) { l.MoveCursorDown() })
	case key.Matches(msg, k.Expand), key.Matches(msg, k.Open):
		next, req := p.Enter()
		m.views.Picker = next
		return m.publishChildren(req)
	case key.Matches(msg, k.Collapse), key.Matches(msg, k.Parent):
		next, req := p.Up()
		m.views.Picker = next
		return m.publishChildren(req)
	case key.Matches(msg, k.LoadMore):
		next, req := p.LoadMore()
		m.views.Picker = next
		return m.publishChildren(req)
	case key.Matches(msg, k.MoveHere):
		req := p.Confirm()
		if req == nil {
			m.setInfo(m.pickerGuardInfo())
			return nil
		}
		m.clearListingSelectionFor(req.Sources)
		return m.bus.Publish(*req)
	}
	return nil
}

func (m *Model) pickerGuardInfo() string {
	err := tree.ValidateMove(m.views.Picker.Sources, m.views.Picker.Dir)
	if err == nil {
		return ""
	}
	return "Cannot move here: " + err.Error()
}

// clearListingSelectionFor drops the marks on the moved rows; failures are
// re-selected when the result arrives.
func (m *Model) clearListingSelectionFor(nodes []tree.Node) {
	m.views.Listing = m.views.Listing.Update(func(l *level) {
		for _, n := range nodes {
			if l.IsSelected(n.ID) {
				l.ToggleSelection(n.ID)
			}
		}
	})
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	switch {
	case key.Matches(msg, k.Confirm):
		nodes := m.confirm
		m.confirm = nil
		m.mode = ModeBrowse
		if len(nodes) == 0 {
			return nil
		}
		m.clearListingSelectionFor(nodes)
		return m.bus.Publish(bus.DeleteRequested{Nodes: nodes})
	case key.Matches(msg, k.Cancel), msg.String() == "n":
		m.confirm = nil
		m.mode = ModeBrowse
	}
	return nil
}
