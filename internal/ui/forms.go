package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/conductor"
	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/tree"
)

type formKind int

const (
	formRename formKind = iota
	formCreate
)

// nameForm is the single-line input behind rename and new folder. It stays
// open after submit until the response arrives so a conflict can be shown
// under the input.
type nameForm struct {
	kind    formKind
	target  tree.Node
	input   textinput.Model
	title   string
	help    string
	err     string
	pending bool
}

func newNameForm(kind formKind, target tree.Node, static bool) *nameForm {
	ti := textinput.New()
	ti.CharLimit = 255
	f := &nameForm{kind: kind, target: target}
	switch kind {
	case formRename:
		ti.Placeholder = "name"
		ti.SetValue(target.Name)
		ti.CursorEnd()
		f.title = fmt.Sprintf("Rename %s", target.Name)
		f.help = "Press Enter to rename. Esc to cancel."
	default:
		ti.Placeholder = "folder-name"
		f.title = fmt.Sprintf("New folder in %s", target.Name)
		f.help = "Press Enter to create. Esc to cancel."
	}
	if static {
		ti.Cursor.SetMode(cursor.CursorStatic)
	}
	ti.Focus()
	f.input = ti
	return f
}

func (f *nameForm) Value() string { return strings.TrimSpace(f.input.Value()) }

func (f *nameForm) setError(msg string) {
	f.err = msg
	f.pending = false
}

// request builds the bus message for the current value.
func (f *nameForm) request() bus.Message {
	if f.kind == formRename {
		return bus.RenameRequested{Node: f.target, NewName: f.Value()}
	}
	return bus.CreateRequested{Type: tree.TypeFolder, Name: f.Value(), Parent: f.target}
}

// Update returns the input's command, whether the form was submitted and
// whether it was cancelled.
func (f *nameForm) Update(msg tea.Msg) (tea.Cmd, bool, bool) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "ctrl+u":
			f.input.SetValue("")
			f.input.CursorStart()
			f.err = ""
			return nil, false, false
		}
		switch keyMsg.Type {
		case tea.KeyEsc:
			return nil, false, true
		case tea.KeyEnter:
			if f.pending {
				return nil, false, false
			}
			if f.Value() == "" {
				f.err = conductor.ErrEmptyName.Error()
				return nil, false, false
			}
			f.err = ""
			f.pending = true
			return nil, true, false
		}
		f.err = ""
	}
	updated, cmd := f.input.Update(msg)
	f.input = updated
	return cmd, false, false
}

func (f *nameForm) View() string {
	lines := []string{renderStyled(styles.PaneTitle, f.title), f.input.View()}
	if f.err != "" {
		lines = append(lines, renderStyled(styles.Error, f.err))
	} else if f.pending {
		lines = append(lines, renderStyled(styles.Loading, "Saving..."))
	}
	lines = append(lines, renderStyled(styles.Footer, f.help))
	return strings.Join(lines, "\n")
}

func (m *Model) startRenameForm(node tree.Node) tea.Cmd {
	m.form = newNameForm(formRename, node, m.staticCursor)
	m.mode = ModeRenameForm
	events.UI.Prompt("rename", node.ID)
	if m.staticCursor {
		return nil
	}
	return textinput.Blink
}

func (m *Model) startCreateForm(parent tree.Node) tea.Cmd {
	m.form = newNameForm(formCreate, parent, m.staticCursor)
	m.mode = ModeCreateForm
	events.UI.Prompt("new-folder", parent.ID)
	if m.staticCursor {
		return nil
	}
	return textinput.Blink
}

func (m *Model) closeForm() {
	m.form = nil
	if m.mode == ModeRenameForm || m.mode == ModeCreateForm {
		m.mode = ModeBrowse
	}
}

// handleActiveForm routes key input to an open form. Other messages fall
// through so bus responses still reach the dispatcher.
func (m *Model) handleActiveForm(msg tea.Msg) (bool, tea.Cmd) {
	if m.form == nil {
		return false, nil
	}
	if _, ok := msg.(tea.KeyMsg); !ok {
		return false, nil
	}
	cmd, done, cancel := m.form.Update(msg)
	if cancel {
		m.closeForm()
		return true, cmd
	}
	if done {
		return true, tea.Batch(cmd, m.bus.Publish(m.form.request()))
	}
	return true, cmd
}
