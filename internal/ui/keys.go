package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap lists every binding the browser reacts to.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Home      key.Binding
	End       key.Binding
	Open      key.Binding
	Parent    key.Binding
	Back      key.Binding
	Forward   key.Binding
	Expand    key.Binding
	Collapse  key.Binding
	Mark      key.Binding
	Focus     key.Binding
	Details   key.Binding
	Rename    key.Binding
	Move      key.Binding
	Delete    key.Binding
	NewFolder key.Binding
	Menu      key.Binding
	Filter    key.Binding
	LoadMore  key.Binding
	Confirm   key.Binding
	MoveHere  key.Binding
	Cancel    key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Home:      key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home", "first")),
		End:       key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "last")),
		Open:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Parent:    key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "parent")),
		Back:      key.NewBinding(key.WithKeys("alt+left"), key.WithHelp("alt+←", "back")),
		Forward:   key.NewBinding(key.WithKeys("alt+right"), key.WithHelp("alt+→", "forward")),
		Expand:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Collapse:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Mark:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "mark")),
		Focus:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
		Details:   key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "details")),
		Rename:    key.NewBinding(key.WithKeys("r", "f2"), key.WithHelp("r", "rename")),
		Move:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		Delete:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		NewFolder: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new folder")),
		Menu:      key.NewBinding(key.WithKeys("."), key.WithHelp(".", "actions")),
		Filter:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		LoadMore:  key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "load more")),
		Confirm:   key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm")),
		MoveHere:  key.NewBinding(key.WithKeys("y", "ctrl+s"), key.WithHelp("y", "move here")),
		Cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// PickerHelp is the footer line while the move picker is open.
func (k KeyMap) PickerHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Parent, k.MoveHere, k.Cancel}
}

// ShortHelp is the footer line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Parent, k.Mark, k.Focus, k.Menu, k.Filter, k.Quit}
}

func helpLine(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
