package ui

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/atomicstack/vault-browser/internal/logging/events"
)

func (m *Model) updateFilterCursorModel(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.filterCursor, cmd = m.filterCursor.Update(msg)
	return cmd
}

func (m *Model) noteFilterCursorChange(before, after int) {
	if before != after {
		m.filterCursorDirty = true
	}
}

// editFilter applies fn to a copy of the listing level and keeps the copy
// when fn reports a change.
func (m *Model) editFilter(fn func(l *level) bool) bool {
	current := m.views.Listing.Level
	if current == nil {
		return false
	}
	before := current.FilterCursorPos()
	changed := false
	next := m.views.Listing.Update(func(l *level) { changed = fn(l) })
	if !changed {
		return false
	}
	m.views.Listing = next
	m.noteFilterCursorChange(before, next.Level.FilterCursorPos())
	return true
}

func clearFilter(l *level) bool {
	if l.Filter == "" {
		return false
	}
	l.SetFilter("", 0)
	return true
}

// queryKeys change the filter text.
var queryKeys = map[string]func(*level) bool{
	"ctrl+u":    clearFilter,
	"ctrl+w":    (*level).DeleteFilterWordBackward,
	"backspace": (*level).DeleteFilterRuneBackward,
	"ctrl+h":    (*level).DeleteFilterRuneBackward,
}

// caretKeys only move the filter caret.
var caretKeys = map[string]func(*level) bool{
	"ctrl+a": (*level).MoveFilterCursorStart,
	"ctrl+e": (*level).MoveFilterCursorEnd,
	"alt+b":  (*level).MoveFilterCursorWordBackward,
	"alt+f":  (*level).MoveFilterCursorWordForward,
	"left":   (*level).MoveFilterCursorRuneBackward,
	"right":  (*level).MoveFilterCursorRuneForward,
}

func (m *Model) handleFilterKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.editQuery("esc", clearFilter)
		m.mode = ModeBrowse
		m.syncViewport(m.views.Listing.Level)
		return nil
	case tea.KeyEnter:
		m.mode = ModeBrowse
		return m.openListingRow()
	case tea.KeyUp:
		m.updateListing(func(l *level) { l.MoveCursorUp() })
		return nil
	case tea.KeyDown:
		m.updateListing(func(l *level) { l.MoveCursorDown() })
		return nil
	case tea.KeyTab:
		m.mode = ModeBrowse
		return nil
	}
	m.handleTextInput(msg)
	return nil
}

func (m *Model) handleTextInput(msg tea.KeyMsg) bool {
	name := msg.String()
	if msg.Type == tea.KeyRunes && !msg.Alt {
		name = ""
	}
	if fn, ok := queryKeys[name]; ok {
		return m.editQuery(name, fn)
	}
	if fn, ok := caretKeys[name]; ok {
		return m.editFilter(func(l *level) bool {
			moved := fn(l)
			events.Filter.Caret(l.ID, name, l.FilterCursor)
			return moved
		})
	}
	var text string
	switch msg.Type {
	case tea.KeySpace:
		text = " "
	case tea.KeyRunes:
		if msg.Alt || len(msg.Runes) == 0 {
			return false
		}
		for _, r := range msg.Runes {
			if unicode.IsControl(r) {
				return false
			}
		}
		text = string(msg.Runes)
	default:
		return false
	}
	return m.editQuery("type", func(l *level) bool { return l.InsertFilterText(text) })
}

// editQuery is editFilter for changes to the query text, which also clear
// the status line and rescroll the listing.
func (m *Model) editQuery(key string, fn func(l *level) bool) bool {
	changed := m.editFilter(func(l *level) bool {
		if !fn(l) {
			return false
		}
		events.Filter.Query(l.ID, key, l.Filter)
		return true
	})
	if !changed {
		return false
	}
	m.forceClearInfo()
	m.errMsg = ""
	m.syncViewport(m.views.Listing.Level)
	return true
}

func (m *Model) filterPrompt() string {
	current := m.views.Listing.Level
	if current == nil {
		return ""
	}
	render := func(style *lipgloss.Style, value string) string {
		if style == nil || value == "" {
			return value
		}
		return style.Render(value)
	}
	if styles.Filter != nil {
		m.filterCursor.TextStyle = styles.Filter.Copy()
	} else {
		m.filterCursor.TextStyle = lipgloss.Style{}
	}
	prompt := "/ "
	if styles.FilterPrompt != nil {
		prompt = styles.FilterPrompt.Render(prompt)
	}
	text := current.Filter
	if text == "" {
		runes := []rune("(type to filter)")
		if styles.FilterPlaceholder != nil {
			m.filterCursor.TextStyle = styles.FilterPlaceholder.Copy()
		}
		caret := m.renderFilterCursor(string(runes[0]))
		return prompt + caret + render(styles.FilterPlaceholder, string(runes[1:]))
	}
	runes := []rune(text)
	pos := current.FilterCursorPos()
	if pos < 0 {
		pos = 0
	}
	if pos > len(runes) {
		pos = len(runes)
	}
	before := render(styles.Filter, string(runes[:pos]))
	caretRune := " "
	after := ""
	if pos < len(runes) {
		caretRune = string(runes[pos])
		after = render(styles.Filter, string(runes[pos+1:]))
	}
	return prompt + before + m.renderFilterCursor(caretRune) + after
}

func (m *Model) renderFilterCursor(char string) string {
	if char == "" {
		char = " "
	}
	m.filterCursor.SetChar(char)
	base := m.filterCursor.TextStyle.Copy().Inline(true)
	if m.filterCursor.Blink {
		return base.Render(char)
	}
	if styles.Cursor != nil {
		return base.Inherit(styles.Cursor.Copy().Inline(true)).Blink(false).Render(char)
	}
	return base.Reverse(true).Render(char)
}
