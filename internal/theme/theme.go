// Package theme holds the Lip Gloss styles of the browser.
package theme

import "github.com/charmbracelet/lipgloss"

// 256-colour palette.
const (
	accent  = lipgloss.Color("33")
	text    = lipgloss.Color("249")
	bright  = lipgloss.Color("255")
	dim     = lipgloss.Color("245")
	faint   = lipgloss.Color("241")
	rule    = lipgloss.Color("240")
	band    = lipgloss.Color("238")
	folder  = lipgloss.Color("75")
	prompt  = lipgloss.Color("34")
	failed  = lipgloss.Color("203")
	fatal   = lipgloss.Color("196")
	caretFg = lipgloss.Color("0")
	value   = lipgloss.Color("250")
)

// Styles is the set the views render with. Fields are pointers so a test can
// swap one style without copying the set.
type Styles struct {
	// Rows.
	Item                  *lipgloss.Style
	Container             *lipgloss.Style
	ItemError             *lipgloss.Style
	ItemIndicator         *lipgloss.Style
	SelectedItem          *lipgloss.Style
	SelectedItemIndicator *lipgloss.Style
	Disabled              *lipgloss.Style

	// Chrome.
	Header       *lipgloss.Style
	Crumb        *lipgloss.Style
	CrumbCurrent *lipgloss.Style
	Footer       *lipgloss.Style
	Pane         *lipgloss.Style
	FocusedPane  *lipgloss.Style
	PaneTitle    *lipgloss.Style
	Modal        *lipgloss.Style
	DetailLabel  *lipgloss.Style
	DetailValue  *lipgloss.Style

	// Status line.
	Loading *lipgloss.Style
	Info    *lipgloss.Style
	Error   *lipgloss.Style

	// Filter prompt.
	Filter            *lipgloss.Style
	FilterPrompt      *lipgloss.Style
	FilterPlaceholder *lipgloss.Style
	Cursor            *lipgloss.Style
}

func fg(c lipgloss.Color) *lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(c)
	return &s
}

func bold(c lipgloss.Color) *lipgloss.Style {
	s := fg(c).Bold(true)
	return &s
}

func border(b lipgloss.Border, c lipgloss.Color) *lipgloss.Style {
	s := lipgloss.NewStyle().Border(b).BorderForeground(c)
	return &s
}

func build() Styles {
	selected := bold(bright).Background(band)
	marker := fg(accent).Background(band)
	modal := border(lipgloss.DoubleBorder(), accent).Padding(0, 1)
	caret := fg(caretFg).Background(accent).Blink(true)
	loading := fg(accent).Italic(true)
	disabled := fg(rule).Strikethrough(true)
	return Styles{
		Item:                  fg(text),
		Container:             fg(folder),
		ItemError:             fg(failed),
		ItemIndicator:         fg(band),
		SelectedItem:          &selected,
		SelectedItemIndicator: &marker,
		Disabled:              &disabled,

		Header:       bold(dim),
		Crumb:        fg(dim),
		CrumbCurrent: bold(bright),
		Footer:       fg(text),
		Pane:         border(lipgloss.RoundedBorder(), rule),
		FocusedPane:  border(lipgloss.RoundedBorder(), accent),
		PaneTitle:    bold(dim),
		Modal:        &modal,
		DetailLabel:  fg(faint),
		DetailValue:  fg(value),

		Loading: &loading,
		Info:    fg(text),
		Error:   bold(fatal),

		Filter:            fg(text),
		FilterPrompt:      bold(prompt),
		FilterPlaceholder: fg(faint),
		Cursor:            &caret,
	}
}

var defaultStyles = build()

// Default returns the shared style set.
func Default() *Styles {
	return &defaultStyles
}
