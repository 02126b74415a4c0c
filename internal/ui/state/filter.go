package state

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SetFilter replaces the filter query and puts the filter caret at pos.
// Starting a filter remembers the node under the cursor; clearing it goes
// back to that node if it is still loaded.
func (l *Level) SetFilter(query string, pos int) {
	active := strings.TrimSpace(l.Filter) != ""
	needle := strings.TrimSpace(query)
	if needle != "" && !active {
		l.anchor = ""
		if it, ok := l.Current(); ok {
			l.anchor = it.ID
		}
	}

	l.Filter = query
	l.FilterCursor = min(max(pos, 0), utf8.RuneCountInString(query))
	l.refilter()
	l.ViewportOffset = 0

	switch {
	case needle != "":
		l.Cursor = bestMatch(l.Items, needle)
	case active:
		l.Cursor = l.IndexOf(l.anchor)
		l.anchor = ""
	}
	l.clampCursor()
}

func (l *Level) refilter() {
	l.Items = MatchItems(l.Full, l.Filter)
}

// FilterCursorPos returns the caret as a rune offset into Filter.
func (l *Level) FilterCursorPos() int {
	return min(max(l.FilterCursor, 0), utf8.RuneCountInString(l.Filter))
}

// InsertFilterText types text at the caret.
func (l *Level) InsertFilterText(text string) bool {
	typed := []rune(text)
	if len(typed) == 0 {
		return false
	}
	return l.editFilter(func(q []rune, pos int) ([]rune, int) {
		return slices.Concat(q[:pos], typed, q[pos:]), pos + len(typed)
	})
}

// DeleteFilterRuneBackward is backspace.
func (l *Level) DeleteFilterRuneBackward() bool {
	return l.editFilter(func(q []rune, pos int) ([]rune, int) {
		if pos == 0 {
			return q, pos
		}
		return slices.Delete(q, pos-1, pos), pos - 1
	})
}

// DeleteFilterWordBackward removes the word before the caret, as ctrl+w.
func (l *Level) DeleteFilterWordBackward() bool {
	return l.editFilter(func(q []rune, pos int) ([]rune, int) {
		start := wordStart(q, pos)
		return slices.Delete(q, start, pos), start
	})
}

func (l *Level) editFilter(edit func(q []rune, pos int) ([]rune, int)) bool {
	q, pos := edit([]rune(l.Filter), l.FilterCursorPos())
	if string(q) == l.Filter {
		return false
	}
	l.SetFilter(string(q), pos)
	return true
}

func (l *Level) MoveFilterCursorStart() bool {
	return l.moveFilterCaret(func([]rune, int) int { return 0 })
}

func (l *Level) MoveFilterCursorEnd() bool {
	return l.moveFilterCaret(func(q []rune, _ int) int { return len(q) })
}

func (l *Level) MoveFilterCursorWordBackward() bool {
	return l.moveFilterCaret(wordStart)
}

func (l *Level) MoveFilterCursorWordForward() bool {
	return l.moveFilterCaret(wordEnd)
}

func (l *Level) MoveFilterCursorRuneBackward() bool {
	return l.moveFilterCaret(func(_ []rune, pos int) int { return pos - 1 })
}

func (l *Level) MoveFilterCursorRuneForward() bool {
	return l.moveFilterCaret(func(_ []rune, pos int) int { return pos + 1 })
}

func (l *Level) moveFilterCaret(to func(q []rune, pos int) int) bool {
	q := []rune(l.Filter)
	pos := l.FilterCursorPos()
	next := min(max(to(q, pos), 0), len(q))
	if next == pos {
		return false
	}
	l.FilterCursor = next
	return true
}

// isWordBreak splits node names on spaces and the usual file name
// separators, so "q3_report.pdf" is three words.
func isWordBreak(r rune) bool {
	return unicode.IsSpace(r) || r == '.' || r == '_' || r == '-'
}

func wordStart(q []rune, pos int) int {
	for pos > 0 && isWordBreak(q[pos-1]) {
		pos--
	}
	for pos > 0 && !isWordBreak(q[pos-1]) {
		pos--
	}
	return pos
}

func wordEnd(q []rune, pos int) int {
	for pos < len(q) && !isWordBreak(q[pos]) {
		pos++
	}
	for pos < len(q) && isWordBreak(q[pos]) {
		pos++
	}
	return pos
}

// MatchItems keeps the rows whose label fuzzily contains query, in their
// original order. Ids are opaque and never matched.
func MatchItems(items []Item, query string) []Item {
	needle := strings.TrimSpace(query)
	if needle == "" {
		return CloneItems(items)
	}
	hit := make([]bool, len(items))
	for _, r := range fuzzy.RankFindNormalizedFold(needle, labels(items)) {
		hit[r.OriginalIndex] = true
	}
	out := make([]Item, 0, len(items))
	for i, it := range items {
		if hit[i] {
			out = append(out, it)
		}
	}
	return out
}

// bestMatch picks the row the cursor should land on: an exact name, then
// the first name with the query as prefix, then the closest fuzzy match.
func bestMatch(items []Item, needle string) int {
	if len(items) == 0 {
		return -1
	}
	lower := strings.ToLower(needle)
	prefix := -1
	for i, it := range items {
		if strings.EqualFold(it.Label, needle) {
			return i
		}
		if prefix < 0 && strings.HasPrefix(strings.ToLower(it.Label), lower) {
			prefix = i
		}
	}
	if prefix >= 0 {
		return prefix
	}
	ranks := fuzzy.RankFindNormalizedFold(needle, labels(items))
	if len(ranks) == 0 {
		return 0
	}
	best := slices.MinFunc(ranks, func(a, b fuzzy.Rank) int {
		return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.OriginalIndex, b.OriginalIndex))
	})
	return best.OriginalIndex
}

func labels(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}
