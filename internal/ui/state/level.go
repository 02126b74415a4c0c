package state

// Level is the row model behind a node table. Full holds every loaded
// child in server order; Items is the subset that passes Filter. Cursor and
// ViewportOffset index into Items, while Selected and the pre-filter anchor
// are keyed by node id so they survive reloads.
type Level struct {
	ID             string
	Title          string
	Items          []Item
	Full           []Item
	Filter         string
	FilterCursor   int
	Cursor         int
	ViewportOffset int
	MultiSelect    bool
	Selected       map[string]struct{}

	// anchor is the node under the cursor when a filter was started.
	anchor string
}

// NewLevel returns a level showing items with the cursor on the first row.
func NewLevel(id, title string, items []Item) *Level {
	l := &Level{ID: id, Title: title, Selected: map[string]struct{}{}}
	l.UpdateItems(items)
	return l
}

// Clone copies the level so a reducer can change it freely.
func (l *Level) Clone() *Level {
	if l == nil {
		return nil
	}
	dup := *l
	dup.Items = CloneItems(l.Items)
	dup.Full = CloneItems(l.Full)
	dup.Selected = make(map[string]struct{}, len(l.Selected))
	for id := range l.Selected {
		dup.Selected[id] = struct{}{}
	}
	return &dup
}

// IndexOf returns the visible row index of the node id, or -1.
func (l *Level) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range l.Items {
		if l.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Current returns the row under the cursor.
func (l *Level) Current() (Item, bool) {
	if l == nil || l.Cursor < 0 || l.Cursor >= len(l.Items) {
		return Item{}, false
	}
	return l.Items[l.Cursor], true
}

// UpdateItems swaps in a new set of rows. The cursor follows the node it
// was on when that node is still visible; marks on vanished nodes are
// dropped.
func (l *Level) UpdateItems(items []Item) {
	var focused string
	if it, ok := l.Current(); ok {
		focused = it.ID
	}
	l.Full = CloneItems(items)
	l.pruneSelection()
	l.refilter()
	if idx := l.IndexOf(focused); idx >= 0 {
		l.Cursor = idx
	}
	l.clampCursor()
	if l.ViewportOffset >= len(l.Items) {
		l.ViewportOffset = 0
	}
}

// Reset shows a fresh directory: filter, marks and scroll position go.
func (l *Level) Reset(items []Item) {
	l.Filter = ""
	l.FilterCursor = 0
	l.anchor = ""
	l.Cursor = 0
	l.ViewportOffset = 0
	l.ClearSelection()
	l.UpdateItems(items)
	l.Cursor = 0
}

// clampCursor keeps the cursor on a real row, or at zero when there is none.
func (l *Level) clampCursor() {
	switch n := len(l.Items); {
	case n == 0, l.Cursor < 0:
		l.Cursor = 0
	case l.Cursor >= n:
		l.Cursor = n - 1
	}
}
