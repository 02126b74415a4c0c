package state

import "github.com/atomicstack/vault-browser/internal/tree"

// Marks are node ids. They are independent of the filter, so a node marked
// before filtering stays marked while hidden.

func (l *Level) IsSelected(id string) bool {
	_, ok := l.Selected[id]
	return ok
}

func (l *Level) Select(id string) {
	if l.Selected == nil {
		l.Selected = map[string]struct{}{}
	}
	l.Selected[id] = struct{}{}
}

// ToggleSelection flips the mark on id.
func (l *Level) ToggleSelection(id string) {
	if l.IsSelected(id) {
		delete(l.Selected, id)
		return
	}
	l.Select(id)
}

// ToggleCurrentSelection flips the mark on the row under the cursor. Levels
// without MultiSelect ignore it.
func (l *Level) ToggleCurrentSelection() {
	if !l.MultiSelect {
		return
	}
	if it, ok := l.Current(); ok {
		l.ToggleSelection(it.ID)
	}
}

func (l *Level) ClearSelection() {
	clear(l.Selected)
}

// SelectedItems returns the marked rows that are visible, top to bottom.
func (l *Level) SelectedItems() []Item {
	if len(l.Selected) == 0 {
		return nil
	}
	var out []Item
	for _, it := range l.Items {
		if l.IsSelected(it.ID) {
			out = append(out, it)
		}
	}
	return out
}

// SelectedNodes is SelectedItems as tree nodes.
func (l *Level) SelectedNodes() []tree.Node {
	items := l.SelectedItems()
	if len(items) == 0 {
		return nil
	}
	nodes := make([]tree.Node, len(items))
	for i, it := range items {
		nodes[i] = it.Node
	}
	return nodes
}

// pruneSelection forgets marks on nodes that are no longer loaded.
func (l *Level) pruneSelection() {
	if len(l.Selected) == 0 {
		return
	}
	loaded := make(map[string]bool, len(l.Full))
	for _, it := range l.Full {
		loaded[it.ID] = true
	}
	for id := range l.Selected {
		if !loaded[id] {
			delete(l.Selected, id)
		}
	}
}
