package state

import (
	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/tree"
)

// Details is the side panel state.
type Details struct {
	Open     bool
	Selected *tree.Node
	Count    int
	Dir      tree.Node
}

// Reduce applies a message.
func (d Details) Reduce(msg bus.Message) Details {
	switch m := msg.(type) {
	case bus.DetailsToggled:
		next := d
		next.Open = m.Open
		return next
	case bus.SelectionChanged:
		next := d
		next.Count = m.Count
		next.Selected = nil
		if m.Node != nil {
			n := *m.Node
			next.Selected = &n
		}
		return next
	case bus.DirectoryChanged:
		if m.Err != nil {
			return d
		}
		next := d
		next.Dir = m.Node
		next.Selected = nil
		next.Count = 0
		return next
	case bus.RenameCompleted:
		if m.Err != nil || m.Unchanged {
			return d
		}
		return d.track(m.Node)
	case bus.MoveCompleted:
		next := d
		for _, moved := range bus.Succeeded(m.Results) {
			next = next.track(moved)
		}
		return next
	case bus.DeleteCompleted:
		next := d
		for _, gone := range bus.Succeeded(m.Results) {
			if next.Selected != nil && next.Selected.ID == gone.ID {
				next.Selected = nil
				next.Count = 0
			}
		}
		return next
	}
	return d
}

func (d Details) track(n tree.Node) Details {
	next := d
	if d.Selected != nil && d.Selected.ID == n.ID {
		node := n
		next.Selected = &node
	}
	if d.Dir.ID == n.ID {
		next.Dir = n
	}
	return next
}

// Subject returns the node the panel describes. It is false when the panel
// should show the placeholder.
func (d Details) Subject() (tree.Node, bool) {
	n := d.Dir
	if d.Selected != nil {
		n = *d.Selected
	}
	if n.IsZero() || n.Type == tree.TypeOrganization {
		return tree.Node{}, false
	}
	return n, true
}
