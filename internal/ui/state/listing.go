package state

import (
	"errors"

	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/conductor"
	"github.com/atomicstack/vault-browser/internal/tree"
)

// Listing is the table of the current directory.
type Listing struct {
	Dir     tree.Node
	Level   *Level
	Next    string
	Loading bool
	Err     error
	// Status is the aggregate failure indicator of the last batch.
	Status string
	seq    uint64
}

func NewListing() Listing {
	level := NewLevel("listing", "", nil)
	level.MultiSelect = true
	return Listing{Level: level}
}

func (l Listing) clone() Listing {
	dup := l
	if l.Level == nil {
		dup.Level = NewLevel("listing", "", nil)
		dup.Level.MultiSelect = true
	} else {
		dup.Level = l.Level.Clone()
	}
	return dup
}

// Reduce applies a response message.
func (l Listing) Reduce(msg bus.Message) Listing {
	switch m := msg.(type) {
	case bus.DirectoryChanged:
		if errors.Is(m.Err, conductor.ErrSuperseded) || (m.Seq != 0 && m.Seq < l.seq) {
			return l
		}
		next := l.clone()
		if m.Err != nil {
			next.Err = m.Err
			return next
		}
		next.seq = m.Seq
		next.Dir = m.Node
		next.Next = m.Next
		next.Loading = false
		next.Err = nil
		next.Status = ""
		next.Level.Title = m.Node.Name
		next.Level.Reset(ItemsFromNodes(m.Children))
		return next
	case bus.ChildrenResponded:
		if m.Origin != bus.OriginListing || m.Parent.ID != l.Dir.ID {
			return l
		}
		next := l.clone()
		next.Loading = false
		if m.Err != nil {
			next.Err = m.Err
			return next
		}
		next.Err = nil
		next.Next = m.Next
		next.appendRows(m.Children)
		return next
	case bus.RenameCompleted:
		if m.Err != nil || m.Unchanged {
			return l
		}
		next := l.clone()
		next.replaceRow(m.Node.ID, func(it Item) Item {
			it.Node = m.Node
			it.Label = m.Node.Name
			it.Err = nil
			return it
		})
		if next.Dir.ID == m.Node.ID {
			next.Dir = m.Node
			next.Level.Title = m.Node.Name
		}
		return next
	case bus.MoveCompleted:
		if len(m.Results) == 0 {
			return l
		}
		next := l.clone()
		var added []tree.Node
		for _, r := range m.Results {
			switch {
			case r.Err != nil:
				next.markFailed(r.Node.ID, r.Err)
			case m.Destination.ID == next.Dir.ID:
				added = append(added, r.Node)
			default:
				next.removeRow(r.Node.ID)
			}
		}
		next.appendRows(added)
		next.Status = FailureIndicator(m.Err)
		return next
	case bus.DeleteCompleted:
		if len(m.Results) == 0 {
			return l
		}
		next := l.clone()
		for _, r := range m.Results {
			if r.Err != nil {
				next.markFailed(r.Node.ID, r.Err)
			} else {
				next.removeRow(r.Node.ID)
			}
		}
		next.Status = FailureIndicator(m.Err)
		return next
	}
	return l
}

func (l *Listing) appendRows(nodes []tree.Node) {
	if len(nodes) == 0 {
		return
	}
	rows := CloneItems(l.Level.Full)
	for _, n := range nodes {
		found := false
		for i := range rows {
			if rows[i].ID == n.ID {
				rows[i].Node = n
				rows[i].Label = n.Name
				found = true
				break
			}
		}
		if !found {
			rows = append(rows, ItemFromNode(n))
		}
	}
	l.Level.UpdateItems(rows)
}

func (l *Listing) replaceRow(id string, fn func(Item) Item) {
	rows := CloneItems(l.Level.Full)
	changed := false
	for i := range rows {
		if rows[i].ID == id {
			rows[i] = fn(rows[i])
			changed = true
		}
	}
	if changed {
		l.Level.UpdateItems(rows)
	}
}

func (l *Listing) removeRow(id string) {
	rows := make([]Item, 0, len(l.Level.Full))
	for _, it := range l.Level.Full {
		if it.ID != id {
			rows = append(rows, it)
		}
	}
	if len(rows) != len(l.Level.Full) {
		l.Level.UpdateItems(rows)
	}
}

func (l *Listing) markFailed(id string, err error) {
	l.replaceRow(id, func(it Item) Item {
		it.Err = err
		return it
	})
	if l.Level.IndexOf(id) >= 0 {
		l.Level.Select(id)
	}
}

// LoadMore asks for the next page while a cursor remains and nothing is in
// flight.
func (l Listing) LoadMore() (Listing, *bus.ChildrenRequested) {
	if l.Next == "" || l.Loading || l.Dir.IsZero() {
		return l, nil
	}
	next := l.clone()
	next.Loading = true
	return next, &bus.ChildrenRequested{Parent: l.Dir, Cursor: l.Next, Origin: bus.OriginListing}
}

// Selection returns the selected nodes in display order, or the row under
// the cursor when nothing is selected.
func (l Listing) Selection() []tree.Node {
	if l.Level == nil {
		return nil
	}
	if marked := l.Level.SelectedNodes(); len(marked) > 0 {
		return marked
	}
	if it, ok := l.Level.Current(); ok {
		return []tree.Node{it.Node}
	}
	return nil
}

// Current returns the node under the cursor.
func (l Listing) Current() (tree.Node, bool) {
	it, ok := l.Level.Current()
	return it.Node, ok
}

// Open activates the row under the cursor: containers become a directory
// change and files an open request.
func (l Listing) Open() bus.Message {
	node, ok := l.Current()
	if !ok {
		return nil
	}
	if node.Type.HasChildren() {
		return bus.DirectoryChangeRequested{Node: &node}
	}
	return bus.OpenFileRequested{Node: node}
}

// Up requests the parent of the current directory.
func (l Listing) Up() *bus.DirectoryChangeRequested {
	parent := l.Dir.ParentID()
	if parent == "" {
		return nil
	}
	return &bus.DirectoryChangeRequested{NodeID: parent}
}

// Update applies an interaction that mutates the level, such as cursor or
// filter changes, on a copy.
func (l Listing) Update(fn func(*Level)) Listing {
	next := l.clone()
	fn(next.Level)
	return next
}
