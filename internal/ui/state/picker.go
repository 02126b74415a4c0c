package state

import (
	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/tree"
)

// Picker is the move-target modal. It browses on its own stack, so the
// listing's current directory is left alone while a destination is chosen.
// The destination is the directory being browsed.
type Picker struct {
	Active  bool
	Sources []tree.Node
	Dir     tree.Node
	Stack   []tree.Node
	Level   *Level
	Next    string
	Loading bool
	Err     error
}

// Open starts browsing at start. trail holds start's ancestors, root first.
func (p Picker) Open(sources []tree.Node, start tree.Node, trail []tree.Node) (Picker, *bus.ChildrenRequested) {
	next := Picker{
		Active:  true,
		Sources: append([]tree.Node(nil), sources...),
		Stack:   append([]tree.Node(nil), trail...),
		Level:   NewLevel("picker", start.Name, nil),
	}
	return next.browse(start)
}

func (p Picker) browse(dir tree.Node) (Picker, *bus.ChildrenRequested) {
	p.Dir = dir
	p.Next = ""
	p.Err = nil
	p.Loading = true
	p.Level = NewLevel("picker", dir.Name, nil)
	return p, &bus.ChildrenRequested{Parent: dir, Origin: bus.OriginPicker}
}

// Close hides the picker and forgets its stack.
func (p Picker) Close() Picker {
	return Picker{}
}

// Reduce applies a response message.
func (p Picker) Reduce(msg bus.Message) Picker {
	if !p.Active {
		return p
	}
	switch m := msg.(type) {
	case bus.ChildrenResponded:
		if m.Origin != bus.OriginPicker || m.Parent.ID != p.Dir.ID {
			return p
		}
		next := p
		next.Level = p.Level.Clone()
		next.Loading = false
		if m.Err != nil {
			next.Err = m.Err
			return next
		}
		rows := CloneItems(next.Level.Full)
		for _, n := range m.Children {
			if n.Type.HasChildren() && next.Level.IndexOf(n.ID) < 0 && !containsItem(rows, n.ID) {
				rows = append(rows, ItemFromNode(n))
			}
		}
		next.Level.UpdateItems(rows)
		next.Next = m.Next
		return next
	case bus.MoveCompleted:
		return p.Close()
	}
	return p
}

// Enter browses into the highlighted row.
func (p Picker) Enter() (Picker, *bus.ChildrenRequested) {
	if !p.Active || p.Loading {
		return p, nil
	}
	row, ok := p.Level.Current()
	if !ok {
		return p, nil
	}
	next := p
	next.Stack = append(append([]tree.Node(nil), p.Stack...), p.Dir)
	return next.browse(row.Node)
}

// Up browses to the parent of the current directory.
func (p Picker) Up() (Picker, *bus.ChildrenRequested) {
	if !p.Active || len(p.Stack) == 0 {
		return p, nil
	}
	parent := p.Stack[len(p.Stack)-1]
	next := p
	next.Stack = append([]tree.Node(nil), p.Stack[:len(p.Stack)-1]...)
	return next.browse(parent)
}

// LoadMore requests the next page of containers.
func (p Picker) LoadMore() (Picker, *bus.ChildrenRequested) {
	if !p.Active || p.Next == "" || p.Loading {
		return p, nil
	}
	next := p
	next.Loading = true
	return next, &bus.ChildrenRequested{Parent: p.Dir, Cursor: p.Next, Origin: bus.OriginPicker}
}

// ConfirmEnabled applies the move guard to the browsed directory.
func (p Picker) ConfirmEnabled() bool {
	return p.Active && tree.ValidateMove(p.Sources, p.Dir) == nil
}

// ConfirmLabel is the text of the confirm action.
func (p Picker) ConfirmLabel() string {
	return MoveConfirmLabel(len(p.Sources))
}

// Confirm returns the move request, or nil while the destination is illegal.
func (p Picker) Confirm() *bus.MoveRequested {
	if !p.ConfirmEnabled() {
		return nil
	}
	return &bus.MoveRequested{
		Sources:     append([]tree.Node(nil), p.Sources...),
		Destination: p.Dir,
	}
}

// Update applies a cursor interaction on a copy.
func (p Picker) Update(fn func(*Level)) Picker {
	if p.Level == nil {
		return p
	}
	next := p
	next.Level = p.Level.Clone()
	fn(next.Level)
	return next
}

func containsItem(items []Item, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}
