package state

import (
	"strings"

	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/tree"
)

const crumbEllipsis = "…"

// Crumb is one rendered part of the trail. Ellipsis crumbs stand in for the
// collapsed middle and cannot be clicked.
type Crumb struct {
	Node     tree.Node
	Label    string
	Ellipsis bool
}

// Breadcrumbs projects the current location.
type Breadcrumbs struct {
	Trail   []tree.Node
	Current tree.Node
	seq     uint64
}

// Reduce applies a response message.
func (b Breadcrumbs) Reduce(msg bus.Message) Breadcrumbs {
	switch m := msg.(type) {
	case bus.DirectoryChanged:
		if m.Err != nil || (m.Seq != 0 && m.Seq < b.seq) {
			return b
		}
		return Breadcrumbs{
			Trail:   append([]tree.Node(nil), m.Trail...),
			Current: m.Node,
			seq:     m.Seq,
		}
	case bus.RenameCompleted:
		if m.Err != nil || m.Unchanged {
			return b
		}
		next := b.clone()
		if next.Current.ID == m.Node.ID {
			next.Current = m.Node
		}
		for i := range next.Trail {
			if next.Trail[i].ID == m.Node.ID {
				next.Trail[i] = m.Node
			}
		}
		return next
	case bus.MoveCompleted:
		next := b.clone()
		for _, moved := range bus.Succeeded(m.Results) {
			if moved.ID == next.Current.ID {
				next.Current = moved
				next.Trail = append([]tree.Node(nil), m.DestinationTrail...)
				continue
			}
			for i := range next.Trail {
				if next.Trail[i].ID != moved.ID {
					continue
				}
				rest := append([]tree.Node{moved}, next.Trail[i+1:]...)
				next.Trail = append(append([]tree.Node(nil), m.DestinationTrail...), rest...)
				break
			}
		}
		return next
	}
	return b
}

func (b Breadcrumbs) clone() Breadcrumbs {
	dup := b
	dup.Trail = append([]tree.Node(nil), b.Trail...)
	return dup
}

// Crumbs returns the rendered trail. The root is labelled "Collections";
// more than two parts below it collapse to an ellipsis and the last two.
func (b Breadcrumbs) Crumbs() []Crumb {
	if b.Current.IsZero() {
		return nil
	}
	all := append(append([]tree.Node(nil), b.Trail...), b.Current)
	root := Crumb{Label: RootCrumbLabel}
	parts := all
	if all[0].Type == tree.TypeOrganization || all[0].ParentID() == "" {
		root.Node = all[0]
		parts = all[1:]
	}
	out := []Crumb{root}
	if len(parts) > 2 {
		out = append(out, Crumb{Label: crumbEllipsis, Ellipsis: true})
		parts = parts[len(parts)-2:]
	}
	for _, n := range parts {
		out = append(out, Crumb{Node: n, Label: n.Name})
	}
	return out
}

// String renders the crumbs as a slash-separated path.
func (b Breadcrumbs) String() string {
	crumbs := b.Crumbs()
	labels := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		labels = append(labels, c.Label)
	}
	return strings.Join(labels, " / ")
}

// Click turns crumb i into a directory change.
func (b Breadcrumbs) Click(i int) *bus.DirectoryChangeRequested {
	crumbs := b.Crumbs()
	if i < 0 || i >= len(crumbs) || crumbs[i].Ellipsis {
		return nil
	}
	c := crumbs[i]
	if c.Node.IsZero() {
		return &bus.DirectoryChangeRequested{}
	}
	node := c.Node
	return &bus.DirectoryChangeRequested{Node: &node}
}
