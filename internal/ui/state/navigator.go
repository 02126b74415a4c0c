package state

import (
	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/tree"
)

// NavNode is one node of the navigator tree. Loaded is set once a first page
// of children has been merged; later expansions reuse it.
type NavNode struct {
	Node     tree.Node
	Children []string
	Next     string
	Expanded bool
	Loaded   bool
	Pending  bool
	Err      error
}

// NavRow is a visible line of the flattened tree.
type NavRow struct {
	Node     tree.Node
	Depth    int
	Expanded bool
	Selected bool
}

// Navigator is the tree view state.
type Navigator struct {
	nodes    map[string]NavNode
	roots    []string
	Selected string
	Cursor   int
	seq      uint64
}

func NewNavigator() Navigator {
	return Navigator{nodes: map[string]NavNode{}}
}

func (n Navigator) clone() Navigator {
	dup := n
	dup.nodes = make(map[string]NavNode, len(n.nodes))
	for id, nn := range n.nodes {
		nn.Children = append([]string(nil), nn.Children...)
		dup.nodes[id] = nn
	}
	dup.roots = append([]string(nil), n.roots...)
	return dup
}

// Node returns the navigator's record for id.
func (n Navigator) Node(id string) (NavNode, bool) {
	nn, ok := n.nodes[id]
	return nn, ok
}

// Reduce applies a response message.
func (n Navigator) Reduce(msg bus.Message) Navigator {
	switch m := msg.(type) {
	case bus.DirectoryChanged:
		if m.Err != nil || (m.Seq != 0 && m.Seq < n.seq) {
			return n
		}
		return n.clone().applyDirectory(m)
	case bus.ChildrenResponded:
		if m.Origin != bus.OriginNavigator {
			return n
		}
		return n.clone().applyChildren(m)
	case bus.RenameCompleted:
		if m.Err != nil || m.Unchanged {
			return n
		}
		next := n.clone()
		next.update(m.Node)
		return next
	case bus.MoveCompleted:
		if len(m.Results) == 0 {
			return n
		}
		return n.clone().applyMove(m)
	case bus.DeleteCompleted:
		next := n.clone()
		for _, gone := range bus.Succeeded(m.Results) {
			next.remove(gone.ID)
		}
		return next
	}
	return n
}

func (n Navigator) applyDirectory(m bus.DirectoryChanged) Navigator {
	n.seq = m.Seq
	chain := append(append([]tree.Node(nil), m.Trail...), m.Node)
	for _, node := range chain {
		n.update(node)
		n.link(node)
	}
	cur := n.nodes[m.Node.ID]
	cur.Children = n.mergeChildren(nil, m.Children)
	cur.Next = m.Next
	cur.Expanded = true
	cur.Loaded = true
	cur.Pending = false
	cur.Err = nil
	n.nodes[m.Node.ID] = cur
	n.Selected = m.Node.ID
	if idx := n.rowIndex(m.Node.ID); idx >= 0 {
		n.Cursor = idx
	}
	return n
}

// link attaches node under its parent. Roots join the root list; nodes whose
// parent the navigator has not seen stay detached.
func (n *Navigator) link(node tree.Node) {
	if node.ID == "" {
		return
	}
	parentID := node.ParentID()
	if parentID == "" {
		n.addRoot(node.ID)
		return
	}
	parent, ok := n.nodes[parentID]
	if !ok {
		return
	}
	if !containsString(parent.Children, node.ID) {
		parent.Children = append(parent.Children, node.ID)
	}
	parent.Expanded = true
	n.nodes[parentID] = parent
}

func (n Navigator) applyChildren(m bus.ChildrenResponded) Navigator {
	parent, ok := n.nodes[m.Parent.ID]
	if !ok {
		return n
	}
	parent.Pending = false
	if m.Err != nil {
		parent.Err = m.Err
		n.nodes[parent.Node.ID] = parent
		return n
	}
	switch {
	case m.Cursor != "":
		parent.Children = n.mergeChildren(parent.Children, m.Children)
	case parent.Loaded:
		// a first page for an already expanded node adds nothing
	default:
		parent.Children = n.mergeChildren(nil, m.Children)
	}
	parent.Next = m.Next
	parent.Expanded = true
	parent.Loaded = true
	parent.Err = nil
	n.nodes[parent.Node.ID] = parent
	return n
}

func (n Navigator) applyMove(m bus.MoveCompleted) Navigator {
	dest, destKnown := n.nodes[m.Destination.ID]
	for _, moved := range bus.Succeeded(m.Results) {
		if old, ok := n.nodes[moved.ID]; ok {
			if parent, ok := n.nodes[old.Node.ParentID()]; ok {
				parent.Children = removeString(parent.Children, moved.ID)
				n.nodes[parent.Node.ID] = parent
			}
		}
		if destKnown && dest.Loaded {
			n.update(moved)
			dest = n.nodes[m.Destination.ID]
			if !containsString(dest.Children, moved.ID) {
				dest.Children = append(dest.Children, moved.ID)
			}
			n.nodes[dest.Node.ID] = dest
		} else if _, ok := n.nodes[moved.ID]; ok {
			n.update(moved)
		}
	}
	return n
}

// mergeChildren appends nodes to ids, skipping ids already present, and
// records each node.
func (n Navigator) mergeChildren(ids []string, nodes []tree.Node) []string {
	out := append([]string(nil), ids...)
	for _, child := range nodes {
		n.update(child)
		if !containsString(out, child.ID) {
			out = append(out, child.ID)
		}
	}
	return out
}

func (n Navigator) update(node tree.Node) {
	if node.ID == "" {
		return
	}
	nn := n.nodes[node.ID]
	nn.Node = node
	n.nodes[node.ID] = nn
}

func (n *Navigator) addRoot(id string) {
	if !containsString(n.roots, id) {
		n.roots = append(n.roots, id)
	}
}

func (n *Navigator) remove(id string) {
	nn, ok := n.nodes[id]
	if !ok {
		return
	}
	if parent, ok := n.nodes[nn.Node.ParentID()]; ok {
		parent.Children = removeString(parent.Children, id)
		n.nodes[parent.Node.ID] = parent
	}
	n.roots = removeString(n.roots, id)
	for otherID, other := range n.nodes {
		if otherID == id || other.Node.Path.IsDescendantOf(id) {
			delete(n.nodes, otherID)
		}
	}
	if n.Selected == id {
		n.Selected = ""
	}
}

// Expand opens a node. The returned request is nil when the children are
// already known or a fetch is in flight.
func (n Navigator) Expand(id string) (Navigator, *bus.ChildrenRequested) {
	nn, ok := n.nodes[id]
	if !ok || !nn.Node.Type.HasChildren() || nn.Pending {
		return n, nil
	}
	next := n.clone()
	if nn.Loaded {
		nn.Expanded = true
		next.nodes[id] = nn
		return next, nil
	}
	nn.Pending = true
	next.nodes[id] = nn
	return next, &bus.ChildrenRequested{Parent: nn.Node, Origin: bus.OriginNavigator}
}

// Collapse hides a node's children without forgetting them.
func (n Navigator) Collapse(id string) Navigator {
	nn, ok := n.nodes[id]
	if !ok || !nn.Expanded {
		return n
	}
	next := n.clone()
	nn.Expanded = false
	next.nodes[id] = nn
	return next
}

// LoadMore requests the next page of a node's children.
func (n Navigator) LoadMore(id string) (Navigator, *bus.ChildrenRequested) {
	nn, ok := n.nodes[id]
	if !ok || nn.Next == "" || nn.Pending {
		return n, nil
	}
	next := n.clone()
	nn.Pending = true
	next.nodes[id] = nn
	return next, &bus.ChildrenRequested{Parent: nn.Node, Cursor: nn.Next, Origin: bus.OriginNavigator}
}

// Open turns the row under the cursor into a directory change.
func (n Navigator) Open() *bus.DirectoryChangeRequested {
	rows := n.Rows()
	if n.Cursor < 0 || n.Cursor >= len(rows) {
		return nil
	}
	node := rows[n.Cursor].Node
	if !node.Type.HasChildren() {
		return nil
	}
	return &bus.DirectoryChangeRequested{Node: &node}
}

// MoveCursor moves the cursor by delta rows.
func (n Navigator) MoveCursor(delta int) Navigator {
	total := len(n.Rows())
	if total == 0 {
		return n
	}
	next := n
	next.Cursor += delta
	if next.Cursor < 0 {
		next.Cursor = 0
	}
	if next.Cursor >= total {
		next.Cursor = total - 1
	}
	return next
}

// Rows flattens the visible tree depth first.
func (n Navigator) Rows() []NavRow {
	var rows []NavRow
	seen := make(map[string]struct{})
	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		nn, ok := n.nodes[id]
		if !ok {
			return
		}
		rows = append(rows, NavRow{Node: nn.Node, Depth: depth, Expanded: nn.Expanded, Selected: id == n.Selected})
		if !nn.Expanded {
			return
		}
		for _, child := range nn.Children {
			walk(child, depth+1)
		}
	}
	for _, root := range n.roots {
		walk(root, 0)
	}
	return rows
}

// CurrentRow returns the row under the cursor.
func (n Navigator) CurrentRow() (NavRow, bool) {
	rows := n.Rows()
	if n.Cursor < 0 || n.Cursor >= len(rows) {
		return NavRow{}, false
	}
	return rows[n.Cursor], true
}

func (n Navigator) rowIndex(id string) int {
	for i, row := range n.Rows() {
		if row.Node.ID == id {
			return i
		}
	}
	return -1
}

// Err returns the last fetch error recorded for id.
func (n Navigator) Err(id string) error {
	return n.nodes[id].Err
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
