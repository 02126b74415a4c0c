package state

import "github.com/atomicstack/vault-browser/internal/tree"

// Item is one row of a Level. Err marks a row whose last operation failed.
type Item struct {
	ID    string
	Label string
	Node  tree.Node
	Err   error
}

// ItemFromNode builds a row keyed by the node id.
func ItemFromNode(n tree.Node) Item {
	return Item{ID: n.ID, Label: n.Name, Node: n}
}

// ItemsFromNodes converts nodes to rows, keeping the first row for each id.
func ItemsFromNodes(nodes []tree.Node) []Item {
	seen := make(map[string]struct{}, len(nodes))
	out := make([]Item, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, ItemFromNode(n))
	}
	return out
}

// CloneItems produces a shallow copy of the provided items.
func CloneItems(items []Item) []Item {
	dup := make([]Item, len(items))
	copy(dup, items)
	return dup
}
