package menu

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/vault-browser/internal/tree"
)

// Item represents a selectable menu entry.
type Item struct {
	ID    string
	Label string
}

// Context carries the selection the menu was opened on.
type Context struct {
	Selection   []tree.Node
	Dir         tree.Node
	DetailsOpen bool
}

// Action turns a chosen entry into a UI message, usually a prompt.
type Action func(Context, Item) tea.Cmd

// ActionResult communicates the outcome of executing a menu action.
type ActionResult struct {
	Info string
	Err  error
}

// Entry identifiers.
const (
	IDDetails   = "details"
	IDRename    = "rename"
	IDMove      = "move"
	IDDelete    = "delete"
	IDNewFolder = "new-folder"
)

// ContextItems returns the options that apply to the selection.
func ContextItems(ctx Context) []Item {
	var ids []string
	if !ctx.DetailsOpen {
		ids = append(ids, IDDetails)
	}
	if len(ctx.Selection) == 1 {
		ids = append(ids, IDRename)
	}
	if len(ctx.Selection) > 0 && all(ctx.Selection, func(t tree.Type) bool { return t.IsMovable() }) {
		ids = append(ids, IDMove)
	}
	if len(ctx.Selection) > 0 && all(ctx.Selection, func(t tree.Type) bool { return t.IsDeletable() }) {
		ids = append(ids, IDDelete)
	}
	if ctx.Dir.Type.IsMoveTarget() {
		ids = append(ids, IDNewFolder)
	}
	return menuItemsFromIDs(ids)
}

func all(nodes []tree.Node, ok func(tree.Type) bool) bool {
	for _, n := range nodes {
		if !ok(n.Type) {
			return false
		}
	}
	return true
}

var labels = map[string]string{
	IDDetails:   "Details",
	IDRename:    "Rename",
	IDMove:      "Move",
	IDDelete:    "Delete",
	IDNewFolder: "New Folder",
}

func menuItemsFromIDs(ids []string) []Item {
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, Item{ID: id, Label: labels[id]})
	}
	return items
}
