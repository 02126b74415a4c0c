package menu

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/vault-browser/internal/tree"
)

// DetailsPromptMsg asks the UI to open the details panel.
type DetailsPromptMsg struct{}

// RenamePromptMsg opens the rename form prefilled with the current name.
type RenamePromptMsg struct {
	Node tree.Node
}

// MovePromptMsg opens the move-target picker for the sources.
type MovePromptMsg struct {
	Sources []tree.Node
	Start   tree.Node
}

// DeletePromptMsg asks for confirmation before deleting.
type DeletePromptMsg struct {
	Nodes []tree.Node
}

// NewFolderPromptMsg opens the new-folder form in Parent.
type NewFolderPromptMsg struct {
	Parent tree.Node
}

// Registry maps entry ids to their actions.
type Registry struct {
	actions map[string]Action
}

// BuildRegistry wires the context menu actions.
func BuildRegistry() *Registry {
	return &Registry{actions: map[string]Action{
		IDDetails:   DetailsAction,
		IDRename:    RenameAction,
		IDMove:      MoveAction,
		IDDelete:    DeleteAction,
		IDNewFolder: NewFolderAction,
	}}
}

// Find locates the action for id.
func (r *Registry) Find(id string) (Action, bool) {
	action, ok := r.actions[id]
	return action, ok
}

// Run executes the action bound to item.
func (r *Registry) Run(ctx Context, item Item) tea.Cmd {
	action, ok := r.Find(item.ID)
	if !ok {
		return func() tea.Msg { return ActionResult{Err: fmt.Errorf("unknown menu entry %q", item.ID)} }
	}
	return action(ctx, item)
}

func DetailsAction(Context, Item) tea.Cmd {
	return func() tea.Msg { return DetailsPromptMsg{} }
}

func RenameAction(ctx Context, _ Item) tea.Cmd {
	if len(ctx.Selection) != 1 {
		return func() tea.Msg { return ActionResult{Err: fmt.Errorf("rename needs exactly one item")} }
	}
	node := ctx.Selection[0]
	return func() tea.Msg { return RenamePromptMsg{Node: node} }
}

func MoveAction(ctx Context, _ Item) tea.Cmd {
	if len(ctx.Selection) == 0 {
		return nil
	}
	sources := append([]tree.Node(nil), ctx.Selection...)
	start := ctx.Dir
	return func() tea.Msg { return MovePromptMsg{Sources: sources, Start: start} }
}

func DeleteAction(ctx Context, _ Item) tea.Cmd {
	if len(ctx.Selection) == 0 {
		return nil
	}
	nodes := append([]tree.Node(nil), ctx.Selection...)
	return func() tea.Msg { return DeletePromptMsg{Nodes: nodes} }
}

func NewFolderAction(ctx Context, _ Item) tea.Cmd {
	parent := ctx.Dir
	return func() tea.Msg { return NewFolderPromptMsg{Parent: parent} }
}
