package bus

import (
	"fmt"

	"github.com/atomicstack/vault-browser/internal/tree"
)

// Message is the payload carried on a topic. Every topic has exactly one
// message type, so subscribers switch on the concrete type.
type Message interface {
	Topic() Topic
	message()
}

// Origin tells a child listing response which view asked for it.
type Origin string

const (
	OriginNavigator Origin = "navigator"
	OriginListing   Origin = "listing"
	OriginPicker    Origin = "picker"
)

// DirectoryChangeRequested asks the conductor to make a node the current
// directory. Either NodeID or Node must be set; neither resolves the root.
// Path, when non-empty, overrides the path carried by Node.
type DirectoryChangeRequested struct {
	NodeID      string
	Node        *tree.Node
	Path        tree.Path
	FromHistory bool
}

// DirectoryChanged reports the outcome of a directory change. Trail holds the
// ancestors of Node, root first, as far as they could be resolved.
type DirectoryChanged struct {
	Node        tree.Node
	Path        tree.Path
	Trail       []tree.Node
	Children    []tree.Node
	Next        string
	Seq         uint64
	FromHistory bool
	Err         error
}

type RenameRequested struct {
	Node    tree.Node
	NewName string
}

// RenameCompleted carries the confirmed node on success and the original node
// otherwise. Unchanged marks a request whose name matched the current one.
type RenameCompleted struct {
	Node      tree.Node
	NewName   string
	Unchanged bool
	Err       error
}

type MoveRequested struct {
	Sources     []tree.Node
	Destination tree.Node
}

// MoveCompleted lists one result per source in request order. A request
// refused by the move guard has no results and an IllegalMoveError.
type MoveCompleted struct {
	Destination      tree.Node
	DestinationTrail []tree.Node
	Results          []ItemResult
	Err              error
}

type DeleteRequested struct {
	Nodes []tree.Node
}

type DeleteCompleted struct {
	Results []ItemResult
	Err     error
}

type CreateRequested struct {
	Type   tree.Type
	Name   string
	Parent tree.Node
}

type CreateCompleted struct {
	Name   string
	Parent tree.Node
	Node   *tree.Node
	Err    error
}

// ChildrenRequested fetches one page of children. An empty cursor asks for
// the first page.
type ChildrenRequested struct {
	Parent tree.Node
	Cursor string
	Origin Origin
}

type ChildrenResponded struct {
	Parent   tree.Node
	Cursor   string
	Children []tree.Node
	Next     string
	Origin   Origin
	Err      error
}

// SelectionChanged is published when the highlighted listing row changes.
type SelectionChanged struct {
	Node  *tree.Node
	Count int
}

type DetailsToggled struct {
	Open bool
}

type OpenFileRequested struct {
	Node tree.Node
}

func (DirectoryChangeRequested) Topic() Topic { return DirectoryChangeRequestedTopic }
func (DirectoryChanged) Topic() Topic         { return DirectoryChangedTopic }
func (RenameRequested) Topic() Topic          { return RenameRequestedTopic }
func (RenameCompleted) Topic() Topic          { return RenameCompletedTopic }
func (MoveRequested) Topic() Topic            { return MoveRequestedTopic }
func (MoveCompleted) Topic() Topic            { return MoveCompletedTopic }
func (DeleteRequested) Topic() Topic          { return DeleteRequestedTopic }
func (DeleteCompleted) Topic() Topic          { return DeleteCompletedTopic }
func (CreateRequested) Topic() Topic          { return CreateRequestedTopic }
func (CreateCompleted) Topic() Topic          { return CreateCompletedTopic }
func (ChildrenRequested) Topic() Topic        { return ChildrenRequestedTopic }
func (ChildrenResponded) Topic() Topic        { return ChildrenRespondedTopic }
func (SelectionChanged) Topic() Topic         { return SelectionChangedTopic }
func (DetailsToggled) Topic() Topic           { return DetailsToggledTopic }
func (OpenFileRequested) Topic() Topic        { return OpenFileRequestedTopic }

func (DirectoryChangeRequested) message() {}
func (DirectoryChanged) message()         {}
func (RenameRequested) message()          {}
func (RenameCompleted) message()          {}
func (MoveRequested) message()            {}
func (MoveCompleted) message()            {}
func (DeleteRequested) message()          {}
func (DeleteCompleted) message()          {}
func (CreateRequested) message()          {}
func (CreateCompleted) message()          {}
func (ChildrenRequested) message()        {}
func (ChildrenResponded) message()        {}
func (SelectionChanged) message()         {}
func (DetailsToggled) message()           {}
func (OpenFileRequested) message()        {}

// ItemResult is the outcome of one item in a move or delete batch.
type ItemResult struct {
	Node tree.Node
	Err  error
}

// Succeeded returns the nodes whose operation went through.
func Succeeded(results []ItemResult) []tree.Node {
	out := make([]tree.Node, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Node)
		}
	}
	return out
}

// Failed returns the results carrying an error.
func Failed(results []ItemResult) []ItemResult {
	var out []ItemResult
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// PartialBatchFailure aggregates the failed items of a batch operation.
type PartialBatchFailure struct {
	Kind   string
	Failed []ItemResult
	Total  int
}

// BatchError returns a PartialBatchFailure when any result failed, nil
// otherwise.
func BatchError(kind string, results []ItemResult) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	return &PartialBatchFailure{Kind: kind, Failed: failed, Total: len(results)}
}

func (e *PartialBatchFailure) Error() string {
	return fmt.Sprintf("%s: %d of %d items failed", e.Kind, len(e.Failed), e.Total)
}

func (e *PartialBatchFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, r := range e.Failed {
		errs = append(errs, r.Err)
	}
	return errs
}
