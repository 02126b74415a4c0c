package tree

import "fmt"

// MoveReason identifies why a move was refused.
type MoveReason int

const (
	MoveNoSources MoveReason = iota
	MoveIntoSelf
	MoveIntoDescendant
	MoveNoOp
	MoveBadTarget
	MoveImmovable
)

func (r MoveReason) String() string {
	switch r {
	case MoveNoSources:
		return "nothing to move"
	case MoveIntoSelf:
		return "cannot move a node into itself"
	case MoveIntoDescendant:
		return "cannot move a node into its own subtree"
	case MoveNoOp:
		return "destination is already the parent"
	case MoveBadTarget:
		return "destination cannot hold moved items"
	case MoveImmovable:
		return "node cannot be moved"
	default:
		return "illegal move"
	}
}

// IllegalMoveError is returned by ValidateMove before any request is sent.
type IllegalMoveError struct {
	Reason      MoveReason
	NodeID      string
	Destination string
}

func (e *IllegalMoveError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("illegal move to %s: %s", e.Destination, e.Reason)
	}
	return fmt.Sprintf("illegal move of %s to %s: %s", e.NodeID, e.Destination, e.Reason)
}

// ValidateMove applies the move guard. The destination must accept children,
// must not be one of the sources or below one of them, and must not already be
// the parent of any source.
func ValidateMove(sources []Node, destination Node) error {
	if len(sources) == 0 {
		return &IllegalMoveError{Reason: MoveNoSources, Destination: destination.ID}
	}
	if destination.IsZero() || !destination.Type.IsMoveTarget() {
		return &IllegalMoveError{Reason: MoveBadTarget, Destination: destination.ID}
	}
	for _, src := range sources {
		switch {
		case !src.Type.IsMovable():
			return &IllegalMoveError{Reason: MoveImmovable, NodeID: src.ID, Destination: destination.ID}
		case src.ID == destination.ID:
			return &IllegalMoveError{Reason: MoveIntoSelf, NodeID: src.ID, Destination: destination.ID}
		case destination.Path.IsDescendantOf(src.ID):
			return &IllegalMoveError{Reason: MoveIntoDescendant, NodeID: src.ID, Destination: destination.ID}
		case src.ParentID() == destination.ID:
			return &IllegalMoveError{Reason: MoveNoOp, NodeID: src.ID, Destination: destination.ID}
		}
	}
	return nil
}
