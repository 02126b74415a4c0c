package conductor

import (
	"errors"
	"strings"

	"github.com/atomicstack/vault-browser/internal/tree"
)

var (
	// ErrEmptyName rejects a rename or create whose name is blank.
	ErrEmptyName = errors.New("name must not be empty")
	// ErrSuperseded marks a directory response that lost to a newer request.
	ErrSuperseded = errors.New("directory request superseded by a newer one")
	// ErrNotDirectory is returned when a leaf is used as a directory.
	ErrNotDirectory = errors.New("node has no children")
	// ErrNoRoot is returned when the root listing is empty.
	ErrNoRoot = errors.New("no root node available")
	// ErrBadParent rejects a create under a node that cannot hold new items.
	ErrBadParent = errors.New("parent cannot hold new items")
)

// Phase is the coarse state of the conductor.
type Phase int

const (
	Idle Phase = iota
	AwaitingDirectoryListing
	AwaitingMutation
)

func (p Phase) String() string {
	switch p {
	case AwaitingDirectoryListing:
		return "awaiting-directory-listing"
	case AwaitingMutation:
		return "awaiting-mutation"
	default:
		return "idle"
	}
}

// Kind names a mutation.
type Kind string

const (
	KindRename Kind = "rename"
	KindMove   Kind = "move"
	KindDelete Kind = "delete"
	KindCreate Kind = "create"
)

var mutationOrder = []Kind{KindRename, KindMove, KindDelete, KindCreate}

// Status is a snapshot of what the conductor is waiting for. Kind is only set
// while a mutation is in flight.
type Status struct {
	Phase Phase
	Kind  Kind
}

// ValidateRename checks a new name for node without touching the network.
// It reports whether the name matches the current one.
func ValidateRename(node tree.Node, newName string) (unchanged bool, err error) {
	name := strings.TrimSpace(newName)
	if name == "" {
		return false, ErrEmptyName
	}
	return name == node.Name, nil
}

// ValidateMove is the move guard, exposed for views that need to disable a
// confirm action ahead of time.
func ValidateMove(sources []tree.Node, destination tree.Node) error {
	return tree.ValidateMove(sources, destination)
}
