// Package state holds the view reducers. Each view keeps its own state,
// changes it only through Reduce or an interaction helper, and never reads
// another view's state.
package state

import (
	"errors"
	"fmt"

	"github.com/atomicstack/vault-browser/internal/api"
	"github.com/atomicstack/vault-browser/internal/bus"
)

// User-facing texts.
const (
	MsgNameConflict       = "An item with this name already exists"
	MsgFolderConflict     = "A folder with this name already exists"
	MsgGenericError       = "An error occurred"
	MsgDetailsPlaceholder = "Select a file or folder to view its details"
	RootCrumbLabel        = "Collections"
)

// RenameError maps a rename failure to the message shown under the input.
func RenameError(err error) string {
	if err == nil {
		return ""
	}
	if _, ok := api.AsConflict(err); ok {
		return MsgNameConflict
	}
	return MsgGenericError
}

// CreateError maps a create failure to the message shown under the input.
func CreateError(err error) string {
	if err == nil {
		return ""
	}
	if _, ok := api.AsConflict(err); ok {
		return MsgFolderConflict
	}
	return MsgGenericError
}

// DeleteConfirmation is the prompt shown before a delete.
func DeleteConfirmation(n int) string {
	return fmt.Sprintf("%d item(s) will be deleted.", n)
}

// MoveConfirmLabel is the picker's confirm button text.
func MoveConfirmLabel(n int) string {
	return fmt.Sprintf("MOVE %d ITEM(S) HERE", n)
}

// FailureIndicator summarises a batch error for the status line.
func FailureIndicator(err error) string {
	if err == nil {
		return ""
	}
	var partial *bus.PartialBatchFailure
	if errors.As(err, &partial) {
		return fmt.Sprintf("%d of %d items failed", len(partial.Failed), partial.Total)
	}
	return MsgGenericError
}
