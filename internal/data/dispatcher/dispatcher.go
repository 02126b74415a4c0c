package dispatcher

import (
	"errors"

	"github.com/atomicstack/vault-browser/internal/backend"
	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/conductor"
	"github.com/atomicstack/vault-browser/internal/ui/state"
)

// Views holds the state of every view. The dispatcher swaps in reduced
// values; it never edits a view in place.
type Views struct {
	Navigator   state.Navigator
	Listing     state.Listing
	Picker      state.Picker
	Breadcrumbs state.Breadcrumbs
	Details     state.Details
}

// NewViews returns empty views.
func NewViews() Views {
	return Views{
		Navigator: state.NewNavigator(),
		Listing:   state.NewListing(),
	}
}

// Result reports what a delivery touched and what the user should be told.
type Result struct {
	NavigatorUpdated   bool
	ListingUpdated     bool
	PickerUpdated      bool
	BreadcrumbsUpdated bool
	DetailsUpdated     bool

	// Notice is a status line message; empty when there is nothing to say.
	Notice string
	// RenameErr and CreateErr are shown under their forms.
	RenameErr string
	CreateErr string
	// Open is set when a file was activated.
	Open *bus.OpenFileRequested
}

type Dispatcher struct {
	views *Views
}

func New(v *Views) *Dispatcher {
	return &Dispatcher{views: v}
}

// Handle runs the delivery through every reducer.
func (d *Dispatcher) Handle(evt backend.Event) Result {
	var res Result
	msg := evt.Envelope.Message
	if msg == nil {
		return res
	}
	v := d.views

	switch m := msg.(type) {
	case bus.OpenFileRequested:
		node := m
		res.Open = &node
		return res
	case bus.DirectoryChanged:
		if m.Err != nil && !errors.Is(m.Err, conductor.ErrSuperseded) {
			res.Notice = state.MsgGenericError
		}
	case bus.RenameCompleted:
		res.RenameErr = state.RenameError(m.Err)
	case bus.CreateCompleted:
		res.CreateErr = state.CreateError(m.Err)
	case bus.MoveCompleted:
		res.Notice = state.FailureIndicator(m.Err)
	case bus.DeleteCompleted:
		res.Notice = state.FailureIndicator(m.Err)
	}

	nav := v.Navigator.Reduce(msg)
	listing := v.Listing.Reduce(msg)
	picker := v.Picker.Reduce(msg)
	crumbs := v.Breadcrumbs.Reduce(msg)
	details := v.Details.Reduce(msg)

	res.NavigatorUpdated = affects(msg, bus.OriginNavigator)
	res.ListingUpdated = affects(msg, bus.OriginListing)
	res.PickerUpdated = v.Picker.Active && affects(msg, bus.OriginPicker)
	res.BreadcrumbsUpdated = breadcrumbTopic(msg)
	res.DetailsUpdated = detailsTopic(msg)

	v.Navigator = nav
	v.Listing = listing
	v.Picker = picker
	v.Breadcrumbs = crumbs
	v.Details = details
	return res
}

func affects(msg bus.Message, origin bus.Origin) bool {
	switch m := msg.(type) {
	case bus.ChildrenResponded:
		return m.Origin == origin
	case bus.SelectionChanged, bus.DetailsToggled:
		return false
	case bus.MoveCompleted:
		// the picker closes on any move result
		return true
	}
	return origin != bus.OriginPicker
}

func breadcrumbTopic(msg bus.Message) bool {
	switch msg.(type) {
	case bus.DirectoryChanged, bus.RenameCompleted, bus.MoveCompleted:
		return true
	}
	return false
}

func detailsTopic(msg bus.Message) bool {
	switch msg.(type) {
	case bus.ChildrenResponded, bus.CreateCompleted:
		return false
	}
	return true
}
