// Package ui contains the Bubble Tea program for the vault browser.
//
// Message flow:
//   - Key presses become requests published on the bus through the
//     ui/command package. Update never calls the remote API.
//   - Responses and interaction events come back through a backend.Bridge.
//     Each one is handed to the dispatcher, which runs every view reducer
//     and swaps the results into the Views value.
//   - View renders the current Views and is the last step of every update.
//
// State ownership:
//   - Each view state (navigator, listing, picker, breadcrumbs, details)
//     lives in internal/ui/state and changes only through its reducer or an
//     interaction helper that returns a new value.
//   - The model itself keeps input state: the mode, the focused pane, open
//     forms, the context menu and the status line.
//
// Harness drives a Model without a terminal for tests.
package ui
