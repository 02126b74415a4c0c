package ui

import (
	"context"
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/vault-browser/internal/backend"
	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/data/dispatcher"
	"github.com/atomicstack/vault-browser/internal/menu"
	"github.com/atomicstack/vault-browser/internal/theme"
	"github.com/atomicstack/vault-browser/internal/tree"
	"github.com/atomicstack/vault-browser/internal/ui/command"
	uistate "github.com/atomicstack/vault-browser/internal/ui/state"
)

type level = uistate.Level

// Mode is the input mode; modal modes capture every key.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeFilter
	ModeMenu
	ModePicker
	ModeRenameForm
	ModeCreateForm
	ModeConfirmDelete
)

// Focus is the pane that receives browse keys.
type Focus int

const (
	FocusListing Focus = iota
	FocusNavigator
	FocusDetails
)

func (f Focus) String() string {
	switch f {
	case FocusNavigator:
		return "navigator"
	case FocusDetails:
		return "details"
	default:
		return "listing"
	}
}

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// HistoryNavigator replays browser history.
type HistoryNavigator interface {
	Back(ctx context.Context) (bool, error)
	Forward(ctx context.Context) (bool, error)
}

// Options configures a Model.
type Options struct {
	Context   context.Context
	Publisher command.Publisher
	Bridge    *backend.Bridge
	History   HistoryNavigator
	// RootID is the first directory; empty resolves the organization root.
	RootID     string
	Width      int
	Height     int
	ShowFooter bool
}

// Model implements the Bubble Tea model for the browser.
type Model struct {
	ctx        context.Context
	views      dispatcher.Views
	dispatcher *dispatcher.Dispatcher
	keys       KeyMap
	bus        *command.Bus
	bridge     *backend.Bridge
	listening  bool
	history    HistoryNavigator
	registry   *menu.Registry
	rootID     string

	mode  Mode
	focus Focus

	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool

	loading    bool
	errMsg     string
	infoMsg    string
	infoExpire time.Time

	form       *nameForm
	confirm    []tree.Node
	menuLevel  *level
	menuCtx    menu.Context
	lastSelect string
	navOffset  int

	filterCursor      cursor.Model
	filterCursorDirty bool
	staticCursor      bool

	now      func() time.Time
	handlers map[reflect.Type]msgHandler
}

// NewModel builds the browser model.
func NewModel(opts Options) *Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	m := &Model{
		ctx:        ctx,
		views:      dispatcher.NewViews(),
		keys:       DefaultKeyMap(),
		bus:        command.New(ctx, opts.Publisher),
		bridge:     opts.Bridge,
		history:    opts.History,
		registry:   menu.BuildRegistry(),
		rootID:     opts.RootID,
		showFooter: opts.ShowFooter,
		now:        time.Now,
	}
	m.dispatcher = dispatcher.New(&m.views)
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	c := cursor.New()
	if styles.Cursor != nil {
		c.Style = styles.Cursor.Copy()
	}
	if styles.Filter != nil {
		c.TextStyle = styles.Filter.Copy()
	}
	c.SetChar(" ")
	m.filterCursor = c
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	m.listening = true
	cmds := []tea.Cmd{m.Load()}
	if m.bridge != nil {
		cmds = append(cmds, waitForBridgeEvent(m.bridge))
	}
	if cmd := m.filterCursor.Focus(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// Load requests the first directory.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	return m.bus.Publish(bus.DirectoryChangeRequested{NodeID: m.rootID})
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 4)
	if cmd := m.updateFilterCursorModel(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if handled, cmd := m.handleActiveForm(msg); handled {
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, m.finishUpdate(cmds)
	}
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, m.finishUpdate(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):              m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}):       m.handleWindowSizeMsg,
		reflect.TypeOf(bridgeEventMsg{}):          m.handleBridgeEventMsg,
		reflect.TypeOf(bridgeDoneMsg{}):           m.handleBridgeDoneMsg,
		reflect.TypeOf(command.PublishedMsg{}):    m.handlePublishedMsg,
		reflect.TypeOf(historyMsg{}):              m.handleHistoryMsg,
		reflect.TypeOf(menu.ActionResult{}):       m.handleActionResultMsg,
		reflect.TypeOf(menu.DetailsPromptMsg{}):   m.handleDetailsPromptMsg,
		reflect.TypeOf(menu.RenamePromptMsg{}):    m.handleRenamePromptMsg,
		reflect.TypeOf(menu.MovePromptMsg{}):      m.handleMovePromptMsg,
		reflect.TypeOf(menu.DeletePromptMsg{}):    m.handleDeletePromptMsg,
		reflect.TypeOf(menu.NewFolderPromptMsg{}): m.handleNewFolderPromptMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if m.filterCursorDirty {
		m.filterCursorDirty = false
		m.filterCursor.Blink = false
		if cmd := m.filterCursor.BlinkCmd(); cmd != nil && !m.staticCursor {
			cmds = append(cmds, cmd)
		}
	}
	if cmd := m.syncSelection(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Views exposes the view states.
func (m *Model) Views() dispatcher.Views {
	return m.views
}

// Mode reports the input mode.
func (m *Model) Mode() Mode {
	return m.mode
}

// Focus reports the focused pane.
func (m *Model) Focus() Focus {
	return m.focus
}

// Err returns the status line error.
func (m *Model) Err() string {
	return m.errMsg
}
