package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/atomicstack/vault-browser/internal/backend"
	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/conductor"
	"github.com/atomicstack/vault-browser/internal/testutil"
	"github.com/atomicstack/vault-browser/internal/tree"
)

func node(id string, typ tree.Type, path ...string) tree.Node {
	return tree.Node{ID: id, Name: id, Type: typ, Path: tree.NewPath(path...)}
}

// fixtureTree:
//
//	org
//	└── col
//	    ├── a
//	    │   └── b
//	    ├── d
//	    └── f2
func fixtureTree() []tree.Node {
	return []tree.Node{
		node("org", tree.TypeOrganization),
		node("col", tree.TypeCollection, "org"),
		node("a", tree.TypeFolder, "org", "col"),
		node("b", tree.TypeFolder, "org", "col", "a"),
		node("d", tree.TypeFolder, "org", "col"),
		{ID: "f2", Name: "f2", Type: tree.TypeFile, Path: tree.NewPath("org", "col"), Size: 2048},
	}
}

type fixture struct {
	h    *Harness
	fake *testutil.FakeResources
	c    *conductor.Conductor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	b := bus.New()
	fake := testutil.NewFakeResources(fixtureTree()...)
	c := conductor.New(conductor.Options{Bus: b, Resources: fake})
	if err := c.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(c.Stop)
	br, err := backend.NewBridge(b, 256)
	if err != nil {
		t.Fatalf("bridge failed: %v", err)
	}
	t.Cleanup(br.Stop)
	m := NewModel(Options{Publisher: b, Bridge: br, History: c, Width: 100, Height: 20})
	h := NewHarness(m)
	h.SetNow(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	h.Start()
	return fixture{h: h, fake: fake, c: c}
}

func (f fixture) listingIDs() []string {
	l := f.h.Model().Views().Listing.Level
	if l == nil {
		return nil
	}
	ids := make([]string, 0, len(l.Items))
	for _, it := range l.Items {
		ids = append(ids, it.ID)
	}
	return ids
}

func (f fixture) openCollection(t *testing.T) {
	t.Helper()
	f.h.Key("enter")
	if dir := f.h.Model().Views().Listing.Dir.ID; dir != "col" {
		t.Fatalf("expected to be in col, got %q", dir)
	}
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStartLoadsOrganization(t *testing.T) {
	f := newFixture(t)
	m := f.h.Model()
	if dir := m.Views().Listing.Dir.ID; dir != "org" {
		t.Fatalf("expected org root, got %q", dir)
	}
	if ids := f.listingIDs(); !equalIDs(ids, []string{"col"}) {
		t.Fatalf("expected [col], got %v", ids)
	}
	if m.loading {
		t.Fatalf("expected loading to finish")
	}
	if m.Err() != "" {
		t.Fatalf("expected no error, got %q", m.Err())
	}
}

func TestEnterOpensDirectory(t *testing.T) {
	f := newFixture(t)
	f.openCollection(t)
	if ids := f.listingIDs(); !equalIDs(ids, []string{"a", "d", "f2"}) {
		t.Fatalf("expected [a d f2], got %v", ids)
	}
	if got := f.h.Model().Views().Breadcrumbs.String(); got != "Collections / col" {
		t.Fatalf("expected breadcrumbs %q, got %q", "Collections / col", got)
	}
}

func TestBackspaceGoesToParent(t *testing.T) {
	f := newFixture(t)
	f.openCollection(t)
	f.h.Key("backspace")
	if dir := f.h.Model().Views().Listing.Dir.ID; dir != "org" {
		t.Fatalf("expected parent org, got %q", dir)
	}
}

func TestHistoryBackAndForward(t *testing.T) {
	f := newFixture(t)
	f.openCollection(t)
	f.h.Key("alt+left")
	if dir := f.h.Model().Views().Listing.Dir.ID; dir != "org" {
		t.Fatalf("expected back to org, got %q", dir)
	}
	f.h.Key("alt+right")
	if dir := f.h.Model().Views().Listing.Dir.ID; dir != "col" {
		t.Fatalf("expected forward to col, got %q", dir)
	}
	f.h.Key("alt+right")
	if info := f.h.Model().currentInfo(); info != "No more history" {
		t.Fatalf("expected history info, got %q", info)
	}
}

func TestOpenFileShowsInfo(t *testing.T) {
	f := newFixture(t)
	f.openCollection(t)
	f.h.Key("end")
	f.h.Key("enter")
	if dir := f.h.Model().Views().Listing.Dir.ID; dir != "col" {
		t.Fatalf("expected to stay in col, got %q", dir)
	}
	if info := f.h.Model().currentInfo(); info != "Open f2" {
		t.Fatalf("expected open info, got %q", info)
	}
}

func TestSelectionFeedsDetails(t *testing.T) {
	f := newFixture(t)
	f.openCollection(t)
	f.h.Key("i")
	f.h.Key("down")
	d := f.h.Model().Views().Details
	if !d.Open {
		t.Fatalf("expected details panel open")
	}
	subject, ok := d.Subject()
	if !ok || subject.ID != "d" {
		t.Fatalf("expected details for d, got %#v", subject)
	}
}

func TestNavigatorExpandLoadsChildren(t *testing.T) {
	f := newFixture(t)
	f.openCollection(t)
	f.h.Key("tab")
	if f.h.Model().Focus() != FocusNavigator {
		t.Fatalf("expected navigator focus, got %s", f.h.Model().Focus())
	}
	nav := f.h.Model().Views().Navigator
	found := false
	for i, row := range nav.Rows() {
		if row.Node.ID == "a" {
			f.h.Model().views.Navigator = nav.MoveCursor(i - nav.Cursor)
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("expected a in the navigator rows")
	}
	before := f.fake.Calls(testutil.OpList)
	f.h.Key("right")
	f.h.Key("right")
	nn, ok := f.h.Model().Views().Navigator.Node("a")
	if !ok || !nn.Expanded {
		t.Fatalf("expected a expanded, got %#v", nn)
	}
	if !equalIDs(nn.Children, []string{"b"}) {
		t.Fatalf("expected children [b], got %v", nn.Children)
	}
	if calls := f.fake.Calls(testutil.OpList) - before; calls != 1 {
		t.Fatalf("expected expansion to be fetched once, got %d list calls", calls)
	}
}

func TestCtrlCQuits(t *testing.T) {
	f := newFixture(t)
	_, cmd := f.h.Model().Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if !quits(cmd) {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func quits(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	switch msg := cmd().(type) {
	case tea.QuitMsg:
		return true
	case tea.BatchMsg:
		for _, c := range msg {
			if quits(c) {
				return true
			}
		}
	}
	return false
}
