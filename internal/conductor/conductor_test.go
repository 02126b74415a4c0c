package conductor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/atomicstack/vault-browser/internal/api"
	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/state"
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
//	    │       └── f1
//	    ├── d
//	    └── f2
func fixtureTree() []tree.Node {
	return []tree.Node{
		node("org", tree.TypeOrganization),
		node("col", tree.TypeCollection, "org"),
		node("a", tree.TypeFolder, "org", "col"),
		node("b", tree.TypeFolder, "org", "col", "a"),
		node("f1", tree.TypeFile, "org", "col", "a", "b"),
		node("d", tree.TypeFolder, "org", "col"),
		node("f2", tree.TypeFile, "org", "col"),
	}
}

type fixture struct {
	c    *Conductor
	bus  *bus.Bus
	fake *testutil.FakeResources
	rec  *testutil.Recorder
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	return newFixtureWith(t, opts, nil)
}

// newFixtureWith lets wrap put a Resources in front of the fake.
func newFixtureWith(t *testing.T, opts Options, wrap func(*testutil.FakeResources) Resources) fixture {
	t.Helper()
	b := bus.New()
	fake := testutil.NewFakeResources(fixtureTree()...)
	opts.Bus = b
	opts.Resources = fake
	if wrap != nil {
		opts.Resources = wrap(fake)
	}
	c := New(opts)
	if err := c.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(c.Stop)
	rec := testutil.NewRecorder()
	if err := rec.Attach(b, bus.ResponseTopics()...); err != nil {
		t.Fatalf("attach recorder failed: %v", err)
	}
	return fixture{c: c, bus: b, fake: fake, rec: rec}
}

func (f fixture) publish(t *testing.T, msg bus.Message) {
	t.Helper()
	if _, err := f.bus.Publish(context.Background(), msg); err != nil {
		t.Fatalf("publish %s failed: %v", msg.Topic(), err)
	}
}

func (f fixture) navigate(t *testing.T, id string) bus.DirectoryChanged {
	t.Helper()
	f.publish(t, bus.DirectoryChangeRequested{NodeID: id})
	dc, ok := testutil.Last[bus.DirectoryChanged](f.rec)
	if !ok || dc.Err != nil {
		t.Fatalf("expected directory change to %s, got %#v", id, dc)
	}
	return dc
}

func (f fixture) cached(t *testing.T, ids ...string) []tree.Node {
	t.Helper()
	out := make([]tree.Node, 0, len(ids))
	for _, id := range ids {
		n, ok := f.c.Cache().Get(id)
		if !ok {
			t.Fatalf("expected %s cached", id)
		}
		out = append(out, n)
	}
	return out
}

// patchRewriter replaces what the server returns from Patch.
type patchRewriter struct {
	*testutil.FakeResources
	rewrite func(tree.Node) tree.Node
}

func (p patchRewriter) Patch(ctx context.Context, resource, id string, attrs api.Attrs) (tree.Node, error) {
	n, err := p.FakeResources.Patch(ctx, resource, id, attrs)
	if err != nil {
		return n, err
	}
	return p.rewrite(n), nil
}

func ids(nodes []tree.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func equalIDs(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestChangeDirectoryResolvesRoot(t *testing.T) {
	f := newFixture(t, Options{})
	f.publish(t, bus.DirectoryChangeRequested{})
	dc, _ := testutil.Last[bus.DirectoryChanged](f.rec)
	if dc.Err != nil {
		t.Fatalf("expected success, got %v", dc.Err)
	}
	if dc.Node.ID != "org" {
		t.Fatalf("expected root org, got %q", dc.Node.ID)
	}
	if !equalIDs(ids(dc.Children), "col") {
		t.Fatalf("expected children [col], got %v", ids(dc.Children))
	}
	if f.c.History().Len() != 1 {
		t.Fatalf("expected one history entry, got %d", f.c.History().Len())
	}
	if _, _, ok := f.c.Cache().Children(""); !ok {
		t.Fatalf("expected root listing cached")
	}
}

func TestChangeDirectoryByIDBuildsTrail(t *testing.T) {
	f := newFixture(t, Options{})
	dc := f.navigate(t, "b")
	if !equalIDs(ids(dc.Trail), "org", "col", "a") {
		t.Fatalf("expected trail org/col/a, got %v", ids(dc.Trail))
	}
	if !equalIDs(ids(dc.Children), "f1") {
		t.Fatalf("expected children [f1], got %v", ids(dc.Children))
	}
	if dc.Path.String() != "org.col.a" {
		t.Fatalf("expected path org.col.a, got %s", dc.Path)
	}
	if got := f.fake.Calls(testutil.OpGet); got != 4 {
		t.Fatalf("expected 4 get calls (node plus 3 ancestors), got %d", got)
	}
	if f.c.State().Phase != Idle {
		t.Fatalf("expected idle after response, got %s", f.c.State().Phase)
	}
}

func TestChangeDirectoryFailureIsPublished(t *testing.T) {
	f := newFixture(t, Options{})
	f.fake.Fail(testutil.OpList, "a", &api.ServerError{Status: http.StatusInternalServerError})
	f.publish(t, bus.DirectoryChangeRequested{NodeID: "a"})
	dc, ok := testutil.Last[bus.DirectoryChanged](f.rec)
	if !ok {
		t.Fatalf("expected a response even on failure")
	}
	if _, ok := api.AsServerError(dc.Err); !ok {
		t.Fatalf("expected server error, got %v", dc.Err)
	}
	if f.c.History().Len() != 0 {
		t.Fatalf("expected no history push on failure")
	}
}

func TestChangeDirectoryRejectsLeaf(t *testing.T) {
	f := newFixture(t, Options{})
	f.publish(t, bus.DirectoryChangeRequested{NodeID: "f2"})
	dc, _ := testutil.Last[bus.DirectoryChanged](f.rec)
	if !errors.Is(dc.Err, ErrNotDirectory) {
		t.Fatalf("expected ErrNotDirectory, got %v", dc.Err)
	}
	if f.fake.Calls(testutil.OpList) != 0 {
		t.Fatalf("expected no listing for a file")
	}
}

func TestSupersededDirectoryResponseIsDiscarded(t *testing.T) {
	f := newFixture(t, Options{})
	release := f.fake.Hold(testutil.OpList, "a")
	defer release()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.bus.Publish(context.Background(), bus.DirectoryChangeRequested{NodeID: "a"})
	}()
	waitFor(t, "held listing", func() bool { return f.fake.Calls(testutil.OpList) == 1 })
	if f.c.State().Phase != AwaitingDirectoryListing {
		t.Fatalf("expected awaiting listing, got %s", f.c.State().Phase)
	}

	f.navigate(t, "d")
	release()
	<-done

	all := testutil.All[bus.DirectoryChanged](f.rec)
	if len(all) != 2 {
		t.Fatalf("expected exactly one response per request, got %d", len(all))
	}
	stale := all[1]
	if stale.Node.ID != "a" || !errors.Is(stale.Err, ErrSuperseded) {
		t.Fatalf("expected superseded response for a, got %#v", stale)
	}
	if all[0].Node.ID != "d" || stale.Seq >= all[0].Seq {
		t.Fatalf("expected stale seq below the winning one")
	}
	cur, _ := f.c.History().Current()
	if f.c.History().Len() != 1 || cur.Node.ID != "d" {
		t.Fatalf("expected only d in history, got %d entries ending %q", f.c.History().Len(), cur.Node.ID)
	}
	if _, _, ok := f.c.Cache().Children("a"); ok {
		t.Fatalf("expected stale listing not merged")
	}
	if f.c.State().Phase != Idle {
		t.Fatalf("expected idle, got %s", f.c.State().Phase)
	}
}

func TestRenameUpdatesCacheAfterConfirmation(t *testing.T) {
	f := newFixture(t, Options{})
	f.navigate(t, "col")
	before, _ := f.c.Cache().Get("d")

	a, _ := f.c.Cache().Get("a")
	f.publish(t, bus.RenameRequested{Node: a, NewName: " C "})
	rc, _ := testutil.Last[bus.RenameCompleted](f.rec)
	if rc.Err != nil {
		t.Fatalf("expected rename to succeed, got %v", rc.Err)
	}
	if rc.Node.Name != "C" || rc.NewName != "C" {
		t.Fatalf("expected name C, got %#v", rc)
	}
	cached, _ := f.c.Cache().Get("a")
	if cached.Name != "C" {
		t.Fatalf("expected cached name C, got %q", cached.Name)
	}
	after, _ := f.c.Cache().Get("d")
	if !before.Path.Equal(after.Path) || !cached.Path.Equal(a.Path) {
		t.Fatalf("expected no path changes on rename")
	}
}

func TestRenameKeepsServerConfirmedName(t *testing.T) {
	f := newFixtureWith(t, Options{}, func(fake *testutil.FakeResources) Resources {
		return patchRewriter{FakeResources: fake, rewrite: func(n tree.Node) tree.Node {
			n.Name += " (1)"
			return n
		}}
	})
	f.navigate(t, "col")
	a, _ := f.c.Cache().Get("a")
	f.publish(t, bus.RenameRequested{Node: a, NewName: "C"})
	rc, _ := testutil.Last[bus.RenameCompleted](f.rec)
	if rc.Err != nil || rc.Node.Name != "C (1)" {
		t.Fatalf("expected server name C (1), got %#v", rc)
	}
	cached, _ := f.c.Cache().Get("a")
	if cached.Name != "C (1)" {
		t.Fatalf("expected cached server name, got %q", cached.Name)
	}
}

func TestRenameWithEmptyResponseUsesRequestedName(t *testing.T) {
	f := newFixtureWith(t, Options{}, func(fake *testutil.FakeResources) Resources {
		return patchRewriter{FakeResources: fake, rewrite: func(tree.Node) tree.Node { return tree.Node{} }}
	})
	f.navigate(t, "col")
	a, _ := f.c.Cache().Get("a")
	f.publish(t, bus.RenameRequested{Node: a, NewName: "C"})
	rc, _ := testutil.Last[bus.RenameCompleted](f.rec)
	if rc.Err != nil || rc.Node.Name != "C" {
		t.Fatalf("expected rename to C, got %#v", rc)
	}
	cached, _ := f.c.Cache().Get("a")
	if cached.Name != "C" || !cached.Path.Equal(a.Path) {
		t.Fatalf("expected name C at the same path, got %#v", cached)
	}
}

func TestRenameConflictLeavesCache(t *testing.T) {
	f := newFixture(t, Options{})
	f.navigate(t, "col")
	a, _ := f.c.Cache().Get("a")
	f.publish(t, bus.RenameRequested{Node: a, NewName: "d"})
	rc, _ := testutil.Last[bus.RenameCompleted](f.rec)
	if _, ok := api.AsConflict(rc.Err); !ok {
		t.Fatalf("expected conflict, got %v", rc.Err)
	}
	cached, _ := f.c.Cache().Get("a")
	if cached.Name != "a" {
		t.Fatalf("expected unconfirmed name not cached, got %q", cached.Name)
	}
}

func TestRenameValidationMakesNoCalls(t *testing.T) {
	f := newFixture(t, Options{})
	a := node("a", tree.TypeFolder, "org", "col")

	f.publish(t, bus.RenameRequested{Node: a, NewName: "a"})
	rc, _ := testutil.Last[bus.RenameCompleted](f.rec)
	if !rc.Unchanged || rc.Err != nil {
		t.Fatalf("expected unchanged close, got %#v", rc)
	}

	f.publish(t, bus.RenameRequested{Node: a, NewName: "   "})
	rc, _ = testutil.Last[bus.RenameCompleted](f.rec)
	if !errors.Is(rc.Err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", rc.Err)
	}
	if f.fake.TotalCalls() != 0 {
		t.Fatalf("expected zero client calls, got %d", f.fake.TotalCalls())
	}
}

func TestIllegalMoveMakesNoCalls(t *testing.T) {
	a := node("a", tree.TypeFolder, "org", "col")
	b := node("b", tree.TypeFolder, "org", "col", "a")
	col := node("col", tree.TypeCollection, "org")
	org := node("org", tree.TypeOrganization)

	cases := []struct {
		name   string
		dest   tree.Node
		reason tree.MoveReason
	}{
		{"self", a, tree.MoveIntoSelf},
		{"descendant", b, tree.MoveIntoDescendant},
		{"current parent", col, tree.MoveNoOp},
		{"organization", org, tree.MoveBadTarget},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, Options{})
			f.publish(t, bus.MoveRequested{Sources: []tree.Node{a}, Destination: tc.dest})
			mc, _ := testutil.Last[bus.MoveCompleted](f.rec)
			var illegal *tree.IllegalMoveError
			if !errors.As(mc.Err, &illegal) || illegal.Reason != tc.reason {
				t.Fatalf("expected %s, got %v", tc.reason, mc.Err)
			}
			if len(mc.Results) != 0 {
				t.Fatalf("expected no results, got %d", len(mc.Results))
			}
			if f.fake.TotalCalls() != 0 {
				t.Fatalf("expected zero client calls, got %d", f.fake.TotalCalls())
			}
		})
	}
}

func TestMoveGuardConsultsCache(t *testing.T) {
	f := newFixture(t, Options{})
	f.navigate(t, "a")
	calls := f.fake.TotalCalls()

	a := f.cached(t, "a")
	f.publish(t, bus.MoveRequested{Sources: a, Destination: tree.Node{ID: "b", Type: tree.TypeFolder}})
	mc, _ := testutil.Last[bus.MoveCompleted](f.rec)
	var illegal *tree.IllegalMoveError
	if !errors.As(mc.Err, &illegal) || illegal.Reason != tree.MoveIntoDescendant {
		t.Fatalf("expected %s, got %v", tree.MoveIntoDescendant, mc.Err)
	}
	if got := f.fake.TotalCalls(); got != calls {
		t.Fatalf("expected zero client calls, got %d", got-calls)
	}
}

func TestMoveKeepsCachedDestination(t *testing.T) {
	f := newFixture(t, Options{})
	f.navigate(t, "col")

	stale := tree.Node{ID: "d", Name: "stale", Type: tree.TypeFolder}
	f.publish(t, bus.MoveRequested{Sources: []tree.Node{{ID: "a", Type: tree.TypeFolder}}, Destination: stale})
	mc, _ := testutil.Last[bus.MoveCompleted](f.rec)
	if mc.Err != nil {
		t.Fatalf("expected move to succeed, got %v", mc.Err)
	}
	d, _ := f.c.Cache().Get("d")
	if d.Name != "d" || d.Path.String() != "org.col" {
		t.Fatalf("expected cached destination untouched, got %#v", d)
	}
	a, _ := f.c.Cache().Get("a")
	if a.Path.String() != "org.col.d" {
		t.Fatalf("expected a under d, got %s", a.Path)
	}
}

func TestReplayAfterMoveUsesCachedLocation(t *testing.T) {
	f := newFixture(t, Options{})
	f.navigate(t, "a")
	f.navigate(t, "col")

	f.publish(t, bus.MoveRequested{Sources: f.cached(t, "a"), Destination: f.cached(t, "d")[0]})
	if mc, _ := testutil.Last[bus.MoveCompleted](f.rec); mc.Err != nil {
		t.Fatalf("expected move to succeed, got %v", mc.Err)
	}

	if ok, err := f.c.Back(context.Background()); !ok || err != nil {
		t.Fatalf("expected back to replay, got %v %v", ok, err)
	}
	dc, _ := testutil.Last[bus.DirectoryChanged](f.rec)
	if dc.Err != nil || dc.Node.ID != "a" {
		t.Fatalf("expected replay of a, got %#v", dc)
	}
	if dc.Path.String() != "org.col.d" {
		t.Fatalf("expected published path org.col.d, got %s", dc.Path)
	}
	if !equalIDs(ids(dc.Trail), "org", "col", "d") {
		t.Fatalf("expected trail org/col/d, got %v", ids(dc.Trail))
	}
	a, _ := f.c.Cache().Get("a")
	if a.Path.String() != "org.col.d" {
		t.Fatalf("expected cached path kept after replay, got %s", a.Path)
	}
}

func TestPartialBatchMove(t *testing.T) {
	f := newFixture(t, Options{})
	f.navigate(t, "col")
	d, _ := f.c.Cache().Get("d")
	f.publish(t, bus.ChildrenRequested{Parent: d, Origin: bus.OriginPicker})
	f.fake.Fail(testutil.OpPatch, "f2", &api.ServerError{Status: http.StatusInternalServerError})

	sources := f.cached(t, "a", "f2")
	f.publish(t, bus.MoveRequested{Sources: sources, Destination: d})
	mc, _ := testutil.Last[bus.MoveCompleted](f.rec)

	if len(mc.Results) != 2 || mc.Results[0].Node.ID != "a" || mc.Results[1].Node.ID != "f2" {
		t.Fatalf("expected results in request order, got %#v", mc.Results)
	}
	if mc.Results[0].Err != nil || mc.Results[1].Err == nil {
		t.Fatalf("expected a to succeed and f2 to fail, got %#v", mc.Results)
	}
	var partial *bus.PartialBatchFailure
	if !errors.As(mc.Err, &partial) || len(partial.Failed) != 1 || partial.Total != 2 {
		t.Fatalf("expected partial batch failure 1 of 2, got %v", mc.Err)
	}
	if !equalIDs(ids(mc.DestinationTrail), "org", "col", "d") {
		t.Fatalf("expected destination trail org/col/d, got %v", ids(mc.DestinationTrail))
	}

	colChildren, _, _ := f.c.Cache().Children("col")
	if !equalIDs(ids(colChildren), "d", "f2") {
		t.Fatalf("expected a gone from col and f2 kept, got %v", ids(colChildren))
	}
	dChildren, _, _ := f.c.Cache().Children("d")
	if !equalIDs(ids(dChildren), "a") {
		t.Fatalf("expected a under d, got %v", ids(dChildren))
	}
	chain, err := f.c.Cache().AncestorChain("a")
	if err != nil {
		t.Fatalf("ancestor chain failed: %v", err)
	}
	if !equalIDs(chain, d.Path.Child(d.ID).Ancestors()...) {
		t.Fatalf("expected chain %v, got %v", d.Path.Child(d.ID).Ancestors(), chain)
	}
	f2, _ := f.c.Cache().Get("f2")
	if f2.ParentID() != "col" {
		t.Fatalf("expected failed item untouched, got parent %q", f2.ParentID())
	}
}

func TestDeleteBatchWithSecondFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.navigate(t, "col")
	f.fake.Fail(testutil.OpDelete, "d", &api.ServerError{Status: http.StatusInternalServerError})

	nodes := f.cached(t, "a", "d", "f2")
	f.publish(t, bus.DeleteRequested{Nodes: nodes})
	dc, _ := testutil.Last[bus.DeleteCompleted](f.rec)

	if len(dc.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(dc.Results))
	}
	if dc.Results[0].Err != nil || dc.Results[2].Err != nil {
		t.Fatalf("expected first and third to succeed, got %#v", dc.Results)
	}
	if _, ok := api.AsServerError(dc.Results[1].Err); !ok {
		t.Fatalf("expected server error for second item, got %v", dc.Results[1].Err)
	}
	children, _, _ := f.c.Cache().Children("col")
	if !equalIDs(ids(children), "d") {
		t.Fatalf("expected only d left, got %v", ids(children))
	}
	if f.fake.Calls(testutil.OpDelete) != 3 {
		t.Fatalf("expected every delete attempted, got %d", f.fake.Calls(testutil.OpDelete))
	}
}

func TestDeleteRefusesContainersWithoutCalls(t *testing.T) {
	f := newFixture(t, Options{})
	f.publish(t, bus.DeleteRequested{Nodes: []tree.Node{node("col", tree.TypeCollection, "org")}})
	dc, _ := testutil.Last[bus.DeleteCompleted](f.rec)
	if dc.Err == nil || dc.Results[0].Err == nil {
		t.Fatalf("expected collection delete to fail")
	}
	if f.fake.Calls(testutil.OpDelete) != 0 {
		t.Fatalf("expected no delete call")
	}
}

func TestCreateRefreshesParent(t *testing.T) {
	f := newFixture(t, Options{})
	col := f.navigate(t, "col").Node

	f.publish(t, bus.CreateRequested{Type: tree.TypeFolder, Name: "new", Parent: col})
	cc, _ := testutil.Last[bus.CreateCompleted](f.rec)
	if cc.Err != nil || cc.Node == nil {
		t.Fatalf("expected create to succeed, got %#v", cc)
	}
	if cc.Node.ParentID() != "col" {
		t.Fatalf("expected new node under col, got %q", cc.Node.ParentID())
	}
	dc, _ := testutil.Last[bus.DirectoryChanged](f.rec)
	if dc.Node.ID != "col" {
		t.Fatalf("expected implicit refresh of col, got %q", dc.Node.ID)
	}
	if !equalIDs(ids(dc.Children), "a", "d", "f2", cc.Node.ID) {
		t.Fatalf("expected new child listed, got %v", ids(dc.Children))
	}
}

func TestCreateConflict(t *testing.T) {
	f := newFixture(t, Options{})
	col := f.navigate(t, "col").Node
	changes := f.rec.Count(bus.DirectoryChangedTopic)

	f.publish(t, bus.CreateRequested{Type: tree.TypeFolder, Name: "a", Parent: col})
	cc, _ := testutil.Last[bus.CreateCompleted](f.rec)
	if _, ok := api.AsConflict(cc.Err); !ok {
		t.Fatalf("expected conflict, got %v", cc.Err)
	}
	if f.rec.Count(bus.DirectoryChangedTopic) != changes {
		t.Fatalf("expected no refresh after a failed create")
	}
}

func TestReplayReproducesPayloadWithoutPush(t *testing.T) {
	f := newFixture(t, Options{})
	first := f.navigate(t, "col")
	f.navigate(t, "a")
	if f.c.History().Len() != 2 {
		t.Fatalf("expected 2 history entries, got %d", f.c.History().Len())
	}

	ok, err := f.c.Back(context.Background())
	if !ok || err != nil {
		t.Fatalf("expected back to replay, got %v %v", ok, err)
	}
	replayed, _ := testutil.Last[bus.DirectoryChanged](f.rec)
	if !replayed.FromHistory {
		t.Fatalf("expected replay flag")
	}
	if replayed.Node.ID != first.Node.ID || replayed.Node.Name != first.Node.Name || !replayed.Path.Equal(first.Path) {
		t.Fatalf("expected same node and path, got %#v", replayed)
	}
	if !equalIDs(ids(replayed.Children), ids(first.Children)...) || !equalIDs(ids(replayed.Trail), ids(first.Trail)...) {
		t.Fatalf("expected same children and trail")
	}
	if f.c.History().Len() != 2 {
		t.Fatalf("expected no history push on replay, got %d entries", f.c.History().Len())
	}
	gets := f.fake.Calls(testutil.OpGet)

	if ok, _ := f.c.Forward(context.Background()); !ok {
		t.Fatalf("expected forward to replay")
	}
	fwd, _ := testutil.Last[bus.DirectoryChanged](f.rec)
	if fwd.Node.ID != "a" || f.fake.Calls(testutil.OpGet) != gets {
		t.Fatalf("expected replay of a without node fetch")
	}
}

func TestChildrenPagination(t *testing.T) {
	f := newFixture(t, Options{PageSize: 2})
	col := node("col", tree.TypeCollection, "org")

	f.publish(t, bus.ChildrenRequested{Parent: col, Origin: bus.OriginListing})
	first, _ := testutil.Last[bus.ChildrenResponded](f.rec)
	if first.Err != nil || len(first.Children) != 2 || first.Next == "" {
		t.Fatalf("expected first page of 2 with cursor, got %#v", first)
	}

	f.publish(t, bus.ChildrenRequested{Parent: col, Cursor: first.Next, Origin: bus.OriginListing})
	second, _ := testutil.Last[bus.ChildrenResponded](f.rec)
	if !equalIDs(ids(second.Children), "f2") || second.Next != "" {
		t.Fatalf("expected last page [f2], got %#v", second)
	}
	children, next, _ := f.c.Cache().Children("col")
	if !equalIDs(ids(children), "a", "d", "f2") || next != "" {
		t.Fatalf("expected appended index, got %v next=%q", ids(children), next)
	}
	if second.Origin != bus.OriginListing {
		t.Fatalf("expected origin echoed")
	}
}

func TestHistoryEntryCarriesNode(t *testing.T) {
	f := newFixture(t, Options{History: state.NewHistory(5)})
	f.navigate(t, "b")
	cur, ok := f.c.History().Current()
	if !ok || cur.Node.ID != "b" || cur.Path.String() != "org.col.a" {
		t.Fatalf("unexpected history entry %#v", cur)
	}
}

func TestValidateRename(t *testing.T) {
	n := node("a", tree.TypeFolder)
	if _, err := ValidateRename(n, ""); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if unchanged, err := ValidateRename(n, "a"); err != nil || !unchanged {
		t.Fatalf("expected unchanged, got %v %v", unchanged, err)
	}
	if unchanged, err := ValidateRename(n, "b"); err != nil || unchanged {
		t.Fatalf("expected change, got %v %v", unchanged, err)
	}
}
