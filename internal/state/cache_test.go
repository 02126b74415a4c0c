package state

import (
	"errors"
	"testing"

	"github.com/atomicstack/vault-browser/internal/tree"
)

func folder(id string, path ...string) tree.Node {
	return tree.Node{ID: id, Name: id, Type: tree.TypeFolder, Path: tree.NewPath(path...)}
}

func TestMergeChildrenDeduplicatesAndUpdatesInPlace(t *testing.T) {
	c := NewCache(CacheOptions{})
	a := folder("a", "org")
	merged := c.MergeChildren("org", []tree.Node{a, a, folder("b", "org")}, "", false)
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged nodes, got %d", len(merged))
	}

	renamed := a
	renamed.Name = "renamed"
	c.MergeChildren("org", []tree.Node{renamed}, "", true)

	children, _, ok := c.Children("org")
	if !ok || len(children) != 2 {
		t.Fatalf("expected 2 children after append, got %d", len(children))
	}
	if children[0].ID != "a" || children[0].Name != "renamed" {
		t.Fatalf("expected a updated in place, got %#v", children[0])
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 cached nodes, got %d", c.Len())
	}
}

func TestMergeChildrenAppendKeepsOrderAndCursor(t *testing.T) {
	c := NewCache(CacheOptions{})
	c.MergeChildren("org", []tree.Node{folder("a", "org"), folder("b", "org")}, "page-2", false)
	c.MergeChildren("org", []tree.Node{folder("b", "org"), folder("c", "org")}, "", true)
	children, next, _ := c.Children("org")
	if next != "" {
		t.Fatalf("expected cursor cleared, got %q", next)
	}
	got := []string{}
	for _, n := range children {
		got = append(got, n.ID)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestAncestorChainAndIsDescendant(t *testing.T) {
	c := NewCache(CacheOptions{})
	c.Put(tree.Node{ID: "org", Type: tree.TypeOrganization})
	c.Put(folder("b", "org", "col", "a"))

	chain, err := c.AncestorChain("b")
	if err != nil {
		t.Fatalf("ancestor chain failed: %v", err)
	}
	if len(chain) != 3 || chain[0] != "org" || chain[2] != "a" {
		t.Fatalf("unexpected chain %v", chain)
	}
	if _, err := c.AncestorChain("missing"); !errors.Is(err, ErrNotCached) {
		t.Fatalf("expected ErrNotCached, got %v", err)
	}
	if !c.IsDescendant("b", "col") || !c.IsDescendant("b", "b") {
		t.Fatalf("expected b to descend from col and itself")
	}
	if c.IsDescendant("org", "b") {
		t.Fatalf("org must not descend from b")
	}
}

func TestApplyMoveRewritesPathsAndIndexes(t *testing.T) {
	c := NewCache(CacheOptions{})
	dest := folder("dest", "org", "col")
	c.MergeChildren("col", []tree.Node{folder("a", "org", "col"), dest}, "", false)
	c.MergeChildren("a", []tree.Node{folder("a1", "org", "col", "a")}, "", false)
	c.MergeChildren("a1", []tree.Node{{ID: "f", Name: "f", Type: tree.TypeFile, Path: tree.NewPath("org", "col", "a", "a1")}}, "", false)
	c.MergeChildren("dest", nil, "", false)

	moved := c.ApplyMove(folder("a", "org", "col"), dest, tree.Node{})
	want := dest.Path.Child(dest.ID)
	if !moved.Path.Equal(want) {
		t.Fatalf("expected path %s, got %s", want, moved.Path)
	}
	chain, _ := c.AncestorChain("a")
	if tree.NewPath(chain...).String() != want.String() {
		t.Fatalf("expected ancestor chain %s, got %v", want, chain)
	}
	f, _ := c.Get("f")
	if f.Path.String() != "org.col.dest.a.a1" {
		t.Fatalf("expected descendant path rewritten, got %s", f.Path)
	}

	colChildren, _, _ := c.Children("col")
	for _, n := range colChildren {
		if n.ID == "a" {
			t.Fatalf("expected a removed from old parent index")
		}
	}
	destChildren, _, _ := c.Children("dest")
	if len(destChildren) != 1 || destChildren[0].ID != "a" {
		t.Fatalf("expected a in destination index, got %#v", destChildren)
	}
}

func TestApplyMoveKeepsCachedDestination(t *testing.T) {
	c := NewCache(CacheOptions{})
	c.MergeChildren("col", []tree.Node{folder("a", "org", "col"), folder("dest", "org", "col")}, "", false)

	stale := tree.Node{ID: "dest", Name: "old name", Type: tree.TypeFolder}
	moved := c.ApplyMove(tree.Node{ID: "a"}, stale, tree.Node{})
	if moved.Path.String() != "org.col.dest" {
		t.Fatalf("expected path from cached destination, got %s", moved.Path)
	}
	dest, _ := c.Get("dest")
	if dest.Name != "dest" || dest.Path.String() != "org.col" {
		t.Fatalf("expected destination untouched, got %#v", dest)
	}
}

func TestApplyMovePrefersConfirmedNode(t *testing.T) {
	c := NewCache(CacheOptions{})
	c.MergeChildren("col", []tree.Node{folder("a", "org", "col"), folder("dest", "org", "col")}, "", false)
	c.MergeChildren("a", []tree.Node{folder("a1", "org", "col", "a")}, "", false)
	c.MergeChildren("dest", nil, "", false)

	confirmed := folder("a", "org", "col", "dest")
	confirmed.Name = "a (moved)"
	moved := c.ApplyMove(folder("a", "org", "col"), folder("dest", "org", "col"), confirmed)
	if moved.Name != "a (moved)" || moved.Path.String() != "org.col.dest" {
		t.Fatalf("expected confirmed node cached, got %#v", moved)
	}
	a1, _ := c.Get("a1")
	if a1.Path.String() != "org.col.dest.a" {
		t.Fatalf("expected descendant rebased, got %s", a1.Path)
	}
	children, _, _ := c.Children("dest")
	if len(children) != 1 || children[0].ID != "a" {
		t.Fatalf("expected a indexed under dest, got %#v", children)
	}
}

func TestApplyMoveInsertsUncachedSource(t *testing.T) {
	c := NewCache(CacheOptions{})
	c.Put(folder("dest", "org", "col"))
	moved := c.ApplyMove(folder("x", "org", "col"), tree.Node{ID: "dest"}, tree.Node{})
	if moved.Path.String() != "org.col.dest" {
		t.Fatalf("expected inserted source placed under dest, got %s", moved.Path)
	}
	if got, ok := c.Get("x"); !ok || !got.Path.Equal(moved.Path) {
		t.Fatalf("expected source cached, got %#v", got)
	}
}

func TestPutKeepsKnownPath(t *testing.T) {
	c := NewCache(CacheOptions{})
	c.Put(folder("a", "org", "col"))
	got := c.Put(tree.Node{ID: "a", Name: "renamed"})
	if got.Path.String() != "org.col" || got.Name != "renamed" {
		t.Fatalf("expected path kept and name updated, got %#v", got)
	}
}

func TestRefreshFallsBackToGivenNode(t *testing.T) {
	c := NewCache(CacheOptions{})
	c.Put(folder("a", "org", "col"))
	out := c.Refresh([]tree.Node{{ID: "a"}, {ID: "z", Name: "z"}})
	if len(out) != 2 || out[0].Path.String() != "org.col" || out[1].Name != "z" {
		t.Fatalf("expected cached a then given z, got %#v", out)
	}
}

func TestRenameLeavesOtherPathsAlone(t *testing.T) {
	c := NewCache(CacheOptions{})
	c.MergeChildren("col", []tree.Node{folder("a", "org", "col"), folder("b", "org", "col")}, "", false)
	before, _ := c.Get("b")
	if _, ok := c.Rename("a", "C"); !ok {
		t.Fatalf("expected rename to succeed")
	}
	a, _ := c.Get("a")
	after, _ := c.Get("b")
	if a.Name != "C" {
		t.Fatalf("expected renamed node, got %q", a.Name)
	}
	if !before.Path.Equal(after.Path) || after.Name != "b" {
		t.Fatalf("expected sibling untouched")
	}
}

func TestRemoveDropsSubtree(t *testing.T) {
	c := NewCache(CacheOptions{})
	c.MergeChildren("col", []tree.Node{folder("a", "org", "col"), folder("b", "org", "col")}, "", false)
	c.MergeChildren("a", []tree.Node{folder("a1", "org", "col", "a")}, "", false)
	if !c.Remove("a") {
		t.Fatalf("expected remove to succeed")
	}
	if _, ok := c.Get("a1"); ok {
		t.Fatalf("expected descendant removed")
	}
	children, _, _ := c.Children("col")
	if len(children) != 1 || children[0].ID != "b" {
		t.Fatalf("expected only b left, got %#v", children)
	}
	if c.Remove("a") {
		t.Fatalf("expected second remove to report false")
	}
}

func TestEvictionSkipsNavigationPathAndPinned(t *testing.T) {
	c := NewCache(CacheOptions{Capacity: 2})
	c.SetNavigation(tree.NewPath("org"), "col")
	c.MergeChildren("col", []tree.Node{folder("x", "org", "col"), folder("y", "org", "col"), folder("z", "org", "col")}, "", false)
	c.Pin("x")
	c.MergeChildren("x", []tree.Node{folder("x1", "org", "col", "x")}, "", false)
	c.MergeChildren("y", []tree.Node{folder("y1", "org", "col", "y")}, "", false)

	if c.Indexes() != 2 {
		t.Fatalf("expected eviction down to 2 indexes, got %d", c.Indexes())
	}
	if _, _, ok := c.Children("col"); !ok {
		t.Fatalf("expected navigation index kept")
	}
	if _, _, ok := c.Children("x"); !ok {
		t.Fatalf("expected pinned parent index kept")
	}
	if _, _, ok := c.Children("y"); ok {
		t.Fatalf("expected least recently used index evicted")
	}
	if _, ok := c.Get("y1"); ok {
		t.Fatalf("expected children of evicted index dropped")
	}
	if _, ok := c.Get("y"); !ok {
		t.Fatalf("expected evicted parent itself to stay listed under col")
	}
}

func TestHistoryBackForward(t *testing.T) {
	h := NewHistory(3)
	for _, id := range []string{"a", "b", "c"} {
		h.Push(Entry{Node: tree.Node{ID: id}})
	}
	if e, ok := h.Back(); !ok || e.Node.ID != "b" {
		t.Fatalf("expected back to b, got %#v", e)
	}
	if e, ok := h.Forward(); !ok || e.Node.ID != "c" {
		t.Fatalf("expected forward to c, got %#v", e)
	}
	if _, ok := h.Forward(); ok {
		t.Fatalf("expected no forward entry")
	}
	h.Back()
	h.Push(Entry{Node: tree.Node{ID: "d"}})
	if _, ok := h.Forward(); ok {
		t.Fatalf("expected push to drop forward entries")
	}
	h.Push(Entry{Node: tree.Node{ID: "e"}})
	if h.Len() != 3 {
		t.Fatalf("expected history capped at 3, got %d", h.Len())
	}
	if cur, _ := h.Current(); cur.Node.ID != "e" {
		t.Fatalf("expected current e, got %s", cur.Node.ID)
	}
}
