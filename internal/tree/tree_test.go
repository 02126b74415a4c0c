package tree

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParsePathDropsEmptySegments(t *testing.T) {
	p := ParsePath(" a..b. ")
	if got := p.String(); got != "a.b" {
		t.Fatalf("expected a.b, got %q", got)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 ancestors, got %d", p.Len())
	}
	if !ParsePath("").IsRoot() {
		t.Fatalf("expected empty path to be root")
	}
}

func TestPathParentAndAncestors(t *testing.T) {
	p := NewPath("org", "col", "f1")
	parent, ok := p.Parent()
	if !ok || parent != "f1" {
		t.Fatalf("expected parent f1, got %q (%v)", parent, ok)
	}
	anc := p.Ancestors()
	anc[0] = "mutated"
	if p.Ancestors()[0] != "org" {
		t.Fatalf("expected ancestors to be a copy")
	}
	if _, ok := (Path{}).Parent(); ok {
		t.Fatalf("expected root path to have no parent")
	}
}

func TestPathIsDescendantOf(t *testing.T) {
	p := NewPath("org", "col", "f1")
	for _, id := range []string{"org", "col", "f1"} {
		if !p.IsDescendantOf(id) {
			t.Fatalf("expected path to descend from %s", id)
		}
	}
	if p.IsDescendantOf("other") || p.IsDescendantOf("") {
		t.Fatalf("unexpected descendant match")
	}
}

func TestPathChildAndRebase(t *testing.T) {
	base := NewPath("org", "col")
	child := base.Child("f1")
	if child.String() != "org.col.f1" {
		t.Fatalf("expected org.col.f1, got %s", child)
	}
	if base.String() != "org.col" {
		t.Fatalf("expected Child not to mutate receiver, got %s", base)
	}
	moved := NewPath("org", "col", "f1", "f2").Rebase(NewPath("org", "col", "f1"), NewPath("org", "other", "f1"))
	if moved.String() != "org.other.f1.f2" {
		t.Fatalf("expected rebased path, got %s", moved)
	}
	untouched := NewPath("x").Rebase(NewPath("y"), NewPath("z"))
	if untouched.String() != "x" {
		t.Fatalf("expected unrelated path untouched, got %s", untouched)
	}
}

func TestNodeJSONAcceptsIntegerIDs(t *testing.T) {
	var n Node
	if err := json.Unmarshal([]byte(`{"id":42,"name":"docs","node_type":"FOLDER","path":"1.7","size":0}`), &n); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if n.ID != "42" {
		t.Fatalf("expected id 42, got %q", n.ID)
	}
	if n.ParentID() != "7" {
		t.Fatalf("expected parent 7, got %q", n.ParentID())
	}
	data, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back Node
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if !back.Path.Equal(n.Path) || back.ID != "42" {
		t.Fatalf("expected round trip to preserve identity, got %#v", back)
	}
}

func TestTypeCapabilities(t *testing.T) {
	if TypeFile.HasChildren() || !TypeFile.IsLeaf() || !TypeFile.IsDownloadable() {
		t.Fatalf("unexpected FILE capabilities")
	}
	if !TypeFolder.HasChildren() || TypeFolder.IsLeaf() {
		t.Fatalf("unexpected FOLDER capabilities")
	}
	if TypeOrganization.IsMoveTarget() || TypeCollection.IsDeletable() {
		t.Fatalf("structural nodes must not be mutation targets")
	}
	if _, err := ParseType("folder"); err != nil {
		t.Fatalf("expected lower-case type to parse: %v", err)
	}
	if _, err := ParseType("symlink"); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestValidateMove(t *testing.T) {
	col := Node{ID: "col", Type: TypeCollection, Path: NewPath("org")}
	a := Node{ID: "a", Type: TypeFolder, Path: NewPath("org", "col")}
	b := Node{ID: "b", Type: TypeFolder, Path: NewPath("org", "col", "a")}
	other := Node{ID: "o", Type: TypeFolder, Path: NewPath("org", "col")}
	file := Node{ID: "f", Type: TypeFile, Path: NewPath("org", "col")}
	org := Node{ID: "org", Type: TypeOrganization}

	cases := []struct {
		name    string
		sources []Node
		dest    Node
		reason  MoveReason
		ok      bool
	}{
		{name: "legal", sources: []Node{a}, dest: other, ok: true},
		{name: "self", sources: []Node{a}, dest: a, reason: MoveIntoSelf},
		{name: "descendant", sources: []Node{a}, dest: b, reason: MoveIntoDescendant},
		{name: "current parent", sources: []Node{a}, dest: col, reason: MoveNoOp},
		{name: "file target", sources: []Node{a}, dest: file, reason: MoveBadTarget},
		{name: "organization target", sources: []Node{a}, dest: org, reason: MoveBadTarget},
		{name: "empty", sources: nil, dest: other, reason: MoveNoSources},
		{name: "immovable", sources: []Node{col}, dest: other, reason: MoveImmovable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMove(tc.sources, tc.dest)
			if tc.ok {
				if err != nil {
					t.Fatalf("expected legal move, got %v", err)
				}
				return
			}
			var illegal *IllegalMoveError
			if !errors.As(err, &illegal) {
				t.Fatalf("expected IllegalMoveError, got %v", err)
			}
			if illegal.Reason != tc.reason {
				t.Fatalf("expected reason %v, got %v", tc.reason, illegal.Reason)
			}
		})
	}
}
