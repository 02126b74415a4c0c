package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atomicstack/vault-browser/internal/api"
	"github.com/atomicstack/vault-browser/internal/db"
	"github.com/atomicstack/vault-browser/internal/tree"
)

type testEnv struct {
	srv    *httptest.Server
	store  *db.Store
	client *api.Client
	org    tree.Node
	col    tree.Node
	a      tree.Node
	b      tree.Node
	file   tree.Node
}

// newTestEnv:
//
//	org
//	└── col
//	    ├── a
//	    │   └── b
//	    └── report.pdf (2048)
func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	store, err := db.Open("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()
	insert := func(n tree.Node, parent string) tree.Node {
		t.Helper()
		out, err := store.Insert(ctx, n, parent)
		if err != nil {
			t.Fatalf("insert %s: %v", n.Name, err)
		}
		return out
	}
	env := testEnv{store: store}
	env.org = insert(tree.Node{Name: "org", Type: tree.TypeOrganization}, "")
	env.col = insert(tree.Node{Name: "col", Type: tree.TypeCollection}, env.org.ID)
	env.a = insert(tree.Node{Name: "a", Type: tree.TypeFolder}, env.col.ID)
	env.b = insert(tree.Node{Name: "b", Type: tree.TypeFolder}, env.a.ID)
	env.file = insert(tree.Node{Name: "report.pdf", Type: tree.TypeFile, Size: 2048}, env.col.ID)

	env.srv = httptest.NewServer(New(store, Options{}))
	t.Cleanup(env.srv.Close)
	env.client = api.New(api.Config{BaseURL: env.srv.URL + "/api"})
	return env
}

func TestDiscoveryListsTreeNodes(t *testing.T) {
	env := newTestEnv(t)
	resources, err := env.client.Discover(context.Background())
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	want := env.srv.URL + "/api/treenodes/"
	if resources[api.ResourceTreeNodes] != want {
		t.Fatalf("expected %q, got %q", want, resources[api.ResourceTreeNodes])
	}
}

func TestListFollowsNextLink(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	page, err := env.client.List(ctx, api.ResourceTreeNodes, api.ListParams{Parent: env.col.ID, Limit: 1, Ordering: "name"})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].ID != env.a.ID || page.Next == "" {
		t.Fatalf("unexpected first page %#v", page)
	}
	if page.Results[0].URL == "" {
		t.Fatalf("expected node url on the wire")
	}
	page, err = env.client.List(ctx, api.ResourceTreeNodes, api.ListParams{Cursor: page.Next})
	if err != nil {
		t.Fatalf("next page failed: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].ID != env.file.ID || page.Next != "" {
		t.Fatalf("unexpected last page %#v", page)
	}
	if page.Results[0].Size != 2048 {
		t.Fatalf("expected file size 2048, got %d", page.Results[0].Size)
	}
}

func TestListRootLevelAndAggregatedSize(t *testing.T) {
	env := newTestEnv(t)
	page, err := env.client.List(context.Background(), api.ResourceTreeNodes, api.ListParams{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(page.Results) != 1 || page.Results[0].ID != env.org.ID {
		t.Fatalf("expected the organization, got %#v", page.Results)
	}
	if page.Results[0].Size != 2048 {
		t.Fatalf("expected aggregated size 2048, got %d", page.Results[0].Size)
	}
}

func TestCreateFolderAndConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	n, err := env.client.Create(ctx, api.ResourceTreeNodes, api.Attrs{"name": "new", "node_type": "FOLDER", "parent": env.col.ID})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if n.ParentID() != env.col.ID || n.Type != tree.TypeFolder {
		t.Fatalf("unexpected node %#v", n)
	}
	_, err = env.client.Create(ctx, api.ResourceTreeNodes, api.Attrs{"name": "new", "node_type": "FOLDER", "parent": env.col.ID})
	if _, ok := api.AsConflict(err); !ok {
		t.Fatalf("expected conflict, got %v", err)
	}
	_, err = env.client.Create(ctx, api.ResourceTreeNodes, api.Attrs{"name": "x", "node_type": "FILE", "parent": env.col.ID})
	if se, ok := api.AsServerError(err); !ok || se.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for FILE create, got %v", err)
	}
	_, err = env.client.Create(ctx, api.ResourceTreeNodes, api.Attrs{"name": "x", "node_type": "FOLDER"})
	if se, ok := api.AsServerError(err); !ok || se.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 without parent, got %v", err)
	}
}

func TestPatchRenameAndMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	renamed, err := env.client.Patch(ctx, api.ResourceTreeNodes, env.b.ID, api.Attrs{"name": "bee"})
	if err != nil || renamed.Name != "bee" {
		t.Fatalf("rename failed: %v %#v", err, renamed)
	}
	moved, err := env.client.Patch(ctx, api.ResourceTreeNodes, env.file.ID, api.Attrs{"parent": env.a.ID})
	if err != nil {
		t.Fatalf("move failed: %v", err)
	}
	if !moved.Path.Equal(env.a.FullPath()) {
		t.Fatalf("expected path %s, got %s", env.a.FullPath(), moved.Path)
	}
	a, err := env.client.Get(ctx, api.ResourceTreeNodes, env.a.ID)
	if err != nil || a.Size != 2048 {
		t.Fatalf("expected a to aggregate the moved file, got %d %v", a.Size, err)
	}

	_, err = env.client.Patch(ctx, api.ResourceTreeNodes, env.a.ID, api.Attrs{"parent": env.b.ID})
	if se, ok := api.AsServerError(err); !ok || se.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for a move into the subtree, got %v", err)
	}
	_, err = env.client.Patch(ctx, api.ResourceTreeNodes, env.a.ID, api.Attrs{"node_type": "FILE"})
	if se, ok := api.AsServerError(err); !ok || se.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for an immutable field, got %v", err)
	}
	_, err = env.client.Patch(ctx, api.ResourceTreeNodes, env.a.ID, api.Attrs{"name": "report.pdf"})
	if err != nil {
		t.Fatalf("expected rename to succeed once the file moved out, got %v", err)
	}
}

func TestDeleteRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	err := env.client.Delete(ctx, api.ResourceTreeNodes, env.col.ID)
	if se, ok := api.AsServerError(err); !ok || se.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for collection delete, got %v", err)
	}
	if err := env.client.Delete(ctx, api.ResourceTreeNodes, env.a.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	_, err = env.client.Get(ctx, api.ResourceTreeNodes, env.b.ID)
	if !api.IsNotFound(err) {
		t.Fatalf("expected cascaded delete, got %v", err)
	}
}

func TestListRejectsBadParams(t *testing.T) {
	env := newTestEnv(t)
	for _, query := range []string{"limit=0", "limit=x", "cursor=-1", "ordering=size"} {
		resp, err := http.Get(env.srv.URL + "/api/treenodes/?" + query)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, resp.StatusCode)
		}
	}
}

func TestPatchAcceptsNumericParent(t *testing.T) {
	env := newTestEnv(t)
	body, _ := json.Marshal(map[string]any{"parent": 42})
	req, _ := http.NewRequest(http.MethodPatch, env.srv.URL+"/api/treenodes/"+env.b.ID+"/", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	// 42 is decoded as an id and does not exist.
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing parent, got %d", resp.StatusCode)
	}
	var eb errorBody
	if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil || eb.Detail != db.ErrParentNotFound.Error() {
		t.Fatalf("expected parent not found detail, got %q %v", eb.Detail, err)
	}
}
