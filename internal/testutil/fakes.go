package testutil

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/atomicstack/vault-browser/internal/api"
	"github.com/atomicstack/vault-browser/internal/tree"
)

// Operation names used for failure injection, holds and call counters.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpPatch  = "patch"
	OpDelete = "delete"
)

// FakeResources is an in-memory resource API. It follows the reference
// server's rules for names, moves and deletes, and lets tests inject failures
// or hold calls until released.
type FakeResources struct {
	mu       sync.Mutex
	nodes    map[string]tree.Node
	order    []string
	failures map[string]error
	holds    map[string]chan struct{}
	calls    map[string]int
	nextID   int
}

// NewFakeResources seeds the fake with nodes in listing order.
func NewFakeResources(nodes ...tree.Node) *FakeResources {
	f := &FakeResources{
		nodes:    make(map[string]tree.Node),
		failures: make(map[string]error),
		holds:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
	f.Add(nodes...)
	return f
}

// Add inserts or replaces nodes.
func (f *FakeResources) Add(nodes ...tree.Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range nodes {
		if _, ok := f.nodes[n.ID]; !ok {
			f.order = append(f.order, n.ID)
		}
		f.nodes[n.ID] = n
	}
}

// Node returns the server-side copy of a node.
func (f *FakeResources) Node(id string) (tree.Node, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[id]
	return n, ok
}

// Fail makes op on id return err. An empty id matches every call of op.
func (f *FakeResources) Fail(op, id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op+":"+id] = err
}

// Hold blocks op on id until the returned release func is called. For list
// calls the id is the parent being listed.
func (f *FakeResources) Hold(op, id string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.holds[op+":"+id] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.holds, op+":"+id)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times op was invoked.
func (f *FakeResources) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of calls across every operation.
func (f *FakeResources) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *FakeResources) enter(ctx context.Context, op, id string) error {
	f.mu.Lock()
	f.calls[op]++
	hold := f.holds[op+":"+id]
	err, ok := f.failures[op+":"+id]
	if !ok {
		err = f.failures[op+":"]
	}
	f.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return &api.NetworkError{Op: op, URL: id, Err: ctx.Err()}
		}
	}
	return err
}

func (f *FakeResources) List(ctx context.Context, resource string, params api.ListParams) (api.Page, error) {
	parent, offset := params.Parent, 0
	if params.Cursor != "" {
		var err error
		parent, offset, err = parseCursor(params.Cursor)
		if err != nil {
			return api.Page{}, &api.ServerError{Status: http.StatusBadRequest, Detail: err.Error()}
		}
	}
	if err := f.enter(ctx, OpList, parent); err != nil {
		return api.Page{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []tree.Node
	for _, id := range f.order {
		if n := f.nodes[id]; n.ParentID() == parent {
			all = append(all, n)
		}
	}
	if offset > len(all) {
		offset = len(all)
	}
	end := len(all)
	if params.Limit > 0 && offset+params.Limit < end {
		end = offset + params.Limit
	}
	page := api.Page{Results: append([]tree.Node(nil), all[offset:end]...)}
	if end < len(all) {
		page.Next = fmt.Sprintf("fake:%s:%d", parent, end)
	}
	return page, nil
}

func (f *FakeResources) Get(ctx context.Context, resource, id string) (tree.Node, error) {
	if err := f.enter(ctx, OpGet, id); err != nil {
		return tree.Node{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[id]
	if !ok {
		return tree.Node{}, notFound()
	}
	return n, nil
}

func (f *FakeResources) Create(ctx context.Context, resource string, attrs api.Attrs) (tree.Node, error) {
	parentID, _ := attrs["parent"].(string)
	if err := f.enter(ctx, OpCreate, parentID); err != nil {
		return tree.Node{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	parent, ok := f.nodes[parentID]
	if !ok {
		return tree.Node{}, &api.ServerError{Status: http.StatusBadRequest, Detail: "unknown parent"}
	}
	name, _ := attrs["name"].(string)
	if f.siblingNamedLocked(parentID, name, "") {
		return tree.Node{}, &api.ConflictError{Detail: "A folder with this name already exists"}
	}
	kind, _ := attrs["node_type"].(string)
	f.nextID++
	n := tree.Node{
		ID:   "new-" + strconv.Itoa(f.nextID),
		Name: name,
		Type: tree.Type(kind),
		Path: parent.FullPath(),
	}
	f.nodes[n.ID] = n
	f.order = append(f.order, n.ID)
	return n, nil
}

func (f *FakeResources) Patch(ctx context.Context, resource, id string, attrs api.Attrs) (tree.Node, error) {
	if err := f.enter(ctx, OpPatch, id); err != nil {
		return tree.Node{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[id]
	if !ok {
		return tree.Node{}, notFound()
	}
	if name, ok := attrs["name"].(string); ok {
		if f.siblingNamedLocked(n.ParentID(), name, id) {
			return tree.Node{}, &api.ConflictError{Detail: "An item with this name already exists"}
		}
		n.Name = name
	}
	if parentID, ok := attrs["parent"].(string); ok {
		dest, ok := f.nodes[parentID]
		if !ok {
			return tree.Node{}, &api.ServerError{Status: http.StatusBadRequest, Detail: "unknown parent"}
		}
		if dest.ID == id || dest.Path.IsDescendantOf(id) {
			return tree.Node{}, &api.ServerError{Status: http.StatusBadRequest, Detail: "cannot move into own subtree"}
		}
		if f.siblingNamedLocked(dest.ID, n.Name, id) {
			return tree.Node{}, &api.ConflictError{Detail: "An item with this name already exists"}
		}
		oldFull := n.FullPath()
		n.Path = dest.FullPath()
		newFull := n.FullPath()
		for otherID, other := range f.nodes {
			if otherID != id && other.Path.HasPrefix(oldFull) {
				other.Path = other.Path.Rebase(oldFull, newFull)
				f.nodes[otherID] = other
			}
		}
	}
	f.nodes[id] = n
	return n, nil
}

func (f *FakeResources) Delete(ctx context.Context, resource, id string) error {
	if err := f.enter(ctx, OpDelete, id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.nodes[id]; !ok {
		return notFound()
	}
	for otherID, other := range f.nodes {
		if otherID == id || other.Path.IsDescendantOf(id) {
			delete(f.nodes, otherID)
		}
	}
	kept := f.order[:0]
	for _, existing := range f.order {
		if _, ok := f.nodes[existing]; ok {
			kept = append(kept, existing)
		}
	}
	f.order = kept
	return nil
}

func (f *FakeResources) siblingNamedLocked(parentID, name, exceptID string) bool {
	for id, n := range f.nodes {
		if id != exceptID && n.ParentID() == parentID && n.Name == name {
			return true
		}
	}
	return false
}

func notFound() error {
	return &api.ServerError{Status: http.StatusNotFound, Detail: "Not found."}
}

func parseCursor(cursor string) (string, int, error) {
	parts := strings.Split(cursor, ":")
	if len(parts) != 3 || parts[0] != "fake" {
		return "", 0, fmt.Errorf("bad cursor %q", cursor)
	}
	offset, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, fmt.Errorf("bad cursor %q: %w", cursor, err)
	}
	return parts[1], offset, nil
}
