// Package conductor turns request messages into resource API calls, keeps the
// tree cache in step with the server, and publishes one response per request.
package conductor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/atomicstack/vault-browser/internal/api"
	"github.com/atomicstack/vault-browser/internal/bus"
	"github.com/atomicstack/vault-browser/internal/logging"
	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/metrics"
	"github.com/atomicstack/vault-browser/internal/state"
	"github.com/atomicstack/vault-browser/internal/tree"
)

// Resources is the subset of the resource API the conductor needs.
// *api.Client satisfies it.
type Resources interface {
	List(ctx context.Context, resource string, params api.ListParams) (api.Page, error)
	Get(ctx context.Context, resource, id string) (tree.Node, error)
	Create(ctx context.Context, resource string, attrs api.Attrs) (tree.Node, error)
	Patch(ctx context.Context, resource, id string, attrs api.Attrs) (tree.Node, error)
	Delete(ctx context.Context, resource, id string) error
}

// Options wires a Conductor.
type Options struct {
	Bus       *bus.Bus
	Resources Resources
	Cache     *state.Cache
	History   *state.History
	// Resource is the collection name; it defaults to api.ResourceTreeNodes.
	Resource string
	PageSize int
	Ordering string
	// BatchConcurrency caps parallel calls in a move or delete batch.
	BatchConcurrency int
}

const defaultBatchConcurrency = 8

// Conductor owns the current location and every mutation of the tree cache.
type Conductor struct {
	bus       *bus.Bus
	resources Resources
	cache     *state.Cache
	history   *state.History
	resource  string
	pageSize  int
	ordering  string
	batch     int

	seq   atomic.Uint64
	dirMu sync.Mutex

	mu        sync.Mutex
	listings  int
	mutations map[Kind]int

	children singleflight.Group
}

// New creates a conductor. Call Start to subscribe it to the bus.
func New(opts Options) *Conductor {
	if opts.Resource == "" {
		opts.Resource = api.ResourceTreeNodes
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = defaultBatchConcurrency
	}
	if opts.Cache == nil {
		opts.Cache = state.NewCache(state.CacheOptions{})
	}
	if opts.History == nil {
		opts.History = state.NewHistory(0)
	}
	return &Conductor{
		bus:       opts.Bus,
		resources: opts.Resources,
		cache:     opts.Cache,
		history:   opts.History,
		resource:  opts.Resource,
		pageSize:  opts.PageSize,
		ordering:  opts.Ordering,
		batch:     opts.BatchConcurrency,
		mutations: make(map[Kind]int),
	}
}

// Start subscribes the conductor to every request topic.
func (c *Conductor) Start() error {
	return c.bus.SubscribeAll(c, bus.RequestTopics()...)
}

// Stop removes the conductor's subscriptions.
func (c *Conductor) Stop() {
	for _, topic := range bus.RequestTopics() {
		c.bus.Unsubscribe(topic, c)
	}
}

// Cache exposes the cache the conductor maintains. Callers must treat it as
// read-only.
func (c *Conductor) Cache() *state.Cache { return c.cache }

// History exposes the navigation history.
func (c *Conductor) History() *state.History { return c.history }

// State reports what the conductor is currently waiting for. Mutations take
// precedence over listings.
func (c *Conductor) State() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, kind := range mutationOrder {
		if c.mutations[kind] > 0 {
			return Status{Phase: AwaitingMutation, Kind: kind}
		}
	}
	if c.listings > 0 {
		return Status{Phase: AwaitingDirectoryListing}
	}
	return Status{Phase: Idle}
}

// HandleMessage dispatches request messages. The response is published
// before it returns.
func (c *Conductor) HandleMessage(ctx context.Context, env bus.Envelope) error {
	switch msg := env.Message.(type) {
	case bus.DirectoryChangeRequested:
		return c.changeDirectory(ctx, msg)
	case bus.RenameRequested:
		return c.rename(ctx, msg)
	case bus.MoveRequested:
		return c.move(ctx, msg)
	case bus.DeleteRequested:
		return c.delete(ctx, msg)
	case bus.CreateRequested:
		return c.create(ctx, msg)
	case bus.ChildrenRequested:
		return c.listChildren(ctx, msg)
	}
	return nil
}

// Replay re-enters a history entry. The entry already carries the full node,
// so no lookup is made and no new entry is pushed. When the cache knows the
// node, its record wins over the entry, which may predate a move or rename.
func (c *Conductor) Replay(ctx context.Context, entry state.Entry) error {
	events.Conductor.Replay(entry.Node.ID, entry.Path.String())
	node := entry.Node
	_, err := c.bus.Publish(ctx, bus.DirectoryChangeRequested{
		Node:        &node,
		Path:        entry.Path,
		FromHistory: true,
	})
	return err
}

// Back replays the previous history entry. It reports false when there is
// nothing to go back to.
func (c *Conductor) Back(ctx context.Context) (bool, error) {
	entry, ok := c.history.Back()
	if !ok {
		return false, nil
	}
	return true, c.Replay(ctx, entry)
}

// Forward replays the next history entry.
func (c *Conductor) Forward(ctx context.Context) (bool, error) {
	entry, ok := c.history.Forward()
	if !ok {
		return false, nil
	}
	return true, c.Replay(ctx, entry)
}

func (c *Conductor) beginListing() func() {
	c.mu.Lock()
	c.listings++
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.listings--
		c.mu.Unlock()
	}
}

func (c *Conductor) beginMutation(kind Kind) func() {
	c.mu.Lock()
	c.mutations[kind]++
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.mutations[kind]--
		c.mu.Unlock()
	}
}

func (c *Conductor) publish(ctx context.Context, msg bus.Message) error {
	if _, err := c.bus.Publish(ctx, msg); err != nil {
		logging.S().Warnw("response delivery failed", "topic", string(msg.Topic()), "error", err)
		return err
	}
	return nil
}

func (c *Conductor) finish(kind string, start time.Time, outcome string, failures int, err error) {
	metrics.RecordConductorRequest(kind, outcome, time.Since(start))
	events.Conductor.Completed(kind, failures, err)
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type directoryLoad struct {
	node     tree.Node
	roots    *api.Page
	children api.Page
	trail    []tree.Node
}

func (c *Conductor) changeDirectory(ctx context.Context, req bus.DirectoryChangeRequested) error {
	done := c.beginListing()
	defer done()
	start := time.Now()
	seq := c.seq.Add(1)

	payload := map[string]interface{}{"seq": seq, "node": req.NodeID, "fromHistory": req.FromHistory}
	if req.Node != nil {
		payload["node"] = req.Node.ID
		c.cache.Pin(req.Node.ID)
		defer c.cache.Unpin(req.Node.ID)
	}
	events.Conductor.Request("change-directory", payload)

	load, err := c.loadDirectory(ctx, req)
	resp := bus.DirectoryChanged{Seq: seq, FromHistory: req.FromHistory}

	c.dirMu.Lock()
	if latest := c.seq.Load(); latest != seq {
		c.dirMu.Unlock()
		events.Conductor.Superseded(seq, latest)
		resp.Node = load.node
		resp.Err = ErrSuperseded
		c.finish("change-directory", start, "superseded", 0, ErrSuperseded)
		return c.publish(ctx, resp)
	}
	if err != nil {
		c.dirMu.Unlock()
		resp.Node = load.node
		resp.Path = load.node.Path
		resp.Err = err
		c.finish("change-directory", start, "error", 0, err)
		return c.publish(ctx, resp)
	}
	if load.roots != nil {
		c.cache.MergeChildren("", load.roots.Results, load.roots.Next, false)
	}
	for _, n := range load.trail {
		c.cache.Put(n)
	}
	node := c.cache.Put(load.node)
	children := c.cache.MergeChildren(node.ID, load.children.Results, load.children.Next, false)
	c.cache.SetNavigation(node.Path, node.ID)
	if !req.FromHistory {
		c.history.Push(state.Entry{Path: node.Path, Node: node})
		events.Conductor.HistoryPush(node.ID, node.Path.String())
	}
	c.dirMu.Unlock()

	resp.Node = node
	resp.Path = node.Path
	resp.Trail = load.trail
	resp.Children = children
	resp.Next = load.children.Next
	c.finish("change-directory", start, "ok", 0, nil)
	return c.publish(ctx, resp)
}

func (c *Conductor) loadDirectory(ctx context.Context, req bus.DirectoryChangeRequested) (directoryLoad, error) {
	var load directoryLoad
	switch {
	case req.Node != nil:
		if cached, ok := c.cache.Get(req.Node.ID); ok {
			load.node = cached
			break
		}
		load.node = *req.Node
		if req.Path.Len() > 0 {
			load.node.Path = req.Path
		}
	case req.NodeID != "":
		node, err := c.resources.Get(ctx, c.resource, req.NodeID)
		if err != nil {
			load.node = tree.Node{ID: req.NodeID}
			return load, fmt.Errorf("fetch node %s: %w", req.NodeID, err)
		}
		load.node = node
	default:
		roots, err := c.resources.List(ctx, c.resource, api.ListParams{Limit: c.pageSize, Ordering: c.ordering})
		if err != nil {
			return load, fmt.Errorf("list root nodes: %w", err)
		}
		root, ok := pickRoot(roots.Results)
		if !ok {
			return load, ErrNoRoot
		}
		load.roots = &roots
		load.node = root
	}
	if !load.node.Type.HasChildren() {
		return load, fmt.Errorf("open %s: %w", load.node.ID, ErrNotDirectory)
	}

	c.cache.Pin(load.node.ID)
	defer c.cache.Unpin(load.node.ID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := c.resources.List(gctx, c.resource, api.ListParams{
			Parent:   load.node.ID,
			Limit:    c.pageSize,
			Ordering: c.ordering,
		})
		if err != nil {
			return fmt.Errorf("list children of %s: %w", load.node.ID, err)
		}
		load.children = page
		return nil
	})
	var trail []tree.Node
	g.Go(func() error {
		trail = c.resolveTrail(gctx, load.node.Path)
		return nil
	})
	if err := g.Wait(); err != nil {
		return load, err
	}
	load.trail = trail
	return load, nil
}

func pickRoot(nodes []tree.Node) (tree.Node, bool) {
	for _, n := range nodes {
		if n.Type == tree.TypeOrganization {
			return n, true
		}
	}
	if len(nodes) > 0 {
		return nodes[0], true
	}
	return tree.Node{}, false
}

// resolveTrail returns the ancestors on path, root first. Cached ancestors
// are reused and the rest are fetched in parallel. Ancestors that cannot be
// fetched are left out.
func (c *Conductor) resolveTrail(ctx context.Context, path tree.Path) []tree.Node {
	ids := path.Ancestors()
	if len(ids) == 0 {
		return nil
	}
	found := make([]*tree.Node, len(ids))
	var g errgroup.Group
	g.SetLimit(c.batch)
	for i, id := range ids {
		if cached, ok := c.cache.Get(id); ok {
			found[i] = &cached
			continue
		}
		g.Go(func() error {
			node, err := c.resources.Get(ctx, c.resource, id)
			if err != nil {
				logging.S().Debugw("breadcrumb ancestor unavailable", "id", id, "error", err)
				return nil
			}
			found[i] = &node
			return nil
		})
	}
	_ = g.Wait()
	trail := make([]tree.Node, 0, len(ids))
	for _, n := range found {
		if n != nil {
			trail = append(trail, *n)
		}
	}
	return trail
}

func (c *Conductor) rename(ctx context.Context, req bus.RenameRequested) error {
	done := c.beginMutation(KindRename)
	defer done()
	start := time.Now()
	events.Conductor.Request(string(KindRename), map[string]interface{}{"node": req.Node.ID, "name": req.NewName})

	current := req.Node
	if cached, ok := c.cache.Get(current.ID); ok {
		current = cached
	}
	resp := bus.RenameCompleted{Node: current, NewName: req.NewName}
	unchanged, err := ValidateRename(current, req.NewName)
	if err != nil {
		events.Conductor.Rejected(string(KindRename), err)
		resp.Err = err
		c.finish(string(KindRename), start, "rejected", 0, err)
		return c.publish(ctx, resp)
	}
	name := strings.TrimSpace(req.NewName)
	resp.NewName = name
	if unchanged {
		resp.Unchanged = true
		c.finish(string(KindRename), start, "unchanged", 0, nil)
		return c.publish(ctx, resp)
	}

	c.cache.Pin(req.Node.ID)
	defer c.cache.Unpin(req.Node.ID)
	updated, err := c.resources.Patch(ctx, c.resource, req.Node.ID, api.Attrs{"name": name})
	if err != nil {
		resp.Err = fmt.Errorf("rename %s: %w", req.Node.ID, err)
		c.finish(string(KindRename), start, "error", 1, resp.Err)
		return c.publish(ctx, resp)
	}
	if updated.ID != "" {
		resp.Node = c.cache.Put(updated)
	} else if renamed, ok := c.cache.Rename(req.Node.ID, name); ok {
		resp.Node = renamed
	} else {
		current.Name = name
		resp.Node = c.cache.Put(current)
	}
	resp.NewName = resp.Node.Name
	c.finish(string(KindRename), start, "ok", 0, nil)
	return c.publish(ctx, resp)
}

// settle runs op for every node with bounded parallelism and waits for all
// of them. Results keep the order of nodes.
func (c *Conductor) settle(ctx context.Context, nodes []tree.Node, op func(context.Context, tree.Node) (tree.Node, error)) []bus.ItemResult {
	results := make([]bus.ItemResult, len(nodes))
	var g errgroup.Group
	g.SetLimit(c.batch)
	for i, n := range nodes {
		g.Go(func() error {
			updated, err := op(ctx, n)
			if err != nil || updated.ID == "" {
				updated = n
			}
			results[i] = bus.ItemResult{Node: updated, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func nodeIDs(nodes []tree.Node) []string {
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func (c *Conductor) move(ctx context.Context, req bus.MoveRequested) error {
	done := c.beginMutation(KindMove)
	defer done()
	start := time.Now()
	events.Conductor.Request(string(KindMove), map[string]interface{}{
		"sources":     nodeIDs(req.Sources),
		"destination": req.Destination.ID,
	})

	sources := c.cache.Refresh(req.Sources)
	dest := req.Destination
	if cached, ok := c.cache.Get(dest.ID); ok {
		dest = cached
	}
	resp := bus.MoveCompleted{Destination: dest}
	if err := c.validateMove(sources, dest); err != nil {
		events.Conductor.Rejected(string(KindMove), err)
		resp.Err = err
		c.finish(string(KindMove), start, "rejected", 0, err)
		return c.publish(ctx, resp)
	}

	pinned := append(nodeIDs(sources), dest.ID)
	c.cache.Pin(pinned...)
	defer c.cache.Unpin(pinned...)

	results := c.settle(ctx, sources, func(ctx context.Context, n tree.Node) (tree.Node, error) {
		updated, err := c.resources.Patch(ctx, c.resource, n.ID, api.Attrs{"parent": dest.ID})
		if err != nil {
			return tree.Node{}, fmt.Errorf("move %s: %w", n.ID, err)
		}
		return updated, nil
	})
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		confirmed := r.Node
		if confirmed.ParentID() != dest.ID {
			confirmed = tree.Node{}
		}
		results[i].Node = c.cache.ApplyMove(sources[i], dest, confirmed)
	}

	resp.Results = results
	resp.DestinationTrail = c.resolveTrail(ctx, dest.FullPath())
	resp.Err = bus.BatchError(string(KindMove), results)
	failures := len(bus.Failed(results))
	outcome := "ok"
	if failures > 0 {
		outcome = "partial"
	}
	c.finish(string(KindMove), start, outcome, failures, resp.Err)
	return c.publish(ctx, resp)
}

// validateMove applies tree.ValidateMove, then rejects destinations the cache
// places inside a source's subtree.
func (c *Conductor) validateMove(sources []tree.Node, dest tree.Node) error {
	if err := tree.ValidateMove(sources, dest); err != nil {
		return err
	}
	for _, src := range sources {
		if c.cache.IsDescendant(dest.ID, src.ID) {
			return &tree.IllegalMoveError{Reason: tree.MoveIntoDescendant, NodeID: src.ID, Destination: dest.ID}
		}
	}
	return nil
}

func (c *Conductor) delete(ctx context.Context, req bus.DeleteRequested) error {
	done := c.beginMutation(KindDelete)
	defer done()
	start := time.Now()
	events.Conductor.Request(string(KindDelete), map[string]interface{}{"nodes": nodeIDs(req.Nodes)})

	pinned := nodeIDs(req.Nodes)
	c.cache.Pin(pinned...)
	defer c.cache.Unpin(pinned...)

	results := c.settle(ctx, req.Nodes, func(ctx context.Context, n tree.Node) (tree.Node, error) {
		if !n.Type.IsDeletable() {
			return tree.Node{}, fmt.Errorf("delete %s: %s cannot be deleted", n.ID, n.Type.Label())
		}
		if err := c.resources.Delete(ctx, c.resource, n.ID); err != nil {
			return tree.Node{}, fmt.Errorf("delete %s: %w", n.ID, err)
		}
		return n, nil
	})
	for _, r := range results {
		if r.Err == nil {
			c.cache.Remove(r.Node.ID)
		}
	}

	resp := bus.DeleteCompleted{Results: results, Err: bus.BatchError(string(KindDelete), results)}
	failures := len(bus.Failed(results))
	outcome := "ok"
	if failures > 0 {
		outcome = "partial"
	}
	c.finish(string(KindDelete), start, outcome, failures, resp.Err)
	return c.publish(ctx, resp)
}

func (c *Conductor) create(ctx context.Context, req bus.CreateRequested) error {
	done := c.beginMutation(KindCreate)
	defer done()
	start := time.Now()
	events.Conductor.Request(string(KindCreate), map[string]interface{}{
		"type":   string(req.Type),
		"name":   req.Name,
		"parent": req.Parent.ID,
	})

	name := strings.TrimSpace(req.Name)
	resp := bus.CreateCompleted{Name: name, Parent: req.Parent}
	var rejected error
	switch {
	case name == "":
		rejected = ErrEmptyName
	case !req.Parent.Type.IsMoveTarget():
		rejected = fmt.Errorf("create in %s: %w", req.Parent.ID, ErrBadParent)
	}
	if rejected != nil {
		events.Conductor.Rejected(string(KindCreate), rejected)
		resp.Err = rejected
		c.finish(string(KindCreate), start, "rejected", 0, rejected)
		return c.publish(ctx, resp)
	}

	kind := req.Type
	if kind == "" {
		kind = tree.TypeFolder
	}
	c.cache.Pin(req.Parent.ID)
	created, err := c.resources.Create(ctx, c.resource, api.Attrs{
		"name":      name,
		"node_type": string(kind),
		"parent":    req.Parent.ID,
	})
	c.cache.Unpin(req.Parent.ID)
	if err != nil {
		resp.Err = fmt.Errorf("create %q: %w", name, err)
		c.finish(string(KindCreate), start, outcomeOf(err), 1, resp.Err)
		return c.publish(ctx, resp)
	}
	if created.Path.Len() == 0 {
		created.Path = req.Parent.FullPath()
	}
	node := c.cache.Put(created)
	resp.Node = &node
	c.finish(string(KindCreate), start, "ok", 0, nil)
	if err := c.publish(ctx, resp); err != nil {
		return err
	}

	parent := req.Parent
	if cached, ok := c.cache.Get(parent.ID); ok {
		parent = cached
	}
	_, err = c.bus.Publish(ctx, bus.DirectoryChangeRequested{Node: &parent})
	return err
}

func (c *Conductor) listChildren(ctx context.Context, req bus.ChildrenRequested) error {
	done := c.beginListing()
	defer done()
	start := time.Now()
	events.Conductor.Request("children", map[string]interface{}{
		"parent": req.Parent.ID,
		"cursor": req.Cursor,
		"origin": string(req.Origin),
	})

	resp := bus.ChildrenResponded{Parent: req.Parent, Cursor: req.Cursor, Origin: req.Origin}
	if !req.Parent.Type.HasChildren() {
		resp.Err = fmt.Errorf("list %s: %w", req.Parent.ID, ErrNotDirectory)
		c.finish("children", start, "rejected", 0, resp.Err)
		return c.publish(ctx, resp)
	}

	c.cache.Pin(req.Parent.ID)
	defer c.cache.Unpin(req.Parent.ID)
	v, err, _ := c.children.Do(req.Parent.ID+"\x00"+req.Cursor, func() (interface{}, error) {
		page, err := c.resources.List(ctx, c.resource, api.ListParams{
			Parent:   req.Parent.ID,
			Limit:    c.pageSize,
			Ordering: c.ordering,
			Cursor:   req.Cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("list children of %s: %w", req.Parent.ID, err)
		}
		merged := c.cache.MergeChildren(req.Parent.ID, page.Results, page.Next, req.Cursor != "")
		return api.Page{Results: merged, Next: page.Next}, nil
	})
	if err != nil {
		resp.Err = err
	} else {
		page := v.(api.Page)
		resp.Children = append([]tree.Node(nil), page.Results...)
		resp.Next = page.Next
	}
	c.finish("children", start, outcomeOf(err), 0, err)
	return c.publish(ctx, resp)
}
