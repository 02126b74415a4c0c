// Package state holds the client-side mirror of the resource tree and the
// navigation history.
package state

import (
	"errors"
	"sync"

	"github.com/atomicstack/vault-browser/internal/logging/events"
	"github.com/atomicstack/vault-browser/internal/metrics"
	"github.com/atomicstack/vault-browser/internal/tree"
)

// ErrNotCached is returned for ids the cache has never seen or has dropped.
var ErrNotCached = errors.New("node not cached")

// rootIndex keys the listing of root-level nodes.
const rootIndex = ""

// CacheOptions configures a Cache.
type CacheOptions struct {
	// Capacity caps the number of child indexes kept. Zero keeps everything.
	Capacity int
}

type childIndex struct {
	ids        []string
	next       string
	lastAccess uint64
}

// Cache is a partial mirror of the server tree. Nodes are keyed by id and
// updated in place; each fetched parent keeps an ordered child index plus the
// cursor for its next page. All methods are safe for concurrent use and every
// read-modify-write happens under a single lock acquisition.
type Cache struct {
	mu       sync.RWMutex
	nodes    map[string]*tree.Node
	children map[string]*childIndex
	pinned   map[string]int
	nav      map[string]struct{}
	capacity int
	clock    uint64
}

// NewCache creates an empty cache.
func NewCache(opts CacheOptions) *Cache {
	return &Cache{
		nodes:    make(map[string]*tree.Node),
		children: make(map[string]*childIndex),
		pinned:   make(map[string]int),
		nav:      make(map[string]struct{}),
		capacity: opts.Capacity,
	}
}

// Put inserts a node or updates the cached record field by field. An empty
// path never replaces a known one.
func (c *Cache) Put(n tree.Node) tree.Node {
	if n.ID == "" {
		return n
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := *c.upsertLocked(n)
	metrics.SetCacheNodes(len(c.nodes))
	return out
}

// MergeChildren records a page of children for parentID. Duplicate ids are
// dropped and already cached nodes are updated in place. The first page
// replaces the index; later pages (appendPage) extend it. The merged page is
// returned in order.
func (c *Cache) MergeChildren(parentID string, nodes []tree.Node, next string, appendPage bool) []tree.Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]struct{}, len(nodes))
	merged := make([]tree.Node, 0, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == "" {
			continue
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		rec := c.upsertLocked(n)
		merged = append(merged, *rec)
		ids = append(ids, n.ID)
	}

	idx, ok := c.children[parentID]
	if !ok || !appendPage {
		idx = &childIndex{ids: ids}
		c.children[parentID] = idx
	} else {
		present := make(map[string]struct{}, len(idx.ids))
		for _, id := range idx.ids {
			present[id] = struct{}{}
		}
		for _, id := range ids {
			if _, dup := present[id]; !dup {
				idx.ids = append(idx.ids, id)
			}
		}
	}
	idx.next = next
	c.touchLocked(idx)

	events.Cache.Merge(parentID, len(nodes), len(ids), appendPage)
	c.evictLocked()
	metrics.SetCacheNodes(len(c.nodes))
	return merged
}

// Children returns the cached children of parentID and the cursor for the
// next page. ok is false when the parent has never been listed.
func (c *Cache) Children(parentID string) ([]tree.Node, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.children[parentID]
	if !ok {
		return nil, "", false
	}
	c.touchLocked(idx)
	out := make([]tree.Node, 0, len(idx.ids))
	for _, id := range idx.ids {
		if rec, ok := c.nodes[id]; ok {
			out = append(out, *rec)
		}
	}
	return out, idx.next, true
}

// Get returns a copy of the cached node.
func (c *Cache) Get(id string) (tree.Node, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.nodes[id]
	if !ok {
		return tree.Node{}, false
	}
	return *rec, true
}

// Refresh returns the cached record for each node, in order. Nodes the cache
// does not hold are returned as given.
func (c *Cache) Refresh(nodes []tree.Node) []tree.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]tree.Node, len(nodes))
	for i, n := range nodes {
		if rec, ok := c.nodes[n.ID]; ok {
			out[i] = *rec
		} else {
			out[i] = n
		}
	}
	return out
}

// AncestorChain returns the ancestor ids of a cached node, root first.
func (c *Cache) AncestorChain(id string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.nodes[id]
	if !ok {
		return nil, ErrNotCached
	}
	return rec.Path.Ancestors(), nil
}

// IsDescendant reports whether candidateID is ofID or lies below it.
func (c *Cache) IsDescendant(candidateID, ofID string) bool {
	if candidateID == "" || ofID == "" {
		return false
	}
	if candidateID == ofID {
		return true
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.nodes[candidateID]
	if !ok {
		return false
	}
	return rec.Path.IsDescendantOf(ofID)
}

// Rename updates the cached name of a node.
func (c *Cache) Rename(id, name string) (tree.Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.nodes[id]
	if !ok {
		return tree.Node{}, false
	}
	rec.Name = name
	return *rec, true
}

// ApplyMove records a confirmed move of src under destination in one step.
// src is inserted first if the cache does not hold it. The new path comes from
// confirmed when the server returned one, and otherwise from the cached
// destination; the paths of cached descendants are rebased to match. The
// destination record itself is never overwritten from the arguments.
func (c *Cache) ApplyMove(src, destination, confirmed tree.Node) tree.Node {
	if src.ID == "" {
		return src
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.nodes[src.ID]
	if !ok {
		rec = c.upsertLocked(src)
	}
	if cached, ok := c.nodes[destination.ID]; ok {
		destination = *cached
	}
	oldParent := rec.ParentID()
	oldFull := rec.FullPath()
	newPath := destination.FullPath()
	if confirmed.ID == src.ID {
		if confirmed.Path.Len() > 0 {
			newPath = confirmed.Path
		}
		c.upsertLocked(confirmed)
	}
	rec.Path = newPath
	newParent := rec.ParentID()
	newFull := rec.FullPath()

	if idx, ok := c.children[oldParent]; ok {
		idx.ids = removeID(idx.ids, src.ID)
	}
	if idx, ok := c.children[newParent]; ok && !containsID(idx.ids, src.ID) {
		idx.ids = append(idx.ids, src.ID)
	}
	for otherID, other := range c.nodes {
		if otherID != src.ID && other.Path.HasPrefix(oldFull) {
			other.Path = other.Path.Rebase(oldFull, newFull)
		}
	}
	events.Cache.Relocate(src.ID, oldParent, newParent)
	metrics.SetCacheNodes(len(c.nodes))
	return *rec
}

// Remove drops a node, its cached subtree, and its entry in the parent's
// child index. It is only used once the server has confirmed a delete.
func (c *Cache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.nodes[id]
	if !ok {
		return false
	}
	if idx, ok := c.children[rec.ParentID()]; ok {
		idx.ids = removeID(idx.ids, id)
	}
	for otherID, other := range c.nodes {
		if otherID == id || other.Path.IsDescendantOf(id) {
			delete(c.nodes, otherID)
			delete(c.children, otherID)
		}
	}
	metrics.SetCacheNodes(len(c.nodes))
	return true
}

// Pin protects ids from eviction until a matching Unpin.
func (c *Cache) Pin(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if id != "" {
			c.pinned[id]++
		}
	}
}

// Unpin releases a Pin.
func (c *Cache) Unpin(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if n := c.pinned[id]; n > 1 {
			c.pinned[id] = n - 1
		} else {
			delete(c.pinned, id)
		}
	}
}

// SetNavigation records the current directory. The ids on its path are kept
// through eviction.
func (c *Cache) SetNavigation(path tree.Path, currentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	nav := make(map[string]struct{}, path.Len()+1)
	for _, id := range path.Ancestors() {
		nav[id] = struct{}{}
	}
	if currentID != "" {
		nav[currentID] = struct{}{}
	}
	c.nav = nav
}

// Len returns the number of cached nodes.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.nodes)
}

// Indexes returns the number of loaded child indexes.
func (c *Cache) Indexes() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.children)
}

func (c *Cache) upsertLocked(n tree.Node) *tree.Node {
	rec, ok := c.nodes[n.ID]
	if !ok {
		dup := n
		c.nodes[n.ID] = &dup
		return &dup
	}
	rec.Name = n.Name
	if n.Type != "" {
		rec.Type = n.Type
	}
	if n.Path.Len() > 0 {
		rec.Path = n.Path
	}
	rec.Size = n.Size
	if n.URL != "" {
		rec.URL = n.URL
	}
	if !n.Modified.IsZero() {
		rec.Modified = n.Modified
	}
	return rec
}

func (c *Cache) touchLocked(idx *childIndex) {
	c.clock++
	idx.lastAccess = c.clock
}

func (c *Cache) protectedLocked(id string) bool {
	if _, ok := c.pinned[id]; ok {
		return true
	}
	if _, ok := c.nav[id]; ok {
		return true
	}
	_, hasIndex := c.children[id]
	return hasIndex
}

// evictLocked drops least recently used child indexes until the cache is
// within capacity. Indexes of the root, of the navigation path, and of pinned
// parents are never chosen; nodes that are pinned or on the navigation path
// survive the drop of their parent's index.
func (c *Cache) evictLocked() {
	if c.capacity <= 0 {
		return
	}
	for len(c.children) > c.capacity {
		victim := ""
		var oldest uint64
		found := false
		for parentID, idx := range c.children {
			if parentID == rootIndex {
				continue
			}
			if _, ok := c.nav[parentID]; ok {
				continue
			}
			if _, ok := c.pinned[parentID]; ok {
				continue
			}
			if !found || idx.lastAccess < oldest {
				victim, oldest, found = parentID, idx.lastAccess, true
			}
		}
		if !found {
			return
		}
		idx := c.children[victim]
		delete(c.children, victim)
		dropped := 0
		for _, id := range idx.ids {
			if c.protectedLocked(id) {
				continue
			}
			delete(c.nodes, id)
			dropped++
		}
		metrics.RecordCacheEviction()
		events.Cache.Evict(victim, dropped)
	}
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
