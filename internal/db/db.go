// Package db is the DuckDB store behind the reference resource API. Nodes
// live in a single table and carry their materialized ancestor path, so
// subtree reads, moves and cascading deletes are prefix operations.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/atomicstack/vault-browser/internal/tree"
)

var (
	ErrNotFound       = errors.New("node not found")
	ErrNameConflict   = errors.New("a sibling with that name already exists")
	ErrEmptyName      = errors.New("name must not be empty")
	ErrParentRequired = errors.New("parent is required")
	ErrParentNotFound = errors.New("parent not found")
	ErrCreateType     = errors.New(`creation only enabled for node_type="FOLDER"`)
	ErrBadParent      = errors.New("parent cannot hold children")
	ErrNotDeletable   = errors.New("organizations and collections cannot be deleted")
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	id        VARCHAR PRIMARY KEY,
	parent_id VARCHAR NOT NULL,
	name      VARCHAR NOT NULL,
	node_type VARCHAR NOT NULL,
	path      VARCHAR NOT NULL,
	size      BIGINT NOT NULL,
	modified  TIMESTAMP NOT NULL
)`

// fullPathExpr is the path a child of row n would carry.
const fullPathExpr = `CASE WHEN n.path = '' THEN n.id ELSE n.path || '.' || n.id END`

// selectNodeSQL aggregates container sizes from the FILE rows in their subtree.
const selectNodeSQL = `
SELECT n.id, n.name, n.node_type, n.path, n.modified,
	CASE WHEN n.node_type = 'FILE' THEN n.size ELSE (
		SELECT COALESCE(SUM(f.size), 0) FROM nodes f
		WHERE f.node_type = 'FILE'
		AND (f.path = ` + fullPathExpr + ` OR starts_with(f.path, ` + fullPathExpr + ` || '.'))
	) END AS size
FROM nodes n`

// Store wraps the DuckDB connection. Reads run concurrently; writes are
// serialized by mu.
type Store struct {
	conn *sql.DB
	mu   sync.Mutex
	now  func() time.Time
}

// Open connects to the DuckDB file at path. An empty path keeps the data in
// memory for the lifetime of the Store.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{conn: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases the connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// SetClock overrides the modification timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Ordering fields accepted by List, optionally prefixed with "-".
var orderings = map[string]string{
	"id":        "n.id",
	"name":      "n.name",
	"node_type": "n.node_type",
}

// ValidOrdering reports whether List accepts the ordering value.
func ValidOrdering(ordering string) bool {
	if ordering == "" {
		return true
	}
	_, ok := orderings[strings.TrimPrefix(ordering, "-")]
	return ok
}

// ListQuery selects one page of children. An empty Parent lists root-level
// nodes.
type ListQuery struct {
	Parent   string
	Ordering string
	Limit    int
	Offset   int
}

// List returns one page of children and whether more follow.
func (s *Store) List(ctx context.Context, q ListQuery) ([]tree.Node, bool, error) {
	if !ValidOrdering(q.Ordering) {
		return nil, false, fmt.Errorf("unknown ordering %q", q.Ordering)
	}
	order := "n.id"
	if q.Ordering != "" {
		order = orderings[strings.TrimPrefix(q.Ordering, "-")]
		if strings.HasPrefix(q.Ordering, "-") {
			order += " DESC"
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query := selectNodeSQL + ` WHERE n.parent_id = ? ORDER BY ` + order + `, n.id LIMIT ? OFFSET ?`
	rows, err := s.conn.QueryContext(ctx, query, q.Parent, limit+1, q.Offset)
	if err != nil {
		return nil, false, fmt.Errorf("list children of %q: %w", q.Parent, err)
	}
	defer rows.Close()
	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, false, err
	}
	more := len(nodes) > limit
	if more {
		nodes = nodes[:limit]
	}
	return nodes, more, nil
}

// Get fetches a node with its aggregated size.
func (s *Store) Get(ctx context.Context, id string) (tree.Node, error) {
	return s.get(ctx, s.conn, id)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) get(ctx context.Context, q querier, id string) (tree.Node, error) {
	rows, err := q.QueryContext(ctx, selectNodeSQL+` WHERE n.id = ?`, id)
	if err != nil {
		return tree.Node{}, fmt.Errorf("get %s: %w", id, err)
	}
	defer rows.Close()
	nodes, err := scanNodes(rows)
	if err != nil {
		return tree.Node{}, err
	}
	if len(nodes) == 0 {
		return tree.Node{}, ErrNotFound
	}
	return nodes[0], nil
}

func scanNodes(rows *sql.Rows) ([]tree.Node, error) {
	var out []tree.Node
	for rows.Next() {
		var (
			n    tree.Node
			typ  string
			path string
		)
		if err := rows.Scan(&n.ID, &n.Name, &typ, &path, &n.Modified, &n.Size); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.Type = tree.Type(typ)
		n.Path = tree.ParsePath(path)
		out = append(out, n)
	}
	return out, rows.Err()
}

// Count returns the number of stored nodes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// Insert stores a node of any type under parentID. It backs seeding and
// fixtures; API callers go through Create. An empty ID is replaced with a
// fresh UUID.
func (s *Store) Insert(ctx context.Context, n tree.Node, parentID string) (tree.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(ctx, n, parentID)
}

func (s *Store) insertLocked(ctx context.Context, n tree.Node, parentID string) (tree.Node, error) {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		return tree.Node{}, ErrEmptyName
	}
	if _, err := tree.ParseType(string(n.Type)); err != nil {
		return tree.Node{}, err
	}
	path := tree.Path{}
	if parentID != "" {
		parent, err := s.get(ctx, s.conn, parentID)
		if errors.Is(err, ErrNotFound) {
			return tree.Node{}, ErrParentNotFound
		}
		if err != nil {
			return tree.Node{}, err
		}
		if !parent.Type.HasChildren() {
			return tree.Node{}, ErrBadParent
		}
		path = parent.FullPath()
	}
	if taken, err := s.nameTaken(ctx, s.conn, parentID, name, ""); err != nil {
		return tree.Node{}, err
	} else if taken {
		return tree.Node{}, ErrNameConflict
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	size := n.Size
	if n.Type != tree.TypeFile {
		size = 0
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO nodes (id, parent_id, name, node_type, path, size, modified) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, parentID, name, string(n.Type), path.String(), size, s.now())
	if err != nil {
		return tree.Node{}, fmt.Errorf("insert %s: %w", n.ID, err)
	}
	return s.get(ctx, s.conn, n.ID)
}

func (s *Store) nameTaken(ctx context.Context, q querier, parentID, name, exceptID string) (bool, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT 1 FROM nodes WHERE parent_id = ? AND name = ? AND id <> ? LIMIT 1`,
		parentID, name, exceptID)
	if err != nil {
		return false, fmt.Errorf("check sibling names: %w", err)
	}
	defer rows.Close()
	taken := rows.Next()
	return taken, rows.Err()
}

// Create adds a FOLDER under parentID.
func (s *Store) Create(ctx context.Context, name string, typ tree.Type, parentID string) (tree.Node, error) {
	if typ != tree.TypeFolder {
		return tree.Node{}, ErrCreateType
	}
	if parentID == "" {
		return tree.Node{}, ErrParentRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, err := s.get(ctx, s.conn, parentID)
	if errors.Is(err, ErrNotFound) {
		return tree.Node{}, ErrParentNotFound
	}
	if err != nil {
		return tree.Node{}, err
	}
	if !parent.Type.IsMoveTarget() {
		return tree.Node{}, ErrBadParent
	}
	return s.insertLocked(ctx, tree.Node{Name: name, Type: typ}, parentID)
}

// Patch carries the mutable fields. Nil fields are left untouched.
type Patch struct {
	Name   *string
	Parent *string
}

// Update applies a rename, a move, or both. A move rewrites the paths of
// every descendant in the same transaction. Illegal moves return a
// *tree.IllegalMoveError.
func (s *Store) Update(ctx context.Context, id string, p Patch) (tree.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.get(ctx, s.conn, id)
	if err != nil {
		return tree.Node{}, err
	}
	name := node.Name
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
		if name == "" {
			return tree.Node{}, ErrEmptyName
		}
	}
	parentID := node.ParentID()
	newPath := node.Path
	moving := p.Parent != nil && *p.Parent != parentID
	if moving {
		dest, err := s.get(ctx, s.conn, *p.Parent)
		if errors.Is(err, ErrNotFound) {
			return tree.Node{}, ErrParentNotFound
		}
		if err != nil {
			return tree.Node{}, err
		}
		if err := tree.ValidateMove([]tree.Node{node}, dest); err != nil {
			return tree.Node{}, err
		}
		parentID = dest.ID
		newPath = dest.FullPath()
	}
	if name == node.Name && !moving {
		return node, nil
	}
	if taken, err := s.nameTaken(ctx, s.conn, parentID, name, id); err != nil {
		return tree.Node{}, err
	} else if taken {
		return tree.Node{}, ErrNameConflict
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return tree.Node{}, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE nodes SET name = ?, parent_id = ?, path = ?, modified = ? WHERE id = ?`,
		name, parentID, newPath.String(), s.now(), id); err != nil {
		return tree.Node{}, fmt.Errorf("update %s: %w", id, err)
	}
	if moving {
		oldPrefix := node.FullPath().String()
		newPrefix := newPath.Child(id).String()
		if _, err := tx.ExecContext(ctx,
			`UPDATE nodes SET path = CAST(? AS VARCHAR) || substr(path, CAST(? AS BIGINT)) WHERE path = ? OR starts_with(path, ?)`,
			newPrefix, len(oldPrefix)+1, oldPrefix, oldPrefix+"."); err != nil {
			return tree.Node{}, fmt.Errorf("rewrite descendants of %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return tree.Node{}, fmt.Errorf("commit update: %w", err)
	}
	return s.get(ctx, s.conn, id)
}

// Delete removes a FOLDER or FILE together with its subtree.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, err := s.get(ctx, s.conn, id)
	if err != nil {
		return err
	}
	if !node.Type.IsDeletable() {
		return ErrNotDeletable
	}
	prefix := node.FullPath().String()
	_, err = s.conn.ExecContext(ctx,
		`DELETE FROM nodes WHERE id = ? OR path = ? OR starts_with(path, ?)`,
		id, prefix, prefix+".")
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}
