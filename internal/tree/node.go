// Package tree models the resource hierarchy shared by the client and the
// reference server: nodes, their types and capabilities, and the
// materialized ancestor path.
package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Type enumerates the kinds of node in the hierarchy.
type Type string

const (
	TypeOrganization Type = "ORGANIZATION"
	TypeCollection   Type = "COLLECTION"
	TypeFolder       Type = "FOLDER"
	TypeFile         Type = "FILE"
)

// ParseType normalises a wire value into a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeOrganization, TypeCollection, TypeFolder, TypeFile:
		return t, nil
	default:
		return "", fmt.Errorf("unknown node type %q", s)
	}
}

func (t Type) HasChildren() bool    { return t != TypeFile && t != "" }
func (t Type) IsLeaf() bool         { return t == TypeFile }
func (t Type) IsDownloadable() bool { return t == TypeFile }

// IsDeletable reports whether nodes of this type may be removed. Collections
// and organizations are structural and refused by the server.
func (t Type) IsDeletable() bool { return t == TypeFolder || t == TypeFile }

// IsMovable reports whether nodes of this type may be reparented.
func (t Type) IsMovable() bool { return t == TypeFolder || t == TypeFile }

// IsMoveTarget reports whether nodes of this type can receive moved nodes.
func (t Type) IsMoveTarget() bool { return t == TypeCollection || t == TypeFolder }

// Label returns the lower-case display label.
func (t Type) Label() string {
	return strings.ToLower(string(t))
}

// Node is a single resource in the tree.
type Node struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Type     Type      `json:"node_type"`
	Path     Path      `json:"path"`
	Size     int64     `json:"size"`
	URL      string    `json:"url,omitempty"`
	Modified time.Time `json:"modified,omitempty"`
}

// ParentID returns the id of the node's parent, or "" for root-level nodes.
func (n Node) ParentID() string {
	id, _ := n.Path.Parent()
	return id
}

// FullPath is the path a child of this node would carry.
func (n Node) FullPath() Path {
	return n.Path.Child(n.ID)
}

// IsZero reports whether the node carries no identity.
func (n Node) IsZero() bool {
	return n.ID == ""
}

type wireNode struct {
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	Type     Type            `json:"node_type"`
	Path     Path            `json:"path"`
	Size     int64           `json:"size"`
	URL      string          `json:"url,omitempty"`
	Modified time.Time       `json:"modified,omitempty"`
}

// UnmarshalJSON accepts both string and integer ids.
func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id, err := decodeID(w.ID)
	if err != nil {
		return err
	}
	*n = Node{
		ID:       id,
		Name:     w.Name,
		Type:     w.Type,
		Path:     w.Path,
		Size:     w.Size,
		URL:      w.URL,
		Modified: w.Modified,
	}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return "", fmt.Errorf("decode node id: %w", err)
	}
	return num.String(), nil
}
