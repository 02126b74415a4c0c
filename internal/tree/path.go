package tree

import (
	"encoding/json"
	"strings"
)

const pathSeparator = "."

// Path is the materialized ancestor chain of a node: the ids from the root
// down to the node's parent. The zero value is the root path.
type Path struct {
	ids []string
}

// ParsePath decodes a dot-delimited path. Empty segments are dropped.
func ParsePath(s string) Path {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}
	}
	parts := strings.Split(s, pathSeparator)
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ids = append(ids, part)
	}
	return Path{ids: ids}
}

// NewPath builds a path from ids ordered root first.
func NewPath(ids ...string) Path {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return Path{ids: out}
}

// String encodes the path in its wire form.
func (p Path) String() string {
	return strings.Join(p.ids, pathSeparator)
}

// Len returns the number of ancestors.
func (p Path) Len() int {
	return len(p.ids)
}

// IsRoot reports whether the path is empty.
func (p Path) IsRoot() bool {
	return len(p.ids) == 0
}

// Parent returns the id of the nearest ancestor.
func (p Path) Parent() (string, bool) {
	if len(p.ids) == 0 {
		return "", false
	}
	return p.ids[len(p.ids)-1], true
}

// Ancestors returns a copy of the ancestor ids, root first.
func (p Path) Ancestors() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

// IsDescendantOf reports whether id appears anywhere in the path.
func (p Path) IsDescendantOf(id string) bool {
	if id == "" {
		return false
	}
	for _, ancestor := range p.ids {
		if ancestor == id {
			return true
		}
	}
	return false
}

// Child returns the path of a child of the node with the given id, i.e. this
// path extended by id.
func (p Path) Child(id string) Path {
	out := make([]string, 0, len(p.ids)+1)
	out = append(out, p.ids...)
	if id != "" {
		out = append(out, id)
	}
	return Path{ids: out}
}

// HasPrefix reports whether prefix is a leading subsequence of the path.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix.ids) > len(p.ids) {
		return false
	}
	for i, id := range prefix.ids {
		if p.ids[i] != id {
			return false
		}
	}
	return true
}

// Rebase swaps a leading prefix for another one. It returns the path
// unchanged when old is not a prefix.
func (p Path) Rebase(old, replacement Path) Path {
	if !p.HasPrefix(old) {
		return p
	}
	out := make([]string, 0, len(replacement.ids)+len(p.ids)-len(old.ids))
	out = append(out, replacement.ids...)
	out = append(out, p.ids[len(old.ids):]...)
	return Path{ids: out}
}

// Equal compares two paths element-wise.
func (p Path) Equal(other Path) bool {
	if len(p.ids) != len(other.ids) {
		return false
	}
	for i := range p.ids {
		if p.ids[i] != other.ids[i] {
			return false
		}
	}
	return true
}

func (p Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Path) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = ParsePath(raw)
	return nil
}
