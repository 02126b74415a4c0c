package table

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/atomicstack/vault-browser/internal/tree"
)

// Size renders a byte count in IEC units. Negative sizes are unknown.
func Size(n int64) string {
	if n < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

// Modified renders t relative to now, or "-" when unset.
func Modified(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Row returns the listing cells for a node: name, type, size and age.
func Row(n tree.Node, now time.Time) []string {
	return []string{n.Name, n.Type.Label(), Size(n.Size), Modified(n.Modified, now)}
}

// RowAlignments matches Row.
func RowAlignments() []Alignment {
	return []Alignment{AlignLeft, AlignLeft, AlignRight, AlignRight}
}
