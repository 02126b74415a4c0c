package db

import (
	"context"
	"fmt"

	"github.com/atomicstack/vault-browser/internal/tree"
)

type seedNode struct {
	name     string
	typ      tree.Type
	size     int64
	children []seedNode
}

func folder(name string, children ...seedNode) seedNode {
	return seedNode{name: name, typ: tree.TypeFolder, children: children}
}

func file(name string, size int64) seedNode {
	return seedNode{name: name, typ: tree.TypeFile, size: size}
}

var demoTree = seedNode{
	name: "Demo Organization",
	typ:  tree.TypeOrganization,
	children: []seedNode{
		{name: "Web Archive", typ: tree.TypeCollection, children: []seedNode{
			folder("2023",
				file("crawl-2023-01.warc.gz", 734_003_200),
				file("crawl-2023-07.warc.gz", 912_261_120),
			),
			folder("2024",
				folder("spring", file("crawl-2024-04.warc.gz", 1_048_576_000)),
				file("seeds.txt", 4_096),
			),
		}},
		{name: "Digitized Records", typ: tree.TypeCollection, children: []seedNode{
			folder("Minutes",
				file("1998-board.pdf", 2_516_582),
				file("1999-board.pdf", 3_145_728),
			),
			folder("Photographs"),
			file("README.md", 1_024),
		}},
	},
}

// Seed builds a demo tree when the store is empty. It returns the number of
// nodes created.
func (s *Store) Seed(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	return s.seedLocked(ctx, demoTree, "")
}

func (s *Store) seedLocked(ctx context.Context, sn seedNode, parentID string) (int, error) {
	n, err := s.insertLocked(ctx, tree.Node{Name: sn.name, Type: sn.typ, Size: sn.size}, parentID)
	if err != nil {
		return 0, fmt.Errorf("seed %s: %w", sn.name, err)
	}
	created := 1
	for _, child := range sn.children {
		c, err := s.seedLocked(ctx, child, n.ID)
		if err != nil {
			return created, err
		}
		created += c
	}
	return created, nil
}
