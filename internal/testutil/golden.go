// Package testutil holds helpers shared by package tests: golden files, an
// in-memory resource API and a bus recorder.
package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// AssertGolden compares a rendered frame with testdata/<name> in the calling
// package. A missing file is written from got; UPDATE_GOLDEN=1 rewrites all
// of them.
func AssertGolden(t testing.TB, name, got string) {
	t.Helper()
	path := filepath.Join("testdata", name)
	want, err := os.ReadFile(path)
	switch {
	case os.Getenv("UPDATE_GOLDEN") != "" || errors.Is(err, fs.ErrNotExist):
		writeGolden(t, path, got)
		return
	case err != nil:
		t.Fatalf("read golden %s: %v", path, err)
	}
	if string(want) != got {
		t.Fatalf("frame differs from %s\n--- want\n%s\n--- got\n%s", path, want, got)
	}
}

func writeGolden(t testing.TB, path, got string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
		t.Fatalf("write golden %s: %v", path, err)
	}
	t.Logf("wrote golden %s", path)
}
