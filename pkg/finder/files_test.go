package finder

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestFindDirs(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	for _, d := range []string{
		"client/components",
		"server/routes",
		"client/node_modules/pkg",
		".cache",
	} {
		if err := os.MkdirAll(filepath.Join(src, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(src, "client", "sw.ts"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs, err := FindDirs(src, filepath.Join(root, "missing"))
	if err != nil {
		t.Fatalf("FindDirs() error = %v", err)
	}

	var rel []string
	for _, d := range dirs {
		r, _ := filepath.Rel(root, d)
		rel = append(rel, filepath.ToSlash(r))
	}
	sort.Strings(rel)

	want := []string{"src", "src/client", "src/client/components", "src/server", "src/server/routes"}
	if len(rel) != len(want) {
		t.Fatalf("FindDirs() = %v, want %v", rel, want)
	}
	for i := range want {
		if rel[i] != want[i] {
			t.Errorf("FindDirs()[%d] = %q, want %q", i, rel[i], want[i])
		}
	}
}

func TestSkip(t *testing.T) {
	for name, want := range map[string]bool{
		"node_modules": true,
		".git":         true,
		".cache":       true,
		"client":       false,
		".":            false,
	} {
		if got := Skip(name); got != want {
			t.Errorf("Skip(%q) = %v, want %v", name, got, want)
		}
	}
}
