package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmtemplate/pkg/frontmatter"
	"github.com/goliatone/go-fmtemplate/pkg/template"
)

// MemoryFS is an in-memory template.FileSystem for tests. Paths are cleaned
// before lookup so "a/./b.json" and "a/b.json" name the same file.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string]string
	reads map[string]int
}

var _ template.FileSystem = (*MemoryFS)(nil)

// NewMemoryFS returns a MemoryFS seeded with files.
func NewMemoryFS(files map[string]string) *MemoryFS {
	m := &MemoryFS{files: make(map[string]string, len(files)), reads: make(map[string]int)}
	for path, content := range files {
		m.files[filepath.Clean(path)] = content
	}
	return m
}

// Put adds or replaces a file.
func (m *MemoryFS) Put(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = content
}

// ReadTextFile implements template.FileSystem.
func (m *MemoryFS) ReadTextFile(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cleaned := filepath.Clean(path)
	content, ok := m.files[cleaned]
	if !ok {
		return "", fmt.Errorf("testsupport: %s: %w", path, template.ErrNotFound)
	}
	m.reads[cleaned]++
	return content, nil
}

// Exists implements template.FileSystem.
func (m *MemoryFS) Exists(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[filepath.Clean(path)]
	return ok
}

// Reads returns how many times path was read.
func (m *MemoryFS) Reads(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads[filepath.Clean(path)]
}

// Paths lists the stored paths in lexical order.
func (m *MemoryFS) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for path := range m.files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// MustDocument parses a Markdown fixture, failing the test on error.
func MustDocument(t *testing.T, path, content string) frontmatter.Document {
	t.Helper()

	doc, err := frontmatter.Parse(path, content)
	if err != nil {
		t.Fatalf("parse document %s: %v", path, err)
	}
	return doc
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CompareGoldenJSON decodes the golden at path and diffs it against got,
// which must be JSON-shaped (objects, arrays, float64 numbers).
func CompareGoldenJSON(t *testing.T, path string, got any) string {
	t.Helper()

	var want any
	if err := json.Unmarshal(MustReadGolden(t, path), &want); err != nil {
		t.Fatalf("unmarshal golden: %v", err)
	}
	return cmp.Diff(want, got)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
