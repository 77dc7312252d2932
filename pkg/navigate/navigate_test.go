package navigate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPath_Resolves(t *testing.T) {
	root := map[string]any{
		"author": map[string]any{"name": "Ada"},
		"tags":   []any{"go", "yaml"},
		"matrix": []any{[]any{1, 2}},
	}
	cases := map[string]any{
		"author.name":     "Ada",
		"tags.1":          "yaml",
		"tags.length":     2,
		"matrix.0.1":      2,
		"matrix.0.length": 2,
	}
	for path, want := range cases {
		got, err := Path(root, path)
		if err != nil {
			t.Fatalf("Path(%q): %v", path, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("Path(%q) mismatch (-want +got):\n%s", path, diff)
		}
	}
}

func TestPath_Failures(t *testing.T) {
	root := map[string]any{
		"author": map[string]any{"name": "Ada", "email": "ada@example.com"},
		"tags":   []any{"go"},
		"title":  "Notes",
	}
	cases := []struct {
		path      string
		reason    Reason
		index     int
		available []string
	}{
		{"author.age", KeyNotFound, 1, []string{"email", "name"}},
		{"title.length", NotAnObject, 1, nil},
		{"tags.3", IndexOutOfRange, 1, nil},
		{"tags.-1", IndexOutOfRange, 1, nil},
		{"tags.first", NotAnObject, 1, nil},
		{"missing.x", KeyNotFound, 0, []string{"author", "tags", "title"}},
	}
	for _, tc := range cases {
		_, err := Path(root, tc.path)
		var navErr *Error
		if !errors.As(err, &navErr) {
			t.Fatalf("Path(%q) expected *Error, got %v", tc.path, err)
		}
		if navErr.Reason != tc.reason {
			t.Fatalf("Path(%q) reason = %s, want %s", tc.path, navErr.Reason, tc.reason)
		}
		if navErr.Index != tc.index {
			t.Fatalf("Path(%q) index = %d, want %d", tc.path, navErr.Index, tc.index)
		}
		if navErr.Path != tc.path {
			t.Fatalf("Path(%q) reported path %q", tc.path, navErr.Path)
		}
		if diff := cmp.Diff(tc.available, navErr.Available); diff != "" {
			t.Fatalf("Path(%q) available mismatch (-want +got):\n%s", tc.path, diff)
		}
	}
}

func TestPath_ScalarRoot(t *testing.T) {
	_, err := Path("scalar", "a")
	var navErr *Error
	if !errors.As(err, &navErr) || navErr.Reason != NotAnObject {
		t.Fatalf("expected NotAnObject, got %v", err)
	}
}
