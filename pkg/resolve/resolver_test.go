package resolve

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmtemplate/pkg/navigate"
	"github.com/goliatone/go-fmtemplate/pkg/transform"
	"github.com/goliatone/go-fmtemplate/pkg/variable"
)

func TestResolver_FlatDottedKeyUsesDirectTier(t *testing.T) {
	resolver := New()
	values := []any{"v", 3.0, true, nil, []any{"x"}, map[string]any{"k": "v"}}
	for _, want := range values {
		ctx := NewContext(map[string]any{"a.b": want})
		got, tier, err := resolver.Trace(variable.Standard{Name: "a.b"}, ctx)
		if err != nil {
			t.Fatalf("resolve a.b: %v", err)
		}
		if tier != TierDirect {
			t.Fatalf("expected direct tier, got %s", tier)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("value mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestResolver_DirectTierWinsOverNested(t *testing.T) {
	ctx := NewContext(map[string]any{
		"a.b": "flat",
		"a":   map[string]any{"b": "nested"},
	})
	got, tier, err := New().Trace(variable.Standard{Name: "a.b"}, ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "flat" || tier != TierDirect {
		t.Fatalf("expected flat/direct, got %v/%s", got, tier)
	}
}

func TestResolver_NestedUsesHierarchyTier(t *testing.T) {
	ctx := NewContext(map[string]any{"a": map[string]any{"b": "nested"}})
	got, tier, err := New().Trace(variable.Standard{Name: "a.b"}, ctx)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "nested" || tier != TierHierarchy {
		t.Fatalf("expected nested/hierarchy, got %v/%s", got, tier)
	}
}

func TestResolver_HierarchyRootIsSecondaryScope(t *testing.T) {
	ctx := NewContext(map[string]any{"title": "local"}).
		WithHierarchyRoot(map[string]any{"title": "root", "site": map[string]any{"name": "docs"}})

	title, err := New().ResolveName("title", ctx)
	if err != nil || title != "local" {
		t.Fatalf("title = %v, %v", title, err)
	}
	site, err := New().ResolveName("site.name", ctx)
	if err != nil || site != "docs" {
		t.Fatalf("site.name = %v, %v", site, err)
	}
}

func TestResolver_IDFullExamples(t *testing.T) {
	resolver := New()

	got, err := resolver.ResolveName("id.full", NewContext(map[string]any{
		"id": map[string]any{"full": "ABC-1"},
	}))
	if err != nil || got != "ABC-1" {
		t.Fatalf("nested id.full = %v, %v", got, err)
	}

	_, err = resolver.ResolveName("id.full", NewContext(map[string]any{"id": "X"}))
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if resErr.Variable != "id.full" {
		t.Fatalf("error variable = %q", resErr.Variable)
	}
	if diff := cmp.Diff([]string{"id"}, resErr.AvailableKeys); diff != "" {
		t.Fatalf("available keys mismatch (-want +got):\n%s", diff)
	}
}

func TestResolver_VariableRegistryDerivesFromScalarBase(t *testing.T) {
	variables := transform.NewVariableRegistry()
	variables.MustRegister("id", "full", transform.Func(func(base any) (any, error) {
		return "REQ-" + base.(string), nil
	}))
	resolver := New(WithVariableRegistry(variables))

	got, tier, err := resolver.Trace(variable.Standard{Name: "id.full"}, NewContext(map[string]any{"id": "X"}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "REQ-X" || tier != TierTransform {
		t.Fatalf("expected REQ-X/transform, got %v/%s", got, tier)
	}
}

func TestResolver_VariableRegistryPrecedesPropertyRegistry(t *testing.T) {
	variables := transform.NewVariableRegistry()
	variables.MustRegister("tags", "length", transform.Constant("custom"))
	resolver := New(WithVariableRegistry(variables))

	ctx := NewContext(map[string]any{"tags": "a,b"})
	got, err := resolver.ResolveName("tags.length", ctx)
	if err != nil || got != "custom" {
		t.Fatalf("tags.length = %v, %v", got, err)
	}
}

func TestResolver_PropertyRegistryFallback(t *testing.T) {
	ctx := NewContext(map[string]any{
		"title": "hello world",
		"tags":  []any{"go", "yaml"},
	})
	resolver := New()
	cases := map[string]any{
		"title.upper":  "HELLO WORLD",
		"title.length": 11,
		"tags.length":  2,
		"tags.join":    "go, yaml",
	}
	for name, want := range cases {
		got, err := resolver.ResolveName(name, ctx)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestResolver_EmptyPropertyRegistryDisablesDerivations(t *testing.T) {
	resolver := New(WithPropertyRegistry(transform.NewPropertyRegistry()))
	_, err := resolver.ResolveName("title.upper", NewContext(map[string]any{"title": "x"}))
	if err == nil {
		t.Fatalf("expected failure without property strategies")
	}
}

func TestResolver_TransformOnlyForTwoSegments(t *testing.T) {
	ctx := NewContext(map[string]any{"a": map[string]any{"b": "text"}})
	_, err := New().ResolveName("a.b.upper", ctx)
	if err == nil {
		t.Fatalf("expected three-segment path to skip transformations")
	}
}

func TestResolver_FailureCarriesNavigationSiblings(t *testing.T) {
	ctx := NewContext(map[string]any{
		"author": map[string]any{"name": "Ada", "email": "a@example.com"},
	})
	_, err := New().ResolveName("author.nmae", ctx)

	var navErr *navigate.Error
	if !errors.As(err, &navErr) {
		t.Fatalf("expected navigation cause, got %v", err)
	}
	if diff := cmp.Diff([]string{"email", "name"}, navErr.Available); diff != "" {
		t.Fatalf("siblings mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(err.Error(), "author.nmae") {
		t.Fatalf("message must name the variable: %v", err)
	}
}

func TestResolver_StandardMissing(t *testing.T) {
	_, err := New().ResolveName("missing", NewContext(map[string]any{"title": "x"}))
	var resErr *ResolutionError
	if !errors.As(err, &resErr) || resErr.Reason != "key not found" {
		t.Fatalf("expected key not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "available keys: title") {
		t.Fatalf("message must list available keys: %v", err)
	}
}

func TestResolver_ArrayMarker(t *testing.T) {
	resolver := New()
	data := []any{"a", "b"}

	got, tier, err := resolver.Trace(variable.ArrayExpansion{Marker: variable.ArrayMarker}, NewContext(nil).WithArray(data))
	if err != nil || tier != TierArray {
		t.Fatalf("array = %v/%s, %v", got, tier, err)
	}
	if diff := cmp.Diff(data, got); diff != "" {
		t.Fatalf("array mismatch (-want +got):\n%s", diff)
	}

	_, err = resolver.ResolveName(variable.ArrayMarker, NewContext(nil))
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected failure without array data, got %v", err)
	}

	_, err = resolver.ResolveName(variable.ArrayMarker, Context{})
	if !errors.As(err, &resErr) {
		t.Fatalf("zero context must be treated as not available, got %v", err)
	}
}

func TestResolver_UnsupportedSpecialProcessor(t *testing.T) {
	_, err := New().ResolveName("@reverse", NewContext(map[string]any{}).WithArray([]any{1}))
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	if !strings.Contains(resErr.Reason, "unsupported special processor") {
		t.Fatalf("unexpected reason %q", resErr.Reason)
	}
}

func TestResolver_ClassificationFailure(t *testing.T) {
	_, err := New().ResolveName("  ", NewContext(nil))
	var classErr *variable.ClassificationError
	if !errors.As(err, &classErr) {
		t.Fatalf("expected ClassificationError, got %v", err)
	}
}
