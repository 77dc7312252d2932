package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fmtemplate/pkg/frontmatter"
	"github.com/goliatone/go-fmtemplate/pkg/items"
	"github.com/goliatone/go-fmtemplate/pkg/resolve"
	"github.com/goliatone/go-fmtemplate/pkg/template"
	"github.com/goliatone/go-fmtemplate/pkg/testsupport"
)

const catalogSchema = `{
  "type": "object",
  "x-template": "templates/container.json",
  "x-template-items": "templates/item.json",
  "properties": {
    "commands": {"type": "array", "x-frontmatter-part": true}
  }
}`

func catalogFS() *testsupport.MemoryFS {
	return testsupport.NewMemoryFS(map[string]string{
		"schemas/index.json":               catalogSchema,
		"schemas/templates/container.json": `{"version":"{version}","total":"{commands.length}","commands":"{@items}"}`,
		"schemas/templates/item.json":      `{"name":"{name}","summary":"{title} ({$index})"}`,
	})
}

func catalogDocs(t *testing.T) []frontmatter.Document {
	return []frontmatter.Document{
		testsupport.MustDocument(t, "a.md", "---\nname: alpha\ntitle: A\n---\nbody"),
		testsupport.MustDocument(t, "b.md", "no front matter"),
		testsupport.MustDocument(t, "c.md", "---\nname: gamma\ntitle: C\n---\n"),
	}
}

func TestRender_Aggregate(t *testing.T) {
	c := New(WithFileSystem(catalogFS()))

	result, err := c.Render(context.Background(), Request{
		SchemaPath: "schemas/index.json",
		Documents:  catalogDocs(t),
		Globals:    map[string]any{"version": "1.0"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := map[string]any{
		"version": "1.0",
		"total":   2,
		"commands": []any{
			map[string]any{"name": "alpha", "summary": "A (0)"},
			map[string]any{"name": "gamma", "summary": "C (1)"},
		},
	}
	if diff := cmp.Diff(want, result.Tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	if !result.Aggregated || result.Outcome.State != items.StateExpanded {
		t.Fatalf("unexpected outcome: aggregated=%v state=%s", result.Aggregated, result.Outcome.State)
	}
	if diff := cmp.Diff([]string{"b.md"}, result.Filtered); diff != "" {
		t.Fatalf("filtered mismatch (-want +got):\n%s", diff)
	}
	if result.Rendered != 2 {
		t.Fatalf("rendered = %d", result.Rendered)
	}
}

func TestRender_ListExample(t *testing.T) {
	files := testsupport.NewMemoryFS(map[string]string{
		"schema.yaml":    "x-template: container.json\nx-template-items: item.yaml\n",
		"container.json": `{"id":"{@items}"}`,
		"item.yaml":      "value: \"{code}\"\n",
	})
	result, err := New(WithFileSystem(files)).Render(context.Background(), Request{
		SchemaPath: "schema.yaml",
		Documents: []frontmatter.Document{
			{Path: "a.md", Data: map[string]any{"code": "A"}},
			{Path: "b.md", Data: map[string]any{"code": "B"}},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := map[string]any{"id": []any{
		map[string]any{"value": "A"},
		map[string]any{"value": "B"},
	}}
	if diff := cmp.Diff(want, result.Tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_ArrayPropertyFlattensNestedLists(t *testing.T) {
	files := testsupport.NewMemoryFS(map[string]string{
		"s.json": `{
  "x-template": "c.json",
  "x-template-items": "i.json",
  "properties": {"catalog": {"properties": {"commands": {"x-frontmatter-part": true}}}}
}`,
		"c.json": `{"count":"{catalog.commands.length}","list":"{@items}"}`,
		"i.json": `"{c}"`,
	})
	result, err := New(WithFileSystem(files)).Render(context.Background(), Request{
		SchemaPath: "s.json",
		Documents: []frontmatter.Document{
			{Path: "a.md", Data: map[string]any{"catalog": map[string]any{"commands": []any{
				map[string]any{"c": "one"},
				map[string]any{"c": "two"},
			}}}},
			{Path: "b.md", Data: map[string]any{"c": "three"}},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := map[string]any{"count": 3, "list": []any{"one", "two", "three"}}
	if diff := cmp.Diff(want, result.Tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_MarkerWithoutItemsTemplate(t *testing.T) {
	files := testsupport.NewMemoryFS(map[string]string{
		"s.json": `{"x-template":"c.json","properties":{"docs":{"x-frontmatter-part":true}}}`,
		"c.json": `{"docs":"{@items}","n":"{docs.length}"}`,
	})
	result, err := New(WithFileSystem(files)).Render(context.Background(), Request{
		SchemaPath: "s.json",
		Documents:  []frontmatter.Document{{Path: "a.md", Data: map[string]any{"id": "a"}}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.Outcome.State != items.StateUnexpandedPreserved {
		t.Fatalf("state = %s", result.Outcome.State)
	}
	want := map[string]any{"docs": "{@items}", "n": 1}
	if diff := cmp.Diff(want, result.Tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	blank, err := New(WithFileSystem(files), WithMode(resolve.ModeBlank)).Render(context.Background(), Request{
		SchemaPath: "s.json",
		Documents:  []frontmatter.Document{{Path: "a.md", Data: map[string]any{"id": "a"}}},
	})
	if err != nil {
		t.Fatalf("render blank: %v", err)
	}
	if diff := cmp.Diff(want, blank.Tree); diff != "" {
		t.Fatalf("blank mode should keep the marker (-want +got):\n%s", diff)
	}
}

func TestRender_ItemValuesAreNotResolvedTwice(t *testing.T) {
	files := testsupport.NewMemoryFS(map[string]string{
		"s.json":      `{"x-template":"c.json","x-template-items":"i.json"}`,
		"c.json":      `{"title":"{token}","list":"{@items}","summary":"items: {@items}"}`,
		"i.json":      `{"text":"{note}"}`,
		"strict.json": `{"x-template":"bare.json","x-template-items":"i.json"}`,
		"bare.json":   `{"list":"{@items}"}`,
	})
	docs := []frontmatter.Document{
		{Path: "a.md", Data: map[string]any{"note": "literal {token} text"}},
		{Path: "b.md", Data: map[string]any{"note": "{@items}"}},
	}
	list := []any{
		map[string]any{"text": "literal {token} text"},
		map[string]any{"text": "{@items}"},
	}

	result, err := New(WithFileSystem(files)).Render(context.Background(), Request{
		SchemaPath: "s.json",
		Documents:  docs,
		Globals:    map[string]any{"token": "XYZ"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := map[string]any{
		"title":   "XYZ",
		"list":    list,
		"summary": `items: [{"text":"literal {token} text"},{"text":"{@items}"}]`,
	}
	if diff := cmp.Diff(want, result.Tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	strict, err := New(WithFileSystem(files), WithMode(resolve.ModeStrict)).Render(context.Background(), Request{
		SchemaPath: "strict.json",
		Documents:  docs,
	})
	if err != nil {
		t.Fatalf("strict render should not resolve item values: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"list": list}, strict.Tree); diff != "" {
		t.Fatalf("strict tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_PaddedMarkerUsesItemsTemplate(t *testing.T) {
	files := testsupport.NewMemoryFS(map[string]string{
		"s.json": `{"x-template":"c.json","x-template-items":"i.json"}`,
		"c.json": `{"list":"{ @items }"}`,
		"i.json": `{"v":"{code}"}`,
	})
	result, err := New(WithFileSystem(files)).Render(context.Background(), Request{
		SchemaPath: "s.json",
		Documents:  []frontmatter.Document{{Path: "a.md", Data: map[string]any{"code": "A", "extra": 1}}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result.Outcome.State != items.StateExpanded {
		t.Fatalf("state = %s", result.Outcome.State)
	}
	want := map[string]any{"list": []any{map[string]any{"v": "A"}}}
	if diff := cmp.Diff(want, result.Tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_PerDocument(t *testing.T) {
	files := testsupport.NewMemoryFS(map[string]string{
		"s.json": `{"x-template":"c.yaml"}`,
		"c.yaml": "title: \"{title}\"\nsite: \"{site}\"\nslug: \"{title.lower}\"\n",
	})
	c := New(WithFileSystem(files))
	docs := []frontmatter.Document{
		{Path: "a.md", Data: map[string]any{"title": "Hello", "site": "local"}},
		{Path: "b.md", Data: map[string]any{"title": "World"}},
	}

	result, err := c.Render(context.Background(), Request{
		SchemaPath: "s.json",
		Documents:  docs,
		Globals:    map[string]any{"site": "global"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := []any{
		map[string]any{"title": "Hello", "site": "local", "slug": "hello"},
		map[string]any{"title": "World", "site": "global", "slug": "world"},
	}
	if diff := cmp.Diff(want, result.Tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}

	single, err := c.Render(context.Background(), Request{SchemaPath: "s.json", Documents: docs[:1]})
	if err != nil {
		t.Fatalf("render single: %v", err)
	}
	if _, ok := single.Tree.(map[string]any); !ok {
		t.Fatalf("single document should render to an object, got %T", single.Tree)
	}
}

func TestRender_Modes(t *testing.T) {
	files := testsupport.NewMemoryFS(map[string]string{
		"s.json": `{"x-template":"c.json"}`,
		"c.json": `{"a":"{missing}","b":"x{missing}y"}`,
	})
	req := Request{SchemaPath: "s.json", Documents: []frontmatter.Document{{Path: "d.md", Data: map[string]any{"kappa": 1}}}}

	lenient, err := New(WithFileSystem(files)).Render(context.Background(), req)
	if err != nil {
		t.Fatalf("lenient: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": "{missing}", "b": "x{missing}y"}, lenient.Tree); diff != "" {
		t.Fatalf("lenient mismatch (-want +got):\n%s", diff)
	}

	blank, err := New(WithFileSystem(files), WithMode(resolve.ModeBlank)).Render(context.Background(), req)
	if err != nil {
		t.Fatalf("blank: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": nil, "b": "xy"}, blank.Tree); diff != "" {
		t.Fatalf("blank mismatch (-want +got):\n%s", diff)
	}

	_, err = New(WithFileSystem(files), WithMode(resolve.ModeStrict)).Render(context.Background(), req)
	if !IsKind(err, KindRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	var resErr *resolve.ResolutionError
	if !errors.As(err, &resErr) || resErr.Variable != "missing" {
		t.Fatalf("expected resolution error for missing, got %v", err)
	}
	if !strings.Contains(err.Error(), "available keys: kappa") {
		t.Fatalf("error should list available keys: %v", err)
	}
}

func TestRender_Errors(t *testing.T) {
	cases := []struct {
		name  string
		files map[string]string
		req   Request
		kind  Kind
	}{
		{
			name: "no schema path",
			req:  Request{},
			kind: KindTemplatePath,
		},
		{
			name: "schema missing",
			req:  Request{SchemaPath: "nope.json"},
			kind: KindTemplateLoad,
		},
		{
			name:  "schema unparsable",
			files: map[string]string{"s.json": "\t{bad: ["},
			req:   Request{SchemaPath: "s.json"},
			kind:  KindTemplateParse,
		},
		{
			name:  "no container directive",
			files: map[string]string{"s.json": `{"type":"object"}`},
			req:   Request{SchemaPath: "s.json"},
			kind:  KindMissingEntity,
		},
		{
			name:  "container missing",
			files: map[string]string{"s.json": `{"x-template":"c.json"}`},
			req:   Request{SchemaPath: "s.json"},
			kind:  KindTemplateLoad,
		},
		{
			name:  "container unparsable",
			files: map[string]string{"s.json": `{"x-template":"c.json"}`, "c.json": `{"a":`},
			req:   Request{SchemaPath: "s.json"},
			kind:  KindTemplateParse,
		},
		{
			name:  "container format unknown",
			files: map[string]string{"s.json": `{"x-template":"c.txt"}`, "c.txt": `{}`},
			req:   Request{SchemaPath: "s.json"},
			kind:  KindTemplatePath,
		},
		{
			name: "items template missing",
			files: map[string]string{
				"s.json": `{"x-template":"c.json","x-template-items":"i.json"}`,
				"c.json": `{"list":"{@items}"}`,
			},
			req:  Request{SchemaPath: "s.json"},
			kind: KindTemplateLoad,
		},
		{
			name: "conflicting markers",
			files: map[string]string{
				"s.json": `{"x-template":"c.json","x-template-items":"i.json"}`,
				"c.json": `{"list":"{@items} {@items}"}`,
				"i.json": `{}`,
			},
			req:  Request{SchemaPath: "s.json"},
			kind: KindRender,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := New(WithFileSystem(testsupport.NewMemoryFS(tc.files)))
			_, err := c.Render(context.Background(), tc.req)
			var procErr *ProcessingError
			if !errors.As(err, &procErr) {
				t.Fatalf("expected ProcessingError, got %v", err)
			}
			if procErr.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s (%v)", procErr.Kind, tc.kind, err)
			}
			if procErr.Op == "" {
				t.Fatalf("operation should be recorded")
			}
		})
	}
}

func TestRender_InlineSchemaAndAbsolutePaths(t *testing.T) {
	files := testsupport.NewMemoryFS(map[string]string{
		"/abs/c.json": `{"n":"{name}"}`,
	})
	result, err := New(WithFileSystem(files)).Render(context.Background(), Request{
		SchemaPath: "elsewhere/s.json",
		Schema:     []byte(`{"x-template":"/abs/c.json"}`),
		Documents:  []frontmatter.Document{{Path: "a.md", Data: map[string]any{"name": "x"}}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"n": "x"}, result.Tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
	if files.Reads("elsewhere/s.json") != 0 || files.Reads("/abs/c.json") != 1 {
		t.Fatalf("inline schema should not be read from disk")
	}
}

func TestRender_FormatOverride(t *testing.T) {
	files := testsupport.NewMemoryFS(map[string]string{
		"s.json": `{"x-template":"c.tmpl","x-template-format":"yaml"}`,
		"c.tmpl": "greeting: \"hi {name}\"\n",
	})
	result, err := New(WithFileSystem(files)).Render(context.Background(), Request{
		SchemaPath: "s.json",
		Documents:  []frontmatter.Document{{Path: "a.md", Data: map[string]any{"name": "ana"}}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"greeting": "hi ana"}, result.Tree); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_ConcurrentJobs(t *testing.T) {
	files := catalogFS()
	c := New(WithFileSystem(files))
	docs := catalogDocs(t)
	ctx := testsupport.Context()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Render(ctx, Request{SchemaPath: "schemas/index.json", Documents: docs})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent render: %v", err)
		}
	}
	for _, path := range files.Paths() {
		if got := files.Reads(path); got != 8 {
			t.Fatalf("%s read %d times, want once per render", path, got)
		}
	}
}

func TestResult_MarshalGolden(t *testing.T) {
	result, err := New(WithFileSystem(catalogFS())).Render(context.Background(), Request{
		SchemaPath: "schemas/index.json",
		Documents:  catalogDocs(t),
		Globals:    map[string]any{"version": "1.0"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	payload, err := result.Marshal(template.FormatJSON)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if testsupport.WriteMaybeGolden(t, "testdata/catalog.golden.json", payload) {
		return
	}
	var got any
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if diff := testsupport.CompareGoldenJSON(t, "testdata/catalog.golden.json", got); diff != "" {
		t.Fatalf("golden mismatch (-want +got):\n%s", diff)
	}

	yamlOut, err := result.Marshal(template.FormatYAML)
	if err != nil {
		t.Fatalf("marshal yaml: %v", err)
	}
	if !strings.Contains(string(yamlOut), "name: alpha") {
		t.Fatalf("yaml output missing item:\n%s", yamlOut)
	}

	if _, err := result.Marshal("toml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
