// Package coordinator drives a full render: it reads the schema directives,
// loads the container and items templates, collects the front-matter records
// and runs the items processor and resolver over them.
//
// A Coordinator keeps no per-render state; one instance can serve concurrent
// renders.
package coordinator

import (
	"context"
	"fmt"

	"github.com/goliatone/go-fmtemplate/internal/loader"
	"github.com/goliatone/go-fmtemplate/pkg/directive"
	"github.com/goliatone/go-fmtemplate/pkg/frontmatter"
	"github.com/goliatone/go-fmtemplate/pkg/items"
	"github.com/goliatone/go-fmtemplate/pkg/logging"
	"github.com/goliatone/go-fmtemplate/pkg/navigate"
	"github.com/goliatone/go-fmtemplate/pkg/resolve"
	"github.com/goliatone/go-fmtemplate/pkg/template"
	"github.com/goliatone/go-fmtemplate/pkg/tree"
)

// Option customises the coordinator.
type Option func(*Coordinator)

// WithFileSystem sets the seam schemas and templates are read through.
func WithFileSystem(files template.FileSystem) Option {
	return func(c *Coordinator) {
		c.fs = files
	}
}

// WithLoader injects a custom template loader. It defaults to a loader over
// the configured file system.
func WithLoader(l template.Loader) Option {
	return func(c *Coordinator) {
		c.loader = l
	}
}

// WithResolver injects the resolver used for items and container variables.
func WithResolver(resolver *resolve.Resolver) Option {
	return func(c *Coordinator) {
		c.resolver = resolver
	}
}

// WithLogger attaches a logger shared with the default collaborators.
func WithLogger(logger logging.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMode sets how unresolved container variables are handled. Items always
// resolve strictly.
func WithMode(mode resolve.Mode) Option {
	return func(c *Coordinator) {
		c.mode = mode
	}
}

// Coordinator renders front-matter documents through schema-declared
// templates.
type Coordinator struct {
	fs        template.FileSystem
	loader    template.Loader
	resolver  *resolve.Resolver
	processor *items.Processor
	logger    logging.Logger
	mode      resolve.Mode
}

// New constructs a Coordinator. Without options it reads from the OS file
// system, resolves with resolve.New() and renders leniently.
func New(options ...Option) *Coordinator {
	c := &Coordinator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	if c.fs == nil {
		c.fs = loader.OS()
	}
	if c.loader == nil {
		c.loader = loader.New(c.fs, loader.WithLogger(c.logger))
	}
	if c.resolver == nil {
		c.resolver = resolve.New(resolve.WithLogger(c.logger))
	}
	c.processor = items.NewProcessor(
		items.NewExpander(c.resolver, items.WithLogger(c.logger)),
		items.WithLogger(c.logger),
	)
	return c
}

// Request describes one render job.
type Request struct {
	// SchemaPath locates the schema. Relative template references resolve
	// against its directory.
	SchemaPath string
	// Schema optionally supplies the schema bytes, skipping the read of
	// SchemaPath.
	Schema []byte
	// Documents are the parsed input documents.
	Documents []frontmatter.Document
	// Globals are extra container-level variables. Front-matter fields take
	// precedence over them.
	Globals map[string]any
}

type templates struct {
	container     template.Template
	items         template.Template
	hasItems      bool
	itemsTemplate string
}

// Render executes the job described by req.
func (c *Coordinator) Render(ctx context.Context, req Request) (Result, error) {
	set, err := c.directives(ctx, req)
	if err != nil {
		return Result{}, err
	}

	tmpls, err := c.loadTemplates(ctx, set)
	if err != nil {
		return Result{}, err
	}

	docs, filtered := filterDocuments(req.Documents)
	for _, path := range filtered {
		c.logger.Debug("skipping document without front matter", logging.String("document", path))
	}

	result := Result{Directives: set, Filtered: filtered, Rendered: len(docs)}
	if set.Aggregates() {
		result.Aggregated = true
		result.Tree, result.Outcome, err = c.renderAggregate(set, tmpls, docs, req.Globals)
	} else {
		result.Tree, err = c.renderEach(tmpls, docs, req.Globals)
	}
	if err != nil {
		return Result{}, err
	}

	c.logger.Info("rendered",
		logging.String("schema", set.SchemaPath),
		logging.String("container", tmpls.container.Path),
		logging.Int("documents", len(docs)),
		logging.Int("filtered", len(filtered)),
		logging.Bool("aggregated", result.Aggregated),
	)
	return result, nil
}

func (c *Coordinator) directives(ctx context.Context, req Request) (directive.Set, error) {
	raw := req.Schema
	if raw == nil {
		if req.SchemaPath == "" {
			return directive.Set{}, newError(KindTemplatePath, "load schema", template.ErrInvalidPath, nil)
		}
		select {
		case <-ctx.Done():
			return directive.Set{}, newError(KindTemplateLoad, "load schema", ctx.Err(), map[string]any{"schema": req.SchemaPath})
		default:
		}
		if !c.fs.Exists(req.SchemaPath) {
			return directive.Set{}, newError(KindTemplateLoad, "load schema", template.ErrNotFound, map[string]any{"schema": req.SchemaPath})
		}
		text, err := c.fs.ReadTextFile(req.SchemaPath)
		if err != nil {
			return directive.Set{}, newError(KindTemplateLoad, "load schema", err, map[string]any{"schema": req.SchemaPath})
		}
		raw = []byte(text)
	}

	set, err := directive.Parse(raw, req.SchemaPath)
	if err != nil {
		return directive.Set{}, newError(KindTemplateParse, "parse schema", err, map[string]any{"schema": req.SchemaPath})
	}
	if set.ContainerTemplate == "" {
		return directive.Set{}, newError(KindMissingEntity, "read directives",
			fmt.Errorf("schema declares no %s", directive.ExtTemplate),
			map[string]any{"schema": req.SchemaPath},
		)
	}
	return set, nil
}

func (c *Coordinator) loadTemplates(ctx context.Context, set directive.Set) (templates, error) {
	var out templates
	format := template.Format(set.Format)

	container, err := c.load(ctx, "load container template", set.SchemaPath, set.ContainerTemplate, format)
	if err != nil {
		return templates{}, err
	}
	out.container = container

	if set.HasItemsTemplate() {
		item, err := c.load(ctx, "load items template", set.SchemaPath, set.ItemsTemplate, format)
		if err != nil {
			return templates{}, err
		}
		out.items = item
		out.hasItems = true
		out.itemsTemplate = item.Path
	}
	return out, nil
}

func (c *Coordinator) load(ctx context.Context, op, schemaPath, ref string, format template.Format) (template.Template, error) {
	path, err := template.ResolvePath(schemaPath, ref)
	if err != nil {
		return template.Template{}, newError(KindTemplatePath, op, err, map[string]any{"schema": schemaPath, "ref": ref})
	}
	tmpl, err := c.loader.Load(ctx, path, format)
	if err != nil {
		return template.Template{}, newError(loadKind(err), op, err, map[string]any{"path": path})
	}
	return tmpl, nil
}

func (c *Coordinator) renderAggregate(set directive.Set, tmpls templates, docs []frontmatter.Document, globals map[string]any) (any, items.Outcome, error) {
	arrayData := collect(set.ArrayProperty, docs)

	scope := cloneObject(globals)
	if set.ArrayProperty != "" {
		bind(scope, set.ArrayProperty, arrayData)
	}

	ctx := items.ExpansionContext{
		ArrayData:         arrayData,
		ContainerTemplate: tmpls.container.Tree,
		Globals:           scope,
		Directives:        &set,
	}
	if tmpls.hasItems {
		ctx.ItemsTemplate = tmpls.items.Tree
		ctx.ItemsTemplateRef = tmpls.itemsTemplate
	}

	outcome, err := c.processor.Process(ctx)
	if err != nil {
		return nil, items.Outcome{}, newError(KindRender, "expand items", err, map[string]any{
			"container": tmpls.container.Path,
			"items":     tmpls.itemsTemplate,
		})
	}

	// The container pass runs over the template, not outcome.Content, so
	// rendered item values are never scanned for placeholders again. Markers
	// stay as written unless the items were expanded.
	containerCtx := resolve.NewContext(scope).DeferArray()
	if outcome.State == items.StateExpanded {
		containerCtx = containerCtx.WithArray(outcome.Expansion.Items)
	}
	rendered, err := c.resolver.Substitute(tmpls.container.Tree, containerCtx, c.mode)
	if err != nil {
		return nil, items.Outcome{}, newError(KindRender, "resolve container", err, map[string]any{
			"container": tmpls.container.Path,
		})
	}
	c.logger.Debug("aggregate render",
		logging.String("state", outcome.State.String()),
		logging.Int("items", len(arrayData)),
		logging.Int("skipped", len(outcome.Expansion.SkippedItems)),
	)
	return rendered, outcome, nil
}

func (c *Coordinator) renderEach(tmpls templates, docs []frontmatter.Document, globals map[string]any) (any, error) {
	if len(docs) == 0 {
		return c.renderOne(tmpls, "", globals)
	}
	out := make([]any, 0, len(docs))
	for _, doc := range docs {
		scope := cloneObject(globals)
		for key, value := range doc.Data {
			scope[key] = value
		}
		rendered, err := c.renderOne(tmpls, doc.Path, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

func (c *Coordinator) renderOne(tmpls templates, document string, scope map[string]any) (any, error) {
	rendered, err := c.resolver.Substitute(tmpls.container.Tree, resolve.NewContext(scope), c.mode)
	if err != nil {
		return nil, newError(KindRender, "resolve container", err, map[string]any{
			"container": tmpls.container.Path,
			"document":  document,
		})
	}
	return rendered, nil
}

func filterDocuments(docs []frontmatter.Document) ([]frontmatter.Document, []string) {
	kept := make([]frontmatter.Document, 0, len(docs))
	var filtered []string
	for _, doc := range docs {
		if doc.Empty() {
			filtered = append(filtered, doc.Path)
			continue
		}
		kept = append(kept, doc)
	}
	return kept, filtered
}

// collect builds the array data. A document whose front matter holds an array
// at property contributes its elements; any other document contributes its
// whole record.
func collect(property string, docs []frontmatter.Document) []any {
	out := make([]any, 0, len(docs))
	for _, doc := range docs {
		if property != "" {
			if value, err := navigate.Path(doc.Data, property); err == nil {
				if list, ok := tree.Array(value); ok {
					for _, entry := range list {
						out = append(out, tree.Clone(entry))
					}
					continue
				}
			}
		}
		out = append(out, tree.Clone(doc.Data))
	}
	return out
}
