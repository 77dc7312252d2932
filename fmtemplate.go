// Package fmtemplate renders Markdown front matter through the JSON or YAML
// templates a schema declares with x-template directives.
package fmtemplate

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/goliatone/go-fmtemplate/internal/loader"
	"github.com/goliatone/go-fmtemplate/pkg/coordinator"
	"github.com/goliatone/go-fmtemplate/pkg/frontmatter"
	"github.com/goliatone/go-fmtemplate/pkg/template"
)

// Request aliases coordinator.Request so callers can stay on the root package.
type Request = coordinator.Request

// Result aliases coordinator.Result.
type Result = coordinator.Result

// Document aliases frontmatter.Document.
type Document = frontmatter.Document

// NewCoordinator exposes the coordinator constructor from the top-level
// module.
func NewCoordinator(options ...coordinator.Option) *coordinator.Coordinator {
	return coordinator.New(options...)
}

// Render renders docs through the templates declared by the schema at
// schemaPath. It is the simplest entry point for callers that already hold
// parsed documents.
func Render(ctx context.Context, schemaPath string, docs []Document, options ...coordinator.Option) (Result, error) {
	return coordinator.New(options...).Render(ctx, Request{
		SchemaPath: schemaPath,
		Documents:  docs,
	})
}

// RenderFS reads the schema, templates and documents from files and renders
// them. Options are applied after the file system option, so a WithFileSystem
// option overrides files for schema and templates.
func RenderFS(ctx context.Context, files fs.FS, schemaPath string, docPaths []string, options ...coordinator.Option) (Result, error) {
	seam := loader.FS(files)
	docs, err := ReadDocuments(ctx, seam, docPaths)
	if err != nil {
		return Result{}, err
	}
	opts := append([]coordinator.Option{coordinator.WithFileSystem(seam)}, options...)
	return Render(ctx, schemaPath, docs, opts...)
}

// ReadDocuments parses the front matter of every path in order.
func ReadDocuments(ctx context.Context, files template.FileSystem, paths []string) ([]Document, error) {
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		doc, err := frontmatter.ParseFile(ctx, files, path)
		if err != nil {
			return nil, fmt.Errorf("fmtemplate: read document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
