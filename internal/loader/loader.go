// Package loader implements template.Loader over the OS and fs.FS file
// systems.
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-fmtemplate/pkg/logging"
	"github.com/goliatone/go-fmtemplate/pkg/template"
)

// Loader reads template files through a FileSystem and parses them.
type Loader struct {
	fs     template.FileSystem
	logger logging.Logger
}

// Ensure the implementation satisfies the public interface.
var _ template.Loader = (*Loader)(nil)

// Option customises a Loader.
type Option func(*Loader)

// WithLogger attaches a logger.
func WithLogger(logger logging.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New constructs a Loader. A nil file system selects OS().
func New(files template.FileSystem, options ...Option) *Loader {
	if files == nil {
		files = OS()
	}
	l := &Loader{fs: files}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	l.logger = logging.OrNop(l.logger)
	return l
}

// FileSystem exposes the underlying seam.
func (l *Loader) FileSystem() template.FileSystem {
	return l.fs
}

// Load reads and parses path.
func (l *Loader) Load(ctx context.Context, path string, override template.Format) (template.Template, error) {
	if path == "" {
		return template.Template{}, fmt.Errorf("loader: template path is required: %w", template.ErrInvalidPath)
	}
	select {
	case <-ctx.Done():
		return template.Template{}, ctx.Err()
	default:
	}

	format, err := template.DetectFormat(path, override)
	if err != nil {
		return template.Template{}, err
	}
	if !l.fs.Exists(path) {
		return template.Template{}, fmt.Errorf("loader: %s: %w", path, template.ErrNotFound)
	}

	text, err := l.fs.ReadTextFile(path)
	if err != nil {
		return template.Template{}, err
	}

	tree, err := template.Parse([]byte(text), format)
	if err != nil {
		var parseErr *template.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		return template.Template{}, err
	}

	l.logger.Debug("loaded template",
		logging.String("path", path),
		logging.String("format", string(format)),
	)
	return template.Template{Path: path, Format: format, Tree: tree}, nil
}
