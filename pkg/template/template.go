// Package template models parsed template files and the file-system seam the
// coordinator loads them through.
package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fmtemplate/pkg/tree"
)

// Format identifies a template encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrNotFound reports a template path that does not exist.
	ErrNotFound = errors.New("template: file not found")
	// ErrInvalidPath reports an empty or otherwise unusable template path.
	ErrInvalidPath = errors.New("template: invalid path")
	// ErrUnknownFormat reports a path whose extension maps to no format.
	ErrUnknownFormat = errors.New("template: unknown format")
)

// FileSystem is the read-only seam templates are loaded through.
type FileSystem interface {
	ReadTextFile(path string) (string, error)
	Exists(path string) bool
}

// Loader loads and parses template files.
type Loader interface {
	// Load reads path and parses it. A non-empty override takes precedence
	// over the file extension.
	Load(ctx context.Context, path string, override Format) (Template, error)
}

// Template is a parsed template file.
type Template struct {
	Path   string
	Format Format
	Tree   any
}

// ParseError reports a template that could not be decoded.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("template: parse %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("template: parse %s %s: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseFormat canonicalises a format name. The empty string returns "".
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// DetectFormat returns override when set, otherwise the format implied by the
// path extension.
func DetectFormat(path string, override Format) (Format, error) {
	if override != "" {
		return ParseFormat(string(override))
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: cannot infer from %q", ErrUnknownFormat, path)
	}
}

// ResolvePath resolves ref against the directory of base. Absolute refs are
// returned cleaned.
func ResolvePath(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidPath)
	}
	if strings.ContainsRune(ref, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, ref)
	}
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref), nil
	}
	dir := "."
	if base != "" {
		dir = filepath.Dir(base)
	}
	return filepath.Join(dir, ref), nil
}

// Parse decodes data into a template tree.
func Parse(data []byte, format Format) (any, error) {
	switch format {
	case FormatJSON:
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, &ParseError{Format: format, Err: err}
		}
		return out, nil
	case FormatYAML:
		var out any
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, &ParseError{Format: format, Err: err}
		}
		return tree.Normalize(out), nil
	default:
		return nil, &ParseError{Format: format, Err: ErrUnknownFormat}
	}
}
