// Package frontmatter splits Markdown documents into a YAML front-matter
// record and a body.
package frontmatter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fmtemplate/pkg/template"
	"github.com/goliatone/go-fmtemplate/pkg/tree"
)

const fence = "---"

// Document is one parsed Markdown file.
type Document struct {
	Path string
	Data map[string]any
	Body string
}

// Empty reports whether the document carries no front-matter fields.
func (d Document) Empty() bool {
	return len(d.Data) == 0
}

// Parse extracts the front matter of content. A document without an opening
// fence has an empty record and its whole content as body.
func Parse(path, content string) (Document, error) {
	doc := Document{Path: path}
	content = strings.TrimPrefix(content, "\ufeff")

	block, body, found, err := split(content)
	if err != nil {
		return Document{}, fmt.Errorf("frontmatter: %s: %w", path, err)
	}
	if !found {
		doc.Body = content
		return doc, nil
	}
	doc.Body = body

	if strings.TrimSpace(block) == "" {
		return doc, nil
	}
	var raw any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil {
		return Document{}, fmt.Errorf("frontmatter: %s: decode yaml: %w", path, err)
	}
	switch normalized := tree.Normalize(raw).(type) {
	case nil:
	case map[string]any:
		doc.Data = normalized
	default:
		return Document{}, fmt.Errorf("frontmatter: %s: front matter must be a mapping, got %s", path, tree.KindOf(normalized))
	}
	return doc, nil
}

// ParseFile reads path through files and parses it.
func ParseFile(ctx context.Context, files template.FileSystem, path string) (Document, error) {
	select {
	case <-ctx.Done():
		return Document{}, ctx.Err()
	default:
	}
	content, err := files.ReadTextFile(path)
	if err != nil {
		return Document{}, err
	}
	return Parse(path, content)
}

// Records returns the front-matter records of the non-empty documents, in
// order.
func Records(docs []Document) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		if doc.Empty() {
			continue
		}
		out = append(out, doc.Data)
	}
	return out
}

// split returns the text between the opening and closing fences and the text
// after the closing fence.
func split(content string) (block, body string, found bool, err error) {
	first, rest, _ := strings.Cut(content, "\n")
	if strings.TrimRight(first, " \t\r") != fence {
		return "", "", false, nil
	}

	var lines []string
	for rest != "" {
		line, next, more := strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t\r") == fence {
			return strings.Join(lines, "\n"), next, true, nil
		}
		lines = append(lines, strings.TrimRight(line, "\r"))
		if !more {
			break
		}
		rest = next
	}
	return "", "", false, errors.New("unterminated front matter")
}
