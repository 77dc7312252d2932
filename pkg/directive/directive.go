// Package directive reads the template directives a JSON Schema carries as
// vendor extensions:
//
//	x-template          container template path
//	x-template-items    items template path
//	x-template-format   "json" or "yaml", overrides the file extension
//	x-frontmatter-part  true on the array property that collects documents
//
// Schemas are decoded with kin-openapi so extension handling matches the
// OpenAPI tooling the rest of the stack uses. Both JSON and YAML schemas are
// accepted.
package directive

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fmtemplate/pkg/tree"
)

// Extension keys.
const (
	ExtTemplate        = "x-template"
	ExtTemplateItems   = "x-template-items"
	ExtTemplateFormat  = "x-template-format"
	ExtFrontmatterPart = "x-frontmatter-part"
)

const maxSchemaDepth = 32

// Extensions lists the recognised directive keys in lexical order.
func Extensions() []string {
	return []string{ExtFrontmatterPart, ExtTemplate, ExtTemplateFormat, ExtTemplateItems}
}

// IsExtension reports whether key is a recognised directive key.
func IsExtension(key string) bool {
	switch key {
	case ExtTemplate, ExtTemplateItems, ExtTemplateFormat, ExtFrontmatterPart:
		return true
	default:
		return false
	}
}

// Set is the directive set declared by one schema.
type Set struct {
	// SchemaPath is the location the schema was read from; relative template
	// paths resolve against its directory.
	SchemaPath string
	// ContainerTemplate is the x-template value.
	ContainerTemplate string
	// ItemsTemplate is the x-template-items value.
	ItemsTemplate string
	// Format is the normalised x-template-format value ("json", "yaml" or "").
	Format string
	// ArrayProperty is the dotted path of the x-frontmatter-part property.
	ArrayProperty string
}

// HasItemsTemplate reports whether an items template is declared.
func (s Set) HasItemsTemplate() bool {
	return s.ItemsTemplate != ""
}

// Aggregates reports whether documents are collected into one array rather
// than rendered one by one.
func (s Set) Aggregates() bool {
	return s.ItemsTemplate != "" || s.ArrayProperty != ""
}

// Parse decodes raw (JSON or YAML) and extracts the directive set. location is
// recorded as SchemaPath.
func Parse(raw []byte, location string) (Set, error) {
	schema, err := Decode(raw)
	if err != nil {
		return Set{}, fmt.Errorf("directive: decode schema %s: %w", location, err)
	}

	set := Set{SchemaPath: location}
	if set.ContainerTemplate, err = stringExtension(schema.Extensions, ExtTemplate); err != nil {
		return Set{}, err
	}
	if set.ItemsTemplate, err = stringExtension(schema.Extensions, ExtTemplateItems); err != nil {
		return Set{}, err
	}
	format, err := stringExtension(schema.Extensions, ExtTemplateFormat)
	if err != nil {
		return Set{}, err
	}
	if set.Format, err = NormalizeFormat(format); err != nil {
		return Set{}, err
	}

	path, part := findPart(schema, nil, 0)
	if part != nil {
		set.ArrayProperty = strings.Join(path, ".")
		if set.ItemsTemplate == "" {
			if set.ItemsTemplate, err = partItemsTemplate(part); err != nil {
				return Set{}, err
			}
		}
	}
	return set, nil
}

// NormalizeFormat canonicalises a format name. The empty string is allowed and
// means "infer from the file extension".
func NormalizeFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", nil
	case "json":
		return "json", nil
	case "yaml", "yml":
		return "yaml", nil
	default:
		return "", fmt.Errorf("directive: unsupported %s %q", ExtTemplateFormat, raw)
	}
}

// Decode parses a JSON or YAML schema document. YAML input is converted to
// JSON before decoding.
func Decode(raw []byte) (*openapi3.Schema, error) {
	payload := raw
	if !json.Valid(raw) {
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON or YAML: %w", err)
		}
		converted, err := json.Marshal(tree.Normalize(doc))
		if err != nil {
			return nil, err
		}
		payload = converted
	}

	schema := &openapi3.Schema{}
	if err := schema.UnmarshalJSON(payload); err != nil {
		return nil, err
	}
	return schema, nil
}

func stringExtension(ext map[string]any, key string) (string, error) {
	raw, ok := ext[key]
	if !ok || raw == nil {
		return "", nil
	}
	str, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("directive: %s must be a string, got %s", key, tree.KindOf(raw))
	}
	return strings.TrimSpace(str), nil
}

func flagExtension(ext map[string]any, key string) bool {
	switch typed := ext[key].(type) {
	case bool:
		return typed
	case string:
		return strings.EqualFold(strings.TrimSpace(typed), "true")
	default:
		return false
	}
}

// findPart returns the first property flagged with x-frontmatter-part,
// visiting properties in lexical order, depth first.
func findPart(schema *openapi3.Schema, prefix []string, depth int) ([]string, *openapi3.Schema) {
	if schema == nil || depth > maxSchemaDepth {
		return nil, nil
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		path := append(append([]string(nil), prefix...), name)
		if flagExtension(ref.Value.Extensions, ExtFrontmatterPart) {
			return path, ref.Value
		}
		if found, part := findPart(ref.Value, path, depth+1); part != nil {
			return found, part
		}
	}
	return nil, nil
}

// partItemsTemplate reads x-template-items from the flagged property or its
// items schema.
func partItemsTemplate(part *openapi3.Schema) (string, error) {
	ref, err := stringExtension(part.Extensions, ExtTemplateItems)
	if err != nil || ref != "" {
		return ref, err
	}
	if part.Items != nil && part.Items.Value != nil {
		return stringExtension(part.Items.Value.Extensions, ExtTemplateItems)
	}
	return "", nil
}
