package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-fmtemplate/pkg/directive"
	"github.com/goliatone/go-fmtemplate/pkg/items"
	"github.com/goliatone/go-fmtemplate/pkg/template"
)

const maxDepth = 32

var directivePrefixes = []string{"x-template", "x-frontmatter"}

type violation struct {
	file     string
	location string
	message  string
}

func lintFile(ctx context.Context, l template.Loader, path string) ([]violation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	schema, err := directive.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	parts := 0
	result := lintSchema(path, nil, schema, &parts, 0)
	if parts > 1 {
		result = append(result, violation{
			file:     path,
			location: formatLocation(nil),
			message:  fmt.Sprintf("%s is declared %d times; only the first property in lexical order is used", directive.ExtFrontmatterPart, parts),
		})
	}

	set, err := directive.Parse(raw, path)
	if err != nil {
		return append(result, violation{file: path, location: formatLocation(nil), message: err.Error()}), nil
	}
	if set.ContainerTemplate == "" {
		return append(result, violation{
			file:     path,
			location: formatLocation(nil),
			message:  fmt.Sprintf("missing %s", directive.ExtTemplate),
		}), nil
	}

	container, v := loadTemplate(ctx, l, set, directive.ExtTemplate, set.ContainerTemplate)
	result = append(result, v...)

	var containerMarkers bool
	if container != nil {
		detection := items.Detect(container.Tree)
		containerMarkers = detection.HasItems
		for _, pattern := range detection.Patterns {
			if pattern.Valid {
				continue
			}
			result = append(result, violation{
				file:     path,
				location: formatLocation([]string{directive.ExtTemplate, pattern.Path.String()}),
				message:  fmt.Sprintf("list marker is glued to surrounding text (%q)", pattern.Context),
			})
		}
		if detection.HasItems && detection.Err != nil {
			result = append(result, violation{
				file:     path,
				location: formatLocation([]string{directive.ExtTemplate}),
				message:  detection.Err.Error(),
			})
		}
		if detection.HasItems && !set.Aggregates() {
			result = append(result, violation{
				file:     path,
				location: formatLocation([]string{directive.ExtTemplate}),
				message:  fmt.Sprintf("list marker is never expanded: declare %s or %s", directive.ExtTemplateItems, directive.ExtFrontmatterPart),
			})
		}
	}

	if set.HasItemsTemplate() {
		item, v := loadTemplate(ctx, l, set, directive.ExtTemplateItems, set.ItemsTemplate)
		result = append(result, v...)
		if item != nil && len(items.Detect(item.Tree).Patterns) > 0 {
			result = append(result, violation{
				file:     path,
				location: formatLocation([]string{directive.ExtTemplateItems}),
				message:  "items template must not contain the list marker",
			})
		}
		if container != nil && !containerMarkers {
			result = append(result, violation{
				file:     path,
				location: formatLocation([]string{directive.ExtTemplateItems}),
				message:  "items template declared but the container has no list marker",
			})
		}
	}

	return result, nil
}

func loadTemplate(ctx context.Context, l template.Loader, set directive.Set, key, ref string) (*template.Template, []violation) {
	resolved, err := template.ResolvePath(set.SchemaPath, ref)
	if err != nil {
		return nil, []violation{{file: set.SchemaPath, location: formatLocation([]string{key}), message: err.Error()}}
	}
	tmpl, err := l.Load(ctx, resolved, template.Format(set.Format))
	if err != nil {
		return nil, []violation{{file: set.SchemaPath, location: formatLocation([]string{key}), message: err.Error()}}
	}
	return &tmpl, nil
}

func lintSchema(file string, path []string, schema *openapi3.Schema, parts *int, depth int) []violation {
	if schema == nil || depth > maxDepth {
		return nil
	}
	result := lintExtensions(file, path, schema.Extensions, parts)

	if len(schema.Properties) > 0 {
		keys := make([]string, 0, len(schema.Properties))
		for key := range schema.Properties {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			ref := schema.Properties[key]
			if ref == nil {
				continue
			}
			result = append(result, lintSchema(file, appendPath(path, "properties."+key), ref.Value, parts, depth+1)...)
		}
	}

	if schema.Items != nil {
		result = append(result, lintSchema(file, appendPath(path, "items"), schema.Items.Value, parts, depth+1)...)
	}

	return result
}

func lintExtensions(file string, path []string, extensions map[string]any, parts *int) []violation {
	if len(extensions) == 0 {
		return nil
	}

	sortedKeys := make([]string, 0, len(extensions))
	for key := range extensions {
		sortedKeys = append(sortedKeys, key)
	}
	sort.Strings(sortedKeys)

	var result []violation
	for _, key := range sortedKeys {
		if !hasDirectivePrefix(key) {
			continue
		}
		value := extensions[key]
		location := formatLocation(appendPath(path, key))

		if !directive.IsExtension(key) {
			result = append(result, violation{
				file:     file,
				location: location,
				message:  fmt.Sprintf("unsupported directive %q (supported: %s)", key, strings.Join(directive.Extensions(), ", ")),
			})
			continue
		}

		switch key {
		case directive.ExtFrontmatterPart:
			flag, ok := value.(bool)
			if !ok {
				result = append(result, violation{file: file, location: location, message: fmt.Sprintf("value must be a boolean (got %T)", value)})
				continue
			}
			if flag {
				*parts++
			}
		case directive.ExtTemplate, directive.ExtTemplateFormat:
			if len(path) > 0 {
				result = append(result, violation{file: file, location: location, message: "directive is only read at the schema root"})
				continue
			}
			str, ok := value.(string)
			if !ok {
				result = append(result, violation{file: file, location: location, message: fmt.Sprintf("value must be a string (got %T)", value)})
				continue
			}
			if key == directive.ExtTemplateFormat {
				if _, err := directive.NormalizeFormat(str); err != nil {
					result = append(result, violation{file: file, location: location, message: err.Error()})
				}
			}
		case directive.ExtTemplateItems:
			if _, ok := value.(string); !ok {
				result = append(result, violation{file: file, location: location, message: fmt.Sprintf("value must be a string (got %T)", value)})
			}
		}
	}
	return result
}

func hasDirectivePrefix(key string) bool {
	for _, prefix := range directivePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func appendPath(path []string, segment string) []string {
	next := append([]string(nil), path...)
	next = append(next, segment)
	return next
}

func formatLocation(path []string) string {
	if len(path) == 0 {
		return "$"
	}
	return strings.Join(path, " > ")
}
