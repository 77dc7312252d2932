package coordinator

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fmtemplate/pkg/directive"
	"github.com/goliatone/go-fmtemplate/pkg/items"
	"github.com/goliatone/go-fmtemplate/pkg/template"
)

// Result is the output of a render.
type Result struct {
	// Tree is the rendered output. Per-document renders of more than one
	// document produce an array.
	Tree any
	// Directives is the directive set read from the schema.
	Directives directive.Set
	// Aggregated is true when documents were collected into one array.
	Aggregated bool
	// Outcome is the items processor result for aggregated renders.
	Outcome items.Outcome
	// Rendered counts the documents that contributed to Tree.
	Rendered int
	// Filtered lists the documents dropped for having empty front matter.
	Filtered []string
}

// Marshal serialises Tree. An empty format selects JSON.
func (r Result) Marshal(format template.Format) ([]byte, error) {
	switch format {
	case "", template.FormatJSON:
		out, err := json.MarshalIndent(r.Tree, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("coordinator: encode json: %w", err)
		}
		return append(out, '\n'), nil
	case template.FormatYAML:
		out, err := yaml.Marshal(r.Tree)
		if err != nil {
			return nil, fmt.Errorf("coordinator: encode yaml: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("coordinator: unsupported output format %q", format)
	}
}
