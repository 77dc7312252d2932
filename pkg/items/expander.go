// Package items detects and expands the "{@items}" list marker.
//
// Expansion is two-phase. The items template is rendered once per element of
// the array data, each time against a scope in which the element's own fields
// shadow the container globals. The collected array is then substituted back
// into the container template: a string that is exactly the marker becomes the
// array itself, a marker embedded in a longer string becomes the array's JSON
// text.
//
// A missing or malformed items template aborts the expansion. An element whose
// variables cannot be resolved is skipped and the remaining elements are still
// rendered.
package items

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-fmtemplate/pkg/directive"
	"github.com/goliatone/go-fmtemplate/pkg/logging"
	"github.com/goliatone/go-fmtemplate/pkg/resolve"
	"github.com/goliatone/go-fmtemplate/pkg/tree"
	"github.com/goliatone/go-fmtemplate/pkg/variable"
)

// Scope variables added to every item.
const (
	IndexVariable = "$index"
	FirstVariable = "$first"
	LastVariable  = "$last"
	// ValueVariable holds the element itself when it is not an object.
	ValueVariable = "value"
)

const inlineTemplateRef = "<inline>"

var (
	// ErrItemsTemplateNotFound reports a declared items template that was not
	// supplied.
	ErrItemsTemplateNotFound = errors.New("items: items template not found")
	// ErrItemsTemplateInvalid reports an items template that is not an object,
	// array or string.
	ErrItemsTemplateInvalid = errors.New("items: items template has invalid format")
)

// ExpansionContextError reports a context that does not meet the expansion
// precondition.
type ExpansionContextError struct {
	Reason string
	Err    error
}

func (e *ExpansionContextError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("items: expansion rejected: %s: %v", e.Reason, e.Err)
	}
	return "items: expansion rejected: " + e.Reason
}

func (e *ExpansionContextError) Unwrap() error {
	return e.Err
}

// ExpansionContext is the input to a single expansion.
type ExpansionContext struct {
	// ArrayData holds the elements to expand.
	ArrayData []any
	// ItemsTemplate is the parsed per-item template.
	ItemsTemplate any
	// ItemsTemplateRef names the items template, typically its resolved path.
	ItemsTemplateRef string
	// ContainerTemplate must contain at least one valid marker.
	ContainerTemplate any
	// Globals are the container-level variables visible to every item.
	Globals map[string]any
	// Directives optionally carries the schema directives; its items template
	// reference is used when ItemsTemplateRef is empty.
	Directives *directive.Set
}

func (c ExpansionContext) itemsTemplateRef() string {
	if c.ItemsTemplateRef != "" {
		return c.ItemsTemplateRef
	}
	if c.Directives != nil {
		return c.Directives.ItemsTemplate
	}
	return ""
}

// HasItemsTemplate reports whether an items template is declared or supplied.
func (c ExpansionContext) HasItemsTemplate() bool {
	return c.itemsTemplateRef() != "" || c.ItemsTemplate != nil
}

// ExpansionResult is the output of a single expansion.
type ExpansionResult struct {
	// Content is the container template with markers substituted.
	Content any
	// Items holds the rendered elements that were not skipped.
	Items []any
	// ExpandedItemCount equals len(ArrayData), skipped elements included.
	ExpandedItemCount int
	// SkippedItems lists the indices of elements that failed to resolve.
	SkippedItems []int
	// PreservedVariables lists the container's own placeholders other than the
	// marker, left for the container-level resolution pass.
	PreservedVariables []string
}

// Option customises an Expander or Processor.
type Option func(*config)

type config struct {
	logger logging.Logger
}

// WithLogger attaches a logger.
func WithLogger(logger logging.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

func newConfig(options []Option) config {
	cfg := config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	cfg.logger = logging.OrNop(cfg.logger)
	return cfg
}

// Expander renders items templates and substitutes the result into the
// container. It is safe for concurrent use.
type Expander struct {
	resolver *resolve.Resolver
	logger   logging.Logger
}

// NewExpander constructs an Expander. A nil resolver selects resolve.New().
func NewExpander(resolver *resolve.Resolver, options ...Option) *Expander {
	if resolver == nil {
		resolver = resolve.New()
	}
	cfg := newConfig(options)
	return &Expander{resolver: resolver, logger: cfg.logger}
}

// Expand runs detection on the container and expands it.
func (e *Expander) Expand(ctx ExpansionContext) (ExpansionResult, error) {
	return e.expand(ctx, Detect(ctx.ContainerTemplate))
}

func (e *Expander) expand(ctx ExpansionContext, detection DetectionResult) (ExpansionResult, error) {
	if !detection.HasItems {
		return ExpansionResult{}, &ExpansionContextError{
			Reason: "container template has no valid list-expansion marker",
			Err:    detection.Err,
		}
	}
	if !detection.Expandable {
		return ExpansionResult{}, &ExpansionContextError{
			Reason: "container template markers cannot be expanded",
			Err:    detection.Err,
		}
	}

	preserved := preservedVariables(ctx.ContainerTemplate)
	if !ctx.HasItemsTemplate() {
		return ExpansionResult{
			Content:            tree.Clone(ctx.ContainerTemplate),
			PreservedVariables: preserved,
		}, nil
	}

	ref := ctx.itemsTemplateRef()
	if ref == "" {
		ref = inlineTemplateRef
	}
	if ctx.ItemsTemplate == nil {
		return ExpansionResult{}, fmt.Errorf("items: items template %q: %w", ref, ErrItemsTemplateNotFound)
	}
	switch kind := tree.KindOf(ctx.ItemsTemplate); kind {
	case tree.KindObject, tree.KindArray, tree.KindString:
	default:
		return ExpansionResult{}, fmt.Errorf("items: items template %q is a %s: %w", ref, kind, ErrItemsTemplateInvalid)
	}

	total := len(ctx.ArrayData)
	rendered := make([]any, 0, total)
	var skipped []int
	for idx, element := range ctx.ArrayData {
		scope := itemScope(ctx.Globals, element, idx, total)
		out, err := e.resolver.Substitute(ctx.ItemsTemplate, resolve.NewContext(scope), resolve.ModeStrict)
		if err != nil {
			e.logger.Warn("skipping item",
				logging.Int("index", idx),
				logging.String("template", ref),
				logging.String("error", err.Error()),
			)
			skipped = append(skipped, idx)
			continue
		}
		rendered = append(rendered, out)
	}

	content, err := substituteMarkers(ctx.ContainerTemplate, rendered)
	if err != nil {
		return ExpansionResult{}, err
	}

	e.logger.Debug("expanded items",
		logging.String("template", ref),
		logging.Int("items", total),
		logging.Int("skipped", len(skipped)),
	)

	return ExpansionResult{
		Content:            content,
		Items:              rendered,
		ExpandedItemCount:  total,
		SkippedItems:       skipped,
		PreservedVariables: preserved,
	}, nil
}

// itemScope merges globals and element fields, element fields winning, and
// adds the position variables.
func itemScope(globals map[string]any, element any, idx, total int) map[string]any {
	scope := make(map[string]any, len(globals)+4)
	for key, value := range globals {
		scope[key] = value
	}
	if obj, ok := tree.Object(element); ok {
		for key, value := range obj {
			scope[key] = value
		}
	} else {
		scope[ValueVariable] = element
	}
	scope[IndexVariable] = idx
	scope[FirstVariable] = idx == 0
	scope[LastVariable] = idx == total-1
	return scope
}

func substituteMarkers(container any, rendered []any) (any, error) {
	var encoded string
	var encodedReady bool

	return tree.Map(container, func(_ tree.Path, value any) (any, bool, error) {
		str, ok := tree.String(value)
		if !ok {
			return nil, false, nil
		}
		if name, whole := variable.Whole(str); whole && variable.IsArrayMarker(name) {
			return tree.Clone(rendered), true, nil
		}
		if !hasValidMarker(str) {
			return str, true, nil
		}
		if !encodedReady {
			text, err := tree.Text(rendered)
			if err != nil {
				return nil, false, err
			}
			encoded, encodedReady = text, true
		}
		return replaceMarkers(str, encoded), true, nil
	})
}

func preservedVariables(container any) []string {
	var out []string
	for _, name := range resolve.Variables(container) {
		if name == variable.ArrayMarker {
			continue
		}
		out = append(out, name)
	}
	return out
}
