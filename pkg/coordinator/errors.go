package coordinator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-fmtemplate/pkg/template"
)

// Kind classifies a ProcessingError.
type Kind uint8

const (
	KindTemplateLoad Kind = iota + 1
	KindTemplateParse
	KindTemplatePath
	KindMissingEntity
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindTemplateLoad:
		return "template load"
	case KindTemplateParse:
		return "template parse"
	case KindTemplatePath:
		return "template path"
	case KindMissingEntity:
		return "missing entity"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

// ProcessingError wraps every coordinator failure with the operation that
// failed and the values needed to diagnose it.
type ProcessingError struct {
	Kind    Kind
	Op      string
	Context map[string]any
	Err     error
}

func (e *ProcessingError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "coordinator: %s: %s", e.Op, e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for key := range e.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for idx, key := range keys {
			if idx > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", key, e.Context[key])
		}
		b.WriteString(")")
	}
	return b.String()
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a ProcessingError of the given kind.
func IsKind(err error, kind Kind) bool {
	var procErr *ProcessingError
	return errors.As(err, &procErr) && procErr.Kind == kind
}

func newError(kind Kind, op string, err error, context map[string]any) *ProcessingError {
	return &ProcessingError{Kind: kind, Op: op, Context: context, Err: err}
}

// loadKind maps loader failures onto error kinds.
func loadKind(err error) Kind {
	var parseErr *template.ParseError
	switch {
	case errors.As(err, &parseErr):
		return KindTemplateParse
	case errors.Is(err, template.ErrInvalidPath), errors.Is(err, template.ErrUnknownFormat):
		return KindTemplatePath
	default:
		return KindTemplateLoad
	}
}
