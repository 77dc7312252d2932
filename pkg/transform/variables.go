package transform

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-fmtemplate/pkg/tree"
)

// Compose returns a variable strategy that builds an identifier from named
// fields of an object base, joined with sep. A scalar base is returned in its
// text form so "id.full" also works when "id" is already flat.
//
//	registry.MustRegister("id", "full", transform.Compose("-", "prefix", "number"))
//	// {"id": {"prefix": "REQ", "number": 7}} -> "REQ-7"
func Compose(sep string, fields ...string) Strategy {
	return Func(func(base any) (any, error) {
		obj, ok := tree.Object(base)
		if !ok {
			if tree.KindOf(base).IsContainer() || base == nil {
				return nil, notApplicable(base)
			}
			return tree.Text(base)
		}
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			value, found := obj[field]
			if !found {
				return nil, fmt.Errorf("transform: compose: field %q missing (available: %s)", field, strings.Join(tree.SortedKeys(obj), ", "))
			}
			text, err := tree.Text(value)
			if err != nil {
				return nil, err
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, sep), nil
	})
}

// Constant returns a strategy that ignores the base and yields value.
func Constant(value any) Strategy {
	return Func(func(any) (any, error) {
		return value, nil
	})
}
