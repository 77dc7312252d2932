package transform

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-fmtemplate/pkg/tree"
)

const defaultJoinSeparator = ", "

// Defaults returns a property registry preloaded with the built-in generic
// derivations:
//
//	length  rune count of a string, size of an array or object
//	count   size of an array or object
//	upper   uppercased string
//	lower   lowercased string
//	title   string with each word capitalised
//	trim    string without surrounding whitespace
//	keys    sorted keys of an object
//	first   first element of a non-empty array
//	last    last element of a non-empty array
//	join    array of scalars joined with ", "
//	plain   string with HTML markup removed
func Defaults() *PropertyRegistry {
	registry := NewPropertyRegistry()
	registry.MustRegister("length", Func(length))
	registry.MustRegister("count", Func(count))
	registry.MustRegister("upper", stringFunc(strings.ToUpper))
	registry.MustRegister("lower", stringFunc(strings.ToLower))
	registry.MustRegister("title", stringFunc(titleCase))
	registry.MustRegister("trim", stringFunc(strings.TrimSpace))
	registry.MustRegister("keys", Func(keys))
	registry.MustRegister("first", Func(first))
	registry.MustRegister("last", Func(last))
	registry.MustRegister("join", Join(defaultJoinSeparator))
	registry.MustRegister("plain", stringFunc(stripMarkup))
	return registry
}

func stringFunc(fn func(string) string) Strategy {
	return Func(func(base any) (any, error) {
		str, ok := tree.String(base)
		if !ok {
			return nil, notApplicable(base)
		}
		return fn(str), nil
	})
}

func notApplicable(base any) error {
	return fmt.Errorf("%w (%s)", ErrNotApplicable, tree.KindOf(base))
}

func length(base any) (any, error) {
	if str, ok := tree.String(base); ok {
		return utf8.RuneCountInString(str), nil
	}
	return count(base)
}

func count(base any) (any, error) {
	if arr, ok := tree.Array(base); ok {
		return len(arr), nil
	}
	if obj, ok := tree.Object(base); ok {
		return len(obj), nil
	}
	return nil, notApplicable(base)
}

func keys(base any) (any, error) {
	obj, ok := tree.Object(base)
	if !ok {
		return nil, notApplicable(base)
	}
	names := tree.SortedKeys(obj)
	out := make([]any, len(names))
	for idx, name := range names {
		out[idx] = name
	}
	return out, nil
}

func first(base any) (any, error) {
	arr, ok := tree.Array(base)
	if !ok || len(arr) == 0 {
		return nil, notApplicable(base)
	}
	return arr[0], nil
}

func last(base any) (any, error) {
	arr, ok := tree.Array(base)
	if !ok || len(arr) == 0 {
		return nil, notApplicable(base)
	}
	return arr[len(arr)-1], nil
}

// Join returns a strategy that joins an array of scalars with sep.
func Join(sep string) Strategy {
	return Func(func(base any) (any, error) {
		arr, ok := tree.Array(base)
		if !ok {
			return nil, notApplicable(base)
		}
		parts := make([]string, 0, len(arr))
		for _, entry := range arr {
			if tree.KindOf(entry).IsContainer() {
				return nil, notApplicable(entry)
			}
			text, err := tree.Text(entry)
			if err != nil {
				return nil, err
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, sep), nil
	})
}

func titleCase(value string) string {
	words := strings.Fields(value)
	for idx, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[idx] = string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
	}
	return strings.Join(words, " ")
}

var (
	plainPolicyOnce sync.Once
	plainPolicy     *bluemonday.Policy
)

func stripMarkup(raw string) string {
	plainPolicyOnce.Do(func() {
		plainPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(plainPolicy.Sanitize(raw))
}
