// Package tree models template and front-matter payloads as JSON-like values.
//
// Values use the shapes produced by encoding/json and gopkg.in/yaml.v3:
// map[string]any for objects, []any for arrays, and string, float64/int,
// bool or nil for scalars. Type inspection is confined to this package; the
// rest of the module works through Kind, Walk and Map.
package tree

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind enumerates the JSON value categories.
type Kind uint8

const (
	KindNull Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindBool
	KindUnknown
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// IsContainer reports whether the kind holds child values.
func (k Kind) IsContainer() bool {
	return k == KindObject || k == KindArray
}

// KindOf classifies a value. Values that are not JSON-like report KindUnknown.
func KindOf(value any) Kind {
	switch value.(type) {
	case nil:
		return KindNull
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	case string:
		return KindString
	case bool:
		return KindBool
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return KindNumber
	default:
		return KindUnknown
	}
}

// Object returns the value as an object when it is one.
func Object(value any) (map[string]any, bool) {
	obj, ok := value.(map[string]any)
	return obj, ok
}

// Array returns the value as an array when it is one.
func Array(value any) ([]any, bool) {
	arr, ok := value.([]any)
	return arr, ok
}

// String returns the value as a string when it is one.
func String(value any) (string, bool) {
	str, ok := value.(string)
	return str, ok
}

// Normalize converts decoder output into canonical shapes: maps with
// non-string keys (as yaml.v3 emits for mappings like `1: a`) become
// map[string]any, typed slices and maps become []any / map[string]any.
func Normalize(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[key] = Normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[fmt.Sprint(key)] = Normalize(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[key] = val
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for idx, val := range typed {
			out[idx] = Normalize(val)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for idx, val := range typed {
			out[idx] = Normalize(val)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for idx, val := range typed {
			out[idx] = val
		}
		return out
	default:
		return typed
	}
}

// Clone deep-copies objects and arrays. Scalars are returned as-is.
func Clone(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[key] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for idx, val := range typed {
			out[idx] = Clone(val)
		}
		return out
	default:
		return typed
	}
}

// SortedKeys returns the object's keys in lexical order.
func SortedKeys(obj map[string]any) []string {
	if len(obj) == 0 {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Path addresses a node inside a tree. Array positions are decimal indices.
type Path []string

// String joins the segments with dots. The root path renders as "$".
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	return strings.Join(p, ".")
}

// Child returns a new path extended with segment, leaving p untouched.
func (p Path) Child(segment string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, segment)
}

// Equal reports whether both paths address the same node.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for idx := range p {
		if p[idx] != other[idx] {
			return false
		}
	}
	return true
}

// IsAncestorOf reports whether p is a strict prefix of other.
func (p Path) IsAncestorOf(other Path) bool {
	if len(p) >= len(other) {
		return false
	}
	for idx := range p {
		if p[idx] != other[idx] {
			return false
		}
	}
	return true
}

// WalkFunc is invoked for every node in pre-order.
type WalkFunc func(path Path, value any) error

// Walk visits value and its descendants in pre-order. Object keys are visited
// in lexical order so results are deterministic.
func Walk(value any, fn WalkFunc) error {
	return walk(nil, value, fn)
}

func walk(path Path, value any, fn WalkFunc) error {
	if err := fn(path, value); err != nil {
		return err
	}
	switch typed := value.(type) {
	case map[string]any:
		for _, key := range SortedKeys(typed) {
			if err := walk(path.Child(key), typed[key], fn); err != nil {
				return err
			}
		}
	case []any:
		for idx, entry := range typed {
			if err := walk(path.Child(strconv.Itoa(idx)), entry, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// MapFunc returns a replacement for the node at path. When handled is false
// Map descends into containers and keeps scalars unchanged.
type MapFunc func(path Path, value any) (replacement any, handled bool, err error)

// Map builds a new tree by applying fn to every node in pre-order. The input
// tree is never modified.
func Map(value any, fn MapFunc) (any, error) {
	return mapNode(nil, value, fn)
}

func mapNode(path Path, value any, fn MapFunc) (any, error) {
	replacement, handled, err := fn(path, value)
	if err != nil {
		return nil, err
	}
	if handled {
		return replacement, nil
	}
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for _, key := range SortedKeys(typed) {
			mapped, err := mapNode(path.Child(key), typed[key], fn)
			if err != nil {
				return nil, err
			}
			out[key] = mapped
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for idx, entry := range typed {
			mapped, err := mapNode(path.Child(strconv.Itoa(idx)), entry, fn)
			if err != nil {
				return nil, err
			}
			out[idx] = mapped
		}
		return out, nil
	default:
		return typed, nil
	}
}
