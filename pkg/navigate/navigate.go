// Package navigate walks dotted paths through JSON-like values.
package navigate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-fmtemplate/pkg/tree"
)

// lengthSegment returns an array's length instead of an element.
const lengthSegment = "length"

// Reason describes why navigation stopped.
type Reason uint8

const (
	NotAnObject Reason = iota + 1
	KeyNotFound
	IndexOutOfRange
)

func (r Reason) String() string {
	switch r {
	case NotAnObject:
		return "not an object"
	case KeyNotFound:
		return "key not found"
	case IndexOutOfRange:
		return "index out of range"
	default:
		return "unknown"
	}
}

// Error reports the segment where navigation failed. Available lists the keys
// present on the object at that point, when the value was an object.
type Error struct {
	Path      string
	Segment   string
	Index     int
	Reason    Reason
	Available []string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("navigate: %s at segment %d (%q) of path %q", e.Reason, e.Index, e.Segment, e.Path)
	if len(e.Available) > 0 {
		msg += " (available: " + strings.Join(e.Available, ", ") + ")"
	}
	return msg
}

// Path resolves a dotted path against root.
func Path(root any, path string) (any, error) {
	return Segments(root, strings.Split(path, "."))
}

// Segments resolves pre-split path segments against root. Objects are indexed
// by key; arrays accept a decimal index or the literal "length".
func Segments(root any, segments []string) (any, error) {
	current := root
	for idx, segment := range segments {
		next, err := step(current, segment)
		if err != nil {
			err.Path = strings.Join(segments, ".")
			err.Index = idx
			return nil, err
		}
		current = next
	}
	return current, nil
}

func step(current any, segment string) (any, *Error) {
	if obj, ok := tree.Object(current); ok {
		value, found := obj[segment]
		if !found {
			return nil, &Error{Segment: segment, Reason: KeyNotFound, Available: tree.SortedKeys(obj)}
		}
		return value, nil
	}

	arr, ok := tree.Array(current)
	if !ok {
		return nil, &Error{Segment: segment, Reason: NotAnObject}
	}
	if segment == lengthSegment {
		return len(arr), nil
	}
	pos, err := strconv.Atoi(segment)
	if err != nil {
		return nil, &Error{Segment: segment, Reason: NotAnObject}
	}
	if pos < 0 || pos >= len(arr) {
		return nil, &Error{Segment: segment, Reason: IndexOutOfRange}
	}
	return arr[pos], nil
}
