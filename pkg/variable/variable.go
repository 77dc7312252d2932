// Package variable classifies template placeholder names.
package variable

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ArrayMarker is the reserved placeholder name that expands to the collected
// array data. In templates it appears as "{@items}".
const ArrayMarker = "@items"

// specialPrefix marks processor directives rather than data lookups.
const specialPrefix = "@"

// Variable is the classified form of a placeholder. The concrete types are
// Standard, ArrayExpansion and SpecialProcessor.
type Variable interface {
	// Raw returns the placeholder name as written in the template.
	Raw() string
	variable()
}

// Standard is a data lookup, either a plain key or a dotted path.
type Standard struct {
	Name string
}

// Raw implements Variable.
func (v Standard) Raw() string { return v.Name }

func (Standard) variable() {}

// Hierarchical reports whether the name is a dotted path.
func (v Standard) Hierarchical() bool {
	return strings.Contains(v.Name, ".")
}

// Segments splits the name on dots.
func (v Standard) Segments() []string {
	return strings.Split(v.Name, ".")
}

// ArrayExpansion is the reserved list-expansion marker.
type ArrayExpansion struct {
	Marker string
}

// Raw implements Variable.
func (v ArrayExpansion) Raw() string { return v.Marker }

func (ArrayExpansion) variable() {}

// SpecialProcessor is any other "@"-prefixed directive.
type SpecialProcessor struct {
	Marker string
}

// Raw implements Variable.
func (v SpecialProcessor) Raw() string { return v.Marker }

func (SpecialProcessor) variable() {}

// ClassificationError reports a placeholder name that cannot be classified.
type ClassificationError struct {
	Raw string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("variable: cannot classify %q: name is empty", e.Raw)
}

// Classify tags a raw placeholder name. Surrounding whitespace is ignored; an
// empty or whitespace-only name is rejected.
func Classify(raw string) (Variable, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return nil, &ClassificationError{Raw: raw}
	}
	switch {
	case name == ArrayMarker:
		return ArrayExpansion{Marker: name}, nil
	case strings.HasPrefix(name, specialPrefix):
		return SpecialProcessor{Marker: name}, nil
	default:
		return Standard{Name: name}, nil
	}
}

const namePattern = `[A-Za-z0-9_$@][A-Za-z0-9_$@.\-]*`

var (
	placeholderPattern = regexp.MustCompile(`\{\s*(` + namePattern + `)\s*\}`)
	wholePattern       = regexp.MustCompile(`^\{\s*(` + namePattern + `)\s*\}$`)
)

// Match is one placeholder occurrence. Start and End are the byte offsets of
// the braces within the scanned string.
type Match struct {
	Name  string
	Start int
	End   int
	// Delimited is true when the placeholder is bounded by the string edges,
	// quotes or whitespace on both sides.
	Delimited bool
}

// Scan returns the placeholders in str in order of appearance. Whitespace
// inside the braces is allowed: "{ name }" names "name".
func Scan(str string) []Match {
	locs := placeholderPattern.FindAllStringSubmatchIndex(str, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Match{
			Name:      str[loc[2]:loc[3]],
			Start:     loc[0],
			End:       loc[1],
			Delimited: delimited(str, loc[0], loc[1]),
		})
	}
	return out
}

// Whole returns the placeholder name when str consists of exactly one
// placeholder.
func Whole(str string) (string, bool) {
	match := wholePattern.FindStringSubmatch(str)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// IsArrayMarker reports whether name classifies as ArrayExpansion.
func IsArrayMarker(name string) bool {
	v, err := Classify(name)
	if err != nil {
		return false
	}
	_, ok := v.(ArrayExpansion)
	return ok
}

func delimited(str string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(str[:start])
		if !isBoundary(r) {
			return false
		}
	}
	if end < len(str) {
		r, _ := utf8.DecodeRuneInString(str[end:])
		if !isBoundary(r) {
			return false
		}
	}
	return true
}

func isBoundary(r rune) bool {
	return r == '"' || r == '\'' || unicode.IsSpace(r)
}
