package items

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/goliatone/go-fmtemplate/pkg/tree"
	"github.com/goliatone/go-fmtemplate/pkg/variable"
)

// contextRadius is the number of bytes captured on each side of a match.
const contextRadius = 16

var (
	// ErrMalformedPattern reports marker occurrences that are glued to other
	// text (for example "x{@items}") when no valid occurrence exists.
	ErrMalformedPattern = errors.New("items: malformed list-expansion marker")
	// ErrConflictingPatterns reports two markers at the same path.
	ErrConflictingPatterns = errors.New("items: conflicting list-expansion markers")
	// ErrNestedPatterns reports a marker whose path is an ancestor of another.
	ErrNestedPatterns = errors.New("items: nested list-expansion markers")
)

// Pattern is one marker occurrence inside a template.
type Pattern struct {
	// Path addresses the string value holding the marker.
	Path tree.Path
	// Position is the byte offset of the marker within that string.
	Position int
	// Context is a snippet of the surrounding text.
	Context string
	// Valid is false when the marker is glued to surrounding text.
	Valid bool
}

// DetectionResult summarises the markers found in a template.
type DetectionResult struct {
	// HasItems is true when at least one valid marker exists.
	HasItems bool
	// Patterns lists every occurrence, valid or not, in walk order.
	Patterns []Pattern
	// Expandable is true when valid markers exist and they do not conflict.
	Expandable bool
	// Err explains why the template is not expandable, when it is not.
	Err error
}

// ValidPatterns returns the valid occurrences.
func (r DetectionResult) ValidPatterns() []Pattern {
	out := make([]Pattern, 0, len(r.Patterns))
	for _, pattern := range r.Patterns {
		if pattern.Valid {
			out = append(out, pattern)
		}
	}
	return out
}

// Detect scans template for list-expansion markers. The template is not
// modified and no state is kept between calls.
func Detect(template any) DetectionResult {
	var patterns []Pattern
	_ = tree.Walk(template, func(path tree.Path, value any) error {
		str, ok := tree.String(value)
		if !ok {
			return nil
		}
		for _, match := range markers(str) {
			patterns = append(patterns, Pattern{
				Path:     path,
				Position: match.Start,
				Context:  snippet(str, match.Start, match.End),
				Valid:    match.Delimited,
			})
		}
		return nil
	})

	result := DetectionResult{Patterns: patterns}
	valid := result.ValidPatterns()
	result.HasItems = len(valid) > 0

	switch {
	case len(patterns) == 0:
	case len(valid) == 0:
		result.Err = fmt.Errorf("%w at %s (%q)", ErrMalformedPattern, patterns[0].Path, patterns[0].Context)
	default:
		result.Err = Validate(valid)
		result.Expandable = result.Err == nil
	}
	return result
}

// Validate rejects pattern sets with two occurrences at the same path or with
// one path nested under another.
func Validate(patterns []Pattern) error {
	for i := 0; i < len(patterns); i++ {
		for j := i + 1; j < len(patterns); j++ {
			a, b := patterns[i].Path, patterns[j].Path
			switch {
			case a.Equal(b):
				return fmt.Errorf("%w: two markers at %s", ErrConflictingPatterns, a)
			case a.IsAncestorOf(b):
				return fmt.Errorf("%w: %s contains %s", ErrNestedPatterns, a, b)
			case b.IsAncestorOf(a):
				return fmt.Errorf("%w: %s contains %s", ErrNestedPatterns, b, a)
			}
		}
	}
	return nil
}

// markers returns the placeholders in str that name the list marker, using
// the same grammar the resolver substitutes with.
func markers(str string) []variable.Match {
	var out []variable.Match
	for _, match := range variable.Scan(str) {
		if variable.IsArrayMarker(match.Name) {
			out = append(out, match)
		}
	}
	return out
}

func snippet(str string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(str) {
		to = len(str)
	}
	for from > 0 && !utf8.RuneStart(str[from]) {
		from--
	}
	for to < len(str) && !utf8.RuneStart(str[to]) {
		to++
	}
	return str[from:to]
}

// replaceMarkers substitutes every valid marker occurrence in str with
// replacement, leaving glued occurrences untouched.
func replaceMarkers(str, replacement string) string {
	found := markers(str)
	if len(found) == 0 {
		return str
	}
	out := make([]byte, 0, len(str)+len(replacement))
	last := 0
	for _, match := range found {
		if !match.Delimited {
			continue
		}
		out = append(out, str[last:match.Start]...)
		out = append(out, replacement...)
		last = match.End
	}
	out = append(out, str[last:]...)
	return string(out)
}

// hasValidMarker reports whether str holds at least one delimited marker.
func hasValidMarker(str string) bool {
	for _, match := range markers(str) {
		if match.Delimited {
			return true
		}
	}
	return false
}
