package resolve

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-fmtemplate/pkg/tree"
	"github.com/goliatone/go-fmtemplate/pkg/variable"
)

// Mode controls what happens to placeholders that cannot be resolved.
type Mode uint8

const (
	// ModeLenient leaves unresolved placeholders in place.
	ModeLenient Mode = iota
	// ModeStrict fails on the first unresolved placeholder.
	ModeStrict
	// ModeBlank replaces unresolved placeholders with an empty value.
	ModeBlank
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeBlank:
		return "blank"
	default:
		return "lenient"
	}
}

// ParseMode converts a mode name. The empty string selects ModeLenient.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "lenient":
		return ModeLenient, nil
	case "strict":
		return ModeStrict, nil
	case "blank":
		return ModeBlank, nil
	default:
		return ModeLenient, fmt.Errorf("resolve: unknown mode %q", raw)
	}
}

// Substitute returns a copy of template with placeholders replaced. A string
// that consists of exactly one placeholder is replaced by the resolved value
// itself, keeping its type; placeholders embedded in longer strings are
// replaced by the value's text form (see tree.Text). Object keys are never
// substituted.
func (r *Resolver) Substitute(template any, ctx Context, mode Mode) (any, error) {
	return tree.Map(template, func(path tree.Path, value any) (any, bool, error) {
		str, ok := tree.String(value)
		if !ok {
			return nil, false, nil
		}
		out, err := r.substituteString(str, ctx, mode)
		if err != nil {
			return nil, false, fmt.Errorf("resolve: at %s: %w", path, err)
		}
		return out, true, nil
	})
}

func (r *Resolver) substituteString(str string, ctx Context, mode Mode) (any, error) {
	if name, ok := variable.Whole(str); ok {
		if ctx.arrayDeferred() && variable.IsArrayMarker(name) {
			return str, nil
		}
		value, err := r.ResolveName(name, ctx)
		if err == nil {
			return tree.Clone(value), nil
		}
		switch mode {
		case ModeStrict:
			return nil, err
		case ModeBlank:
			return nil, nil
		default:
			return str, nil
		}
	}

	matches := variable.Scan(str)
	if len(matches) == 0 {
		return str, nil
	}
	var b strings.Builder
	last := 0
	for _, match := range matches {
		b.WriteString(str[last:match.Start])
		last = match.End
		literal := str[match.Start:match.End]

		// A marker glued to other text is plain text, as in the detector.
		if variable.IsArrayMarker(match.Name) && (!match.Delimited || ctx.arrayDeferred()) {
			b.WriteString(literal)
			continue
		}
		value, err := r.ResolveName(match.Name, ctx)
		if err != nil {
			switch mode {
			case ModeStrict:
				return nil, err
			case ModeBlank:
			default:
				b.WriteString(literal)
			}
			continue
		}
		text, err := tree.Text(value)
		if err != nil {
			return nil, err
		}
		b.WriteString(text)
	}
	b.WriteString(str[last:])
	return b.String(), nil
}

// Variables lists the placeholder names used in template, in walk order and
// without duplicates.
func Variables(template any) []string {
	var names []string
	seen := make(map[string]struct{})
	_ = tree.Walk(template, func(_ tree.Path, value any) error {
		str, ok := tree.String(value)
		if !ok {
			return nil
		}
		for _, match := range variable.Scan(str) {
			name := match.Name
			if _, exists := seen[name]; exists {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
		return nil
	})
	return names
}
