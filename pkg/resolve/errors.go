package resolve

import (
	"fmt"
	"strings"
)

// ResolutionError reports a variable that could not be resolved in its
// context. AvailableKeys lists the top-level keys present at failure time;
// Cause carries the deepest underlying failure, such as a navigation error with
// the sibling keys at the failing segment.
type ResolutionError struct {
	Variable      string
	Reason        string
	AvailableKeys []string
	Cause         error
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolve: variable %q not resolved", e.Variable)
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	if len(e.AvailableKeys) > 0 {
		b.WriteString(" (available keys: ")
		b.WriteString(strings.Join(e.AvailableKeys, ", "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}
