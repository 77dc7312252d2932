package coordinator

import (
	"strings"

	"github.com/goliatone/go-fmtemplate/pkg/tree"
)

func cloneObject(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj)+1)
	for key, value := range obj {
		out[key] = tree.Clone(value)
	}
	return out
}

// bind stores value at the dotted path, creating intermediate objects and
// replacing non-object values in the way.
func bind(scope map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := scope
	for _, segment := range segments[:len(segments)-1] {
		next, ok := tree.Object(current[segment])
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}
