package resolve

import (
	"sort"

	"github.com/goliatone/go-fmtemplate/pkg/tree"
)

// ArrayState reports whether array data is bound for the list-expansion
// marker. The concrete types are Available, NotAvailable and Deferred.
type ArrayState interface {
	arrayState()
}

// Available carries the array bound to the marker.
type Available struct {
	Data []any
}

func (Available) arrayState() {}

// NotAvailable means no array is bound.
type NotAvailable struct{}

func (NotAvailable) arrayState() {}

// Deferred keeps the marker as written so a later pass can expand it.
// Substitute leaves deferred markers in place in every mode.
type Deferred struct{}

func (Deferred) arrayState() {}

// Context is the immutable input to a single resolution. Data is consulted
// first, HierarchyRoot second.
type Context struct {
	Data          map[string]any
	ArrayData     ArrayState
	HierarchyRoot map[string]any
}

// NewContext builds a context over data with no array bound.
func NewContext(data map[string]any) Context {
	return Context{Data: data, ArrayData: NotAvailable{}}
}

// WithArray returns a copy of c with data bound to the marker.
func (c Context) WithArray(data []any) Context {
	c.ArrayData = Available{Data: data}
	return c
}

// DeferArray returns a copy of c that leaves list markers unresolved.
func (c Context) DeferArray() Context {
	c.ArrayData = Deferred{}
	return c
}

func (c Context) arrayDeferred() bool {
	_, ok := c.ArrayData.(Deferred)
	return ok
}

// WithHierarchyRoot returns a copy of c with root as the secondary scope.
func (c Context) WithHierarchyRoot(root map[string]any) Context {
	c.HierarchyRoot = root
	return c
}

// lookup returns the value stored directly under key, Data first.
func (c Context) lookup(key string) (any, bool) {
	if value, ok := c.Data[key]; ok {
		return value, true
	}
	if value, ok := c.HierarchyRoot[key]; ok {
		return value, true
	}
	return nil, false
}

// scopes returns the non-nil roots in lookup order.
func (c Context) scopes() []map[string]any {
	out := make([]map[string]any, 0, 2)
	if c.Data != nil {
		out = append(out, c.Data)
	}
	if c.HierarchyRoot != nil {
		out = append(out, c.HierarchyRoot)
	}
	return out
}

// availableKeys lists the top-level keys of every scope, sorted and deduplicated.
func (c Context) availableKeys() []string {
	seen := make(map[string]struct{})
	for _, scope := range c.scopes() {
		for _, key := range tree.SortedKeys(scope) {
			seen[key] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
