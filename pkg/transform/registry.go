// Package transform holds the pluggable derivations the resolver falls back to
// when a two-segment variable such as "id.full" cannot be found directly.
//
// VariableRegistry is keyed by the literal (base, property) pair and carries
// domain-specific derivations. PropertyRegistry is keyed by property alone and
// carries generic derivations (length, casing, ...) that apply to any base of
// a compatible shape. Both are plain values handed to the resolver; there is no
// process-wide registry.
package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNotApplicable is returned by strategies that do not support the shape of
// the base value they were given.
var ErrNotApplicable = errors.New("transform: strategy not applicable to value")

// Strategy derives a value from a base value.
type Strategy interface {
	Apply(base any) (any, error)
}

// Func adapts a plain function into a Strategy.
type Func func(base any) (any, error)

// Apply implements Strategy.
func (f Func) Apply(base any) (any, error) {
	return f(base)
}

// Key identifies a variable-level strategy.
type Key struct {
	Base     string
	Property string
}

func (k Key) String() string {
	return k.Base + "." + k.Property
}

// VariableRegistry stores strategies by (base, property). It is safe for
// concurrent use.
type VariableRegistry struct {
	mu         sync.RWMutex
	strategies map[Key]Strategy
}

// NewVariableRegistry creates an empty registry.
func NewVariableRegistry() *VariableRegistry {
	return &VariableRegistry{strategies: make(map[Key]Strategy)}
}

// Register adds a strategy for base.property. Duplicate keys return an error.
func (r *VariableRegistry) Register(base, property string, strategy Strategy) error {
	if strategy == nil {
		return fmt.Errorf("transform: strategy is required")
	}
	key := Key{Base: strings.TrimSpace(base), Property: strings.TrimSpace(property)}
	if key.Base == "" || key.Property == "" {
		return fmt.Errorf("transform: base and property are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[key]; exists {
		return fmt.Errorf("transform: variable strategy %q already registered", key)
	}
	r.strategies[key] = strategy
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *VariableRegistry) MustRegister(base, property string, strategy Strategy) {
	if err := r.Register(base, property, strategy); err != nil {
		panic(err)
	}
}

// Lookup returns the strategy registered for base.property.
func (r *VariableRegistry) Lookup(base, property string) (Strategy, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategy, ok := r.strategies[Key{Base: base, Property: property}]
	return strategy, ok
}

// Keys returns the registered keys sorted by base then property.
func (r *VariableRegistry) Keys() []Key {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]Key, 0, len(r.strategies))
	for key := range r.strategies {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Base != keys[j].Base {
			return keys[i].Base < keys[j].Base
		}
		return keys[i].Property < keys[j].Property
	})
	return keys
}

// PropertyRegistry stores strategies by property name. It is safe for
// concurrent use.
type PropertyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// NewPropertyRegistry creates an empty registry. See Defaults for the
// built-in set.
func NewPropertyRegistry() *PropertyRegistry {
	return &PropertyRegistry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy for property. Duplicate names return an error.
func (r *PropertyRegistry) Register(property string, strategy Strategy) error {
	if strategy == nil {
		return fmt.Errorf("transform: strategy is required")
	}
	name := strings.TrimSpace(property)
	if name == "" {
		return fmt.Errorf("transform: property name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("transform: property strategy %q already registered", name)
	}
	r.strategies[name] = strategy
	return nil
}

// MustRegister panics on registration failure.
func (r *PropertyRegistry) MustRegister(property string, strategy Strategy) {
	if err := r.Register(property, strategy); err != nil {
		panic(err)
	}
}

// Lookup returns the strategy registered for property.
func (r *PropertyRegistry) Lookup(property string) (Strategy, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategy, ok := r.strategies[property]
	return strategy, ok
}

// Names returns a sorted list of registered property names.
func (r *PropertyRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
