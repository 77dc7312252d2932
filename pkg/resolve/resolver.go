// Package resolve maps template variables to values.
//
// Standard variables without dots are looked up directly. Dotted variables go
// through a fixed cascade, stopping at the first tier that succeeds:
//
//  1. direct lookup of the whole dotted string (flattened data such as
//     {"a.b": 1});
//  2. navigation through nested objects and arrays ({"a": {"b": 1}});
//  3. for exactly two segments base.property: the variable registry keyed by
//     (base, property), the property read straight off the base value, then
//     the property registry keyed by property.
//
// The array marker resolves to the bound array data. Callers decide whether a
// failure is fatal; see Substitute and Mode.
package resolve

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-fmtemplate/pkg/logging"
	"github.com/goliatone/go-fmtemplate/pkg/navigate"
	"github.com/goliatone/go-fmtemplate/pkg/transform"
	"github.com/goliatone/go-fmtemplate/pkg/variable"
)

// Tier identifies the cascade step that produced a value.
type Tier uint8

const (
	TierNone Tier = iota
	TierDirect
	TierHierarchy
	TierTransform
	TierArray
)

func (t Tier) String() string {
	switch t {
	case TierDirect:
		return "direct"
	case TierHierarchy:
		return "hierarchy"
	case TierTransform:
		return "transform"
	case TierArray:
		return "array"
	default:
		return "none"
	}
}

// Option customises the resolver.
type Option func(*Resolver)

// WithVariableRegistry injects the (base, property) strategy registry.
func WithVariableRegistry(registry *transform.VariableRegistry) Option {
	return func(r *Resolver) {
		r.variables = registry
	}
}

// WithPropertyRegistry injects the property strategy registry. Pass
// transform.NewPropertyRegistry() to disable the built-in derivations.
func WithPropertyRegistry(registry *transform.PropertyRegistry) Option {
	return func(r *Resolver) {
		r.properties = registry
	}
}

// WithLogger attaches a logger for strategy diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver resolves variables against a Context. It holds no per-call state
// and is safe for concurrent use.
type Resolver struct {
	variables  *transform.VariableRegistry
	properties *transform.PropertyRegistry
	logger     logging.Logger
}

// New constructs a Resolver. Without options it uses an empty variable
// registry and transform.Defaults() for properties.
func New(options ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.variables == nil {
		r.variables = transform.NewVariableRegistry()
	}
	if r.properties == nil {
		r.properties = transform.Defaults()
	}
	r.logger = logging.OrNop(r.logger)
	return r
}

// Resolve returns the value for v in ctx.
func (r *Resolver) Resolve(v variable.Variable, ctx Context) (any, error) {
	value, _, err := r.Trace(v, ctx)
	return value, err
}

// ResolveName classifies raw and resolves it.
func (r *Resolver) ResolveName(raw string, ctx Context) (any, error) {
	v, err := variable.Classify(raw)
	if err != nil {
		return nil, err
	}
	return r.Resolve(v, ctx)
}

// Trace resolves v and reports which tier produced the value.
func (r *Resolver) Trace(v variable.Variable, ctx Context) (any, Tier, error) {
	switch typed := v.(type) {
	case variable.ArrayExpansion:
		return r.resolveArray(typed.Marker, ctx)
	case variable.SpecialProcessor:
		return nil, TierNone, &ResolutionError{
			Variable:      typed.Marker,
			Reason:        fmt.Sprintf("unsupported special processor (only %q is supported)", variable.ArrayMarker),
			AvailableKeys: ctx.availableKeys(),
		}
	case variable.Standard:
		if !typed.Hierarchical() {
			return r.resolveDirect(typed.Name, ctx)
		}
		return r.resolveHierarchical(typed, ctx)
	default:
		return nil, TierNone, &ResolutionError{
			Variable: fmt.Sprintf("%v", v),
			Reason:   fmt.Sprintf("unsupported variable type %T", v),
		}
	}
}

func (r *Resolver) resolveArray(marker string, ctx Context) (any, Tier, error) {
	if state, ok := ctx.ArrayData.(Available); ok {
		return state.Data, TierArray, nil
	}
	return nil, TierNone, &ResolutionError{
		Variable:      marker,
		Reason:        "no array data available",
		AvailableKeys: ctx.availableKeys(),
	}
}

func (r *Resolver) resolveDirect(name string, ctx Context) (any, Tier, error) {
	if value, ok := ctx.lookup(name); ok {
		return value, TierDirect, nil
	}
	return nil, TierNone, &ResolutionError{
		Variable:      name,
		Reason:        "key not found",
		AvailableKeys: ctx.availableKeys(),
	}
}

func (r *Resolver) resolveHierarchical(v variable.Standard, ctx Context) (any, Tier, error) {
	if value, ok := ctx.lookup(v.Name); ok {
		return value, TierDirect, nil
	}

	segments := v.Segments()
	var cause error
	for _, scope := range ctx.scopes() {
		value, err := navigate.Segments(scope, segments)
		if err == nil {
			return value, TierHierarchy, nil
		}
		if cause == nil {
			cause = err
		}
	}

	if len(segments) == 2 {
		value, err := r.transformCascade(segments[0], segments[1], ctx)
		if err == nil {
			return value, TierTransform, nil
		}
		if !errors.Is(err, errNoStrategy) {
			cause = err
		}
	}

	return nil, TierNone, &ResolutionError{
		Variable:      v.Name,
		Reason:        "no resolution strategy succeeded",
		AvailableKeys: ctx.availableKeys(),
		Cause:         cause,
	}
}

var errNoStrategy = errors.New("resolve: no strategy applied")

func (r *Resolver) transformCascade(baseName, property string, ctx Context) (any, error) {
	base, ok := ctx.lookup(baseName)
	if !ok {
		return nil, errNoStrategy
	}

	var strategyErr error
	if strategy, ok := r.variables.Lookup(baseName, property); ok {
		value, err := strategy.Apply(base)
		if err == nil {
			return value, nil
		}
		r.logger.Debug("variable strategy failed",
			logging.String("base", baseName),
			logging.String("property", property),
			logging.Any("error", err.Error()),
		)
		strategyErr = err
	}

	if value, err := navigate.Segments(base, []string{property}); err == nil {
		return value, nil
	}

	if strategy, ok := r.properties.Lookup(property); ok {
		value, err := strategy.Apply(base)
		if err == nil {
			return value, nil
		}
		if strategyErr == nil && !errors.Is(err, transform.ErrNotApplicable) {
			strategyErr = err
		}
	}

	if strategyErr != nil {
		return nil, strategyErr
	}
	return nil, errNoStrategy
}
