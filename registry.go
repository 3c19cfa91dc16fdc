package dyn

import (
	"fmt"
	"sort"
	"sync"
)

// Variable is the non-generic view of a *Var[T] used by registries and
// snapshots. Only variables created by this package implement it.
type Variable interface {
	Name() string
	IsBound() bool

	peek() (any, bool)
	bindValue(value any) (func() error, error)
}

// Registry indexes named dynamic variables so cross-cutting consumers
// (evaluators, diagnostics) can resolve the current dynamic environment
// without holding typed references. Names are case-sensitive because they
// double as expression identifiers.
type Registry struct {
	mu   sync.RWMutex
	vars map[string]Variable
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		vars: make(map[string]Variable),
	}
}

// Register stores v under its name, guarding against duplicates.
func (r *Registry) Register(v Variable) error {
	if v == nil {
		return fmt.Errorf("dyn: variable is nil")
	}
	name := v.Name()
	if name == "" {
		return ErrVariableNameRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.vars == nil {
		r.vars = make(map[string]Variable)
	}
	if _, exists := r.vars[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateVariableName, name)
	}
	r.vars[name] = v
	return nil
}

// Lookup returns the variable registered under name.
func (r *Registry) Lookup(name string) (Variable, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vars[name]
	return v, ok
}

// Names returns registered variable names sorted alphabetically.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.vars))
	for name := range r.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of the registry.
func (r *Registry) Clone() *Registry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &Registry{
		vars: make(map[string]Variable, len(r.vars)),
	}
	for name, v := range r.vars {
		clone.vars[name] = v
	}
	return clone
}

// Environment snapshots the values currently visible to the calling
// goroutine, keyed by variable name. Variables that are unbound with no
// default are omitted.
func (r *Registry) Environment() map[string]any {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	env := make(map[string]any, len(r.vars))
	for name, v := range r.vars {
		if value, ok := v.peek(); ok {
			env[name] = value
		}
	}
	return env
}

// Capture snapshots every registered variable that currently resolves to a
// value; see Capture for the free-standing form.
func (r *Registry) Capture() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.vars))
	for name := range r.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	vars := make([]Variable, 0, len(names))
	for _, name := range names {
		vars = append(vars, r.vars[name])
	}
	r.mu.RUnlock()
	return Capture(vars...)
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds v to the process-wide registry.
func Register(v Variable) error {
	return defaultRegistry.Register(v)
}
