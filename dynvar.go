package dyn

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-dynscope/internal/goid"
	"github.com/goliatone/go-dynscope/pkg/activity"
)

// Var is a dynamically scoped variable: a named slot whose current value is
// visible to all code running on the goroutine that bound it. Values are set
// only through scoped bindings (see Binding, Bound) and revert automatically
// when the scope exits. Each goroutine owns an independent binding stack, so
// concurrent goroutines never observe each other's bindings; the optional
// default is the only shared state and it is immutable after construction.
type Var[T any] struct {
	name       string
	def        T
	hasDefault bool
	hooks      activity.Hooks

	// stacks maps goroutine id to that goroutine's *frames[T]. Each entry is
	// created, mutated, and removed only by its owning goroutine.
	stacks sync.Map
}

type frames[T any] struct {
	entries []frame[T]
}

type frame[T any] struct {
	id    string
	value T
}

// Option configures a Var on construction.
type Option[T any] func(*varConfig[T])

type varConfig[T any] struct {
	name       string
	def        T
	hasDefault bool
	hooks      activity.Hooks
}

// WithDefault sets the value returned when no binding is active. The default
// is never pushed on a stack; it is a read-time fallback only.
func WithDefault[T any](value T) Option[T] {
	return func(cfg *varConfig[T]) {
		cfg.def = value
		cfg.hasDefault = true
	}
}

// WithName sets a human-friendly name used in errors, traces, and activity
// events, and as the identifier when registering the variable.
func WithName[T any](name string) Option[T] {
	return func(cfg *varConfig[T]) {
		cfg.name = name
	}
}

// WithActivityHooks attaches hooks notified on every bind and release. Hook
// failures never affect the binding path.
func WithActivityHooks[T any](hooks activity.Hooks) Option[T] {
	return func(cfg *varConfig[T]) {
		cfg.hooks = hooks
	}
}

// New constructs a dynamic variable. With no options the variable starts
// unbound everywhere and reads fail with *UnboundError until a binding is
// entered.
func New[T any](opts ...Option[T]) *Var[T] {
	cfg := varConfig[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Var[T]{
		name:       cfg.name,
		def:        cfg.def,
		hasDefault: cfg.hasDefault,
		hooks:      cfg.hooks,
	}
}

// Name returns the configured name, or "" for anonymous variables.
func (v *Var[T]) Name() string {
	if v == nil {
		return ""
	}
	return v.name
}

// Value returns the top of the calling goroutine's binding stack. With no
// active binding it returns the default when one was configured, otherwise
// an *UnboundError. Value never mutates state and is safe to call from any
// number of goroutines.
func (v *Var[T]) Value() (T, error) {
	if entry, ok := v.stacks.Load(goid.ID()); ok {
		stack := entry.(*frames[T])
		if n := len(stack.entries); n > 0 {
			return stack.entries[n-1].value, nil
		}
	}
	if v.hasDefault {
		return v.def, nil
	}
	var zero T
	return zero, &UnboundError{Var: v.name}
}

// MustValue is like Value but panics when the variable is unbound. Use it
// where an unbound read is a programming error the caller cannot recover from.
func (v *Var[T]) MustValue() T {
	value, err := v.Value()
	if err != nil {
		panic(err)
	}
	return value
}

// IsBound reports whether a read in the calling goroutine would succeed,
// either through an active binding or the configured default.
func (v *Var[T]) IsBound() bool {
	_, err := v.Value()
	return err == nil
}

// Depth returns the number of active bindings in the calling goroutine.
func (v *Var[T]) Depth() int {
	if entry, ok := v.stacks.Load(goid.ID()); ok {
		return len(entry.(*frames[T]).entries)
	}
	return 0
}

// String renders the variable's name (or identity) and its current value in
// the calling goroutine.
func (v *Var[T]) String() string {
	rendered := "unbound"
	if value, err := v.Value(); err == nil {
		rendered = fmt.Sprintf("%v", value)
	}
	if v.name != "" {
		return fmt.Sprintf("dynvar %q = %s", v.name, rendered)
	}
	return fmt.Sprintf("dynvar (%p) = %s", v, rendered)
}

// peek returns the current value as an untyped any for registry and snapshot
// consumers.
func (v *Var[T]) peek() (any, bool) {
	value, err := v.Value()
	if err != nil {
		return nil, false
	}
	return value, true
}

// bindValue pushes a previously captured value and returns its release. The
// value must have originated from this variable.
func (v *Var[T]) bindValue(value any) (func() error, error) {
	typed, ok := value.(T)
	if !ok {
		return nil, fmt.Errorf("dyn: value %T cannot rebind %s", value, v.label())
	}
	binding := v.Binding(typed)
	return binding.Release, nil
}

func (v *Var[T]) label() string {
	if v.name != "" {
		return v.name
	}
	return fmt.Sprintf("dynvar(%p)", v)
}

func (v *Var[T]) emit(event activity.Event) {
	if !v.hooks.Enabled() {
		return
	}
	// Hook failures surface through the hooks themselves; the binding path
	// stays infallible.
	_ = v.hooks.Notify(context.Background(), event)
}
