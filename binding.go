package dyn

import (
	"fmt"

	"github.com/goliatone/go-dynscope/internal/goid"
	"github.com/goliatone/go-dynscope/pkg/activity"
	"github.com/google/uuid"
)

// Binding is the scoped-acquisition token for one pushed value. It is owned
// by the goroutine that created it and must be released exactly once, in LIFO
// order, from that goroutine. The idiomatic call site pairs creation with a
// deferred release:
//
//	b := verbosity.Binding(3)
//	defer b.Release()
//
// Bound and BoundErr wrap the same contract in a closure so release cannot be
// forgotten and survives panics.
type Binding[T any] struct {
	owner    *Var[T]
	gid      uint64
	id       string
	depth    int
	released bool
}

// Binding pushes value onto the calling goroutine's stack, strictly above
// whatever was previously visible, and returns the token that pops it. The
// default is never pushed; it stays a fallback underneath the whole stack.
func (v *Var[T]) Binding(value T) *Binding[T] {
	gid := goid.ID()
	var stack *frames[T]
	if entry, ok := v.stacks.Load(gid); ok {
		stack = entry.(*frames[T])
	} else {
		stack = &frames[T]{}
		v.stacks.Store(gid, stack)
	}

	pushed := frame[T]{id: uuid.NewString(), value: value}
	stack.entries = append(stack.entries, pushed)

	binding := &Binding[T]{
		owner: v,
		gid:   gid,
		id:    pushed.id,
		depth: len(stack.entries),
	}
	v.emit(activity.BuildBindEvent(activity.BindingEventInput{
		Var:       v.label(),
		BindingID: pushed.id,
		Depth:     binding.depth,
		Value:     value,
	}))
	return binding
}

// Release pops the binding's frame, restoring the previous top (or the
// default state when the stack empties). It fails fast on misuse: releasing
// twice returns ErrBindingReleased; releasing out of LIFO order, or from a
// goroutine other than the owner, returns ErrReleaseOrder and leaves the
// stack untouched.
func (b *Binding[T]) Release() error {
	if b == nil {
		return nil
	}
	if b.released {
		return fmt.Errorf("%w: %s", ErrBindingReleased, b.owner.label())
	}
	gid := goid.ID()
	if gid != b.gid {
		return fmt.Errorf("%w: %s is owned by goroutine %d", ErrReleaseOrder, b.owner.label(), b.gid)
	}

	entry, ok := b.owner.stacks.Load(gid)
	if !ok {
		return fmt.Errorf("%w: %s has no active bindings", ErrReleaseOrder, b.owner.label())
	}
	stack := entry.(*frames[T])
	top := len(stack.entries)
	if top == 0 || stack.entries[top-1].id != b.id {
		return fmt.Errorf("%w: %s at depth %d", ErrReleaseOrder, b.owner.label(), b.depth)
	}

	stack.entries[top-1] = frame[T]{}
	stack.entries = stack.entries[:top-1]
	if len(stack.entries) == 0 {
		b.owner.stacks.Delete(gid)
	}
	b.released = true

	b.owner.emit(activity.BuildReleaseEvent(activity.BindingEventInput{
		Var:       b.owner.label(),
		BindingID: b.id,
		Depth:     top,
	}))
	return nil
}

// Bound runs fn with value bound, releasing on every exit path including
// panics. This is the closest Go rendering of a with-style scoped binding.
func (v *Var[T]) Bound(value T, fn func()) {
	binding := v.Binding(value)
	defer func() {
		_ = binding.Release()
	}()
	fn()
}

// BoundErr is Bound for closures that return an error. The binding is
// released regardless of the outcome; fn's error passes through untouched.
func (v *Var[T]) BoundErr(value T, fn func() error) error {
	binding := v.Binding(value)
	defer func() {
		_ = binding.Release()
	}()
	return fn()
}
