package dyn

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestValueReturnsDefaultWithoutBinding(t *testing.T) {
	v := New(WithDefault(42))

	got, err := v.Value()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("expected default 42, got %d", got)
	}

	// Repeated reads stay stable: the default is read-only after construction.
	for i := 0; i < 10; i++ {
		if got, _ := v.Value(); got != 42 {
			t.Fatalf("read %d returned %d", i, got)
		}
	}
}

func TestValueUnboundFailsWithoutDefault(t *testing.T) {
	v := New[int](WithName[int]("verbosity"))

	_, err := v.Value()
	if err == nil {
		t.Fatalf("expected unbound error")
	}
	var unbound *UnboundError
	if !errors.As(err, &unbound) {
		t.Fatalf("expected *UnboundError, got %T: %v", err, err)
	}
	if unbound.Var != "verbosity" {
		t.Fatalf("expected variable name in error, got %q", unbound.Var)
	}
}

func TestBindingBasic(t *testing.T) {
	v := New[int]()
	b := v.Binding(3)
	if got, err := v.Value(); err != nil || got != 3 {
		t.Fatalf("expected 3 inside binding, got %d err %v", got, err)
	}
	if err := b.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := v.Value(); err == nil {
		t.Fatalf("expected unbound after release")
	}
}

func TestBindingNested(t *testing.T) {
	v := New[int]()
	outer := v.Binding(3)
	middle := v.Binding(5)
	inner := v.Binding(7)

	if got, _ := v.Value(); got != 7 {
		t.Fatalf("expected innermost value 7, got %d", got)
	}
	if err := inner.Release(); err != nil {
		t.Fatalf("inner release: %v", err)
	}
	if got, _ := v.Value(); got != 5 {
		t.Fatalf("expected 5 after inner release, got %d", got)
	}
	if err := middle.Release(); err != nil {
		t.Fatalf("middle release: %v", err)
	}
	if got, _ := v.Value(); got != 3 {
		t.Fatalf("expected 3 after middle release, got %d", got)
	}
	if err := outer.Release(); err != nil {
		t.Fatalf("outer release: %v", err)
	}
	if v.IsBound() {
		t.Fatalf("expected unbound after all releases")
	}
}

func TestBindingRevertsToDefault(t *testing.T) {
	v := New(WithDefault(0))

	v.Bound(5, func() {
		if got, _ := v.Value(); got != 5 {
			t.Fatalf("expected 5, got %d", got)
		}
		v.Bound(9, func() {
			if got, _ := v.Value(); got != 9 {
				t.Fatalf("expected 9, got %d", got)
			}
		})
		if got, _ := v.Value(); got != 5 {
			t.Fatalf("expected 5 after inner scope, got %d", got)
		}
	})
	if got, _ := v.Value(); got != 0 {
		t.Fatalf("expected default 0 after outer scope, got %d", got)
	}
}

func TestBoundErrReleasesOnError(t *testing.T) {
	v := New(WithDefault("plain"))
	failure := errors.New("inner failure")

	err := v.BoundErr("fancy", func() error {
		if got, _ := v.Value(); got != "fancy" {
			t.Fatalf("expected fancy inside scope, got %q", got)
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected inner error passthrough, got %v", err)
	}
	if got, _ := v.Value(); got != "plain" {
		t.Fatalf("expected revert to default after error, got %q", got)
	}
}

func TestBoundReleasesOnPanic(t *testing.T) {
	v := New(WithDefault(1))

	func() {
		defer func() {
			if recovered := recover(); recovered == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		v.Bound(99, func() {
			panic("boom")
		})
	}()

	if got, _ := v.Value(); got != 1 {
		t.Fatalf("expected default after panic unwind, got %d", got)
	}
	if v.Depth() != 0 {
		t.Fatalf("expected empty stack after panic unwind, depth %d", v.Depth())
	}
}

func TestReleaseTwiceFails(t *testing.T) {
	v := New[int]()
	b := v.Binding(1)
	if err := b.Release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := b.Release(); !errors.Is(err, ErrBindingReleased) {
		t.Fatalf("expected ErrBindingReleased, got %v", err)
	}
}

func TestReleaseOutOfOrderFails(t *testing.T) {
	v := New[int]()
	outer := v.Binding(1)
	inner := v.Binding(2)

	if err := outer.Release(); !errors.Is(err, ErrReleaseOrder) {
		t.Fatalf("expected ErrReleaseOrder, got %v", err)
	}
	// The stack is untouched by the failed release.
	if got, _ := v.Value(); got != 2 {
		t.Fatalf("expected 2 after failed release, got %d", got)
	}
	if err := inner.Release(); err != nil {
		t.Fatalf("inner release: %v", err)
	}
	if err := outer.Release(); err != nil {
		t.Fatalf("outer release: %v", err)
	}
}

func TestReleaseFromOtherGoroutineFails(t *testing.T) {
	v := New[int]()
	b := v.Binding(1)

	done := make(chan error, 1)
	go func() {
		done <- b.Release()
	}()
	if err := <-done; !errors.Is(err, ErrReleaseOrder) {
		t.Fatalf("expected ErrReleaseOrder from foreign goroutine, got %v", err)
	}
	if err := b.Release(); err != nil {
		t.Fatalf("owner release: %v", err)
	}
}

func TestGoroutineIsolation(t *testing.T) {
	v := New[int](WithName[int]("worker_id"))

	const workers = 100
	results := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Bound(i, func() {
				got, err := v.Value()
				if err != nil {
					t.Errorf("worker %d: %v", i, err)
					return
				}
				results[i] = got
			})
		}()
	}
	wg.Wait()

	for i, got := range results {
		if got != i {
			t.Fatalf("worker %d observed %d", i, got)
		}
	}
	if v.IsBound() {
		t.Fatalf("expected no binding to leak into the test goroutine")
	}
}

func TestDefaultVisibleWhileOtherGoroutineBound(t *testing.T) {
	v := New(WithDefault("d"))

	bound := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		v.Bound("x", func() {
			close(bound)
			<-release
		})
	}()

	<-bound
	if got, _ := v.Value(); got != "d" {
		t.Fatalf("expected default %q while other goroutine is bound, got %q", "d", got)
	}
	close(release)
	<-done
	if got, _ := v.Value(); got != "d" {
		t.Fatalf("expected default after other goroutine released, got %q", got)
	}
}

func TestBindingHoldsValueWithoutCopy(t *testing.T) {
	v := New[[]int]()
	list := []int{1, 2, 3}

	v.Bound(list, func() {
		got, _ := v.Value()
		got[0] = 99
	})
	if list[0] != 99 {
		t.Fatalf("expected bound slice to share backing array, got %v", list)
	}
}

func TestFunctionValuedBinding(t *testing.T) {
	v := New(WithDefault(func() string { return "default" }))

	v.Bound(func() string { return "override" }, func() {
		fn, err := v.Value()
		if err != nil {
			t.Fatalf("value: %v", err)
		}
		if fn() != "override" {
			t.Fatalf("expected override closure")
		}
	})
	fn, _ := v.Value()
	if fn() != "default" {
		t.Fatalf("expected default closure after scope exit")
	}
}

func TestIsBoundLifecycle(t *testing.T) {
	v := New[string]()
	if v.IsBound() {
		t.Fatalf("expected unbound before any binding")
	}
	v.Bound("hi", func() {
		if !v.IsBound() {
			t.Fatalf("expected bound inside scope")
		}
	})
	if v.IsBound() {
		t.Fatalf("expected unbound after scope")
	}
}

func TestMustValuePanicsWhenUnbound(t *testing.T) {
	v := New[int]()
	defer func() {
		if recovered := recover(); recovered == nil {
			t.Fatalf("expected MustValue to panic")
		}
	}()
	_ = v.MustValue()
}

func TestStringIncludesNameAndValue(t *testing.T) {
	named := New[int](WithName[int]("verbosity"))
	if !strings.Contains(named.String(), "verbosity") {
		t.Fatalf("expected name in %q", named.String())
	}
	if !strings.Contains(named.String(), "unbound") {
		t.Fatalf("expected unbound marker in %q", named.String())
	}
	named.Bound(42, func() {
		if !strings.Contains(named.String(), "42") {
			t.Fatalf("expected value in %q", named.String())
		}
	})
}

func TestDepthTracksStack(t *testing.T) {
	v := New[int]()
	if v.Depth() != 0 {
		t.Fatalf("expected depth 0, got %d", v.Depth())
	}
	v.Bound(1, func() {
		v.Bound(2, func() {
			if v.Depth() != 2 {
				t.Fatalf("expected depth 2, got %d", v.Depth())
			}
		})
		if v.Depth() != 1 {
			t.Fatalf("expected depth 1, got %d", v.Depth())
		}
	})
	if v.Depth() != 0 {
		t.Fatalf("expected depth 0 after unwind, got %d", v.Depth())
	}
}
