package dyn

import (
	"errors"
	"fmt"
)

// UnboundError reports a read of a variable that has no active binding in the
// calling goroutine and no configured default.
type UnboundError struct {
	Var string
}

func (e *UnboundError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Var == "" {
		return "dyn: variable is unbound"
	}
	return fmt.Sprintf("dyn: %s is unbound", e.Var)
}

var (
	// ErrBindingReleased indicates a Binding was released more than once.
	ErrBindingReleased = errors.New("dyn: binding already released")
	// ErrReleaseOrder indicates a Binding was released while not at the top
	// of its goroutine's stack, or from a goroutine that does not own it.
	ErrReleaseOrder = errors.New("dyn: binding released out of order")
	// ErrVariableNameRequired indicates a registry received a nameless variable.
	ErrVariableNameRequired = errors.New("dyn: variable name must be provided")
	// ErrDuplicateVariableName indicates a registry already holds the name.
	ErrDuplicateVariableName = errors.New("dyn: variable names must be unique")
)
