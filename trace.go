package dyn

import (
	"encoding/json"

	"github.com/goliatone/go-dynscope/internal/goid"
)

// Trace captures provenance for a variable's live binding stack in the
// calling goroutine: which frames are active, in what order, and whether a
// default sits underneath them.
type Trace struct {
	Var        string       `json:"var,omitempty"`
	HasDefault bool         `json:"has_default"`
	Default    any          `json:"default,omitempty"`
	Frames     []Provenance `json:"frames"`
}

// Provenance details one pushed frame. Depth 1 is the bottom of the stack;
// the highest depth is the value reads resolve to.
type Provenance struct {
	Depth     int    `json:"depth"`
	BindingID string `json:"binding_id"`
	Value     any    `json:"value,omitempty"`
}

// Trace snapshots the calling goroutine's stack for this variable.
func (v *Var[T]) Trace() Trace {
	trace := Trace{
		Var:        v.name,
		HasDefault: v.hasDefault,
	}
	if v.hasDefault {
		trace.Default = v.def
	}
	if entry, ok := v.stacks.Load(goid.ID()); ok {
		stack := entry.(*frames[T])
		trace.Frames = make([]Provenance, len(stack.entries))
		for i, f := range stack.entries {
			trace.Frames[i] = Provenance{
				Depth:     i + 1,
				BindingID: f.id,
				Value:     f.value,
			}
		}
	}
	return trace
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
