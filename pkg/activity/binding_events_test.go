package activity

import (
	"testing"
	"time"
)

func TestBuildBindEventPopulatesMetadata(t *testing.T) {
	now := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	event := BuildBindEvent(BindingEventInput{
		Var:        "retry_policy",
		BindingID:  "b-1",
		Depth:      2,
		Value:      "exponential",
		Metadata:   map[string]any{"source": "worker"},
		OccurredAt: now,
	})

	if event.Verb != VerbBind {
		t.Fatalf("expected verb %q, got %q", VerbBind, event.Verb)
	}
	if event.ObjectType != ObjectTypeVar || event.ObjectID != "retry_policy" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.Metadata["var"] != "retry_policy" || event.Metadata["binding_id"] != "b-1" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
	if event.Metadata["depth"] != 2 || event.Metadata["value"] != "exponential" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
	if event.Metadata["source"] != "worker" {
		t.Fatalf("expected caller metadata passthrough: %+v", event.Metadata)
	}
	if event.OccurredAt != now {
		t.Fatalf("expected occurred_at %v, got %v", now, event.OccurredAt)
	}
}

func TestBuildReleaseEventFallsBackToBindingID(t *testing.T) {
	event := BuildReleaseEvent(BindingEventInput{BindingID: "b-9"})

	if event.Verb != VerbRelease {
		t.Fatalf("expected verb %q, got %q", VerbRelease, event.Verb)
	}
	if event.ObjectID != "b-9" {
		t.Fatalf("expected binding id as object id, got %q", event.ObjectID)
	}
}

func TestBuildBindEventDoesNotMutateInputMetadata(t *testing.T) {
	meta := map[string]any{"source": "worker"}
	_ = BuildBindEvent(BindingEventInput{Var: "v", Metadata: meta})

	if len(meta) != 1 {
		t.Fatalf("expected input metadata untouched, got %+v", meta)
	}
}
