package activity

import (
	"strings"
	"time"
)

// Verbs and object type used for dynamic-variable binding lifecycle events.
const (
	VerbBind      = "dynvar.bind"
	VerbRelease   = "dynvar.release"
	ObjectTypeVar = "dynvar"
)

// BindingEventInput describes the common fields for binding lifecycle events.
type BindingEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Recipients []string
	Metadata   map[string]any

	// Var is the dynamic variable's name; BindingID identifies the frame.
	Var       string
	BindingID string
	// Depth is the stack depth after the bind (or before the release).
	Depth      int
	Value      any
	OccurredAt time.Time
}

// BuildBindEvent constructs a normalized activity event for a binding push.
func BuildBindEvent(input BindingEventInput) Event {
	return buildBindingEvent(VerbBind, input)
}

// BuildReleaseEvent constructs a normalized activity event for a binding pop.
func BuildReleaseEvent(input BindingEventInput) Event {
	return buildBindingEvent(VerbRelease, input)
}

func buildBindingEvent(verb string, input BindingEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Var != "" {
		metadata = ensureMetadata(metadata)
		metadata["var"] = input.Var
	}
	if input.BindingID != "" {
		metadata = ensureMetadata(metadata)
		metadata["binding_id"] = input.BindingID
	}
	if input.Depth > 0 {
		metadata = ensureMetadata(metadata)
		metadata["depth"] = input.Depth
	}
	if input.Value != nil {
		metadata = ensureMetadata(metadata)
		metadata["value"] = input.Value
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.Var)
	if objectID == "" {
		objectID = strings.TrimSpace(input.BindingID)
	}
	if objectID == "" {
		objectID = ObjectTypeVar
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeVar,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Recipients: recipients,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
