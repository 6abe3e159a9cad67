package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	// TypeRankingPublished is emitted after a batch of ranking snapshots
	// becomes current.
	TypeRankingPublished = "ranking.published"

	// TypeWeeklyReset is emitted after weekly points were rolled over.
	TypeWeeklyReset = "ranking.weekly_reset"
)

// Event is a notification about a completed job step.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an event with the given type and payload.
func NewEvent(eventType string, payload any, now time.Time) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   raw,
		CreatedAt: now.UTC(),
	}, nil
}

// RankingPublished is the payload of TypeRankingPublished.
type RankingPublished struct {
	Version     int64             `json:"version"`
	GeneratedAt time.Time         `json:"generated_at"`
	Variants    []string          `json:"variants"`
	Leaders     map[string]string `json:"leaders,omitempty"`
}

// WeeklyReset is the payload of TypeWeeklyReset.
type WeeklyReset struct {
	Cutover       time.Time `json:"cutover"`
	ProfilesReset int       `json:"profiles_reset"`
}

// Handler processes emitted events.
type Handler interface {
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements Handler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Emitter publishes events to registered handlers.
type Emitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}

// NopEmitter discards events.
type NopEmitter struct{}

// EmitEvent implements Emitter.
func (NopEmitter) EmitEvent(context.Context, *Event) error { return nil }
