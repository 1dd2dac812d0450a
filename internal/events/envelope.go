package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is the current envelope schema version. Bump it when a
// field changes meaning so consumers can branch on older deliveries still
// sitting in the broker.
const EnvelopeVersion = 1

// EventType identifies the lifecycle transition an envelope describes.
type EventType string

// Lifecycle event types.
const (
	EventTaskCreated        EventType = "task.created"
	EventTaskUpdated        EventType = "task.updated"
	EventTaskCompleted      EventType = "task.completed"
	EventTaskDeleted        EventType = "task.deleted"
	EventReminderTrigger    EventType = "reminder.trigger"
	EventRecurrenceGenerate EventType = "recurrence.generate"
)

// ErrUnknownEventType is returned when an envelope carries an event type
// outside the known set.
var ErrUnknownEventType = errors.New("unknown event type")

// Valid reports whether t is one of the known lifecycle event types.
func (t EventType) Valid() bool {
	switch t {
	case EventTaskCreated, EventTaskUpdated, EventTaskCompleted,
		EventTaskDeleted, EventReminderTrigger, EventRecurrenceGenerate:
		return true
	}
	return false
}

// Envelope is the immutable record of one lifecycle fact, published to a
// topic and redelivered by the broker any number of times.
//
// EventID is a fresh UUID per publish call: if a caller re-publishes the
// same logical event it gets a new envelope, and only consumption-side
// deduplication (the stored event ID) collapses duplicates. Timestamp is an
// ISO-8601 string rather than a time.Time so the wire format survives
// brokers and consumers that do not share Go's marshaling behavior.
type Envelope struct {
	EventID   string          `json:"event_id"`
	EventType EventType       `json:"event_type"`
	Timestamp string          `json:"timestamp"`
	Version   int             `json:"version"`
	UserID    string          `json:"user_id"`
	TaskID    string          `json:"task_id"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope builds an envelope for the given transition, serializing the
// payload to JSON. It stamps a new event ID and the current UTC time.
func NewEnvelope(eventType EventType, userID, taskID string, payload any) (*Envelope, error) {
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	return &Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Version:   EnvelopeVersion,
		UserID:    userID,
		TaskID:    taskID,
		Payload:   payloadBytes,
	}, nil
}

// Time parses the envelope's timestamp. Consumers that can tolerate a bad
// timestamp should fall back to their own clock rather than failing the
// whole consumption.
func (e *Envelope) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, e.Timestamp)
}

// DecodePayload unmarshals the envelope payload into the provided structure,
// typically one of the payload types in this package chosen by EventType.
func (e *Envelope) DecodePayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}
