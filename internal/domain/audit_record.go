package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AuditRecord-specific validation errors
var (
	// ErrAuditRecordIDEmpty is returned when an audit record ID is empty or nil.
	ErrAuditRecordIDEmpty = errors.New("audit record ID cannot be empty")

	// ErrAuditRecordEventIDEmpty is returned when an audit record's event ID is empty.
	ErrAuditRecordEventIDEmpty = errors.New("audit record event ID cannot be empty")

	// ErrAuditRecordEventTypeEmpty is returned when an audit record's event type is empty.
	ErrAuditRecordEventTypeEmpty = errors.New("audit record event type cannot be empty")
)

// AuditRecord is the persistent projection of exactly one successfully
// processed lifecycle event. EventID is unique across all records: the same
// envelope delivered twice produces one record, which is what makes
// consumption idempotent.
type AuditRecord struct {
	ID        uuid.UUID `json:"id"`
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
	// PayloadSnapshot holds the envelope payload serialized as JSON,
	// preserved exactly as delivered for later inspection.
	PayloadSnapshot string    `json:"payload_snapshot"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewAuditRecord creates an AuditRecord projecting the given envelope fields.
// It generates a new UUID for the record ID and stamps the creation time.
// Returns an error if validation fails.
func NewAuditRecord(eventID, eventType, userID, taskID string, timestamp time.Time, payloadSnapshot string) (*AuditRecord, error) {
	record := &AuditRecord{
		ID:              uuid.New(),
		EventID:         eventID,
		EventType:       eventType,
		UserID:          userID,
		TaskID:          taskID,
		Timestamp:       timestamp,
		PayloadSnapshot: payloadSnapshot,
		CreatedAt:       time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the AuditRecord has valid data.
// Returns an error if any field fails validation.
func (r *AuditRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrAuditRecordIDEmpty
	}

	if r.EventID == "" {
		return ErrAuditRecordEventIDEmpty
	}

	if r.EventType == "" {
		return ErrAuditRecordEventTypeEmpty
	}

	return nil
}
