package store

import (
	"context"
	"database/sql"

	"github.com/taskline/taskline-api/internal/domain"
)

// AuditFilter narrows an audit trail listing. Zero values mean no
// constraint; Limit is clamped by implementations to a sane maximum.
type AuditFilter struct {
	TaskID    string
	EventType string
	Limit     int
}

// AuditStore defines the interface for audit record persistence.
//
// The event_id column carries a database unique index. The check-then-insert
// the audit consumer performs is not atomic under concurrent delivery of the
// same event, so Create reporting ErrDuplicateEvent on a unique violation is
// what actually guarantees at most one record per event.
type AuditStore interface {
	// Create saves a new audit record.
	// Returns ErrDuplicateEvent if a record with the same event ID already
	// exists. Returns ErrInvalidEntity wrapping the validation error if the
	// record data is invalid.
	Create(ctx context.Context, record *domain.AuditRecord) error

	// ExistsByEventID reports whether a record for the given event ID has
	// already been persisted.
	ExistsByEventID(ctx context.Context, eventID string) (bool, error)

	// ListForUser returns the user's audit records matching the filter,
	// newest first.
	ListForUser(ctx context.Context, userID string, filter AuditFilter) ([]*domain.AuditRecord, error)

	// WithTx returns an AuditStore that runs its operations on the given
	// transaction.
	WithTx(tx *sql.Tx) AuditStore
}
