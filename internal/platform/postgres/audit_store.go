package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/platform/logger"
	"github.com/taskline/taskline-api/internal/store"
)

// defaultAuditLimit caps audit trail listings when the filter asks for
// nothing specific.
const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// PostgresAuditStore implements the store.AuditStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAuditStore struct {
	db store.DBTX
}

// NewPostgresAuditStore creates a new PostgreSQL implementation of the
// AuditStore interface.
func NewPostgresAuditStore(db store.DBTX) *PostgresAuditStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil for PostgresAuditStore")
	}
	return &PostgresAuditStore{db: db}
}

// Ensure PostgresAuditStore implements store.AuditStore interface
var _ store.AuditStore = (*PostgresAuditStore)(nil)

// WithTx implements store.AuditStore.WithTx
func (s *PostgresAuditStore) WithTx(tx *sql.Tx) store.AuditStore {
	return NewPostgresAuditStore(tx)
}

// Create implements store.AuditStore.Create
//
// The audit_records.event_id column is unique-indexed; a violation is
// reported as store.ErrDuplicateEvent so the audit consumer can treat a
// lost check-then-insert race as an ordinary duplicate delivery.
func (s *PostgresAuditStore) Create(ctx context.Context, record *domain.AuditRecord) error {
	log := logger.FromContext(ctx)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO audit_records (id, event_id, event_type, user_id, task_id, timestamp, payload_snapshot, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.EventID,
		record.EventType,
		record.UserID,
		record.TaskID,
		record.Timestamp,
		record.PayloadSnapshot,
		record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEvent
		}
		log.Error("failed to create audit record",
			"event_id", record.EventID,
			"error", err)
		return fmt.Errorf("failed to create audit record: %w", err)
	}

	return nil
}

// ExistsByEventID implements store.AuditStore.ExistsByEventID
func (s *PostgresAuditStore) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM audit_records WHERE event_id = $1)`
	if err := s.db.QueryRowContext(ctx, query, eventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check audit record existence: %w", err)
	}
	return exists, nil
}

// ListForUser implements store.AuditStore.ListForUser
func (s *PostgresAuditStore) ListForUser(
	ctx context.Context,
	userID string,
	filter store.AuditFilter,
) ([]*domain.AuditRecord, error) {
	log := logger.FromContext(ctx)

	where := []string{"user_id = $1"}
	args := []any{userID}

	if filter.TaskID != "" {
		args = append(args, filter.TaskID)
		where = append(where, fmt.Sprintf("task_id = $%d", len(args)))
	}
	if filter.EventType != "" {
		args = append(args, filter.EventType)
		where = append(where, fmt.Sprintf("event_type = $%d", len(args)))
	}

	limit := filter.Limit
	if limit < 1 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	query := fmt.Sprintf(`
		SELECT id, event_id, event_type, user_id, task_id, timestamp, payload_snapshot, created_at
		FROM audit_records
		WHERE %s
		ORDER BY timestamp DESC
		LIMIT %d
	`, strings.Join(where, " AND "), limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list audit records", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []*domain.AuditRecord
	for rows.Next() {
		var record domain.AuditRecord
		err := rows.Scan(
			&record.ID,
			&record.EventID,
			&record.EventType,
			&record.UserID,
			&record.TaskID,
			&record.Timestamp,
			&record.PayloadSnapshot,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record row: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit record rows: %w", err)
	}

	return records, nil
}
