package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/platform/logger"
	"github.com/taskline/taskline-api/internal/store"
)

// taskColumns is the column list every task query selects, in scanTask order.
const taskColumns = `id, user_id, title, description, completed, priority, tags,
	due_date, reminder_at, reminder_minutes_before,
	recurrence_pattern, recurrence_cron, recurrence_enabled, parent_task_id,
	created_at, updated_at`

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db store.DBTX
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil for PostgresTaskStore")
	}
	return &PostgresTaskStore{db: db}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return NewPostgresTaskStore(tx)
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.Completed,
		string(task.Priority),
		strings.Join(task.Tags, ","),
		nullableTime(task.DueDate),
		nullableTime(task.ReminderAt),
		task.ReminderMinutesBefore,
		string(task.RecurrencePattern),
		task.RecurrenceCron,
		task.RecurrenceEnabled,
		nullableUUID(task.ParentTaskID),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			"task_id", task.ID,
			"error", err)
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return s.scanOne(ctx, query, id)
}

// GetForUser implements store.TaskStore.GetForUser
func (s *PostgresTaskStore) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return s.scanOne(ctx, query, id, userID)
}

// ListForUser implements store.TaskStore.ListForUser
func (s *PostgresTaskStore) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, int, error) {
	log := logger.FromContext(ctx)

	where := []string{"user_id = $1"}
	args := []any{userID}

	addArg := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Search != "" {
		addArg("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.Priority != "" {
		addArg("priority = $%d", string(filter.Priority))
	}
	if filter.Tag != "" {
		// Tags are stored comma-joined; pad both sides so a tag matches
		// whole entries only.
		addArg("(',' || tags || ',') LIKE $%d", "%,"+filter.Tag+",%")
	}
	switch filter.Status {
	case store.TaskStatusPending:
		where = append(where, "completed = FALSE")
	case store.TaskStatusCompleted:
		where = append(where, "completed = TRUE")
	}
	if filter.DueBefore != nil {
		addArg("due_date <= $%d", *filter.DueBefore)
	}
	if filter.DueAfter != nil {
		addArg("due_date >= $%d", *filter.DueAfter)
	}

	whereClause := strings.Join(where, " AND ")

	countQuery := "SELECT COUNT(*) FROM tasks WHERE " + whereClause
	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count tasks", "user_id", userID, "error", err)
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := fmt.Sprintf(
		"SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		taskColumns,
		whereClause,
		orderBy(filter),
		pageSize,
		(page-1)*pageSize,
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks", "user_id", userID, "error", err)
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate task rows: %w", err)
	}

	return tasks, total, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, completed = $3, priority = $4, tags = $5,
		    due_date = $6, reminder_at = $7, reminder_minutes_before = $8,
		    recurrence_pattern = $9, recurrence_cron = $10, recurrence_enabled = $11,
		    updated_at = $12
		WHERE id = $13
	`

	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Completed,
		string(task.Priority),
		strings.Join(task.Tags, ","),
		nullableTime(task.DueDate),
		nullableTime(task.ReminderAt),
		task.ReminderMinutesBefore,
		string(task.RecurrencePattern),
		task.RecurrenceCron,
		task.RecurrenceEnabled,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task", "task_id", task.ID, "error", err)
		return fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContext(ctx)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task", "task_id", id, "error", err)
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// scanOne runs a single-row task query and maps sql.ErrNoRows to
// store.ErrTaskNotFound.
func (s *PostgresTaskStore) scanOne(ctx context.Context, query string, args ...any) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask maps one row in taskColumns order onto a domain.Task.
func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task         domain.Task
		tags         string
		priority     string
		pattern      string
		dueDate      sql.NullTime
		reminderAt   sql.NullTime
		parentTaskID uuid.NullUUID
	)

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&priority,
		&tags,
		&dueDate,
		&reminderAt,
		&task.ReminderMinutesBefore,
		&pattern,
		&task.RecurrenceCron,
		&task.RecurrenceEnabled,
		&parentTaskID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	task.RecurrencePattern = domain.RecurrencePattern(pattern)
	if tags != "" {
		task.Tags = strings.Split(tags, ",")
	}
	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}
	if reminderAt.Valid {
		t := reminderAt.Time
		task.ReminderAt = &t
	}
	if parentTaskID.Valid {
		id := parentTaskID.UUID
		task.ParentTaskID = &id
	}

	return &task, nil
}

// orderBy builds the ORDER BY expression from the filter's sort field and
// direction, restricted to the known sortable columns.
func orderBy(filter store.TaskFilter) string {
	column := "created_at"
	switch filter.SortBy {
	case store.TaskSortDueDate:
		column = "due_date"
	case store.TaskSortPriority:
		// Order by urgency, not alphabetically.
		column = `CASE priority
			WHEN 'high' THEN 0 WHEN 'medium' THEN 1 WHEN 'low' THEN 2 ELSE 3 END`
	case store.TaskSortTitle:
		column = "title"
	case store.TaskSortCreatedAt:
		column = "created_at"
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	return column + " " + direction
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
