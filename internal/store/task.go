package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/domain"
)

// TaskSortField names a column tasks can be ordered by.
type TaskSortField string

// Sortable task fields.
const (
	TaskSortCreatedAt TaskSortField = "created_at"
	TaskSortDueDate   TaskSortField = "due_date"
	TaskSortPriority  TaskSortField = "priority"
	TaskSortTitle     TaskSortField = "title"
)

// TaskStatusFilter narrows a listing to pending or completed tasks.
type TaskStatusFilter string

// Task status filters. The zero value means no status filtering.
const (
	TaskStatusAny       TaskStatusFilter = ""
	TaskStatusPending   TaskStatusFilter = "pending"
	TaskStatusCompleted TaskStatusFilter = "completed"
)

// TaskFilter describes the search, filter, sort and pagination parameters
// for listing a user's tasks. Zero values mean "no constraint" for every
// field except pagination, which defaults to the first page of 20.
type TaskFilter struct {
	Search    string
	Priority  domain.Priority
	Tag       string
	Status    TaskStatusFilter
	DueBefore *time.Time
	DueAfter  *time.Time
	SortBy    TaskSortField
	SortDesc  bool
	Page      int
	PageSize  int
}

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task. Returns ErrInvalidEntity wrapping the
	// validation error if the task data is invalid.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// GetForUser retrieves a task by ID, scoped to its owner.
	// Returns ErrTaskNotFound if the task does not exist or belongs to a
	// different user.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)

	// ListForUser returns the user's tasks matching the filter, plus the
	// total match count before pagination.
	ListForUser(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, int, error)

	// Update persists all mutable fields of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a TaskStore that runs its operations on the given
	// transaction. The transaction is created and managed by the caller,
	// typically through RunInTransaction.
	WithTx(tx *sql.Tx) TaskStore
}
