package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskUserIDEmpty is returned when a task's user ID is empty or nil.
	ErrTaskUserIDEmpty = errors.New("task user ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskPriorityInvalid is returned when a task's priority is not a known value.
	ErrTaskPriorityInvalid = errors.New("task priority must be one of: high, medium, low, none")

	// ErrTaskRecurrenceInvalid is returned when a task's recurrence pattern is not a known value.
	ErrTaskRecurrenceInvalid = errors.New("task recurrence pattern must be one of: daily, weekly, monthly, custom")
)

// Priority represents the urgency bucket a task belongs to.
type Priority string

// Valid priority values.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = "none"
)

// RecurrencePattern describes how often a recurring task repeats.
type RecurrencePattern string

// Valid recurrence pattern values. An empty pattern means the task does not
// recur. RecurrenceCustom tasks carry a cron expression in RecurrenceCron.
const (
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceCustom  RecurrencePattern = "custom"
)

// Task represents a single todo item owned by a user. Recurring tasks carry
// a recurrence pattern; completing one generates a fresh instance whose
// ParentTaskID points back at the task it was generated from.
type Task struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	Priority    Priority  `json:"priority"`
	Tags        []string  `json:"tags,omitempty"`

	DueDate               *time.Time `json:"due_date,omitempty"`
	ReminderAt            *time.Time `json:"reminder_at,omitempty"`
	ReminderMinutesBefore int        `json:"reminder_minutes_before"`

	RecurrencePattern RecurrencePattern `json:"recurrence_pattern,omitempty"`
	RecurrenceCron    string            `json:"recurrence_cron,omitempty"`
	RecurrenceEnabled bool              `json:"recurrence_enabled"`
	ParentTaskID      *uuid.UUID        `json:"parent_task_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTask creates a new Task for the given user with the given title.
// It generates a new UUID for the task ID, applies defaults and sets the
// creation/update timestamps. Returns an error if validation fails.
func NewTask(userID uuid.UUID, title string) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:                    uuid.New(),
		UserID:                userID,
		Title:                 strings.TrimSpace(title),
		Priority:              PriorityNone,
		ReminderMinutesBefore: 15,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.UserID == uuid.Nil {
		return ErrTaskUserIDEmpty
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleEmpty
	}

	switch t.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow, PriorityNone:
	default:
		return ErrTaskPriorityInvalid
	}

	switch t.RecurrencePattern {
	case "", RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceCustom:
	default:
		return ErrTaskRecurrenceInvalid
	}

	return nil
}

// SetDueDate assigns a due date and recomputes the derived reminder time
// from ReminderMinutesBefore. A nil due date clears the reminder.
func (t *Task) SetDueDate(due *time.Time) {
	t.DueDate = due
	if due == nil {
		t.ReminderAt = nil
		return
	}
	reminderAt := due.Add(-time.Duration(t.ReminderMinutesBefore) * time.Minute)
	t.ReminderAt = &reminderAt
}

// IsOverdue reports whether the task's due date has passed without the task
// being completed, relative to the given reference time.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.Completed
}

// MarshalJSON adds the derived is_overdue field to task responses.
func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	return json.Marshal(struct {
		alias
		IsOverdue bool `json:"is_overdue"`
	}{
		alias:     alias(t),
		IsOverdue: t.IsOverdue(time.Now()),
	})
}

// Complete marks the task as done and bumps the update timestamp.
func (t *Task) Complete() {
	t.Completed = true
	t.UpdatedAt = time.Now().UTC()
}

// Reopen marks a completed task as pending again.
func (t *Task) Reopen() {
	t.Completed = false
	t.UpdatedAt = time.Now().UTC()
}

// NewRecurringInstance creates the next instance of a recurring task.
// The instance inherits the parent's title, description, priority, tags,
// reminder offset and full recurrence metadata, and records the parent's ID
// in ParentTaskID. Its due date is freshly computed by the caller, never
// copied from the parent; a nil nextDue leaves the instance without one.
func (t *Task) NewRecurringInstance(nextDue *time.Time) (*Task, error) {
	now := time.Now().UTC()
	parentID := t.ID
	instance := &Task{
		ID:                    uuid.New(),
		UserID:                t.UserID,
		Title:                 t.Title,
		Description:           t.Description,
		Priority:              t.Priority,
		Tags:                  append([]string(nil), t.Tags...),
		ReminderMinutesBefore: t.ReminderMinutesBefore,
		RecurrencePattern:     t.RecurrencePattern,
		RecurrenceCron:        t.RecurrenceCron,
		RecurrenceEnabled:     t.RecurrenceEnabled,
		ParentTaskID:          &parentID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	instance.SetDueDate(nextDue)

	if err := instance.Validate(); err != nil {
		return nil, err
	}

	return instance, nil
}
