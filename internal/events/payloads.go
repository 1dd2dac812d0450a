package events

import "time"

// The payload types below form a tagged union keyed by the envelope's
// EventType. Each lifecycle transition has exactly one payload shape, so
// drift between what the publisher writes and what a consumer reads shows
// up as a compile error rather than a missing map key.

// TaskCreatedPayload accompanies EventTaskCreated.
type TaskCreatedPayload struct {
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Priority          string     `json:"priority"`
	Tags              []string   `json:"tags"`
	DueDate           *time.Time `json:"due_date"`
	RecurrencePattern string     `json:"recurrence_pattern,omitempty"`
}

// TaskUpdatedPayload accompanies EventTaskUpdated.
type TaskUpdatedPayload struct {
	Title     string     `json:"title"`
	Priority  string     `json:"priority"`
	Tags      []string   `json:"tags"`
	DueDate   *time.Time `json:"due_date"`
	Completed bool       `json:"completed"`
}

// TaskCompletedPayload accompanies EventTaskCompleted. The recurrence flags
// are duplicated from the task so the recurrence consumer can pre-filter
// deliveries without a store round trip.
type TaskCompletedPayload struct {
	CompletedAt       *time.Time `json:"completed_at"`
	WasOverdue        bool       `json:"was_overdue"`
	RecurrenceEnabled bool       `json:"recurrence_enabled"`
	RecurrencePattern string     `json:"recurrence_pattern,omitempty"`
}

// TaskDeletedPayload accompanies EventTaskDeleted.
type TaskDeletedPayload struct {
	Reason string `json:"reason"`
}

// ReminderPayload accompanies EventReminderTrigger.
type ReminderPayload struct {
	TaskTitle       string     `json:"task_title"`
	DueDate         *time.Time `json:"due_date"`
	MinutesUntilDue int        `json:"minutes_until_due"`
}
