package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/platform/broker"
)

// JobsClient is the slice of the broker client covering the jobs API.
type JobsClient interface {
	ScheduleJob(ctx context.Context, name string, spec broker.JobSpec) bool
	CancelJob(ctx context.Context, name string) bool
}

// BrokerReminderScheduler schedules one-shot reminder jobs through the
// broker sidecar. Each task has at most one job, named after the task ID,
// so rescheduling replaces and completing cancels without bookkeeping.
type BrokerReminderScheduler struct {
	jobs   JobsClient
	logger *slog.Logger
}

var _ ReminderScheduler = (*BrokerReminderScheduler)(nil)

// NewBrokerReminderScheduler creates a BrokerReminderScheduler.
func NewBrokerReminderScheduler(jobs JobsClient, log *slog.Logger) *BrokerReminderScheduler {
	if jobs == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("jobs client cannot be nil for BrokerReminderScheduler")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for BrokerReminderScheduler")
	}

	return &BrokerReminderScheduler{
		jobs:   jobs,
		logger: log.With(slog.String("component", "reminder_scheduler")),
	}
}

// ScheduleReminder registers a one-shot job firing at the task's reminder
// instant. Tasks without a future reminder are not scheduled.
func (s *BrokerReminderScheduler) ScheduleReminder(ctx context.Context, userID string, task *domain.Task) bool {
	if task.ReminderAt == nil || !task.ReminderAt.After(time.Now()) {
		return false
	}

	spec := broker.JobSpec{
		Data: map[string]string{
			"task_id": task.ID.String(),
			"user_id": userID,
		},
		Schedule: task.ReminderAt.UTC().Format(time.RFC3339),
	}
	if !s.jobs.ScheduleJob(ctx, reminderJobName(task.ID), spec) {
		return false
	}

	s.logger.Debug("reminder job scheduled",
		slog.String("task_id", task.ID.String()),
		slog.Time("fire_at", *task.ReminderAt))
	return true
}

// CancelReminder removes the task's reminder job if one exists.
func (s *BrokerReminderScheduler) CancelReminder(ctx context.Context, taskID uuid.UUID) bool {
	return s.jobs.CancelJob(ctx, reminderJobName(taskID))
}

func reminderJobName(taskID uuid.UUID) string {
	return "reminder-" + taskID.String()
}
