package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/events"
	"github.com/taskline/taskline-api/internal/platform/logger"
	"github.com/taskline/taskline-api/internal/store"
)

// ReminderPublisher is the slice of the event publisher the reminder
// consumer needs: fanning a due reminder out to the notification topic.
type ReminderPublisher interface {
	PublishReminderTrigger(ctx context.Context, userID string, task *domain.Task) bool
}

// ReminderConsumer reacts to scheduled reminder deliveries by re-checking
// that the task still needs reminding and fanning out a reminder.trigger
// event on the notification topic.
//
// A missing or already-completed task is a permanent condition, not a
// transient one: the delivery is dropped so the broker stops retrying a
// reminder nobody needs anymore.
type ReminderConsumer struct {
	taskStore store.TaskStore
	publisher ReminderPublisher
	logger    *slog.Logger
}

// NewReminderConsumer creates a ReminderConsumer.
func NewReminderConsumer(taskStore store.TaskStore, publisher ReminderPublisher, log *slog.Logger) *ReminderConsumer {
	if taskStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskStore cannot be nil for ReminderConsumer")
	}
	if publisher == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("publisher cannot be nil for ReminderConsumer")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReminderConsumer")
	}

	return &ReminderConsumer{
		taskStore: taskStore,
		publisher: publisher,
		logger:    log.With(slog.String("component", "reminder_consumer")),
	}
}

// Handle processes one delivery of a reminder event.
func (c *ReminderConsumer) Handle(ctx context.Context, envelope *events.Envelope) Outcome {
	log := logger.FromContextOrDefault(ctx, c.logger)

	taskID, err := uuid.Parse(envelope.TaskID)
	if err != nil {
		log.Warn("reminder event carries invalid task ID, dropping",
			slog.String("event_id", envelope.EventID),
			slog.String("task_id", envelope.TaskID))
		return OutcomeDrop
	}

	task, err := c.taskStore.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("task not found, skipping reminder",
				slog.String("task_id", envelope.TaskID))
			return OutcomeDrop
		}
		log.Error("failed to load task for reminder",
			slog.String("task_id", envelope.TaskID),
			slog.String("error", err.Error()))
		return OutcomeRetry
	}

	if task.Completed {
		log.Info("task already completed, skipping reminder",
			slog.String("task_id", envelope.TaskID))
		return OutcomeDrop
	}

	// Best effort: non-delivery of the trigger is absorbed like any other
	// publish failure, it never turns into a redelivery loop here.
	if !c.publisher.PublishReminderTrigger(ctx, envelope.UserID, task) {
		log.Warn("reminder trigger not delivered",
			slog.String("task_id", envelope.TaskID))
	} else {
		log.Info("reminder triggered",
			slog.String("task_id", envelope.TaskID),
			slog.String("title", task.Title))
	}

	return OutcomeSuccess
}
