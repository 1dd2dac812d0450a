package consumer

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/domain/recurrence"
	"github.com/taskline/taskline-api/internal/events"
	"github.com/taskline/taskline-api/internal/platform/logger"
	"github.com/taskline/taskline-api/internal/store"
)

// RecurrenceConsumer generates the next instance of a recurring task when
// its current instance is completed.
//
// It acts only on task.completed events whose payload says the task recurs,
// and re-checks the stored task before generating: the payload is a
// snapshot from publish time, and the user may have disabled recurrence (or
// deleted the task) between completion and delivery. Stale or duplicate
// recurrence state is dropped, never retried.
type RecurrenceConsumer struct {
	transactor store.Transactor
	taskStore  store.TaskStore
	logger     *slog.Logger
}

// NewRecurrenceConsumer creates a RecurrenceConsumer.
func NewRecurrenceConsumer(transactor store.Transactor, taskStore store.TaskStore, log *slog.Logger) *RecurrenceConsumer {
	if transactor == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("transactor cannot be nil for RecurrenceConsumer")
	}
	if taskStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskStore cannot be nil for RecurrenceConsumer")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for RecurrenceConsumer")
	}

	return &RecurrenceConsumer{
		transactor: transactor,
		taskStore:  taskStore,
		logger:     log.With(slog.String("component", "recurrence_consumer")),
	}
}

// Handle processes one delivery on the recurrence topic.
func (c *RecurrenceConsumer) Handle(ctx context.Context, envelope *events.Envelope) Outcome {
	log := logger.FromContextOrDefault(ctx, c.logger)

	if envelope.EventType != events.EventTaskCompleted {
		return OutcomeDrop
	}

	var payload events.TaskCompletedPayload
	if err := envelope.DecodePayload(&payload); err != nil {
		log.Warn("undecodable task.completed payload, dropping",
			slog.String("event_id", envelope.EventID),
			slog.String("error", err.Error()))
		return OutcomeDrop
	}
	if !payload.RecurrenceEnabled {
		return OutcomeDrop
	}

	taskID, err := uuid.Parse(envelope.TaskID)
	if err != nil {
		log.Warn("recurrence event carries invalid task ID, dropping",
			slog.String("event_id", envelope.EventID),
			slog.String("task_id", envelope.TaskID))
		return OutcomeDrop
	}

	outcome := OutcomeSuccess
	var instance *domain.Task
	txErr := c.transactor.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		taskStore := c.taskStore.WithTx(tx)

		task, err := taskStore.GetByID(ctx, taskID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				log.Info("task not found, skipping recurrence",
					slog.String("task_id", envelope.TaskID))
				outcome = OutcomeDrop
				return nil
			}
			return err
		}

		if !task.RecurrenceEnabled {
			log.Info("task recurrence disabled, skipping",
				slog.String("task_id", envelope.TaskID))
			outcome = OutcomeDrop
			return nil
		}

		var nextDue *time.Time
		if task.DueDate != nil && task.RecurrencePattern != "" {
			due := recurrence.NextDueDate(task.RecurrencePattern, *task.DueDate)
			nextDue = &due
		}

		instance, err = task.NewRecurringInstance(nextDue)
		if err != nil {
			return err
		}

		return taskStore.Create(ctx, instance)
	})

	if txErr != nil {
		log.Error("failed to generate recurring task instance",
			slog.String("task_id", envelope.TaskID),
			slog.String("error", txErr.Error()))
		return OutcomeRetry
	}

	if outcome != OutcomeSuccess {
		return outcome
	}

	logAttrs := []any{
		slog.String("parent_task_id", envelope.TaskID),
		slog.String("task_id", instance.ID.String()),
	}
	if instance.DueDate != nil {
		logAttrs = append(logAttrs, slog.Time("due_date", *instance.DueDate))
	}
	log.Info("recurring task instance created", logAttrs...)
	return OutcomeSuccess
}
