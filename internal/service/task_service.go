// Package service provides application-level services for managing tasks,
// reminders and the natural-language assistant.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/platform/logger"
	"github.com/taskline/taskline-api/internal/store"
)

// LifecyclePublisher is the slice of the event publisher the task service
// uses. Every method is best-effort: a false return means the event went
// undelivered, which the service logs and otherwise ignores. Publish
// failure never fails or rolls back the mutation it describes.
type LifecyclePublisher interface {
	PublishTaskCreated(ctx context.Context, userID string, task *domain.Task) bool
	PublishTaskUpdated(ctx context.Context, userID string, task *domain.Task) bool
	PublishTaskCompleted(ctx context.Context, userID string, task *domain.Task) bool
	PublishTaskDeleted(ctx context.Context, userID string, task *domain.Task) bool
}

// ReminderScheduler manages the scheduled jobs that fire reminder events.
// Like publishing, scheduling is best-effort.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, userID string, task *domain.Task) bool
	CancelReminder(ctx context.Context, taskID uuid.UUID) bool
}

// CreateTaskInput carries the fields for creating a task.
type CreateTaskInput struct {
	Title                 string
	Description           string
	Priority              domain.Priority
	Tags                  []string
	DueDate               *time.Time
	ReminderMinutesBefore *int
	RecurrencePattern     domain.RecurrencePattern
	RecurrenceCron        string
}

// UpdateTaskInput carries the fields for a partial task update. Nil fields
// are left unchanged. DueDate and SetDueDate are separate so a nil due date
// can be distinguished from "not updating the due date".
type UpdateTaskInput struct {
	Title                 *string
	Description           *string
	Completed             *bool
	Priority              *domain.Priority
	Tags                  []string
	DueDate               *time.Time
	SetDueDate            bool
	ReminderMinutesBefore *int
	RecurrencePattern     *domain.RecurrencePattern
	RecurrenceCron        *string
	RecurrenceEnabled     *bool
}

// TaskService implements task CRUD with lifecycle event publishing and
// reminder scheduling layered on top of each mutation.
type TaskService struct {
	taskStore store.TaskStore
	publisher LifecyclePublisher
	scheduler ReminderScheduler
	logger    *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(
	taskStore store.TaskStore,
	publisher LifecyclePublisher,
	scheduler ReminderScheduler,
	log *slog.Logger,
) *TaskService {
	if taskStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("taskStore cannot be nil for TaskService")
	}
	if publisher == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("publisher cannot be nil for TaskService")
	}
	if scheduler == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("scheduler cannot be nil for TaskService")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskService")
	}

	return &TaskService{
		taskStore: taskStore,
		publisher: publisher,
		scheduler: scheduler,
		logger:    log.With(slog.String("component", "task_service")),
	}
}

// CreateTask creates a task for the user, publishes task.created and
// schedules a reminder when the task has one.
func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*domain.Task, error) {
	task, err := domain.NewTask(userID, input.Title)
	if err != nil {
		return nil, err
	}

	task.Description = input.Description
	if input.Priority != "" {
		task.Priority = input.Priority
	}
	task.Tags = input.Tags
	if input.ReminderMinutesBefore != nil {
		task.ReminderMinutesBefore = *input.ReminderMinutesBefore
	}
	task.SetDueDate(input.DueDate)
	task.RecurrencePattern = input.RecurrencePattern
	task.RecurrenceCron = input.RecurrenceCron
	task.RecurrenceEnabled = input.RecurrencePattern != ""

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.afterMutation(ctx, userID, task, s.publisher.PublishTaskCreated)
	s.syncReminder(ctx, userID, task)

	return task, nil
}

// GetTask returns the user's task with the given ID.
func (s *TaskService) GetTask(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	return s.taskStore.GetForUser(ctx, taskID, userID)
}

// ListTasks returns the user's tasks matching the filter, plus the total
// match count before pagination.
func (s *TaskService) ListTasks(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, int, error) {
	return s.taskStore.ListForUser(ctx, userID, filter)
}

// UpdateTask applies a partial update to the user's task and publishes
// task.completed when the update completes the task, task.updated
// otherwise.
func (s *TaskService) UpdateTask(ctx context.Context, taskID, userID uuid.UUID, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.taskStore.GetForUser(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	completing := input.Completed != nil && *input.Completed && !task.Completed

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Tags != nil {
		task.Tags = input.Tags
	}
	if input.ReminderMinutesBefore != nil {
		task.ReminderMinutesBefore = *input.ReminderMinutesBefore
	}
	if input.SetDueDate {
		task.SetDueDate(input.DueDate)
	} else if input.ReminderMinutesBefore != nil {
		// New offset against the existing due date.
		task.SetDueDate(task.DueDate)
	}
	if input.RecurrencePattern != nil {
		task.RecurrencePattern = *input.RecurrencePattern
	}
	if input.RecurrenceCron != nil {
		task.RecurrenceCron = *input.RecurrenceCron
	}
	if input.RecurrenceEnabled != nil {
		task.RecurrenceEnabled = *input.RecurrenceEnabled
	}
	task.UpdatedAt = time.Now().UTC()

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if completing {
		s.afterMutation(ctx, userID, task, s.publisher.PublishTaskCompleted)
		s.cancelReminder(ctx, task.ID)
	} else {
		s.afterMutation(ctx, userID, task, s.publisher.PublishTaskUpdated)
		s.syncReminder(ctx, userID, task)
	}

	return task, nil
}

// ToggleTask flips the user's task between pending and completed.
func (s *TaskService) ToggleTask(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetForUser(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	if task.Completed {
		task.Reopen()
	} else {
		task.Complete()
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	if task.Completed {
		s.afterMutation(ctx, userID, task, s.publisher.PublishTaskCompleted)
		s.cancelReminder(ctx, task.ID)
	} else {
		s.afterMutation(ctx, userID, task, s.publisher.PublishTaskUpdated)
		s.syncReminder(ctx, userID, task)
	}

	return task, nil
}

// DeleteTask removes the user's task, publishing task.deleted first (after
// the delete there is nothing left to describe) and cancelling any
// scheduled reminder.
func (s *TaskService) DeleteTask(ctx context.Context, taskID, userID uuid.UUID) error {
	task, err := s.taskStore.GetForUser(ctx, taskID, userID)
	if err != nil {
		return err
	}

	s.afterMutation(ctx, userID, task, s.publisher.PublishTaskDeleted)
	s.cancelReminder(ctx, task.ID)

	if err := s.taskStore.Delete(ctx, task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// afterMutation runs one best-effort publish and logs non-delivery.
func (s *TaskService) afterMutation(
	ctx context.Context,
	userID uuid.UUID,
	task *domain.Task,
	publish func(ctx context.Context, userID string, task *domain.Task) bool,
) {
	if !publish(ctx, userID.String(), task) {
		log := logger.FromContextOrDefault(ctx, s.logger)
		log.Warn("lifecycle event not delivered",
			slog.String("task_id", task.ID.String()))
	}
}

// syncReminder schedules the task's reminder when it has a future one and
// cancels any previously scheduled job otherwise.
func (s *TaskService) syncReminder(ctx context.Context, userID uuid.UUID, task *domain.Task) {
	if task.ReminderAt != nil && task.ReminderAt.After(time.Now()) && !task.Completed {
		if !s.scheduler.ScheduleReminder(ctx, userID.String(), task) {
			log := logger.FromContextOrDefault(ctx, s.logger)
			log.Warn("reminder not scheduled",
				slog.String("task_id", task.ID.String()))
		}
		return
	}
	s.cancelReminder(ctx, task.ID)
}

func (s *TaskService) cancelReminder(ctx context.Context, taskID uuid.UUID) {
	if !s.scheduler.CancelReminder(ctx, taskID) {
		log := logger.FromContextOrDefault(ctx, s.logger)
		log.Debug("no reminder cancelled",
			slog.String("task_id", taskID.String()))
	}
}
