package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/store"
)

func newTestTaskService(t *testing.T) (*TaskService, *fakeTaskStore, *fakePublisher, *fakeScheduler) {
	t.Helper()
	taskStore := &fakeTaskStore{}
	publisher := &fakePublisher{publishOK: true}
	scheduler := &fakeScheduler{scheduleOK: true, cancelOK: true}
	svc := NewTaskService(taskStore, publisher, scheduler, slog.Default())
	return svc, taskStore, publisher, scheduler
}

func seedTask(t *testing.T, taskStore *fakeTaskStore, userID uuid.UUID, title string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(userID, title)
	require.NoError(t, err)
	taskStore.tasks = append(taskStore.tasks, task)
	return task
}

func TestNewTaskServicePanicsOnNilDependencies(t *testing.T) {
	taskStore := &fakeTaskStore{}
	publisher := &fakePublisher{}
	scheduler := &fakeScheduler{}

	assert.Panics(t, func() { NewTaskService(nil, publisher, scheduler, slog.Default()) })
	assert.Panics(t, func() { NewTaskService(taskStore, nil, scheduler, slog.Default()) })
	assert.Panics(t, func() { NewTaskService(taskStore, publisher, nil, slog.Default()) })
	assert.Panics(t, func() { NewTaskService(taskStore, publisher, scheduler, nil) })
}

func TestCreateTaskPublishesAndSchedules(t *testing.T) {
	svc, taskStore, publisher, scheduler := newTestTaskService(t)
	userID := uuid.New()
	due := time.Now().Add(2 * time.Hour)

	task, err := svc.CreateTask(context.Background(), userID, CreateTaskInput{
		Title:   "Buy groceries",
		DueDate: &due,
	})

	require.NoError(t, err)
	require.Len(t, taskStore.tasks, 1)
	require.Len(t, publisher.created, 1)
	assert.Equal(t, task.ID, publisher.created[0].ID)
	require.Len(t, scheduler.scheduled, 1)
	assert.Equal(t, task.ID, scheduler.scheduled[0].ID)
}

func TestCreateTaskWithoutDueDateSchedulesNothing(t *testing.T) {
	svc, _, publisher, scheduler := newTestTaskService(t)

	_, err := svc.CreateTask(context.Background(), uuid.New(), CreateTaskInput{
		Title: "Buy groceries",
	})

	require.NoError(t, err)
	require.Len(t, publisher.created, 1)
	assert.Empty(t, scheduler.scheduled)
}

func TestCreateTaskRecurrencePatternEnablesRecurrence(t *testing.T) {
	svc, _, _, _ := newTestTaskService(t)

	task, err := svc.CreateTask(context.Background(), uuid.New(), CreateTaskInput{
		Title:             "Water the plants",
		RecurrencePattern: domain.RecurrenceWeekly,
	})

	require.NoError(t, err)
	assert.True(t, task.RecurrenceEnabled)

	oneOff, err := svc.CreateTask(context.Background(), uuid.New(), CreateTaskInput{
		Title: "Buy groceries",
	})

	require.NoError(t, err)
	assert.False(t, oneOff.RecurrenceEnabled)
}

func TestCreateTaskRejectsEmptyTitle(t *testing.T) {
	svc, taskStore, publisher, _ := newTestTaskService(t)

	_, err := svc.CreateTask(context.Background(), uuid.New(), CreateTaskInput{Title: "   "})

	require.Error(t, err)
	assert.Empty(t, taskStore.tasks)
	assert.Empty(t, publisher.created)
}

func TestCreateTaskPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, taskStore, publisher, _ := newTestTaskService(t)
	publisher.publishOK = false

	task, err := svc.CreateTask(context.Background(), uuid.New(), CreateTaskInput{
		Title: "Buy groceries",
	})

	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Len(t, taskStore.tasks, 1, "the task must persist even when the event goes undelivered")
}

func TestCreateTaskStoreFailure(t *testing.T) {
	svc, taskStore, publisher, _ := newTestTaskService(t)
	taskStore.createError = errors.New("connection reset")

	_, err := svc.CreateTask(context.Background(), uuid.New(), CreateTaskInput{
		Title: "Buy groceries",
	})

	require.Error(t, err)
	assert.Empty(t, publisher.created, "no event without a committed mutation")
}

func TestUpdateTaskCompletionPublishesCompletedAndCancelsReminder(t *testing.T) {
	svc, taskStore, publisher, scheduler := newTestTaskService(t)
	userID := uuid.New()
	task := seedTask(t, taskStore, userID, "Buy groceries")

	completed := true
	updated, err := svc.UpdateTask(context.Background(), task.ID, userID, UpdateTaskInput{
		Completed: &completed,
	})

	require.NoError(t, err)
	assert.True(t, updated.Completed)
	require.Len(t, publisher.completed, 1)
	assert.Empty(t, publisher.updated)
	require.Len(t, scheduler.cancelled, 1)
	assert.Equal(t, task.ID, scheduler.cancelled[0])
}

func TestUpdateTaskNonCompletionPublishesUpdated(t *testing.T) {
	svc, taskStore, publisher, _ := newTestTaskService(t)
	userID := uuid.New()
	task := seedTask(t, taskStore, userID, "Buy groceries")

	title := "Buy groceries and milk"
	updated, err := svc.UpdateTask(context.Background(), task.ID, userID, UpdateTaskInput{
		Title: &title,
	})

	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	require.Len(t, publisher.updated, 1)
	assert.Empty(t, publisher.completed)
}

func TestUpdateTaskCompletedStaysCompleted(t *testing.T) {
	svc, taskStore, publisher, _ := newTestTaskService(t)
	userID := uuid.New()
	task := seedTask(t, taskStore, userID, "Buy groceries")
	task.Complete()

	// Setting completed on an already-completed task is not a completion
	// transition, so no task.completed event fires again.
	completed := true
	_, err := svc.UpdateTask(context.Background(), task.ID, userID, UpdateTaskInput{
		Completed: &completed,
	})

	require.NoError(t, err)
	assert.Empty(t, publisher.completed)
	assert.Len(t, publisher.updated, 1)
}

func TestUpdateTaskClearsDueDate(t *testing.T) {
	svc, taskStore, _, _ := newTestTaskService(t)
	userID := uuid.New()
	task := seedTask(t, taskStore, userID, "Buy groceries")
	due := time.Now().Add(time.Hour)
	task.SetDueDate(&due)

	updated, err := svc.UpdateTask(context.Background(), task.ID, userID, UpdateTaskInput{
		SetDueDate: true,
	})

	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)
	assert.Nil(t, updated.ReminderAt)
}

func TestUpdateTaskScopedToOwner(t *testing.T) {
	svc, taskStore, _, _ := newTestTaskService(t)
	task := seedTask(t, taskStore, uuid.New(), "Buy groceries")

	title := "hijacked"
	_, err := svc.UpdateTask(context.Background(), task.ID, uuid.New(), UpdateTaskInput{
		Title: &title,
	})

	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestToggleTask(t *testing.T) {
	svc, taskStore, publisher, scheduler := newTestTaskService(t)
	userID := uuid.New()
	task := seedTask(t, taskStore, userID, "Buy groceries")

	toggled, err := svc.ToggleTask(context.Background(), task.ID, userID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)
	require.Len(t, publisher.completed, 1)
	require.Len(t, scheduler.cancelled, 1)

	toggled, err = svc.ToggleTask(context.Background(), task.ID, userID)
	require.NoError(t, err)
	assert.False(t, toggled.Completed)
	require.Len(t, publisher.updated, 1)
}

func TestDeleteTaskPublishesAndCancels(t *testing.T) {
	svc, taskStore, publisher, scheduler := newTestTaskService(t)
	userID := uuid.New()
	task := seedTask(t, taskStore, userID, "Buy groceries")

	require.NoError(t, svc.DeleteTask(context.Background(), task.ID, userID))

	assert.Empty(t, taskStore.tasks)
	require.Len(t, publisher.deleted, 1)
	assert.Equal(t, task.ID, publisher.deleted[0].ID)
	require.Len(t, scheduler.cancelled, 1)
	assert.Equal(t, task.ID, scheduler.cancelled[0])
}

func TestDeleteTaskScopedToOwner(t *testing.T) {
	svc, taskStore, publisher, _ := newTestTaskService(t)
	task := seedTask(t, taskStore, uuid.New(), "Buy groceries")

	err := svc.DeleteTask(context.Background(), task.ID, uuid.New())

	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.Len(t, taskStore.tasks, 1)
	assert.Empty(t, publisher.deleted)
}

func TestGetTaskScopedToOwner(t *testing.T) {
	svc, taskStore, _, _ := newTestTaskService(t)
	userID := uuid.New()
	task := seedTask(t, taskStore, userID, "Buy groceries")

	got, err := svc.GetTask(context.Background(), task.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = svc.GetTask(context.Background(), task.ID, uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}
