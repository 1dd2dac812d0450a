package consumer

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
	"github.com/taskline/taskline-api/internal/events"
)

func recurringTask(t *testing.T, taskStore *fakeTaskStore, pattern domain.RecurrencePattern, due *time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(uuid.New(), "Water the plants")
	require.NoError(t, err)
	task.RecurrencePattern = pattern
	task.RecurrenceEnabled = true
	task.SetDueDate(due)
	task.Complete()
	taskStore.tasks[task.ID] = task
	return task
}

func completionEnvelope(t *testing.T, task *domain.Task) *events.Envelope {
	t.Helper()
	envelope, err := events.NewEnvelope(
		events.EventTaskCompleted,
		task.UserID.String(),
		task.ID.String(),
		events.TaskCompletedPayload{
			RecurrenceEnabled: task.RecurrenceEnabled,
			RecurrencePattern: string(task.RecurrencePattern),
		},
	)
	require.NoError(t, err)
	return envelope
}

func TestRecurrenceConsumerGeneratesNextInstance(t *testing.T) {
	taskStore := newFakeTaskStore()
	consumer := NewRecurrenceConsumer(&fakeTransactor{}, taskStore, slog.Default())

	due := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	task := recurringTask(t, taskStore, domain.RecurrenceWeekly, &due)

	outcome := consumer.Handle(context.Background(), completionEnvelope(t, task))

	assert.Equal(t, OutcomeSuccess, outcome)
	require.Len(t, taskStore.created, 1)

	instance := taskStore.created[0]
	assert.Equal(t, task.Title, instance.Title)
	assert.False(t, instance.Completed)
	require.NotNil(t, instance.ParentTaskID)
	assert.Equal(t, task.ID, *instance.ParentTaskID)

	require.NotNil(t, instance.DueDate)
	want := time.Date(2024, time.January, 8, 9, 0, 0, 0, time.UTC)
	assert.True(t, instance.DueDate.Equal(want), "got %v, want %v", instance.DueDate, want)
}

func TestRecurrenceConsumerDropsNonCompletionEvents(t *testing.T) {
	consumer := NewRecurrenceConsumer(&fakeTransactor{}, newFakeTaskStore(), slog.Default())

	envelope, err := events.NewEnvelope(
		events.EventTaskUpdated,
		uuid.New().String(),
		uuid.New().String(),
		events.TaskUpdatedPayload{},
	)
	require.NoError(t, err)

	assert.Equal(t, OutcomeDrop, consumer.Handle(context.Background(), envelope))
}

func TestRecurrenceConsumerDropsNonRecurringPayload(t *testing.T) {
	taskStore := newFakeTaskStore()
	consumer := NewRecurrenceConsumer(&fakeTransactor{}, taskStore, slog.Default())

	envelope, err := events.NewEnvelope(
		events.EventTaskCompleted,
		uuid.New().String(),
		uuid.New().String(),
		events.TaskCompletedPayload{RecurrenceEnabled: false},
	)
	require.NoError(t, err)

	assert.Equal(t, OutcomeDrop, consumer.Handle(context.Background(), envelope))
	assert.Empty(t, taskStore.created)
}

func TestRecurrenceConsumerDropsWhenTaskDeleted(t *testing.T) {
	taskStore := newFakeTaskStore()
	consumer := NewRecurrenceConsumer(&fakeTransactor{}, taskStore, slog.Default())

	due := time.Now()
	task := recurringTask(t, taskStore, domain.RecurrenceDaily, &due)
	envelope := completionEnvelope(t, task)
	delete(taskStore.tasks, task.ID)

	assert.Equal(t, OutcomeDrop, consumer.Handle(context.Background(), envelope))
	assert.Empty(t, taskStore.created)
}

func TestRecurrenceConsumerDropsWhenRecurrenceSinceDisabled(t *testing.T) {
	taskStore := newFakeTaskStore()
	consumer := NewRecurrenceConsumer(&fakeTransactor{}, taskStore, slog.Default())

	due := time.Now()
	task := recurringTask(t, taskStore, domain.RecurrenceDaily, &due)
	envelope := completionEnvelope(t, task)

	// The user disabled recurrence between completion and delivery; the
	// stored task wins over the payload snapshot.
	task.RecurrenceEnabled = false

	assert.Equal(t, OutcomeDrop, consumer.Handle(context.Background(), envelope))
	assert.Empty(t, taskStore.created)
}

func TestRecurrenceConsumerRetriesOnStoreFailure(t *testing.T) {
	taskStore := newFakeTaskStore()
	consumer := NewRecurrenceConsumer(&fakeTransactor{}, taskStore, slog.Default())

	due := time.Now()
	task := recurringTask(t, taskStore, domain.RecurrenceDaily, &due)
	taskStore.createError = errors.New("connection reset")

	assert.Equal(t, OutcomeRetry, consumer.Handle(context.Background(), completionEnvelope(t, task)))
}

func TestRecurrenceConsumerWithoutDueDate(t *testing.T) {
	taskStore := newFakeTaskStore()
	consumer := NewRecurrenceConsumer(&fakeTransactor{}, taskStore, slog.Default())

	task := recurringTask(t, taskStore, domain.RecurrenceDaily, nil)

	outcome := consumer.Handle(context.Background(), completionEnvelope(t, task))

	assert.Equal(t, OutcomeSuccess, outcome)
	require.Len(t, taskStore.created, 1)
	assert.Nil(t, taskStore.created[0].DueDate)
}
