package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/store"
)

// fakeTaskStore keeps tasks in insertion order so list replies are
// deterministic.
type fakeTaskStore struct {
	tasks []*domain.Task

	createError error
	getError    error
	updateError error
	deleteError error
	listError   error

	updated []*domain.Task
	deleted []uuid.UUID
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if f.createError != nil {
		return f.createError
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if f.getError != nil {
		return nil, f.getError
	}
	for _, task := range f.tasks {
		if task.ID == id {
			return task, nil
		}
	}
	return nil, store.ErrTaskNotFound
}

func (f *fakeTaskStore) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	task, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeTaskStore) ListForUser(ctx context.Context, userID uuid.UUID, filter store.TaskFilter) ([]*domain.Task, int, error) {
	if f.listError != nil {
		return nil, 0, f.listError
	}
	var matched []*domain.Task
	for _, task := range f.tasks {
		if task.UserID != userID {
			continue
		}
		switch filter.Status {
		case store.TaskStatusPending:
			if task.Completed {
				continue
			}
		case store.TaskStatusCompleted:
			if !task.Completed {
				continue
			}
		}
		matched = append(matched, task)
	}
	total := len(matched)
	if filter.PageSize > 0 && len(matched) > filter.PageSize {
		matched = matched[:filter.PageSize]
	}
	return matched, total, nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if f.updateError != nil {
		return f.updateError
	}
	for i, existing := range f.tasks {
		if existing.ID == task.ID {
			f.tasks[i] = task
			f.updated = append(f.updated, task)
			return nil
		}
	}
	return store.ErrTaskNotFound
}

func (f *fakeTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteError != nil {
		return f.deleteError
	}
	for i, existing := range f.tasks {
		if existing.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			f.deleted = append(f.deleted, id)
			return nil
		}
	}
	return store.ErrTaskNotFound
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return f
}

// fakePublisher records which lifecycle events were published.
type fakePublisher struct {
	publishOK bool

	created   []*domain.Task
	updated   []*domain.Task
	completed []*domain.Task
	deleted   []*domain.Task
}

func (f *fakePublisher) PublishTaskCreated(ctx context.Context, userID string, task *domain.Task) bool {
	f.created = append(f.created, task)
	return f.publishOK
}

func (f *fakePublisher) PublishTaskUpdated(ctx context.Context, userID string, task *domain.Task) bool {
	f.updated = append(f.updated, task)
	return f.publishOK
}

func (f *fakePublisher) PublishTaskCompleted(ctx context.Context, userID string, task *domain.Task) bool {
	f.completed = append(f.completed, task)
	return f.publishOK
}

func (f *fakePublisher) PublishTaskDeleted(ctx context.Context, userID string, task *domain.Task) bool {
	f.deleted = append(f.deleted, task)
	return f.publishOK
}

// fakeScheduler records reminder scheduling calls.
type fakeScheduler struct {
	scheduleOK bool
	cancelOK   bool

	scheduled []*domain.Task
	cancelled []uuid.UUID
}

func (f *fakeScheduler) ScheduleReminder(ctx context.Context, userID string, task *domain.Task) bool {
	f.scheduled = append(f.scheduled, task)
	return f.scheduleOK
}

func (f *fakeScheduler) CancelReminder(ctx context.Context, taskID uuid.UUID) bool {
	f.cancelled = append(f.cancelled, taskID)
	return f.cancelOK
}
