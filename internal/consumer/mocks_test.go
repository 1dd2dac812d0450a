package consumer

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/store"
)

// fakeTransactor runs the function directly with a nil transaction. The
// store fakes ignore their transaction anyway.
type fakeTransactor struct {
	inTransactionError error
	calls              int
}

func (f *fakeTransactor) InTransaction(ctx context.Context, fn store.TxFn) error {
	f.calls++
	if f.inTransactionError != nil {
		return f.inTransactionError
	}
	return fn(ctx, nil)
}

// fakeAuditStore keeps audit records in memory, keyed by event ID.
type fakeAuditStore struct {
	records map[string]*domain.AuditRecord

	existsError error
	createError error
}

func newFakeAuditStore() *fakeAuditStore {
	return &fakeAuditStore{records: make(map[string]*domain.AuditRecord)}
}

func (f *fakeAuditStore) Create(ctx context.Context, record *domain.AuditRecord) error {
	if f.createError != nil {
		return f.createError
	}
	if _, ok := f.records[record.EventID]; ok {
		return store.ErrDuplicateEvent
	}
	f.records[record.EventID] = record
	return nil
}

func (f *fakeAuditStore) ExistsByEventID(ctx context.Context, eventID string) (bool, error) {
	if f.existsError != nil {
		return false, f.existsError
	}
	_, ok := f.records[eventID]
	return ok, nil
}

func (f *fakeAuditStore) ListForUser(ctx context.Context, userID string, filter store.AuditFilter) ([]*domain.AuditRecord, error) {
	var out []*domain.AuditRecord
	for _, record := range f.records {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeAuditStore) WithTx(tx *sql.Tx) store.AuditStore {
	return f
}

// fakeTaskStore keeps tasks in memory, keyed by task ID.
type fakeTaskStore struct {
	tasks map[uuid.UUID]*domain.Task

	getError    error
	createError error

	created []*domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (f *fakeTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if f.createError != nil {
		return f.createError
	}
	f.tasks[task.ID] = task
	f.created = append(f.created, task)
	return nil
}

func (f *fakeTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if f.getError != nil {
		return nil, f.getError
	}
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
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
	var out []*domain.Task
	for _, task := range f.tasks {
		if task.UserID == userID {
			out = append(out, task)
		}
	}
	return out, len(out), nil
}

func (f *fakeTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return f
}

// fakeReminderPublisher records reminder trigger publishes.
type fakeReminderPublisher struct {
	publishOK bool
	triggered []*domain.Task
}

func (f *fakeReminderPublisher) PublishReminderTrigger(ctx context.Context, userID string, task *domain.Task) bool {
	f.triggered = append(f.triggered, task)
	return f.publishOK
}
