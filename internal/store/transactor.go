package store

import (
	"context"
	"database/sql"
)

// Transactor runs a function inside one short-lived database transaction.
// Consumers depend on this interface instead of *sql.DB directly so unit
// tests can substitute a pass-through implementation.
type Transactor interface {
	InTransaction(ctx context.Context, fn TxFn) error
}

// DBTransactor is the production Transactor backed by a *sql.DB.
type DBTransactor struct {
	db *sql.DB
}

// NewDBTransactor creates a Transactor over the given database handle.
func NewDBTransactor(db *sql.DB) *DBTransactor {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil for DBTransactor")
	}
	return &DBTransactor{db: db}
}

// Ensure DBTransactor implements Transactor
var _ Transactor = (*DBTransactor)(nil)

// InTransaction implements Transactor.InTransaction
func (t *DBTransactor) InTransaction(ctx context.Context, fn TxFn) error {
	return RunInTransaction(ctx, t.db, fn)
}
