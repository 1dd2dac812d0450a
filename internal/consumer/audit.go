package consumer

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/taskline/taskline-api/internal/domain"
	"github.com/taskline/taskline-api/internal/events"
	"github.com/taskline/taskline-api/internal/platform/logger"
	"github.com/taskline/taskline-api/internal/store"
)

// AuditConsumer records every task lifecycle event as exactly one audit
// record, keyed by the envelope's event ID.
//
// Idempotency is two-layered: a read-before-write existence check catches
// ordinary redelivery cheaply, and the store's unique index on event_id
// catches the race two concurrent deliveries of the same event can win
// simultaneously. Losing that race surfaces as store.ErrDuplicateEvent and
// is treated identically to the check firing.
type AuditConsumer struct {
	transactor store.Transactor
	auditStore store.AuditStore
	logger     *slog.Logger
}

// NewAuditConsumer creates an AuditConsumer.
func NewAuditConsumer(transactor store.Transactor, auditStore store.AuditStore, log *slog.Logger) *AuditConsumer {
	if transactor == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("transactor cannot be nil for AuditConsumer")
	}
	if auditStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("auditStore cannot be nil for AuditConsumer")
	}
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuditConsumer")
	}

	return &AuditConsumer{
		transactor: transactor,
		auditStore: auditStore,
		logger:     log.With(slog.String("component", "audit_consumer")),
	}
}

// Handle processes one delivery of a lifecycle event.
func (c *AuditConsumer) Handle(ctx context.Context, envelope *events.Envelope) Outcome {
	log := logger.FromContextOrDefault(ctx, c.logger)

	// A malformed timestamp is recoverable: fall back to the current time
	// rather than failing the whole consumption.
	timestamp, err := envelope.Time()
	if err != nil {
		log.Warn("unparseable event timestamp, using current time",
			slog.String("event_id", envelope.EventID),
			slog.String("timestamp", envelope.Timestamp))
		timestamp = time.Now().UTC()
	}

	outcome := OutcomeSuccess
	txErr := c.transactor.InTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		auditStore := c.auditStore.WithTx(tx)

		exists, err := auditStore.ExistsByEventID(ctx, envelope.EventID)
		if err != nil {
			return err
		}
		if exists {
			outcome = OutcomeDuplicate
			return nil
		}

		record, err := domain.NewAuditRecord(
			envelope.EventID,
			string(envelope.EventType),
			envelope.UserID,
			envelope.TaskID,
			timestamp,
			string(envelope.Payload),
		)
		if err != nil {
			return err
		}

		return auditStore.Create(ctx, record)
	})

	if txErr != nil {
		// Concurrent delivery of the same event: the other delivery's
		// insert committed first.
		if errors.Is(txErr, store.ErrDuplicateEvent) {
			log.Info("audit record already exists for event",
				slog.String("event_id", envelope.EventID))
			return OutcomeDuplicate
		}
		log.Error("failed to record audit event",
			slog.String("event_id", envelope.EventID),
			slog.String("error", txErr.Error()))
		return OutcomeRetry
	}

	if outcome == OutcomeDuplicate {
		log.Info("audit record already exists for event",
			slog.String("event_id", envelope.EventID))
		return OutcomeDuplicate
	}

	log.Info("audit record created",
		slog.String("event_id", envelope.EventID),
		slog.String("event_type", string(envelope.EventType)),
		slog.String("task_id", envelope.TaskID))
	return OutcomeSuccess
}
