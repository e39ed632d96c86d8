// Package worker consumes transaction events off the broker and writes
// audit rows, keeping a durable change history independent of the API path.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/storage"
)

type AuditWorker struct {
	repo storage.Repository
}

func NewAuditWorker(repo storage.Repository) *AuditWorker {
	return &AuditWorker{repo: repo}
}

// HandleEvent records one transaction event. Deletes of already-gone
// transactions are still recorded; the event itself is the fact of record.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	if msg.TransactionID == "" {
		return fmt.Errorf("event missing transaction id")
	}
	switch msg.Action {
	case amqp.ActionCreated, amqp.ActionUpdated, amqp.ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", msg.Action)
	}

	// The record may be gone by the time the event arrives; log and keep the
	// audit row either way.
	if msg.Action != amqp.ActionDeleted {
		if _, err := w.repo.GetTransaction(ctx, msg.UserID, msg.TransactionID); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("verify transaction: %w", err)
			}
			slog.WarnContext(ctx, "Audited transaction no longer exists",
				"transaction_id", msg.TransactionID,
				"action", msg.Action)
		}
	}

	err := w.repo.RecordAuditEvent(ctx, storage.AuditEvent{
		TransactionID: msg.TransactionID,
		UserID:        msg.UserID,
		Action:        msg.Action,
		OccurredAt:    msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}

	slog.InfoContext(ctx, "Audit event recorded",
		"transaction_id", msg.TransactionID,
		"user_id", msg.UserID,
		"action", msg.Action)
	return nil
}

// Run consumes events until ctx is done, reconnecting on broker failures.
func (w *AuditWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeWithReconnect(ctx, func(msg *amqp.TransactionEvent) error {
		return w.HandleEvent(ctx, msg)
	})
}
