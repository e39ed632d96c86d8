package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// EventPublisher pushes change notifications onto the broker. The AMQP
// client satisfies it; tests use a stub.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, txID string, userID int64, action string) error
}

// ReportInvalidator drops cached report payloads for a user after a
// mutation so the next report request recomputes.
type ReportInvalidator interface {
	InvalidateUser(userID int64)
}

// TransactionService orchestrates transaction writes across storage, the
// event bus and the report cache.
type TransactionService struct {
	repo        storage.Repository
	publisher   EventPublisher
	invalidator ReportInvalidator
}

func NewTransactionService(repo storage.Repository, publisher EventPublisher, invalidator ReportInvalidator) *TransactionService {
	return &TransactionService{
		repo:        repo,
		publisher:   publisher,
		invalidator: invalidator,
	}
}

func (s *TransactionService) Create(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkCategory(ctx, userID, t.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.repo.CreateTransaction(ctx, userID, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.afterMutation(ctx, created.ID, userID, amqp.ActionCreated)
	return created, nil
}

func (s *TransactionService) Get(ctx context.Context, userID int64, id string) (core.Transaction, error) {
	return s.repo.GetTransaction(ctx, userID, id)
}

func (s *TransactionService) List(ctx context.Context, userID int64, f storage.TransactionFilter, p storage.PageParams) (storage.TransactionPage, error) {
	return s.repo.ListTransactions(ctx, userID, f, p)
}

func (s *TransactionService) Update(ctx context.Context, userID int64, id string, patch storage.TransactionPatch) (core.Transaction, error) {
	if patch.Amount != nil && patch.Amount.Cents < 0 {
		return core.Transaction{}, core.ErrInvalidAmount
	}
	if patch.Type != nil {
		if *patch.Type != core.Income && *patch.Type != core.Expense {
			return core.Transaction{}, core.ErrInvalidType
		}
	}
	if patch.Merchant != nil && *patch.Merchant == "" {
		return core.Transaction{}, core.ErrEmptyMerchant
	}
	if patch.CategoryID != nil {
		if err := s.checkCategory(ctx, userID, *patch.CategoryID); err != nil {
			return core.Transaction{}, err
		}
	}

	updated, err := s.repo.UpdateTransaction(ctx, userID, id, patch)
	if err != nil {
		return core.Transaction{}, err
	}

	s.afterMutation(ctx, id, userID, amqp.ActionUpdated)
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID int64, id string) error {
	if err := s.repo.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}

	s.afterMutation(ctx, id, userID, amqp.ActionDeleted)
	return nil
}

// checkCategory verifies the referenced category belongs to the user. The
// transactions table carries no foreign key, so the reference is enforced
// here before the write.
func (s *TransactionService) checkCategory(ctx context.Context, userID, categoryID int64) error {
	if categoryID == 0 {
		return nil
	}
	if _, err := s.repo.GetCategory(ctx, userID, categoryID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &core.ValidationError{Field: "category_id", Reason: "unknown category"}
		}
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

// afterMutation is best effort: the write already succeeded, so publish and
// cache failures are logged, not returned.
func (s *TransactionService) afterMutation(ctx context.Context, txID string, userID int64, action string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(userID)
	}

	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping transaction event",
			"transaction_id", txID, "action", action)
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, txID, userID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"transaction_id", txID,
			"action", action,
			"error", err)
	}
}
