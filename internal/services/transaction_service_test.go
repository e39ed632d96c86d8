package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

type stubPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *stubPublisher) PublishTransactionEvent(ctx context.Context, txID string, userID int64, action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, action)
	return nil
}

type stubInvalidator struct {
	users []int64
}

func (i *stubInvalidator) InvalidateUser(userID int64) {
	i.users = append(i.users, userID)
}

// seededRepo returns a memory repository with a category (id 1) for user 1,
// matching the CategoryID used by validTransaction.
func seededRepo(t *testing.T) *memory.Repository {
	t.Helper()
	repo := memory.New()
	if _, err := repo.CreateCategory(context.Background(), 1, "groceries"); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return repo
}

func validTransaction() core.Transaction {
	return core.Transaction{
		Date:       core.NewDate(2025, 1, 5),
		Amount:     core.Money{Cents: 1250},
		Type:       core.Expense,
		CategoryID: 1,
		Merchant:   "Super Mart",
	}
}

func TestCreatePublishesAndInvalidates(t *testing.T) {
	pub := &stubPublisher{}
	inv := &stubInvalidator{}
	svc := NewTransactionService(seededRepo(t), pub, inv)

	created, err := svc.Create(context.Background(), 1, validTransaction())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Error("created transaction should have an id")
	}
	if len(pub.events) != 1 || pub.events[0] != amqp.ActionCreated {
		t.Errorf("events = %v, want [created]", pub.events)
	}
	if len(inv.users) != 1 || inv.users[0] != 1 {
		t.Errorf("invalidated users = %v, want [1]", inv.users)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc := NewTransactionService(seededRepo(t), &stubPublisher{}, nil)

	tests := []struct {
		name    string
		mutate  func(*core.Transaction)
		wantErr error
	}{
		{"missing merchant", func(tx *core.Transaction) { tx.Merchant = "" }, core.ErrEmptyMerchant},
		{"negative amount", func(tx *core.Transaction) { tx.Amount.Cents = -5 }, core.ErrInvalidAmount},
		{"bad type", func(tx *core.Transaction) { tx.Type = "transfer" }, core.ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			if _, err := svc.Create(context.Background(), 1, tx); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	svc := NewTransactionService(seededRepo(t), &stubPublisher{}, nil)

	tx := validTransaction()
	tx.CategoryID = 999
	_, err := svc.Create(context.Background(), 1, tx)
	var valErr *core.ValidationError
	if !errors.As(err, &valErr) || valErr.Field != "category_id" {
		t.Fatalf("Create error = %v, want category_id validation error", err)
	}
}

func TestUpdateRejectsUnknownCategory(t *testing.T) {
	svc := NewTransactionService(seededRepo(t), &stubPublisher{}, nil)
	created, err := svc.Create(context.Background(), 1, validTransaction())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	missing := int64(999)
	_, err = svc.Update(context.Background(), 1, created.ID, storage.TransactionPatch{CategoryID: &missing})
	var valErr *core.ValidationError
	if !errors.As(err, &valErr) || valErr.Field != "category_id" {
		t.Fatalf("Update error = %v, want category_id validation error", err)
	}
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	svc := NewTransactionService(seededRepo(t), pub, nil)

	created, err := svc.Create(context.Background(), 1, validTransaction())
	if err != nil {
		t.Fatalf("Create should succeed despite publish failure, got %v", err)
	}
	if _, err := svc.Get(context.Background(), 1, created.ID); err != nil {
		t.Errorf("transaction should be persisted, got %v", err)
	}
}

func TestUpdateValidatesPatch(t *testing.T) {
	svc := NewTransactionService(seededRepo(t), &stubPublisher{}, nil)
	created, err := svc.Create(context.Background(), 1, validTransaction())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	bad := core.Money{Cents: -1}
	if _, err := svc.Update(context.Background(), 1, created.ID, storage.TransactionPatch{Amount: &bad}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("error = %v, want ErrInvalidAmount", err)
	}

	empty := ""
	if _, err := svc.Update(context.Background(), 1, created.ID, storage.TransactionPatch{Merchant: &empty}); !errors.Is(err, core.ErrEmptyMerchant) {
		t.Errorf("error = %v, want ErrEmptyMerchant", err)
	}

	income := core.Income
	updated, err := svc.Update(context.Background(), 1, created.ID, storage.TransactionPatch{Type: &income})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Type != core.Income {
		t.Errorf("type = %v, want income", updated.Type)
	}
}

func TestDeletePublishesEvent(t *testing.T) {
	pub := &stubPublisher{}
	svc := NewTransactionService(seededRepo(t), pub, nil)
	created, err := svc.Create(context.Background(), 1, validTransaction())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), 1, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(pub.events) != 2 || pub.events[1] != amqp.ActionDeleted {
		t.Errorf("events = %v, want [created deleted]", pub.events)
	}

	if err := svc.Delete(context.Background(), 1, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}
