package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func seedTransactions(t *testing.T, repo *Repository, userID int64, n int) {
	t.Helper()
	ctx := context.Background()
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		_, err := repo.CreateTransaction(ctx, userID, core.Transaction{
			Date:     core.DateOf(day.AddDate(0, 0, i)),
			Amount:   core.Money{Cents: int64(100 * (i + 1))},
			Type:     core.Expense,
			Merchant: fmt.Sprintf("merchant-%d", i),
		})
		if err != nil {
			t.Fatalf("seed transaction %d: %v", i, err)
		}
	}
}

func TestListTransactionsPagination(t *testing.T) {
	repo := New()
	seedTransactions(t, repo, 1, 37)

	page, err := repo.ListTransactions(context.Background(), 1,
		storage.TransactionFilter{}, storage.PageParams{Page: 3, PerPage: 15})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if page.TotalCount != 37 {
		t.Errorf("total count = %d, want 37", page.TotalCount)
	}
	if page.TotalPages != 3 {
		t.Errorf("total pages = %d, want 3", page.TotalPages)
	}
	if len(page.Items) != 7 {
		t.Errorf("page 3 size = %d, want 7", len(page.Items))
	}
}

func TestListTransactionsOrderedByDateDesc(t *testing.T) {
	repo := New()
	seedTransactions(t, repo, 1, 5)

	page, err := repo.ListTransactions(context.Background(), 1,
		storage.TransactionFilter{}, storage.PageParams{Page: 1, PerPage: 15})
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	for i := 1; i < len(page.Items); i++ {
		prev, cur := page.Items[i-1], page.Items[i]
		if cur.Date.After(prev.Date.Time) {
			t.Errorf("items out of order at %d: %s before %s", i, prev.Date.ISO(), cur.Date.ISO())
		}
	}
}

func TestTransactionsScopedByUser(t *testing.T) {
	repo := New()
	ctx := context.Background()
	created, err := repo.CreateTransaction(ctx, 1, core.Transaction{
		Date:     core.NewDate(2025, 1, 5),
		Amount:   core.Money{Cents: 500},
		Type:     core.Expense,
		Merchant: "Cafe",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if _, err := repo.GetTransaction(ctx, 2, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-user get error = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteTransaction(ctx, 2, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("cross-user delete error = %v, want ErrNotFound", err)
	}
}

func TestUpdateTransactionPartial(t *testing.T) {
	repo := New()
	ctx := context.Background()
	created, err := repo.CreateTransaction(ctx, 1, core.Transaction{
		Date:     core.NewDate(2025, 1, 5),
		Amount:   core.Money{Cents: 500},
		Type:     core.Expense,
		Merchant: "Cafe",
		Notes:    "espresso",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	merchant := "Bistro"
	updated, err := repo.UpdateTransaction(ctx, 1, created.ID, storage.TransactionPatch{Merchant: &merchant})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Merchant != "Bistro" {
		t.Errorf("merchant = %q, want Bistro", updated.Merchant)
	}
	if updated.Notes != "espresso" {
		t.Errorf("notes = %q, want untouched", updated.Notes)
	}
	if updated.Amount.Cents != 500 {
		t.Errorf("amount = %d, want untouched", updated.Amount.Cents)
	}
}

func TestDeleteCategoryUnlinksTransactions(t *testing.T) {
	repo := New()
	ctx := context.Background()
	cat, err := repo.CreateCategory(ctx, 1, "groceries")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	created, err := repo.CreateTransaction(ctx, 1, core.Transaction{
		Date:       core.NewDate(2025, 1, 5),
		Amount:     core.Money{Cents: 500},
		Type:       core.Expense,
		CategoryID: cat.ID,
		Merchant:   "Super Mart",
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	if err := repo.DeleteCategory(ctx, 1, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	got, err := repo.GetTransaction(ctx, 1, created.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.CategoryID != 0 {
		t.Errorf("category id = %d, want 0 after delete", got.CategoryID)
	}
}

func TestUserLifecycle(t *testing.T) {
	repo := New()
	ctx := context.Background()

	u, err := repo.CreateUser(ctx, "a@b.c", "hash", "Ada")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := repo.CreateUser(ctx, "a@b.c", "hash2", "Other"); !errors.Is(err, storage.ErrDuplicateEmail) {
		t.Errorf("duplicate email error = %v, want ErrDuplicateEmail", err)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "a@b.c")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("id = %d, want %d", byEmail.ID, u.ID)
	}

	updated, err := repo.UpdateUserProfile(ctx, u.ID, "Ada Lovelace")
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	if updated.FullName != "Ada Lovelace" {
		t.Errorf("full name = %q", updated.FullName)
	}
}

func TestRecordAuditEvent(t *testing.T) {
	repo := New()
	err := repo.RecordAuditEvent(context.Background(), storage.AuditEvent{
		TransactionID: "tx-1",
		UserID:        1,
		Action:        "created",
	})
	if err != nil {
		t.Fatalf("RecordAuditEvent: %v", err)
	}
	events := repo.AuditEvents()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].OccurredAt.IsZero() {
		t.Error("occurred_at not defaulted")
	}
}
