// Package memory provides an in-process Repository used by tests and by
// deployments that don't need durable storage.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type Repository struct {
	mu         sync.RWMutex
	txs        map[string]ownedTransaction
	categories map[int64]ownedCategory
	users      map[int64]storage.User
	audits     []storage.AuditEvent
	nextCat    int64
	nextUser   int64
}

type ownedTransaction struct {
	userID int64
	tx     core.Transaction
}

type ownedCategory struct {
	userID int64
	cat    core.Category
}

func New() *Repository {
	return &Repository{
		txs:        make(map[string]ownedTransaction),
		categories: make(map[int64]ownedCategory),
		users:      make(map[int64]storage.User),
		nextCat:    1,
		nextUser:   1,
	}
}

func (r *Repository) Close() error { return nil }

func (r *Repository) Ping(ctx context.Context) error { return nil }

func (r *Repository) CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[t.ID] = ownedTransaction{userID: userID, tx: t}
	return t, nil
}

func (r *Repository) GetTransaction(ctx context.Context, userID int64, id string) (core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owned, ok := r.txs[id]
	if !ok || owned.userID != userID {
		return core.Transaction{}, storage.ErrNotFound
	}
	return owned.tx, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, userID int64, id string, patch storage.TransactionPatch) (core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owned, ok := r.txs[id]
	if !ok || owned.userID != userID {
		return core.Transaction{}, storage.ErrNotFound
	}
	t := owned.tx
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.CategoryID != nil {
		t.CategoryID = *patch.CategoryID
	}
	if patch.Merchant != nil {
		t.Merchant = *patch.Merchant
	}
	if patch.Notes != nil {
		t.Notes = *patch.Notes
	}
	if patch.Currency != nil {
		t.Currency = *patch.Currency
	}
	if patch.ReceiptURL != nil {
		t.ReceiptURL = *patch.ReceiptURL
	}
	r.txs[id] = ownedTransaction{userID: userID, tx: t}
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, userID int64, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owned, ok := r.txs[id]
	if !ok || owned.userID != userID {
		return storage.ErrNotFound
	}
	delete(r.txs, id)
	return nil
}

func matches(t core.Transaction, f storage.TransactionFilter) bool {
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.CategoryID != 0 && t.CategoryID != f.CategoryID {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To.Time) {
		return false
	}
	return true
}

func (r *Repository) ListTransactions(ctx context.Context, userID int64, f storage.TransactionFilter, p storage.PageParams) (storage.TransactionPage, error) {
	r.mu.RLock()
	all := make([]core.Transaction, 0, len(r.txs))
	for _, owned := range r.txs {
		if owned.userID == userID && matches(owned.tx, f) {
			all = append(all, owned.tx)
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date.Time) {
			return all[i].Date.After(all[j].Date.Time)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	start := (p.Page - 1) * p.PerPage
	if start > total {
		start = total
	}
	end := start + p.PerPage
	if end > total {
		end = total
	}

	return storage.TransactionPage{
		Items:      all[start:end],
		TotalCount: total,
		TotalPages: storage.PageCount(total, p.PerPage),
		Page:       p.Page,
		PerPage:    p.PerPage,
	}, nil
}

func (r *Repository) ListCategories(ctx context.Context, userID int64) ([]core.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []core.Category{}
	for _, owned := range r.categories {
		if owned.userID == userID {
			out = append(out, owned.cat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Repository) GetCategory(ctx context.Context, userID, id int64) (core.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owned, ok := r.categories[id]
	if !ok || owned.userID != userID {
		return core.Category{}, storage.ErrNotFound
	}
	return owned.cat, nil
}

func (r *Repository) CreateCategory(ctx context.Context, userID int64, name string) (core.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := core.Category{ID: r.nextCat, Name: name}
	r.nextCat++
	r.categories[c.ID] = ownedCategory{userID: userID, cat: c}
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, userID, id int64, name string) (core.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owned, ok := r.categories[id]
	if !ok || owned.userID != userID {
		return core.Category{}, storage.ErrNotFound
	}
	owned.cat.Name = name
	r.categories[id] = owned
	return owned.cat, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owned, ok := r.categories[id]
	if !ok || owned.userID != userID {
		return storage.ErrNotFound
	}
	delete(r.categories, id)
	for txID, ot := range r.txs {
		if ot.userID == userID && ot.tx.CategoryID == id {
			ot.tx.CategoryID = 0
			r.txs[txID] = ot
		}
	}
	return nil
}

func (r *Repository) CreateUser(ctx context.Context, email, passwordHash, fullName string) (storage.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return storage.User{}, storage.ErrDuplicateEmail
		}
	}
	u := storage.User{
		ID:                 r.nextUser,
		Email:              email,
		PasswordHash:       passwordHash,
		FullName:           fullName,
		FinancialYearStart: 1,
		CreatedAt:          time.Now().UTC(),
	}
	r.nextUser++
	r.users[u.ID] = u
	return u, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (storage.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return storage.User{}, storage.ErrNotFound
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (storage.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	return u, nil
}

func (r *Repository) UpdateUserProfile(ctx context.Context, id int64, fullName string) (storage.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return storage.User{}, storage.ErrNotFound
	}
	u.FullName = fullName
	r.users[id] = u
	return u, nil
}

func (r *Repository) RecordAuditEvent(ctx context.Context, ev storage.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	ev.ID = int64(len(r.audits) + 1)
	r.audits = append(r.audits, ev)
	return nil
}

// AuditEvents returns recorded events, oldest first.
func (r *Repository) AuditEvents() []storage.AuditEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]storage.AuditEvent, len(r.audits))
	copy(out, r.audits)
	return out
}
