package storage

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/core"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// User is a registered account. FinancialYearStart is the month (1-12) the
// user's reporting year begins.
type User struct {
	ID                 int64
	Email              string
	PasswordHash       string
	FullName           string
	FinancialYearStart int
	CreatedAt          time.Time
}

// TransactionFilter narrows a listing. Zero values mean "no constraint".
type TransactionFilter struct {
	Type       core.TransactionType
	CategoryID int64
	From       core.Date
	To         core.Date
}

type PageParams struct {
	Page    int
	PerPage int
}

// TransactionPage is one page of results plus the metadata the list UI
// needs independently of the in-memory store.
type TransactionPage struct {
	Items      []core.Transaction
	TotalCount int
	TotalPages int
	Page       int
	PerPage    int
}

// TransactionPatch carries a partial update; nil fields are left untouched.
// id, ownership and created_at are never client-assignable.
type TransactionPatch struct {
	Date       *core.Date
	Amount     *core.Money
	Type       *core.TransactionType
	CategoryID *int64
	Merchant   *string
	Notes      *string
	Currency   *string
	ReceiptURL *string
}

// AuditEvent records a transaction mutation, written by the worker.
type AuditEvent struct {
	ID            int64
	TransactionID string
	UserID        int64
	Action        string
	OccurredAt    time.Time
}

// Ports for the persistence adapters.
type (
	TransactionRepository interface {
		CreateTransaction(ctx context.Context, userID int64, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, userID int64, id string) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, userID int64, id string, patch TransactionPatch) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID int64, id string) error
		// ListTransactions orders by date descending, then id descending,
		// so paging is deterministic.
		ListTransactions(ctx context.Context, userID int64, f TransactionFilter, p PageParams) (TransactionPage, error)
	}

	CategoryRepository interface {
		ListCategories(ctx context.Context, userID int64) ([]core.Category, error)
		GetCategory(ctx context.Context, userID int64, id int64) (core.Category, error)
		CreateCategory(ctx context.Context, userID int64, name string) (core.Category, error)
		UpdateCategory(ctx context.Context, userID int64, id int64, name string) (core.Category, error)
		DeleteCategory(ctx context.Context, userID int64, id int64) error
	}

	UserRepository interface {
		CreateUser(ctx context.Context, email, passwordHash, fullName string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByID(ctx context.Context, id int64) (User, error)
		UpdateUserProfile(ctx context.Context, id int64, fullName string) (User, error)
	}

	AuditRepository interface {
		RecordAuditEvent(ctx context.Context, ev AuditEvent) error
	}
)

// Repository is the full persistence surface the server wires up.
type Repository interface {
	TransactionRepository
	CategoryRepository
	UserRepository
	AuditRepository
}

// ClampPage normalizes paging guardrails: page at least 1, per-page within
// [1, maxPerPage] with 15 as the default.
func ClampPage(p PageParams, maxPerPage int) PageParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 15
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

// PageCount derives the number of pages for a total at the given size.
func PageCount(total, perPage int) int {
	if perPage < 1 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
