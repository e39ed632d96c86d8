package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	RangeWeekly  TimeRange = "weekly"
	RangeMonthly TimeRange = "monthly"
	RangeYearly  TimeRange = "yearly"
)

type (
	TransactionType string

	// TimeRange selects the aggregation window granularity.
	TimeRange string

	Date struct {
		time.Time
	}

	// Transaction is a single financial event. Amount carries the magnitude
	// only; the sign lives in Type.
	Transaction struct {
		ID         string          `json:"id"`
		Date       Date            `json:"date"`
		Amount     Money           `json:"amount"`
		Type       TransactionType `json:"type"`
		Category   string          `json:"category,omitempty"`
		CategoryID int64           `json:"category_id,omitempty"`
		Merchant   string          `json:"merchant"`
		Notes      string          `json:"notes,omitempty"`
		Currency   string          `json:"currency,omitempty"`
		ReceiptURL string          `json:"receipt_url,omitempty"`
	}

	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrEmptyMerchant = errors.New("empty merchant")
	ErrInvalidRange  = errors.New("invalid time range")
	ErrEmptyCategory = errors.New("empty category name")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (r TimeRange) Valid() bool {
	switch r {
	case RangeWeekly, RangeMonthly, RangeYearly:
		return true
	}
	return false
}

// Buckets returns the number of points a growth series has for this range.
func (r TimeRange) Buckets() int {
	switch r {
	case RangeWeekly:
		return 7
	case RangeMonthly:
		return 30
	case RangeYearly:
		return 12
	}
	return 0
}

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ISO returns the date formatted as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.ISO())
}

// UnmarshalJSON accepts a bare date (2025-01-05) or a full RFC 3339
// timestamp, keeping only the calendar date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		*d = DateOf(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, ErrInvalidDate)
	}
	*d = DateOf(t)
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if len(t.Notes) > 500 {
		return errors.New("notes too long (max 500 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	return nil
}
