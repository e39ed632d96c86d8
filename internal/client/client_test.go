package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// fixtureServer serves a fixed transaction set with real pagination math.
func fixtureServer(t *testing.T, txs []core.Transaction, cats []core.Category) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/categories", func(w http.ResponseWriter, r *http.Request) {
		if cats == nil {
			cats = []core.Category{}
		}
		json.NewEncoder(w).Encode(cats)
	})
	mux.HandleFunc("/api/v1/transactions", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		if page < 1 {
			page = 1
		}
		if perPage < 1 {
			perPage = 15
		}

		start := (page - 1) * perPage
		if start > len(txs) {
			start = len(txs)
		}
		end := start + perPage
		if end > len(txs) {
			end = len(txs)
		}
		totalPages := (len(txs) + perPage - 1) / perPage

		json.NewEncoder(w).Encode(map[string]any{
			"data": txs[start:end],
			"pagination": map[string]int{
				"total_count":  len(txs),
				"current_page": page,
				"per_page":     perPage,
				"total_pages":  totalPages,
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func fixtureTransactions(n int) []core.Transaction {
	txs := make([]core.Transaction, n)
	for i := range txs {
		txs[i] = core.Transaction{
			ID:         fmt.Sprintf("tx-%03d", i),
			Date:       core.NewDate(2025, 1, 1+i%28),
			Amount:     core.Money{Cents: int64(100 * (i + 1))},
			Type:       core.Expense,
			CategoryID: int64(1 + i%2),
			Merchant:   fmt.Sprintf("merchant-%d", i),
		}
	}
	return txs
}

func TestPageJoinsCategoryNames(t *testing.T) {
	cats := []core.Category{{ID: 1, Name: "groceries"}, {ID: 2, Name: "dining"}}
	srv := fixtureServer(t, fixtureTransactions(3), cats)

	st := store.New()
	c := New(srv.URL, st)
	if err := c.RefreshCategories(context.Background()); err != nil {
		t.Fatalf("RefreshCategories: %v", err)
	}

	view, err := c.Page(context.Background(), 1, 15)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if len(view.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(view.Rows))
	}
	if view.Rows[0].CategoryName != "groceries" || view.Rows[1].CategoryName != "dining" {
		t.Errorf("joined names = %q, %q", view.Rows[0].CategoryName, view.Rows[1].CategoryName)
	}
	if view.Rows[0].AmountDisplay == "" {
		t.Error("amount display should be rendered")
	}
}

func TestPagePaginationMath(t *testing.T) {
	srv := fixtureServer(t, fixtureTransactions(37), nil)
	c := New(srv.URL, store.New())

	view, err := c.Page(context.Background(), 3, 15)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if view.TotalCount != 37 || view.TotalPages != 3 {
		t.Errorf("total_count=%d total_pages=%d, want 37/3", view.TotalCount, view.TotalPages)
	}
	if len(view.Rows) != 7 {
		t.Errorf("page 3 rows = %d, want 7", len(view.Rows))
	}
}

func TestRefreshReplacesStore(t *testing.T) {
	srv := fixtureServer(t, fixtureTransactions(37), nil)
	st := store.New()
	c := New(srv.URL, st, WithBulkPageSize(10))

	notified := 0
	cancel := st.Subscribe(func() { notified++ })
	defer cancel()

	view, err := c.Refresh(context.Background(), 1, 15)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(view.Rows) != 15 {
		t.Errorf("view rows = %d, want 15", len(view.Rows))
	}
	if st.Len() != 37 {
		t.Errorf("store len = %d, want full snapshot 37", st.Len())
	}
	if notified != 1 {
		t.Errorf("subscriber notified %d times, want 1", notified)
	}
}

func TestReportsComputedFromStoreSnapshot(t *testing.T) {
	cats := []core.Category{{ID: 1, Name: "groceries"}, {ID: 2, Name: "dining"}}
	srv := fixtureServer(t, fixtureTransactions(3), cats)
	st := store.New()
	c := New(srv.URL, st)

	// Before any refresh the snapshot is empty and reports reflect that.
	if kpis := c.KPIs(core.RangeMonthly); kpis[0].Value.Cents != 0 {
		t.Errorf("pre-refresh balance = %d, want 0", kpis[0].Value.Cents)
	}

	if _, err := c.Refresh(context.Background(), 1, 15); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Three expenses of 1.00, 2.00, 3.00: balance -6.00.
	kpis := c.KPIs(core.RangeMonthly)
	if kpis[0].Value.Cents != -600 {
		t.Errorf("balance = %d, want -600", kpis[0].Value.Cents)
	}

	dist := c.Distribution()
	if len(dist) != 2 {
		t.Fatalf("distribution slices = %d, want 2", len(dist))
	}
	if dist[0].Category != "groceries" || dist[0].Amount.Cents != 400 {
		t.Errorf("largest slice = %+v, want groceries 400", dist[0])
	}

	if ins := c.Insights(); ins.LargestMerchant.Name != "merchant-2" {
		t.Errorf("largest merchant = %q, want merchant-2", ins.LargestMerchant.Name)
	}
}

func TestRefreshKeepsStaleStateOnFailure(t *testing.T) {
	srv := fixtureServer(t, fixtureTransactions(5), nil)
	st := store.New()
	c := New(srv.URL, st)

	if _, err := c.Refresh(context.Background(), 1, 15); err != nil {
		t.Fatalf("initial Refresh: %v", err)
	}
	srv.Close()

	_, err := c.Refresh(context.Background(), 1, 15)
	var netErr *core.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	if st.Len() != 5 {
		t.Errorf("store len = %d, want stale 5", st.Len())
	}
}

func TestAuthErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, store.New())
	c.SetToken("expired")

	_, err := c.Page(context.Background(), 1, 15)
	var authErr *core.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want AuthError", err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", authErr.Status)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"data": []core.Transaction{}, "pagination": map[string]int{}})
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, store.New())
	c.SetToken("token-123")

	if _, err := c.Page(context.Background(), 1, 15); err != nil {
		t.Fatalf("Page: %v", err)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("Authorization = %q, want Bearer token-123", gotAuth)
	}
}
