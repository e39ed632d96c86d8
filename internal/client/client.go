// Package client is the API consumer behind the dashboard views. It talks
// to the REST interface, keeps the shared transaction store fresh and joins
// category names onto rows for display.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

const defaultBulkPageSize = 1000

type Client struct {
	baseURL string
	httpc   *http.Client
	store   *store.Store
	engine  core.Engine

	mu           sync.RWMutex
	token        string
	resolver     *core.Resolver
	bulkPageSize int
	locale       string
	currency     string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

func WithBulkPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.bulkPageSize = n
		}
	}
}

// WithLocale sets the locale and fallback currency used to render amounts.
func WithLocale(locale, currency string) Option {
	return func(c *Client) {
		c.locale = locale
		c.currency = currency
	}
}

func New(baseURL string, st *store.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		httpc:        &http.Client{Timeout: 15 * time.Second},
		store:        st,
		engine:       core.NewEngine(),
		resolver:     core.NewResolver(nil),
		bulkPageSize: defaultBulkPageSize,
		locale:       "en",
		currency:     "USD",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken installs the bearer token attached to every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Row is a display-ready transaction with its category name joined on and
// the amount rendered in the client's locale.
type Row struct {
	core.Transaction
	CategoryName  string `json:"category_name"`
	AmountDisplay string `json:"amount_display"`
}

// displayAmount renders an amount in the row's currency, falling back to a
// plain decimal when the code or locale can't be formatted.
func (c *Client) displayAmount(tx core.Transaction) string {
	code := tx.Currency
	if code == "" {
		code = c.currency
	}
	formatted, err := core.FormatCurrency(tx.Amount, code, c.locale)
	if err != nil {
		return tx.Amount.String()
	}
	return formatted
}

// PageView is one page of rows plus the pagination metadata the list UI
// renders.
type PageView struct {
	Rows        []Row
	TotalCount  int
	CurrentPage int
	PerPage     int
	TotalPages  int
}

type paginationMeta struct {
	TotalCount  int `json:"total_count"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalPages  int `json:"total_pages"`
}

type transactionsEnvelope struct {
	Data       []core.Transaction `json:"data"`
	Pagination paginationMeta     `json:"pagination"`
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &core.NetworkError{Op: "GET", URL: url, Err: err}
	}

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &core.NetworkError{Op: "GET", URL: url, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return &core.AuthError{Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return &core.NetworkError{Op: "GET", URL: url,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &core.NetworkError{Op: "GET", URL: url, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

// RefreshCategories reloads the category set backing name resolution.
func (c *Client) RefreshCategories(ctx context.Context) error {
	var categories []core.Category
	if err := c.get(ctx, "/api/v1/categories", &categories); err != nil {
		return err
	}
	c.mu.Lock()
	c.resolver = core.NewResolver(categories)
	c.mu.Unlock()
	return nil
}

func (c *Client) currentResolver() *core.Resolver {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolver
}

// Page fetches one page of transactions with category names joined on.
// The shared store is left untouched; use Refresh for that.
func (c *Client) Page(ctx context.Context, page, perPage int) (PageView, error) {
	var env transactionsEnvelope
	path := fmt.Sprintf("/api/v1/transactions?page=%d&per_page=%d", page, perPage)
	if err := c.get(ctx, path, &env); err != nil {
		return PageView{}, err
	}

	res := c.currentResolver()
	rows := make([]Row, len(env.Data))
	for i, tx := range env.Data {
		rows[i] = Row{
			Transaction:   tx,
			CategoryName:  res.DisplayName(tx),
			AmountDisplay: c.displayAmount(tx),
		}
	}

	return PageView{
		Rows:        rows,
		TotalCount:  env.Pagination.TotalCount,
		CurrentPage: env.Pagination.CurrentPage,
		PerPage:     env.Pagination.PerPage,
		TotalPages:  env.Pagination.TotalPages,
	}, nil
}

// fetchAll walks every page at the bulk page size and returns the full set.
func (c *Client) fetchAll(ctx context.Context) ([]core.Transaction, error) {
	var all []core.Transaction
	for page := 1; ; page++ {
		var env transactionsEnvelope
		path := fmt.Sprintf("/api/v1/transactions?page=%d&per_page=%d", page, c.bulkPageSize)
		if err := c.get(ctx, path, &env); err != nil {
			return nil, err
		}
		all = append(all, env.Data...)
		if page >= env.Pagination.TotalPages || len(env.Data) == 0 {
			break
		}
	}
	return all, nil
}

// Refresh loads the requested page view and the full snapshot concurrently.
// The page drives the list UI immediately; the snapshot replaces the shared
// store so reports recompute. On any failure the store keeps its previous
// contents.
func (c *Client) Refresh(ctx context.Context, page, perPage int) (PageView, error) {
	if err := c.RefreshCategories(ctx); err != nil {
		return PageView{}, err
	}

	var (
		view PageView
		all  []core.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.Page(gctx, page, perPage)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	g.Go(func() error {
		txs, err := c.fetchAll(gctx)
		if err != nil {
			return err
		}
		all = txs
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "Refresh failed, keeping previous state", "error", err)
		return PageView{}, err
	}

	c.store.Replace(all)
	return view, nil
}

// The report accessors below compute dashboard figures locally from the
// store snapshot, so they stay usable offline between refreshes. Callers
// that need recomputation on change can hang them off store.Subscribe.

// KPIs returns the headline cards for the current snapshot.
func (c *Client) KPIs(rng core.TimeRange) []core.KPI {
	return c.engine.KPIs(c.store.Snapshot(), c.currentResolver(), rng, time.Now())
}

// Growth returns the income/expense series bucketed for the range.
func (c *Client) Growth(rng core.TimeRange) []core.ChartDataPoint {
	return c.engine.Growth(c.store.Snapshot(), rng, time.Now())
}

// Distribution returns the expense breakdown by resolved category name.
func (c *Client) Distribution() []core.CategoryData {
	return c.engine.Distribution(c.store.Snapshot(), c.currentResolver())
}

// Insights returns the forecast and largest-merchant summary.
func (c *Client) Insights() core.Insights {
	return c.engine.ComputeInsights(c.store.Snapshot())
}
