package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// loadReportData pulls the user's full transaction history page by page
// plus the category set feeding the name resolver.
func (s *Server) loadReportData(ctx context.Context, userID int64) ([]core.Transaction, *core.Resolver, error) {
	var all []core.Transaction
	for page := 1; ; page++ {
		p, err := s.txs.List(ctx, userID, storage.TransactionFilter{},
			storage.PageParams{Page: page, PerPage: s.cfg.BulkPageSize})
		if err != nil {
			return nil, nil, fmt.Errorf("load transactions: %w", err)
		}
		all = append(all, p.Items...)
		if page >= p.TotalPages || len(p.Items) == 0 {
			break
		}
	}

	categories, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load categories: %w", err)
	}

	return all, core.NewResolver(categories), nil
}

// serveReport answers from the per-user cache when it can, otherwise
// computes the payload and stores the serialized form.
func (s *Server) serveReport(w http.ResponseWriter, r *http.Request, name string, compute func(txs []core.Transaction, res *core.Resolver, rng core.TimeRange) any) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := userIDFromContext(r.Context())

	rng, err := parseTimeRange(r.URL.Query())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	key := fmt.Sprintf("%d:%s:%s", userID, name, rng)
	if payload, ok := s.reports.Get(key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
		return
	}

	txs, resolver, err := s.loadReportData(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payload, err := json.Marshal(compute(txs, resolver, rng))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.reports.Set(key, payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (s *Server) handleReportKPIs(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "kpis", func(txs []core.Transaction, res *core.Resolver, rng core.TimeRange) any {
		return map[string]any{"data": s.engine.KPIs(txs, res, rng, time.Now())}
	})
}

func (s *Server) handleReportGrowth(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "growth", func(txs []core.Transaction, res *core.Resolver, rng core.TimeRange) any {
		return map[string]any{"data": s.engine.Growth(txs, rng, time.Now())}
	})
}

func (s *Server) handleReportCategories(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "categories", func(txs []core.Transaction, res *core.Resolver, rng core.TimeRange) any {
		return map[string]any{"data": s.engine.Distribution(txs, res)}
	})
}

func (s *Server) handleReportInsights(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "insights", func(txs []core.Transaction, res *core.Resolver, rng core.TimeRange) any {
		ins := s.engine.ComputeInsights(txs)
		return map[string]any{
			"data":             ins,
			"forecast_display": s.formatAmount(ins.MonthlyForecast),
		}
	})
}

// formatAmount renders an amount in the server's default currency and
// locale, falling back to a plain decimal.
func (s *Server) formatAmount(m core.Money) string {
	formatted, err := core.FormatCurrency(m, s.cfg.DefaultCurrency, s.cfg.DefaultLocale)
	if err != nil {
		return m.String()
	}
	return formatted
}

// handleReportSummary bundles every report into one payload so the
// dashboard needs a single round trip.
func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	s.serveReport(w, r, "summary", func(txs []core.Transaction, res *core.Resolver, rng core.TimeRange) any {
		return map[string]any{
			"kpis":       s.engine.KPIs(txs, res, rng, time.Now()),
			"growth":     s.engine.Growth(txs, rng, time.Now()),
			"categories": s.engine.Distribution(txs, res),
			"insights":   s.engine.ComputeInsights(txs),
		}
	})
}
