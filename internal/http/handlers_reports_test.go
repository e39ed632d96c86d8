package http

import (
	"net/http"
	"testing"

	"fintrack/internal/core"
)

func seedReportData(t *testing.T, srv *Server, token string) {
	t.Helper()
	for _, name := range []string{"salary", "groceries", "dining"} {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/categories", token, map[string]any{"name": name})
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed category %s: status %d", name, rec.Code)
		}
	}
	for _, tx := range []map[string]any{
		{"date": "2025-01-05", "amount": 1000.00, "type": "income", "category_id": 1, "merchant": "Employer"},
		{"date": "2025-01-06", "amount": 400.00, "type": "expense", "category_id": 2, "merchant": "Super Mart"},
		{"date": "2025-01-07", "amount": 100.00, "type": "expense", "category_id": 3, "merchant": "Bistro"},
	} {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/transactions", token, tx)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed transaction: status %d, body %s", rec.Code, rec.Body.String())
		}
	}
}

func TestReportKPIs(t *testing.T) {
	srv, _ := newTestServer(t)
	token := bearerFor(t, 1)
	seedReportData(t, srv, token)

	type envelope struct {
		Data []core.KPI `json:"data"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/reports/kpis?range=monthly", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	env := decodeBody[envelope](t, rec)
	if len(env.Data) != 4 {
		t.Fatalf("kpis = %d, want 4", len(env.Data))
	}
	if env.Data[0].Label != "Total Balance" {
		t.Errorf("first label = %q", env.Data[0].Label)
	}
	if env.Data[0].Value.Cents != 50000 {
		t.Errorf("balance = %d cents, want 50000", env.Data[0].Value.Cents)
	}
}

func TestReportRejectsUnknownRange(t *testing.T) {
	srv, _ := newTestServer(t)
	token := bearerFor(t, 1)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/reports/kpis?range=decade", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestReportCategoriesDistribution(t *testing.T) {
	srv, _ := newTestServer(t)
	token := bearerFor(t, 1)
	seedReportData(t, srv, token)

	type envelope struct {
		Data []core.CategoryData `json:"data"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/reports/categories", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeBody[envelope](t, rec)
	if len(env.Data) != 2 {
		t.Fatalf("slices = %d, want 2", len(env.Data))
	}
	if env.Data[0].Category != "groceries" {
		t.Errorf("largest slice = %q, want groceries", env.Data[0].Category)
	}
	if env.Data[0].Amount.Cents != 40000 {
		t.Errorf("largest slice = %d cents, want 40000", env.Data[0].Amount.Cents)
	}
	if env.Data[0].Percentage != 80 {
		t.Errorf("largest slice pct = %v, want 80", env.Data[0].Percentage)
	}
}

func TestReportInsights(t *testing.T) {
	srv, _ := newTestServer(t)
	token := bearerFor(t, 1)
	seedReportData(t, srv, token)

	type envelope struct {
		Data            core.Insights `json:"data"`
		ForecastDisplay string        `json:"forecast_display"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/reports/insights", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeBody[envelope](t, rec)
	// 20% of 1000.00 income
	if env.Data.MonthlyForecast.Cents != 20000 {
		t.Errorf("forecast = %d cents, want 20000", env.Data.MonthlyForecast.Cents)
	}
	if env.Data.LargestMerchant.Name != "Super Mart" {
		t.Errorf("largest merchant = %q", env.Data.LargestMerchant.Name)
	}
	if env.ForecastDisplay == "" {
		t.Error("forecast_display should be rendered")
	}
}

func TestReportSummaryBundlesAll(t *testing.T) {
	srv, _ := newTestServer(t)
	token := bearerFor(t, 1)
	seedReportData(t, srv, token)

	type summary struct {
		KPIs       []core.KPI            `json:"kpis"`
		Growth     []core.ChartDataPoint `json:"growth"`
		Categories []core.CategoryData   `json:"categories"`
		Insights   core.Insights         `json:"insights"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/reports/summary?range=weekly", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	sum := decodeBody[summary](t, rec)
	if len(sum.KPIs) != 4 {
		t.Errorf("kpis = %d, want 4", len(sum.KPIs))
	}
	if len(sum.Growth) != 7 {
		t.Errorf("weekly growth buckets = %d, want 7", len(sum.Growth))
	}
	if sum.Insights.LargestMerchant.Name != "Super Mart" {
		t.Errorf("largest merchant = %q", sum.Insights.LargestMerchant.Name)
	}
}

func TestReportCacheInvalidatedByMutation(t *testing.T) {
	srv, _ := newTestServer(t)
	token := bearerFor(t, 1)
	seedReportData(t, srv, token)

	type envelope struct {
		Data []core.KPI `json:"data"`
	}
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/reports/kpis", token, nil)
	before := decodeBody[envelope](t, rec)

	// Cached: identical payload on a second read
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/reports/kpis", token, nil)
	again := decodeBody[envelope](t, rec)
	if before.Data[0].Value != again.Data[0].Value {
		t.Errorf("cached read differs: %v vs %v", before.Data[0], again.Data[0])
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/transactions", token, map[string]any{
		"date": "2025-01-08", "amount": 100.00, "type": "income", "category_id": 1, "merchant": "Employer",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("mutation status = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/reports/kpis", token, nil)
	after := decodeBody[envelope](t, rec)
	if after.Data[0].Value.Cents != before.Data[0].Value.Cents+10000 {
		t.Errorf("balance after mutation = %d, want %d", after.Data[0].Value.Cents, before.Data[0].Value.Cents+10000)
	}
}
