// Package http exposes the REST interface: transactions, categories,
// reports, auth and user profile, all under /api/v1.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Pinger reports storage reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server

	repo    storage.Repository
	txs     *services.TransactionService
	engine  core.Engine
	cfg     *config.Config
	pinger  Pinger
	reports *cache.LRUCache[[]byte]

	cacheManager *cache.Manager
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
// The server sits behind the transaction service as its report invalidator,
// so it builds the service itself.
func NewServer(cfg *config.Config, repo storage.Repository, publisher services.EventPublisher, pinger Pinger) *Server {
	mux := http.NewServeMux()

	engine := core.NewEngine()
	engine.ForecastFraction = cfg.ForecastFraction

	s := &Server{
		Server: http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		repo:         repo,
		engine:       engine,
		cfg:          cfg,
		pinger:       pinger,
		reports:      cache.NewLRUCache[[]byte](256, cfg.ReportCacheTTL),
		cacheManager: cache.NewManager(),
		rateLimiter:  newRateLimiter(),
	}
	s.txs = services.NewTransactionService(repo, publisher, s)

	s.cacheManager.Register(s.reports)
	s.cacheManager.StartCleanup(time.Minute)

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/v1/auth/register", s.withCommon(s.handleRegister))
	mux.HandleFunc("/api/v1/auth/login", s.withCommon(s.handleLogin))
	mux.HandleFunc("/api/v1/auth/me", s.withCommon(s.withAuth(s.handleMe)))

	mux.HandleFunc("/api/v1/transactions", s.withCommon(s.withAuth(s.handleTransactions)))
	mux.HandleFunc("/api/v1/transactions/", s.withCommon(s.withAuth(s.handleTransactionByID)))

	mux.HandleFunc("/api/v1/categories", s.withCommon(s.withAuth(s.handleCategories)))
	mux.HandleFunc("/api/v1/categories/", s.withCommon(s.withAuth(s.handleCategoryByID)))

	mux.HandleFunc("/api/v1/reports/kpis", s.withCommon(s.withAuth(s.handleReportKPIs)))
	mux.HandleFunc("/api/v1/reports/growth", s.withCommon(s.withAuth(s.handleReportGrowth)))
	mux.HandleFunc("/api/v1/reports/categories", s.withCommon(s.withAuth(s.handleReportCategories)))
	mux.HandleFunc("/api/v1/reports/insights", s.withCommon(s.withAuth(s.handleReportInsights)))
	mux.HandleFunc("/api/v1/reports/summary", s.withCommon(s.withAuth(s.handleReportSummary)))

	mux.HandleFunc("/api/v1/user", s.withCommon(s.withAuth(s.handleUserProfile)))

	return s
}

// InvalidateUser implements services.ReportInvalidator.
func (s *Server) InvalidateUser(userID int64) {
	s.reports.DeletePrefix(fmt.Sprintf("%d:", userID))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// Shutdown stops the cleanup routines, then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
