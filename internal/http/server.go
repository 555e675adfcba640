// Package http exposes the JSON API: households, their ledgers, settlement
// operations and reports.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"contas/internal/cache"
	"contas/internal/config"
	"contas/internal/log"
	"contas/internal/middleware/ratelimit"
	"contas/internal/middleware/security"
	"contas/internal/middleware/trace"
	"contas/internal/services"
	"contas/internal/storage"
)

type Server struct {
	http.Server

	logger  *log.Logger
	storage *storage.SQLiteRepository

	transactions *services.TransactionService
	settlement   *services.SettlementService
	reports      *services.ReportService
	households   *services.HouseholdService

	// reportCache keys are "<homeID>:<report>:<params>" so any write in a
	// household can drop that household's entries with one prefix sweep.
	reportCache  *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

func NewServer(cfg *config.Config, st *storage.SQLiteRepository, publisher services.SyncPublisher, logger *log.Logger) *Server {
	s := &Server{
		logger:       logger.WithComponent(log.ComponentHTTP),
		storage:      st,
		transactions: services.NewTransactionService(st, publisher),
		settlement:   services.NewSettlementService(st, publisher),
		reports:      services.NewReportService(st),
		households:   services.NewHouseholdService(st),
		reportCache:  cache.NewLRUCache[[]byte](cfg.ReportCacheSize, cfg.ReportCacheTTL),
		cacheManager: cache.NewManager(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
		}),
		tracer: trace.NewMiddleware(clientIP),
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(time.Minute)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = s.routes()
	handler = s.rateLimitMiddleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/users", s.handleRegisterUser)

	mux.HandleFunc("POST /api/households", s.handleCreateHousehold)
	mux.HandleFunc("GET /api/households", s.handleListHouseholds)
	mux.HandleFunc("GET /api/households/{homeID}", s.handleGetHousehold)
	mux.HandleFunc("PUT /api/households/{homeID}", s.handleRenameHousehold)
	mux.HandleFunc("DELETE /api/households/{homeID}", s.handleDeleteHousehold)

	mux.HandleFunc("GET /api/households/{homeID}/members", s.handleListMembers)
	mux.HandleFunc("POST /api/households/{homeID}/members", s.handleAddMember)
	mux.HandleFunc("PUT /api/households/{homeID}/members/{memberID}", s.handleUpdateMemberRole)
	mux.HandleFunc("DELETE /api/households/{homeID}/members/{memberID}", s.handleRemoveMember)

	mux.HandleFunc("GET /api/households/{homeID}/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/households/{homeID}/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/households/{homeID}/categories/{catID}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/households/{homeID}/units", s.handleListUnits)
	mux.HandleFunc("POST /api/households/{homeID}/units", s.handleCreateUnit)
	mux.HandleFunc("DELETE /api/households/{homeID}/units/{unitID}", s.handleDeleteUnit)

	mux.HandleFunc("GET /api/households/{homeID}/item-categories", s.handleListItemCategories)
	mux.HandleFunc("POST /api/households/{homeID}/item-categories", s.handleCreateItemCategory)
	mux.HandleFunc("DELETE /api/households/{homeID}/item-categories/{icID}", s.handleDeleteItemCategory)

	mux.HandleFunc("GET /api/households/{homeID}/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/households/{homeID}/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/households/{homeID}/transactions/{txID}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/households/{homeID}/transactions/{txID}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/households/{homeID}/transactions/{txID}", s.handleDeleteTransaction)

	mux.HandleFunc("POST /api/households/{homeID}/transactions/{txID}/pay", s.handleMarkPaid)
	mux.HandleFunc("POST /api/households/{homeID}/transactions/{txID}/unpay", s.handleMarkUnpaid)
	mux.HandleFunc("GET /api/households/{homeID}/transactions/{txID}/payments", s.handleListPayments)
	mux.HandleFunc("POST /api/households/{homeID}/transactions/{txID}/payments", s.handleRegisterPayment)
	mux.HandleFunc("DELETE /api/households/{homeID}/payments/{paymentID}", s.handleDeletePayment)
	mux.HandleFunc("POST /api/households/{homeID}/transactions/{txID}/transfer", s.handleTransferWhole)
	mux.HandleFunc("POST /api/households/{homeID}/transactions/{txID}/transfer-remainder", s.handleTransferRemainder)

	mux.HandleFunc("GET /api/households/{homeID}/reports", s.handleReports)

	return mux
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientIP(r)) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{errorBody{
				Kind:    "rateLimited",
				Message: "too many requests",
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// invalidateReports drops every cached report of a household after a write.
func (s *Server) invalidateReports(homeID int64) {
	s.reportCache.DeletePrefix(fmt.Sprintf("%d:", homeID))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.storage.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := s.tracer.GetMetrics()
	writeJSON(w, http.StatusOK, map[string]any{
		"totalRequests":      m.TotalRequests,
		"lastDurationMicros": m.LastDurationUS,
		"rateLimitClients":   s.limiter.ActiveClients(),
		"reportCacheEntries": s.reportCache.Size(),
	})
}

// Shutdown stops background workers and then drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.logger.Info("HTTP server shutting down")
		s.cacheManager.Stop()
		s.limiter.Shutdown()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
