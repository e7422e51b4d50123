// Package http exposes the scheduler and ledger over a JSON API.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"cashmoo/internal/services"
)

type Server struct {
	ledger    *services.Ledger
	scheduler *services.Scheduler
	dashboard *services.DashboardAggregator
	store     services.Store
	limiter   *rateLimiter

	httpServer *http.Server
}

func NewServer(port string, ledger *services.Ledger, scheduler *services.Scheduler, dashboard *services.DashboardAggregator, store services.Store) *Server {
	s := &Server{
		ledger:    ledger,
		scheduler: scheduler,
		dashboard: dashboard,
		store:     store,
		limiter:   newRateLimiter(60),
	}
	s.httpServer = &http.Server{
		Addr:              net.JoinHostPort("", port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/tick", s.handleRunTick)

	mux.HandleFunc("GET /api/incomes", s.handleListIncomes)
	mux.HandleFunc("POST /api/incomes", s.handleCreateIncome)
	mux.HandleFunc("PUT /api/incomes/{id}", s.handleUpdateIncome)
	mux.HandleFunc("DELETE /api/incomes/{id}", s.handleDeleteIncome)
	mux.HandleFunc("PUT /api/incomes/{id}/status", s.handleIncomeStatus)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("PUT /api/expenses/{id}/status", s.handleExpenseStatus)

	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("POST /api/cards", s.handleCreateCard)
	mux.HandleFunc("PUT /api/cards/{id}", s.handleUpdateCard)
	mux.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard)

	mux.HandleFunc("GET /api/invoices", s.handleListInvoices)
	mux.HandleFunc("POST /api/invoices/{id}/pay", s.handlePayInvoice)

	mux.HandleFunc("GET /api/notifications", s.handleListNotifications)

	mux.HandleFunc("GET /api/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /api/profile", s.handleUpdateProfile)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return s.withRequestLogging(s.withRateLimit(mux))
}

// Start blocks until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.limiter.stop()
		return err
	case <-ctx.Done():
		s.limiter.stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
