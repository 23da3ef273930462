package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	applog "budget/internal/log"
	"budget/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	http.Server
	ledger   *services.LedgerService
	expenses *services.ExpenseService
	store    Pinger
	logger   *applog.Logger
	started  time.Time
}

// NewServer wires the JSON API onto a ServeMux.
func NewServer(addr string, ledger *services.LedgerService, expenses *services.ExpenseService, store Pinger, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.Config{})
	}
	s := &Server{
		ledger:   ledger,
		expenses: expenses,
		store:    store,
		logger:   logger.WithComponent(applog.ComponentHTTP),
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/ledger", requireUser(s.handleGetLedger))
	mux.HandleFunc("POST /api/ledger/income", requireUser(s.handleAddIncome))
	mux.HandleFunc("PUT /api/ledger/income/{id}", requireUser(s.handleEditIncome))
	mux.HandleFunc("DELETE /api/ledger/income/{id}", requireUser(s.handleDeleteIncome))
	mux.HandleFunc("POST /api/ledger/expenses", requireUser(s.handleAddExpense))

	mux.HandleFunc("POST /api/expenses", requireUser(s.handleCreateExpenseRecord))
	mux.HandleFunc("GET /api/expenses", requireUser(s.handleListExpenseRecords))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           applog.Middleware(s.logger)(traceMiddleware(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Run serves on ln until ctx is cancelled, then waits up to timeout for
// in-flight requests to finish. Callers may release shared resources once it
// returns.
func (s *Server) Run(ctx context.Context, ln net.Listener, timeout time.Duration) error {
	drained := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down server", "timeout", timeout.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		drained <- s.Shutdown(shutdownCtx)
	}()

	if err := s.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-drained
}
