// Package http exposes the ledger over a JSON API. Handlers stay thin:
// they parse requests, call the coordinator or a service, and map the
// error taxonomy onto status codes.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/NT912/FinWise-sub000/internal/budget"
	"github.com/NT912/FinWise-sub000/internal/category"
	"github.com/NT912/FinWise-sub000/internal/core"
	"github.com/NT912/FinWise-sub000/internal/ledger"
	applog "github.com/NT912/FinWise-sub000/internal/log"
	"github.com/NT912/FinWise-sub000/internal/middleware/ratelimit"
	"github.com/NT912/FinWise-sub000/internal/middleware/trace"
)

// BalanceReader reads the running balance for an owner.
type BalanceReader interface {
	GetBalance(ctx context.Context, owner string) (core.Balance, error)
}

// Server is the HTTP front of the ledger.
type Server struct {
	http.Server

	coordinator *ledger.Coordinator
	budget      *budget.Service
	categories  *category.Service
	store       BalanceReader
	logger      *applog.Logger
	limiter     *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware for the JSON API.
func NewServer(addr string, coord *ledger.Coordinator, budgetSvc *budget.Service, categorySvc *category.Service, store BalanceReader, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		coordinator: coord,
		budget:      budgetSvc,
		categories:  categorySvc,
		store:       store,
		logger:      logger.WithComponent(applog.ComponentHTTP),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleHealth)

	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PATCH /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /balance", s.handleGetBalance)

	mux.HandleFunc("POST /categories", s.handleCreateCategory)
	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("GET /categories/{id}", s.handleGetCategory)
	mux.HandleFunc("PATCH /categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /budget", s.handleGetBudgetLedger)
	mux.HandleFunc("PUT /budget/total", s.handleSetTotalBudget)
	mux.HandleFunc("PUT /budget/saving", s.handleSetSavingAmount)
	mux.HandleFunc("PUT /budget/saving-target", s.handleSetTargetSavingAmount)
	mux.HandleFunc("GET /budget/monthly", s.handleListMonthlyBudgets)
	mux.HandleFunc("GET /budget/monthly/{year}/{month}", s.handleGetMonthlyBudget)
	mux.HandleFunc("PUT /budget/monthly/{year}/{month}", s.handleSetMonthlyBudget)
	mux.HandleFunc("POST /budget/recompute/{year}/{month}", s.handleRecomputeSaving)

	mux.HandleFunc("POST /goals", s.handleAddSavingGoal)
	mux.HandleFunc("GET /goals", s.handleListSavingGoals)
	mux.HandleFunc("PATCH /goals/{id}", s.handleUpdateSavingGoal)

	traced := trace.NewMiddleware(s.logger)
	s.limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())

	s.Server = http.Server{
		Addr:              addr,
		Handler:           traced.Wrap(s.limiter.Wrap(mux)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Shutdown stops the limiter's bookkeeping and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
