package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NT912/FinWise-sub000/internal/budget"
	"github.com/NT912/FinWise-sub000/internal/core"
)

type budgetLedgerJSON struct {
	TotalBudget        string `json:"total_budget"`
	SavingAmount       string `json:"saving_amount"`
	TargetSavingAmount string `json:"target_saving_amount"`
}

func toBudgetLedgerJSON(l *core.BudgetLedger) budgetLedgerJSON {
	return budgetLedgerJSON{
		TotalBudget:        l.TotalBudget.String(),
		SavingAmount:       l.SavingAmount.String(),
		TargetSavingAmount: l.TargetSavingAmount.String(),
	}
}

type monthlyBudgetJSON struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Amount string `json:"amount"`
}

func toMonthlyBudgetJSON(b *core.MonthlyBudget) monthlyBudgetJSON {
	return monthlyBudgetJSON{Year: b.Year, Month: b.Month, Amount: b.Amount.String()}
}

type savingGoalJSON struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	TargetAmount  string    `json:"target_amount"`
	CurrentAmount string    `json:"current_amount"`
	CreatedAt     time.Time `json:"created_at"`
}

func toSavingGoalJSON(g *core.SavingGoal) savingGoalJSON {
	return savingGoalJSON{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount.String(),
		CurrentAmount: g.CurrentAmount.String(),
		CreatedAt:     g.CreatedAt,
	}
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleGetBudgetLedger(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.budget.GetOrCreate(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetLedgerJSON(l))
}

func (s *Server) handleGetMonthlyBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	year, month, err := pathPeriod(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.budget.GetMonthlyBudget(r.Context(), owner, year, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyBudgetJSON(b))
}

func (s *Server) handleSetMonthlyBudget(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	year, month, err := pathPeriod(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.budget.SetMonthlyBudget(r.Context(), owner, year, month, amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMonthlyBudgetJSON(b))
}

func (s *Server) handleListMonthlyBudgets(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.budget.ListMonthlyBudgets(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]monthlyBudgetJSON, 0, len(list))
	for i := range list {
		out = append(out, toMonthlyBudgetJSON(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

type savingGoalRequest struct {
	Name          string `json:"name"`
	TargetAmount  string `json:"target_amount"`
	CurrentAmount string `json:"current_amount"`
}

func (s *Server) handleAddSavingGoal(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req savingGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	target, err := parseAmount("target amount", req.TargetAmount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	current := decimal.Zero
	if req.CurrentAmount != "" {
		if current, err = parseAmount("current amount", req.CurrentAmount); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	g, err := s.budget.AddSavingGoal(r.Context(), owner, req.Name, target, current)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSavingGoalJSON(g))
}

type savingGoalPatchRequest struct {
	Name          *string `json:"name"`
	TargetAmount  *string `json:"target_amount"`
	CurrentAmount *string `json:"current_amount"`
}

func (s *Server) handleUpdateSavingGoal(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	goalID := r.PathValue("id")
	var req savingGoalPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	patch := budget.GoalPatch{Name: req.Name}
	if req.TargetAmount != nil {
		target, err := parseAmount("target amount", *req.TargetAmount)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.TargetAmount = &target
	}
	if req.CurrentAmount != nil {
		current, err := parseAmount("current amount", *req.CurrentAmount)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.CurrentAmount = &current
	}

	g, err := s.budget.UpdateSavingGoal(r.Context(), owner, goalID, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSavingGoalJSON(g))
}

func (s *Server) handleListSavingGoals(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.budget.ListSavingGoals(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]savingGoalJSON, 0, len(list))
	for i := range list {
		out = append(out, toSavingGoalJSON(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleScalar(w http.ResponseWriter, r *http.Request, set func(context.Context, string, decimal.Decimal) (*core.BudgetLedger, error)) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := set(r.Context(), owner, amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetLedgerJSON(l))
}

func (s *Server) handleSetSavingAmount(w http.ResponseWriter, r *http.Request) {
	s.handleScalar(w, r, s.budget.SetSavingAmount)
}

func (s *Server) handleSetTargetSavingAmount(w http.ResponseWriter, r *http.Request) {
	s.handleScalar(w, r, s.budget.SetTargetSavingAmount)
}

func (s *Server) handleSetTotalBudget(w http.ResponseWriter, r *http.Request) {
	s.handleScalar(w, r, s.budget.SetTotalBudget)
}

func (s *Server) handleRecomputeSaving(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	year, month, err := pathPeriod(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.budget.RecomputeSavingAmount(r.Context(), owner, year, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetLedgerJSON(l))
}
