package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/NT912/FinWise-sub000/internal/core"
	"github.com/NT912/FinWise-sub000/internal/ledger"
)

type transactionRequest struct {
	Title      string `json:"title"`
	Amount     string `json:"amount"`
	OccurredOn string `json:"occurred_on"`
	CategoryID int64  `json:"category_id"`
	Kind       string `json:"kind"`
	Note       string `json:"note"`
}

type transactionPatchRequest struct {
	Title      *string `json:"title"`
	Amount     *string `json:"amount"`
	OccurredOn *string `json:"occurred_on"`
	CategoryID *int64  `json:"category_id"`
	Kind       *string `json:"kind"`
	Note       *string `json:"note"`
}

type transactionJSON struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Amount     string    `json:"amount"`
	OccurredOn string    `json:"occurred_on"`
	CategoryID int64     `json:"category_id"`
	Kind       string    `json:"kind"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toTransactionJSON(t *core.Transaction) transactionJSON {
	return transactionJSON{
		ID:         t.ID,
		Title:      t.Title,
		Amount:     t.Amount.String(),
		OccurredOn: t.OccurredOn.String(),
		CategoryID: t.CategoryID,
		Kind:       string(t.Kind),
		Note:       t.Note,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	occurredOn, err := core.ParseDate(req.OccurredOn)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	t, err := s.coordinator.Create(r.Context(), ledger.CreateParams{
		OwnerID:    owner,
		Title:      req.Title,
		Amount:     amount,
		OccurredOn: occurredOn,
		CategoryID: req.CategoryID,
		Kind:       core.Kind(req.Kind),
		Note:       req.Note,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(t))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.coordinator.Get(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(t))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var f core.TransactionFilter
	query := r.URL.Query()
	if v := query.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			s.writeError(w, r, core.NewValidationError("category_id", "must be a positive integer"))
			return
		}
		f.CategoryID = id
	}
	if v := query.Get("from"); v != "" {
		if f.From, err = core.ParseDate(v); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if v := query.Get("to"); v != "" {
		if f.To, err = core.ParseDate(v); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	list, err := s.coordinator.List(r.Context(), owner, f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]transactionJSON, 0, len(list))
	for i := range list {
		out = append(out, toTransactionJSON(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req transactionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	patch := ledger.Patch{
		Title:      req.Title,
		CategoryID: req.CategoryID,
		Note:       req.Note,
	}
	if req.Amount != nil {
		amount, err := parseAmount("amount", *req.Amount)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.Amount = &amount
	}
	if req.OccurredOn != nil {
		occurredOn, err := core.ParseDate(*req.OccurredOn)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		patch.OccurredOn = &occurredOn
	}
	if req.Kind != nil {
		kind := core.Kind(*req.Kind)
		patch.Kind = &kind
	}

	t, err := s.coordinator.Update(r.Context(), owner, id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.coordinator.Delete(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	balance, err := s.store.GetBalance(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"owner_id":      balance.OwnerID,
		"total_balance": balance.TotalBalance.String(),
	})
}
