package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"billetera/internal/core"
	"billetera/internal/services"
)

type transactionResponse struct {
	ID          int64     `json:"id"`
	CategoryID  int64     `json:"category_id"`
	Category    string    `json:"category"`
	Kind        string    `json:"kind"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		CategoryID:  t.CategoryID,
		Category:    t.Category,
		Kind:        string(t.Kind),
		AmountCents: t.Amount.Cents,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

type createTransactionRequest struct {
	CategoryID       int64  `json:"category_id"`
	Kind             string `json:"kind"`
	Amount           string `json:"amount"`
	Description      string `json:"description"`
	ConfirmOverdraft bool   `json:"confirm_overdraft"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := s.txs.Create(r.Context(), services.CreateInput{
		UserID:           user.ID,
		CategoryID:       req.CategoryID,
		Kind:             req.Kind,
		Amount:           req.Amount,
		Description:      sanitizeInput(req.Description),
		ConfirmOverdraft: req.ConfirmOverdraft,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerivedState(user.ID)

	slog.InfoContext(r.Context(), "Transaction created",
		"transaction_id", t.ID,
		"user_id", user.ID,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents)

	writeJSON(w, http.StatusCreated, toTransactionResponse(t))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := s.txs.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	s.invalidateDerivedState(user.ID)

	slog.InfoContext(r.Context(), "Transaction deleted",
		"transaction_id", id, "user_id", user.ID)

	writeJSON(w, http.StatusNoContent, nil)
}

type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	// An optional ?category= filter narrows the list to one category id. A
	// malformed id resets to an empty result set instead of erroring;
	// legacy clients send junk here and expect an empty screen, not a
	// failure banner.
	var categoryFilter int64 = -1
	if raw := r.URL.Query().Get("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			slog.WarnContext(r.Context(), "Malformed category filter, returning empty set",
				"raw", raw, "user_id", user.ID)
			writeJSON(w, http.StatusOK, transactionListResponse{Transactions: []transactionResponse{}})
			return
		}
		categoryFilter = id
	}

	// Optional year/month narrow the list to one calendar month; absent both,
	// the full history is returned.
	q := r.URL.Query()
	monthScoped := q.Get("year") != "" || q.Get("month") != ""
	year, month := parseYearMonth(r)

	txs, err := s.txs.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		if categoryFilter >= 0 && t.CategoryID != categoryFilter {
			continue
		}
		if monthScoped {
			y, m, _ := t.CreatedAt.Date()
			if y != year || int(m) != month {
				continue
			}
		}
		out = append(out, toTransactionResponse(t))
	}

	writeJSON(w, http.StatusOK, transactionListResponse{Transactions: out})
}
