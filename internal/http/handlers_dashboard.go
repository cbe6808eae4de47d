package http

import (
	"net/http"
	"time"

	"billetera/internal/core"
)

type balanceResponse struct {
	BalanceCents int64   `json:"balance_cents"`
	Balance      float64 `json:"balance"`
}

// handleBalance returns the derived all-time balance: the signed fold over
// the user's full transaction list, never the stored wallet row.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	key := cacheKey(user.ID)

	balance, ok := s.balanceCache.Get(key)
	if !ok {
		var err error
		balance, err = s.txs.Balance(r.Context(), user.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		s.balanceCache.Set(key, balance)
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		BalanceCents: balance.Cents,
		Balance:      balance.Units(),
	})
}

type categoryAmountResponse struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	AmountCents int64  `json:"amount_cents"`
}

type breakdownResponse struct {
	Year         int                      `json:"year"`
	Month        int                      `json:"month"`
	IncomeCents  int64                    `json:"income_cents"`
	ExpenseCents int64                    `json:"expense_cents"`
	Categories   []categoryAmountResponse `json:"categories"`
}

// handleBreakdown returns the per-category sums for one calendar month,
// defaulting to the current one. Month-scoped on purpose while the headline
// balance is all-time.
func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	year, month := parseYearMonth(r)

	curYear, curMonth := core.CurrentMonth(time.Now())
	current := year == curYear && month == curMonth
	key := cacheKey(user.ID)

	var bd core.MonthBreakdown
	var ok bool
	if current {
		bd, ok = s.breakdownCache.Get(key)
	}
	if !ok {
		var err error
		bd, err = s.txs.Breakdown(r.Context(), user.ID, year, month)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if current {
			s.breakdownCache.Set(key, bd)
		}
	}

	out := breakdownResponse{
		Year:         bd.Year,
		Month:        bd.Month,
		IncomeCents:  bd.Income.Cents,
		ExpenseCents: bd.Expenses.Cents,
		Categories:   make([]categoryAmountResponse, 0, len(bd.ByCategory)),
	}
	for _, ca := range bd.ByCategory {
		out.Categories = append(out.Categories, categoryAmountResponse{
			Name:        ca.Name,
			Kind:        string(ca.Kind),
			AmountCents: ca.Amount.Cents,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type categoryListResponse struct {
	Categories []categoryResponse `json:"categories"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	var kind core.Kind
	if raw := r.URL.Query().Get("kind"); raw != "" {
		parsed, err := core.ParseKind(raw)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		kind = parsed
	}

	cats, err := s.txs.Categories(r.Context(), kind)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := categoryListResponse{Categories: make([]categoryResponse, 0, len(cats))}
	for _, c := range cats {
		out.Categories = append(out.Categories, categoryResponse{
			ID:   c.ID,
			Name: c.Name,
			Kind: string(c.Kind),
		})
	}

	writeJSON(w, http.StatusOK, out)
}
