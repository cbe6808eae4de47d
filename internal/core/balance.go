package core

import "time"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Kind   Kind
	Amount Money
}

// MonthBreakdown is a compact per-category summary for a specific year+month.
type MonthBreakdown struct {
	Year       int
	Month      int // 1-12
	Income     Money
	Expenses   Money
	ByCategory []CategoryAmount
}

// Balance folds transactions into the signed all-time total: income adds,
// expense subtracts. The displayed wallet total is always this fold over the
// last fetched transaction list, never the stored wallet row.
func Balance(txs []Transaction) Money {
	var cents int64
	for _, t := range txs {
		cents += t.Signed()
	}
	return Money{Cents: cents}
}

// BreakdownForMonth groups the transactions whose timestamp falls in the
// given calendar month (equality on year and month, not a rolling window)
// by category name, summing amounts per category.
//
// The month scope is intentional and independent of Balance: the headline
// balance is all-time while the breakdown covers the current month only.
func BreakdownForMonth(txs []Transaction, year, month int) MonthBreakdown {
	bd := MonthBreakdown{Year: year, Month: month}
	sums := make(map[string]*CategoryAmount)
	order := make([]string, 0)

	for _, t := range txs {
		y, m, _ := t.CreatedAt.Date()
		if y != year || int(m) != month {
			continue
		}
		switch t.Kind {
		case Income:
			bd.Income.Cents += t.Amount.Cents
		case Expense:
			bd.Expenses.Cents += t.Amount.Cents
		}
		ca, ok := sums[t.Category]
		if !ok {
			ca = &CategoryAmount{Name: t.Category, Kind: t.Kind}
			sums[t.Category] = ca
			order = append(order, t.Category)
		}
		ca.Amount.Cents += t.Amount.Cents
	}

	for _, name := range order {
		bd.ByCategory = append(bd.ByCategory, *sums[name])
	}
	return bd
}

// CurrentMonth returns the calendar year and month at the given time.
func CurrentMonth(now time.Time) (year, month int) {
	y, m, _ := now.Date()
	return y, int(m)
}
