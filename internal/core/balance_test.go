package core

import (
	"testing"
	"time"
)

func tx(kind Kind, cents int64, category string, at time.Time) Transaction {
	return Transaction{
		UserID:     1,
		CategoryID: 1,
		Category:   category,
		Kind:       kind,
		Amount:     Money{Cents: cents},
		CreatedAt:  at,
	}
}

func TestBalance(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		txs  []Transaction
		want int64
	}{
		{"empty", nil, 0},
		{"income only", []Transaction{tx(Income, 1000, "Salary", now)}, 1000},
		{"expense only", []Transaction{tx(Expense, 300, "Food", now)}, -300},
		{
			"mixed",
			[]Transaction{
				tx(Income, 150000, "Salary", now),
				tx(Expense, 2500, "Food", now),
				tx(Expense, 1200, "Transport", now),
				tx(Income, 5000, "Gifts", now),
			},
			151300,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Balance(tc.txs).Cents; got != tc.want {
				t.Fatalf("Balance = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestBalanceIncludesAllMonths(t *testing.T) {
	// Balance is all-time regardless of date; only the breakdown is scoped
	// to the calendar month.
	txs := []Transaction{
		tx(Income, 1000, "Salary", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		tx(Expense, 400, "Food", time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)),
	}
	if got := Balance(txs).Cents; got != 600 {
		t.Fatalf("Balance = %d, want 600", got)
	}
}

func TestBreakdownForMonth(t *testing.T) {
	txs := []Transaction{
		tx(Expense, 2500, "Food", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)),
		tx(Expense, 1500, "Food", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)),
		tx(Expense, 900, "Transport", time.Date(2026, 8, 5, 10, 0, 0, 0, time.UTC)),
		tx(Income, 150000, "Salary", time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)),
		// Different month and different year: both excluded.
		tx(Expense, 9999, "Food", time.Date(2026, 7, 31, 23, 0, 0, 0, time.UTC)),
		tx(Expense, 8888, "Food", time.Date(2025, 8, 10, 10, 0, 0, 0, time.UTC)),
	}

	bd := BreakdownForMonth(txs, 2026, 8)
	if bd.Income.Cents != 150000 {
		t.Fatalf("Income = %d, want 150000", bd.Income.Cents)
	}
	if bd.Expenses.Cents != 4900 {
		t.Fatalf("Expenses = %d, want 4900", bd.Expenses.Cents)
	}

	got := make(map[string]int64)
	for _, ca := range bd.ByCategory {
		got[ca.Name] = ca.Amount.Cents
	}
	want := map[string]int64{"Food": 4000, "Transport": 900, "Salary": 150000}
	for name, cents := range want {
		if got[name] != cents {
			t.Fatalf("category %s = %d, want %d", name, got[name], cents)
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got %d categories, want %d", len(got), len(want))
	}
}

func TestBreakdownEmptyMonth(t *testing.T) {
	bd := BreakdownForMonth(nil, 2026, 8)
	if bd.Income.Cents != 0 || bd.Expenses.Cents != 0 || len(bd.ByCategory) != 0 {
		t.Fatalf("expected empty breakdown, got %+v", bd)
	}
}
