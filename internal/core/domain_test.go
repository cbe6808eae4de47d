package core

import (
	"testing"
	"time"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"income", Income, true},
		{"expense", Expense, true},
		{" Expense ", Expense, true},
		{"INCOME", Income, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseKind(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("ParseKind(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
		} else if err == nil {
			t.Fatalf("ParseKind(%q) expected error", tc.in)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		UserID:     1,
		CategoryID: 2,
		Kind:       Expense,
		Amount:     Money{Cents: 500},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero amount", func(tx *Transaction) { tx.Amount.Cents = 0 }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount.Cents = -100 }, ErrInvalidAmount},
		{"missing category", func(tx *Transaction) { tx.CategoryID = 0 }, ErrEmptyCategory},
		{"bad kind", func(tx *Transaction) { tx.Kind = "transfer" }, ErrInvalidKind},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			if err := tx.Validate(); err != tc.want {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTransactionSigned(t *testing.T) {
	in := Transaction{Kind: Income, Amount: Money{Cents: 700}}
	out := Transaction{Kind: Expense, Amount: Money{Cents: 700}}
	if in.Signed() != 700 || out.Signed() != -700 {
		t.Fatalf("Signed() = %d / %d, want 700 / -700", in.Signed(), out.Signed())
	}
}

func TestUserValidate(t *testing.T) {
	u := User{Name: "Ana", Surname: "Quispe", Username: "anaq", Email: "ana@example.com"}
	if err := u.Validate(); err != nil {
		t.Fatalf("valid user rejected: %v", err)
	}
	bad := u
	bad.Email = "not-an-email"
	if err := bad.Validate(); err != ErrEmptyEmail {
		t.Fatalf("got %v, want %v", err, ErrEmptyEmail)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := Session{ExpiresAt: now.Add(time.Hour)}
	if s.Expired(now) {
		t.Fatal("live session reported expired")
	}
	if !s.Expired(now.Add(2 * time.Hour)) {
		t.Fatal("expired session reported live")
	}
}

func TestDefaultCategoriesKinds(t *testing.T) {
	for _, c := range DefaultCategories {
		if c.Kind != Income && c.Kind != Expense {
			t.Fatalf("category %q has invalid kind %q", c.Name, c.Kind)
		}
	}
}
