package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

type (
	// Kind determines the sign a transaction contributes to the balance:
	// income adds, expense subtracts.
	Kind string

	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Name         string
		Surname      string
		Username     string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	// Category is a system-wide (name, kind) pair. Categories are seeded
	// once at first run and shared by all users.
	Category struct {
		ID   int64
		Name string
		Kind Kind
	}

	Transaction struct {
		ID          int64
		UserID      int64
		CategoryID  int64
		Category    string // category name, denormalized for display
		Kind        Kind
		Amount      Money
		Description string
		CreatedAt   time.Time
	}

	Session struct {
		Token     string
		UserID    int64
		ExpiresAt time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("invalid kind")
	ErrEmptyCategory   = errors.New("category required")
	ErrEmptyUsername   = errors.New("username required")
	ErrEmptyEmail      = errors.New("email required")
	ErrEmptyPassword   = errors.New("password required")
	ErrEmptyName       = errors.New("name required")
	ErrDescriptionLong = errors.New("description too long (max 200 characters)")
)

// ParseKind validates a kind string coming from a request.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidKind
	}
}

// Signed returns the amount with the sign implied by the kind.
func (t Transaction) Signed() int64 {
	if t.Kind == Expense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.UserID <= 0 {
		return errors.New("missing user")
	}
	if t.CategoryID <= 0 {
		return ErrEmptyCategory
	}
	if t.Kind != Income && t.Kind != Expense {
		return ErrInvalidKind
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLong
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Surname) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(u.Username) == "" {
		return ErrEmptyUsername
	}
	if strings.TrimSpace(u.Email) == "" || !strings.Contains(u.Email, "@") {
		return ErrEmptyEmail
	}
	return nil
}

// Expired reports whether the session is past its expiry at the given time.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// DefaultCategories is the fixed list inserted at first run when the
// category table is empty. Never extended or deleted by the application
// afterwards.
var DefaultCategories = []Category{
	{Name: "Salary", Kind: Income},
	{Name: "Freelance", Kind: Income},
	{Name: "Investments", Kind: Income},
	{Name: "Gifts", Kind: Income},
	{Name: "Other income", Kind: Income},
	{Name: "Food", Kind: Expense},
	{Name: "Transport", Kind: Expense},
	{Name: "Housing", Kind: Expense},
	{Name: "Health", Kind: Expense},
	{Name: "Entertainment", Kind: Expense},
	{Name: "Shopping", Kind: Expense},
	{Name: "Education", Kind: Expense},
	{Name: "Other expenses", Kind: Expense},
}
