package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"billetera/internal/amqp"
	"billetera/internal/core"
	"billetera/internal/storage"
)

var (
	// ErrOverdraftConfirmation is returned when an expense would push the
	// derived balance negative and the request did not carry an explicit
	// confirmation. The caller presents the prompt and retries with
	// confirm_overdraft set; the server never assumes an affirmative answer.
	ErrOverdraftConfirmation = errors.New("expense exceeds balance, confirmation required")
	// ErrNotOwner rejects a delete of someone else's transaction before
	// the store operation is ever invoked.
	ErrNotOwner             = errors.New("transaction belongs to another user")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrCategoryKindMismatch = errors.New("category does not match transaction kind")
)

// TransactionStore is the slice of storage the transaction workflows need.
type TransactionStore interface {
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error)
	SeedCategories(ctx context.Context, categories []core.Category) error
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	DeleteTransactionOwned(ctx context.Context, id, userID int64) error
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error)
}

// EventPublisher publishes mutation events for the reconciliation worker.
// *amqp.Client satisfies it; a nil publisher degrades to a logged skip.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error
}

type TransactionService struct {
	store     TransactionStore
	publisher EventPublisher
}

func NewTransactionService(store TransactionStore, publisher EventPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// SeedCategories installs the fixed category list on first run.
func (s *TransactionService) SeedCategories(ctx context.Context) error {
	return s.store.SeedCategories(ctx, core.DefaultCategories)
}

func (s *TransactionService) Categories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	return s.store.ListCategories(ctx, kind)
}

type CreateInput struct {
	UserID           int64
	CategoryID       int64
	Kind             string
	Amount           string // free-form, parsed with ParseAmountToCents
	Description      string
	ConfirmOverdraft bool
}

// Create validates and records a transaction. Validation failures return
// before any write; an unconfirmed overdraft returns
// ErrOverdraftConfirmation with nothing written.
func (s *TransactionService) Create(ctx context.Context, in CreateInput) (core.Transaction, error) {
	kind, err := core.ParseKind(in.Kind)
	if err != nil {
		return core.Transaction{}, err
	}

	cents, err := core.ParseAmountToCents(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	if in.CategoryID <= 0 {
		return core.Transaction{}, core.ErrEmptyCategory
	}
	category, err := s.store.GetCategory(ctx, in.CategoryID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.Transaction{}, ErrUnknownCategory
		}
		return core.Transaction{}, fmt.Errorf("load category: %w", err)
	}
	if category.Kind != kind {
		return core.Transaction{}, ErrCategoryKindMismatch
	}

	t := core.Transaction{
		UserID:      in.UserID,
		CategoryID:  category.ID,
		Category:    category.Name,
		Kind:        kind,
		Amount:      core.Money{Cents: cents},
		Description: in.Description,
		// Set here, stored verbatim: the 201 response and every later list
		// carry the same UTC instant.
		CreatedAt: time.Now().UTC(),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if kind == core.Expense && !in.ConfirmOverdraft {
		balance, err := s.Balance(ctx, in.UserID)
		if err != nil {
			return core.Transaction{}, err
		}
		if cents > balance.Cents {
			return core.Transaction{}, ErrOverdraftConfirmation
		}
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	t.ID = id

	s.publishEvent(ctx, id, in.UserID, amqp.OpCreated)
	return t, nil
}

// Delete removes a transaction after verifying the caller owns it. The
// ownership check happens before the store delete is invoked; a mismatch
// changes nothing.
func (s *TransactionService) Delete(ctx context.Context, userID, transactionID int64) error {
	t, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("load transaction: %w", err)
	}
	if t.UserID != userID {
		return ErrNotOwner
	}

	if err := s.store.DeleteTransactionOwned(ctx, transactionID, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publishEvent(ctx, transactionID, userID, amqp.OpDeleted)
	return nil
}

// Balance re-fetches the user's full transaction list and folds it into the
// signed total. No local cache of the balance exists at this layer; it is
// rederived on every call.
func (s *TransactionService) Balance(ctx context.Context, userID int64) (core.Money, error) {
	txs, err := s.store.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return core.Money{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.Balance(txs), nil
}

// Breakdown aggregates the given calendar month's transactions by category.
func (s *TransactionService) Breakdown(ctx context.Context, userID int64, year, month int) (core.MonthBreakdown, error) {
	txs, err := s.store.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return core.MonthBreakdown{}, fmt.Errorf("list transactions: %w", err)
	}
	return core.BreakdownForMonth(txs, year, month), nil
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return s.store.ListTransactionsByUser(ctx, userID)
}

func (s *TransactionService) publishEvent(ctx context.Context, transactionID, userID int64, op string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Event publisher not available, skipping mutation event",
			"transaction_id", transactionID, "op", op)
		return
	}
	msg := amqp.NewTransactionEventMessage(transactionID, userID, op)
	if err := s.publisher.PublishTransactionEvent(ctx, msg); err != nil {
		// The mutation already committed; reconciliation catches up on the
		// periodic sweep instead.
		slog.ErrorContext(ctx, "Failed to publish mutation event",
			"transaction_id", transactionID, "user_id", userID, "op", op, "error", err)
	}
}
