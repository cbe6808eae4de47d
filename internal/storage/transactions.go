package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"billetera/internal/core"
)

// --- categories ---

func (r *SQLiteRepository) CountCategories(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// SeedCategories inserts the fixed category list iff the table is empty.
// Safe to call on every startup.
func (r *SQLiteRepository) SeedCategories(ctx context.Context, categories []core.Category) error {
	n, err := r.CountCategories(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for _, c := range categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (name, kind) VALUES (?, ?)`, c.Name, string(c.Kind)); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	slog.InfoContext(ctx, "Categories seeded", "count", len(categories))
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	query := `SELECT id, name, kind FROM categories ORDER BY name`
	args := []any{}
	if kind != "" {
		query = `SELECT id, name, kind FROM categories WHERE kind = ? ORDER BY name`
		args = append(args, string(kind))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, kind FROM categories WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// --- transactions ---

// CreateTransaction inserts the row and bumps the stored wallet balance in a
// single SQL transaction. This is the local stand-in for the remote create
// procedure: either both writes land or neither does.
//
// The timestamp is written explicitly in UTC so the value the caller holds is
// the same one later reads return.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, category_id, kind, amount_cents, description, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.UserID, t.CategoryID, string(t.Kind), t.Amount.Cents, t.Description, t.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents + ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		t.Signed(), t.UserID); err != nil {
		return 0, fmt.Errorf("update wallet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", id,
		"user_id", t.UserID,
		"kind", string(t.Kind),
		"amount_cents", t.Amount.Cents)

	return id, nil
}

// DeleteTransactionOwned deletes a transaction scoped to its owner and
// reverses its effect on the stored wallet balance, atomically. Deleting a
// row owned by another user affects nothing and returns ErrNotFound.
func (r *SQLiteRepository) DeleteTransactionOwned(ctx context.Context, id, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	var kind string
	var cents int64
	err = tx.QueryRowContext(ctx,
		`SELECT kind, amount_cents FROM transactions WHERE id = ? AND user_id = ?`,
		id, userID).Scan(&kind, &cents)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	signed := cents
	if core.Kind(kind) == core.Expense {
		signed = -cents
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance_cents = balance_cents - ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		signed, userID); err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	var t core.Transaction
	var kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.user_id, t.category_id, c.name, t.kind, t.amount_cents, t.description, t.created_at
		   FROM transactions t JOIN categories c ON c.id = t.category_id
		  WHERE t.id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Category, &kind, &t.Amount.Cents, &t.Description, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	t.Kind = core.Kind(kind)
	return t, nil
}

// ListTransactionsByUser returns every transaction for the user, newest
// first. The balance fold always runs over this full list; there is no
// pagination or incremental path.
func (r *SQLiteRepository) ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.category_id, c.name, t.kind, t.amount_cents, t.description, t.created_at
		   FROM transactions t JOIN categories c ON c.id = t.category_id
		  WHERE t.user_id = ?
		  ORDER BY t.created_at DESC, t.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var kind string
		if err := rows.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Category, &kind,
			&t.Amount.Cents, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = core.Kind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}
