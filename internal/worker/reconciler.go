// Package worker keeps the stored wallet balance consistent with the
// transaction log.
//
// The serving path never reads the stored balance; it derives the total from
// the transactions on every request. The stored value exists as an audit
// column, so this worker re-derives it after every mutation event and on a
// periodic sweep that catches events lost while the broker or worker was
// down.
package worker

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

// ReconcileStore is the slice of storage the reconciler needs.
type ReconcileStore interface {
	ListTransactionsByUser(ctx context.Context, userID int64) ([]core.Transaction, error)
	GetWalletBalance(ctx context.Context, userID int64) (int64, error)
	SetWalletBalance(ctx context.Context, userID, cents int64) error
	ListWalletUserIDs(ctx context.Context) ([]int64, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Reconciler struct {
	store    ReconcileStore
	interval time.Duration
}

func NewReconciler(store ReconcileStore, interval time.Duration) *Reconciler {
	return &Reconciler{store: store, interval: interval}
}

// HandleEvent processes one mutation event from the queue. Any error requeues
// the event.
func (r *Reconciler) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"transaction_id", msg.TransactionID,
		"user_id", msg.UserID,
		"op", msg.Op)

	if err := r.ReconcileUser(ctx, msg.UserID); err != nil {
		return fmt.Errorf("reconcile user %d: %w", msg.UserID, err)
	}
	return nil
}

// ReconcileUser folds the user's transactions and overwrites the stored
// wallet balance when it drifted.
func (r *Reconciler) ReconcileUser(ctx context.Context, userID int64) error {
	txs, err := r.store.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	derived := core.Balance(txs).Cents

	stored, err := r.store.GetWalletBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// User vanished between event and reconcile; nothing to do.
			slog.WarnContext(ctx, "Wallet gone before reconcile", "user_id", userID)
			return nil
		}
		return fmt.Errorf("get wallet balance: %w", err)
	}

	if stored == derived {
		return nil
	}

	slog.WarnContext(ctx, "Wallet balance drifted, rewriting",
		"user_id", userID,
		"stored_cents", stored,
		"derived_cents", derived)

	if err := r.store.SetWalletBalance(ctx, userID, derived); err != nil {
		return fmt.Errorf("set wallet balance: %w", err)
	}
	return nil
}

// SweepAll reconciles every wallet. Errors on individual users are logged
// and do not stop the sweep.
func (r *Reconciler) SweepAll(ctx context.Context) error {
	ids, err := r.store.ListWalletUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("list wallets: %w", err)
	}

	var failed int
	for _, id := range ids {
		if err := r.ReconcileUser(ctx, id); err != nil {
			failed++
			slog.ErrorContext(ctx, "Sweep reconcile failed", "user_id", id, "error", err)
		}
	}

	// The sweep doubles as session housekeeping.
	if purged, err := r.store.DeleteExpiredSessions(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Expired session purge failed", "error", err)
	} else if purged > 0 {
		slog.InfoContext(ctx, "Expired sessions purged", "count", purged)
	}

	slog.InfoContext(ctx, "Reconcile sweep finished", "wallets", len(ids), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("sweep: %d of %d wallets failed", failed, len(ids))
	}
	return nil
}

// RunSweeper runs SweepAll on the configured interval until the context
// ends. An initial sweep runs immediately to catch anything missed while the
// worker was down.
func (r *Reconciler) RunSweeper(ctx context.Context) error {
	if err := r.SweepAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup sweep failed", "error", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.SweepAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sweep failed", "error", err)
			}
		}
	}
}
