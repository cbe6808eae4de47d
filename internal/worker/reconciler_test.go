package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"billetera/internal/amqp"
	"billetera/internal/core"
	"billetera/internal/storage"
)

func setup(t *testing.T) (*storage.SQLiteRepository, *Reconciler, int64) {
	t.Helper()
	ctx := context.Background()

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "billetera.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.SeedCategories(ctx, core.DefaultCategories))
	id, err := repo.CreateUser(ctx, core.User{
		Name: "Ana", Surname: "Quispe", Username: "ana",
		Email: "ana@example.com", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, repo.CreateWallet(ctx, id))

	return repo, NewReconciler(repo, time.Minute), id
}

func addIncome(t *testing.T, repo *storage.SQLiteRepository, userID, cents int64) {
	t.Helper()
	ctx := context.Background()
	cats, err := repo.ListCategories(ctx, core.Income)
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		UserID: userID, CategoryID: cats[0].ID, Kind: core.Income,
		Amount: core.Money{Cents: cents},
	})
	require.NoError(t, err)
}

func TestReconcileUserFixesDrift(t *testing.T) {
	repo, rec, user := setup(t)
	ctx := context.Background()

	addIncome(t, repo, user, 5000)

	// Force the stored balance out of sync with the transaction log.
	require.NoError(t, repo.SetWalletBalance(ctx, user, 123))

	require.NoError(t, rec.ReconcileUser(ctx, user))

	cents, err := repo.GetWalletBalance(ctx, user)
	require.NoError(t, err)
	require.EqualValues(t, 5000, cents)
}

func TestReconcileUserNoDriftIsNoop(t *testing.T) {
	repo, rec, user := setup(t)
	ctx := context.Background()

	addIncome(t, repo, user, 5000)
	require.NoError(t, rec.ReconcileUser(ctx, user))

	cents, err := repo.GetWalletBalance(ctx, user)
	require.NoError(t, err)
	require.EqualValues(t, 5000, cents)
}

func TestReconcileUnknownWallet(t *testing.T) {
	_, rec, _ := setup(t)
	// Missing wallet is tolerated, not an error: the user may have been
	// deleted between the event and the reconcile.
	require.NoError(t, rec.ReconcileUser(context.Background(), 9999))
}

func TestHandleEvent(t *testing.T) {
	repo, rec, user := setup(t)
	ctx := context.Background()

	addIncome(t, repo, user, 700)
	require.NoError(t, repo.SetWalletBalance(ctx, user, 0))

	msg := amqp.NewTransactionEventMessage(1, user, amqp.OpCreated)
	require.NoError(t, rec.HandleEvent(ctx, msg))

	cents, err := repo.GetWalletBalance(ctx, user)
	require.NoError(t, err)
	require.EqualValues(t, 700, cents)
}

func TestSweepAll(t *testing.T) {
	repo, rec, ana := setup(t)
	ctx := context.Background()

	luis, err := repo.CreateUser(ctx, core.User{
		Name: "Luis", Surname: "Rojas", Username: "luis",
		Email: "luis@example.com", PasswordHash: "x",
	})
	require.NoError(t, err)
	require.NoError(t, repo.CreateWallet(ctx, luis))

	addIncome(t, repo, ana, 1000)
	addIncome(t, repo, luis, 2000)
	require.NoError(t, repo.SetWalletBalance(ctx, ana, -1))
	require.NoError(t, repo.SetWalletBalance(ctx, luis, -1))

	require.NoError(t, rec.SweepAll(ctx))

	for userID, want := range map[int64]int64{ana: 1000, luis: 2000} {
		cents, err := repo.GetWalletBalance(ctx, userID)
		require.NoError(t, err)
		require.Equal(t, want, cents)
	}
}

func TestSweepPurgesExpiredSessions(t *testing.T) {
	repo, rec, user := setup(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateSession(ctx, core.Session{
		Token: "stale", UserID: user, ExpiresAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, repo.CreateSession(ctx, core.Session{
		Token: "fresh", UserID: user, ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, rec.SweepAll(ctx))

	_, err := repo.GetSession(ctx, "stale")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.GetSession(ctx, "fresh")
	require.NoError(t, err)
}
