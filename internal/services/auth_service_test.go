package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"billetera/internal/auth"
	"billetera/internal/core"
	"billetera/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "billetera.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newAuthService(t *testing.T, store AuthStore) *AuthService {
	t.Helper()
	return NewAuthService(store, auth.DefaultChain(bcrypt.MinCost), time.Hour)
}

func registerInput(username string) RegisterInput {
	return RegisterInput{
		Name:     "Ana",
		Surname:  "Quispe",
		Username: username,
		Email:    username + "@example.com",
		Password: "secreto1",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAuthService(t, repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, registerInput("ana"))
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	// Wallet row exists and starts at zero.
	cents, err := repo.GetWalletBalance(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, cents)

	got, session, err := svc.Login(ctx, "ana", "secreto1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.NotEmpty(t, session.Token)
}

func TestRegisterValidation(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAuthService(t, repo)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
		want   error
	}{
		{"empty name", func(in *RegisterInput) { in.Name = "" }, core.ErrEmptyName},
		{"empty username", func(in *RegisterInput) { in.Username = "" }, core.ErrEmptyUsername},
		{"bad email", func(in *RegisterInput) { in.Email = "nope" }, core.ErrEmptyEmail},
		{"empty password", func(in *RegisterInput) { in.Password = "" }, core.ErrEmptyPassword},
		{"short password", func(in *RegisterInput) { in.Password = "abc" }, ErrPasswordTooShort},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := registerInput("ana")
			tc.mutate(&in)
			_, err := svc.Register(ctx, in)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAuthService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("ana"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerInput("ana"))
	require.ErrorIs(t, err, ErrUsernameTaken)
}

// failingWalletStore makes wallet creation fail to exercise the
// compensating user delete.
type failingWalletStore struct {
	AuthStore
}

func (s failingWalletStore) CreateWallet(ctx context.Context, userID int64) error {
	return errors.New("wallet table unavailable")
}

func TestRegisterCompensatesFailedWallet(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAuthService(t, failingWalletStore{AuthStore: repo})
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("ana"))
	require.Error(t, err)

	// No orphaned user row remains.
	_, err = repo.GetUserByUsername(ctx, "ana")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoginGenericFailure(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAuthService(t, repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("ana"))
	require.NoError(t, err)

	// Unknown account and wrong password yield the identical error.
	_, _, errUnknown := svc.Login(ctx, "nadie", "secreto1")
	_, _, errWrong := svc.Login(ctx, "ana", "incorrecta")
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, ErrInvalidCredentials)
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAuthService(t, repo)
	ctx := context.Background()

	// Account created under the legacy scheme: stored hash is the plain
	// sha256 hex digest.
	legacyHash, err := auth.SHA256Hasher{}.Hash("secreto1")
	require.NoError(t, err)
	id, err := repo.CreateUser(ctx, core.User{
		Name: "Ana", Surname: "Quispe", Username: "ana",
		Email: "ana@example.com", PasswordHash: legacyHash,
	})
	require.NoError(t, err)
	require.NoError(t, repo.CreateWallet(ctx, id))

	// First login matches the legacy verifier and rewrites the hash.
	_, _, err = svc.Login(ctx, "ana", "secreto1")
	require.NoError(t, err)

	u, err := repo.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	require.NotEqual(t, legacyHash, u.PasswordHash)
	require.True(t, strings.HasPrefix(u.PasswordHash, "$2"), "expected bcrypt hash, got %q", u.PasswordHash)

	// Second login matches on the canonical path with no further rewrite.
	matched, upgrade, scheme := auth.DefaultChain(bcrypt.MinCost).Verify("secreto1", u.PasswordHash)
	require.True(t, matched)
	require.False(t, upgrade)
	require.Equal(t, "bcrypt", scheme)

	_, _, err = svc.Login(ctx, "ana", "secreto1")
	require.NoError(t, err)
}

func TestSessionGuard(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAuthService(t, repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, registerInput("ana"))
	require.NoError(t, err)
	_, session, err := svc.Login(ctx, "ana", "secreto1")
	require.NoError(t, err)

	got, err := svc.SessionFromToken(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.SessionFromToken(ctx, "")
	require.ErrorIs(t, err, ErrNoSession)
	_, err = svc.SessionFromToken(ctx, "garbage-token")
	require.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.SessionFromToken(ctx, session.Token)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestSessionGuardExpiredToken(t *testing.T) {
	repo := newTestRepo(t)
	svc := newAuthService(t, repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, registerInput("ana"))
	require.NoError(t, err)

	require.NoError(t, repo.CreateSession(ctx, core.Session{
		Token:     "stale",
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err = svc.SessionFromToken(ctx, "stale")
	require.ErrorIs(t, err, ErrNoSession)
}
