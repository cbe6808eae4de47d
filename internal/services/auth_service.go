// Package services orchestrates the account and transaction workflows on
// top of storage, the password chain and the event bus.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"billetera/internal/auth"
	"billetera/internal/core"
	"billetera/internal/storage"
)

var (
	// ErrInvalidCredentials is deliberately generic: it never reveals
	// whether the account exists or which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNoSession means the caller must re-authenticate. It is a
	// navigation signal, not a failure to retry.
	ErrNoSession        = errors.New("no active session")
	ErrUsernameTaken    = errors.New("username or email already registered")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
)

// AuthStore is the slice of storage the auth workflows need.
type AuthStore interface {
	CreateUser(ctx context.Context, u core.User) (int64, error)
	DeleteUser(ctx context.Context, id int64) error
	GetUser(ctx context.Context, id int64) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	UpdatePasswordHash(ctx context.Context, userID int64, hash string) error
	CreateWallet(ctx context.Context, userID int64) error
	CreateSession(ctx context.Context, s core.Session) error
	GetSession(ctx context.Context, token string) (core.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type AuthService struct {
	store      AuthStore
	chain      *auth.Chain
	sessionTTL time.Duration
}

func NewAuthService(store AuthStore, chain *auth.Chain, sessionTTL time.Duration) *AuthService {
	return &AuthService{store: store, chain: chain, sessionTTL: sessionTTL}
}

type RegisterInput struct {
	Name     string
	Surname  string
	Username string
	Email    string
	Password string
}

// Register creates the user and their wallet. The two inserts are paired in
// application logic: if the wallet insert fails the user row is removed
// again so no orphaned account remains.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (core.User, error) {
	u := core.User{
		Name:     in.Name,
		Surname:  in.Surname,
		Username: in.Username,
		Email:    in.Email,
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if len(in.Password) < 6 {
		if in.Password == "" {
			return core.User{}, core.ErrEmptyPassword
		}
		return core.User{}, ErrPasswordTooShort
	}

	hash, err := s.chain.Hash(in.Password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash

	id, err := s.store.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return core.User{}, ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID = id

	if err := s.store.CreateWallet(ctx, id); err != nil {
		// Compensating delete: a user without a wallet must not exist.
		if delErr := s.store.DeleteUser(ctx, id); delErr != nil {
			slog.ErrorContext(ctx, "Compensating user delete failed",
				"user_id", id, "error", delErr)
		}
		return core.User{}, fmt.Errorf("create wallet: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", id, "username", u.Username)
	return u, nil
}

// Login verifies the password against the ordered hash chain. A match on the
// legacy scheme upgrades the stored hash to the canonical one before the
// session is issued; accounts migrate lazily, one successful login at a time.
func (s *AuthService) Login(ctx context.Context, username, password string) (core.User, core.Session, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, core.Session{}, ErrInvalidCredentials
		}
		return core.User{}, core.Session{}, fmt.Errorf("load user: %w", err)
	}

	matched, upgrade, scheme := s.chain.Verify(password, u.PasswordHash)
	if !matched {
		return core.User{}, core.Session{}, ErrInvalidCredentials
	}

	if upgrade {
		newHash, err := s.chain.Hash(password)
		if err == nil {
			err = s.store.UpdatePasswordHash(ctx, u.ID, newHash)
		}
		if err != nil {
			// The login itself still succeeds; the upgrade is retried on
			// the next one.
			slog.ErrorContext(ctx, "Legacy hash upgrade failed",
				"user_id", u.ID, "scheme", scheme, "error", err)
		} else {
			u.PasswordHash = newHash
			slog.InfoContext(ctx, "Legacy hash upgraded on login",
				"user_id", u.ID, "from_scheme", scheme)
		}
	}

	session, err := s.newSession(ctx, u.ID)
	if err != nil {
		return core.User{}, core.Session{}, err
	}
	return u, session, nil
}

func (s *AuthService) newSession(ctx context.Context, userID int64) (core.Session, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return core.Session{}, err
	}
	session := core.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return core.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// SessionFromToken is the session guard: it resolves a bearer token to its
// user or reports ErrNoSession. Absence is not recovered from here; callers
// redirect to login.
func (s *AuthService) SessionFromToken(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, ErrNoSession
	}

	session, err := s.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, ErrNoSession
		}
		return core.User{}, fmt.Errorf("load session: %w", err)
	}

	if session.Expired(time.Now()) {
		if err := s.store.DeleteSession(ctx, token); err != nil {
			slog.WarnContext(ctx, "Expired session cleanup failed", "error", err)
		}
		return core.User{}, ErrNoSession
	}

	u, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return core.User{}, ErrNoSession
		}
		return core.User{}, fmt.Errorf("load session user: %w", err)
	}
	return u, nil
}

// Logout discards the session. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}
