// Package http exposes the JSON API consumed by the mobile clients.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"billetera/internal/cache"
	"billetera/internal/core"
	"billetera/internal/middleware/security"
	"billetera/internal/middleware/trace"
	"billetera/internal/services"
)

type contextKey string

// userContextKey carries the authenticated user resolved by the session
// guard.
const userContextKey contextKey = "user"

type Server struct {
	http.Server
	auth *services.AuthService
	txs  *services.TransactionService

	rateLimiter *rateLimiter
	metrics     securityMetrics

	// Derived view state is rederived from the full transaction list on
	// every mutation; these caches only absorb repeated reads between
	// mutations and are dropped the moment a user's set changes.
	balanceCache   *cache.LRUCache[core.Money]
	breakdownCache *cache.LRUCache[core.MonthBreakdown]

	cacheManager *cache.Manager
	shutdownOnce sync.Once
}

func NewServer(addr string, authSvc *services.AuthService, txSvc *services.TransactionService) *Server {
	s := &Server{
		auth:           authSvc,
		txs:            txSvc,
		rateLimiter:    newRateLimiter(rateLimitPerMinute),
		balanceCache:   cache.NewLRUCache[core.Money](1000, 30*time.Second),
		breakdownCache: cache.NewLRUCache[core.MonthBreakdown](1000, 30*time.Second),
		cacheManager:   cache.NewManager(),
	}
	s.cacheManager.Register(s.balanceCache)
	s.cacheManager.Register(s.breakdownCache)
	s.cacheManager.StartCleanup(time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)

	mux.Handle("GET /api/me", s.requireSession(s.handleMe))
	mux.Handle("GET /api/categories", s.requireSession(s.handleListCategories))
	mux.Handle("POST /api/transactions", s.requireSession(s.handleCreateTransaction))
	mux.Handle("GET /api/transactions", s.requireSession(s.handleListTransactions))
	mux.Handle("DELETE /api/transactions/{id}", s.requireSession(s.handleDeleteTransaction))
	mux.Handle("GET /api/balance", s.requireSession(s.handleBalance))
	mux.Handle("GET /api/breakdown", s.requireSession(s.handleBreakdown))

	mux.HandleFunc("GET /healthz", s.handleHealth)

	traced := trace.NewMiddleware(extractClientIP)
	handler := security.Headers(traced.Middleware(s.limitRate(mux)))

	s.Server = http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16, // 64KB
	}
	return s
}

// requireSession is the session guard: every data operation passes through
// it first. A missing or dead session aborts the request with 401; the
// client treats that as a navigation signal back to login, there is nothing
// to retry.
func (s *Server) requireSession(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.auth.SessionFromToken(r.Context(), bearerToken(r))
		if err != nil {
			writeUnauthorized(w)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the user installed by requireSession.
func currentUser(r *http.Request) core.User {
	u, _ := r.Context().Value(userContextKey).(core.User)
	return u
}

func (s *Server) limitRate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIP(r)
		if !s.rateLimiter.allow(clientIP, &s.metrics) {
			slog.WarnContext(r.Context(), "Rate limit exceeded", "client_ip", clientIP)
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		if detectSuspiciousRequest(r, &s.metrics) {
			slog.WarnContext(r.Context(), "Suspicious request",
				"client_ip", clientIP, "path", r.URL.Path, "user_agent", r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// cacheKey is the per-user key for derived view state. Only the current
// month's breakdown is cached, so one key per user suffices for both caches.
func cacheKey(userID int64) string {
	return fmt.Sprintf("u%d", userID)
}

// invalidateDerivedState drops the cached balance and breakdown for a user
// after a mutation; the next read rederives them from the store.
func (s *Server) invalidateDerivedState(userID int64) {
	s.balanceCache.Delete(cacheKey(userID))
	s.breakdownCache.Delete(cacheKey(userID))
}

// Shutdown stops background cache cleanup and the rate limiter before the
// HTTP server drains.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()

		balHits, balMisses := s.balanceCache.Stats()
		bdHits, bdMisses := s.breakdownCache.Stats()
		slog.Info("Derived state cache stats",
			"balance_hits", balHits,
			"balance_misses", balMisses,
			"breakdown_hits", bdHits,
			"breakdown_misses", bdMisses)
	})
	return s.Server.Shutdown(ctx)
}
