// Package cache provides the in-process caches for derived view state. The
// caches absorb repeated balance and breakdown reads between mutations; they
// are never the source of truth, every entry can be rederived from storage.
package cache

import (
	"log/slog"
	"time"
)

// Cache is the read/write surface the HTTP layer depends on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop their expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager owns the periodic expiry pass over every registered cache.
type Manager struct {
	registered  []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the cleanup pass. Not safe to call after
// StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.registered = append(m.registered, cache)
}

// StartCleanup begins the periodic expiry pass in its own goroutine.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			expired := 0
			for _, cache := range m.registered {
				expired += cache.CleanExpired()
			}
			if expired > 0 {
				slog.Debug("Expired cache entries dropped",
					"component", "cache", "count", expired)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup pass and waits for it to exit.
func (m *Manager) Stop() {
	if m.stopCleanup != nil {
		close(m.stopCleanup)
		<-m.cleanupDone
	}
}
