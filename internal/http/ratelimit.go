package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// rateLimitPerMinute is the per-IP request ceiling on the API. Mobile
	// clients poll the dashboard after every mutation, so the ceiling leaves
	// generous headroom over normal use.
	rateLimitPerMinute = 60

	rateLimitWindow       = time.Minute
	rateLimitCleanupEvery = 5 * time.Minute
	rateLimitStaleAfter   = 10 * time.Minute
)

// rateLimiter enforces a fixed-window per-IP request limit. State lives in
// memory; a restart resets all windows, which is acceptable for this limiter
// since it protects the process itself.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int

	quit chan struct{}
	once sync.Once
}

type visitor struct {
	windowStart time.Time
	count       int
}

func newRateLimiter(limit int) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		quit:     make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// allow counts a request against the client's current window and reports
// whether it fits under the limit.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	v, ok := rl.visitors[clientIP]
	if !ok || now.Sub(v.windowStart) > rateLimitWindow {
		rl.visitors[clientIP] = &visitor{windowStart: now, count: 1}
		return true
	}

	v.count++
	if v.count > rl.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

// janitor drops visitors that have been idle past the stale cutoff so the map
// does not grow with one entry per IP ever seen.
func (rl *rateLimiter) janitor() {
	ticker := time.NewTicker(rateLimitCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-rateLimitStaleAfter)
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if v.windowStart.Before(cutoff) {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.quit:
			return
		}
	}
}

// stop ends the janitor goroutine.
func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.quit) })
}
