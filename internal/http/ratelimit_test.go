package http

import (
	"fmt"
	"testing"
)

func TestRateLimiterEnforcesLimit(t *testing.T) {
	rl := newRateLimiter(3)
	defer rl.stop()

	var metrics securityMetrics
	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1", &metrics) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("10.0.0.1", &metrics) {
		t.Fatal("request over the limit should be denied")
	}
	if metrics.rateLimitHits != 1 {
		t.Fatalf("rateLimitHits = %d, want 1", metrics.rateLimitHits)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.stop()

	for i := 0; i < 5; i++ {
		ip := fmt.Sprintf("10.0.0.%d", i)
		if !rl.allow(ip, nil) {
			t.Fatalf("first request from %s should be allowed", ip)
		}
	}
	if rl.allow("10.0.0.0", nil) {
		t.Fatal("second request from an exhausted client should be denied")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(1)
	rl.stop()
	rl.stop()
}
