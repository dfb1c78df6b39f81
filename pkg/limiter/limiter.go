// Package limiter provides token-bucket rate limiting for provider
// API calls.
package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimit is returned when a reservation cannot be satisfied.
var ErrRateLimit = fmt.Errorf("rate limit exceeded")

// Limiter enforces a tokens-per-minute budget for one provider model.
// The bucket starts full and refills continuously.
type Limiter struct {
	mu              sync.Mutex
	tokensPerMinute int
	currentTokens   float64
	lastRefill      time.Time
	pollInterval    time.Duration
}

// New creates a limiter allowing tokensPerMinute tokens. A zero or
// negative rate disables limiting; Reserve and Wait always succeed.
func New(tokensPerMinute int) *Limiter {
	return &Limiter{
		tokensPerMinute: tokensPerMinute,
		currentTokens:   float64(tokensPerMinute),
		lastRefill:      time.Now(),
		pollInterval:    250 * time.Millisecond,
	}
}

// Enabled reports whether a rate is configured.
func (l *Limiter) Enabled() bool {
	return l.tokensPerMinute > 0
}

// Reserve takes tokens from the bucket, or returns ErrRateLimit if the
// bucket cannot cover them right now.
func (l *Limiter) Reserve(tokens int) error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.currentTokens < float64(tokens) {
		return ErrRateLimit
	}
	l.currentTokens -= float64(tokens)
	return nil
}

// Wait blocks until the reservation succeeds or the context ends.
// Requests larger than a full bucket are admitted once the bucket is
// completely full rather than blocking forever.
func (l *Limiter) Wait(ctx context.Context, tokens int) error {
	if !l.Enabled() {
		return nil
	}
	if tokens > l.tokensPerMinute {
		tokens = l.tokensPerMinute
	}

	for {
		if err := l.Reserve(tokens); err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
}

// Available returns the current bucket level.
func (l *Limiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return int(l.currentTokens)
}

// refill credits tokens for the time elapsed since the last refill.
// Callers must hold l.mu.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.lastRefill)
	l.lastRefill = now

	l.currentTokens += elapsed.Minutes() * float64(l.tokensPerMinute)
	if l.currentTokens > float64(l.tokensPerMinute) {
		l.currentTokens = float64(l.tokensPerMinute)
	}
}
