// Package strategies provides reference antispam.Strategy implementations:
// a sliding-window rate limiter, a proof-of-work gate, and a web-of-trust
// score gate. None of these is part of the simulation core; they are
// concrete collaborators the core dispatches to through the Strategy
// contract, same as a researcher's own strategy would be.
package strategies

import (
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"

	"github.com/cameri/nostr-simulator/antispam"
)

// RateLimiter rejects messages once an author exceeds configured rates,
// via a sliding-window limiter keyed per author. It wraps a real
// catrate.Limiter rather than reimplementing sliding-window accounting;
// that limiter tracks wall-clock time internally, so within one
// simulation run it approximates the configured per-second/per-minute
// windows against real elapsed time rather than simulated time — an
// accepted simplification given there is no simulated-clock injection
// point in the wrapped limiter.
type RateLimiter struct {
	limiter *catrate.Limiter

	mu      sync.Mutex
	allowed int
	blocked int
}

// NewRateLimiter builds a RateLimiter allowing perSecond events/second and
// perSecond*60 events/minute per author.
func NewRateLimiter(perSecond float64) *RateLimiter {
	n := int(perSecond)
	if n < 1 {
		n = 1
	}
	return &RateLimiter{
		limiter: catrate.NewLimiter(map[time.Duration]int{
			time.Second: n,
			time.Minute: n * 60,
		}),
	}
}

func (r *RateLimiter) Name() string { return "rate_limiting" }

func (r *RateLimiter) Evaluate(m antispam.Message, t float64) antispam.StrategyResult {
	_, ok := r.limiter.Allow(m.Author)
	if ok {
		return antispam.StrategyResult{Allowed: true, Reason: "within rate limit"}
	}
	r.mu.Lock()
	r.blocked++
	r.mu.Unlock()
	return antispam.StrategyResult{Allowed: false, Reason: "rate limit exceeded"}
}

// UpdateState only tallies the admitted-count metric: the underlying
// catrate.Limiter.Allow call already performed admission accounting as
// part of Evaluate, since that dependency combines the decision and the
// recording step into a single call.
func (r *RateLimiter) UpdateState(m antispam.Message, t float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowed++
}

func (r *RateLimiter) ResetMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowed, r.blocked = 0, 0
}

func (r *RateLimiter) Metrics() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return map[string]float64{
		"admitted": float64(r.allowed),
		"blocked":  float64(r.blocked),
	}
}
