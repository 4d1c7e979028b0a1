package httpclient

import (
	"sync"

	"golang.org/x/time/rate"
)

// adaptiveLimiter wraps a rate.Limiter and nudges its rate up on
// success and down on a 429, mirroring sells-group-research-cli's
// AdaptiveLimiter. It is opt-in (Options.Adaptive) because spec.md §5
// treats rate limits as an operator-set knob, not an auto-tuned one.
type adaptiveLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	base    rate.Limit
	current rate.Limit
}

func newAdaptiveLimiter(l *rate.Limiter) *adaptiveLimiter {
	base := l.Limit()
	return &adaptiveLimiter{limiter: l, base: base, current: base}
}

// OnSuccess increases the rate by 20%, capped at 2x the base rate.
func (a *adaptiveLimiter) OnSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.current * 1.2
	if max := a.base * 2; next > max {
		next = max
	}
	a.current = next
	a.limiter.SetLimit(a.current)
}

// OnRateLimit halves the rate, floored at 1/4 the base rate.
func (a *adaptiveLimiter) OnRateLimit() {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := a.current / 2
	if min := a.base / 4; next < min {
		next = min
	}
	a.current = next
	a.limiter.SetLimit(a.current)
}
