package github

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/fumiya-kume/cra/pkg/clock"
)

// DefaultRequestsPerHour is GitHub's quota for authenticated users
const DefaultRequestsPerHour = 5000

// RateLimiter spreads API calls over the hourly quota. It starts full so a
// short burst of requests goes out immediately.
type RateLimiter struct {
	clock      clock.Clock
	limiter    *rate.Limiter
	maxTokens  int
	refillRate time.Duration
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return NewRateLimiterWithClock(maxRequests, window, clock.NewRealClock())
}

// NewRateLimiterWithClock allows maxRequests per window as measured by clk
func NewRateLimiterWithClock(maxRequests int, window time.Duration, clk clock.Clock) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = DefaultRequestsPerHour
	}
	if window <= 0 {
		window = time.Hour
	}
	every := window / time.Duration(maxRequests)
	return &RateLimiter{
		clock:      clk,
		limiter:    rate.NewLimiter(rate.Every(every), maxRequests),
		maxTokens:  maxRequests,
		refillRate: every,
	}
}

// Wait takes a token, sleeping on the clock until one accrues
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := r.clock.Now()
	res := r.limiter.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	if delay == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		res.CancelAt(r.clock.Now())
		return ctx.Err()
	case <-r.clock.After(delay):
		return nil
	}
}

func (r *RateLimiter) TryAcquire() bool {
	return r.limiter.AllowN(r.clock.Now(), 1)
}

// Available is the number of whole tokens ready now
func (r *RateLimiter) Available() int {
	return int(math.Floor(r.limiter.TokensAt(r.clock.Now())))
}

func (r *RateLimiter) String() string {
	return fmt.Sprintf("github limiter %d/%d, one every %v", r.Available(), r.maxTokens, r.refillRate)
}
