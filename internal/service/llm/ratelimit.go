package llm

import (
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimitError is returned when a request exceeds the platform-side
// request budget. The classifier recognizes this shape directly.
type RateLimitError struct {
	RetryAfter string
}

func (e *RateLimitError) Error() string {
	return "rate limit exceeded, please slow down"
}

// PlatformLimiter throttles generation attempts made on the shared
// platform keys. Turns billed to a user's own key bypass it entirely,
// since they consume no shared quota.
type PlatformLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rpm      int
}

// NewPlatformLimiter creates a per-user limiter allowing rpm requests
// per minute with a small burst.
func NewPlatformLimiter(rpm int) *PlatformLimiter {
	return &PlatformLimiter{
		limiters: make(map[string]*rate.Limiter),
		rpm:      rpm,
	}
}

// Allow records one attempt for the user and fails with a
// *RateLimitError when the budget is exhausted.
func (l *PlatformLimiter) Allow(userID string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(float64(l.rpm)/60.0), l.rpm)
		l.limiters[userID] = limiter
	}
	l.mu.Unlock()

	if !limiter.Allow() {
		return fmt.Errorf("user %s: %w", userID, &RateLimitError{RetryAfter: "60s"})
	}

	return nil
}
