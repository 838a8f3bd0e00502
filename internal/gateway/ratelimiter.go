package gateway

import (
	"sync"

	"golang.org/x/time/rate"
)

// ReasonRateLimited is the error text sent for frames over the rate limit
const ReasonRateLimited = "rate limit exceeded"

// ClientRateLimiter is a token bucket limiting the frames of one client
type ClientRateLimiter struct {
	limiter *rate.Limiter

	mu       sync.Mutex
	allowed  int
	rejected int
}

// NewClientRateLimiter creates a limiter refilling requestsPerSecond tokens
// per second with room for burst frames
func NewClientRateLimiter(requestsPerSecond float64, burst int) *ClientRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientRateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// CheckRequestAllowed takes a token if one is available
func (r *ClientRateLimiter) CheckRequestAllowed() (bool, string) {
	ok := r.limiter.Allow()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !ok {
		r.rejected++
		return false, ReasonRateLimited
	}
	r.allowed++
	return true, ""
}

// GetStats returns the number of allowed and rejected frames
func (r *ClientRateLimiter) GetStats() (allowed, rejected int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.allowed, r.rejected
}
