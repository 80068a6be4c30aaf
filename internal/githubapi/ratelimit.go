package githubapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimits tracks the GitHub API rate-limit window as reported by
// response headers. It is advisory: concurrent updates race benignly and
// the counters only gate outbound calls, they are not a correctness
// mechanism. One instance is shared per client so that tests and multiple
// sessions each get their own window.
type RateLimits struct {
	mu        sync.Mutex
	limit     int
	remaining int
	resetTime time.Time
	seen      bool
}

// NewRateLimits returns an empty rate-limit tracker.
func NewRateLimits() *RateLimits {
	return &RateLimits{}
}

// Update refreshes the window from response headers. Parsing is
// best-effort: absent or malformed headers leave the current state alone.
func (r *RateLimits) Update(h http.Header) {
	limit, err := strconv.Atoi(h.Get("X-RateLimit-Limit"))
	if err != nil {
		return
	}
	remaining, err := strconv.Atoi(h.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}
	resetUnix, err := strconv.ParseInt(h.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.limit = limit
	r.remaining = remaining
	r.resetTime = time.Unix(resetUnix, 0)
	r.seen = true
}

// Exhausted reports whether the window is used up and has not reset yet.
// Once the reset time passes the cached window is discarded.
func (r *RateLimits) Exhausted(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.seen {
		return false
	}
	if !now.Before(r.resetTime) {
		r.seen = false
		return false
	}
	return r.remaining <= 0
}

// Snapshot returns the current window. ok is false when no headers have
// been observed yet or the window has expired.
func (r *RateLimits) Snapshot(now time.Time) (limit, remaining int, reset time.Time, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.seen || !now.Before(r.resetTime) {
		return 0, 0, time.Time{}, false
	}
	return r.limit, r.remaining, r.resetTime, true
}
