// Package ratelimit throttles the anonymous write endpoints with sliding
// minute, hour and day windows shared by all clients.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter tracks and enforces request rate limits. A limit of zero or
// less disables that window.
type RateLimiter struct {
	requestsPerMinute int
	requestsPerHour   int
	requestsPerDay    int
	enabled           bool

	// Accepted request times, oldest first, covering the last 24 hours
	accepted []time.Time
	rejected int64
	now      func() time.Time
	mu       sync.Mutex
}

// NewRateLimiter creates a new rate limiter with the given limits
func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		requestsPerHour:   requestsPerHour,
		requestsPerDay:    requestsPerDay,
		enabled:           enabled,
		accepted:          make([]time.Time, 0),
		now:               time.Now,
	}
}

// WithClock replaces the wall clock, for tests
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	return rl
}

// AllowRequest records a request if every window has room. When the request
// is refused it returns false and how long until the tightest full window
// frees a slot.
func (rl *RateLimiter) AllowRequest() (bool, time.Duration) {
	if !rl.enabled {
		return true, 0
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	var wait time.Duration
	for _, w := range rl.windows() {
		if w.limit <= 0 {
			continue
		}
		inWindow := rl.countSince(now.Add(-w.span))
		if inWindow < w.limit {
			continue
		}
		// The oldest request still inside the window leaves it first
		oldest := rl.accepted[len(rl.accepted)-inWindow]
		if d := oldest.Add(w.span).Sub(now); d > wait {
			wait = d
		}
	}
	if wait > 0 {
		rl.rejected++
		return false, wait
	}

	rl.accepted = append(rl.accepted, now)
	return true, 0
}

type window struct {
	span  time.Duration
	limit int
}

func (rl *RateLimiter) windows() [3]window {
	return [3]window{
		{time.Minute, rl.requestsPerMinute},
		{time.Hour, rl.requestsPerHour},
		{24 * time.Hour, rl.requestsPerDay},
	}
}

// cleanup drops entries older than the day window
func (rl *RateLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	i := 0
	for i < len(rl.accepted) && !rl.accepted[i].After(cutoff) {
		i++
	}
	rl.accepted = rl.accepted[i:]
}

// countSince counts accepted requests strictly after cutoff
func (rl *RateLimiter) countSince(cutoff time.Time) int {
	n := 0
	for i := len(rl.accepted) - 1; i >= 0 && rl.accepted[i].After(cutoff); i-- {
		n++
	}
	return n
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanup(now)

	minute := rl.countSince(now.Add(-time.Minute))
	hour := rl.countSince(now.Add(-time.Hour))
	day := len(rl.accepted)

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  minute,
		RequestsLastHour:    hour,
		RequestsLastDay:     day,
		LimitPerMinute:      rl.requestsPerMinute,
		LimitPerHour:        rl.requestsPerHour,
		LimitPerDay:         rl.requestsPerDay,
		RemainingThisMinute: max(0, rl.requestsPerMinute-minute),
		RemainingThisHour:   max(0, rl.requestsPerHour-hour),
		RemainingThisDay:    max(0, rl.requestsPerDay-day),
		Rejected:            rl.rejected,
	}
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool  `json:"enabled"`
	RequestsLastMinute  int   `json:"requestsLastMinute"`
	RequestsLastHour    int   `json:"requestsLastHour"`
	RequestsLastDay     int   `json:"requestsLastDay"`
	LimitPerMinute      int   `json:"limitPerMinute"`
	LimitPerHour        int   `json:"limitPerHour"`
	LimitPerDay         int   `json:"limitPerDay"`
	RemainingThisMinute int   `json:"remainingThisMinute"`
	RemainingThisHour   int   `json:"remainingThisHour"`
	RemainingThisDay    int   `json:"remainingThisDay"`
	Rejected            int64 `json:"rejected"`
}

// Reset clears all tracked requests (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.accepted = make([]time.Time, 0)
	rl.rejected = 0
}

// Middleware rejects requests with 429 once any window is full
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, wait := rl.AllowRequest()
		if !ok {
			secs := int(wait.Seconds())
			if wait > time.Duration(secs)*time.Second {
				secs++
			}
			c.Header("Retry-After", strconv.Itoa(secs))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
