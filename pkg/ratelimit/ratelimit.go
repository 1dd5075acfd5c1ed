// Package ratelimit provides the shared limiter capabilities the pipeline
// injects into its stages: one token bucket shared across all Notion calls
// and one per-account daily budget for Instagram publish calls. Both are
// interfaces so tests can substitute deterministic implementations.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates a shared external API. Allow reports whether one call may
// proceed now; callers surface a retryable error on rejection rather than
// blocking a queue worker.
type Limiter interface {
	Allow() bool
}

// KeyedLimiter gates calls budgeted per key (account id).
type KeyedLimiter interface {
	Allow(key string) bool
}

// NewAPILimiter returns a token-bucket limiter of perSec calls per second,
// shared by every invocation in the process.
func NewAPILimiter(perSec float64) Limiter {
	return &apiLimiter{l: rate.NewLimiter(rate.Limit(perSec), 1)}
}

type apiLimiter struct {
	l *rate.Limiter
}

func (a *apiLimiter) Allow() bool { return a.l.Allow() }

// NewDailyLimiter returns a per-key limiter of perDay calls per rolling day.
// The burst equals the full daily budget so an idle account can spend it at
// any pace.
func NewDailyLimiter(perDay int) KeyedLimiter {
	return &dailyLimiter{
		perDay:   perDay,
		limiters: make(map[string]*rate.Limiter),
	}
}

type dailyLimiter struct {
	mu       sync.Mutex
	perDay   int
	limiters map[string]*rate.Limiter
}

func (d *dailyLimiter) Allow(key string) bool {
	d.mu.Lock()
	l, ok := d.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(24*time.Hour/time.Duration(d.perDay)), d.perDay)
		d.limiters[key] = l
	}
	d.mu.Unlock()
	return l.Allow()
}
