package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per key (usually a client IP). Idle buckets
// are dropped on the next call after idleTTL.
type Limiter struct {
	mu      sync.Mutex
	m       map[string]*entry
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time
	lastGC  time.Time
}

// New creates a keyed limiter allowing perSec sustained and burst immediate calls.
func New(perSec float64, burst int) *Limiter {
	return &Limiter{
		m:       make(map[string]*entry),
		limit:   rate.Limit(perSec),
		burst:   burst,
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.m[key] = e
	}
	e.seen = now
	allowed := e.lim.AllowN(now, 1)

	if now.Sub(l.lastGC) > l.idleTTL {
		for k, v := range l.m {
			if now.Sub(v.seen) > l.idleTTL {
				delete(l.m, k)
			}
		}
		l.lastGC = now
	}
	return allowed
}

// Size returns the number of tracked keys.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
