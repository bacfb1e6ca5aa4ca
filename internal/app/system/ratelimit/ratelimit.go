// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/academyhub/internal/app/system/clock"
	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per key: limit attempts, refilled
// evenly over per. It is safe for concurrent use.
//
// Idle buckets are pruned lazily while Allow runs, so no goroutine
// outlives the limiter.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	every   rate.Limit
	burst   int
	idle    time.Duration
	clock   clock.Clock
	calls   int
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// pruneEvery is how many Allow calls pass between sweeps of idle buckets.
const pruneEvery = 256

// New returns a limiter allowing limit attempts per key in any window of
// length per. A nil clk uses the system clock.
func New(limit int, per time.Duration, clk clock.Clock) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(per / time.Duration(limit)),
		burst:   limit,
		idle:    per,
		clock:   clock.OrSystem(clk),
	}
}

// Allow spends one token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	l.calls++
	if l.calls%pruneEvery == 0 {
		l.prune(now)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Remaining reports how many whole tokens key has left right now.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		return l.burst
	}
	n := int(b.lim.TokensAt(l.clock.Now()))
	if n < 0 {
		return 0
	}
	return n
}

// Reset forgets key, restoring its full allowance.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// A bucket idle for a full window has refilled, so dropping it changes
// nothing. Caller holds l.mu.
func (l *Limiter) prune(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.seen) >= l.idle {
			delete(l.buckets, key)
		}
	}
}

// ClientIP returns the caller's address: the first X-Forwarded-For entry,
// then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LoginLimiter throttles sign-in attempts per client address and per
// account email.
type LoginLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewLoginLimiter allows ipLimit attempts per address per ipWindow and
// emailLimit attempts per account per emailWindow.
func NewLoginLimiter(ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration, clk clock.Clock) *LoginLimiter {
	return &LoginLimiter{
		ip:    New(ipLimit, ipWindow, clk),
		email: New(emailLimit, emailWindow, clk),
	}
}

// Check spends one attempt for the request's address and for email. A
// false result carries the message to show the caller.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	if !ll.ip.Allow(ClientIP(r)) {
		return false, "too many login attempts, wait a minute and try again"
	}
	if key := emailKey(email); key != "" && !ll.email.Allow(key) {
		return false, "too many login attempts for this account, wait a few minutes"
	}
	return true, ""
}

// ResetEmail clears the account's count after a successful sign-in.
func (ll *LoginLimiter) ResetEmail(email string) {
	if key := emailKey(email); key != "" {
		ll.email.Reset(key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
