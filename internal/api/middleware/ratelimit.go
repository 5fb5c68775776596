package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mcoot/playermanager/internal/api/apierr"
)

const (
	rateLimitCleanupInterval = 5 * time.Minute
	rateLimitEntryTTL        = 10 * time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP
type RateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*ipLimiter
	rps         rate.Limit
	burst       int
	lastCleanup time.Time
	now         func() time.Time
	trusted     []netip.Prefix
}

// NewRateLimiter allows requestsPerMinute per IP, with bursts up to the
// same number
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &RateLimiter{
		limiters:    make(map[string]*ipLimiter, 64),
		rps:         rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:       requestsPerMinute,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// TrustProxies makes X-Forwarded-For count for requests whose peer is in
// one of the prefixes. With no trusted proxies the header is ignored.
func (rl *RateLimiter) TrustProxies(prefixes []netip.Prefix) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.trusted = append([]netip.Prefix(nil), prefixes...)
}

// Allow reports whether a request from ip may proceed
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.limiter(ip).Allow()
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) > rateLimitCleanupInterval {
		for k, entry := range rl.limiters {
			if now.Sub(entry.lastSeen) > rateLimitEntryTTL {
				delete(rl.limiters, k)
			}
		}
		rl.lastCleanup = now
	}

	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &ipLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Middleware rejects requests over the limit with 429
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.clientIP(r)) {
			apierr.WriteError(w, apierr.NewRateLimitedError())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the remote host unless that host is a trusted proxy. Then
// X-Forwarded-For is walked right to left and the first hop that is not
// itself a trusted proxy wins.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}

	rl.mu.Lock()
	trusted := rl.trusted
	rl.mu.Unlock()

	if !isTrusted(trusted, peer) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !isTrusted(trusted, hop) {
			return hop
		}
	}
	return peer
}

func isTrusted(trusted []netip.Prefix, host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
