package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"contest_arena/internal/common"
	"contest_arena/internal/platform/logger"

	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client address.
type IPRateLimiter struct {
	mu    sync.Mutex
	ips   map[string]*limiterEntry
	r     rate.Limit
	burst int
	idle  time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows rps requests per second per address with the given burst.
func NewIPRateLimiter(rps float64, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*limiterEntry),
		r:     rate.Limit(rps),
		burst: burst,
		idle:  3 * time.Minute,
	}
}

// Run evicts idle addresses every minute until ctx is done.
func (rl *IPRateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.evict(now)
		}
	}
}

func (rl *IPRateLimiter) evict(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, e := range rl.ips {
		if now.Sub(e.lastSeen) > rl.idle {
			delete(rl.ips, ip)
		}
	}
}

func (rl *IPRateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.ips[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.ips[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// Handler rejects requests over the address's budget with 429.
func (rl *IPRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.limiter(ip).Allow() {
			logger.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
			common.RespondWithError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr, which chi's RealIP has already resolved.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
