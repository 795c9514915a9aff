package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 10 * time.Minute
	cleanupMaxAge   = 30 * time.Minute
)

// Add metadata to track last use
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// IPLimiter keeps one token bucket per client IP.
type IPLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiterEntry
	limit    rate.Limit
	burst    int
}

// NewIPLimiter allows perMinute requests per IP with the given burst. It
// returns nil when perMinute <= 0, which disables limiting.
func NewIPLimiter(perMinute, burst int) *IPLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &IPLimiter{
		limiters: make(map[string]*rateLimiterEntry),
		limit:    rate.Limit(perMinute) / 60.0,
		burst:    burst,
	}
}

// Helper function to get or create a rate limiter
func (l *IPLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.limiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter:  rate.NewLimiter(l.limit, l.burst),
			lastUsed: time.Now(),
		}
		l.limiters[ip] = entry
	} else {
		entry.lastUsed = time.Now()
	}
	return entry.limiter
}

// Allow reports whether ip may make a request now.
func (l *IPLimiter) Allow(ip string) bool {
	if l == nil {
		return true
	}
	return l.get(ip).Allow()
}

// sweep drops limiters not used since cutoff and returns how many remain.
func (l *IPLimiter) sweep(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, entry := range l.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
	return len(l.limiters)
}

// Cleanup periodically forgets idle IPs until ctx is done.
func (l *IPLimiter) Cleanup(ctx context.Context) {
	if l == nil {
		return
	}
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			remaining := l.sweep(time.Now().Add(-cleanupMaxAge))
			log.Debug().Int("remaining", remaining).Msg("Swept idle rate limiters")
		case <-ctx.Done():
			return
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (l *IPLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			log.Warn().Str("ip", c.ClientIP()).Str("path", c.FullPath()).Msg("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
