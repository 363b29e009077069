package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/kassemKu/sibai-transactions-sub000/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Fixed-window per-IP limiter. One instance guards the whole API, a stricter
// one guards /auth/login against credential stuffing. State is in-process;
// a multi-instance deployment would need the counters moved to redis.

type windowCounter struct {
	mu        sync.Mutex
	count     int
	windowEnd time.Time
}

func (w *windowCounter) hit(window time.Duration, limit int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	if now.After(w.windowEnd) {
		w.count = 0
		w.windowEnd = now.Add(window)
	}
	w.count++
	return w.count <= limit
}

type ipLimiter struct {
	mu      sync.Mutex
	entries map[string]*windowCounter
	limit   int
	window  time.Duration
}

func newIPLimiter(limit int, window time.Duration) *ipLimiter {
	l := &ipLimiter{
		entries: make(map[string]*windowCounter),
		limit:   limit,
		window:  window,
	}
	go l.purgeLoop()
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	entry, ok := l.entries[ip]
	if !ok {
		entry = &windowCounter{}
		l.entries[ip] = entry
	}
	l.mu.Unlock()
	return entry.hit(l.window, l.limit)
}

// purgeLoop drops IPs whose window has lapsed so one-off clients do not
// accumulate forever.
func (l *ipLimiter) purgeLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		purged := 0

		l.mu.Lock()
		for ip, entry := range l.entries {
			entry.mu.Lock()
			expired := now.After(entry.windowEnd)
			entry.mu.Unlock()
			if expired {
				delete(l.entries, ip)
				purged++
			}
		}
		remaining := len(l.entries)
		l.mu.Unlock()

		if purged > 0 {
			log.Debug().
				Int("purged", purged).
				Int("remaining", remaining).
				Msg("rate limiter entries purged")
		}
	}
}

var loginLimiter = newIPLimiter(20, time.Minute)

// LoginRateLimiter caps login attempts at 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !loginLimiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("too many login attempts, retry in 1 minute"))
			return
		}
		c.Next()
	}
}

// RateLimiter is the general per-IP limiter applied to the whole router.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	limiter := newIPLimiter(limit, window)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.Header("Retry-After", window.String())
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("too many requests, retry shortly"))
			return
		}
		c.Next()
	}
}
