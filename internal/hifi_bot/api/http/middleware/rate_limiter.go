package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"net/http"
	"sync"
	"time"
)

// limiterIdleTTL is how long a full bucket refills. A client idle that long has a full bucket,
// so its limiter can be dropped and recreated later without changing the outcome.
const limiterIdleTTL = time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limiters  map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

// NewRateLimiter allows perMinute requests per IP with bursts of the same size.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		burst:    perMinute,
		now:      time.Now,
	}
	if perMinute > 0 {
		rl.limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	rl.lastSweep = rl.now()
	return rl
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= limiterIdleTTL {
		rl.evictIdle(now)
	}

	client, exists := rl.limiters[ip]
	if !exists {
		client = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[ip] = client
	}
	client.lastSeen = now
	return client.limiter.AllowN(now, 1)
}

// evictIdle drops limiters of clients not seen for limiterIdleTTL. Callers hold mu.
func (rl *RateLimiter) evictIdle(now time.Time) {
	for ip, client := range rl.limiters {
		if now.Sub(client.lastSeen) >= limiterIdleTTL {
			delete(rl.limiters, ip)
		}
	}
	rl.lastSweep = now
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Handler returns the gin middleware.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.burst <= 0 {
			c.Next()
			return
		}
		ip := c.ClientIP()
		if !rl.allow(ip) {
			logrus.WithField("ip", ip).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
