package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dev.copilot.gateway/internal/config"
)

// RateLimiter applies a per-client token bucket. Clients are keyed by
// API key when one is presented, otherwise by IP address.
type RateLimiter struct {
	ratePerMinute float64
	burst         float64
	log           *logrus.Logger

	mu      sync.Mutex
	buckets map[string]*tokenBucket

	stop     chan struct{}
	stopOnce sync.Once
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a limiter and starts its bucket sweep.
func NewRateLimiter(cfg config.RateLimitConfig, log *logrus.Logger) *RateLimiter {
	rl := &RateLimiter{
		ratePerMinute: float64(cfg.RequestsPerMinute),
		burst:         float64(cfg.Burst),
		log:           log,
		buckets:       make(map[string]*tokenBucket),
		stop:          make(chan struct{}),
	}

	go rl.sweep()

	return rl
}

// Middleware returns the gin handler enforcing the limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := clientKey(c)
		allowed, remaining, retryAfter := rl.take(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(int(rl.ratePerMinute)))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10))

		if !allowed {
			rl.log.WithFields(logrus.Fields{
				"client":      key,
				"retry_after": retryAfter,
			}).Warn("Rate limit exceeded")
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// Stop ends the background bucket sweep.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) take(key string) (allowed bool, remaining, retryAfter int) {
	rl.mu.Lock()
	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: rl.burst, lastRefill: time.Now()}
		rl.buckets[key] = bucket
	}
	rl.mu.Unlock()

	return bucket.take(rl.ratePerMinute, rl.burst)
}

func (b *tokenBucket) take(ratePerMinute, burst float64) (allowed bool, remaining, retryAfter int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill)
	b.tokens = math.Min(burst, b.tokens+elapsed.Minutes()*ratePerMinute)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}

	retry := int(math.Ceil((1 - b.tokens) / ratePerMinute * 60))
	if retry < 1 {
		retry = 1
	}
	return false, 0, retry
}

// sweep drops buckets idle for ten minutes so the map cannot grow
// unbounded across many distinct clients.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-10 * time.Minute)
			rl.mu.Lock()
			for key, bucket := range rl.buckets {
				bucket.mu.Lock()
				stale := bucket.lastRefill.Before(cutoff)
				bucket.mu.Unlock()
				if stale {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// clientKey buckets by API key when one is presented, else by IP.
func clientKey(c *gin.Context) string {
	if key := extractAPIKey(c); key != "" {
		return "key:" + key
	}
	return "ip:" + c.ClientIP()
}
