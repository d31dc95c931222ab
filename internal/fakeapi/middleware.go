package fakeapi

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/autopeer-io/tripdash/internal/pkg/metrics"
	"github.com/autopeer-io/tripdash/pkg/log"
)

const (
	sessionCookie = "session"
	userKey       = "user"
	tokenKey      = "token"
)

// ipRateLimiter keeps one token bucket per client IP.
type ipRateLimiter struct {
	mu  sync.RWMutex
	ips map[string]*rate.Limiter
	r   rate.Limit
	b   int
}

func newIPRateLimiter(r rate.Limit, b int) *ipRateLimiter {
	return &ipRateLimiter{ips: map[string]*rate.Limiter{}, r: r, b: b}
}

func (i *ipRateLimiter) get(ip string) *rate.Limiter {
	i.mu.RLock()
	l, ok := i.ips[ip]
	i.mu.RUnlock()
	if ok {
		return l
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if l, ok = i.ips[ip]; !ok {
		l = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = l
	}
	return l
}

// rateLimit answers 429 once a client IP exceeds its budget.
func rateLimit(qps float64, burst int) gin.HandlerFunc {
	if qps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newIPRateLimiter(rate.Limit(qps), burst)
	return func(c *gin.Context) {
		if !limiter.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

// observe logs and counts every request.
func observe(logger log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		metrics.FakeAPIRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(code)).Inc()
		logger.Debug("Request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", code,
			"latency", time.Since(start))
	}
}

// apiKey rejects requests without the configured x-api-key header.
func apiKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key != "" && c.GetHeader("x-api-key") != key {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

// requireSession resolves the session cookie and answers 401 without one.
func (s *Server) requireSession(c *gin.Context) {
	token, err := c.Cookie(sessionCookie)
	if err != nil || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	user, ok := s.state.user(token)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
		return
	}
	c.Set(userKey, user)
	c.Set(tokenKey, token)
	c.Next()
}
