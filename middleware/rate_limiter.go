// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/ascendra/ascendra_backend/models"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             *sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:            make(map[string]*rate.Limiter),
		blockedIPs:     make(map[string]time.Time),
		mu:             &sync.RWMutex{},
		defaultLimit:   rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:   20,
		blockDuration:  5 * time.Minute,
		endpointLimits: make(map[string]endpointLimit),
	}

	// Login endpoint - strict rate limiting to prevent brute force attacks
	limiter.endpointLimits["/api/auth/login"] = endpointLimit{
		limit: rate.Every(2 * time.Second),
		burst: 5,
	}

	// Registration submissions - keep signup floods off the pending queue
	limiter.endpointLimits["/api/registrations"] = endpointLimit{
		limit: rate.Every(500 * time.Millisecond),
		burst: 5,
	}

	go limiter.cleanupBlockedIPs()

	return limiter
}

func (rl *RateLimiter) cleanupBlockedIPs() {
	for {
		time.Sleep(time.Minute)
		now := time.Now()
		rl.mu.Lock()
		for ip, until := range rl.blockedIPs {
			if now.After(until) {
				delete(rl.blockedIPs, ip)
				delete(rl.ips, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *RateLimiter) limiterFor(ip, path string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := ip + path
	if limiter, ok := rl.ips[key]; ok {
		return limiter
	}

	limit, burst := rl.defaultLimit, rl.defaultBurst
	if el, ok := rl.endpointLimits[path]; ok {
		limit, burst = el.limit, el.burst
	}
	limiter := rate.NewLimiter(limit, burst)
	rl.ips[key] = limiter
	return limiter
}

// RateLimit enforces per-IP request limits with stricter rules on the
// authentication and registration endpoints.
func (rl *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			path := c.Request().URL.Path

			rl.mu.RLock()
			blockedUntil, blocked := rl.blockedIPs[ip]
			rl.mu.RUnlock()
			if blocked && time.Now().Before(blockedUntil) {
				return c.JSON(http.StatusTooManyRequests, models.Response{
					Status:  http.StatusTooManyRequests,
					Message: "Too many requests. Try again later.",
				})
			}

			// Static assets are exempt
			if strings.HasPrefix(path, "/uploads") {
				return next(c)
			}

			if !rl.limiterFor(ip, path).Allow() {
				rl.mu.Lock()
				rl.blockedIPs[ip] = time.Now().Add(rl.blockDuration)
				rl.mu.Unlock()
				return c.JSON(http.StatusTooManyRequests, models.Response{
					Status:  http.StatusTooManyRequests,
					Message: "Rate limit exceeded. Try again later.",
				})
			}

			return next(c)
		}
	}
}
