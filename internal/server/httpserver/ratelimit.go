package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/chestkeeper/internal/common"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterPruneEvery = 1024
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// limiterRegistry keeps one token bucket per client address. Idle buckets
// are pruned every limiterPruneEvery new clients.
type limiterRegistry struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	now      func() time.Time
	limiters map[string]*clientLimiter
	inserts  int
}

func newLimiterRegistry(perSecond float64, burst int) *limiterRegistry {
	if burst < 1 {
		burst = 1
	}
	return &limiterRegistry{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*clientLimiter),
	}
}

func (r *limiterRegistry) allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cl, ok := r.limiters[key]
	if !ok {
		r.inserts++
		if r.inserts%limiterPruneEvery == 0 {
			r.pruneLocked(now)
		}
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

func (r *limiterRegistry) pruneLocked(now time.Time) {
	for k, cl := range r.limiters {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(r.limiters, k)
		}
	}
}

func (r *limiterRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// rateLimit rejects requests from clients that exceed their bucket. A nil
// registry disables the limit.
func (s *HTTPServer) rateLimit(r *limiterRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if r == nil || r.allow(c.ClientIP()) {
			c.Next()
			return
		}

		s.metrics.RateLimited()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Status: common.StatusError, Reason: ReasonTooManyRequests})
	}
}
