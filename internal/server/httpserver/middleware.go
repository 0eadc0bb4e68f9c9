package httpserver

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/chestkeeper/internal/common"
	"github.com/dmitrijs2005/chestkeeper/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

const (
	userIDKey       = "userID"
	requestIDHeader = "X-Request-ID"
)

// tokenAuth authenticates the :token path parameter and stores the user ID
// in the gin context. Unverified tokens are promoted on the way.
func (s *HTTPServer) tokenAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := s.tokens.AuthenticateToken(c.Request.Context(), c.Param("token"))
		s.metrics.Verification(verificationOutcome(err))
		if err != nil {
			s.writeError(c, err)
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func verificationOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, common.ErrForbidden):
		return metrics.OutcomeForbidden
	case errors.Is(err, common.ErrAuthorityUnavailable):
		return metrics.OutcomeAuthorityUnavailable
	case errors.Is(err, common.ErrStorage):
		return metrics.OutcomeStorage
	default:
		return metrics.OutcomeError
	}
}

func userIDFrom(c *gin.Context) uint64 {
	v, _ := c.Get(userIDKey)
	id, _ := v.(uint64)
	return id
}

// requestLogger logs the matched route rather than the raw path, which
// carries the token.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID, _ = common.MakeRandHexString(8)
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.logger.Info(c.Request.Context(), "request",
			"request_id", requestID,
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
