package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"go.uber.org/zap"
)

// Limiter admits or rejects a unit of work for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimit rejects requests with 429 once the caller exhausts its budget.
// Must run after Authenticate; unauthenticated requests share the client IP as key.
func RateLimit(logger *zap.Logger, limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if callerID := c.GetInt64(pkg.CallerId); callerID > 0 {
			key = strconv.FormatInt(callerID, 10)
		}
		if !limiter.Allow(c.Request.Context(), key) {
			resp := pkg.ToErrorResponse(logger, c.GetString(pkg.TraceId),
				pkg.NewAppError(pkg.ErrRateLimitedCode, "too many transaction requests", pkg.ErrRateLimitExceeded))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, resp)
			return
		}
		c.Next()
	}
}
