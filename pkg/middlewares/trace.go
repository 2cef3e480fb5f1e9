package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
)

// TraceID returns Gin middleware to handle trace and request IDs for observability.
// The trace id is accepted from the caller; the request id is always minted here.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.Request.Header.Get(pkg.HeaderTraceId)
		if utils.IsEmpty(traceID) {
			traceID = uuid.New().String()
		}
		requestID := uuid.New().String()

		c.Set(pkg.TraceId, traceID)
		c.Set(pkg.RequestId, requestID)
		c.Writer.Header().Set(pkg.HeaderTraceId, traceID)
		c.Writer.Header().Set(pkg.HeaderRequestId, requestID)
		c.Next()
	}
}
