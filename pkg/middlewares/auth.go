package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"go.uber.org/zap"
)

const bearerPrefix = "bearer "

// TokenVerifier resolves a bearer token into the caller identity.
type TokenVerifier interface {
	Parse(token string) (views.Identity, error)
}

// Authenticate is the identity gate. It rejects requests without a valid bearer
// token and stores the caller's user id and email on the gin context.
func Authenticate(logger *zap.Logger, verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(pkg.HeaderAuthorization)
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			abortUnauthenticated(c, logger, nil)
			return
		}
		identity, err := verifier.Parse(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			abortUnauthenticated(c, logger, err)
			return
		}
		c.Set(pkg.CallerId, identity.UserID)
		c.Set(pkg.Caller, identity.Email)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, logger *zap.Logger, cause error) {
	resp := pkg.ToErrorResponse(logger, c.GetString(pkg.TraceId),
		pkg.NewAppError(pkg.ErrUnauthenticatedCode, "missing or invalid bearer token", cause))
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
}
