package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"go.uber.org/zap"
)

// Pinger reports whether the ledger store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type BaseHandler struct {
	logger *zap.Logger
	store  Pinger
}

func NewBaseHandler(logger *zap.Logger, store Pinger) *BaseHandler {
	return &BaseHandler{logger: logger, store: store}
}

func (b *BaseHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", b.GetHealth)
}

// GetHealth godoc
// @Summary      Liveness and store reachability
// @Tags         ops
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func (b *BaseHandler) GetHealth(c *gin.Context) {
	if b.store != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := b.store.Ping(ctx); err != nil {
			b.logger.Warn("health_check_store_unreachable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// requestContext resolves the trace id and caller set by the middlewares.
func requestContext(c *gin.Context, logger *zap.Logger) (traceID string, callerID int64, ok bool) {
	traceID, err := utils.GetTraceID(c)
	if err != nil {
		writeError(c, logger, "", pkg.NewAppError(pkg.ErrServerCode, "trace id missing", err))
		return "", 0, false
	}
	callerID, err = utils.GetCallerID(c)
	if err != nil {
		writeError(c, logger, traceID, pkg.NewAppError(pkg.ErrUnauthenticatedCode, "authentication required", err))
		return "", 0, false
	}
	return traceID, callerID, true
}

func accountIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("accountId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, pkg.NewAppError(pkg.ErrInvalidRequestCode, "invalid account id", err)
	}
	return id, nil
}

func bindJSON(c *gin.Context, logger *zap.Logger, traceID string, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		writeError(c, logger, traceID, pkg.NewAppError(pkg.ErrInvalidRequestCode, "invalid request body", err))
		return false
	}
	return true
}

func writeError(c *gin.Context, logger *zap.Logger, traceID string, err error) {
	resp := pkg.ToErrorResponse(logger, traceID, err)
	c.JSON(resp.Status, resp)
}
