package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/internal/services"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	logger     *zap.Logger
	serializer services.TransactionSerializer
}

func NewTransactionHandler(logger *zap.Logger, serializer services.TransactionSerializer) *TransactionHandler {
	return &TransactionHandler{logger: logger, serializer: serializer}
}

// RegisterRoutes registers transaction routes; mw runs before the handler (auth, admission limits).
func (h *TransactionHandler) RegisterRoutes(r *gin.RouterGroup, mw ...gin.HandlerFunc) {
	r.POST("/transactions", append(mw, h.CreateTransaction)...)
}

// CreateTransaction godoc
// @Summary      Submit a deposit, withdrawal or transfer
// @Description  The request is queued behind earlier submissions and the response carries its single outcome.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      views.TransactionRequest  true  "transaction"
// @Success      201      {object}  views.APIResponse{data=views.TransactionReceipt}
// @Failure      400      {object}  pkg.ErrorResponse
// @Failure      403      {object}  pkg.ErrorResponse
// @Failure      500      {object}  pkg.ErrorResponse
// @Router       /api/v1/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	traceID, callerID, ok := requestContext(c, h.logger)
	if !ok {
		return
	}
	var req views.TransactionRequest
	if !bindJSON(c, h.logger, traceID, &req) {
		return
	}
	req.CallerID = callerID

	ctx := services.ContextWithTraceID(c.Request.Context(), traceID)
	select {
	case outcome := <-h.serializer.Submit(ctx, req):
		if outcome.Err != nil {
			writeError(c, h.logger, traceID, outcome.Err)
			return
		}
		c.JSON(http.StatusCreated, views.APIResponse{Data: outcome.Receipt})
	case <-c.Request.Context().Done():
		// The queued request still runs to completion; only the response is lost.
		h.logger.Warn("client_gone_before_outcome", zap.String(pkg.TraceId, traceID))
	}
}
