package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/internal/services"
	"go.uber.org/zap"
)

type AccountHandler struct {
	logger  *zap.Logger
	service services.AccountService
}

func NewAccountHandler(logger *zap.Logger, svc services.AccountService) *AccountHandler {
	return &AccountHandler{logger: logger, service: svc}
}

func (h *AccountHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/accounts", h.CreateAccount)
	r.GET("/accounts", h.ListAccounts)
	r.GET("/accounts/:accountId", h.GetAccount)
	r.GET("/accounts/:accountId/transactions", h.ListTransactions)
}

// CreateAccount godoc
// @Summary      Open an account for the caller
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      views.CreateAccountRequest  true  "account"
// @Success      201      {object}  views.APIResponse{data=views.AccountView}
// @Failure      400      {object}  pkg.ErrorResponse
// @Router       /api/v1/accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	traceID, callerID, ok := requestContext(c, h.logger)
	if !ok {
		return
	}
	var req views.CreateAccountRequest
	if !bindJSON(c, h.logger, traceID, &req) {
		return
	}
	req.OwnerID = callerID

	account, err := h.service.CreateAccount(c.Request.Context(), traceID, req)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusCreated, views.APIResponse{Data: account})
}

// ListAccounts godoc
// @Summary      Accounts owned by or shared with the caller
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  views.APIResponse{data=[]views.AccountView}
// @Router       /api/v1/accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	traceID, callerID, ok := requestContext(c, h.logger)
	if !ok {
		return
	}
	accounts, err := h.service.ListAccounts(c.Request.Context(), traceID, callerID)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, views.APIResponse{Data: accounts})
}

// GetAccount godoc
// @Summary      Account details
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        accountId  path      int  true  "account id"
// @Success      200        {object}  views.APIResponse{data=views.AccountDetailsView}
// @Failure      403        {object}  pkg.ErrorResponse
// @Router       /api/v1/accounts/{accountId} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	traceID, callerID, ok := requestContext(c, h.logger)
	if !ok {
		return
	}
	accountID, err := accountIDParam(c)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	details, err := h.service.AccountDetails(c.Request.Context(), traceID, accountID, callerID)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, views.APIResponse{Data: details})
}

// ListTransactions godoc
// @Summary      Transaction history, newest first
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        accountId  path      int  true  "account id"
// @Success      200        {object}  views.APIResponse{data=[]views.TransactionView}
// @Failure      403        {object}  pkg.ErrorResponse
// @Router       /api/v1/accounts/{accountId}/transactions [get]
func (h *AccountHandler) ListTransactions(c *gin.Context) {
	traceID, callerID, ok := requestContext(c, h.logger)
	if !ok {
		return
	}
	accountID, err := accountIDParam(c)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	history, err := h.service.TransactionHistory(c.Request.Context(), traceID, accountID, callerID)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, views.APIResponse{Data: history})
}
