package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/internal/services"
	"go.uber.org/zap"
)

type AccessHandler struct {
	logger  *zap.Logger
	service services.AccessService
}

func NewAccessHandler(logger *zap.Logger, svc services.AccessService) *AccessHandler {
	return &AccessHandler{logger: logger, service: svc}
}

func (h *AccessHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/accounts/:accountId/access", h.ListAccess)
	r.POST("/accounts/:accountId/access", h.GrantAccess)
	r.POST("/accounts/:accountId/access/remove", h.RevokeAccess)
}

// ListAccess godoc
// @Summary      Owner and grantees of an account
// @Tags         access
// @Produce      json
// @Security     BearerAuth
// @Param        accountId  path      int  true  "account id"
// @Success      200        {object}  views.APIResponse{data=views.AccessListView}
// @Failure      403        {object}  pkg.ErrorResponse
// @Router       /api/v1/accounts/{accountId}/access [get]
func (h *AccessHandler) ListAccess(c *gin.Context) {
	traceID, callerID, ok := requestContext(c, h.logger)
	if !ok {
		return
	}
	accountID, err := accountIDParam(c)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	list, err := h.service.ListGrantees(c.Request.Context(), traceID, accountID, callerID)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, views.APIResponse{Data: list})
}

// GrantAccess godoc
// @Summary      Share an account with another user
// @Description  Requires the account owner's PIN even when the requester is a grantee.
// @Tags         access
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        accountId  path      int                       true  "account id"
// @Param        request    body      views.GrantAccessRequest  true  "grantee"
// @Success      200        {object}  views.APIResponse
// @Failure      400        {object}  pkg.ErrorResponse
// @Failure      403        {object}  pkg.ErrorResponse
// @Router       /api/v1/accounts/{accountId}/access [post]
func (h *AccessHandler) GrantAccess(c *gin.Context) {
	traceID, callerID, ok := requestContext(c, h.logger)
	if !ok {
		return
	}
	accountID, err := accountIDParam(c)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	var req views.GrantAccessRequest
	if !bindJSON(c, h.logger, traceID, &req) {
		return
	}
	if err = h.service.Grant(c.Request.Context(), traceID, accountID, callerID, req); err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, views.APIResponse{Data: gin.H{"granted": true}})
}

// RevokeAccess godoc
// @Summary      Remove a grantee from an account
// @Description  The owner can never be removed.
// @Tags         access
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        accountId  path      int                        true  "account id"
// @Param        request    body      views.RevokeAccessRequest  true  "grantee"
// @Success      200        {object}  views.APIResponse
// @Failure      400        {object}  pkg.ErrorResponse
// @Failure      403        {object}  pkg.ErrorResponse
// @Router       /api/v1/accounts/{accountId}/access/remove [post]
func (h *AccessHandler) RevokeAccess(c *gin.Context) {
	traceID, callerID, ok := requestContext(c, h.logger)
	if !ok {
		return
	}
	accountID, err := accountIDParam(c)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	var req views.RevokeAccessRequest
	if !bindJSON(c, h.logger, traceID, &req) {
		return
	}
	if err = h.service.Revoke(c.Request.Context(), traceID, accountID, callerID, req); err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, views.APIResponse{Data: gin.H{"revoked": true}})
}
