package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/resilient-ledger/pkg"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/utils"
	"github.com/nimeshabuddhika/resilient-ledger/pkg/views"
	"github.com/nimeshabuddhika/resilient-ledger/services/ledger-api/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	logger  *zap.Logger
	service services.AuthService
}

func NewAuthHandler(logger *zap.Logger, svc services.AuthService) *AuthHandler {
	return &AuthHandler{logger: logger, service: svc}
}

// RegisterRoutes mounts register and login publicly and verify behind authn.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, authn gin.HandlerFunc) {
	auth := r.Group("/auth")
	auth.POST("/register", h.Register)
	auth.POST("/login", h.Login)
	auth.GET("/verify", authn, h.Verify)
}

// Register godoc
// @Summary      Create a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      views.RegisterRequest  true  "user"
// @Success      201      {object}  views.APIResponse{data=views.Identity}
// @Failure      400      {object}  pkg.ErrorResponse
// @Router       /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	traceID := c.GetString(pkg.TraceId)
	var req views.RegisterRequest
	if !bindJSON(c, h.logger, traceID, &req) {
		return
	}
	identity, err := h.service.Register(c.Request.Context(), traceID, req)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusCreated, views.APIResponse{Data: identity})
}

// Login godoc
// @Summary      Exchange credentials for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      views.LoginRequest  true  "credentials"
// @Success      200      {object}  views.APIResponse{data=views.TokenResponse}
// @Failure      401      {object}  pkg.ErrorResponse
// @Router       /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	traceID := c.GetString(pkg.TraceId)
	var req views.LoginRequest
	if !bindJSON(c, h.logger, traceID, &req) {
		return
	}
	token, err := h.service.Login(c.Request.Context(), traceID, req)
	if err != nil {
		writeError(c, h.logger, traceID, err)
		return
	}
	c.JSON(http.StatusOK, views.APIResponse{Data: token})
}

// Verify godoc
// @Summary      Echo the verified caller identity
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  views.APIResponse{data=views.Identity}
// @Failure      401  {object}  pkg.ErrorResponse
// @Router       /api/v1/auth/verify [get]
func (h *AuthHandler) Verify(c *gin.Context) {
	callerID, err := utils.GetCallerID(c)
	if err != nil {
		writeError(c, h.logger, c.GetString(pkg.TraceId), pkg.NewAppError(pkg.ErrUnauthenticatedCode, "authentication required", err))
		return
	}
	c.JSON(http.StatusOK, views.APIResponse{Data: views.Identity{UserID: callerID, Email: c.GetString(pkg.Caller)}})
}
