package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/userauth/internal/domain/auth"
	apperrors "github.com/yanqian/userauth/pkg/errors"
)

// Handler wires the HTTP transport to the auth service.
type Handler struct {
	authSvc auth.Service
	logger  *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(authSvc auth.Service, logger *slog.Logger) *Handler {
	return &Handler{
		authSvc: authSvc,
		logger:  logger.With("component", "http.handler"),
	}
}

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "malformed request body", err))
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, mapAuthError(err))
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "malformed request body", err))
		return
	}

	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, mapAuthError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the profile of the resolved caller.
func (h *Handler) Me(c *gin.Context) {
	identity, ok := getIdentity(c)
	if !ok {
		denyUnauthorized(c)
		return
	}

	user, err := h.authSvc.Profile(c.Request.Context(), identity)
	if err != nil {
		if apperrors.IsCode(err, auth.CodeNotAuthorized) {
			denyUnauthorized(c)
			return
		}
		abortWithError(c, mapAuthError(err))
		return
	}

	c.JSON(http.StatusOK, user)
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
