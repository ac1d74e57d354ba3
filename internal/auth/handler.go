package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sgs-visits/backend/pkg/response"
	"github.com/sgs-visits/backend/pkg/utils"
)

// LoginRequest is the body for POST /auth/dashboard.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the dashboard session response.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Handler exchanges the shared dashboard password for a session token.
// The password is bcrypt-hashed once at startup so the plaintext is not
// kept around in the process.
type Handler struct {
	passwordHash string
	jwt          *JWTService
	logger       *zap.Logger
}

// NewHandler creates the dashboard auth handler. An empty password disables
// the gate; Login then reports the dashboard as unrestricted.
func NewHandler(password string, jwt *JWTService, logger *zap.Logger) (*Handler, error) {
	h := &Handler{jwt: jwt, logger: logger}
	if password != "" {
		hash, err := utils.HashPassword(password)
		if err != nil {
			return nil, err
		}
		h.passwordHash = hash
	}
	return h, nil
}

// Enabled reports whether a dashboard password is configured.
func (h *Handler) Enabled() bool {
	return h.passwordHash != ""
}

// Login handles POST /auth/dashboard.
func (h *Handler) Login(c *gin.Context) {
	if !h.Enabled() {
		response.ServiceUnavailable(c, "dashboard password not configured")
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "password is required")
		return
	}

	if !utils.CheckPassword(req.Password, h.passwordHash) {
		h.logger.Warn("dashboard login rejected", zap.String("client_ip", c.ClientIP()))
		response.Unauthorized(c, "incorrect password")
		return
	}

	token, expiresAt, err := h.jwt.Generate()
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt.Unix()})
}
