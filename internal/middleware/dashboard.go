package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sgs-visits/backend/internal/auth"
	"github.com/sgs-visits/backend/pkg/response"
)

// DashboardGate returns a middleware requiring a dashboard session token.
// When no dashboard password is configured the gate is disabled and every
// request passes through, matching the original deployment's behavior.
func DashboardGate(jwtService *auth.JWTService, enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			c.Next()
			return
		}
		if err := RequireDashboardToken(c, jwtService); err != nil {
			response.Unauthorized(c, err.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireDashboardToken validates the Bearer token on the request. It is
// exposed so handlers that gate only one branch (the list mode of
// GET /visits) can perform the same check inline.
func RequireDashboardToken(c *gin.Context, jwtService *auth.JWTService) error {
	header := c.GetHeader("Authorization")
	if header == "" {
		return errMissingAuth
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return errBadAuthHeader
	}
	claims, err := jwtService.Validate(parts[1])
	if err != nil {
		return errBadToken
	}
	if claims.Role != auth.RoleDashboard {
		return errBadToken
	}
	return nil
}

var (
	errMissingAuth   = gateError("missing authorization header")
	errBadAuthHeader = gateError("invalid authorization header")
	errBadToken      = gateError("invalid or expired token")
)

type gateError string

func (e gateError) Error() string { return string(e) }
