package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cleanbook/internal/domain"
	"cleanbook/internal/pkg/jwt"
	"cleanbook/internal/pkg/response"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// JWTAuth decodes the bearer token and stores user_id and role in the context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be: Bearer <token>")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		SetPrincipal(c, claims.Principal())
		c.Next()
	}
}

func SetPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(ctxUserID, p.ID)
	c.Set(ctxRole, string(p.Role))
}

// Principal returns the authenticated caller. ok is false when no identity
// middleware ran.
func Principal(c *gin.Context) (domain.Principal, bool) {
	id := c.GetInt64(ctxUserID)
	if id == 0 {
		return domain.Principal{}, false
	}
	return domain.Principal{ID: id, Role: domain.UserRole(c.GetString(ctxRole))}, true
}
