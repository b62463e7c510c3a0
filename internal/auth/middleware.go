package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ingatatech/e-learning-sub003/pkg/logger"
)

const (
	// AccessCookieName and RefreshCookieName are the HTTP-only session cookies.
	AccessCookieName  = "access-token"
	RefreshCookieName = "refresh-token"

	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
)

// TokenSource extracts the raw access token for a request, or "".
type TokenSource func(c *gin.Context) string

// CookieOrBearer reads the access-token cookie, falling back to a Bearer header.
func CookieOrBearer(c *gin.Context) string {
	if v, err := c.Cookie(AccessCookieName); err == nil && v != "" {
		return v
	}
	raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
	if strings.HasPrefix(raw, bearerPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
	}
	return ""
}

// RequireAccessToken verifies an access token and injects the claims into request context.
// It does not perform route checks; those belong to internal/access.
func RequireAccessToken(m *Manager, source TokenSource) gin.HandlerFunc {
	if source == nil {
		source = CookieOrBearer
	}
	return func(c *gin.Context) {
		tok := source(c)
		if tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing access token"})
			return
		}

		claims, err := m.VerifyAccess(tok, time.Now())
		if err != nil {
			if errors.Is(err, ErrInvalidSignature) {
				logger.FromGin(c).Warn("access token failed signature check", "err", err, "client_ip", c.ClientIP())
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), claims))
		logger.SetAttr(c, "user_id", claims.UserID)
		logger.SetAttr(c, "role", string(claims.Role))
		c.Next()
	}
}
