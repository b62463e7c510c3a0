package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ingatatech/e-learning-sub003/internal/audit"
	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/refresh"
	"github.com/ingatatech/e-learning-sub003/internal/session"
	"github.com/ingatatech/e-learning-sub003/internal/users"
	"github.com/ingatatech/e-learning-sub003/pkg/logger"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth      *auth.Manager
	Users     users.Repository
	Stores    session.Factory
	Refresher *refresh.Coordinator
	Audit     *audit.Service

	// Now defaults to time.Now.
	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// --- Auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks credentials and stores a fresh token pair for the client context.
func (h Handlers) Login(c *gin.Context) {
	ctx := c.Request.Context()
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	u, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		logger.FromGin(c).Error("user lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if err != nil || users.VerifyPassword(u.PasswordHash, req.Password) != nil {
		h.Audit.Record(ctx, audit.EventTypeLoginFailed, nil, "invalid credentials for "+req.Email)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !u.Role.Valid() {
		logger.FromGin(c).Warn("login refused for unknown role", "user_id", u.ID, "role", string(u.Role))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account role not permitted"})
		return
	}

	pair, err := h.Auth.IssuePair(h.now(), u.Identity())
	if err != nil {
		logger.FromGin(c).Error("token issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	if err := h.Stores.For(c).Set(ctx, pair); err != nil {
		logger.FromGin(c).Error("persist session failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return
	}

	logger.SetAttr(c, "user_id", u.ID)
	logger.SetAttr(c, "role", string(u.Role))
	h.Audit.Record(ctx, audit.EventTypeLogin, &auth.Claims{UserID: u.ID, Email: u.Email, Role: u.Role}, "login")
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u, "redirect": u.Role.Home()})
}

// Logout clears all token material. It succeeds whether or not a session exists.
func (h Handlers) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	store := h.Stores.For(c)

	var actor *auth.Claims
	if pair, ok := store.Get(ctx); ok && pair.AccessToken != "" {
		if claims, err := h.Auth.AccessCodec().Decode(pair.AccessToken); err == nil {
			actor = &claims
		}
	}
	if err := store.Clear(ctx); err != nil {
		logger.FromGin(c).Error("clear session failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
		return
	}
	if actor != nil {
		h.Audit.Record(ctx, audit.EventTypeLogout, actor, "logout")
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Refresh exchanges the stored refresh token for a new access token.
// 401 means the session is over and the client must log in again.
func (h Handlers) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	store := h.Stores.For(c)

	pair, _ := store.Get(ctx)
	if pair.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "refresh token missing"})
		return
	}

	if _, err := h.Refresher.Refresh(ctx, store, pair.RefreshToken); err != nil {
		switch {
		case errors.Is(err, refresh.ErrInvalid):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "refresh token invalid or expired"})
		case errors.Is(err, session.ErrNoSession):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session ended"})
		default:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session unavailable"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the user behind the access token. Mount it behind auth.RequireAccessToken.
func (h Handlers) Me(c *gin.Context) {
	ctx := c.Request.Context()
	claims, ok := auth.IdentityFrom(ctx)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthenticated"})
		return
	}
	u, err := h.Users.FindByID(ctx, claims.UserID)
	if errors.Is(err, users.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "error": "user not found"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("user lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

// --- Audit ---

// AuditEvents lists recent session events. Mount it behind rbac.RequireAnyRole.
func (h Handlers) AuditEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	events, err := h.Audit.Recent(c.Request.Context(), audit.Query{Type: audit.EventType(c.Query("type")), Limit: limit})
	if err != nil {
		logger.FromGin(c).Error("audit query failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "events": events})
}
