package navigation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ingatatech/e-learning-sub003/internal/audit"
	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/obs"
	"github.com/ingatatech/e-learning-sub003/internal/session"
	"github.com/ingatatech/e-learning-sub003/pkg/logger"
)

// PageGate runs the navigation flow for every page request. Redirect decisions
// answer 302 and abort; allowed requests continue with the identity, if any,
// in the request context.
func PageGate(flow *Flow, stores session.Factory, auditSvc *audit.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromGin(c)
		ctx := c.Request.Context()

		out, err := flow.Run(ctx, stores.For(c), c.Request.URL.Path)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				c.Abort()
				return
			}
			log.Error("navigation gate failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if out.Rejected != nil && !errors.Is(out.Rejected, auth.ErrExpired) {
			reason := "malformed"
			switch {
			case errors.Is(out.Rejected, auth.ErrInvalidSignature):
				reason = "signature"
				log.Warn("access token failed signature check", "err", out.Rejected, "client_ip", c.ClientIP())
				auditSvc.Record(ctx, audit.EventTypeTokenTampering, nil, out.Rejected.Error())
			case errors.Is(out.Rejected, auth.ErrWrongTokenType):
				reason = "token_type"
			}
			obs.TokenRejections.WithLabelValues(reason).Inc()
		}

		obs.GateDecisions.WithLabelValues(string(out.Decision.Action), out.Category.String()).Inc()
		logger.SetAttr(c, "session_state", out.State.String())
		logger.SetAttr(c, "gate", out.Decision.Reason)
		if out.Refreshed {
			logger.SetAttr(c, "refreshed", true)
		}
		if out.Identity != nil {
			logger.SetAttr(c, "user_id", out.Identity.UserID)
			logger.SetAttr(c, "role", string(out.Identity.Role))
		}

		if !out.Decision.Allowed() {
			log.Debug("navigation redirected",
				"path", c.Request.URL.Path,
				"target", out.Decision.Target,
				"reason", out.Decision.Reason,
				"forced_logout", out.ForcedLogout,
			)
			c.Redirect(http.StatusFound, out.Decision.Target)
			c.Abort()
			return
		}

		if out.Identity != nil {
			c.Request = c.Request.WithContext(auth.WithIdentity(ctx, *out.Identity))
		}
		c.Next()
	}
}
