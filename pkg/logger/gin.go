package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"

	ginLoggerKey = "logger"
	ginAttrsKey  = "log.attrs"
)

// Middleware injects request_id and logs one summary line per request.
// Layers that resolve the session (auth, page gate, session store) add
// user_id, role, session_id and the gate outcome to that line via SetAttr.
func Middleware(l *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)

		reqLogger := l.With("request_id", rid)
		c.Set(ginLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(With(c.Request.Context(), reqLogger))

		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			// NoRoute page navigations have no route pattern.
			path = c.Request.URL.Path
		}

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", float64(time.Since(start).Milliseconds()),
		}
		attrs = append(attrs, requestAttrs(c)...)
		if loc := c.Writer.Header().Get("Location"); loc != "" {
			attrs = append(attrs, "redirect", loc)
		}

		switch {
		case len(c.Errors) > 0:
			attrs = append(attrs, "errors", c.Errors.String())
			reqLogger.Error("request", attrs...)
		case status >= 500:
			reqLogger.Error("request", attrs...)
		default:
			reqLogger.Info("request", attrs...)
		}
	}
}

// SetAttr records key=value for the request summary line. A later call
// with the same key replaces the earlier value.
func SetAttr(c *gin.Context, key string, value any) {
	attrs := requestAttrs(c)
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == key {
			attrs[i+1] = value
			return
		}
	}
	c.Set(ginAttrsKey, append(attrs, key, value))
}

func requestAttrs(c *gin.Context) []any {
	if v, ok := c.Get(ginAttrsKey); ok {
		if attrs, ok := v.([]any); ok {
			return attrs
		}
	}
	return nil
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
