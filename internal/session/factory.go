package session

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ingatatech/e-learning-sub003/pkg/logger"
)

// ClientIDCookieName carries the opaque client context id for the redis backend.
const ClientIDCookieName = "session-id"

// Factory binds a Store to the client context of an HTTP request.
type Factory interface {
	For(c *gin.Context) Store
}

// CookieFactory keeps the token pair in HTTP-only cookies.
type CookieFactory struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (f CookieFactory) For(c *gin.Context) Store {
	return NewCookieStore(c, f.Secure, f.AccessTTL, f.RefreshTTL)
}

// RedisFactory keeps the pair in Redis; the browser only holds an opaque client id.
type RedisFactory struct {
	RDB    redis.UniversalClient
	TTL    time.Duration
	Secure bool
	Log    *slog.Logger
}

func (f RedisFactory) For(c *gin.Context) Store {
	id, err := c.Cookie(ClientIDCookieName)
	if err != nil || uuid.Validate(id) != nil {
		id = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(ClientIDCookieName, id, int(f.TTL/time.Second), "/", "", f.Secure, true)
	}
	logger.SetAttr(c, "session_id", id)
	return NewRedisStore(f.RDB, id, f.TTL, f.Log)
}
