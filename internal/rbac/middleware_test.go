package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

func serveAs(role auth.Role, guard gin.HandlerFunc) int {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		if role != "" {
			ctx := auth.WithIdentity(c.Request.Context(), auth.Claims{UserID: "u", Role: role})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}, guard, func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w.Code
}

func TestRequireAnyRole_SysAdminBypasses(t *testing.T) {
	if got := serveAs(auth.RoleSysAdmin, RequireAnyRole(auth.RoleAdmin)); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
}

func TestRequireAnyRole_AllowedAndDenied(t *testing.T) {
	guard := RequireAnyRole(auth.RoleAdmin, auth.RoleRegistrar)
	if got := serveAs(auth.RoleRegistrar, guard); got != 200 {
		t.Fatalf("registrar: expected 200, got %d", got)
	}
	if got := serveAs(auth.RoleStudent, guard); got != 403 {
		t.Fatalf("student: expected 403, got %d", got)
	}
}

func TestRequireAnyRole_UnknownRoleDenied(t *testing.T) {
	if got := serveAs(auth.Role("Admin"), RequireAnyRole(auth.Role("Admin"))); got != 403 {
		t.Fatalf("expected 403, got %d", got)
	}
}

func TestRequireAnyRole_IdentityRequired(t *testing.T) {
	if got := serveAs("", RequireAnyRole(auth.RoleAdmin)); got != 401 {
		t.Fatalf("expected 401, got %d", got)
	}
}
