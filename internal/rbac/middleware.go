package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

// RequireAnyRole allows an API call if the caller's role is one of allowed.
// Mount it after auth.RequireAccessToken.
// Rules:
// - sysAdmin passes every check
// - a role outside the known set is always denied, even if listed
func RequireAnyRole(allowed ...auth.Role) gin.HandlerFunc {
	allowedSet := make(map[auth.Role]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.RoleFrom(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}
		if !role.Valid() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		if role == auth.RoleSysAdmin {
			c.Next()
			return
		}

		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
