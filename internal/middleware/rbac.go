package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eduportal/student-portal-api/internal/models"
	"github.com/eduportal/student-portal-api/internal/service"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
	"github.com/eduportal/student-portal-api/pkg/response"
)

// AllowSelf marks a route as accessible to the user whose ID matches the
// :id path parameter, independent of role.
const AllowSelf = "SELF"

// RBAC enforces capability-based access control. A caller passes when its
// role carries the capability of any allowed role; SUPER_USER therefore
// passes everything, and a TEACHER passes STUDENT-level routes.
func RBAC(metrics *service.MetricsService, allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			metrics.RecordAuthFailure("unauthenticated")
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		allowSelf := false
		for _, a := range allowed {
			if a == AllowSelf {
				allowSelf = true
				continue
			}
			if claims.Role.HasCapability(models.UserRole(a)) {
				c.Next()
				return
			}
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
				c.Next()
				return
			}
		}

		metrics.RecordAuthFailure("forbidden")
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(metrics *service.MetricsService, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(metrics, allowed...)
}
