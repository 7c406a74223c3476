package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eduportal/student-portal-api/internal/models"
	"github.com/eduportal/student-portal-api/internal/service"
	appErrors "github.com/eduportal/student-portal-api/pkg/errors"
	"github.com/eduportal/student-portal-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

type accountRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate attaches the caller's identity when a valid bearer token is
// present and continues anonymously otherwise. It never blocks on its own;
// enforcement happens in RequireAuth and the role checks, which fail closed.
func Authenticate(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ContextUserKey); !exists {
			metrics.RecordAuthFailure("unauthenticated")
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAccountEnabled reloads the caller's account and rejects disabled
// ones. Tokens issued before a disable stay structurally valid, so the live
// flag is what gates access.
func RequireAccountEnabled(users accountRepository, metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			metrics.RecordAuthFailure("unauthenticated")
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := users.FindByID(c.Request.Context(), claims.UserID)
		if err != nil {
			metrics.RecordAuthFailure("unknown_account")
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "account no longer exists"))
			c.Abort()
			return
		}
		if !user.Enabled {
			metrics.RecordAuthFailure("account_disabled")
			response.Error(c, appErrors.Clone(appErrors.ErrAccountDisabled, "account access is disabled"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated claims or nil for anonymous callers.
func CurrentUser(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
