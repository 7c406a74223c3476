package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eduportal/student-portal-api/internal/middleware"
	"github.com/eduportal/student-portal-api/internal/models"
)

// currentClaims extracts the authenticated claims from the request context.
func currentClaims(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}

// currentUserID returns the caller's user ID or empty for anonymous requests.
func currentUserID(c *gin.Context) string {
	claims := currentClaims(c)
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// currentRole returns the caller's role or empty for anonymous requests.
func currentRole(c *gin.Context) models.UserRole {
	claims := currentClaims(c)
	if claims == nil {
		return ""
	}
	return claims.Role
}
