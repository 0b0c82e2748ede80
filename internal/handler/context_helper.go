package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/biehatieha/timetable-api/internal/middleware"
	"github.com/biehatieha/timetable-api/internal/models"
)

// claimsFromContext returns the authenticated user's token claims, or nil
// when the request carried no valid token.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	if claims, ok := value.(*models.JWTClaims); ok {
		return claims
	}
	return nil
}
