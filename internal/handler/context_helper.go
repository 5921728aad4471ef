package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuscore/uni-admin-api/internal/middleware"
	"github.com/campuscore/uni-admin-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// principalFromContext converts verified claims into the principal that
// services receive. Routes behind the JWT middleware always have one.
func principalFromContext(c *gin.Context) (models.Principal, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Principal{}, false
	}
	return models.Principal{
		UserID:       claims.UserID,
		Role:         claims.Role,
		DepartmentID: claims.DepartmentID,
	}, true
}
