package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/smart-planner-api/internal/middleware"
	"github.com/noah-isme/smart-planner-api/internal/models"
	appErrors "github.com/noah-isme/smart-planner-api/pkg/errors"
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

// requireClaims aborts with 401 when the request carries no user.
func requireClaims(c *gin.Context) (*models.JWTClaims, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}
