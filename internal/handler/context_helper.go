package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/dept-attendance-api/internal/dto"
	"github.com/noah-isme/dept-attendance-api/internal/middleware"
	"github.com/noah-isme/dept-attendance-api/internal/models"
	"github.com/noah-isme/dept-attendance-api/internal/service"
	appErrors "github.com/noah-isme/dept-attendance-api/pkg/errors"
)

var queryValidator = service.NewValidator()

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

// actorEmail identifies the caller on written documents.
func actorEmail(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(claims.Email))
}

// bindQuery binds and validates query parameters.
func bindQuery(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindQuery(dst); err != nil {
		return appErrors.Invalid(err, "invalid query parameters")
	}
	if err := queryValidator.Struct(dst); err != nil {
		return appErrors.Invalid(err, "invalid query parameters")
	}
	return nil
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return appErrors.Invalid(err, "invalid payload")
	}
	return nil
}

// classIdentity resolves the class named by q within dept.
func classIdentity(dept string, q dto.ClassQuery) (models.ClassIdentity, error) {
	identity := service.ResolveClassIdentity(dept, q.Ref())
	if identity.Canon == "" {
		return identity, appErrors.Clone(appErrors.ErrValidation, "class or canon is required")
	}
	return identity, nil
}
