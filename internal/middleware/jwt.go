package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/geoattend/attendance-api/internal/models"
	appErrors "github.com/geoattend/attendance-api/pkg/errors"
	"github.com/geoattend/attendance-api/pkg/response"
)

// ContextUserKey is the gin context key storing lecturer claims.
const ContextUserKey = "currentLecturer"

type tokenValidator interface {
	ValidateToken(token string) (*models.LecturerClaims, error)
}

// JWT protects routes by requiring a valid lecturer bearer token.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}
