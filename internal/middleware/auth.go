package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

// Context keys populated by the auth middleware.
const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
	ContextEmail    = "user_email"
	ContextFullName = "user_full_name"
)

type tokenValidator interface {
	ValidateAccessToken(token string) (*models.JWTClaims, error)
}

// Auth validates the bearer token and stores the claims on the request
// context.
func Auth(validator tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.ValidateAccessToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, string(claims.Role))
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextFullName, claims.FullName)
		c.Next()
	}
}
