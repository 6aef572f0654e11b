package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

// RoleSelf grants access when the authenticated user is the subject of
// the request, identified by the route parameter named by selfParam.
const RoleSelf = "SELF"

// RequireRoles allows the request through when the authenticated role is
// in the allow list. RoleSelf in the list additionally admits any user
// whose ID equals the selfParam route parameter.
func RequireRoles(selfParam string, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	allowSelf := false
	for _, role := range roles {
		if role == RoleSelf {
			allowSelf = true
			continue
		}
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		if _, ok := allowed[role]; ok {
			c.Next()
			return
		}
		if allowSelf && selfParam != "" {
			userID := c.GetString(ContextUserID)
			if userID != "" && userID == c.Param(selfParam) {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient permissions"))
		c.Abort()
	}
}

// RequireAdmin is shorthand for the admin-only guard.
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles("", string(models.RoleAdmin))
}

// RequireStaff admits admins and teachers.
func RequireStaff() gin.HandlerFunc {
	return RequireRoles("", string(models.RoleAdmin), string(models.RoleTeacher))
}
