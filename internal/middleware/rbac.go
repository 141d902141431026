package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/ladder-inspection-api/pkg/errors"
	"github.com/noah-isme/ladder-inspection-api/pkg/response"
)

// Self lets a caller through when the :id route parameter is their own user id.
const Self = "SELF"

// RequireGroups admits callers whose token carries at least one of the given
// directory groups.
func RequireGroups(groups ...string) gin.HandlerFunc {
	allowSelf := false
	allowed := make([]string, 0, len(groups))
	for _, g := range groups {
		if g == Self {
			allowSelf = true
			continue
		}
		allowed = append(allowed, g)
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if claims.HasAnyGroup(allowed...) {
			c.Next()
			return
		}

		if allowSelf {
			if targetID := c.Param("id"); targetID != "" && targetID == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
