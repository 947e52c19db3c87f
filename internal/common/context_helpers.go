// File: internal/common/context_helpers.go
package common

import (
	"blood_donation_dashboard/internal/domain"

	"github.com/gin-gonic/gin"
)

// GetUserEmailFromContext retrieves the signed-in email set by the role gate middleware.
func GetUserEmailFromContext(c *gin.Context) string {
	val, exists := c.Get(UserEmailKey)
	if !exists {
		return ""
	}
	email, ok := val.(string)
	if !ok {
		return ""
	}
	return email
}

// GetUserRoleFromContext retrieves the resolved role. It defaults to donor.
func GetUserRoleFromContext(c *gin.Context) domain.Role {
	val, exists := c.Get(UserRoleKey)
	if !exists {
		return domain.RoleDonor
	}
	role, ok := val.(domain.Role)
	if !ok {
		return domain.RoleDonor
	}
	return role
}
