// File: internal/middleware/gate.go
package middleware

import (
	"context"
	"net/http"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/navigation"
	"blood_donation_dashboard/internal/rolegate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authorizer decides access for a protected view.
type Authorizer interface {
	Authorize(ctx context.Context, required ...domain.Role) (rolegate.Decision, domain.Role, error)
}

// Identities exposes the signed-in identity.
type Identities interface {
	Current() *domain.Identity
}

// RequireRoles guards a view. It waits for the session, resolves the role and only then
// lets the handler run. No required roles means any signed-in user.
func RequireRoles(gate Authorizer, session Identities, logger *zap.Logger, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.URL.RequestURI()
		ctx := navigation.WithOrigin(c.Request.Context(), origin)
		c.Request = c.Request.WithContext(ctx)

		decision, role, err := gate.Authorize(ctx, roles...)
		if err != nil {
			logger.Warn("Access check failed", zap.String("path", origin), zap.Error(err))
			common.RespondWithError(c, err)
			return
		}

		switch decision {
		case rolegate.Allowed:
			identity := session.Current()
			if identity == nil {
				redirectToSignIn(c, origin)
				return
			}
			c.Set(common.UserEmailKey, identity.Email)
			c.Set(common.UserRoleKey, role)
			c.Next()
		case rolegate.Denied:
			logger.Info("Access denied", zap.String("path", origin), zap.String("role", string(role)))
			common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this view."))
		default:
			redirectToSignIn(c, origin)
		}
	}
}

func redirectToSignIn(c *gin.Context, origin string) {
	target := navigation.SignIn(origin).URL()
	c.Header("Location", target)
	c.AbortWithStatusJSON(http.StatusSeeOther, gin.H{
		"code":     "SIGN_IN_REQUIRED",
		"message":  "Sign in to continue.",
		"redirect": target,
	})
}

// Guard builds RequireRoles handlers sharing one gate.
type Guard func(roles ...domain.Role) gin.HandlerFunc

// NewGuard binds RequireRoles to gate and session.
func NewGuard(gate Authorizer, session Identities, logger *zap.Logger) Guard {
	logger = logger.Named("RoleGuard")
	return func(roles ...domain.Role) gin.HandlerFunc {
		return RequireRoles(gate, session, logger, roles...)
	}
}
