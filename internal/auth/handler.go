// File: internal/auth/handler.go
package auth

import (
	"strings"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/middleware"
	"blood_donation_dashboard/internal/navigation"
	"blood_donation_dashboard/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultLanding is where a sign-in without an origin lands.
const DefaultLanding = "/dashboard"

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	sessions    Sessions
	preferences PreferenceStore
	navigation  Navigation
	logger      *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(sessions Sessions, preferences PreferenceStore, nav Navigation, logger *zap.Logger) *Handler {
	return &Handler{
		sessions:    sessions,
		preferences: preferences,
		navigation:  nav,
		logger:      logger,
	}
}

// RegisterLoginView serves the sign-in descriptor at the root router.
func (h *Handler) RegisterLoginView(router gin.IRoutes) {
	router.GET(navigation.SignInPath, h.loginView)
}

// RegisterRoutes sets up the routes for authentication and preferences.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/sign-in", h.signIn)
		authGroup.POST("/register", h.register)
		authGroup.POST("/sign-out", h.signOut)
		authGroup.GET("/me", guard(), h.me)
	}

	prefs := router.Group("/preferences")
	{
		prefs.GET("", h.getPreferences)
		prefs.PUT("", h.putPreferences)
		prefs.POST("/theme/toggle", h.toggleTheme)
	}
}

func (h *Handler) loginView(c *gin.Context) {
	from := c.Query("from")
	if from == "" {
		if loc, ok := h.navigation.Current(); ok {
			from = loc.From
		}
	}
	view := SignInView{Path: navigation.SignInPath, From: safeOrigin(from)}
	if h.sessions.Current() != nil {
		view.SignedIn = true
		view.Redirect = landing(view.From)
	}
	common.RespondOK(c, "Sign in to continue.", view)
}

func (h *Handler) signIn(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Sign-in: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.ValidationError(err))
		return
	}

	identity, err := h.sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	from := req.From
	if loc, ok := h.navigation.Consume(); ok && from == "" {
		from = loc.From
	}
	common.RespondOK(c, "Sign-in successful.", gin.H{
		"user":     ToIdentityResponse(identity),
		"redirect": landing(safeOrigin(from)),
	})
}

func (h *Handler) register(c *gin.Context) {
	var req session.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Register: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.ValidationError(err))
		return
	}

	identity, err := h.sessions.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	h.navigation.Consume()
	common.RespondCreated(c, "Registration successful.", gin.H{
		"user":     ToIdentityResponse(identity),
		"redirect": DefaultLanding,
	})
}

func (h *Handler) signOut(c *gin.Context) {
	if err := h.sessions.SignOut(c.Request.Context()); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Signed out.", gin.H{"redirect": navigation.SignInPath})
}

func (h *Handler) me(c *gin.Context) {
	identity := h.sessions.Current()
	if identity == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	resp := ToIdentityResponse(identity)
	resp.Role = common.GetUserRoleFromContext(c)
	common.RespondOK(c, "Current user.", resp)
}

func (h *Handler) getPreferences(c *gin.Context) {
	common.RespondOK(c, "Preferences retrieved.", gin.H{"theme": h.preferences.Theme()})
}

func (h *Handler) putPreferences(c *gin.Context) {
	var req PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.ValidationError(err))
		return
	}
	if err := h.preferences.SetTheme(c.Request.Context(), req.Theme); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Preferences updated.", gin.H{"theme": req.Theme})
}

func (h *Handler) toggleTheme(c *gin.Context) {
	theme, err := h.preferences.ToggleTheme(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Theme toggled.", gin.H{"theme": theme})
}

// safeOrigin keeps only local paths so a crafted from cannot send the user elsewhere.
func safeOrigin(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return ""
	}
	if from == navigation.SignInPath || strings.HasPrefix(from, navigation.SignInPath+"?") {
		return ""
	}
	return from
}

func landing(from string) string {
	if from == "" {
		return DefaultLanding
	}
	return from
}
