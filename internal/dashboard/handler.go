// File: internal/dashboard/handler.go
package dashboard

import (
	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the dashboard home screen.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the dashboard home route.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	router.GET("/dashboard", guard(), h.overview)
}

func (h *Handler) overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context(), common.GetUserEmailFromContext(c), common.GetUserRoleFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Dashboard retrieved successfully.", overview)
}
