// File: internal/profile/handler.go
package profile

import (
	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the profile screen.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new profile handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the profile routes. Every route needs a signed-in user.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	group := router.Group("/profile")
	group.Use(guard())
	{
		group.GET("", h.get)
		group.POST("/edit", h.beginEdit)
		group.PATCH("", h.commit)
		group.DELETE("/edit", h.cancel)
	}
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.service.Current(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	buf, editing := h.service.Editing()
	data := gin.H{"profile": p, "editing": editing}
	if editing {
		data["edit_buffer"] = buf
	}
	common.RespondOK(c, "Profile retrieved successfully.", data)
}

func (h *Handler) beginEdit(c *gin.Context) {
	buf, err := h.service.BeginEdit(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Editing profile.", buf)
}

func (h *Handler) commit(c *gin.Context) {
	var buf EditBuffer
	if err := c.ShouldBindJSON(&buf); err != nil {
		h.logger.Warn("Profile commit: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	updated, err := h.service.Commit(c.Request.Context(), buf)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully.", updated)
}

func (h *Handler) cancel(c *gin.Context) {
	h.service.Cancel()
	common.RespondNoContent(c)
}
