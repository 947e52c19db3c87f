// File: internal/registration/handler.go
package registration

import (
	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/middleware"
	"blood_donation_dashboard/internal/requeststore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for registration handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new registration handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for registration operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	router.POST("/registrations", guard(), h.create)

	dashboard := router.Group("/dashboard")
	{
		dashboard.GET("/my-registrations", guard(), h.listMine)
		dashboard.GET("/registrations", guard(domain.RoleAdmin, domain.RoleVolunteer), h.listAll)
		dashboard.GET("/registrations/:id", guard(domain.RoleAdmin, domain.RoleVolunteer), h.get)
		dashboard.PATCH("/registrations/:id/status", guard(domain.RoleAdmin, domain.RoleVolunteer), h.updateStatus)
		dashboard.DELETE("/registrations/:id", guard(domain.RoleAdmin), h.delete)
	}
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create registration: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.ValidationError(err))
		return
	}
	id, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Registration submitted successfully.", gin.H{"id": id})
}

func (h *Handler) get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), common.GetUserRoleFromContext(c), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Registration retrieved successfully.", detail)
}

func (h *Handler) listAll(c *gin.Context) {
	listing, err := h.service.ListAll(c.Request.Context(), requeststore.ControlsFromQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondListView(c, "Registrations retrieved successfully.", listing.Items, listing.Counts, string(listing.Status), listing.Pagination)
}

func (h *Handler) listMine(c *gin.Context) {
	email := common.GetUserEmailFromContext(c)
	if email == "" {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	listing, err := h.service.ListMine(c.Request.Context(), email, requeststore.ControlsFromQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondListView(c, "Your registrations retrieved successfully.", listing.Items, listing.Counts, string(listing.Status), listing.Pagination)
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.ValidationError(err))
		return
	}
	updated, err := h.service.UpdateStatus(c.Request.Context(), common.GetUserRoleFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Registration status updated.", updated)
}

func (h *Handler) delete(c *gin.Context) {
	var req DeleteRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.service.Delete(c.Request.Context(), common.GetUserRoleFromContext(c), c.Param("id"), req.Confirm); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
