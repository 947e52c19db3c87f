// File: internal/bloodrequest/handler.go
package bloodrequest

import (
	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/middleware"
	"blood_donation_dashboard/internal/requeststore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for blood request handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new blood request handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for blood request operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	requests := router.Group("/requests")
	{
		requests.GET("/pending", h.listPending)
		requests.POST("", guard(), h.create)
		requests.GET("/:id", guard(), h.get)
	}

	dashboard := router.Group("/dashboard")
	{
		dashboard.GET("/my-requests", guard(), h.listMine)
		dashboard.GET("/requests", guard(domain.RoleAdmin, domain.RoleVolunteer), h.listAll)
		dashboard.PATCH("/requests/:id/status", guard(domain.RoleAdmin, domain.RoleVolunteer), h.updateStatus)
		dashboard.PATCH("/requests/:id", guard(domain.RoleAdmin), h.update)
		dashboard.DELETE("/requests/:id", guard(domain.RoleAdmin), h.delete)
	}
}

func (h *Handler) listPending(c *gin.Context) {
	listing, err := h.service.ListPending(c.Request.Context(), requeststore.ControlsFromQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	respondListing(c, "Pending blood requests retrieved successfully.", listing)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create blood request: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.ValidationError(err))
		return
	}
	id, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Blood request created successfully.", gin.H{"id": id})
}

func (h *Handler) get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), common.GetUserRoleFromContext(c), c.Param("id"))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Blood request retrieved successfully.", detail)
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
	respondListing(c, "Your blood requests retrieved successfully.", listing)
}

func (h *Handler) listAll(c *gin.Context) {
	listing, err := h.service.ListAll(c.Request.Context(), requeststore.ControlsFromQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	respondListing(c, "Blood requests retrieved successfully.", listing)
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
	common.RespondOK(c, "Blood request status updated.", updated)
}

func (h *Handler) update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Update blood request: Invalid request body", zap.Error(err), zap.String("id", c.Param("id")))
		common.RespondWithError(c, common.ValidationError(err))
		return
	}
	updated, err := h.service.Update(c.Request.Context(), common.GetUserRoleFromContext(c), c.Param("id"), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Blood request updated successfully.", updated)
}

func (h *Handler) delete(c *gin.Context) {
	var req DeleteRequest
	// An empty body is an unconfirmed delete.
	_ = c.ShouldBindJSON(&req)
	if err := h.service.Delete(c.Request.Context(), common.GetUserRoleFromContext(c), c.Param("id"), req.Confirm); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func respondListing(c *gin.Context, message string, listing Listing) {
	common.RespondListView(c, message, listing.Items, listing.Counts, string(listing.Status), listing.Pagination)
}
