// File: internal/donor/handler.go
package donor

import (
	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/middleware"
	"blood_donation_dashboard/internal/requeststore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for donor handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new donor handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for donor search and user administration.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	router.GET("/donors/search", h.search)

	users := router.Group("/dashboard/users")
	users.Use(guard(domain.RoleAdmin))
	{
		users.GET("", h.listUsers)
		users.PATCH("/:email/role", h.setRole)
		users.PATCH("/:email/status", h.setStatus)
	}
}

func (h *Handler) search(c *gin.Context) {
	var q SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		common.RespondWithError(c, common.ValidationError(err))
		return
	}
	donors, err := h.service.Search(c.Request.Context(), q)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Donors retrieved successfully.", donors)
}

func (h *Handler) listUsers(c *gin.Context) {
	listing, err := h.service.ListUsers(c.Request.Context(), requeststore.ControlsFromQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondListView(c, "Users retrieved successfully.", listing.Items, listing.Counts, string(listing.Status), listing.Pagination)
}

func (h *Handler) setRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.ValidationError(err))
		return
	}
	updated, err := h.service.SetRole(c.Request.Context(), actorFrom(c), c.Param("email"), req.Role)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User role updated.", updated)
}

func (h *Handler) setStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.ValidationError(err))
		return
	}
	updated, err := h.service.SetStatus(c.Request.Context(), actorFrom(c), c.Param("email"), req.Status)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User status updated.", updated)
}

func actorFrom(c *gin.Context) Actor {
	return Actor{Email: common.GetUserEmailFromContext(c), Role: common.GetUserRoleFromContext(c)}
}
