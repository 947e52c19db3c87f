// File: internal/funding/handler.go
package funding

import (
	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/middleware"
	"blood_donation_dashboard/internal/requeststore"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for funding handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new funding handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes sets up the routes for support donations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	group := router.Group("/funding")
	group.Use(guard())
	{
		group.GET("", h.list)
		group.POST("/checkout", h.checkout)
		group.POST("/payment-success", h.paymentSuccess)
	}
}

func (h *Handler) list(c *gin.Context) {
	ctx := c.Request.Context()
	listing, err := h.service.List(ctx, requeststore.ControlsFromQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	summary, err := h.service.Summary(ctx)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondListView(c, "Donations retrieved successfully.", listing.Items, summary, string(listing.Status), listing.Pagination)
}

func (h *Handler) checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Checkout: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.ValidationError(err))
		return
	}
	session, err := h.service.Checkout(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Checkout session created.", session)
}

func (h *Handler) paymentSuccess(c *gin.Context) {
	if err := h.service.ConfirmPayment(c.Request.Context(), c.Query("session_id")); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Payment recorded.", nil)
}
