// File: internal/filestorage/handler.go
package filestorage

import (
	"context"
	"mime/multipart"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Identities is the subset of the session used for photo changes.
type Identities interface {
	Current() *domain.Identity
	UpdateProfile(ctx context.Context, displayName, photoURL string) (*domain.Identity, error)
}

// Avatars stores uploaded images.
type Avatars interface {
	Save(fileHeader *multipart.FileHeader) (string, error)
	Delete(publicPath string) error
}

// Handler serves profile photo uploads.
type Handler struct {
	avatars Avatars
	session Identities
	logger  *zap.Logger
}

// NewHandler creates a new avatar handler.
func NewHandler(avatars *AvatarStore, session Identities, logger *zap.Logger) *Handler {
	return &Handler{avatars: avatars, session: session, logger: logger}
}

// RegisterRoutes sets up the avatar route under the profile group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, guard middleware.Guard) {
	router.POST("/profile/avatar", guard(), h.upload)
}

// upload stores the "avatar" form file and makes it the account photo.
// The previous photo is removed only after the provider accepted the new one.
func (h *Handler) upload(c *gin.Context) {
	current := h.session.Current()
	if current == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		h.logger.Warn("Avatar upload: missing file", zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Form field 'avatar' with an image file is required."))
		return
	}

	photoURL, err := h.avatars.Save(fileHeader)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	updated, err := h.session.UpdateProfile(c.Request.Context(), current.DisplayName, photoURL)
	if err != nil {
		h.logger.Warn("Avatar upload: provider rejected photo", zap.String("email", current.Email), zap.Error(err))
		_ = h.avatars.Delete(photoURL)
		common.RespondWithError(c, err)
		return
	}
	if current.PhotoURL != "" && current.PhotoURL != photoURL {
		if err := h.avatars.Delete(current.PhotoURL); err != nil {
			h.logger.Warn("Previous avatar not removed", zap.String("path", current.PhotoURL), zap.Error(err))
		}
	}
	common.RespondOK(c, "Profile photo updated.", updated)
}
