// File: internal/auth/model.go
package auth

import (
	"time"

	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/session"
)

// LoginRequest defines the structure for sign-in requests. From is the view to return to.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	From     string `json:"from"`
}

// PreferencesRequest changes UI preferences.
type PreferencesRequest struct {
	Theme session.Theme `json:"theme" binding:"required,oneof=light dark"`
}

// IdentityResponse is the public part of an identity.
type IdentityResponse struct {
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name,omitempty"`
	PhotoURL    string      `json:"photo_url,omitempty"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
	Role        domain.Role `json:"role,omitempty"`
}

// ToIdentityResponse hides the credentials of identity.
func ToIdentityResponse(identity *domain.Identity) IdentityResponse {
	resp := IdentityResponse{
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		PhotoURL:    identity.PhotoURL,
	}
	if !identity.ExpiresAt.IsZero() {
		t := identity.ExpiresAt
		resp.ExpiresAt = &t
	}
	return resp
}

// SignInView describes the sign-in screen.
type SignInView struct {
	Path     string `json:"path"`
	From     string `json:"from,omitempty"`
	SignedIn bool   `json:"signed_in"`
	Redirect string `json:"redirect,omitempty"`
}
