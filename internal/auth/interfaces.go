// File: internal/auth/interfaces.go
package auth

import (
	"context"

	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/navigation"
	"blood_donation_dashboard/internal/session"
)

// Sessions is the session surface used by the auth views.
type Sessions interface {
	Current() *domain.Identity
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	Register(ctx context.Context, req session.RegisterRequest) (*domain.Identity, error)
	SignOut(ctx context.Context) error
}

// PreferenceStore reads and writes UI preferences.
type PreferenceStore interface {
	Theme() session.Theme
	SetTheme(ctx context.Context, theme session.Theme) error
	ToggleTheme(ctx context.Context) (session.Theme, error)
}

// Navigation exposes pending navigation requests.
type Navigation interface {
	Current() (navigation.Location, bool)
	Consume() (navigation.Location, bool)
}
