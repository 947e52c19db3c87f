// File: internal/requeststore/account.go
package requeststore

import (
	"strings"
	"sync"

	"blood_donation_dashboard/internal/domain"
)

// AccountViews resets a set of views whenever the signed-in account changes. Token
// refreshes of the same account keep the views as they are.
type AccountViews struct {
	mu    sync.Mutex
	email string
	views []*View
}

func NewAccountViews(views ...*View) *AccountViews {
	return &AccountViews{views: views}
}

// OnIdentityChange is a session listener.
func (a *AccountViews) OnIdentityChange(identity *domain.Identity) {
	email := ""
	if identity != nil {
		email = strings.ToLower(identity.Email)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if email == a.email {
		return
	}
	a.email = email
	for _, v := range a.views {
		v.Reset()
	}
}
