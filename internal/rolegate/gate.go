// File: internal/rolegate/gate.go
package rolegate

import (
	"context"
	"errors"
	"strings"
	"sync"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/session"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Decision is the outcome of an access check.
type Decision int

const (
	Pending Decision = iota
	Allowed
	Denied
	SignInRequired
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	case SignInRequired:
		return "sign_in_required"
	default:
		return "pending"
	}
}

// SessionView is the subset of the session the gate reads.
type SessionView interface {
	Current() *domain.Identity
	IsLoading() bool
	WaitReady(ctx context.Context) error
	Subscribe(l session.Listener) (unsubscribe func())
}

// RoleResolver finds the role of the signed-in user.
type RoleResolver interface {
	Role(ctx context.Context) (domain.Role, error)
}

// Gate is the single place where view access is decided.
type Gate struct {
	session  SessionView
	resolver RoleResolver
	logger   *zap.Logger
	group    singleflight.Group

	mu      sync.RWMutex
	email   string
	role    domain.Role
	epoch   uint64
	hasRole bool
}

// New creates a gate. The resolved role is forgotten when the account changes.
func New(sess SessionView, resolver RoleResolver, logger *zap.Logger) *Gate {
	g := &Gate{session: sess, resolver: resolver, logger: logger.Named("RoleGate")}
	sess.Subscribe(g.onIdentityChange)
	return g
}

func (g *Gate) onIdentityChange(identity *domain.Identity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if identity != nil && g.hasRole && strings.EqualFold(g.email, identity.Email) {
		return
	}
	g.forget()
}

// forget must be called with g.mu held.
func (g *Gate) forget() {
	g.email, g.role, g.hasRole = "", "", false
	g.epoch++
}

// Forget drops the resolved role so the next check resolves it again.
func (g *Gate) Forget() {
	g.mu.Lock()
	g.forget()
	g.mu.Unlock()
}

// CanAccess decides without blocking. Pending means the session or the role is still
// being resolved. An empty required set admits any signed-in user.
func (g *Gate) CanAccess(required ...domain.Role) Decision {
	if g.session.IsLoading() {
		return Pending
	}
	identity := g.session.Current()
	if identity == nil {
		return SignInRequired
	}

	g.mu.RLock()
	role, ok := g.role, g.hasRole && strings.EqualFold(g.email, identity.Email)
	g.mu.RUnlock()
	if !ok {
		return Pending
	}
	return decide(role, required)
}

// Resolve waits for the session, then resolves and caches the role of the current identity.
func (g *Gate) Resolve(ctx context.Context) (domain.Role, error) {
	if err := g.session.WaitReady(ctx); err != nil {
		return "", err
	}
	identity := g.session.Current()
	if identity == nil {
		return "", common.ErrUnauthorized
	}

	g.mu.RLock()
	if g.hasRole && strings.EqualFold(g.email, identity.Email) {
		role := g.role
		g.mu.RUnlock()
		return role, nil
	}
	epoch := g.epoch
	g.mu.RUnlock()

	v, err, _ := g.group.Do(strings.ToLower(identity.Email), func() (any, error) {
		return g.resolver.Role(ctx)
	})
	if err != nil {
		g.logger.Warn("Role resolution failed", zap.String("email", identity.Email), zap.Error(err))
		return "", err
	}
	role := domain.ParseRole(string(v.(domain.Role)))

	g.mu.Lock()
	if g.epoch == epoch {
		g.email, g.role, g.hasRole = identity.Email, role, true
	}
	g.mu.Unlock()
	return role, nil
}

// Authorize resolves the role and decides. It blocks until a terminal decision is known
// or ctx is done.
func (g *Gate) Authorize(ctx context.Context, required ...domain.Role) (Decision, domain.Role, error) {
	role, err := g.Resolve(ctx)
	switch {
	case errors.Is(err, common.ErrUnauthorized):
		return SignInRequired, "", nil
	case err != nil:
		return Pending, "", err
	}
	if g.session.Current() == nil {
		return SignInRequired, "", nil
	}
	return decide(role, required), role, nil
}

func decide(role domain.Role, required []domain.Role) Decision {
	if len(required) == 0 {
		return Allowed
	}
	for _, r := range required {
		if r == role {
			return Allowed
		}
	}
	return Denied
}
