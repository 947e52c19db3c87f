// File: internal/session/session.go
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/platform/metrics"

	"go.uber.org/zap"
)

// Provider is the external authentication provider.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*domain.Identity, error)
	SignUp(ctx context.Context, name, email, password, photoURL string) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*domain.Identity, error)
	VerifyToken(ctx context.Context, idToken string) error
}

// RegisterRequest is the input of Register.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	PhotoURL string `json:"photo_url" binding:"omitempty,url"`
}

// Listener receives every identity change. nil means signed out.
type Listener func(identity *domain.Identity)

// Session owns the current identity. It is created once per process and injected into
// every component that needs the caller's credential.
type Session struct {
	provider Provider
	store    Store
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.RWMutex
	identity *domain.Identity

	// storeMu orders writes to the persisted copy.
	storeMu sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once

	subMu     sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// New creates a session in the loading state. Call Restore to resolve it.
func New(provider Provider, store Store, m *metrics.Metrics, logger *zap.Logger) *Session {
	return &Session{
		provider:  provider,
		store:     store,
		metrics:   m,
		logger:    logger.Named("Session"),
		now:       time.Now,
		ready:     make(chan struct{}),
		listeners: make(map[int]Listener),
	}
}

// Current returns a copy of the identity, or nil when signed out.
func (s *Session) Current() *domain.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	cp := *s.identity
	return &cp
}

// IsLoading is true until the first identity resolution completes.
func (s *Session) IsLoading() bool {
	select {
	case <-s.ready:
		return false
	default:
		return true
	}
}

// Ready is closed once the first identity resolution completes.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// WaitReady blocks until the session has resolved or ctx is done.
func (s *Session) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Subscribe registers l for identity changes and returns the function that removes it.
// Listeners run synchronously on the goroutine that changed the identity.
func (s *Session) Subscribe(l Listener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.listeners, id)
		s.subMu.Unlock()
	}
}

// publish swaps the identity and notifies every listener before returning.
func (s *Session) publish(identity *domain.Identity) {
	s.mu.Lock()
	s.identity = identity
	s.mu.Unlock()
	s.markReady()
	s.notify(identity)
}

// replaceIf swaps in next only while the account email is still signed in. Listeners run
// only when the swap happened.
func (s *Session) replaceIf(email string, next *domain.Identity) bool {
	s.mu.Lock()
	if s.identity == nil || !strings.EqualFold(s.identity.Email, email) {
		s.mu.Unlock()
		return false
	}
	s.identity = next
	s.mu.Unlock()
	s.notify(next)
	return true
}

func (s *Session) notify(identity *domain.Identity) {
	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.subMu.Unlock()

	for _, l := range listeners {
		if identity == nil {
			l(nil)
			continue
		}
		cp := *identity
		l(&cp)
	}
}

// Restore resolves the persisted identity. Expired or rejected credentials are dropped.
// The session always leaves the loading state, even on error.
func (s *Session) Restore(ctx context.Context) error {
	identity, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("Failed to restore session", zap.Error(err))
		s.publish(nil)
		return err
	}
	if identity == nil {
		s.logger.Debug("No persisted session")
		s.publish(nil)
		return nil
	}

	if identity.Expired(s.now()) {
		s.logger.Info("Persisted session expired", zap.String("email", identity.Email))
		s.drop(ctx)
		s.publish(nil)
		s.metrics.SessionEvent("expired")
		return nil
	}
	if err := s.provider.VerifyToken(ctx, identity.AccessToken); err != nil {
		s.logger.Warn("Persisted session rejected", zap.String("email", identity.Email), zap.Error(err))
		s.drop(ctx)
		s.publish(nil)
		return nil
	}

	s.publish(identity)
	s.metrics.SessionEvent("restored")
	s.logger.Info("Session restored", zap.String("email", identity.Email))
	return nil
}

// SignIn authenticates with the provider and publishes the new identity.
// Failures are *common.AuthError.
func (s *Session) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	identity, err := s.provider.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		s.metrics.SessionEvent("sign_in_failed")
		return nil, err
	}
	s.publish(identity)
	s.persist(ctx, identity)
	s.metrics.SessionEvent("sign_in")
	s.logger.Info("Signed in", zap.String("email", identity.Email))
	return s.Current(), nil
}

// Register creates an account and signs it in.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (*domain.Identity, error) {
	identity, err := s.provider.SignUp(ctx, req.Name, strings.TrimSpace(req.Email), req.Password, req.PhotoURL)
	if err != nil {
		return nil, err
	}
	s.publish(identity)
	s.persist(ctx, identity)
	s.metrics.SessionEvent("register")
	s.logger.Info("Registered", zap.String("email", identity.Email))
	return s.Current(), nil
}

// UpdateProfile changes the provider-side display name and photo.
func (s *Session) UpdateProfile(ctx context.Context, displayName, photoURL string) (*domain.Identity, error) {
	current := s.Current()
	if current == nil {
		return nil, common.ErrUnauthorized
	}
	if photoURL == "" {
		photoURL = current.PhotoURL
	}
	updated, err := s.provider.UpdateProfile(ctx, current.AccessToken, displayName, photoURL)
	if err != nil {
		return nil, err
	}

	next := *current
	next.DisplayName = updated.DisplayName
	next.PhotoURL = updated.PhotoURL
	if updated.AccessToken != "" {
		next.AccessToken = updated.AccessToken
		next.RefreshToken = updated.RefreshToken
		next.ExpiresAt = updated.ExpiresAt
	}

	// A sign-out or account switch may have happened while the provider call was in flight.
	if !s.replaceIf(current.Email, &next) {
		return nil, common.ErrUnauthorized
	}
	s.persist(ctx, &next)
	return s.Current(), nil
}

// SignOut clears the identity. Every listener has observed the sign-out when it returns,
// so no request issued afterwards carries the old credential. Signing out twice is a no-op.
func (s *Session) SignOut(ctx context.Context) error {
	previous := s.Current()
	s.publish(nil)
	s.drop(ctx)
	if previous != nil {
		s.metrics.SessionEvent("sign_out")
		s.logger.Info("Signed out", zap.String("email", previous.Email))
	}
	return nil
}

// persist saves identity while it is still the signed-in one. A sign-out publishes before
// it clears the store, so a save racing it is either skipped or cleared afterwards.
func (s *Session) persist(ctx context.Context, identity *domain.Identity) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	if current := s.Current(); current == nil || current.AccessToken != identity.AccessToken ||
		!strings.EqualFold(current.Email, identity.Email) {
		s.logger.Debug("Identity changed before it was persisted; skipping save")
		return
	}
	if err := s.store.Save(ctx, identity); err != nil {
		s.logger.Warn("Session not persisted; it will not survive a restart", zap.Error(err))
	}
}

func (s *Session) drop(ctx context.Context) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	if err := s.store.Clear(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("Failed to clear persisted session", zap.Error(err))
	}
}
