// File: internal/profile/service.go
package profile

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/session"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// API is the subset of the backend client used for profiles.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Patch(ctx context.Context, path string, query url.Values, body, out any) error
}

// Identity is the subset of the session used for profiles.
type Identity interface {
	Current() *domain.Identity
	UpdateProfile(ctx context.Context, displayName, photoURL string) (*domain.Identity, error)
	Subscribe(l session.Listener) (unsubscribe func())
}

// EditBuffer is a detached copy of the editable profile fields.
type EditBuffer struct {
	Email      string `json:"email"`
	Name       string `json:"name" validate:"required,min=2,max=100"`
	BloodGroup string `json:"blood_group" validate:"required,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	District   string `json:"district" validate:"required"`
	Upazila    string `json:"upazila" validate:"required"`
}

// profilePatch carries exactly the fields the owner may change.
type profilePatch struct {
	Name       string `json:"name"`
	BloodGroup string `json:"blood_group"`
	District   string `json:"district"`
	Upazila    string `json:"upazila"`
}

// Service keeps the signed-in user's donor profile in step with the backend.
type Service struct {
	api      API
	identity Identity
	validate *validator.Validate
	logger   *zap.Logger

	mu      sync.Mutex
	cached  *domain.DonorProfile
	editing *EditBuffer
}

// NewService creates the profile service. Cached state is dropped when the account changes.
func NewService(api API, identity Identity, logger *zap.Logger) *Service {
	s := &Service{
		api:      api,
		identity: identity,
		validate: validator.New(),
		logger:   logger.Named("ProfileSync"),
	}
	identity.Subscribe(s.onIdentityChange)
	return s
}

// onIdentityChange keeps the cache across token refreshes of the same account.
func (s *Service) onIdentityChange(identity *domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if identity != nil && s.cached != nil && strings.EqualFold(s.cached.Email, identity.Email) {
		return
	}
	s.cached = nil
	s.editing = nil
}

// Resolve finds the profile of identity by scanning the donor collection.
// The backend offers no lookup by email.
func (s *Service) Resolve(ctx context.Context, identity *domain.Identity) (*domain.DonorProfile, error) {
	if identity == nil {
		return nil, common.ErrUnauthorized
	}
	var donors []domain.DonorProfile
	if err := s.api.Get(ctx, "/donors", nil, &donors); err != nil {
		return nil, err
	}
	for i := range donors {
		if strings.EqualFold(donors[i].Email, identity.Email) {
			p := donors[i]
			p.Role = domain.ParseRole(string(p.Role))
			return &p, nil
		}
	}
	return nil, common.ErrNotFound.WithDetails(fmt.Sprintf("no donor profile for %s", identity.Email))
}

// Current returns the profile of the signed-in user, resolving it once per identity.
func (s *Service) Current(ctx context.Context) (*domain.DonorProfile, error) {
	identity := s.identity.Current()
	if identity == nil {
		return nil, common.ErrUnauthorized
	}

	s.mu.Lock()
	if s.cached != nil && strings.EqualFold(s.cached.Email, identity.Email) {
		p := *s.cached
		s.mu.Unlock()
		return &p, nil
	}
	s.mu.Unlock()

	p, err := s.Resolve(ctx, identity)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// Only cache if the identity did not change while resolving.
	if current := s.identity.Current(); current != nil && strings.EqualFold(current.Email, p.Email) {
		cp := *p
		s.cached = &cp
	}
	s.mu.Unlock()
	return p, nil
}

// Role resolves the signed-in user's role. A missing profile means donor.
func (s *Service) Role(ctx context.Context) (domain.Role, error) {
	p, err := s.Current(ctx)
	if errors.Is(err, common.ErrNotFound) {
		s.logger.Debug("No donor profile; defaulting to donor role")
		return domain.RoleDonor, nil
	}
	if err != nil {
		return "", err
	}
	return p.Role, nil
}

// BeginEdit snapshots the editable fields of the current profile.
func (s *Service) BeginEdit(ctx context.Context) (EditBuffer, error) {
	p, err := s.Current(ctx)
	if err != nil {
		return EditBuffer{}, err
	}
	buf := EditBuffer{
		Email:      p.Email,
		Name:       p.Name,
		BloodGroup: p.BloodGroup,
		District:   p.District,
		Upazila:    p.Upazila,
	}
	s.mu.Lock()
	cp := buf
	s.editing = &cp
	s.mu.Unlock()
	return buf, nil
}

// Editing returns the open edit buffer, if any.
func (s *Service) Editing() (EditBuffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editing == nil {
		return EditBuffer{}, false
	}
	return *s.editing, true
}

// Commit sends the four editable fields. Email and role cannot change through this path.
// A changed name is also pushed to the auth provider; that failure is only logged.
func (s *Service) Commit(ctx context.Context, buf EditBuffer) (*domain.DonorProfile, error) {
	p, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if buf.Email != "" && !strings.EqualFold(buf.Email, p.Email) {
		return nil, common.ErrForbidden.WithDetails("A profile can only be edited by its owner.")
	}
	if err := s.validate.Struct(buf); err != nil {
		return nil, common.ValidationError(err)
	}

	body := profilePatch{Name: buf.Name, BloodGroup: buf.BloodGroup, District: buf.District, Upazila: buf.Upazila}
	if err := s.api.Patch(ctx, "/donors/"+url.PathEscape(p.Email), nil, body, nil); err != nil {
		s.logger.Warn("Profile update failed", zap.String("email", p.Email), zap.Error(err))
		return nil, err
	}

	updated := *p
	updated.Name = buf.Name
	updated.BloodGroup = buf.BloodGroup
	updated.District = buf.District
	updated.Upazila = buf.Upazila

	s.mu.Lock()
	cp := updated
	s.cached = &cp
	s.editing = nil
	s.mu.Unlock()

	if updated.Name != p.Name {
		if _, err := s.identity.UpdateProfile(ctx, updated.Name, ""); err != nil {
			s.logger.Warn("Display name not updated at auth provider", zap.Error(err))
		}
	}
	s.logger.Info("Profile updated", zap.String("email", updated.Email))
	return &updated, nil
}

// Cancel discards the edit buffer without touching the backend.
func (s *Service) Cancel() {
	s.mu.Lock()
	s.editing = nil
	s.mu.Unlock()
}

// Refresh drops the cached profile and any open edit.
func (s *Service) Refresh() {
	s.mu.Lock()
	s.cached = nil
	s.editing = nil
	s.mu.Unlock()
}
