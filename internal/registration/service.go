// File: internal/registration/service.go
package registration

import (
	"context"
	"errors"
	"strings"
	"time"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/lifecycle"
	"blood_donation_dashboard/internal/platform/metrics"
	"blood_donation_dashboard/internal/requeststore"
	"blood_donation_dashboard/internal/session"

	"go.uber.org/zap"
)

const (
	collectionPath = "/blood-donate"
	minimumAge     = 18
)

// Store is the list store of donation registrations.
type Store = requeststore.Store[domain.DonationRegistration]

// Listing is one rendered page of registrations.
type Listing = requeststore.Listing[domain.DonationRegistration]

// NewStore creates the registration store.
func NewStore(api requeststore.API, engine *lifecycle.Engine, cache *requeststore.Cache, m *metrics.Metrics, logger *zap.Logger) *Store {
	return requeststore.New[domain.DonationRegistration](requeststore.Options{
		Collection: "registrations",
		Path:       collectionPath,
		RecordType: lifecycle.DonationRegistration,
	}, api, engine, cache, m, logger)
}

// Identities exposes the signed-in identity.
type Identities interface {
	Current() *domain.Identity
	Subscribe(l session.Listener) (unsubscribe func())
}

// Service defines the interface for donation registration operations.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (string, error)
	Get(ctx context.Context, actor domain.Role, id string) (*Detail, error)
	ListAll(ctx context.Context, ctrl requeststore.Controls) (Listing, error)
	ListMine(ctx context.Context, email string, ctrl requeststore.Controls) (Listing, error)
	UpdateStatus(ctx context.Context, actor domain.Role, id string, status domain.Status) (*domain.DonationRegistration, error)
	Delete(ctx context.Context, actor domain.Role, id string, confirmed bool) error
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	store   *Store
	engine  *lifecycle.Engine
	session Identities
	logger  *zap.Logger
	now     func() time.Time

	allView  *requeststore.View
	mineView *requeststore.View
}

// NewService creates a new registration service.
func NewService(store *Store, engine *lifecycle.Engine, identities Identities, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	s := &ServiceImplementation{
		store:    store,
		engine:   engine,
		session:  identities,
		logger:   logger.Named("RegistrationService"),
		now:      time.Now,
		allView:  requeststore.NewView(cfg.DefaultPageSize),
		mineView: requeststore.NewView(cfg.DefaultPageSize),
	}
	identities.Subscribe(requeststore.NewAccountViews(s.allView, s.mineView).OnIdentityChange)
	return s
}

// Create registers the signed-in user as a donor candidate.
func (s *ServiceImplementation) Create(ctx context.Context, req CreateRequest) (string, error) {
	identity := s.session.Current()
	if identity == nil {
		return "", common.ErrUnauthorized
	}
	dob, err := time.Parse(time.DateOnly, req.DOB)
	if err != nil {
		return "", common.NewValidationAPIError(map[string]string{"DOB": "The dob field must be a valid date."})
	}
	if age(dob, s.now()) < minimumAge {
		return "", common.NewValidationAPIError(map[string]string{"DOB": "Donors must be at least 18 years old."})
	}

	record := domain.DonationRegistration{
		FullName:          strings.TrimSpace(req.FullName),
		Email:             identity.Email,
		Phone:             strings.TrimSpace(req.Phone),
		Address:           strings.TrimSpace(req.Address),
		BloodGroup:        req.BloodGroup,
		Weight:            req.Weight,
		DOB:               req.DOB,
		HealthDeclaration: req.HealthDeclaration,
		Status:            domain.StatusPending,
		CreatedAt:         s.now().UTC(),
	}
	id, err := s.store.Create(ctx, record)
	if err != nil {
		s.logger.Error("Failed to create registration", zap.String("email", identity.Email), zap.Error(err))
		return "", err
	}
	return id, nil
}

// Get returns a registration with the transitions open to actor.
func (s *ServiceImplementation) Get(ctx context.Context, actor domain.Role, id string) (*Detail, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, common.ErrNotFound.WithDetails("Registration " + id + " does not exist.")
		}
		return nil, err
	}
	detail := &Detail{
		Registration:       *rec,
		AllowedTransitions: []domain.Status{},
		CanDelete:          s.engine.CanDelete(actor, lifecycle.DonationRegistration),
	}
	if s.engine.CanTransition(actor, lifecycle.DonationRegistration) {
		detail.AllowedTransitions = s.engine.AllowedTransitions(rec.Status, lifecycle.DonationRegistration)
	}
	return detail, nil
}

// ListAll lists every registration.
func (s *ServiceImplementation) ListAll(ctx context.Context, ctrl requeststore.Controls) (Listing, error) {
	records, err := s.store.Load(ctx, nil)
	if err != nil {
		return Listing{}, err
	}
	s.allView.Update(ctrl)
	return requeststore.Apply(s.allView, records), nil
}

// ListMine lists the registrations of email. The collection has no owner query, so the
// shared cached list is filtered here.
func (s *ServiceImplementation) ListMine(ctx context.Context, email string, ctrl requeststore.Controls) (Listing, error) {
	var mine []domain.DonationRegistration
	for rec, err := range s.store.Records(ctx, nil) {
		if err != nil {
			return Listing{}, err
		}
		if strings.EqualFold(rec.Email, email) {
			mine = append(mine, rec)
		}
	}
	s.mineView.Update(ctrl)
	return requeststore.Apply(s.mineView, mine), nil
}

// UpdateStatus approves or rejects a pending registration.
func (s *ServiceImplementation) UpdateStatus(ctx context.Context, actor domain.Role, id string, status domain.Status) (*domain.DonationRegistration, error) {
	return s.store.Mutate(ctx, actor, id, lifecycle.StatusPatch{Status: status})
}

// Delete removes a registration once the user has confirmed.
func (s *ServiceImplementation) Delete(ctx context.Context, actor domain.Role, id string, confirmed bool) error {
	if !confirmed {
		return common.ErrConfirmationRequired
	}
	return s.store.Delete(ctx, actor, requeststore.Confirm(id))
}

func age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}
