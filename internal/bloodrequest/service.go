// File: internal/bloodrequest/service.go
package bloodrequest

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/lifecycle"
	"blood_donation_dashboard/internal/platform/metrics"
	"blood_donation_dashboard/internal/requeststore"
	"blood_donation_dashboard/internal/session"

	"go.uber.org/zap"
)

const collectionPath = "/donorRequest"

// Store is the list store of blood requests.
type Store = requeststore.Store[domain.BloodRequest]

// Listing is one rendered page of blood requests.
type Listing = requeststore.Listing[domain.BloodRequest]

// NewStore creates the blood request store.
func NewStore(api requeststore.API, engine *lifecycle.Engine, cache *requeststore.Cache, m *metrics.Metrics, logger *zap.Logger) *Store {
	return requeststore.New[domain.BloodRequest](requeststore.Options{
		Collection: "blood_requests",
		Path:       collectionPath,
		RecordType: lifecycle.BloodRequest,
	}, api, engine, cache, m, logger)
}

// Profiles resolves the signed-in donor profile.
type Profiles interface {
	Current(ctx context.Context) (*domain.DonorProfile, error)
}

// Identities exposes the signed-in identity.
type Identities interface {
	Current() *domain.Identity
	Subscribe(l session.Listener) (unsubscribe func())
}

// Service defines the interface for blood request operations.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (string, error)
	Get(ctx context.Context, actor domain.Role, id string) (*Detail, error)
	ListPending(ctx context.Context, ctrl requeststore.Controls) (Listing, error)
	ListMine(ctx context.Context, email string, ctrl requeststore.Controls) (Listing, error)
	ListAll(ctx context.Context, ctrl requeststore.Controls) (Listing, error)
	Recent(ctx context.Context, email string, limit int) ([]domain.BloodRequest, error)
	Counts(ctx context.Context) (requeststore.StatusCounts, error)
	UpdateStatus(ctx context.Context, actor domain.Role, id string, status domain.Status) (*domain.BloodRequest, error)
	Update(ctx context.Context, actor domain.Role, id string, req UpdateRequest) (*domain.BloodRequest, error)
	Delete(ctx context.Context, actor domain.Role, id string, confirmed bool) error
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	store    *Store
	engine   *lifecycle.Engine
	profiles Profiles
	session  Identities
	logger   *zap.Logger

	pendingView *requeststore.View
	mineView    *requeststore.View
	allView     *requeststore.View
}

// NewService creates a new blood request service. List screens start over when the
// account changes.
func NewService(store *Store, engine *lifecycle.Engine, profiles Profiles, identities Identities, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	s := &ServiceImplementation{
		store:       store,
		engine:      engine,
		profiles:    profiles,
		session:     identities,
		logger:      logger.Named("BloodRequestService"),
		pendingView: requeststore.NewFilteredView(cfg.DefaultPageSize, domain.StatusPending),
		mineView:    requeststore.NewView(cfg.DefaultPageSize),
		allView:     requeststore.NewView(cfg.DefaultPageSize),
	}
	identities.Subscribe(requeststore.NewAccountViews(s.pendingView, s.mineView, s.allView).OnIdentityChange)
	return s
}

// Create files a new request on behalf of the signed-in user. Blocked donors may not file.
func (s *ServiceImplementation) Create(ctx context.Context, req CreateRequest) (string, error) {
	identity := s.session.Current()
	if identity == nil {
		return "", common.ErrUnauthorized
	}

	requesterName := identity.DisplayName
	p, err := s.profiles.Current(ctx)
	switch {
	case err == nil:
		if p.GetStatus() == domain.StatusBlocked {
			return "", common.ErrForbidden.WithDetails("Blocked donors cannot create blood requests.")
		}
		if p.Name != "" {
			requesterName = p.Name
		}
	case !errors.Is(err, common.ErrNotFound):
		return "", err
	}

	record := domain.BloodRequest{
		RequesterName:  requesterName,
		RequesterEmail: identity.Email,
		RecipientName:  strings.TrimSpace(req.RecipientName),
		BloodGroup:     req.BloodGroup,
		Hospital:       strings.TrimSpace(req.Hospital),
		Address:        strings.TrimSpace(req.Address),
		District:       req.District,
		Upazila:        req.Upazila,
		DonationDate:   req.DonationDate,
		DonationTime:   req.DonationTime,
		Message:        req.Message,
		Status:         domain.StatusPending,
	}
	id, err := s.store.Create(ctx, record)
	if err != nil {
		s.logger.Error("Failed to create blood request", zap.String("requester", identity.Email), zap.Error(err))
		return "", err
	}
	return id, nil
}

// Get returns a request with the actions the actor may take on it.
func (s *ServiceImplementation) Get(ctx context.Context, actor domain.Role, id string) (*Detail, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	detail := &Detail{
		Request:            *rec,
		AllowedTransitions: []domain.Status{},
		CanEdit:            s.engine.CanEditFields(actor, lifecycle.BloodRequest),
		CanDelete:          s.engine.CanDelete(actor, lifecycle.BloodRequest),
	}
	if s.engine.CanTransition(actor, lifecycle.BloodRequest) {
		detail.AllowedTransitions = s.engine.AllowedTransitions(rec.Status, lifecycle.BloodRequest)
	}
	return detail, nil
}

// ListPending lists open requests for the public requests page. The filter is fixed.
func (s *ServiceImplementation) ListPending(ctx context.Context, ctrl requeststore.Controls) (Listing, error) {
	ctrl.Status = nil
	return s.list(ctx, nil, s.pendingView, ctrl)
}

// ListMine lists the requests filed by email.
func (s *ServiceImplementation) ListMine(ctx context.Context, email string, ctrl requeststore.Controls) (Listing, error) {
	return s.list(ctx, url.Values{"email": {email}}, s.mineView, ctrl)
}

// ListAll lists every request.
func (s *ServiceImplementation) ListAll(ctx context.Context, ctrl requeststore.Controls) (Listing, error) {
	return s.list(ctx, nil, s.allView, ctrl)
}

func (s *ServiceImplementation) list(ctx context.Context, query url.Values, view *requeststore.View, ctrl requeststore.Controls) (Listing, error) {
	records, err := s.store.Load(ctx, query)
	if err != nil {
		return Listing{}, err
	}
	view.Update(ctrl)
	return requeststore.Apply(view, records), nil
}

// Recent returns the latest requests of email, as chosen by the backend.
func (s *ServiceImplementation) Recent(ctx context.Context, email string, limit int) ([]domain.BloodRequest, error) {
	records, err := s.store.Load(ctx, url.Values{"email": {email}, "limit": {strconv.Itoa(limit)}})
	if err != nil {
		return nil, err
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Counts totals every request by status.
func (s *ServiceImplementation) Counts(ctx context.Context) (requeststore.StatusCounts, error) {
	records, err := s.store.Load(ctx, nil)
	if err != nil {
		return nil, err
	}
	return requeststore.CountByStatus(records), nil
}

// UpdateStatus moves a request along the lifecycle.
func (s *ServiceImplementation) UpdateStatus(ctx context.Context, actor domain.Role, id string, status domain.Status) (*domain.BloodRequest, error) {
	return s.store.Mutate(ctx, actor, id, lifecycle.StatusPatch{Status: status})
}

// Update applies a full-record edit.
func (s *ServiceImplementation) Update(ctx context.Context, actor domain.Role, id string, req UpdateRequest) (*domain.BloodRequest, error) {
	return s.store.Mutate(ctx, actor, id, req)
}

// Delete removes a request once the user has confirmed.
func (s *ServiceImplementation) Delete(ctx context.Context, actor domain.Role, id string, confirmed bool) error {
	if !confirmed {
		return common.ErrConfirmationRequired
	}
	return s.store.Delete(ctx, actor, requeststore.Confirm(id))
}

func notFound(err error, id string) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
		return common.ErrNotFound.WithDetails("Blood request " + id + " does not exist.")
	}
	return err
}
