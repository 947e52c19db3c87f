// File: internal/funding/service.go
package funding

import (
	"context"
	"net/url"
	"strings"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/lifecycle"
	"blood_donation_dashboard/internal/platform/metrics"
	"blood_donation_dashboard/internal/requeststore"
	"blood_donation_dashboard/internal/session"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

const (
	collectionPath  = "/donations"
	checkoutPath    = "/create-checkout-session"
	paymentDonePath = "/payment-success"
)

// Store is the list store of support donations.
type Store = requeststore.Store[domain.SupportDonation]

// Listing is one rendered page of support donations.
type Listing = requeststore.Listing[domain.SupportDonation]

// NewStore creates the support donation store.
func NewStore(api requeststore.API, engine *lifecycle.Engine, cache *requeststore.Cache, m *metrics.Metrics, logger *zap.Logger) *Store {
	return requeststore.New[domain.SupportDonation](requeststore.Options{
		Collection: "donations",
		Path:       collectionPath,
		RecordType: lifecycle.SupportDonation,
	}, api, engine, cache, m, logger)
}

// Identities exposes the signed-in identity.
type Identities interface {
	Current() *domain.Identity
	Subscribe(l session.Listener) (unsubscribe func())
}

// Service defines the interface for support donation operations.
type Service interface {
	List(ctx context.Context, ctrl requeststore.Controls) (Listing, error)
	Summary(ctx context.Context) (Summary, error)
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	ConfirmPayment(ctx context.Context, sessionID string) error
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	store   *Store
	api     requeststore.API
	session Identities
	logger  *zap.Logger
	newID   func() string

	view *requeststore.View
}

// NewService creates a new funding service.
func NewService(store *Store, api requeststore.API, identities Identities, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	s := &ServiceImplementation{
		store:   store,
		api:     api,
		session: identities,
		logger:  logger.Named("FundingService"),
		newID:   uuid.NewString,
		view:    requeststore.NewView(cfg.DefaultPageSize),
	}
	identities.Subscribe(requeststore.NewAccountViews(s.view).OnIdentityChange)
	return s
}

// List pages through the donation ledger.
func (s *ServiceImplementation) List(ctx context.Context, ctrl requeststore.Controls) (Listing, error) {
	donations, err := s.store.Load(ctx, nil)
	if err != nil {
		return Listing{}, err
	}
	s.view.Update(ctrl)
	return requeststore.Apply(s.view, donations), nil
}

// Summary totals the paid donations.
func (s *ServiceImplementation) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	for d, err := range s.store.Records(ctx, nil) {
		if err != nil {
			return Summary{}, err
		}
		sum.Count++
		if d.PaymentStatus == domain.StatusPaid {
			sum.TotalPaid += d.Amount
		}
	}
	return sum, nil
}

// Checkout opens a payment session for the signed-in user.
func (s *ServiceImplementation) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	identity := s.session.Current()
	if identity == nil {
		return nil, common.ErrUnauthorized
	}
	name := identity.DisplayName
	if strings.TrimSpace(name) == "" {
		name, _, _ = strings.Cut(identity.Email, "@")
	}

	body := checkoutBody{
		Name:               name,
		Email:              identity.Email,
		Amount:             req.Amount,
		DonationTrackingID: trackingID(name, s.newID()),
	}
	var resp struct {
		URL string `json:"url"`
	}
	if err := s.api.Post(ctx, checkoutPath, body, &resp); err != nil {
		s.logger.Error("Checkout session not created", zap.String("tracking_id", body.DonationTrackingID), zap.Error(err))
		return nil, err
	}
	if resp.URL == "" {
		return nil, common.ErrBadGateway.WithDetails("The payment provider returned no checkout URL.")
	}
	s.logger.Info("Checkout session created", zap.String("tracking_id", body.DonationTrackingID), zap.Float64("amount", req.Amount))
	return &CheckoutSession{URL: resp.URL, TrackingID: body.DonationTrackingID}, nil
}

// ConfirmPayment records a completed checkout and invalidates the ledger.
func (s *ServiceImplementation) ConfirmPayment(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return common.ErrBadRequest.WithDetails("session_id is required.")
	}
	if err := s.api.Patch(ctx, paymentDonePath, url.Values{"session_id": {sessionID}}, nil, nil); err != nil {
		return &common.MutationError{Op: "patch", RecordID: sessionID, Err: err}
	}
	s.store.Invalidate()
	return nil
}

func trackingID(name, id string) string {
	prefix := slug.Make(name)
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
