// File: internal/donor/service.go
package donor

import (
	"context"
	"net/url"
	"slices"
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

const collectionPath = "/donors"

// Store is the list store of donor accounts.
type Store = requeststore.Store[domain.DonorProfile]

// Listing is one rendered page of donor accounts.
type Listing = requeststore.Listing[domain.DonorProfile]

// NewStore creates the donor account store.
func NewStore(api requeststore.API, engine *lifecycle.Engine, cache *requeststore.Cache, m *metrics.Metrics, logger *zap.Logger) *Store {
	return requeststore.New[domain.DonorProfile](requeststore.Options{
		Collection: "donors",
		Path:       collectionPath,
		RecordType: lifecycle.DonorAccount,
	}, api, engine, cache, m, logger)
}

// Patcher sends the role and status writes, which live outside the record path.
type Patcher interface {
	Patch(ctx context.Context, path string, query url.Values, body, out any) error
}

// Refresher drops the cached profile of the signed-in user.
type Refresher interface {
	Refresh()
}

// Forgetter drops the cached role of the signed-in user.
type Forgetter interface {
	Forget()
}

// Subscriber reports account changes.
type Subscriber interface {
	Subscribe(l session.Listener) (unsubscribe func())
}

// Service defines the interface for donor account operations.
type Service interface {
	Search(ctx context.Context, q SearchQuery) ([]domain.DonorProfile, error)
	ListUsers(ctx context.Context, ctrl requeststore.Controls) (Listing, error)
	Count(ctx context.Context) (int, error)
	SetStatus(ctx context.Context, actor Actor, email string, status domain.Status) (*domain.DonorProfile, error)
	SetRole(ctx context.Context, actor Actor, email string, role domain.Role) (*domain.DonorProfile, error)
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	store   *Store
	api     Patcher
	engine  *lifecycle.Engine
	profile Refresher
	gate    Forgetter
	logger  *zap.Logger

	usersView *requeststore.View
}

// NewService creates a new donor service.
func NewService(store *Store, api Patcher, engine *lifecycle.Engine, profile Refresher, gate Forgetter, accounts Subscriber, cfg *config.Config, logger *zap.Logger) *ServiceImplementation {
	s := &ServiceImplementation{
		store:     store,
		api:       api,
		engine:    engine,
		profile:   profile,
		gate:      gate,
		logger:    logger.Named("DonorService"),
		usersView: requeststore.NewView(cfg.DefaultPageSize),
	}
	accounts.Subscribe(requeststore.NewAccountViews(s.usersView).OnIdentityChange)
	return s
}

// NormalizeBloodGroup restores a "+" that was decoded to a space in a query string.
func NormalizeBloodGroup(raw string) string {
	g := strings.ToUpper(strings.TrimSpace(raw))
	if strings.HasSuffix(raw, " ") && !strings.HasSuffix(g, "+") && !strings.HasSuffix(g, "-") {
		g += "+"
	}
	return g
}

// Search finds active donors. The backend filters; blocked accounts are dropped here.
func (s *ServiceImplementation) Search(ctx context.Context, q SearchQuery) ([]domain.DonorProfile, error) {
	query := url.Values{}
	if q.BloodGroup != "" {
		group := NormalizeBloodGroup(q.BloodGroup)
		if !slices.Contains(domain.BloodGroups, group) {
			return nil, common.NewValidationAPIError(map[string]string{"BloodGroup": "The blood_group field must be one of the following values: " + strings.Join(domain.BloodGroups, " ") + "."})
		}
		query.Set("blood_group", group)
	}
	if q.District != "" {
		query.Set("district", strings.TrimSpace(q.District))
	}
	if q.Upazila != "" {
		query.Set("upazila", strings.TrimSpace(q.Upazila))
	}

	donors, err := s.store.Load(ctx, query)
	if err != nil {
		return nil, err
	}
	out := donors[:0]
	for _, d := range donors {
		if d.GetStatus() != domain.StatusBlocked {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListUsers is the admin view of every account.
func (s *ServiceImplementation) ListUsers(ctx context.Context, ctrl requeststore.Controls) (Listing, error) {
	donors, err := s.store.Load(ctx, nil)
	if err != nil {
		return Listing{}, err
	}
	s.usersView.Update(ctrl)
	return requeststore.Apply(s.usersView, donors), nil
}

// Count returns the number of accounts.
func (s *ServiceImplementation) Count(ctx context.Context) (int, error) {
	donors, err := s.store.Load(ctx, nil)
	if err != nil {
		return 0, err
	}
	return len(donors), nil
}

// SetStatus blocks or unblocks an account.
func (s *ServiceImplementation) SetStatus(ctx context.Context, actor Actor, email string, status domain.Status) (*domain.DonorProfile, error) {
	if !s.engine.CanTransition(actor.Role, lifecycle.DonorAccount) {
		return nil, &common.TransitionError{RecordType: string(lifecycle.DonorAccount), Role: string(actor.Role), To: string(status), Reason: "role may not change status"}
	}
	target, err := s.find(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Transition(actor.Role, lifecycle.DonorAccount, target.GetStatus(), status); err != nil {
		return nil, err
	}
	if err := s.api.Patch(ctx, "/donors/status/"+url.PathEscape(target.Email), nil, map[string]domain.Status{"status": status}, nil); err != nil {
		return nil, &common.MutationError{Op: "patch", RecordID: target.Email, Err: err}
	}
	s.afterWrite(actor, target.Email)
	s.logger.Info("Donor status changed", zap.String("email", target.Email), zap.String("status", string(status)))

	target.Status = status
	return target, nil
}

// SetRole promotes or demotes an account.
func (s *ServiceImplementation) SetRole(ctx context.Context, actor Actor, email string, role domain.Role) (*domain.DonorProfile, error) {
	target, err := s.find(ctx, email)
	if err != nil {
		return nil, err
	}
	from := domain.ParseRole(string(target.Role))
	if !s.engine.CanChangeRole(actor.Role, from, role) {
		if actor.Role != domain.RoleAdmin {
			return nil, common.ErrForbidden.WithDetails("Only an admin may change roles.")
		}
		return nil, common.ErrBadRequest.WithDetails("The account already has role " + string(from) + ".")
	}
	if err := s.api.Patch(ctx, "/donors/role/"+url.PathEscape(target.Email), nil, map[string]domain.Role{"role": role}, nil); err != nil {
		return nil, &common.MutationError{Op: "patch", RecordID: target.Email, Err: err}
	}
	s.afterWrite(actor, target.Email)
	s.logger.Info("Donor role changed", zap.String("email", target.Email), zap.String("from", string(from)), zap.String("to", string(role)))

	target.Role = role
	return target, nil
}

func (s *ServiceImplementation) find(ctx context.Context, email string) (*domain.DonorProfile, error) {
	for d, err := range s.store.Records(ctx, nil) {
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(d.Email, email) {
			return &d, nil
		}
	}
	return nil, common.ErrNotFound.WithDetails("No donor account for " + email + ".")
}

// afterWrite invalidates the account list. A change to the actor's own account also
// drops the cached profile and role.
func (s *ServiceImplementation) afterWrite(actor Actor, email string) {
	s.store.Invalidate()
	if strings.EqualFold(actor.Email, email) {
		s.profile.Refresh()
		s.gate.Forget()
	}
}
