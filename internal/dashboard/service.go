// File: internal/dashboard/service.go
package dashboard

import (
	"context"

	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/funding"
	"blood_donation_dashboard/internal/requeststore"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecentLimit is how many own requests a donor sees on the home screen.
const RecentLimit = 3

// Requests is the blood request side of the overview.
type Requests interface {
	Recent(ctx context.Context, email string, limit int) ([]domain.BloodRequest, error)
	Counts(ctx context.Context) (requeststore.StatusCounts, error)
}

// Donors counts donor accounts.
type Donors interface {
	Count(ctx context.Context) (int, error)
}

// Funding totals support donations.
type Funding interface {
	Summary(ctx context.Context) (funding.Summary, error)
}

// Stats is the staff overview.
type Stats struct {
	TotalDonors      int                       `json:"total_donors"`
	TotalRequests    int                       `json:"total_requests"`
	TotalFunding     float64                   `json:"total_funding"`
	RequestsByStatus requeststore.StatusCounts `json:"requests_by_status"`
}

// Overview is the dashboard home screen.
type Overview struct {
	Role           domain.Role           `json:"role"`
	RecentRequests []domain.BloodRequest `json:"recent_requests,omitempty"`
	Stats          *Stats                `json:"stats,omitempty"`
}

// Service builds the role overview.
type Service struct {
	requests Requests
	donors   Donors
	funding  Funding
	logger   *zap.Logger
}

// NewService creates the dashboard service.
func NewService(requests Requests, donors Donors, funding Funding, logger *zap.Logger) *Service {
	return &Service{requests: requests, donors: donors, funding: funding, logger: logger.Named("DashboardService")}
}

// Overview returns the donor's latest requests, or the staff totals for admins and volunteers.
func (s *Service) Overview(ctx context.Context, email string, role domain.Role) (*Overview, error) {
	if role != domain.RoleAdmin && role != domain.RoleVolunteer {
		recent, err := s.requests.Recent(ctx, email, RecentLimit)
		if err != nil {
			return nil, err
		}
		return &Overview{Role: role, RecentRequests: recent}, nil
	}

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.donors.Count(gctx)
		stats.TotalDonors = n
		return err
	})
	g.Go(func() error {
		counts, err := s.requests.Counts(gctx)
		if err != nil {
			return err
		}
		stats.RequestsByStatus = counts
		stats.TotalRequests = counts[domain.StatusAll]
		return nil
	})
	g.Go(func() error {
		sum, err := s.funding.Summary(gctx)
		stats.TotalFunding = sum.TotalPaid
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("Overview incomplete", zap.String("role", string(role)), zap.Error(err))
		return nil, err
	}
	return &Overview{Role: role, Stats: &stats}, nil
}
