package funding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/lifecycle"
	"blood_donation_dashboard/internal/requeststore"
	"blood_donation_dashboard/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockAPI is a mock implementation of requeststore.API.
type MockAPI struct {
	mock.Mock
}

func decodeInto(v, out any) {
	raw, _ := json.Marshal(v)
	_ = json.Unmarshal(raw, out)
}

func (m *MockAPI) Get(ctx context.Context, path string, query url.Values, out any) error {
	args := m.Called(ctx, path, query, out)
	if v := args.Get(1); v != nil {
		decodeInto(v, out)
	}
	return args.Error(0)
}

func (m *MockAPI) Post(ctx context.Context, path string, body, out any) error {
	args := m.Called(ctx, path, body, out)
	if v := args.Get(1); v != nil {
		decodeInto(v, out)
	}
	return args.Error(0)
}

func (m *MockAPI) Patch(ctx context.Context, path string, query url.Values, body, out any) error {
	return m.Called(ctx, path, query, body, out).Error(0)
}

func (m *MockAPI) Delete(ctx context.Context, path string, out any) error {
	return m.Called(ctx, path, out).Error(0)
}

type identityFunc func() *domain.Identity

func (f identityFunc) Current() *domain.Identity { return f() }

func (f identityFunc) Subscribe(session.Listener) func() { return func() {} }

func newTestService(api *MockAPI, identity *domain.Identity) *ServiceImplementation {
	cfg := &config.Config{DefaultPageSize: 10}
	store := NewStore(api, lifecycle.NewEngine(), requeststore.NewCache(cfg), nil, zap.NewNop())
	svc := NewService(store, api, identityFunc(func() *domain.Identity { return identity }), cfg, zap.NewNop())
	svc.newID = func() string { return "0b5d" }
	return svc
}

func ledger() []domain.SupportDonation {
	return []domain.SupportDonation{
		{ID: "d1", Name: "Ana", Amount: 500, PaymentStatus: domain.StatusPaid},
		{ID: "d2", Name: "Bo", Amount: 250, PaymentStatus: domain.StatusPending},
		{ID: "d3", Name: "Cy", Amount: 1000, PaymentStatus: domain.StatusPaid},
	}
}

func TestSummary_SumsPaidOnly(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, collectionPath, url.Values(nil), mock.Anything).Return(nil, ledger()).Once()

	svc := newTestService(api, nil)
	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Count)
	assert.InDelta(t, 1500.0, sum.TotalPaid, 0.001)

	paid := domain.StatusPaid
	listing, err := svc.List(context.Background(), requeststore.Controls{Status: &paid})
	require.NoError(t, err)
	assert.Len(t, listing.Items, 2)
	api.AssertExpectations(t)
}

func TestCheckout_SendsTrackingID(t *testing.T) {
	api := new(MockAPI)
	api.On("Post", mock.Anything, checkoutPath, checkoutBody{
		Name:               "Ana Rahman",
		Email:              "ana@example.com",
		Amount:             300,
		DonationTrackingID: "ana-rahman-0b5d",
	}, mock.Anything).Return(nil, map[string]string{"url": "https://pay.example.com/s/1"})

	svc := newTestService(api, &domain.Identity{Email: "ana@example.com", DisplayName: "Ana Rahman"})
	checkout, err := svc.Checkout(context.Background(), CheckoutRequest{Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/s/1", checkout.URL)
	assert.Equal(t, "ana-rahman-0b5d", checkout.TrackingID)
	api.AssertExpectations(t)
}

func TestCheckout_NameFallsBackToEmail(t *testing.T) {
	api := new(MockAPI)
	api.On("Post", mock.Anything, checkoutPath, mock.MatchedBy(func(b checkoutBody) bool {
		return b.Name == "bo" && b.DonationTrackingID == "bo-0b5d"
	}), mock.Anything).Return(nil, map[string]string{})

	svc := newTestService(api, &domain.Identity{Email: "bo@example.com"})
	_, err := svc.Checkout(context.Background(), CheckoutRequest{Amount: 10})
	assert.ErrorIs(t, err, common.ErrBadGateway)
}

func TestConfirmPayment_InvalidatesLedger(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, collectionPath, url.Values(nil), mock.Anything).Return(nil, ledger()).Twice()
	api.On("Patch", mock.Anything, paymentDonePath, url.Values{"session_id": {"cs_1"}}, nil, nil).Return(nil).Once()

	svc := newTestService(api, nil)
	_, err := svc.Summary(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmPayment(context.Background(), " cs_1 "))
	_, err = svc.Summary(context.Background())
	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestConfirmPayment_RequiresSessionID(t *testing.T) {
	svc := newTestService(new(MockAPI), nil)
	assert.ErrorIs(t, svc.ConfirmPayment(context.Background(), ""), common.ErrBadRequest)
}

func TestHandler_CheckoutValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(new(MockAPI), &domain.Identity{Email: "ana@example.com"})
	r := gin.New()
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"), func(...domain.Role) gin.HandlerFunc {
		return func(c *gin.Context) { c.Next() }
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/funding/checkout", nil)
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
