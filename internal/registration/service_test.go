package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

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

func (m *MockAPI) Get(ctx context.Context, path string, query url.Values, out any) error {
	args := m.Called(ctx, path, query, out)
	if fill, ok := args.Get(1).(func(any)); ok {
		fill(out)
	}
	return args.Error(0)
}

func (m *MockAPI) Post(ctx context.Context, path string, body, out any) error {
	args := m.Called(ctx, path, body, out)
	if fill, ok := args.Get(1).(func(any)); ok {
		fill(out)
	}
	return args.Error(0)
}

func (m *MockAPI) Patch(ctx context.Context, path string, query url.Values, body, out any) error {
	args := m.Called(ctx, path, query, body, out)
	return args.Error(0)
}

func (m *MockAPI) Delete(ctx context.Context, path string, out any) error {
	args := m.Called(ctx, path, out)
	return args.Error(0)
}

func fillWith(v any) func(any) {
	return func(out any) {
		raw, _ := json.Marshal(v)
		_ = json.Unmarshal(raw, out)
	}
}

type staticIdentity struct {
	mu       sync.Mutex
	identity *domain.Identity
}

func (s *staticIdentity) Current() *domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *staticIdentity) Subscribe(session.Listener) func() { return func() {} }

func newTestService(api *MockAPI, identity *domain.Identity) *ServiceImplementation {
	cfg := &config.Config{DefaultPageSize: 2}
	engine := lifecycle.NewEngine()
	store := NewStore(api, engine, requeststore.NewCache(cfg), nil, zap.NewNop())
	svc := NewService(store, engine, &staticIdentity{identity: identity}, cfg, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC) }
	return svc
}

func registrations() []domain.DonationRegistration {
	return []domain.DonationRegistration{
		{ID: "a1", Email: "ana@example.com", FullName: "Ana", Status: domain.StatusPending},
		{ID: "b1", Email: "bo@example.com", FullName: "Bo", Status: domain.StatusApproved},
		{ID: "a2", Email: "ANA@example.com", FullName: "Ana", Status: domain.StatusRejected},
		{ID: "c1", Email: "cy@example.com", FullName: "Cy", Status: domain.StatusPending},
	}
}

func validRequest() CreateRequest {
	return CreateRequest{
		FullName:          "Ana Rahman",
		Phone:             "+8801700000000",
		Address:           "Mirpur 10",
		BloodGroup:        "A+",
		Weight:            58,
		DOB:               "2000-10-16",
		HealthDeclaration: true,
	}
}

func TestCreate_UsesSessionEmail(t *testing.T) {
	api := new(MockAPI)
	api.On("Post", mock.Anything, collectionPath, mock.MatchedBy(func(body any) bool {
		rec, ok := body.(domain.DonationRegistration)
		return ok && rec.Email == "ana@example.com" && rec.Status == domain.StatusPending
	}), mock.Anything).Return(nil, fillWith(map[string]string{"insertedId": "new-1"}))

	svc := newTestService(api, &domain.Identity{Email: "ana@example.com"})
	id, err := svc.Create(context.Background(), validRequest())

	require.NoError(t, err)
	assert.Equal(t, "new-1", id)
	api.AssertExpectations(t)
}

func TestCreate_UnderageIsRejectedLocally(t *testing.T) {
	api := new(MockAPI)
	svc := newTestService(api, &domain.Identity{Email: "ana@example.com"})

	req := validRequest()
	req.DOB = "2008-10-17"
	_, err := svc.Create(context.Background(), req)

	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	api.AssertNotCalled(t, "Post", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAge_Birthday(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 18, age(time.Date(2008, 10, 16, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 17, age(time.Date(2008, 10, 17, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 18, age(time.Date(2008, 2, 29, 0, 0, 0, 0, time.UTC), now))
}

func TestListMine_FiltersCaseInsensitively(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, collectionPath, url.Values(nil), mock.Anything).Return(nil, fillWith(registrations())).Once()

	svc := newTestService(api, &domain.Identity{Email: "ana@example.com"})
	listing, err := svc.ListMine(context.Background(), "ana@example.com", requeststore.Controls{})
	require.NoError(t, err)

	assert.Equal(t, 2, listing.Counts[domain.StatusAll])
	assert.Len(t, listing.Items, 2)

	// Served from the cache.
	all, err := svc.ListAll(context.Background(), requeststore.Controls{})
	require.NoError(t, err)
	assert.Equal(t, 4, all.Counts[domain.StatusAll])
	assert.Equal(t, 2, all.Page.TotalPages)
	api.AssertExpectations(t)
}

func TestUpdateStatus_ApprovedIsTerminal(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, collectionPath, url.Values(nil), mock.Anything).Return(nil, fillWith(registrations())).Once()

	svc := newTestService(api, nil)
	_, err := svc.ListAll(context.Background(), requeststore.Controls{})
	require.NoError(t, err)

	api.On("Get", mock.Anything, collectionPath+"/b1", url.Values(nil), mock.Anything).
		Return(nil, fillWith(registrations()[1])).Once()
	_, err = svc.UpdateStatus(context.Background(), domain.RoleAdmin, "b1", domain.StatusRejected)
	assert.ErrorIs(t, err, common.ErrInvalidTransition)
	api.AssertNotCalled(t, "Patch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_VolunteerApproves(t *testing.T) {
	api := new(MockAPI)
	api.On("Get", mock.Anything, collectionPath+"/c1", url.Values(nil), mock.Anything).
		Return(nil, fillWith(registrations()[3])).Once()
	api.On("Patch", mock.Anything, collectionPath+"/c1", url.Values(nil), lifecycle.StatusPatch{Status: domain.StatusApproved}, nil).
		Return(nil).Once()
	approved := registrations()[3]
	approved.Status = domain.StatusApproved
	api.On("Get", mock.Anything, collectionPath+"/c1", url.Values(nil), mock.Anything).
		Return(nil, fillWith(approved)).Once()

	svc := newTestService(api, nil)
	updated, err := svc.UpdateStatus(context.Background(), domain.RoleVolunteer, "c1", domain.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, updated.Status)
	api.AssertExpectations(t)
}

func TestDelete_RemoteFailureIsMutationError(t *testing.T) {
	api := new(MockAPI)
	api.On("Delete", mock.Anything, collectionPath+"/a1", nil).Return(common.NewRemoteError(http.StatusInternalServerError, "db down"))

	svc := newTestService(api, nil)
	err := svc.Delete(context.Background(), domain.RoleAdmin, "a1", true)

	var mErr *common.MutationError
	require.ErrorAs(t, err, &mErr)
	assert.Equal(t, "a1", mErr.RecordID)
}

func TestHandler_CreateRequiresHealthDeclaration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	api := new(MockAPI)
	svc := newTestService(api, &domain.Identity{Email: "ana@example.com"})
	r := gin.New()
	pass := func(...domain.Role) gin.HandlerFunc { return func(c *gin.Context) { c.Next() } }
	NewHandler(svc, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"), pass)

	body, _ := json.Marshal(map[string]any{
		"fullName": "Ana", "phone": "0170000000", "address": "Mirpur", "bloodGroup": "A+",
		"weight": 60, "dob": "2000-01-01", "healthDeclaration": false,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/registrations", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("%q", "HealthDeclaration"))
}
