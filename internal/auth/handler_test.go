package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/navigation"
	"blood_donation_dashboard/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSessions is a mock implementation of Sessions.
type MockSessions struct {
	mock.Mock
	current *domain.Identity
}

func (m *MockSessions) Current() *domain.Identity { return m.current }

func (m *MockSessions) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	args := m.Called(ctx, email, password)
	identity, _ := args.Get(0).(*domain.Identity)
	if identity != nil {
		m.current = identity
	}
	return identity, args.Error(1)
}

func (m *MockSessions) Register(ctx context.Context, req session.RegisterRequest) (*domain.Identity, error) {
	args := m.Called(ctx, req)
	identity, _ := args.Get(0).(*domain.Identity)
	return identity, args.Error(1)
}

func (m *MockSessions) SignOut(ctx context.Context) error {
	m.current = nil
	return m.Called(ctx).Error(0)
}

type memPreferences struct{ theme session.Theme }

func (p *memPreferences) Theme() session.Theme { return p.theme }
func (p *memPreferences) SetTheme(_ context.Context, t session.Theme) error {
	p.theme = t
	return nil
}
func (p *memPreferences) ToggleTheme(_ context.Context) (session.Theme, error) {
	if p.theme == session.ThemeDark {
		p.theme = session.ThemeLight
	} else {
		p.theme = session.ThemeDark
	}
	return p.theme, nil
}

type envelope struct {
	Data map[string]any `json:"data"`
}

func setup(t *testing.T, sessions *MockSessions) (*gin.Engine, *navigation.Tracker, *memPreferences) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tracker := navigation.NewTracker(zap.NewNop())
	prefs := &memPreferences{theme: session.ThemeLight}
	h := NewHandler(sessions, prefs, tracker, zap.NewNop())

	r := gin.New()
	h.RegisterLoginView(r)
	h.RegisterRoutes(r.Group("/api/v1"), func(...domain.Role) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(common.UserRoleKey, domain.RoleVolunteer)
			c.Next()
		}
	})
	return r, tracker, prefs
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Data
}

func TestSignIn_ReturnsToOrigin(t *testing.T) {
	sessions := new(MockSessions)
	sessions.On("SignIn", mock.Anything, "ana@example.com", "secret").
		Return(&domain.Identity{Email: "ana@example.com", AccessToken: "tok"}, nil)
	r, tracker, _ := setup(t, sessions)
	tracker.Navigate(navigation.SignIn("/api/v1/dashboard/requests?page=2"))

	w := postJSON(r, "/api/v1/auth/sign-in", `{"email":"ana@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)
	assert.Equal(t, "/api/v1/dashboard/requests?page=2", data["redirect"])
	assert.NotContains(t, w.Body.String(), "tok")
	_, pending := tracker.Current()
	assert.False(t, pending)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	sessions := new(MockSessions)
	sessions.On("SignIn", mock.Anything, "ana@example.com", "wrong").
		Return(nil, &common.AuthError{Kind: common.AuthInvalidCredentials})
	r, _, _ := setup(t, sessions)

	w := postJSON(r, "/api/v1/auth/sign-in", `{"email":"ana@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignIn_RejectsExternalRedirect(t *testing.T) {
	sessions := new(MockSessions)
	sessions.On("SignIn", mock.Anything, mock.Anything, mock.Anything).Return(&domain.Identity{Email: "ana@example.com"}, nil)
	r, _, _ := setup(t, sessions)

	w := postJSON(r, "/api/v1/auth/sign-in", `{"email":"ana@example.com","password":"x","from":"//evil.example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, DefaultLanding, decode(t, w)["redirect"])
}

func TestRegister_Validation(t *testing.T) {
	r, _, _ := setup(t, new(MockSessions))
	w := postJSON(r, "/api/v1/auth/register", `{"name":"A","email":"not-an-email","password":"123"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestLoginView(t *testing.T) {
	sessions := new(MockSessions)
	r, tracker, _ := setup(t, sessions)
	tracker.Navigate(navigation.SignIn("/api/v1/profile"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	data := decode(t, w)
	assert.Equal(t, "/api/v1/profile", data["from"])
	assert.Equal(t, false, data["signed_in"])

	sessions.current = &domain.Identity{Email: "ana@example.com"}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login?from=/api/v1/dashboard", nil))
	data = decode(t, w)
	assert.Equal(t, true, data["signed_in"])
	assert.Equal(t, "/api/v1/dashboard", data["redirect"])
}

func TestSignOutAndMe(t *testing.T) {
	sessions := &MockSessions{current: &domain.Identity{Email: "ana@example.com", AccessToken: "tok"}}
	sessions.On("SignOut", mock.Anything).Return(nil)
	r, _, _ := setup(t, sessions)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "volunteer", decode(t, w)["role"])

	w = postJSON(r, "/api/v1/auth/sign-out", ``)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, navigation.SignInPath, decode(t, w)["redirect"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPreferences(t *testing.T) {
	r, _, prefs := setup(t, new(MockSessions))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/preferences", strings.NewReader(`{"theme":"dark"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session.ThemeDark, prefs.theme)

	w = postJSON(r, "/api/v1/preferences/theme/toggle", ``)
	assert.Equal(t, "light", decode(t, w)["theme"])

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/api/v1/preferences", strings.NewReader(`{"theme":"sepia"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
