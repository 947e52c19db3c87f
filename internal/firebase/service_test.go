package firebase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blood_donation_dashboard/internal/common"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *FirebaseService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewFirebaseServiceWithOptions(context.Background(), zap.NewNop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithAPIKey("test-key"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return s
}

func TestSignIn_Success(t *testing.T) {
	s := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "verifyPassword"), r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Rahim@Example.com", body["email"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"Rahim@Example.com","displayName":"Rahim","idToken":"tok","refreshToken":"ref","expiresIn":"3600"}`))
	})
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	id, err := s.SignIn(context.Background(), "Rahim@Example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "rahim@example.com", id.Email)
	assert.Equal(t, "Rahim", id.DisplayName)
	assert.Equal(t, "tok", id.AccessToken)
	assert.Equal(t, fixed.Add(time.Hour), id.ExpiresAt)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	s := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_LOGIN_CREDENTIALS"}}`))
	})

	_, err := s.SignIn(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.True(t, common.IsAuthError(err, common.AuthInvalidCredentials))
}

func TestSignIn_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	s, err := NewFirebaseServiceWithOptions(context.Background(), zap.NewNop(),
		option.WithEndpoint(url+"/"), option.WithAPIKey("k"), option.WithHTTPClient(http.DefaultClient))
	require.NoError(t, err)

	_, err = s.SignIn(context.Background(), "a@b.c", "pw")
	require.Error(t, err)
	assert.True(t, common.IsAuthError(err, common.AuthNetworkError))
}

func TestTokenExpiryAndEmail(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signedToken(t, jwt.MapClaims{"exp": exp.Unix(), "email": "donor@example.com"})

	got, err := TokenExpiry(tok)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	email, err := TokenEmail(tok)
	require.NoError(t, err)
	assert.Equal(t, "donor@example.com", email)

	_, err = TokenExpiry("not-a-jwt")
	assert.Error(t, err)
}

func TestVerifyToken_ExpiryOnlyMode(t *testing.T) {
	s := &FirebaseService{logger: zap.NewNop(), now: time.Now}

	assert.NoError(t, s.VerifyToken(context.Background(), signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})))
	assert.Error(t, s.VerifyToken(context.Background(), signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})))
	assert.Error(t, s.VerifyToken(context.Background(), ""))
}
