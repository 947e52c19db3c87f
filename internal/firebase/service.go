package firebase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/domain"
)

// FirebaseService is the authentication provider. Password sign-in, sign-up and account
// updates go through the Identity Toolkit REST API with the web API key; ID-token
// verification uses the Admin SDK when a service account is configured.
type FirebaseService struct {
	toolkit    *identitytoolkit.Service
	authClient *auth.Client
	logger     *zap.Logger
	now        func() time.Time
}

// NewFirebaseService initializes the Identity Toolkit client and, if a service account key
// is configured, the Firebase Admin SDK.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	ctx := context.Background()
	logger = logger.Named("FirebaseService")

	toolkit, err := identitytoolkit.NewService(ctx, option.WithAPIKey(cfg.FirebaseAPIKey))
	if err != nil {
		logger.Error("Failed to create Identity Toolkit client", zap.Error(err))
		return nil, fmt.Errorf("error creating identity toolkit client: %w", err)
	}

	s := &FirebaseService{toolkit: toolkit, logger: logger, now: time.Now}

	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Info("No Firebase service account configured; ID tokens are checked by expiry only.")
		return s, nil
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(cleanPath))
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	s.authClient, err = app.Auth(ctx)
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return s, nil
}

// NewFirebaseServiceWithOptions builds a provider against an arbitrary Identity Toolkit
// endpoint. Token verification is disabled.
func NewFirebaseServiceWithOptions(ctx context.Context, logger *zap.Logger, opts ...option.ClientOption) (*FirebaseService, error) {
	toolkit, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating identity toolkit client: %w", err)
	}
	return &FirebaseService{toolkit: toolkit, logger: logger.Named("FirebaseService"), now: time.Now}, nil
}

// SignIn exchanges an email and password for an identity.
func (s *FirebaseService) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	resp, err := s.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, s.authError("sign in", err)
	}
	s.logger.Debug("Password sign-in succeeded", zap.String("email", resp.Email))
	return s.identity(resp.Email, resp.DisplayName, resp.PhotoUrl, resp.IdToken, resp.RefreshToken, resp.ExpiresIn), nil
}

// SignUp creates an account and returns its identity.
func (s *FirebaseService) SignUp(ctx context.Context, name, email, password, photoURL string) (*domain.Identity, error) {
	resp, err := s.toolkit.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:       email,
		Password:    password,
		DisplayName: name,
		PhotoUrl:    photoURL,
	}).Context(ctx).Do()
	if err != nil {
		return nil, s.authError("sign up", err)
	}
	displayName := resp.DisplayName
	if displayName == "" {
		displayName = name
	}
	s.logger.Info("Account created", zap.String("email", resp.Email))
	return s.identity(resp.Email, displayName, photoURL, resp.IdToken, resp.RefreshToken, resp.ExpiresIn), nil
}

// UpdateProfile sets the display name and photo of the account behind idToken.
func (s *FirebaseService) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*domain.Identity, error) {
	resp, err := s.toolkit.Relyingparty.SetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		IdToken:           idToken,
		DisplayName:       displayName,
		PhotoUrl:          photoURL,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, s.authError("update profile", err)
	}
	return s.identity(resp.Email, resp.DisplayName, resp.PhotoUrl, resp.IdToken, resp.RefreshToken, resp.ExpiresIn), nil
}

// VerifyToken checks a persisted ID token. Without a service account it only checks expiry.
func (s *FirebaseService) VerifyToken(ctx context.Context, idToken string) error {
	if idToken == "" {
		return fmt.Errorf("ID token must not be empty")
	}
	if s.authClient == nil {
		exp, err := TokenExpiry(idToken)
		if err != nil {
			return err
		}
		if !exp.IsZero() && !s.now().Before(exp) {
			return fmt.Errorf("ID token expired at %s", exp.Format(time.RFC3339))
		}
		return nil
	}
	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}
	s.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))
	return nil
}

func (s *FirebaseService) identity(email, displayName, photoURL, idToken, refreshToken string, expiresIn int64) *domain.Identity {
	id := &domain.Identity{
		Email:        strings.ToLower(email),
		DisplayName:  displayName,
		PhotoURL:     photoURL,
		AccessToken:  idToken,
		RefreshToken: refreshToken,
	}
	if expiresIn > 0 {
		id.ExpiresAt = s.now().Add(time.Duration(expiresIn) * time.Second)
	} else if exp, err := TokenExpiry(idToken); err == nil {
		id.ExpiresAt = exp
	}
	return id
}

// authError classifies provider failures. Any 4xx answer is a credential problem, everything
// else (transport failures, 5xx) is a network error.
func (s *FirebaseService) authError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code >= http.StatusBadRequest && gerr.Code < http.StatusInternalServerError {
		s.logger.Info("Auth provider rejected request", zap.String("op", op), zap.Int("code", gerr.Code), zap.String("reason", gerr.Message))
		return &common.AuthError{Kind: common.AuthInvalidCredentials, Err: err}
	}
	s.logger.Warn("Auth provider unreachable", zap.String("op", op), zap.Error(err))
	return &common.AuthError{Kind: common.AuthNetworkError, Err: err}
}
