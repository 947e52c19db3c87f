// File: internal/apiclient/client.go
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/navigation"
	"blood_donation_dashboard/internal/platform/metrics"

	"go.uber.org/zap"
)

// Credentials is the part of the session the client needs.
type Credentials interface {
	Current() *domain.Identity
	SignOut(ctx context.Context) error
}

// Client issues requests to the remote REST backend on behalf of the current identity.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	session     Credentials
	navigator   navigation.Navigator
	metrics     *metrics.Metrics
	logger      *zap.Logger
	readRetries int
}

// NewClient creates the backend client from configuration.
func NewClient(cfg *config.Config, session Credentials, navigator navigation.Navigator, m *metrics.Metrics, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.APIBaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     base,
		http:        &http.Client{Timeout: timeout},
		session:     session,
		navigator:   navigator,
		metrics:     m,
		logger:      logger.Named("ApiClient"),
		readRetries: cfg.APIReadRetries,
	}, nil
}

// Get issues a GET and decodes the JSON answer into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, query, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends one request. 401 and 403 sign the session out, move the caller to the sign-in
// view and fail with common.ErrUnauthorized. Other non-2xx answers fail with a remote
// *common.APIError. Only reads are retried, and only on transport errors and 5xx.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
	}

	attempts := 1
	if method == http.MethodGet && c.readRetries > 0 {
		attempts += c.readRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		retry, err := c.send(ctx, method, path, query, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		c.logger.Debug("Retrying read", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, out any) (retry bool, err error) {
	target := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return false, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// The credential is read at send time so a sign-out is never followed by a stale bearer.
	if identity := c.session.Current(); identity != nil && identity.AccessToken != "" {
		req.Header.Set(common.AuthorizationHeader, common.AuthorizationTypeBearer+" "+identity.AccessToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveAPI(method, path, 0, time.Since(start))
		c.logger.Warn("Backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return !errors.Is(err, context.Canceled), fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPI(method, path, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.Info("Backend rejected credential; signing out",
			zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
		if err := c.session.SignOut(ctx); err != nil {
			c.logger.Error("Sign-out after rejected credential failed", zap.Error(err))
		}
		c.navigator.Navigate(navigation.SignIn(navigation.Origin(ctx)))
		return false, fmt.Errorf("%s %s: %w", method, path, common.ErrUnauthorized)
	case resp.StatusCode >= 300:
		apiErr := common.NewRemoteError(resp.StatusCode, remoteMessage(raw))
		return resp.StatusCode >= 500, apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return false, nil
}

// remoteMessage picks the human-readable message out of an error body.
func remoteMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
