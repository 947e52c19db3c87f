package navigation

import (
	"context"
	"net/url"
	"sync"

	"go.uber.org/zap"
)

// SignInPath is the route of the sign-in view.
const SignInPath = "/login"

// Location is a navigation target. From carries the originally requested location so the
// sign-in view can send the user back after login.
type Location struct {
	Path string `json:"path"`
	From string `json:"from,omitempty"`
}

// SignIn builds the sign-in target preserving from.
func SignIn(from string) Location {
	return Location{Path: SignInPath, From: from}
}

// URL renders the location as a path with a from query parameter.
func (l Location) URL() string {
	if l.From == "" {
		return l.Path
	}
	return l.Path + "?from=" + url.QueryEscape(l.From)
}

// Navigator moves the caller to another view.
type Navigator interface {
	Navigate(to Location)
}

// Tracker is the process-wide Navigator. It remembers the last target until it is consumed.
type Tracker struct {
	mu      sync.Mutex
	current *Location
	logger  *zap.Logger
}

// NewTracker creates a Tracker.
func NewTracker(logger *zap.Logger) *Tracker {
	return &Tracker{logger: logger.Named("Navigator")}
}

func (t *Tracker) Navigate(to Location) {
	t.mu.Lock()
	t.current = &to
	t.mu.Unlock()
	t.logger.Debug("Navigation requested", zap.String("path", to.Path), zap.String("from", to.From))
}

// Current returns the pending target, if any.
func (t *Tracker) Current() (Location, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Location{}, false
	}
	return *t.current, true
}

// Consume returns the pending target and clears it.
func (t *Tracker) Consume() (Location, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return Location{}, false
	}
	loc := *t.current
	t.current = nil
	return loc, true
}

type originKey struct{}

// WithOrigin records the view a request was made for, so a forced sign-in can return there.
func WithOrigin(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, originKey{}, path)
}

// Origin returns the view recorded by WithOrigin, or "".
func Origin(ctx context.Context) string {
	path, _ := ctx.Value(originKey{}).(string)
	return path
}
