package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/navigation"
	"blood_donation_dashboard/internal/platform/metrics"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSession struct {
	identity *domain.Identity
	signOuts int
	err      error
}

func (f *fakeSession) Current() *domain.Identity { return f.identity }

func (f *fakeSession) SignOut(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.signOuts++
	f.identity = nil
	return nil
}

var now = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newJob(sess *fakeSession) (*SessionExpiryJob, *navigation.Tracker, *metrics.Metrics) {
	tracker := navigation.NewTracker(zap.NewNop())
	m := metrics.New()
	job := NewSessionExpiryJob(sess, tracker, m, zap.NewNop(), &config.Config{SessionExpiryJobSchedule: "@every 1m"})
	job.now = func() time.Time { return now }
	return job, tracker, m
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "ana@example.com",
		"exp":   exp.Unix(),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

func TestCheck_ExpiredIdentitySignsOut(t *testing.T) {
	sess := &fakeSession{identity: &domain.Identity{Email: "ana@example.com", ExpiresAt: now.Add(-time.Second)}}
	job, tracker, m := newJob(sess)

	expired, err := job.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, expired)
	assert.Equal(t, 1, sess.signOuts)

	loc, ok := tracker.Current()
	require.True(t, ok)
	assert.Equal(t, navigation.SignInPath, loc.Path)
	expected := `
# HELP dashboard_session_events_total Session lifecycle events
# TYPE dashboard_session_events_total counter
dashboard_session_events_total{event="expired"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "dashboard_session_events_total"))
}

func TestCheck_FallsBackToTokenClaim(t *testing.T) {
	sess := &fakeSession{identity: &domain.Identity{Email: "ana@example.com", AccessToken: signedToken(t, now.Add(-time.Minute))}}
	job, _, _ := newJob(sess)

	expired, err := job.Check(context.Background())
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestCheck_ValidSessionUntouched(t *testing.T) {
	sess := &fakeSession{identity: &domain.Identity{Email: "ana@example.com", AccessToken: signedToken(t, now.Add(time.Hour))}}
	job, tracker, _ := newJob(sess)

	expired, err := job.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Zero(t, sess.signOuts)
	_, ok := tracker.Current()
	assert.False(t, ok)
}

func TestCheck_UnreadableTokenIsSkipped(t *testing.T) {
	sess := &fakeSession{identity: &domain.Identity{Email: "ana@example.com", AccessToken: "opaque"}}
	job, _, _ := newJob(sess)

	expired, err := job.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestCheck_SignedOutIsNoop(t *testing.T) {
	job, _, _ := newJob(&fakeSession{})
	expired, err := job.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestCheck_SignOutFailure(t *testing.T) {
	boom := errors.New("store locked")
	sess := &fakeSession{identity: &domain.Identity{ExpiresAt: now.Add(-time.Hour)}, err: boom}
	job, tracker, _ := newJob(sess)

	_, err := job.Check(context.Background())
	assert.ErrorIs(t, err, boom)
	_, ok := tracker.Current()
	assert.False(t, ok)
}

func TestSetupAndStart(t *testing.T) {
	job, _, _ := newJob(&fakeSession{})
	require.NoError(t, job.SetupAndStart())
	job.Stop()

	bad := NewSessionExpiryJob(&fakeSession{}, navigation.NewTracker(zap.NewNop()), nil, zap.NewNop(), &config.Config{SessionExpiryJobSchedule: "every now and then"})
	assert.Error(t, bad.SetupAndStart())

	none := NewSessionExpiryJob(&fakeSession{}, navigation.NewTracker(zap.NewNop()), nil, zap.NewNop(), &config.Config{})
	assert.NoError(t, none.SetupAndStart())
}

func TestCronLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cl := NewCronLogger(zap.New(core))

	cl.Info("wake", "now", "t", "dangling")
	cl.Error(errors.New("panic"), "job failed", "entry", 1)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "MISSING_VALUE", entries[0].ContextMap()["dangling"])
	assert.Equal(t, "panic", entries[1].ContextMap()["error"])
}
