// File: internal/jobs/session_expiry.go
package jobs

import (
	"context"
	"time"

	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/domain"
	"blood_donation_dashboard/internal/firebase"
	"blood_donation_dashboard/internal/navigation"
	"blood_donation_dashboard/internal/platform/metrics"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sessions is the part of the session the expiry job needs.
type Sessions interface {
	Current() *domain.Identity
	SignOut(ctx context.Context) error
}

// SessionExpiryJob signs the session out once its access token has expired.
type SessionExpiryJob struct {
	session       Sessions
	navigator     navigation.Navigator
	metrics       *metrics.Metrics
	logger        *zap.Logger
	cfg           *config.Config
	cronScheduler *cron.Cron
	now           func() time.Time
}

// NewSessionExpiryJob creates a new SessionExpiryJob.
func NewSessionExpiryJob(
	session Sessions,
	navigator navigation.Navigator,
	m *metrics.Metrics,
	logger *zap.Logger,
	cfg *config.Config,
) *SessionExpiryJob {
	cl := NewCronLogger(logger.Named("cron"))
	scheduler := cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl)))

	return &SessionExpiryJob{
		session:       session,
		navigator:     navigator,
		metrics:       m,
		logger:        logger.Named("SessionExpiryJob"),
		cfg:           cfg,
		cronScheduler: scheduler,
		now:           time.Now,
	}
}

// SetupAndStart schedules and starts the cron job.
func (j *SessionExpiryJob) SetupAndStart() error {
	jobSpec := j.cfg.SessionExpiryJobSchedule
	if jobSpec == "" {
		j.logger.Warn("Session expiry job schedule not defined (SESSION_EXPIRY_JOB_SCHEDULE). Job will not run.")
		return nil
	}

	jobID, err := j.cronScheduler.AddFunc(jobSpec, j.runJob)
	if err != nil {
		j.logger.Error("Failed to schedule session expiry job", zap.String("spec", jobSpec), zap.Error(err))
		return err
	}

	j.logger.Info("Session expiry job scheduled", zap.String("spec", jobSpec), zap.Any("jobID", jobID))
	j.cronScheduler.Start()
	return nil
}

func (j *SessionExpiryJob) runJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := j.Check(ctx); err != nil {
		j.logger.Error("Session expiry check failed", zap.Error(err))
	}
}

// Check signs out an expired session and asks for the sign-in view. It reports whether
// a sign-out happened. An unreadable expiry is left to the backend to reject.
func (j *SessionExpiryJob) Check(ctx context.Context) (bool, error) {
	identity := j.session.Current()
	if identity == nil {
		return false, nil
	}

	expiresAt := identity.ExpiresAt
	if expiresAt.IsZero() {
		exp, err := firebase.TokenExpiry(identity.AccessToken)
		if err != nil {
			j.logger.Debug("Token expiry unreadable", zap.Error(err))
			return false, nil
		}
		expiresAt = exp
	}
	if expiresAt.IsZero() || j.now().Before(expiresAt) {
		return false, nil
	}

	j.logger.Info("Access token expired; signing out", zap.String("email", identity.Email), zap.Time("expired_at", expiresAt))
	if err := j.session.SignOut(ctx); err != nil {
		return false, err
	}
	j.navigator.Navigate(navigation.SignIn(""))
	j.metrics.SessionEvent("expired")
	return true, nil
}

// Stop gracefully stops the cron scheduler.
func (j *SessionExpiryJob) Stop() {
	if j.cronScheduler != nil {
		j.logger.Info("Stopping session expiry job scheduler...")
		stopCtx := j.cronScheduler.Stop()
		select {
		case <-stopCtx.Done():
			j.logger.Info("Session expiry job scheduler stopped gracefully.")
		case <-time.After(10 * time.Second):
			j.logger.Warn("Session expiry job scheduler stop timed out.")
		}
	}
}
