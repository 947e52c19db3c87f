// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"blood_donation_dashboard/internal/auth"
	"blood_donation_dashboard/internal/bloodrequest"
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/dashboard"
	"blood_donation_dashboard/internal/donor"
	"blood_donation_dashboard/internal/filestorage"
	"blood_donation_dashboard/internal/funding"
	"blood_donation_dashboard/internal/jobs"
	"blood_donation_dashboard/internal/middleware"
	"blood_donation_dashboard/internal/platform/metrics"
	"blood_donation_dashboard/internal/profile"
	"blood_donation_dashboard/internal/registration"
	"blood_donation_dashboard/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// restoreTimeout bounds the persisted-session check at start.
const restoreTimeout = 15 * time.Second

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger
	session    *session.Session

	sessionExpiryJob *jobs.SessionExpiryJob
}

// NewServer creates a new instance of the dashboard server.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	sess *session.Session,
	guard middleware.Guard,
	authHandler *auth.Handler,
	profileHandler *profile.Handler,
	dashboardHandler *dashboard.Handler,
	requestHandler *bloodrequest.Handler,
	registrationHandler *registration.Handler,
	donorHandler *donor.Handler,
	fundingHandler *funding.Handler,
	avatarHandler *filestorage.Handler,
	sessionExpiryJob *jobs.SessionExpiryJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())
	router.Use(middleware.Metrics(m))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", "Location", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// --- Setup Routes ---
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "UP",
			"message":   "Blood donation dashboard is healthy!",
			"signed_in": sess.Current() != nil,
		})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.Static(filestorage.PublicPrefix, cfg.AvatarDir)
	authHandler.RegisterLoginView(router)

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1, guard)
	profileHandler.RegisterRoutes(v1, guard)
	dashboardHandler.RegisterRoutes(v1, guard)
	requestHandler.RegisterRoutes(v1, guard)
	registrationHandler.RegisterRoutes(v1, guard)
	donorHandler.RegisterRoutes(v1, guard)
	fundingHandler.RegisterRoutes(v1, guard)
	avatarHandler.RegisterRoutes(v1, guard)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:       httpServer,
		router:           router,
		cfg:              cfg,
		logger:           logger,
		session:          sess,
		sessionExpiryJob: sessionExpiryJob,
	}, nil
}

// Router exposes the route table, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Restore resolves the persisted session. Protected views wait for it.
func (s *Server) Restore(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, restoreTimeout)
	defer cancel()
	if err := s.session.Restore(ctx); err != nil {
		s.logger.Warn("Starting signed out; persisted session unavailable", zap.Error(err))
	}
}

func (s *Server) Start() error {
	go s.Restore(context.Background())

	if s.sessionExpiryJob != nil {
		if err := s.sessionExpiryJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start session expiry job", zap.Error(err))
		}
	} else {
		s.logger.Info("Session expiry job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.sessionExpiryJob != nil {
		s.sessionExpiryJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
