package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/josecyberpro/site/internal/api/middleware"
	"github.com/josecyberpro/site/internal/api/routes"
	"github.com/josecyberpro/site/internal/config"
	"github.com/josecyberpro/site/internal/logger"
	"github.com/josecyberpro/site/internal/metrics"
	"github.com/josecyberpro/site/internal/services"
	"github.com/josecyberpro/site/internal/web"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP engine and shared dependencies for easier testing.
type Server struct {
	Engine        *gin.Engine
	Notifications *services.NotificationService
	cfg           config.Config
	scheduler     *cron.Cron
}

// New builds the services on top of db and mailer, registers every route and
// starts the delivery retry scheduler when one is configured.
func New(db *gorm.DB, cfg config.Config, mailer services.Mailer) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router := gin.New()
	// ClientIP feeds the form throttle, so only listed proxies may set it.
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.HTMLRender = renderer
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(cfg.Debug),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Production: cfg.IsProduction()}),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registry)

	blogs := services.NewBlogService(db)
	notifications := services.NewNotificationService(db, mailer, services.NotificationConfigFrom(cfg))
	submissions := services.NewSubmissionService(db, notifications)

	routes.Register(router, routes.Dependencies{
		DB:            db,
		Blogs:         blogs,
		Submissions:   submissions,
		Notifications: notifications,
		Verifier:      services.NewCredentialVerifier(cfg),
		Throttle:      middleware.NewThrottle(cfg.SubmitRatePerMinute, cfg.SubmitBurst),
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		SiteName:      cfg.SiteName,
	})

	s := &Server{Engine: router, Notifications: notifications, cfg: cfg}
	if cfg.DeliveryRetrySpec != "" {
		s.scheduler, err = notifications.StartRetryScheduler(cfg.DeliveryRetrySpec)
		if err != nil {
			return nil, err
		}
		logger.Log().WithField("schedule", cfg.DeliveryRetrySpec).Info("email delivery retry scheduled")
	}
	return s, nil
}

// Run starts the HTTP server and shuts it down gracefully when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.HTTPPort),
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Log().WithField("addr", srv.Addr).Info("http server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Close stops the retry scheduler and waits for a running pass to finish.
func (s *Server) Close() {
	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}
}
