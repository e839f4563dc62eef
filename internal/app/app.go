package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"inovacode-contact-api/internal/config"
	"inovacode-contact-api/internal/database"
	"inovacode-contact-api/internal/handlers"
	"inovacode-contact-api/internal/metrics"
	"inovacode-contact-api/internal/notify"
	"inovacode-contact-api/internal/ratelimit"
	"inovacode-contact-api/internal/repository"
	"inovacode-contact-api/internal/scheduler"
	"inovacode-contact-api/internal/server"
	"inovacode-contact-api/internal/service"
	"inovacode-contact-api/internal/validate"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Inovacode Contact API")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dbConn, err := database.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	m := metrics.NewMetrics()

	var limiter ratelimit.Store
	if cfg.RateLimit.Backend == "redis" {
		limiter, err = ratelimit.NewRedisStoreFromURL(cfg.RateLimit.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
		logrus.Info("Using redis rate limit backend")
	} else {
		limiter = ratelimit.NewMemoryStore()
		logrus.Info("Using in-memory rate limit backend (single instance only)")
	}

	notifier, err := notify.NewGmailNotifier(&cfg.Mail)
	if err != nil {
		return fmt.Errorf("failed to create email notifier: %w", err)
	}

	repo := repository.NewContactRepository(dbConn)
	contacts := service.NewContactService(repo, notifier, m, cfg.Mail.NotifyTimeout)

	sched := scheduler.NewScheduler(&cfg.Scheduler, repo, m)

	h := handlers.NewHandlers(dbConn, contacts, validate.Default(), limiter, cfg.RateLimit, sched, m, cfg.Admin.Token, cfg.IsProduction())
	router := server.SetupRouter(h, cfg.Server.RequestTimeout)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sched.Stop(); err != nil {
		logrus.Errorf("Failed to stop scheduler: %v", err)
	}
	sched.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	if closer, ok := limiter.(ratelimit.Closer); ok {
		if err := closer.Close(); err != nil {
			logrus.Errorf("Failed to close rate limit store: %v", err)
		}
	}

	logrus.Info("Server stopped gracefully")
	return nil
}
