package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"makelaardij/server/config"
	"makelaardij/server/internal/api"
	"makelaardij/server/internal/database"
	"makelaardij/server/internal/geocoding"
	"makelaardij/server/internal/mailer"
	"makelaardij/server/internal/processor"
	"makelaardij/server/internal/queue"
	"makelaardij/server/internal/scheduler"
	"makelaardij/server/internal/store"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.WithError(err).Warnf("Invalid log level %q, using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Initialize database
	logger.WithField("driver", cfg.Database.Driver).Info("Opening database")
	db, err := database.Open(*cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := database.RunMigrations(db); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	properties, err := newPropertyStore(cfg, db)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize property store")
	}

	seed, err := config.LoadSeed(cfg.Store.SeedPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load seed listings")
	}
	seeded, err := store.Seed(context.Background(), properties, seed)
	if err != nil {
		logger.WithError(err).Fatal("Failed to seed property store")
	}
	logger.WithFields(logrus.Fields{
		"backend": cfg.Store.Backend,
		"seeded":  seeded,
	}).Info("Property store ready")

	sender := newSender(cfg, logger)

	// View tracking: handlers push to the queue, the processor writes batches
	viewQueue := queue.NewViewQueue(
		cfg.BatchProcessing.QueueSize,
		cfg.BatchProcessing.MaxBatchSize,
		time.Duration(cfg.BatchProcessing.MaxBatchWaitTime)*time.Second,
		logger,
	)
	viewProcessor := processor.NewViewProcessor(database.NewViewRepo(db), viewQueue, cfg, logger)
	viewProcessor.Start()
	viewQueue.Start()

	var alerts *scheduler.AlertScheduler
	if cfg.Alerts.Enabled {
		alerts = scheduler.NewAlertScheduler(
			database.NewSavedSearchRepo(db),
			database.NewUserRepo(db),
			properties,
			sender,
			cfg.Server.FrontendURL,
			cfg.Alerts.CheckInterval,
			logger,
		)
		alerts.Start()
	}

	handler := api.NewHandler(cfg, db, properties, sender, logger).WithViewQueue(viewQueue)
	if cfg.Geocoding.Enabled {
		handler.WithGeocoder(geocoding.NewGeocoder(cfg.Geocoding.BaseURL, cfg.Geocoding.UserAgent, cfg.Geocoding.CacheDir, logger))
	}

	if cfg.Auth.AdminToken == "" {
		logger.Warn("ADMIN_TOKEN is not set, administrative endpoints are unprotected")
	}

	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Admin-Token"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(router, handler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	// Flush pending views before the processor stops retrying
	if err := viewQueue.Close(); err != nil {
		logger.WithError(err).Error("Failed to close view queue")
	}
	viewProcessor.Stop()
	if alerts != nil {
		alerts.Stop()
	}

	logger.Info("Server exited")
}

func newPropertyStore(cfg *config.Config, db *gorm.DB) (store.PropertyStore, error) {
	switch cfg.Store.Backend {
	case "database", "":
		return store.NewGormStore(db), nil
	case "file":
		fs, err := store.NewFileStore(cfg.Store.FilePath)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown property store backend: %s", cfg.Store.Backend)
	}
}

func newSender(cfg *config.Config, logger *logrus.Logger) mailer.Sender {
	if !cfg.Mail.Enabled || cfg.Mail.APIToken == "" {
		logger.Warn("Email delivery is disabled, messages will only be logged")
		return mailer.NewLogSender(logger)
	}
	return mailer.NewMailtrapSender(
		cfg.Mail.APIURL,
		cfg.Mail.APIToken,
		mailer.Address{Email: cfg.Mail.FromEmail, Name: cfg.Mail.FromName},
		logger,
	)
}
