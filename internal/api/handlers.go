package api

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"makelaardij/server/config"
	"makelaardij/server/internal/auth"
	"makelaardij/server/internal/database"
	"makelaardij/server/internal/geocoding"
	"makelaardij/server/internal/mailer"
	"makelaardij/server/internal/queue"
	"makelaardij/server/internal/store"
)

type Handler struct {
	config          *config.Config
	logger          *logrus.Logger
	properties      store.PropertyStore
	contacts        *database.ContactRepo
	users           *database.UserRepo
	savedProperties *database.SavedPropertyRepo
	savedSearches   *database.SavedSearchRepo
	views           *database.ViewRepo
	reports         *database.MarketReportRepo
	tokens          auth.TokenService
	sender          mailer.Sender
	viewQueue       *queue.ViewQueue
	geocoder        *geocoding.Geocoder
	location        *time.Location
	now             func() time.Time
}

func NewHandler(cfg *config.Config, db *gorm.DB, properties store.PropertyStore, sender mailer.Sender, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if sender == nil {
		sender = mailer.NewLogSender(logger)
	}

	location, err := time.LoadLocation(cfg.Server.TimeZone)
	if err != nil {
		logger.WithError(err).Warnf("Unknown time zone %q, using UTC", cfg.Server.TimeZone)
		location = time.UTC
	}

	return &Handler{
		config:          cfg,
		logger:          logger,
		properties:      properties,
		contacts:        database.NewContactRepo(db),
		users:           database.NewUserRepo(db),
		savedProperties: database.NewSavedPropertyRepo(db),
		savedSearches:   database.NewSavedSearchRepo(db),
		views:           database.NewViewRepo(db),
		reports:         database.NewMarketReportRepo(db),
		tokens: auth.TokenService{
			Secret:     []byte(cfg.Auth.JWTSecret),
			Issuer:     cfg.Auth.JWTIssuer,
			AccessTTL:  cfg.Auth.AccessTTL,
			RefreshTTL: cfg.Auth.RefreshTTL,
		},
		sender:   sender,
		location: location,
		now:      time.Now,
	}
}

// WithViewQueue routes tracked views through q instead of writing them inline
func (h *Handler) WithViewQueue(q *queue.ViewQueue) *Handler {
	h.viewQueue = q
	return h
}

// WithGeocoder enables the coordinate backfill endpoint
func (h *Handler) WithGeocoder(g *geocoding.Geocoder) *Handler {
	h.geocoder = g
	return h
}

// RequestLogger logs every request through logrus
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Debug("Request handled")
		}
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
