package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	Server struct {
		Port        string   `env:"PORT" envDefault:"5250"`
		LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:3001"`
		// Base URL of the website, used for links in emails
		FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
		// Office time zone; appointment dates and times are read in it
		TimeZone string `env:"TIMEZONE" envDefault:"Europe/Amsterdam"`
	}

	Database struct {
		// sqlite or postgres
		Driver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
		DSN    string `env:"DATABASE_URL" envDefault:"database/makelaardij.db"`
	}

	Store struct {
		// Where property listings live: database, file or memory
		Backend string `env:"PROPERTY_STORE" envDefault:"database"`

		// JSON file used by the file backend
		FilePath string `env:"PROPERTY_FILE" envDefault:"data/properties.json"`

		// Optional JSON seed file; the built-in listings are used when empty
		SeedPath string `env:"PROPERTY_SEED_FILE"`
	}

	Auth struct {
		JWTSecret  string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
		JWTIssuer  string        `env:"JWT_ISSUER" envDefault:"makelaardij"`
		AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"1h"`
		RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`

		// Shared secret for administrative endpoints; open when empty
		AdminToken string `env:"ADMIN_TOKEN"`
	}

	Mail struct {
		Enabled   bool   `env:"MAIL_ENABLED" envDefault:"false"`
		APIURL    string `env:"MAILTRAP_API_URL" envDefault:"https://send.api.mailtrap.io"`
		APIToken  string `env:"MAILTRAP_API_TOKEN"`
		FromEmail string `env:"MAILTRAP_FROM_EMAIL" envDefault:"noreply@glodinas.nl"`
		FromName  string `env:"MAILTRAP_FROM_NAME" envDefault:"Glodinas Makelaardij Website"`

		// Recipient of contact-form notifications
		ToEmail string `env:"MAILTRAP_TO_EMAIL" envDefault:"cihatkaya@glodinas.nl"`
		ToName  string `env:"MAILTRAP_TO_NAME" envDefault:"Glodinas Makelaardij"`
	}

	// BatchProcessing configuration for property view tracking
	BatchProcessing struct {
		// Number of views buffered before pushes are rejected
		QueueSize int `env:"VIEW_QUEUE_SIZE" envDefault:"1000"`

		// Maximum number of views to accumulate before writing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Maximum time to wait before writing a non-full batch (in seconds)
		MaxBatchWaitTime int `env:"BATCH_WAIT_TIME" envDefault:"30"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}

	Alerts struct {
		Enabled       bool          `env:"ALERTS_ENABLED" envDefault:"true"`
		CheckInterval time.Duration `env:"ALERT_CHECK_INTERVAL" envDefault:"1h"`
	}

	Geocoding struct {
		Enabled   bool   `env:"GEOCODER_ENABLED" envDefault:"false"`
		BaseURL   string `env:"GEOCODER_URL" envDefault:"https://nominatim.openstreetmap.org"`
		UserAgent string `env:"GEOCODER_USER_AGENT" envDefault:"makelaardij-server/1.0"`
		CacheDir  string `env:"GEOCODE_CACHE_DIR"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
