// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// App holds every setting the server needs.
type App struct {
	Port        string `envconfig:"PORT" default:"8080"`
	StoreDriver string `envconfig:"STORE_DRIVER" default:"postgres"`

	// DB
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName      string `envconfig:"DB_NAME" default:"ticketing"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMigrate   bool   `envconfig:"DB_MIGRATE" default:"true"`

	// JWT
	JWTSecret         string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL          time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	OrganizerLoginTTL time.Duration `envconfig:"ORGANIZER_LOGIN_TTL" default:"24h"`
	BcryptCost        int           `envconfig:"BCRYPT_COST" default:"10"`

	// Uploads
	UploadDir      string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	UploadMaxBytes int64  `envconfig:"UPLOAD_MAX_BYTES" default:"5242880"`
	ImageMaxW      int    `envconfig:"IMAGE_MAX_W" default:"1600"`
	ImageMaxH      int    `envconfig:"IMAGE_MAX_H" default:"1600"`

	// Notifications
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"ticketing.events"`

	WebDir string `envconfig:"WEB_DIR" default:"./web"`
}

// Load reads an optional .env file, then the process environment, and
// validates the result.
func Load() (App, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: ignoring .env: %v", err)
	}

	var c App
	if err := envconfig.Process("", &c); err != nil {
		return App{}, fmt.Errorf("config: %w", err)
	}
	if err := c.validate(); err != nil {
		return App{}, err
	}
	return c, nil
}

func (c *App) validate() error {
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("config: STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver)
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}
	if c.TokenTTL <= 0 || c.OrganizerLoginTTL <= 0 {
		return fmt.Errorf("config: token TTLs must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("config: UPLOAD_MAX_BYTES must be positive")
	}
	return nil
}

// DSN returns DATABASE_URL when set, otherwise a libpq-compatible URL built
// from the individual DB_* settings.
func (c App) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}
