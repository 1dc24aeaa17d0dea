package config

import (
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef-test")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "8080" {
		t.Errorf("Port = %q, want 8080", c.Port)
	}
	if c.TokenTTL != 7*24*time.Hour {
		t.Errorf("TokenTTL = %v, want 168h", c.TokenTTL)
	}
	if c.OrganizerLoginTTL != 24*time.Hour {
		t.Errorf("OrganizerLoginTTL = %v, want 24h", c.OrganizerLoginTTL)
	}
	if c.DatabaseURL == "" && !strings.HasPrefix(c.DSN(), "postgres://") {
		t.Errorf("DSN = %q", c.DSN())
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestValidate(t *testing.T) {
	base := App{
		StoreDriver:       DriverMemory,
		JWTSecret:         "0123456789abcdef",
		TokenTTL:          time.Hour,
		OrganizerLoginTTL: time.Hour,
		BcryptCost:        10,
		UploadMaxBytes:    1,
	}

	tests := []struct {
		name    string
		mutate  func(*App)
		wantErr bool
	}{
		{"valid", func(*App) {}, false},
		{"unknown driver", func(c *App) { c.StoreDriver = "mongo" }, true},
		{"short secret", func(c *App) { c.JWTSecret = "short" }, true},
		{"zero ttl", func(c *App) { c.TokenTTL = 0 }, true},
		{"bcrypt too low", func(c *App) { c.BcryptCost = 2 }, true},
		{"no upload budget", func(c *App) { c.UploadMaxBytes = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDSNPrefersDatabaseURL(t *testing.T) {
	c := App{DatabaseURL: "postgres://u:p@db:5432/x"}
	if got := c.DSN(); got != c.DatabaseURL {
		t.Fatalf("DSN = %q", got)
	}
}

func TestDSNEscapesCredentials(t *testing.T) {
	c := App{
		DBUser:     "ticket user",
		DBPassword: "p@ss/w#rd",
		DBHost:     "db",
		DBPort:     "5432",
		DBName:     "tickets",
		DBSSLMode:  "disable",
	}

	cfg, err := pgxpool.ParseConfig(c.DSN())
	if err != nil {
		t.Fatalf("ParseConfig(%q): %v", c.DSN(), err)
	}
	cc := cfg.ConnConfig
	if cc.User != c.DBUser || cc.Password != c.DBPassword {
		t.Errorf("credentials = %q / %q", cc.User, cc.Password)
	}
	if cc.Host != "db" || cc.Port != 5432 || cc.Database != "tickets" {
		t.Errorf("target = %s:%d/%s", cc.Host, cc.Port, cc.Database)
	}
	if cc.TLSConfig != nil {
		t.Error("sslmode=disable should leave TLS off")
	}
}
