package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Despacho"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"despacho"`
		SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	Auth struct {
		// Secret verifies HS256 bearer tokens. Empty disables the API.
		Secret      string   `envconfig:"AUTH_SECRET"`
		CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173"`
	}

	Documents struct {
		// Token authenticates downloads from the document store.
		Token string `envconfig:"DOCUMENTS_TOKEN"`
	}

	VAT struct {
		// TablePath overrides the embedded nature code table.
		TablePath string `envconfig:"VAT_TABLE_PATH"`
	}

	// Tenant is the tenant the TUI works for; the API reads it from the token.
	Tenant string `envconfig:"TENANT_ID"`
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
