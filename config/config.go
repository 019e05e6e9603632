package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/schoolsharks/quickk-webn-sub000/database"
)

// Config holds all application configuration. It is loaded once at startup
// and passed down explicitly; there is no global instance.
type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Database DatabaseConfig `env:",prefix=DATABASE_"`
	Worker   WorkerConfig   `env:",prefix=WORKER_"`

	// Environment is "development" or "production"
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `env:"HOST,default=0.0.0.0"`
	Port         string        `env:"PORT,default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=15s"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL  string `env:"URL,required"`
	Name string `env:"NAME"`
}

// WorkerConfig holds winner selection worker configuration.
// The scan interval is a latency/cost tradeoff only; resolution is
// idempotent, so any frequency is correct.
type WorkerConfig struct {
	Enabled      bool          `env:"ENABLED,default=true"`
	ScanInterval time.Duration `env:"SCAN_INTERVAL,default=1h"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// GetDatabaseURL combines the base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.Database.URL, c.Database.Name)
}

// GetServerAddr returns the HTTP listen address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsProduction returns true when running in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
