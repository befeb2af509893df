package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig
	Admin    AdminConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	BaseURL string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // sqlite or postgres
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AdminConfig holds the bootstrap admin account settings
type AdminConfig struct {
	Email    string
	Username string
	Password string
}

// Load reads configuration from environment variables with the FOODGRAM_
// prefix (e.g. FOODGRAM_DATABASE_DSN), falling back to defaults suitable
// for local development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "foodgram")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.baseurl", "http://localhost:8080")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "foodgram.db")
	v.SetDefault("database.maxopenconns", 25)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.connmaxlifetime", 30*time.Minute)

	v.SetDefault("jwt.secret", "foodgram-dev-secret-change-in-production")
	v.SetDefault("jwt.expiration", 24*time.Hour)
	v.SetDefault("jwt.issuer", "foodgram")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("admin.email", "admin@foodgram.local")
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", "changeme")

	v.SetEnvPrefix("FOODGRAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
