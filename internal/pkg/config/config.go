package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	AdminAddr string `env:"ADMIN_ADDR" envDefault:":9091"`

	DirectoryURL          string        `env:"DIRECTORY_URL,required,notEmpty"`
	RedisURL              string        `env:"REDIS_URL"` // empty disables the directory cache
	DirectoryCacheTTL     time.Duration `env:"DIRECTORY_CACHE_TTL" envDefault:"10m"`
	DirectoryRetryMax     uint64        `env:"DIRECTORY_RETRY_MAX" envDefault:"3"`
	DirectoryRetryInitial time.Duration `env:"DIRECTORY_RETRY_INITIAL" envDefault:"200ms"`

	ConnectionCacheSize int           `env:"CONNECTION_CACHE_SIZE" envDefault:"64"`
	FetchTimeout        time.Duration `env:"FETCH_TIMEOUT" envDefault:"5s"`
	CurrencyMode        string        `env:"CURRENCY_MODE" envDefault:"legacy"`
	StorageBucket       string        `env:"STORAGE_BUCKET" envDefault:"menu-images"`
	ImageBaseURL        string        `env:"IMAGE_BASE_URL"`

	ExposeDiagnostics      bool          `env:"EXPOSE_DIAGNOSTICS" envDefault:"false"`
	DiagnosticRedactFields string        `env:"DIAGNOSTIC_REDACT_FIELDS" envDefault:"data_access_key,apikey,password,authorization"`
	APIKeyCacheTTL         time.Duration `env:"API_KEY_CACHE_TTL" envDefault:"5m"`

	TranslateURL    string `env:"TRANSLATE_URL" envDefault:"http://localhost:5000"`
	TranslateAPIKey string `env:"TRANSLATE_API_KEY"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RedactFields splits DiagnosticRedactFields into trimmed, non-empty names.
func (c *Config) RedactFields() []string {
	var out []string
	for _, f := range strings.Split(c.DiagnosticRedactFields, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
