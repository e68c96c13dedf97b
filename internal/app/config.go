package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the gateway and the CLI.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	APIBaseURL string        `envconfig:"API_BASE_URL" required:"true"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"20s"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	TokenSecret   string        `envconfig:"TOKEN_SECRET" required:"true"`
	TokenKey      string        `envconfig:"TOKEN_KEY" default:"default"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"720h"`

	GatewayRateLimit int `envconfig:"GATEWAY_RATE_LIMIT" default:"120"`
	GatewaySessions  int `envconfig:"GATEWAY_SESSIONS" default:"256"`
	PageSize         int `envconfig:"PAGE_SIZE" default:"20"`

	BillingTimezone string `envconfig:"BILLING_TIMEZONE" default:"Asia/Ho_Chi_Minh"`
	billingLocation *time.Location
}

// LoadEnvFiles loads .env style files into the environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.APIBaseURL == "" {
		return nil, errors.New("api base url must be provided")
	}
	if cfg.TokenSecret == "" {
		return nil, errors.New("token secret must be provided")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", cfg.PageSize)
	}
	loc, err := time.LoadLocation(cfg.BillingTimezone)
	if err != nil {
		return nil, fmt.Errorf("billing timezone: %w", err)
	}
	cfg.billingLocation = loc
	return &cfg, nil
}

// BillingLocation returns the zone billing days are read in.
func (c *Config) BillingLocation() *time.Location {
	if c == nil {
		return nil
	}
	return c.billingLocation
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
