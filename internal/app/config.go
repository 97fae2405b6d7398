package app

import (
	"net/url"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

const (
	defaultAddr       = "0.0.0.0:8080"
	defaultBackendURL = "http://localhost:8000/api"
)

// Config holds the cart server configuration, loadable from environment
// variables (CANTEEN_ prefix), flags, a .env file or YAML config files.
type Config struct {
	Addr       string `default:"0.0.0.0:8080" usage:"Cart server listen address"`
	BackendURL string `default:"http://localhost:8000/api" usage:"Canteen API base URL (CANTEEN_BACKEND_URL or BACKEND_URL)" flag:"backend-url"`
	Session    SessionConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Graceful   GracefulConfig
}

// SessionConfig controls cart sessions.
type SessionConfig struct {
	TTL          time.Duration `default:"30m" usage:"Idle time after which a cart is dropped" flag:"session-ttl"`
	CookieName   string        `default:"canteen_session" usage:"Session cookie name" flag:"session-cookie"`
	SecureCookie bool          `default:"false" usage:"Mark the session cookie Secure" flag:"session-secure"`
}

// RateLimitConfig controls the per-session sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (the session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig reads .env (when present) into the environment, then loads the
// configuration from files, env and command line flags and applies platform
// defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(false)
}

func loadConfig(skipFlags bool) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}

	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CANTEEN",
		SkipFlags: skipFlags,
		Files:     []string{"config.yaml", "/etc/canteen/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the conventional PORT and BACKEND_URL variables
// onto the CANTEEN_-prefixed configuration when it was left at defaults.
func (c *Config) applyPlatformDefaults() {
	if v := os.Getenv("BACKEND_URL"); v != "" && c.BackendURL == defaultBackendURL {
		c.BackendURL = v
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

// Validate checks values the loader cannot.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return errors.Wrap(err, "parse backend URL")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf("backend URL %q must be an absolute http(s) URL", c.BackendURL)
	}
	if c.Session.CookieName == "" {
		return errors.New("session cookie name is required")
	}
	return nil
}
