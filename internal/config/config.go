// ABOUTME: Configuration loading and parsing for verifywise-mcp
// ABOUTME: Supports VERIFYWISE_* environment variables layered over an optional YAML file

package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the environment nor the config file sets a value.
const (
	DefaultBaseURL           = "http://localhost:3000"
	DefaultRequestTimeout    = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRetryBaseDelay    = 1 * time.Second
	DefaultRetryMaxDelay     = 30 * time.Second
	DefaultTokenExpiryMargin = 60 * time.Second
	DefaultTransport         = "stdio"
	DefaultHTTPAddr          = ":8080"
)

// Config represents the complete verifywise-mcp configuration.
type Config struct {
	VerifyWise VerifyWiseConfig `yaml:"verifywise"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// VerifyWiseConfig holds the connection and resilience settings for the
// remote VerifyWise platform.
type VerifyWiseConfig struct {
	BaseURL  string `yaml:"base_url"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	RequestTimeout    time.Duration `yaml:"-"`
	MaxRetries        int           `yaml:"max_retries"`
	RetryBaseDelay    time.Duration `yaml:"-"`
	RetryMaxDelay     time.Duration `yaml:"-"`
	TokenExpiryMargin time.Duration `yaml:"-"`

	// RefreshFallbackLogin controls whether a failed token refresh falls
	// back to a full login instead of surfacing an authentication error.
	RefreshFallbackLogin bool `yaml:"refresh_fallback_login"`

	// Raw string values for YAML unmarshaling
	RequestTimeoutRaw    string `yaml:"request_timeout"`
	RetryBaseDelayRaw    string `yaml:"retry_base_delay"`
	RetryMaxDelayRaw     string `yaml:"retry_max_delay"`
	TokenExpiryMarginRaw string `yaml:"token_expiry_margin"`
}

// ServerConfig holds MCP transport configuration.
type ServerConfig struct {
	Transport string `yaml:"transport"` // stdio or http
	HTTPAddr  string `yaml:"http_addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds the configuration from the optional YAML file at path layered
// under VERIFYWISE_* environment variables (environment wins). An empty path
// or a missing file means environment-only configuration.
// Environment variables in the file in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else {
			expanded := expandEnvVars(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		VerifyWise: VerifyWiseConfig{
			BaseURL:              DefaultBaseURL,
			RequestTimeout:       DefaultRequestTimeout,
			MaxRetries:           DefaultMaxRetries,
			RetryBaseDelay:       DefaultRetryBaseDelay,
			RetryMaxDelay:        DefaultRetryMaxDelay,
			TokenExpiryMargin:    DefaultTokenExpiryMargin,
			RefreshFallbackLogin: true,
		},
		Server: ServerConfig{
			Transport: DefaultTransport,
			HTTPAddr:  DefaultHTTPAddr,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnv overlays VERIFYWISE_* environment variables onto cfg.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("VERIFYWISE_BASE_URL"); v != "" {
		cfg.VerifyWise.BaseURL = v
	}
	if v := os.Getenv("VERIFYWISE_EMAIL"); v != "" {
		cfg.VerifyWise.Email = v
	}
	if v := os.Getenv("VERIFYWISE_PASSWORD"); v != "" {
		cfg.VerifyWise.Password = v
	}
	if v := os.Getenv("VERIFYWISE_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VERIFYWISE_MAX_RETRIES %q: %w", v, err)
		}
		cfg.VerifyWise.MaxRetries = n
	}
	if v := os.Getenv("VERIFYWISE_REFRESH_FALLBACK_LOGIN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("VERIFYWISE_REFRESH_FALLBACK_LOGIN %q: %w", v, err)
		}
		cfg.VerifyWise.RefreshFallbackLogin = b
	}
	if v := os.Getenv("VERIFYWISE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VERIFYWISE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("VERIFYWISE_TRANSPORT"); v != "" {
		cfg.Server.Transport = v
	}
	if v := os.Getenv("VERIFYWISE_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}

	durations := []struct {
		env    string
		target *time.Duration
	}{
		{"VERIFYWISE_REQUEST_TIMEOUT", &cfg.VerifyWise.RequestTimeout},
		{"VERIFYWISE_RETRY_BASE_DELAY", &cfg.VerifyWise.RetryBaseDelay},
		{"VERIFYWISE_RETRY_MAX_DELAY", &cfg.VerifyWise.RetryMaxDelay},
		{"VERIFYWISE_TOKEN_EXPIRY_MARGIN", &cfg.VerifyWise.TokenExpiryMargin},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := parseDurationOrSeconds(v)
		if err != nil {
			return fmt.Errorf("%s %q: %w", d.env, v, err)
		}
		*d.target = parsed
	}

	return nil
}

// parseDurationOrSeconds accepts either a Go duration string ("30s", "1m")
// or a bare number interpreted as seconds ("30").
func parseDurationOrSeconds(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a duration or number of seconds")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
// Secret values are never echoed in validation errors.
func (c *Config) Validate() error {
	if c.VerifyWise.Email == "" {
		return fmt.Errorf("verifywise.email is required (VERIFYWISE_EMAIL)")
	}
	if c.VerifyWise.Password == "" {
		return fmt.Errorf("verifywise.password is required (VERIFYWISE_PASSWORD)")
	}

	u, err := url.Parse(c.VerifyWise.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("verifywise.base_url %q is not a valid URL", c.VerifyWise.BaseURL)
	}

	if c.VerifyWise.RequestTimeout <= 0 {
		return fmt.Errorf("verifywise.request_timeout must be positive")
	}
	if c.VerifyWise.MaxRetries < 1 {
		return fmt.Errorf("verifywise.max_retries must be at least 1")
	}
	if c.VerifyWise.RetryBaseDelay <= 0 {
		return fmt.Errorf("verifywise.retry_base_delay must be positive")
	}
	if c.VerifyWise.RetryMaxDelay < c.VerifyWise.RetryBaseDelay {
		return fmt.Errorf("verifywise.retry_max_delay must be >= retry_base_delay")
	}
	if c.VerifyWise.TokenExpiryMargin < 0 {
		return fmt.Errorf("verifywise.token_expiry_margin must not be negative")
	}

	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("server.transport must be \"stdio\" or \"http\", got %q", c.Server.Transport)
	}
	if c.Server.Transport == "http" && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required when transport is http")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(cfg *Config) error {
	fields := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"request_timeout", cfg.VerifyWise.RequestTimeoutRaw, &cfg.VerifyWise.RequestTimeout},
		{"retry_base_delay", cfg.VerifyWise.RetryBaseDelayRaw, &cfg.VerifyWise.RetryBaseDelay},
		{"retry_max_delay", cfg.VerifyWise.RetryMaxDelayRaw, &cfg.VerifyWise.RetryMaxDelay},
		{"token_expiry_margin", cfg.VerifyWise.TokenExpiryMarginRaw, &cfg.VerifyWise.TokenExpiryMargin},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := parseDurationOrSeconds(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.target = d
	}

	return nil
}
