// Package explorer evaluates read-only graph queries against a remote
// gateway. It resolves and compiles parsed queries through pkg/query,
// runs the compiled tool sequences over session-oriented HTTP endpoints,
// and normalizes the raw results into the flat shape callers see.
package explorer

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-explorer/pkg/validation"
)

const (
	// DefaultBaseURL targets a gateway on the local machine.
	DefaultBaseURL = "http://localhost:3001"

	// DefaultTimeout bounds each individual HTTP request.
	DefaultTimeout = 60 * time.Second
)

// Config holds the gateway connection settings.
type Config struct {
	// BaseURL is the gateway root, e.g. "http://localhost:3001".
	BaseURL string `json:"base_url" yaml:"base_url" validate:"required"`

	// AuthToken is an optional bearer token sent on every request.
	AuthToken string `json:"auth_token,omitempty" yaml:"auth_token,omitempty"`

	// Timeout bounds each HTTP request (default: 60s).
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// AllowProxy honors HTTP(S)_PROXY environment settings for gateway
	// traffic. Gateways are usually local, so proxies are bypassed
	// unless asked for.
	AllowProxy bool `json:"allow_proxy,omitempty" yaml:"allow_proxy,omitempty"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// LoadConfigFromEnv builds a config from EXPLORER_* environment
// variables, falling back to defaults for anything unset.
func LoadConfigFromEnv() *Config {
	return &Config{
		BaseURL:    getEnvOrDefault("EXPLORER_BASE_URL", DefaultBaseURL),
		AuthToken:  os.Getenv("EXPLORER_AUTH_TOKEN"),
		Timeout:    parseDuration(os.Getenv("EXPLORER_TIMEOUT"), DefaultTimeout),
		AllowProxy: parseBool(os.Getenv("EXPLORER_ALLOW_PROXY"), false),
	}
}

// LoadConfigFile reads a YAML config file. Unset fields fall back to
// defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.BaseURL = validation.DefaultOr(cfg.BaseURL, DefaultBaseURL)
	cfg.Timeout = validation.DefaultOrDuration(cfg.Timeout, DefaultTimeout)
	return cfg, nil
}

// Validate checks the configuration before any client is built.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	return validation.NewConfigValidator("ExplorerConfig").
		URL("BaseURL", c.BaseURL).
		MinDuration("Timeout", c.Timeout, time.Second).
		MaxDuration("Timeout", c.Timeout, 10*time.Minute).
		When(c.AuthToken != "", func(cv *validation.ConfigValidator) {
			cv.Custom("AuthToken", func() error {
				return checkBearerToken(c.AuthToken)
			})
		}).
		Validate()
}

// checkBearerToken inspects a JWT bearer token without verifying its
// signature and rejects tokens that have already expired. Tokens that
// do not parse as JWTs are treated as opaque and pass through.
func checkBearerToken(token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return fmt.Errorf("bearer token expired at %s", exp.Format(time.RFC3339))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseBool(value string, defaultValue bool) bool {
	switch value {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}
