// Package config loads runtime settings from .env, an optional YAML file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultServiceURL = "http://localhost:8000"
	DefaultListenAddr = ":8080"
	DefaultSessionTTL = 30 * time.Minute
)

// Config holds everything main needs to wire the client.
type Config struct {
	ServiceURL  string        `yaml:"service_url"`
	ListenAddr  string        `yaml:"listen_addr"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
	LogLevel    string        `yaml:"log_level"`
}

// Default returns the built-in settings. HTTPTimeout is zero: calls to the
// external service never time out unless configured. LogLevel is left empty
// so callers can tell an explicit level from none.
func Default() *Config {
	return &Config{
		ServiceURL: DefaultServiceURL,
		ListenAddr: DefaultListenAddr,
		SessionTTL: DefaultSessionTTL,
	}
}

// Override changes a loaded Config before it is validated, e.g. from
// command-line flags.
type Override func(*Config)

// Load reads .env, then the YAML file named by PDFQUERY_CONFIG, then the
// PDFQUERY_* and LOG_LEVEL environment variables, then applies overrides.
func Load(logger logrus.FieldLogger, overrides ...Override) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on environment variables.")
	}

	cfg := Default()
	if path := os.Getenv("PDFQUERY_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		logger.WithField("path", path).Debug("Loaded config file")
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PDFQUERY_SERVICE_URL"); v != "" {
		c.ServiceURL = v
	}
	if v := os.Getenv("PDFQUERY_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	var err error
	if c.HTTPTimeout, err = durationEnv("PDFQUERY_HTTP_TIMEOUT", c.HTTPTimeout); err != nil {
		return err
	}
	if c.SessionTTL, err = durationEnv("PDFQUERY_SESSION_TTL", c.SessionTTL); err != nil {
		return err
	}
	return nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

// Validate checks the service URL and durations.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServiceURL)
	if err != nil {
		return fmt.Errorf("invalid service url %q: %w", c.ServiceURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("service url %q must be an absolute http(s) url", c.ServiceURL)
	}
	if c.ListenAddr == "" {
		return errors.New("listen address must not be empty")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout must not be negative, got %s", c.HTTPTimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// Level maps LogLevel to a logrus level, falling back to info.
func (c *Config) Level() logrus.Level {
	return c.LevelOr(logrus.InfoLevel)
}

// LevelOr maps LogLevel to a logrus level, or returns fallback when no level
// was configured or it does not parse.
func (c *Config) LevelOr(fallback logrus.Level) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return fallback
	}
	return lvl
}
