// Package config loads application configuration from flags, environment
// variables, and an optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/spf13/viper"

	"github.com/ericfisherdev/doccomments/internal/domain/model"
)

// EnvPrefix is prepended to every environment variable, e.g. DOCCOMMENTS_REPO.
const EnvPrefix = "DOCCOMMENTS"

// Config holds the validated application configuration.
type Config struct {
	Repo           string        `mapstructure:"repo"`
	GitHub         GitHubConfig  `mapstructure:"github"`
	ListenAddr     string        `mapstructure:"listen_addr"`
	PublicURL      string        `mapstructure:"public_url"`
	PerPage        int           `mapstructure:"per_page"`
	BodyPolicy     string        `mapstructure:"body_policy"`
	ThreadTTL      time.Duration `mapstructure:"thread_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFormat      string        `mapstructure:"log_format"`
}

// GitHubConfig contains GitHub connection settings.
type GitHubConfig struct {
	Token  string `mapstructure:"token"`
	APIURL string `mapstructure:"api_url"`
	WebURL string `mapstructure:"web_url"`
}

// tokenForHost is replaced in tests to keep the host's gh login out of them.
var tokenForHost = auth.TokenForHost

// NewViper returns a viper instance with defaults and environment binding
// applied. Nested keys map to underscores: github.token reads
// DOCCOMMENTS_GITHUB_TOKEN.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("repo", "")
	v.SetDefault("github.token", "")
	v.SetDefault("github.api_url", "https://api.github.com/")
	v.SetDefault("github.web_url", "https://github.com/")
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("public_url", "")
	v.SetDefault("per_page", 0)
	v.SetDefault("body_policy", string(model.BodyPolicyTrust))
	v.SetDefault("thread_ttl", 30*time.Minute)
	v.SetDefault("request_timeout", 15*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// ReadFile merges the YAML config file at path into v. An empty path is a no-op.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// Load unmarshals v into a Config, fills the GitHub token from the gh CLI's
// stored credentials when none is configured, and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Repo = strings.TrimSpace(cfg.Repo)
	cfg.BodyPolicy = strings.ToLower(strings.TrimSpace(cfg.BodyPolicy))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token, _ = tokenForHost(cfg.githubHost())
	}

	return cfg, nil
}

// Validate checks required fields and enumerated values.
func (c *Config) Validate() error {
	owner, name, ok := strings.Cut(c.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("repo is required in owner/name form, got %q", c.Repo)
	}

	if _, err := c.Policy(); err != nil {
		return err
	}

	if c.PerPage < 0 || c.PerPage > 100 {
		return fmt.Errorf("per_page must be between 0 and 100, got %d", c.PerPage)
	}

	if c.ThreadTTL <= 0 {
		return fmt.Errorf("thread_ttl must be positive, got %s", c.ThreadTTL)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative, got %s", c.RequestTimeout)
	}

	for key, raw := range map[string]string{
		"github.api_url": c.GitHub.APIURL,
		"github.web_url": c.GitHub.WebURL,
	} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
		}
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format: %s (must be text or json)", c.LogFormat)
	}

	return nil
}

// Policy returns the configured comment body policy.
func (c *Config) Policy() (model.BodyPolicy, error) {
	switch p := model.BodyPolicy(c.BodyPolicy); p {
	case model.BodyPolicyTrust, model.BodyPolicySanitize:
		return p, nil
	default:
		return "", fmt.Errorf("invalid body_policy: %s (must be trust or sanitize)", c.BodyPolicy)
	}
}

// Level returns the configured slog level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	return level, nil
}

// githubHost is the host the gh CLI keys its stored token by.
func (c *Config) githubHost() string {
	u, err := url.Parse(c.GitHub.WebURL)
	if err != nil || u.Host == "" {
		return "github.com"
	}
	return u.Hostname()
}
