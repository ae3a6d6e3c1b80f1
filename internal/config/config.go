package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tourmaster/tourctl/internal/backoff"
)

// Config holds all configuration for the CLI.
type Config struct {
	// Backend
	BaseURL     string        `mapstructure:"base-url"`
	RefreshPath string        `mapstructure:"refresh-path"`
	LoginRoute  string        `mapstructure:"login-route"`
	HTTPTimeout time.Duration `mapstructure:"timeout"`

	// Credential persistence
	CredentialsFile string `mapstructure:"credentials-file"`
	UseKeyring      bool   `mapstructure:"keyring"`

	// Export processing
	Workers   int    `mapstructure:"workers"`
	OutputDir string `mapstructure:"output"`

	// Backoff
	BackoffInitial time.Duration `mapstructure:"backoff-initial"`
	BackoffMax     time.Duration `mapstructure:"backoff-max"`

	// Retry settings
	MaxRetries int `mapstructure:"max-retries"`

	// Logging
	Verbose bool   `mapstructure:"verbose"`
	LogFile string `mapstructure:"log-file"`
}

// SetupFlags configures CLI flags for the root command.
func SetupFlags(cmd *cobra.Command) {
	// Backend flags
	cmd.PersistentFlags().String("base-url", "", "Tour Master backend base URL (or set TOURCTL_BASE_URL)")
	cmd.PersistentFlags().String("refresh-path", "user_refresh_token/", "Token refresh endpoint path relative to base URL")
	cmd.PersistentFlags().String("login-route", "/UserLoginPage", "Front-end login route shown when the session expires")
	cmd.PersistentFlags().Duration("timeout", 60*time.Second, "HTTP request timeout")

	// Credential persistence flags
	cmd.PersistentFlags().String("credentials-file", "", "Credentials file path (default ~/.config/tourctl/credentials.json)")
	cmd.PersistentFlags().Bool("keyring", false, "Store credentials in the OS keyring instead of a file")

	// Export flags
	cmd.PersistentFlags().IntP("workers", "w", 3, "Number of parallel export workers")
	cmd.PersistentFlags().StringP("output", "o", "./export", "Output directory for exported JSONL files")

	// Backoff flags
	cmd.PersistentFlags().Duration("backoff-initial", time.Second, "Initial rate-limit backoff interval")
	cmd.PersistentFlags().Duration("backoff-max", 60*time.Second, "Maximum rate-limit backoff interval")

	// Retry settings
	cmd.PersistentFlags().Int("max-retries", 3, "Maximum retries for rate-limited requests")

	// Logging flags
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-file", "", "Write structured logs to this file")

	// Bind flags to viper
	viper.BindPFlags(cmd.PersistentFlags())

	// Bind environment variables
	viper.SetEnvPrefix("TOURCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Load loads configuration from flags and environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.CredentialsFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.CredentialsFile = filepath.Join(home, ".config", "tourctl", "credentials.json")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base-url is required (flag --base-url or TOURCTL_BASE_URL)")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base-url: %w", err)
	}
	if c.RefreshPath == "" {
		return fmt.Errorf("refresh-path must not be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// RefreshEndpoint joins the base URL and the configured refresh path. The
// backend has been deployed both with and without a trailing slash on this
// route, so the path is taken verbatim from configuration; only the joining
// slash is normalized.
func (c *Config) RefreshEndpoint() string {
	base := strings.TrimSuffix(c.BaseURL, "/")
	return base + "/" + strings.TrimPrefix(c.RefreshPath, "/")
}

// GetBackoffConfig returns backoff settings derived from the config.
func (c *Config) GetBackoffConfig() backoff.Config {
	cfg := backoff.DefaultConfig()
	if c.BackoffInitial > 0 {
		cfg.InitialInterval = c.BackoffInitial
	}
	if c.BackoffMax > 0 {
		cfg.MaxInterval = c.BackoffMax
	}
	return cfg
}
