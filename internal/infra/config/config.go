package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/yanqian/fitbit-export/pkg/errors"
)

// Config aggregates runtime settings that are not secrets.
type Config struct {
	Fitbit  FitbitConfig  `yaml:"fitbit"`
	Auth    AuthConfig    `yaml:"auth"`
	Output  OutputConfig  `yaml:"output"`
	Archive ArchiveConfig `yaml:"archive"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// FitbitConfig points at the provider's API and OAuth2 endpoints.
type FitbitConfig struct {
	APIBaseURL     string        `yaml:"apiBaseUrl"`
	AuthURL        string        `yaml:"authUrl"`
	TokenURL       string        `yaml:"tokenUrl"`
	Scopes         []string      `yaml:"scopes"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
}

// AuthConfig drives the local callback server.
type AuthConfig struct {
	RedirectURL     string        `yaml:"redirectUrl"`
	BrowserDelay    time.Duration `yaml:"browserDelay"`
	ShutdownDelay   time.Duration `yaml:"shutdownDelay"`
	CallbackTimeout time.Duration `yaml:"callbackTimeout"`
}

// OutputConfig locates CSV and snapshot files.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	SnapshotDir string `yaml:"snapshotDir"`
}

// ArchiveConfig mirrors snapshots to an S3-compatible bucket when Endpoint is set.
type ArchiveConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"useSsl"`
}

// Enabled reports whether snapshots should be mirrored.
func (a ArchiveConfig) Enabled() bool {
	return strings.TrimSpace(a.Endpoint) != ""
}

// MetricsConfig enables the end-of-run Pushgateway push.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgatewayUrl"`
	Job            string `yaml:"job"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides. An explicit path must exist; otherwise CONFIG_PATH
// and then configs/config.yaml are tried.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	switch {
	case path != "":
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	case os.Getenv("CONFIG_PATH") != "":
		if err := hydrateFromFile(cfg, os.Getenv("CONFIG_PATH")); err != nil {
			return nil, err
		}
	default:
		if _, err := os.Stat("configs/config.yaml"); err == nil {
			if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
				return nil, err
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigInvalid, "invalid config", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeConfigInvalid, "read config file", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperrors.Wrap(apperrors.CodeConfigInvalid, "parse config file", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FITBIT_API_BASE_URL"); v != "" {
		cfg.Fitbit.APIBaseURL = v
	}
	if v := os.Getenv("FITBIT_AUTH_URL"); v != "" {
		cfg.Fitbit.AuthURL = v
	}
	if v := os.Getenv("FITBIT_TOKEN_URL"); v != "" {
		cfg.Fitbit.TokenURL = v
	}
	if v := os.Getenv("FITBIT_SCOPES"); v != "" {
		cfg.Fitbit.Scopes = strings.Fields(strings.ReplaceAll(v, ",", " "))
	}
	if v := os.Getenv("FITBIT_REQUEST_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Fitbit.RequestTimeout = parsed
		}
	}
	if v := os.Getenv("AUTH_REDIRECT_URL"); v != "" {
		cfg.Auth.RedirectURL = v
	}
	if v := os.Getenv("AUTH_CALLBACK_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.CallbackTimeout = parsed
		}
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SNAPSHOT_DIR"); v != "" {
		cfg.Output.SnapshotDir = v
	}
	if v := os.Getenv("ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("ARCHIVE_ACCESS_KEY"); v != "" {
		cfg.Archive.AccessKey = v
	}
	if v := os.Getenv("ARCHIVE_SECRET_KEY"); v != "" {
		cfg.Archive.SecretKey = v
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("ARCHIVE_USE_SSL"); v != "" {
		cfg.Archive.UseSSL = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("PUSHGATEWAY_URL"); v != "" {
		cfg.Metrics.PushgatewayURL = v
	}
	if v := os.Getenv("PUSHGATEWAY_JOB"); v != "" {
		cfg.Metrics.Job = v
	}
}

func defaultConfig() *Config {
	return &Config{
		Fitbit: FitbitConfig{
			APIBaseURL: "https://api.fitbit.com",
			AuthURL:    "https://www.fitbit.com/oauth2/authorize",
			TokenURL:   "https://api.fitbit.com/oauth2/token",
			Scopes: []string{
				"activity", "heartrate", "location", "nutrition",
				"profile", "settings", "sleep", "social", "weight",
			},
			RequestTimeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			RedirectURL:     "http://127.0.0.1:8080/",
			BrowserDelay:    time.Second,
			ShutdownDelay:   time.Second,
			CallbackTimeout: 5 * time.Minute,
		},
		Output: OutputConfig{
			Dir:         ".",
			SnapshotDir: ".",
		},
		Archive: ArchiveConfig{
			Prefix: "snapshots/",
			UseSSL: true,
		},
		Metrics: MetricsConfig{
			Job: "fitbit_export",
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Fitbit.APIBaseURL) == "" {
		return errors.New("fitbit.apiBaseUrl cannot be empty")
	}
	if c.Fitbit.AuthURL == "" || c.Fitbit.TokenURL == "" {
		return errors.New("fitbit.authUrl and fitbit.tokenUrl are required")
	}
	if len(c.Fitbit.Scopes) == 0 {
		return errors.New("fitbit.scopes cannot be empty")
	}
	if c.Fitbit.RequestTimeout <= 0 {
		return errors.New("fitbit.requestTimeout must be positive")
	}
	u, err := url.Parse(c.Auth.RedirectURL)
	if err != nil || u.Scheme != "http" || u.Host == "" {
		return fmt.Errorf("auth.redirectUrl %q must be an http URL with a host", c.Auth.RedirectURL)
	}
	if c.Auth.BrowserDelay < 0 || c.Auth.ShutdownDelay < 0 {
		return errors.New("auth delays cannot be negative")
	}
	if c.Auth.CallbackTimeout <= 0 {
		return errors.New("auth.callbackTimeout must be positive")
	}
	if c.Output.Dir == "" || c.Output.SnapshotDir == "" {
		return errors.New("output.dir and output.snapshotDir cannot be empty")
	}
	if c.Archive.Enabled() && strings.TrimSpace(c.Archive.Bucket) == "" {
		return errors.New("archive.bucket cannot be empty when archive.endpoint is set")
	}
	if c.Metrics.PushgatewayURL != "" && strings.TrimSpace(c.Metrics.Job) == "" {
		return errors.New("metrics.job cannot be empty when pushing metrics")
	}
	return nil
}

// CallbackAddr is the host:port the local callback server binds.
func (c *Config) CallbackAddr() string {
	u, err := url.Parse(c.Auth.RedirectURL)
	if err != nil {
		return ""
	}
	return u.Host
}
