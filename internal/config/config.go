// Package config loads the similarity service configuration from defaults, an
// optional YAML file, a .env file and TYPINGSIM_* environment variables, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TYPINGSIM_"

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Biometric BiometricConfig `yaml:"biometric"`
	Alert     AlertConfig     `yaml:"alert"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	MaxRequestSize int           `yaml:"max_request_size"`
	// Concurrency of 0 means fasthttp's default.
	Concurrency int  `yaml:"concurrency"`
	WarmUp      bool `yaml:"warm_up"`
}

// ScoringConfig configures the authenticity decision.
type ScoringConfig struct {
	Threshold      float64 `yaml:"threshold"`
	MinLengthRatio float64 `yaml:"min_length_ratio"`
	MaxAttempts    int     `yaml:"max_attempts"`
	// MaxTextLength bounds each text accepted by the HTTP service, in runes.
	MaxTextLength int `yaml:"max_text_length"`
}

// BiometricConfig points at the optional keystroke-biometric service.
type BiometricConfig struct {
	// URL is the service base, e.g. http://localhost:8080/api/keystroke. Empty disables it.
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether a biometric service is configured.
func (b BiometricConfig) Enabled() bool {
	return strings.TrimSpace(b.URL) != ""
}

// AlertConfig points at the optional breach alert service.
type AlertConfig struct {
	// URL is the service base, e.g. http://localhost:8080/api/alert. Empty disables it.
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether an alert service is configured.
func (a AlertConfig) Enabled() bool {
	return strings.TrimSpace(a.URL) != ""
}

// LogConfig configures logging output.
type LogConfig struct {
	// File is appended to; empty means stdout.
	File string `yaml:"file"`
	JSON bool   `yaml:"json"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxRequestSize: 1024 * 1024,
			Concurrency:    0,
			WarmUp:         true,
		},
		Scoring: ScoringConfig{
			Threshold:      0.6,
			MinLengthRatio: 0.6,
			MaxAttempts:    3,
			MaxTextLength:  10000,
		},
		Biometric: BiometricConfig{
			Timeout: 5 * time.Second,
		},
		Alert: AlertConfig{
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			JSON: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load builds the configuration. path may be empty to skip the YAML file. A
// missing .env file in the working directory is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Server.MaxRequestSize <= 0 {
		return errors.New("max_request_size must be greater than 0")
	}
	if c.Server.Concurrency < 0 {
		return errors.New("concurrency must not be negative")
	}
	if c.Scoring.Threshold < 0 || c.Scoring.Threshold > 1 {
		return errors.New("threshold must be between 0 and 1")
	}
	if c.Scoring.MinLengthRatio < 0 || c.Scoring.MinLengthRatio > 1 {
		return errors.New("min_length_ratio must be between 0 and 1")
	}
	if c.Scoring.MaxAttempts <= 0 {
		return errors.New("max_attempts must be greater than 0")
	}
	if c.Scoring.MaxTextLength <= 0 {
		return errors.New("max_text_length must be greater than 0")
	}
	if c.Biometric.Enabled() && c.Biometric.Timeout <= 0 {
		return errors.New("biometric timeout must be greater than 0")
	}
	if c.Alert.Enabled() && c.Alert.Timeout <= 0 {
		return errors.New("alert timeout must be greater than 0")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path %q must start with /", c.Metrics.Path)
	}
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error
	setInt := func(key string, dst *int) {
		if v, ok := lookupEnv(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	setFloat := func(key string, dst *float64) {
		if v, ok := lookupEnv(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := lookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := lookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}
	setString := func(key string, dst *string) {
		if v, ok := lookupEnv(key); ok {
			*dst = v
		}
	}

	setInt("PORT", &c.Server.Port)
	setDuration("READ_TIMEOUT", &c.Server.ReadTimeout)
	setDuration("WRITE_TIMEOUT", &c.Server.WriteTimeout)
	setInt("MAX_REQUEST_SIZE", &c.Server.MaxRequestSize)
	setInt("CONCURRENCY", &c.Server.Concurrency)
	setBool("WARM_UP", &c.Server.WarmUp)

	setFloat("THRESHOLD", &c.Scoring.Threshold)
	setFloat("MIN_LENGTH_RATIO", &c.Scoring.MinLengthRatio)
	setInt("MAX_ATTEMPTS", &c.Scoring.MaxAttempts)
	setInt("MAX_TEXT_LENGTH", &c.Scoring.MaxTextLength)

	setString("BIOMETRIC_URL", &c.Biometric.URL)
	setDuration("BIOMETRIC_TIMEOUT", &c.Biometric.Timeout)

	setString("ALERT_URL", &c.Alert.URL)
	setDuration("ALERT_TIMEOUT", &c.Alert.Timeout)

	setString("LOG_FILE", &c.Log.File)
	setBool("LOG_JSON", &c.Log.JSON)

	setBool("METRICS_ENABLED", &c.Metrics.Enabled)
	setString("METRICS_PATH", &c.Metrics.Path)

	return errors.Join(errs...)
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}
