// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvAPIBaseURL = "RESUMEFLOW_API_BASE_URL"
	EnvTimeout    = "RESUMEFLOW_TIMEOUT"
	EnvLogFile    = "RESUMEFLOW_LOG_FILE"
	EnvLogLevel   = "RESUMEFLOW_LOG_LEVEL"
	EnvJDCacheTTL = "RESUMEFLOW_JD_CACHE_TTL"
)

// Duration is a time.Duration written as a Go duration string in JSON.
type Duration time.Duration

// UnmarshalJSON accepts "30s" style strings and bare numbers of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var secs float64
		if err := json.Unmarshal(b, &secs); err != nil {
			return fmt.Errorf("invalid duration %s", b)
		}
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// MarshalJSON writes the duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func parseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return Duration(v), nil
}

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use Defaults.
type Config struct {
	// Collaborator
	APIBaseURL string   `json:"api_base_url,omitempty" validate:"required,url"` // Analysis service base URL
	Timeout    Duration `json:"timeout,omitempty" validate:"gte=0"`             // Per-call timeout, 0 waits forever
	UserAgent  string   `json:"user_agent,omitempty"`

	// Caching
	JDCacheTTL     Duration `json:"jd_cache_ttl,omitempty" validate:"gte=0"` // Role catalog and JD text cache lifetime
	DisableJDCache bool     `json:"disable_jd_cache,omitempty"`

	// Workflow
	DefaultRole    string `json:"default_role,omitempty" validate:"required"`
	MaxUploadBytes int64  `json:"max_upload_bytes,omitempty" validate:"gte=0"`
	DownloadDir    string `json:"download_dir,omitempty"`

	// Logging
	LogFile  string `json:"log_file,omitempty"`
	LogLevel string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogJSON  bool   `json:"log_json,omitempty"`
	Verbose  bool   `json:"verbose,omitempty"` // Print every output in full
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIBaseURL:     "http://127.0.0.1:5000/api",
		JDCacheTTL:     Duration(10 * time.Minute),
		DefaultRole:    "Software Engineer",
		MaxUploadBytes: 10 << 20,
		DownloadDir:    ".",
		LogLevel:       "warn",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: the optional file at path merged over Defaults,
// then environment overrides. Variables in envFile, when given, win over the process environment.
func Load(path, envFile string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	merged := cfg.MergeWithDefaults(Defaults())

	lookup := os.LookupEnv
	if envFile != "" {
		vars, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		lookup = func(key string) (string, bool) {
			if v, ok := vars[key]; ok {
				return v, true
			}
			return os.LookupEnv(key)
		}
	}
	if err := merged.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides fields from the RESUMEFLOW_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIBaseURL); ok && v != "" {
		c.APIBaseURL = v
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config error: %s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := lookup(EnvLogFile); ok {
		c.LogFile = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup(EnvJDCacheTTL); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config error: %s: %w", EnvJDCacheTTL, err)
		}
		c.JDCacheTTL = d
		c.DisableJDCache = d == 0
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config error: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("'%s' failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("'%s' failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIBaseURL == "" {
		result.APIBaseURL = defaults.APIBaseURL
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if result.DefaultRole == "" {
		result.DefaultRole = defaults.DefaultRole
	}
	if result.DownloadDir == "" {
		result.DownloadDir = defaults.DownloadDir
	}
	if result.LogFile == "" {
		result.LogFile = defaults.LogFile
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	if result.Timeout == 0 {
		result.Timeout = defaults.Timeout
	}
	if result.JDCacheTTL == 0 {
		result.JDCacheTTL = defaults.JDCacheTTL
	}
	if result.MaxUploadBytes == 0 {
		result.MaxUploadBytes = defaults.MaxUploadBytes
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// CacheTTL is the effective JD cache lifetime; 0 means no cache.
func (c *Config) CacheTTL() time.Duration {
	if c.DisableJDCache {
		return 0
	}
	return c.JDCacheTTL.Std()
}
