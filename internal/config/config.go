// Package config loads CLI configuration from a .env file, a YAML file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	APIKey         string          `yaml:"api_key,omitempty"`
	BaseURL        string          `yaml:"base_url,omitempty"`
	Model          string          `yaml:"model,omitempty"`
	TimeoutSeconds int             `yaml:"timeout_seconds,omitempty"`
	OutputDir      string          `yaml:"output_dir,omitempty"`
	S3Bucket       string          `yaml:"s3_bucket,omitempty"`
	S3Prefix       string          `yaml:"s3_prefix,omitempty"`
	RateLimit      RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// RateLimitConfig overrides the model's published rate limits. Zero values
// keep the model defaults.
type RateLimitConfig struct {
	TokensPerMinute   int `yaml:"tokens_per_minute,omitempty"`
	RequestsPerMinute int `yaml:"requests_per_minute,omitempty"`
}

// Timeout returns the per-request timeout, or zero for none.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultConfigPath returns ~/.imageedit/config.yaml, or config.yaml in the
// current directory when the home directory is unknown.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "config.yaml"
	}
	return filepath.Join(home, ".imageedit", "config.yaml")
}

// Load reads .env from the working directory if present, then the YAML file
// at path, then applies environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

// LoadFile loads configuration from the specified path.
// A missing file yields the defaults without error.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{OutputDir: "."}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIKey = getEnv("API_KEY", getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", c.APIKey)))
	c.BaseURL = getEnv("IMAGEEDIT_BASE_URL", c.BaseURL)
	c.Model = getEnv("IMAGEEDIT_MODEL", c.Model)
	c.TimeoutSeconds = getEnvInt("IMAGEEDIT_TIMEOUT", c.TimeoutSeconds)
	c.OutputDir = getEnv("IMAGEEDIT_OUTPUT_DIR", c.OutputDir)
	c.S3Bucket = getEnv("IMAGEEDIT_S3_BUCKET", c.S3Bucket)
	c.S3Prefix = getEnv("IMAGEEDIT_S3_PREFIX", c.S3Prefix)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
