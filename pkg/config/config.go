package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/handover"
	ConfigFileName    = "handover.yml"
	DefaultEnvFile    = ".env"
)

const (
	SourceDefault     = "default"
	SourceFile        = "file"
	SourceEnvironment = "environment"
)

var validLogLevels = []string{"debug", "info", "warn", "warning", "error"}

// Config holds all handover-tracker settings
type Config struct {
	// DatabaseURL is the Postgres connection string
	DatabaseURL string `yaml:"database_url" json:"database_url" env:"DATABASE_URL"`

	// BindAddress and Port are where the HTTP server listens
	BindAddress string `yaml:"bind_address" json:"bind_address" env:"BIND_ADDRESS"`
	Port        int    `yaml:"port" json:"port" env:"PORT"`

	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"log_level" json:"log_level" env:"HANDOVER_LOG_LEVEL"`

	// CORSAllowedOrigins lists the origins the single-page app is served from
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" json:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`

	// JWTSecret verifies access tokens issued by the hosted auth service
	JWTSecret string `yaml:"jwt_secret" json:"-" env:"SUPABASE_JWT_SECRET"`

	// CronSecret is the bearer token the scheduler presents to the sync endpoints
	CronSecret string `yaml:"cron_secret" json:"-" env:"CRON_SECRET"`

	// SyncEndpointURL is the downstream endpoint the cron trigger calls
	SyncEndpointURL   string `yaml:"sync_endpoint_url" json:"sync_endpoint_url" env:"SYNC_ENDPOINT_URL"`
	SyncRetryAttempts uint   `yaml:"sync_retry_attempts" json:"sync_retry_attempts" env:"SYNC_RETRY_ATTEMPTS"`

	// Google service account used by the sheet sync
	GoogleServiceAccountEmail string `yaml:"google_service_account_email" json:"google_service_account_email" env:"GOOGLE_SERVICE_ACCOUNT_EMAIL"`
	GooglePrivateKey          string `yaml:"google_private_key" json:"-" env:"GOOGLE_PRIVATE_KEY"`
	GoogleSheetID             string `yaml:"google_sheet_id" json:"google_sheet_id" env:"GOOGLE_SHEET_ID"`
	GoogleSheetRange          string `yaml:"google_sheet_range" json:"google_sheet_range" env:"GOOGLE_SHEET_RANGE"`

	// Timezone is used to bucket due dates into calendar days
	Timezone string `yaml:"timezone" json:"timezone" env:"HANDOVER_TIMEZONE"`

	sources        map[string]string
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

type attribute struct {
	name   string
	env    string
	secret bool
	value  func(c *Config) string
}

var attributes = []attribute{
	{"database_url", "DATABASE_URL", true, func(c *Config) string { return c.DatabaseURL }},
	{"bind_address", "BIND_ADDRESS", false, func(c *Config) string { return c.BindAddress }},
	{"port", "PORT", false, func(c *Config) string { return strconv.Itoa(c.Port) }},
	{"log_level", "HANDOVER_LOG_LEVEL", false, func(c *Config) string { return c.LogLevel }},
	{"cors_allowed_origins", "CORS_ALLOWED_ORIGINS", false, func(c *Config) string { return strings.Join(c.CORSAllowedOrigins, ",") }},
	{"jwt_secret", "SUPABASE_JWT_SECRET", true, func(c *Config) string { return c.JWTSecret }},
	{"cron_secret", "CRON_SECRET", true, func(c *Config) string { return c.CronSecret }},
	{"sync_endpoint_url", "SYNC_ENDPOINT_URL", false, func(c *Config) string { return c.SyncEndpointURL }},
	{"sync_retry_attempts", "SYNC_RETRY_ATTEMPTS", false, func(c *Config) string { return strconv.FormatUint(uint64(c.SyncRetryAttempts), 10) }},
	{"google_service_account_email", "GOOGLE_SERVICE_ACCOUNT_EMAIL", false, func(c *Config) string { return c.GoogleServiceAccountEmail }},
	{"google_private_key", "GOOGLE_PRIVATE_KEY", true, func(c *Config) string { return c.GooglePrivateKey }},
	{"google_sheet_id", "GOOGLE_SHEET_ID", false, func(c *Config) string { return c.GoogleSheetID }},
	{"google_sheet_range", "GOOGLE_SHEET_RANGE", false, func(c *Config) string { return c.GoogleSheetRange }},
	{"timezone", "HANDOVER_TIMEZONE", false, func(c *Config) string { return c.Timezone }},
}

func newDefault() *Config {
	c := &Config{
		BindAddress:        "0.0.0.0",
		Port:               8000,
		LogLevel:           "info",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		SyncRetryAttempts:  3,
		GoogleSheetRange:   "Handovers!A1:O",
		Timezone:           "UTC",
		sources:            make(map[string]string),
	}
	for _, a := range attributes {
		c.sources[a.name] = SourceDefault
	}
	return c
}

// Load builds the configuration from defaults, the YAML config file and the
// environment, in increasing order of precedence. A .env file in the working
// directory (or HANDOVER_ENV_FILE) is loaded first without overriding
// variables already present in the process environment.
func Load() (*Config, error) {
	envFile := os.Getenv("HANDOVER_ENV_FILE")
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	configPath := os.Getenv("HANDOVER_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	return LoadFile(filepath.Join(configPath, ConfigFileName))
}

// LoadFile is Load with an explicit config file path. A missing file is not
// an error.
func LoadFile(path string) (*Config, error) {
	cfg := newDefault()
	cfg.configFilePath = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.applyFile(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(data []byte) error {
	var present map[string]any
	if err := yaml.Unmarshal(data, &present); err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	for _, a := range attributes {
		if _, ok := present[a.name]; ok {
			c.sources[a.name] = SourceFile
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	byEnv := make(map[string]string, len(attributes))
	for _, a := range attributes {
		byEnv[a.env] = a.name
	}

	err := env.ParseWithOptions(c, env.Options{
		OnSet: func(tag string, value any, isDefault bool) {
			if s, ok := value.(string); ok && s != "" && !isDefault {
				if name, ok := byEnv[tag]; ok {
					c.sources[name] = SourceEnvironment
				}
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// ConfigFilePath returns the path to the config file
func (c *Config) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *Config) Source(name string) string {
	if s, ok := c.sources[name]; ok {
		return s
	}
	return SourceDefault
}

// Location returns the time zone used for calendar-day arithmetic
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr returns the listen address for the HTTP server
func (c *Config) Addr() string {
	return c.BindAddress + ":" + strconv.Itoa(c.Port)
}

// GoogleConfigured reports whether the sheet sync has everything it needs
func (c *Config) GoogleConfigured() bool {
	return c.GoogleServiceAccountEmail != "" && c.GooglePrivateKey != "" && c.GoogleSheetID != ""
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	level := strings.ToLower(c.LogLevel)
	valid := false
	for _, l := range validLogLevels {
		if l == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	if c.SyncEndpointURL != "" {
		u, err := url.Parse(c.SyncEndpointURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid sync_endpoint_url: %s", c.SyncEndpointURL)
		}
	}

	if c.SyncRetryAttempts == 0 {
		return errors.New("sync_retry_attempts must be at least 1")
	}

	return nil
}

// Attributes returns all configuration attributes with their values and
// sources. Secrets are masked.
func (c *Config) Attributes() []Attribute {
	attrs := make([]Attribute, 0, len(attributes))
	for _, a := range attributes {
		value := a.value(c)
		if a.secret && value != "" {
			value = "********"
		}
		attrs = append(attrs, Attribute{Name: a.name, Value: value, Source: c.Source(a.name)})
	}
	return attrs
}

// FormatText returns a text representation of the configuration
func (c *Config) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-32s %-36s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-32s %-36s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-32s %-36s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *Config) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
