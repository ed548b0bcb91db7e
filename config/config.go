// Package config provides YAML configuration parsing for fluxboard.
//
// This package enables running fluxboard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Team Board
//	port: 8080
//	log_level: info
//
//	storage:
//	  driver: bolt
//	  path: ${FLUXBOARD_HOME:-.}/board.db
//
//	comments:
//	  url: /comments.json
//	  timeout: 5s
//	  poll_interval: 30s
//	  seed:
//	    - author: ann
//	      text: Welcome to the board
//
//	heartbeat: 1m
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by [Parse].
const (
	DefaultPort           = 8080
	DefaultLogLevel       = "info"
	DefaultStorageDriver  = "memory"
	DefaultCommentsURL    = "/comments.json"
	DefaultRequestTimeout = 10 * time.Second
)

// minInterval and maxInterval bound the poll and heartbeat intervals.
const (
	minInterval = 1 * time.Second
	maxInterval = 1 * time.Hour
)

// Config is the root configuration structure for fluxboard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "fluxboard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`

	// Storage selects where the Kanban board is saved.
	Storage StorageConfig `yaml:"storage"`

	// Comments configures the comment list.
	Comments CommentsConfig `yaml:"comments"`

	// Heartbeat records a heartbeat event at this interval. Zero disables it.
	Heartbeat Duration `yaml:"heartbeat"`
}

// StorageConfig selects where the board is saved.
type StorageConfig struct {
	// Driver is memory, bolt, sqlite or remote. Defaults to memory.
	Driver string `yaml:"driver"`

	// Path is the database file for bolt and sqlite. For remote it is the
	// key-value URL of another board, e.g. http://host:8080/api/kv/team.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Path string `yaml:"path"`
}

// CommentsConfig configures the comment list store.
type CommentsConfig struct {
	// URL is the endpoint the comment list loads from and posts to.
	// Relative URLs resolve against the board's own server.
	// Supports environment variable substitution.
	URL string `yaml:"url"`

	// Timeout bounds each request. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// PollInterval reloads the list at this interval. Zero loads it once.
	PollInterval Duration `yaml:"poll_interval"`

	// Seed preloads the built-in comment backend.
	Seed []CommentConfig `yaml:"seed"`
}

// CommentConfig is one seeded comment.
type CommentConfig struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		name := sub[1]
		hasDefault := sub[2] != ""

		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		if hasDefault {
			return sub[3]
		}
		firstErr = fmt.Errorf("environment variable %q is not set", name)
		return match
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in storage.path and comments.url.
// Defaults are applied, then the result is validated.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.expand(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a Config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills in unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DefaultStorageDriver
	}
	if c.Comments.URL == "" {
		c.Comments.URL = DefaultCommentsURL
	}
	if c.Comments.Timeout == 0 {
		c.Comments.Timeout = Duration(DefaultRequestTimeout)
	}
}

// expand substitutes environment variables.
func (c *Config) expand() error {
	path, err := expandEnvVars(c.Storage.Path)
	if err != nil {
		return fmt.Errorf("storage.path: %w", err)
	}
	c.Storage.Path = path

	u, err := expandEnvVars(c.Comments.URL)
	if err != nil {
		return fmt.Errorf("comments.url: %w", err)
	}
	c.Comments.URL = u
	return nil
}

// Validate checks the configuration. It is called by [Parse] and again by
// callers that override fields after loading.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	switch c.Storage.Driver {
	case "memory":
	case "bolt", "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage: driver %q requires a path", c.Storage.Driver)
		}
	case "remote":
		u, err := url.Parse(c.Storage.Path)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("storage: driver remote requires an http(s) url path, got %q", c.Storage.Path)
		}
	default:
		return fmt.Errorf("storage: unknown driver %q (valid: memory, bolt, sqlite, remote)", c.Storage.Driver)
	}

	parsed, err := url.Parse(c.Comments.URL)
	if err != nil {
		return fmt.Errorf("comments: invalid url: %w", err)
	}
	if parsed.Scheme != "" && parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("comments: url scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Scheme == "" && !strings.HasPrefix(c.Comments.URL, "/") {
		return fmt.Errorf("comments: relative url must start with /, got %q", c.Comments.URL)
	}

	if c.Comments.Timeout.Duration() < time.Second {
		return fmt.Errorf("comments: timeout must be at least 1s, got %s", c.Comments.Timeout.Duration())
	}
	if err := validateInterval("comments: poll_interval", c.Comments.PollInterval); err != nil {
		return err
	}
	if err := validateInterval("heartbeat", c.Heartbeat); err != nil {
		return err
	}

	for i, s := range c.Comments.Seed {
		if s.Author == "" || s.Text == "" {
			return fmt.Errorf("comments: seed[%d]: author and text are required", i)
		}
	}
	return nil
}

// validateInterval accepts zero (disabled) or a duration between 1s and 1h.
func validateInterval(field string, d Duration) error {
	if d == 0 {
		return nil
	}
	if d.Duration() < minInterval {
		return fmt.Errorf("%s must be at least %s, got %s", field, minInterval, d.Duration())
	}
	if d.Duration() > maxInterval {
		return fmt.Errorf("%s must not exceed %s, got %s", field, maxInterval, d.Duration())
	}
	return nil
}

// ParseLevel maps a log_level value to a [slog.Level].
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q (valid: debug, info, warn, error)", s)
	}
}
