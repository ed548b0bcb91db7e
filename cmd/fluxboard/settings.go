package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpalmerr/fluxboard/config"
)

const envPrefix = "FLUXBOARD"

// overrideFlags maps config keys to the persistent flags that override them.
var overrideFlags = map[string]string{
	"port":           "port",
	"title":          "title",
	"log_level":      "log-level",
	"storage.driver": "storage-driver",
	"storage.path":   "storage-path",
	"comments.url":   "comments-url",
}

// loadSettings builds the effective configuration: the YAML file if one is
// given (by -c or FLUXBOARD_CONFIG), then FLUXBOARD_* environment variables,
// then flags. The result is validated.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range overrideFlags {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = v.GetString("config")
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if v.IsSet("port") {
		cfg.Port = v.GetInt("port")
	}
	if v.IsSet("title") {
		cfg.Title = v.GetString("title")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("storage.driver") {
		cfg.Storage.Driver = v.GetString("storage.driver")
	}
	if v.IsSet("storage.path") {
		cfg.Storage.Path = v.GetString("storage.path")
	}
	if v.IsSet("comments.url") {
		cfg.Comments.URL = v.GetString("comments.url")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger creates a JSON logger for CLI use at the configured level.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
