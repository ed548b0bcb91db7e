package config

import (
	"log/slog"

	"github.com/jpalmerr/fluxboard"
	"github.com/jpalmerr/fluxboard/apps/comments"
)

// BoardOptions converts a Config to [fluxboard.Option] values.
//
// The logger is passed through to [fluxboard.WithLogger]; nil leaves the
// board on slog.Default(). cfg is expected to have passed [Config.Validate].
func BoardOptions(cfg *Config, logger *slog.Logger) []fluxboard.Option {
	opts := []fluxboard.Option{
		fluxboard.WithPort(cfg.Port),
		fluxboard.WithTitle(cfg.Title),
		fluxboard.WithStorage(cfg.Storage.Driver, cfg.Storage.Path),
		fluxboard.WithCommentsURL(cfg.Comments.URL),
		fluxboard.WithRequestTimeout(cfg.Comments.Timeout.Duration()),
		fluxboard.WithPollInterval(cfg.Comments.PollInterval.Duration()),
		fluxboard.WithHeartbeat(cfg.Heartbeat.Duration()),
	}
	if logger != nil {
		opts = append(opts, fluxboard.WithLogger(logger))
	}
	if seed := SeedComments(cfg); len(seed) > 0 {
		opts = append(opts, fluxboard.WithSeedComments(seed...))
	}
	return opts
}

// SeedComments converts the configured seed comments.
func SeedComments(cfg *Config) []comments.Comment {
	out := make([]comments.Comment, 0, len(cfg.Comments.Seed))
	for _, s := range cfg.Comments.Seed {
		out = append(out, comments.Comment{Author: s.Author, Text: s.Text})
	}
	return out
}
