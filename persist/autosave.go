package persist

import (
	"context"
	"log/slog"
)

// Source is the part of a store that [Autosave] needs.
type Source[M any] interface {
	Name() string
	Listen(fn func(M)) (unsubscribe func())
}

// Autosave subscribes to src and saves fragment(model) under key on every
// notification. It returns a function that stops saving.
//
// Save failures are logged and otherwise ignored; the next notification
// saves again. Saves run on the notifying goroutine.
func Autosave[M any](ctx context.Context, src Source[M], adapter Adapter, key string, fragment func(M) any, logger *slog.Logger) (stop func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if fragment == nil {
		fragment = func(m M) any { return m }
	}

	return src.Listen(func(m M) {
		if err := adapter.Save(ctx, key, fragment(m)); err != nil {
			logger.Error("autosave failed",
				"store", src.Name(),
				"key", key,
				"error", err,
			)
		}
	})
}
