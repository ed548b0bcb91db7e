package kanban

import (
	"context"
	"log/slog"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/persist"
	"github.com/jpalmerr/fluxboard/store"
)

// Storage keys for the board.
const (
	NotesKey = "notes"
	LanesKey = "lanes"
)

// PersistNotes loads the saved notes into s through the init action, then
// saves the notes array under [NotesKey] on every notification. A missing or
// unreadable value starts the board empty. It returns a function that stops
// saving.
func PersistNotes(ctx context.Context, s *store.Store[Notes], d *action.Dispatcher, adapter persist.Adapter, logger *slog.Logger) (stop func()) {
	var saved []Note
	if !adapter.Load(ctx, NotesKey, &saved) {
		saved = nil
	}
	d.Emit(InitNotes, saved)

	return persist.Autosave(ctx, s, adapter, NotesKey, func(m Notes) any {
		if m.Notes == nil {
			return []Note{}
		}
		return m.Notes
	}, logger)
}

// PersistLanes is [PersistNotes] for the lanes store, under [LanesKey].
func PersistLanes(ctx context.Context, s *store.Store[Lanes], d *action.Dispatcher, adapter persist.Adapter, logger *slog.Logger) (stop func()) {
	var saved []Lane
	if !adapter.Load(ctx, LanesKey, &saved) {
		saved = nil
	}
	d.Emit(InitLanes, saved)

	return persist.Autosave(ctx, s, adapter, LanesKey, func(m Lanes) any {
		if m.Lanes == nil {
			return []Lane{}
		}
		return m.Lanes
	}, logger)
}

