package kanban

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/persist"
	"github.com/jpalmerr/fluxboard/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newNotes(t *testing.T) (*store.Store[Notes], *action.Dispatcher) {
	t.Helper()
	s := NewNotesStore(store.WithLogger(discardLogger()))
	d := action.NewDispatcher(action.Inline{})
	t.Cleanup(s.Bind(d))
	return s, d
}

func TestCreateNote_AppendsAndPersists(t *testing.T) {
	s, d := newNotes(t)
	storage := persist.NewMemoryStorage()
	kv := persist.NewKV(storage, discardLogger())
	defer PersistNotes(context.Background(), s, d, kv, discardLogger())()

	d.Emit(CreateNote, Note{ID: "1", Task: "New Task"})

	want := []Note{{ID: "1", Task: "New Task"}}
	if diff := cmp.Diff(want, s.State().Notes); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}

	raw, err := storage.Get(NotesKey)
	if err != nil {
		t.Fatalf("nothing persisted under %q: %v", NotesKey, err)
	}
	if got := string(raw); got != `[{"id":"1","task":"New Task"}]` {
		t.Errorf("persisted JSON = %s", got)
	}
}

func TestRemoveNote_PreservesOrder(t *testing.T) {
	s, d := newNotes(t)
	d.Emit(InitNotes, []Note{{ID: "1", Task: "first"}, {ID: "2", Task: "second"}})

	d.Emit(RemoveNote, "1")

	want := []Note{{ID: "2", Task: "second"}}
	if diff := cmp.Diff(want, s.State().Notes); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveNote_MiddleOfThree(t *testing.T) {
	s, d := newNotes(t)
	d.Emit(InitNotes, []Note{{ID: "a"}, {ID: "b"}, {ID: "c"}})

	notifications := 0
	defer s.Listen(func(Notes) { notifications++ })()

	d.Emit(RemoveNote, Note{ID: "b"})
	d.Emit(RemoveNote, "missing")

	got := s.State().Notes
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("notes = %+v, want [a c]", got)
	}
	if notifications != 1 {
		t.Errorf("notifications = %d, want 1 (unknown id does not notify)", notifications)
	}
}

func TestCreateNote_Payloads(t *testing.T) {
	tests := []struct {
		name     string
		payload  any
		wantTask string
		wantID   string
	}{
		{name: "note with id", payload: Note{ID: "x", Task: "write"}, wantTask: "write", wantID: "x"},
		{name: "bare task", payload: "New Task", wantTask: "New Task"},
		{name: "raw json task", payload: json.RawMessage(`"from http"`), wantTask: "from http"},
		{name: "raw json note", payload: json.RawMessage(`{"task":"json"}`), wantTask: "json"},
		{name: "nil", payload: nil, wantTask: DefaultTask},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d := newNotes(t)
			d.Emit(CreateNote, tt.payload)

			notes := s.State().Notes
			if len(notes) != 1 {
				t.Fatalf("notes = %+v, want one", notes)
			}
			if notes[0].Task != tt.wantTask {
				t.Errorf("Task = %q, want %q", notes[0].Task, tt.wantTask)
			}
			if tt.wantID != "" {
				if notes[0].ID != tt.wantID {
					t.Errorf("ID = %q, want %q", notes[0].ID, tt.wantID)
				}
			} else if _, err := uuid.Parse(notes[0].ID); err != nil {
				t.Errorf("generated ID %q is not a uuid: %v", notes[0].ID, err)
			}
		})
	}
}

func TestCreateNote_BadPayloadIgnored(t *testing.T) {
	s, d := newNotes(t)
	d.Emit(CreateNote, 3.14)
	if len(s.State().Notes) != 0 {
		t.Errorf("notes = %+v, want none", s.State().Notes)
	}
}

func TestUpdateNote(t *testing.T) {
	s, d := newNotes(t)
	d.Emit(InitNotes, []Note{{ID: "1", Task: "old"}, {ID: "2", Task: "other"}})

	d.Emit(UpdateNote, Note{ID: "1", Task: "new"})

	want := []Note{{ID: "1", Task: "new"}, {ID: "2", Task: "other"}}
	if diff := cmp.Diff(want, s.State().Notes); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}
}

func TestEditNote(t *testing.T) {
	s, d := newNotes(t)
	d.Emit(InitNotes, []Note{{ID: "1", Task: "keep"}, {ID: "2", Task: "drop"}})

	EditNote(d, "1", "edited")
	EditNote(d, "2", "")

	want := []Note{{ID: "1", Task: "edited"}}
	if diff := cmp.Diff(want, s.State().Notes); diff != "" {
		t.Errorf("notes mismatch (-want +got):\n%s", diff)
	}
}

func TestInitNotes_NilResetsToEmpty(t *testing.T) {
	s, d := newNotes(t)
	d.Emit(CreateNote, "something")
	d.Emit(InitNotes, nil)

	notes := s.State().Notes
	if notes == nil || len(notes) != 0 {
		t.Errorf("notes = %#v, want empty non-nil", notes)
	}
}

func TestPersistNotes_RestoresSavedBoard(t *testing.T) {
	storage := persist.NewMemoryStorage()
	kv := persist.NewKV(storage, discardLogger())
	ctx := context.Background()

	saved := []Note{{ID: "1", Task: "kept"}, {ID: "2", Task: "also kept"}}
	if err := kv.Save(ctx, NotesKey, saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	s, d := newNotes(t)
	defer PersistNotes(ctx, s, d, kv, discardLogger())()

	if diff := cmp.Diff(saved, s.State().Notes); diff != "" {
		t.Errorf("restored notes mismatch (-want +got):\n%s", diff)
	}
}

func TestPersistNotes_CorruptValueStartsEmpty(t *testing.T) {
	storage := persist.NewMemoryStorage()
	_ = storage.Put(NotesKey, []byte("{broken"))
	kv := persist.NewKV(storage, discardLogger())

	s, d := newNotes(t)
	defer PersistNotes(context.Background(), s, d, kv, discardLogger())()

	if len(s.State().Notes) != 0 {
		t.Errorf("notes = %+v, want empty", s.State().Notes)
	}

	d.Emit(CreateNote, Note{ID: "1", Task: "fresh"})
	raw, _ := storage.Get(NotesKey)
	if string(raw) != `[{"id":"1","task":"fresh"}]` {
		t.Errorf("persisted JSON = %s", raw)
	}
}

func TestPersistNotes_StopHaltsSaving(t *testing.T) {
	storage := persist.NewMemoryStorage()
	kv := persist.NewKV(storage, discardLogger())

	s, d := newNotes(t)
	stop := PersistNotes(context.Background(), s, d, kv, discardLogger())
	d.Emit(CreateNote, Note{ID: "1", Task: "saved"})
	stop()
	d.Emit(CreateNote, Note{ID: "2", Task: "not saved"})

	var got []Note
	kv.Load(context.Background(), NotesKey, &got)
	if len(got) != 1 {
		t.Errorf("persisted notes = %+v, want only the first", got)
	}
}

func TestLanes(t *testing.T) {
	s := NewLanesStore(store.WithLogger(discardLogger()))
	d := action.NewDispatcher(action.Inline{})
	defer s.Bind(d)()

	storage := persist.NewMemoryStorage()
	kv := persist.NewKV(storage, discardLogger())
	defer PersistLanes(context.Background(), s, d, kv, discardLogger())()

	d.Emit(CreateLane, Lane{ID: uuid.NewString(), Name: DefaultLaneName})
	d.Emit(CreateLane, "Review")
	d.Emit(CreateLane, nil)

	lanes := s.State().Lanes
	if len(lanes) != 3 {
		t.Fatalf("lanes = %+v, want 3", lanes)
	}
	names := []string{lanes[0].Name, lanes[1].Name, lanes[2].Name}
	if diff := cmp.Diff([]string{DefaultLaneName, "Review", DefaultLaneName}, names); diff != "" {
		t.Errorf("lane names mismatch (-want +got):\n%s", diff)
	}
	for _, l := range lanes {
		if _, err := uuid.Parse(l.ID); err != nil {
			t.Errorf("lane id %q is not a uuid", l.ID)
		}
	}

	var saved []Lane
	if !kv.Load(context.Background(), LanesKey, &saved) {
		t.Fatal("lanes not persisted")
	}
	if diff := cmp.Diff(lanes, saved); diff != "" {
		t.Errorf("persisted lanes mismatch (-want +got):\n%s", diff)
	}
}

func TestHello_DoesNotNotify(t *testing.T) {
	s := NewLanesStore(store.WithLogger(discardLogger()))
	d := action.NewDispatcher(action.Inline{})
	defer s.Bind(d)()

	notifications := 0
	defer s.Listen(func(Lanes) { notifications++ })()

	d.Emit(Hello, nil)
	if notifications != 0 {
		t.Errorf("notifications = %d, want 0", notifications)
	}
}

func TestNotesAndLanesKindsDoNotCollide(t *testing.T) {
	notes, d := newNotes(t)
	lanes := NewLanesStore(store.WithLogger(discardLogger()))
	defer lanes.Bind(d)()

	d.Emit(CreateLane, "Backlog")
	d.Emit(CreateNote, "Task")

	if len(notes.State().Notes) != 1 || len(lanes.State().Lanes) != 1 {
		t.Errorf("notes = %+v, lanes = %+v, want one each", notes.State().Notes, lanes.State().Lanes)
	}
}
