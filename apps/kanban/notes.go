// Package kanban implements the Kanban board: a notes store and a lanes
// store, each persisted as a JSON array under its own key.
package kanban

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/store"
)

// NotesStoreName is the name of the notes store.
const NotesStoreName = "notes"

// DefaultTask is the task text given to notes created without one.
const DefaultTask = "New Task"

// Action kinds handled by the notes store.
const (
	InitNotes  action.Kind = "notes.init"
	CreateNote action.Kind = "notes.create"
	UpdateNote action.Kind = "notes.update"
	RemoveNote action.Kind = "notes.remove"
)

// NoteKinds lists every kind the notes store handles.
var NoteKinds = []action.Kind{InitNotes, CreateNote, UpdateNote, RemoveNote}

// Note is one card on the board.
type Note struct {
	ID   string `json:"id"`
	Task string `json:"task"`
}

// Notes is the notes store model.
type Notes struct {
	Notes []Note `json:"notes"`
}

// Clone returns a deep copy of n.
func (n Notes) Clone() Notes {
	if n.Notes != nil {
		n.Notes = append([]Note(nil), n.Notes...)
	}
	return n
}

// Index returns the position of the note with id, or -1.
func (n Notes) Index(id string) int {
	for i, note := range n.Notes {
		if note.ID == id {
			return i
		}
	}
	return -1
}

// NewNotesStore creates the notes store with an empty list.
func NewNotesStore(opts ...store.Option) *store.Store[Notes] {
	return store.New(NotesStoreName, Notes{Notes: []Note{}}, store.Handlers[Notes]{
		InitNotes:  initNotes,
		CreateNote: createNote,
		UpdateNote: updateNote,
		RemoveNote: removeNote,
	}, opts...)
}

// EditNote emits the action for finishing an edit: a non-empty task updates
// the note, an empty one removes it.
func EditNote(d action.Emitter, id, task string) {
	if task != "" {
		d.Emit(UpdateNote, Note{ID: id, Task: task})
		return
	}
	d.Emit(RemoveNote, id)
}

// initNotes replaces the list with the payload. A nil payload resets it to
// empty.
func initNotes(c *store.Context[Notes], a action.Action) {
	notes, err := action.Decode[[]Note](a.Payload)
	if err != nil {
		c.Logger().Warn("ignoring notes init", "error", err)
		return
	}
	if notes == nil {
		notes = []Note{}
	}
	c.Model().Notes = append([]Note(nil), notes...)
	c.Notify()
}

func createNote(c *store.Context[Notes], a action.Action) {
	note, err := decodeNote(a.Payload)
	if err != nil {
		c.Logger().Warn("ignoring note create", "error", err)
		return
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.Task == "" {
		note.Task = DefaultTask
	}
	m := c.Model()
	m.Notes = append(m.Notes, note)
	c.Notify()
}

func updateNote(c *store.Context[Notes], a action.Action) {
	note, err := action.Decode[Note](a.Payload)
	if err != nil {
		c.Logger().Warn("ignoring note update", "error", err)
		return
	}
	m := c.Model()
	i := m.Index(note.ID)
	if i < 0 {
		c.Logger().Debug("update for unknown note", "id", note.ID)
		return
	}
	m.Notes[i].Task = note.Task
	c.Notify()
}

func removeNote(c *store.Context[Notes], a action.Action) {
	id, err := decodeID(a.Payload)
	if err != nil {
		c.Logger().Warn("ignoring note remove", "error", err)
		return
	}
	m := c.Model()
	i := m.Index(id)
	if i < 0 {
		c.Logger().Debug("remove for unknown note", "id", id)
		return
	}
	m.Notes = append(m.Notes[:i:i], m.Notes[i+1:]...)
	c.Notify()
}

// decodeNote accepts a Note or a bare task string.
func decodeNote(payload any) (Note, error) {
	note, err := action.Decode[Note](payload)
	if err == nil {
		return note, nil
	}
	task, serr := action.Decode[string](payload)
	if serr != nil {
		return Note{}, err
	}
	return Note{Task: task}, nil
}

// decodeID accepts an id string or a Note.
func decodeID(payload any) (string, error) {
	id, err := action.Decode[string](payload)
	if err == nil {
		if id == "" {
			return "", fmt.Errorf("empty note id")
		}
		return id, nil
	}
	note, nerr := action.Decode[Note](payload)
	if nerr != nil || note.ID == "" {
		return "", err
	}
	return note.ID, nil
}
