package events

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/store"
)

func setup(t *testing.T) (*store.Store[Panel], *store.Store[Table], *action.Dispatcher) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := action.NewDispatcher(action.Inline{}, action.WithLogger(logger))
	panel := NewPanelStore(store.WithLogger(logger))
	table := NewTableStore(store.WithLogger(logger))
	t.Cleanup(panel.Bind(d))
	t.Cleanup(table.Bind(d))
	return panel, table, d
}

func TestTable_DefaultDisplay(t *testing.T) {
	_, table, _ := setup(t)

	want := Display{Striped: false, Bordered: true, Condensed: false, Hover: true}
	if diff := cmp.Diff(want, table.State().Display); diff != "" {
		t.Errorf("display mismatch (-want +got):\n%s", diff)
	}
}

func TestRebroadcast_UnchangedModel(t *testing.T) {
	panel, table, d := setup(t)

	var panels []Panel
	var tables []Table
	defer panel.Listen(func(p Panel) { panels = append(panels, p) })()
	defer table.Listen(func(tb Table) { tables = append(tables, tb) })()

	d.Emit(TableRebroadcast, nil)

	if len(tables) != 1 {
		t.Fatalf("table notifications = %d, want 1", len(tables))
	}
	if len(panels) != 0 {
		t.Errorf("panel notified by the table rebroadcast")
	}
	if diff := cmp.Diff(table.State(), tables[0]); diff != "" {
		t.Errorf("rebroadcast changed the model (-state +notified):\n%s", diff)
	}

	d.Emit(PanelRebroadcast, nil)
	if len(panels) != 1 || panels[0].Count != 0 {
		t.Errorf("panel notifications = %+v, want one empty panel", panels)
	}
}

func TestRecord_UpdatesBothDisplays(t *testing.T) {
	panel, table, d := setup(t)

	first := NewEvent("deploy", "v1.2.0")
	d.Emit(Record, first)
	d.Emit(Record, "rollback")

	p := panel.State()
	if p.Count != 2 {
		t.Errorf("panel Count = %d, want 2", p.Count)
	}
	if p.Latest == nil || p.Latest.Name != "rollback" {
		t.Errorf("panel Latest = %+v, want rollback", p.Latest)
	}

	events := table.State().Events
	if len(events) != 2 {
		t.Fatalf("table events = %+v, want 2", events)
	}
	if diff := cmp.Diff(first, events[0]); diff != "" {
		t.Errorf("first event mismatch (-want +got):\n%s", diff)
	}
	if events[1].ID == "" || events[1].Time.IsZero() {
		t.Errorf("bare-name event not filled in: %+v", events[1])
	}
}

func TestRecord_BuiltEventSharesID(t *testing.T) {
	panel, table, d := setup(t)

	e, err := Build("deploy")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	d.Emit(Record, e)

	latest := panel.State().Latest
	rows := table.State().Events
	if latest == nil || len(rows) != 1 {
		t.Fatalf("panel Latest = %+v, table rows = %+v", latest, rows)
	}
	if latest.ID != rows[0].ID {
		t.Errorf("panel id %q != table id %q", latest.ID, rows[0].ID)
	}
}

func TestBuild(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		payload any
		want    Event
		wantErr bool
	}{
		{"complete event kept", Event{ID: "e1", Name: "alert", Time: when}, Event{ID: "e1", Name: "alert", Time: when}, false},
		{"raw json kept", json.RawMessage(`{"id":"e2","name":"alert","time":"2024-03-01T12:00:00Z"}`), Event{ID: "e2", Name: "alert", Time: when}, false},
		{"bare name", "deploy", Event{Name: "deploy"}, false},
		{"raw bare name", json.RawMessage(`"deploy"`), Event{Name: "deploy"}, false},
		{"no name", Event{ID: "x"}, Event{}, true},
		{"wrong type", 12, Event{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Build() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if got.ID == "" || got.Time.IsZero() {
				t.Fatalf("Build() left id or time empty: %+v", got)
			}
			if tt.want.ID == "" {
				tt.want.ID = got.ID
			}
			if tt.want.Time.IsZero() {
				tt.want.Time = got.Time
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Build() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecord_RejectsBadPayloads(t *testing.T) {
	panel, table, d := setup(t)

	d.Emit(Record, 12)
	d.Emit(Record, Event{})
	d.Emit(Record, json.RawMessage(`{"id":"x"}`))

	if panel.State().Count != 0 || len(table.State().Events) != 0 {
		t.Errorf("bad payloads recorded: panel %+v, table %+v", panel.State(), table.State().Events)
	}
}

func TestRecord_RawJSON(t *testing.T) {
	_, table, d := setup(t)

	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	d.Emit(Record, json.RawMessage(`{"id":"e1","name":"alert","time":"2024-03-01T12:00:00Z"}`))

	want := []Event{{ID: "e1", Name: "alert", Time: when}}
	if diff := cmp.Diff(want, table.State().Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigure(t *testing.T) {
	_, table, d := setup(t)

	d.Emit(Configure, Display{Striped: true, Condensed: true})

	want := Display{Striped: true, Condensed: true}
	if diff := cmp.Diff(want, table.State().Display); diff != "" {
		t.Errorf("display mismatch (-want +got):\n%s", diff)
	}
}

func TestPanel_CloneDoesNotAlias(t *testing.T) {
	e := NewEvent("x", "")
	p := Panel{Count: 1, Latest: &e}
	c := p.Clone()
	c.Latest.Name = "changed"
	if p.Latest.Name != "x" {
		t.Error("Clone() aliases Latest")
	}
}
