// Package events implements the event displays: a panel summarising
// recorded events and a listing table showing them with configurable
// display props.
//
// Both stores subscribe to [Record], so one emitted event updates both
// displays.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/store"
)

// Store names.
const (
	PanelStoreName = "event_panel"
	TableStoreName = "event_table"
)

// Action kinds. Each display answers its own rebroadcast kind by notifying
// its model unchanged.
const (
	PanelRebroadcast action.Kind = "eventPanel.probeAction"
	TableRebroadcast action.Kind = "eventListingTable.probeAction"
	Record           action.Kind = "events.record"
	Configure        action.Kind = "eventListingTable.configure"
)

// Event is one recorded occurrence.
type Event struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Detail string    `json:"detail,omitempty"`
	Time   time.Time `json:"time"`
}

// Display holds the listing table's display props.
type Display struct {
	Striped   bool `json:"striped"`
	Bordered  bool `json:"bordered"`
	Condensed bool `json:"condensed"`
	Hover     bool `json:"hover"`
}

// DefaultDisplay is the table's initial look: bordered with hover, not
// striped or condensed.
var DefaultDisplay = Display{
	Striped:   false,
	Bordered:  true,
	Condensed: false,
	Hover:     true,
}

// Panel is the event panel model.
type Panel struct {
	Count  int    `json:"count"`
	Latest *Event `json:"latest,omitempty"`
}

// Clone returns a deep copy of p.
func (p Panel) Clone() Panel {
	if p.Latest != nil {
		latest := *p.Latest
		p.Latest = &latest
	}
	return p
}

// Table is the event listing table model.
type Table struct {
	Display Display `json:"display"`
	Events  []Event `json:"events"`
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	if t.Events != nil {
		t.Events = append([]Event(nil), t.Events...)
	}
	return t
}

// NewPanelStore creates the event panel store.
func NewPanelStore(opts ...store.Option) *store.Store[Panel] {
	return store.New(PanelStoreName, Panel{}, store.Handlers[Panel]{
		PanelRebroadcast: func(c *store.Context[Panel], _ action.Action) { c.Notify() },
		Record: func(c *store.Context[Panel], a action.Action) {
			e, ok := decodeEvent(c.Logger(), a)
			if !ok {
				return
			}
			m := c.Model()
			m.Count++
			m.Latest = &e
			c.Notify()
		},
	}, opts...)
}

// NewTableStore creates the event listing table store with
// [DefaultDisplay].
func NewTableStore(opts ...store.Option) *store.Store[Table] {
	return store.New(TableStoreName, Table{Display: DefaultDisplay, Events: []Event{}}, store.Handlers[Table]{
		TableRebroadcast: func(c *store.Context[Table], _ action.Action) { c.Notify() },
		Record: func(c *store.Context[Table], a action.Action) {
			e, ok := decodeEvent(c.Logger(), a)
			if !ok {
				return
			}
			m := c.Model()
			m.Events = append(m.Events, e)
			c.Notify()
		},
		Configure: func(c *store.Context[Table], a action.Action) {
			d, err := action.Decode[Display](a.Payload)
			if err != nil {
				c.Logger().Warn("ignoring table configure", "error", err)
				return
			}
			c.Model().Display = d
			c.Notify()
		},
	}, opts...)
}

// NewEvent creates an event named name with a fresh id, stamped now.
func NewEvent(name, detail string) Event {
	return Event{
		ID:     uuid.NewString(),
		Name:   name,
		Detail: detail,
		Time:   time.Now().UTC(),
	}
}
