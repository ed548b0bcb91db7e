package kanban

import (
	"github.com/google/uuid"

	"github.com/jpalmerr/fluxboard/action"
	"github.com/jpalmerr/fluxboard/store"
)

// LanesStoreName is the name of the lanes store.
const LanesStoreName = "lanes"

// DefaultLaneName is the name given to lanes created without one.
const DefaultLaneName = "New Lane"

// Action kinds handled by the lanes store.
const (
	InitLanes  action.Kind = "lanes.init"
	CreateLane action.Kind = "lanes.create"
	Hello      action.Kind = "lanes.hello"
)

// LaneKinds lists every kind the lanes store handles.
var LaneKinds = []action.Kind{InitLanes, CreateLane, Hello}

// Lane is one column of the board.
type Lane struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Lanes is the lanes store model.
type Lanes struct {
	Lanes []Lane `json:"lanes"`
}

// Clone returns a deep copy of l.
func (l Lanes) Clone() Lanes {
	if l.Lanes != nil {
		l.Lanes = append([]Lane(nil), l.Lanes...)
	}
	return l
}

// NewLanesStore creates the lanes store with an empty list.
func NewLanesStore(opts ...store.Option) *store.Store[Lanes] {
	return store.New(LanesStoreName, Lanes{Lanes: []Lane{}}, store.Handlers[Lanes]{
		InitLanes:  initLanes,
		CreateLane: createLane,
		Hello:      hello,
	}, opts...)
}

func initLanes(c *store.Context[Lanes], a action.Action) {
	lanes, err := action.Decode[[]Lane](a.Payload)
	if err != nil {
		c.Logger().Warn("ignoring lanes init", "error", err)
		return
	}
	if lanes == nil {
		lanes = []Lane{}
	}
	c.Model().Lanes = append([]Lane(nil), lanes...)
	c.Notify()
}

func createLane(c *store.Context[Lanes], a action.Action) {
	lane, err := action.Decode[Lane](a.Payload)
	if err != nil {
		name, serr := action.Decode[string](a.Payload)
		if serr != nil {
			c.Logger().Warn("ignoring lane create", "error", err)
			return
		}
		lane = Lane{Name: name}
	}
	if lane.ID == "" {
		lane.ID = uuid.NewString()
	}
	if lane.Name == "" {
		lane.Name = DefaultLaneName
	}
	m := c.Model()
	m.Lanes = append(m.Lanes, lane)
	c.Notify()
}

// hello logs a greeting with the lane count. It does not change the model.
func hello(c *store.Context[Lanes], _ action.Action) {
	c.Logger().Info("hello from the lanes store", "lanes", len(c.Model().Lanes))
}
