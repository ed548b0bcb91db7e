package events

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/fluxboard/action"
)

var errNoName = errors.New("event has no name")

// Build turns a Record payload, an Event or a bare event name, into a
// complete Event. Missing ids and times are filled in. Emitters should send
// the built Event: stores that each build a bare name assign different ids.
func Build(payload any) (Event, error) {
	e, err := action.Decode[Event](payload)
	if err != nil {
		name, serr := action.Decode[string](payload)
		if serr != nil {
			return Event{}, err
		}
		e = Event{Name: name}
	}
	if e.Name == "" {
		return Event{}, errNoName
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	return e, nil
}

// BuildPayload is [Build] shaped for an action route: it returns the Event
// to emit in place of payload.
func BuildPayload(payload any) (any, error) {
	return Build(payload)
}

func decodeEvent(logger *slog.Logger, a action.Action) (Event, bool) {
	e, err := Build(a.Payload)
	if err != nil {
		logger.Warn("ignoring event record", "error", err)
		return Event{}, false
	}
	return e, true
}
