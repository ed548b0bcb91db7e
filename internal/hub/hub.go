package hub

import (
	"time"

	"github.com/jpalmerr/fluxboard/store"
)

// StateEvent is a snapshot of one store's model, as sent to clients.
type StateEvent struct {
	// Store is the name of the store that published the snapshot.
	Store string `json:"store"`

	// State is the model snapshot. It is read-only.
	State any `json:"state"`

	// At is when the snapshot was published.
	At time.Time `json:"at"`
}

// Hub holds the latest snapshot per store and streams new ones.
//
// Hub implementations must be safe for concurrent access.
type Hub interface {
	// Update stores ev as its store's latest snapshot and notifies all
	// subscribers.
	Update(ev StateEvent)

	// GetAll returns the latest snapshot of every store, ordered by store
	// name.
	GetAll() []StateEvent

	// Subscribe returns a channel that receives state events.
	// The channel is buffered; slow consumers may miss events.
	// Caller must call Unsubscribe when done.
	Subscribe() <-chan StateEvent

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan StateEvent)
}

// Attach seeds h with obs's current snapshot and forwards every later
// notification. It returns a function that detaches.
func Attach(h Hub, obs store.Observable) (detach func()) {
	h.Update(StateEvent{Store: obs.Name(), State: obs.Snapshot(), At: time.Now().UTC()})
	return obs.Observe(func(state any) {
		h.Update(StateEvent{Store: obs.Name(), State: state, At: time.Now().UTC()})
	})
}
