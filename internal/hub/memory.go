package hub

import (
	"sort"
	"sync"
)

const subscriberBuffer = 100

// MemoryHub is an in-memory [Hub].
type MemoryHub struct {
	mu     sync.RWMutex
	latest map[string]StateEvent

	subMu       sync.RWMutex
	subscribers map[chan StateEvent]struct{}
}

// NewMemoryHub creates an empty [MemoryHub].
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{
		latest:      make(map[string]StateEvent),
		subscribers: make(map[chan StateEvent]struct{}),
	}
}

// Update implements [Hub].
func (m *MemoryHub) Update(ev StateEvent) {
	m.mu.Lock()
	m.latest[ev.Store] = ev
	m.mu.Unlock()

	m.notifySubscribers(ev)
}

// GetAll implements [Hub].
func (m *MemoryHub) GetAll() []StateEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]StateEvent, 0, len(m.latest))
	for _, ev := range m.latest {
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Store < events[j].Store })
	return events
}

// Get returns the latest snapshot of the named store.
func (m *MemoryHub) Get(name string) (StateEvent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.latest[name]
	return ev, ok
}

// Subscribe implements [Hub].
func (m *MemoryHub) Subscribe() <-chan StateEvent {
	ch := make(chan StateEvent, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe implements [Hub].
func (m *MemoryHub) Unsubscribe(ch <-chan StateEvent) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends ev to every subscriber without blocking.
func (m *MemoryHub) notifySubscribers(ev StateEvent) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

var _ Hub = (*MemoryHub)(nil)
