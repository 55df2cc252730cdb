package weather

import (
	"time"

	"github.com/google/uuid"
)

// EventReason says why subscribers are being notified.
type EventReason string

const (
	EventRefreshed       EventReason = "refreshed"
	EventLocationCleared EventReason = "location_cleared"
)

// Event is delivered to subscribers after the snapshot changed.
type Event struct {
	Reason EventReason `json:"reason"`
	At     time.Time   `json:"at"`
}

// Subscribe registers fn for change notifications and returns the handle to unsubscribe with.
// Callbacks run one at a time on the Manager's dispatcher goroutine; they must not call
// Refresh, which waits on that same goroutine.
func (m *Manager) Subscribe(fn func(Event)) uuid.UUID {
	id := uuid.New()
	m.subMu.Lock()
	m.subs[id] = fn
	m.subMu.Unlock()
	return id
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (m *Manager) Unsubscribe(id uuid.UUID) {
	m.subMu.Lock()
	delete(m.subs, id)
	m.subMu.Unlock()
}

func (m *Manager) notify(ev Event) {
	m.subMu.RLock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.RUnlock()

	m.post(func() {
		for _, fn := range fns {
			fn(ev)
		}
	})
}

// post queues fn on the dispatcher goroutine.
func (m *Manager) post(fn func()) {
	select {
	case m.dispatch <- fn:
	case <-m.dispatchStop:
	}
}

func (m *Manager) runDispatcher() {
	defer m.dispatchWG.Done()
	for {
		select {
		case fn := <-m.dispatch:
			fn()
		case <-m.dispatchStop:
			// deliver whatever was already queued
			for {
				select {
				case fn := <-m.dispatch:
					fn()
				default:
					return
				}
			}
		}
	}
}
