// Package event provides in-process change notifications.
//
// Events carry identifiers only; clients call the HTTP API to fetch the
// actual rows after receiving a notification.
package event

import (
	"sync"

	"github.com/parley-chat/parley/pkg/utils"
)

// Event is the interface all event types must implement.
type Event interface {
	// EventName returns the unique name for this event type (e.g., "message.created")
	EventName() string
}

// Listener is a callback function for handling events.
type Listener func(Event)

type subscription struct {
	id uint64
	fn Listener
}

// Emitter manages event subscriptions and dispatching.
type Emitter struct {
	mu           sync.RWMutex
	nextID       uint64
	listeners    map[string][]subscription // eventName -> listeners
	allListeners []subscription            // listeners for all events
}

// NewEmitter creates a new event emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		listeners: make(map[string][]subscription),
	}
}

// On subscribes to a specific event type.
// Returns an unsubscribe function.
func (e *Emitter) On(eventName string, fn Listener) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.listeners[eventName] = append(e.listeners[eventName], subscription{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.listeners[eventName] = without(e.listeners[eventName], id)
	}
}

// OnAny subscribes to all events.
func (e *Emitter) OnAny(fn Listener) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.allListeners = append(e.allListeners, subscription{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.allListeners = without(e.allListeners, id)
	}
}

func without(subs []subscription, id uint64) []subscription {
	out := make([]subscription, 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Emit dispatches an event to all matching listeners.
func (e *Emitter) Emit(ev Event) {
	e.mu.RLock()
	// Copy listeners to avoid holding lock during callbacks
	specific := make([]subscription, len(e.listeners[ev.EventName()]))
	copy(specific, e.listeners[ev.EventName()])
	all := make([]subscription, len(e.allListeners))
	copy(all, e.allListeners)
	e.mu.RUnlock()

	utils.GetLogger().Debug("emitting event", "event", ev.EventName(), "specific", len(specific), "wildcard", len(all))

	for _, s := range specific {
		s.fn(ev)
	}
	for _, s := range all {
		s.fn(ev)
	}
}
