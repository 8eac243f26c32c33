package events

import (
	"slices"
	"sync"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/logger"
	"github.com/sirupsen/logrus"
)

// EventListener processes events
type EventListener interface {
	HandleEvent(event Event) error
	Priority() int
	ID() string
}

// ListenerFunc adapts a function into an EventListener
type ListenerFunc struct {
	id       string
	priority int
	fn       func(Event) error
}

// NewListener wraps fn as a listener with the given id and priority
func NewListener(id string, priority int, fn func(Event) error) *ListenerFunc {
	return &ListenerFunc{id: id, priority: priority, fn: fn}
}

func (l *ListenerFunc) ID() string                    { return l.id }
func (l *ListenerFunc) Priority() int                 { return l.priority }
func (l *ListenerFunc) HandleEvent(event Event) error { return l.fn(event) }

// Bus manages event distribution
type Bus struct {
	listeners map[EventType][]EventListener
	mu        sync.RWMutex
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[EventType][]EventListener),
	}
}

// Subscribe adds a listener for specific event types. Listeners with equal
// priority run in subscription order.
func (b *Bus) Subscribe(eventType EventType, listener EventListener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[eventType] = append(b.listeners[eventType], listener)
	sortByPriority(b.listeners[eventType])

	logger.Log.WithFields(logrus.Fields{
		"listener": listener.ID(),
		"event":    eventType,
		"priority": listener.Priority(),
	}).Debug("subscribed listener")
}

// Unsubscribe removes a listener
func (b *Bus) Unsubscribe(eventType EventType, listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners := b.listeners[eventType]
	i := slices.IndexFunc(listeners, func(l EventListener) bool { return l.ID() == listenerID })
	if i < 0 {
		return
	}
	b.listeners[eventType] = slices.Delete(listeners, i, i+1)

	logger.Log.WithFields(logrus.Fields{
		"listener": listenerID,
		"event":    eventType,
	}).Debug("unsubscribed listener")
}

// ListenerCount returns how many listeners are subscribed to eventType
func (b *Bus) ListenerCount(eventType EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[eventType])
}

// Emit sends an event to all registered listeners in priority order. A
// cancelled event stops propagating; a failing listener stops it too and
// its error is returned.
func (b *Bus) Emit(event Event) error {
	b.mu.RLock()
	listeners := slices.Clone(b.listeners[event.GetType()])
	b.mu.RUnlock()

	log := logger.Log.WithFields(logrus.Fields{
		"event":      event.GetType(),
		"monster_id": event.GetMonsterID(),
	})
	log.WithField("listeners", len(listeners)).Trace("emitting event")

	for _, listener := range listeners {
		if event.IsCancelled() {
			log.Debug("event cancelled, stopping propagation")
			break
		}

		if err := listener.HandleEvent(event); err != nil {
			return bmerr.Wrapf(err, "listener %s failed", listener.ID())
		}
	}

	return nil
}

// Clear removes all listeners
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[EventType][]EventListener)
	logger.Log.Debug("cleared all listeners")
}

func sortByPriority(listeners []EventListener) {
	slices.SortStableFunc(listeners, func(a, b EventListener) int {
		return a.Priority() - b.Priority()
	})
}
