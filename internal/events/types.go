package events

// EventType represents the type of pipeline event
type EventType string

// Event is the base interface for all pipeline events
type Event interface {
	GetType() EventType
	GetMonsterID() string
	IsCancelled() bool
	Cancel()
}

// BaseEvent provides common implementation for all events
type BaseEvent struct {
	Type      EventType
	MonsterID string
	Cancelled bool
}

func (e *BaseEvent) GetType() EventType   { return e.Type }
func (e *BaseEvent) GetMonsterID() string { return e.MonsterID }
func (e *BaseEvent) IsCancelled() bool    { return e.Cancelled }
func (e *BaseEvent) Cancel()              { e.Cancelled = true }

// MeterEvent reports a meter reacting to a pack. Values are read after the
// meter has applied the pack, so PackValue is the residual.
type MeterEvent struct {
	BaseEvent
	Node       string
	Mode       string
	Tags       []string
	PackValue  float64
	MeterValue float64
	MeterLast  float64
	MeterMax   float64
}

// DispatchEvent reports a pack leaving a pipeline node for one of its
// children.
type DispatchEvent struct {
	BaseEvent
	Node      string
	Mode      string
	Tags      []string
	PackValue float64
}
