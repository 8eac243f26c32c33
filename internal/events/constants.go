package events

// Event type constants
const (
	// Meter events
	EventTypeMeterZero     EventType = "meter_zero"
	EventTypeMeterMax      EventType = "meter_max"
	EventTypeMeterBreak    EventType = "meter_break"
	EventTypeMeterOverflow EventType = "meter_overflow"
	EventTypeMeterReceive  EventType = "meter_receive"

	// Pipeline events
	EventTypePackDispatch EventType = "pack_dispatch"
)

// MeterEventTypes lists every meter event type in firing order
var MeterEventTypes = []EventType{
	EventTypeMeterZero,
	EventTypeMeterMax,
	EventTypeMeterBreak,
	EventTypeMeterOverflow,
	EventTypeMeterReceive,
}

// Priority levels for listener order
const (
	PriorityRecording    = 0   // Combat log, audit
	PriorityGameplay     = 100 // Death, revival, status changes
	PriorityPresentation = 200 // Messages, UI updates
)
