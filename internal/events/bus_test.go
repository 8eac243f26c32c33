package events_test

import (
	"errors"
	"testing"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_MeterEventFlow(t *testing.T) {
	bus := events.NewBus()

	var seen *events.MeterEvent
	bus.Subscribe(events.EventTypeMeterZero, events.NewListener("death", events.PriorityGameplay, func(e events.Event) error {
		meterEvent, ok := e.(*events.MeterEvent)
		require.True(t, ok)
		seen = meterEvent
		return nil
	}))

	event := &events.MeterEvent{
		BaseEvent:  events.BaseEvent{Type: events.EventTypeMeterZero, MonsterID: "fire-1"},
		Node:       "Health Meter",
		Mode:       "SUBTRACT",
		PackValue:  20,
		MeterValue: 0,
		MeterLast:  50,
		MeterMax:   100,
	}

	require.NoError(t, bus.Emit(event))
	require.NotNil(t, seen)
	assert.Equal(t, "fire-1", seen.GetMonsterID())
	assert.Equal(t, 20.0, seen.PackValue)
}

func TestEventBus_Priority(t *testing.T) {
	bus := events.NewBus()

	var executionOrder []string
	record := func(name string) func(events.Event) error {
		return func(events.Event) error {
			executionOrder = append(executionOrder, name)
			return nil
		}
	}

	// Subscribe in random order
	bus.Subscribe(events.EventTypeMeterBreak, events.NewListener("low", events.PriorityPresentation, record("low")))
	bus.Subscribe(events.EventTypeMeterBreak, events.NewListener("high", events.PriorityRecording, record("high")))
	bus.Subscribe(events.EventTypeMeterBreak, events.NewListener("medium", events.PriorityGameplay, record("medium")))
	bus.Subscribe(events.EventTypeMeterBreak, events.NewListener("medium-2", events.PriorityGameplay, record("medium-2")))

	err := bus.Emit(&events.MeterEvent{BaseEvent: events.BaseEvent{Type: events.EventTypeMeterBreak}})
	require.NoError(t, err)

	// Lower priority number runs first, ties keep subscription order
	assert.Equal(t, []string{"high", "medium", "medium-2", "low"}, executionOrder)
}

func TestEventBus_Cancellation(t *testing.T) {
	bus := events.NewBus()

	var firstExecuted, secondExecuted bool

	bus.Subscribe(events.EventTypeMeterOverflow, events.NewListener("first", 100, func(e events.Event) error {
		firstExecuted = true
		e.Cancel()
		return nil
	}))
	bus.Subscribe(events.EventTypeMeterOverflow, events.NewListener("second", 200, func(events.Event) error {
		secondExecuted = true
		return nil
	}))

	event := &events.MeterEvent{BaseEvent: events.BaseEvent{Type: events.EventTypeMeterOverflow}}
	require.NoError(t, bus.Emit(event))

	assert.True(t, firstExecuted)
	assert.False(t, secondExecuted)
	assert.True(t, event.IsCancelled())
}

func TestEventBus_ListenerError(t *testing.T) {
	bus := events.NewBus()
	cause := bmerr.NotFoundf("monster missing")

	var laterExecuted bool
	bus.Subscribe(events.EventTypePackDispatch, events.NewListener("broken", 0, func(events.Event) error {
		return cause
	}))
	bus.Subscribe(events.EventTypePackDispatch, events.NewListener("later", 1, func(events.Event) error {
		laterExecuted = true
		return nil
	}))

	err := bus.Emit(&events.DispatchEvent{BaseEvent: events.BaseEvent{Type: events.EventTypePackDispatch}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, bmerr.IsNotFound(err))
	assert.Contains(t, err.Error(), "listener broken failed")
	assert.False(t, laterExecuted)
}

func TestEventBus_UnsubscribeAndClear(t *testing.T) {
	bus := events.NewBus()
	noop := func(events.Event) error { return nil }

	bus.Subscribe(events.EventTypeMeterReceive, events.NewListener("a", 0, noop))
	bus.Subscribe(events.EventTypeMeterReceive, events.NewListener("b", 0, noop))
	bus.Subscribe(events.EventTypeMeterMax, events.NewListener("c", 0, noop))
	assert.Equal(t, 2, bus.ListenerCount(events.EventTypeMeterReceive))

	bus.Unsubscribe(events.EventTypeMeterReceive, "a")
	bus.Unsubscribe(events.EventTypeMeterReceive, "missing")
	assert.Equal(t, 1, bus.ListenerCount(events.EventTypeMeterReceive))

	bus.Clear()
	assert.Equal(t, 0, bus.ListenerCount(events.EventTypeMeterReceive))
	assert.Equal(t, 0, bus.ListenerCount(events.EventTypeMeterMax))
}

func TestEventBus_EmitWithoutListeners(t *testing.T) {
	bus := events.NewBus()
	assert.NoError(t, bus.Emit(&events.MeterEvent{BaseEvent: events.BaseEvent{Type: events.EventTypeMeterZero}}))
}
