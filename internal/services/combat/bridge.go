package combat

import (
	"github.com/CWDN/battle-monsters/internal/damage"
	"github.com/CWDN/battle-monsters/internal/events"
)

// tracker turns a monster's pipeline signals into events. Signals fire while
// the monster is locked, so events are buffered and drained by the strike
// that caused them.
type tracker struct {
	monsterID string
	buffered  []events.Event
}

// wire subscribes the tracker to every node of the tree below root.
func (t *tracker) wire(root *damage.Node) {
	root.Walk(func(n *damage.Node, _ int) {
		n.OnDispatch.Add(t.onDispatch)

		meter, ok := n.Meter()
		if !ok {
			return
		}
		meter.OnZero.Add(t.meterHandler(events.EventTypeMeterZero))
		meter.OnMax.Add(t.meterHandler(events.EventTypeMeterMax))
		meter.OnBreak.Add(t.meterHandler(events.EventTypeMeterBreak))
		meter.OnOverflow.Add(t.meterHandler(events.EventTypeMeterOverflow))
		meter.OnReceive.Add(t.meterHandler(events.EventTypeMeterReceive))
	})
}

func (t *tracker) onDispatch(n *damage.Node, p *damage.Pack) {
	t.buffered = append(t.buffered, &events.DispatchEvent{
		BaseEvent: events.BaseEvent{Type: events.EventTypePackDispatch, MonsterID: t.monsterID},
		Node:      n.Name(),
		Mode:      p.Mode.String(),
		Tags:      tagStrings(p.Tags()),
		PackValue: p.Value(),
	})
}

func (t *tracker) meterHandler(eventType events.EventType) damage.MeterHandler {
	return func(m *damage.MeterNode, p *damage.Pack) {
		t.buffered = append(t.buffered, &events.MeterEvent{
			BaseEvent:  events.BaseEvent{Type: eventType, MonsterID: t.monsterID},
			Node:       m.Name(),
			Mode:       p.Mode.String(),
			Tags:       tagStrings(p.Tags()),
			PackValue:  p.Value(),
			MeterValue: m.Value(),
			MeterLast:  m.ValueLast(),
			MeterMax:   m.ValueMax(),
		})
	}
}

// drain returns and forgets the buffered events. Callers hold the monster
// lock.
func (t *tracker) drain() []events.Event {
	out := t.buffered
	t.buffered = nil
	return out
}

func tagStrings(tags []damage.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = string(tag)
	}
	return out
}
