package damage

import (
	"math"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/logger"
	"github.com/sirupsen/logrus"
)

// DefaultValueMax is the meter capacity used when none is configured.
const DefaultValueMax = 100

// MeterNode is a pipeline node that terminates packs into a bounded gauge,
// such as hit points. It absorbs as much of each pack as fits and leaves the
// rest in the pack, which is then dispatched like any other (exhausted packs
// stop here; leftovers may spill to the meter's children).
//
// Threshold signals fire on transitions only:
//   - OnZero when the value reaches 0 from above
//   - OnMax when the value reaches the maximum from below
//   - OnBreak when a SUBTRACT pack holds more than the meter had left
//   - OnOverflow when an ADD or SET pack holds more than fits
//
// OnReceive fires for every pack. Handlers run after the meter value is
// clamped and the pack holds its leftover.
type MeterNode struct {
	*Node

	OnZero     Signal[MeterHandler]
	OnMax      Signal[MeterHandler]
	OnBreak    Signal[MeterHandler]
	OnOverflow Signal[MeterHandler]
	OnReceive  Signal[MeterHandler]

	// Hooks run just before the matching signal. Nil hooks are skipped.
	DoOnZero     MeterHandler
	DoOnMax      MeterHandler
	DoOnBreak    MeterHandler
	DoOnOverflow MeterHandler

	value     float64
	valueMax  float64
	valueLast float64
}

// NewMeterNode creates a meter holding value out of valueMax. The value is
// clamped into [0, valueMax].
func NewMeterNode(name string, value, valueMax float64, opts ...NodeOption) (*MeterNode, error) {
	if math.IsNaN(valueMax) || math.IsInf(valueMax, 0) || valueMax < 0 {
		return nil, bmerr.Validationf("meter %q: value max must be a finite non-negative number, got %v", name, valueMax)
	}
	if math.IsNaN(value) {
		return nil, bmerr.Validationf("meter %q: value is NaN", name)
	}

	m := &MeterNode{
		Node:     newNode(name),
		valueMax: valueMax,
		value:    clamp(value, 0, valueMax),
	}
	m.valueLast = m.value
	m.op = m

	for _, opt := range opts {
		if err := opt(m.Node); err != nil {
			return nil, bmerr.Wrapf(err, "failed to create meter %q", name)
		}
	}
	// Options may not swap the meter's operation out.
	m.op = m
	return m, nil
}

// Value returns the current meter value.
func (m *MeterNode) Value() float64 {
	return m.value
}

// ValueMax returns the meter capacity.
func (m *MeterNode) ValueMax() float64 {
	return m.valueMax
}

// ValueLast returns the value before the most recent pack.
func (m *MeterNode) ValueLast() float64 {
	return m.valueLast
}

// ValueNormalized returns value / valueMax, or 0 for a zero-capacity meter.
func (m *MeterNode) ValueNormalized() float64 {
	if m.valueMax == 0 {
		return 0
	}
	return m.value / m.valueMax
}

// SetValue overwrites the value without firing signals, clamping into range.
func (m *MeterNode) SetValue(v float64) error {
	if math.IsNaN(v) {
		return bmerr.Validationf("meter %q: value is NaN", m.name)
	}
	m.valueLast = m.value
	m.value = clamp(v, 0, m.valueMax)
	return nil
}

// SetValueMax changes the capacity and clamps the current value into it.
func (m *MeterNode) SetValueMax(valueMax float64) error {
	if math.IsNaN(valueMax) || math.IsInf(valueMax, 0) || valueMax < 0 {
		return bmerr.Validationf("meter %q: value max must be a finite non-negative number, got %v", m.name, valueMax)
	}
	m.valueMax = valueMax
	m.value = clamp(m.value, 0, valueMax)
	return nil
}

// Reset fills the meter to capacity without firing signals.
func (m *MeterNode) Reset() {
	m.valueLast = m.value
	m.value = m.valueMax
}

// Operate applies p to the meter according to its mode.
func (m *MeterNode) Operate(_ *Node, p *Pack) {
	m.valueLast = m.value
	amount := p.Value()
	residual := amount
	var broke, overflowed bool

	switch p.Mode {
	case ModeAdd:
		if amount <= 0 {
			break
		}
		room := m.valueMax - m.value
		if amount >= room {
			m.value = m.valueMax
			residual = amount - room
			overflowed = amount > room
		} else {
			m.value += amount
			residual = 0
		}
	case ModeSubtract:
		if amount <= 0 {
			break
		}
		if amount >= m.value {
			residual = amount - m.value
			broke = amount > m.value
			m.value = 0
		} else {
			m.value -= amount
			residual = 0
		}
	case ModeSet:
		// SET fills toward the pack's value as far as capacity allows; the
		// excess stays in the pack to drive overflow handling.
		target := math.Max(amount, 0)
		residual = 0
		if target > m.valueMax {
			residual = target - m.valueMax
			target = m.valueMax
			overflowed = true
		}
		m.value = target
	}
	m.value = clamp(m.value, 0, m.valueMax)

	// residual is derived from finite inputs, SetValue cannot refuse it
	_ = p.SetValue(residual)

	logger.Log.WithFields(logrus.Fields{
		"node":       m.name,
		"mode":       p.Mode.String(),
		"amount":     amount,
		"residual":   residual,
		"value_last": m.valueLast,
		"value":      m.value,
		"value_max":  m.valueMax,
	}).Debug("meter received pack")

	if m.value == 0 && m.valueLast > 0 {
		m.fire(m.DoOnZero, &m.OnZero, p)
	}
	if m.value == m.valueMax && m.valueLast < m.valueMax {
		m.fire(m.DoOnMax, &m.OnMax, p)
	}
	if broke {
		m.fire(m.DoOnBreak, &m.OnBreak, p)
	}
	if overflowed {
		m.fire(m.DoOnOverflow, &m.OnOverflow, p)
	}
	emitMeter(&m.OnReceive, m, p)
}

func (m *MeterNode) fire(hook MeterHandler, signal *Signal[MeterHandler], p *Pack) {
	if hook != nil {
		hook(m, p)
	}
	emitMeter(signal, m, p)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
