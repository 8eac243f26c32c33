package mockdice

import (
	"sync"

	"github.com/CWDN/battle-monsters/internal/dice"
	bmerr "github.com/CWDN/battle-monsters/internal/errors"
)

// ManualMockRoller implements dice.Roller for testing with predetermined results
type ManualMockRoller struct {
	mu        sync.Mutex
	rolls     []int
	rollIndex int
}

// NewManualMockRoller creates a new mock dice roller
func NewManualMockRoller(rolls ...int) *ManualMockRoller {
	return &ManualMockRoller{
		rolls: rolls,
	}
}

// SetNextRoll sets the next roll result
func (m *ManualMockRoller) SetNextRoll(roll int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = append(m.rolls, roll)
}

// SetRolls sets multiple roll results
func (m *ManualMockRoller) SetRolls(rolls []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rolls = rolls
	m.rollIndex = 0
}

// Remaining returns how many predetermined rolls are left
func (m *ManualMockRoller) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rolls) - m.rollIndex
}

// Roll implements dice.Roller.Roll. A short or out-of-range script is an
// error and consumes nothing.
func (m *ManualMockRoller) Roll(count, sides, bonus int) (*dice.RollResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rollIndex+count > len(m.rolls) {
		return nil, bmerr.Newf(bmerr.CodeUnavailable,
			"no more predetermined rolls available (need %d, have %d)", count, len(m.rolls)-m.rollIndex)
	}

	rolls := make([]int, count)
	rawTotal := 0
	for i := range rolls {
		roll := m.rolls[m.rollIndex+i]
		if roll < 1 || roll > sides {
			return nil, bmerr.InvalidArgumentf("invalid roll %d for d%d", roll, sides)
		}
		rolls[i] = roll
		rawTotal += roll
	}
	m.rollIndex += count

	return &dice.RollResult{
		Total:    rawTotal + bonus,
		RawTotal: rawTotal,
		Rolls:    rolls,
		Bonus:    bonus,
		Count:    count,
		Sides:    sides,
	}, nil
}
