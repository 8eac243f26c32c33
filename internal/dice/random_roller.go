package dice

import (
	"math/rand/v2"
	"sync"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/logger"
	"github.com/sirupsen/logrus"
)

// randomRoller implements Roller with a pseudo-random source
type randomRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomRoller creates a new random dice roller
func NewRandomRoller() Roller {
	return &randomRoller{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededRoller creates a roller that repeats the same sequence for the
// same seed
func NewSeededRoller(seed uint64) Roller {
	return &randomRoller{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	if count < 1 {
		return nil, bmerr.InvalidArgumentf("invalid dice count %d", count)
	}
	if sides < 1 {
		return nil, bmerr.InvalidArgumentf("invalid dice size %d", sides)
	}

	rolls := make([]int, count)
	rawTotal := 0

	r.mu.Lock()
	for i := range rolls {
		rolls[i] = r.rng.IntN(sides) + 1
		rawTotal += rolls[i]
	}
	r.mu.Unlock()

	logger.Log.WithFields(logrus.Fields{
		"count": count,
		"sides": sides,
		"bonus": bonus,
		"rolls": rolls,
		"total": rawTotal + bonus,
	}).Trace("rolled dice")

	return &RollResult{
		Total:    rawTotal + bonus,
		RawTotal: rawTotal,
		Rolls:    rolls,
		Bonus:    bonus,
		Count:    count,
		Sides:    sides,
	}, nil
}
