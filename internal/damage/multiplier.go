package damage

import (
	"math"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/logger"
	"github.com/sirupsen/logrus"
)

// Element tags carried by elemental packs.
const (
	TagFire  Tag = "FIRE"
	TagWater Tag = "WATER"
	TagEarth Tag = "EARTH"
	TagWind  Tag = "WIND"
)

// Multiplier scales the value of every pack it operates on.
type Multiplier struct {
	Factor float64
}

// Operate multiplies the pack's value by the factor.
func (m *Multiplier) Operate(n *Node, p *Pack) {
	if err := p.MultiplyValue(m.Factor); err != nil {
		logger.Log.WithFields(logrus.Fields{
			"node":   n.Name(),
			"factor": m.Factor,
		}).WithError(err).Warn("multiplier left pack unchanged")
	}
}

// NewMultiplierNode creates a node scaling packs tagged tag by factor.
func NewMultiplierNode(name string, tag Tag, factor float64, opts ...NodeOption) (*Node, error) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor < 0 {
		return nil, bmerr.Validationf("multiplier %q: factor must be a finite non-negative number, got %v", name, factor)
	}

	opts = append([]NodeOption{
		WithNodeTags(tag),
		WithOperator(&Multiplier{Factor: factor}),
	}, opts...)
	return NewNode(name, opts...)
}

// NewFireMultiplier scales FIRE packs.
func NewFireMultiplier(factor float64) (*Node, error) {
	return NewMultiplierNode("Fire Multiplier", TagFire, factor)
}

// NewWaterMultiplier scales WATER packs.
func NewWaterMultiplier(factor float64) (*Node, error) {
	return NewMultiplierNode("Water Multiplier", TagWater, factor)
}

// NewEarthMultiplier scales EARTH packs.
func NewEarthMultiplier(factor float64) (*Node, error) {
	return NewMultiplierNode("Earth Multiplier", TagEarth, factor)
}

// NewWindMultiplier scales WIND packs.
func NewWindMultiplier(factor float64) (*Node, error) {
	return NewMultiplierNode("Wind Multiplier", TagWind, factor)
}
