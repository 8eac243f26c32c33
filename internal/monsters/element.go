package monsters

import (
	"strings"

	"github.com/CWDN/battle-monsters/internal/damage"
	bmerr "github.com/CWDN/battle-monsters/internal/errors"
)

// Element is a monster's elemental affinity. It decides which multipliers
// sit in front of the monster's health meter.
type Element string

const (
	ElementNone  Element = "none"
	ElementFire  Element = "fire"
	ElementWater Element = "water"
	ElementEarth Element = "earth"
	ElementWind  Element = "wind"
)

// Elements lists the elements that carry a multiplier chain.
var Elements = []Element{ElementFire, ElementWater, ElementEarth, ElementWind}

// ParseElement accepts an element name in any case. An empty string is
// ElementNone.
func ParseElement(s string) (Element, error) {
	e := Element(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case "":
		return ElementNone, nil
	case ElementNone, ElementFire, ElementWater, ElementEarth, ElementWind:
		return e, nil
	}
	return "", bmerr.InvalidArgumentf("unknown element %q", s)
}

// Tag returns the pack tag for attacks of this element. ElementNone has no
// tag.
func (e Element) Tag() damage.Tag {
	switch e {
	case ElementFire:
		return damage.TagFire
	case ElementWater:
		return damage.TagWater
	case ElementEarth:
		return damage.TagEarth
	case ElementWind:
		return damage.TagWind
	}
	return ""
}

// UnmarshalText lets bestiary and API payloads name elements in any case.
func (e *Element) UnmarshalText(text []byte) error {
	parsed, err := ParseElement(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

type link struct {
	build  func(float64) (*damage.Node, error)
	factor float64
}

// chains lists each element's multipliers from the root down to the meter.
var chains = map[Element][]link{
	ElementFire:  {{damage.NewWaterMultiplier, 2}, {damage.NewEarthMultiplier, 0.5}},
	ElementWater: {{damage.NewWindMultiplier, 2}, {damage.NewFireMultiplier, 0.5}},
	ElementEarth: {{damage.NewWindMultiplier, 0.5}, {damage.NewFireMultiplier, 2}},
	ElementWind:  {{damage.NewEarthMultiplier, 2}, {damage.NewWaterMultiplier, 0.5}},
}

// BuildPipeline builds the damage pipeline for element in front of a fresh
// health meter holding health out of health.
func BuildPipeline(element Element, health float64) (*damage.Node, *damage.MeterNode, error) {
	meter, err := damage.NewMeterNode(HealthMeterName, health, health)
	if err != nil {
		return nil, nil, err
	}

	links, ok := chains[element]
	if !ok && element != ElementNone && element != "" {
		return nil, nil, bmerr.InvalidArgumentf("unknown element %q", element)
	}

	// Build bottom-up so each multiplier adopts the node below it.
	root := meter.Node
	for i := len(links) - 1; i >= 0; i-- {
		node, err := links[i].build(links[i].factor)
		if err != nil {
			return nil, nil, err
		}
		if err := node.AddChild(root); err != nil {
			return nil, nil, err
		}
		root = node
	}

	return root, meter, nil
}
