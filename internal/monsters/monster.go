package monsters

import (
	"sync"

	"github.com/CWDN/battle-monsters/internal/damage"
	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// HealthMeterName is the name of the meter every monster pipeline ends in.
const HealthMeterName = "Health Meter"

// Monster owns one damage pipeline. All access to the pipeline goes through
// the monster so packs for one monster resolve one at a time.
type Monster struct {
	ID      string
	Name    string
	Element Element

	mu       sync.Mutex
	pipeline *damage.Node
	health   *damage.MeterNode
}

// New creates a monster with the element's standard pipeline and full health.
func New(id, name string, element Element, health float64) (*Monster, error) {
	root, meter, err := BuildPipeline(element, health)
	if err != nil {
		return nil, bmerr.Wrapf(err, "failed to build pipeline for %q", name)
	}
	return newMonster(id, name, element, root, meter)
}

// NewWithPipeline creates a monster around a custom pipeline. The tree must
// contain a meter named HealthMeterName.
func NewWithPipeline(id, name string, element Element, root *damage.Node) (*Monster, error) {
	if root == nil {
		return nil, bmerr.InvalidArgument("pipeline cannot be nil")
	}
	found := root.Find(HealthMeterName)
	if found == nil {
		return nil, bmerr.InvalidArgumentf("pipeline for %q has no %q", name, HealthMeterName)
	}
	meter, ok := found.Meter()
	if !ok {
		return nil, bmerr.InvalidArgumentf("pipeline node %q for %q is not a meter", HealthMeterName, name)
	}
	return newMonster(id, name, element, root, meter)
}

func newMonster(id, name string, element Element, root *damage.Node, meter *damage.MeterNode) (*Monster, error) {
	if id == "" {
		return nil, bmerr.InvalidArgument("monster id is required")
	}
	return &Monster{
		ID:       id,
		Name:     name,
		Element:  element,
		pipeline: root,
		health:   meter,
	}, nil
}

// Attack feeds p into the monster's pipeline and resolves it completely.
// Signal handlers run while the monster is locked, so they must read the
// meter they are handed rather than call back into the monster.
// Monsters spawned by the combat service should be hit through its Strike;
// a direct Attack there is neither journaled nor emitted.
func (m *Monster) Attack(p *damage.Pack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pipeline.Receive(p)
}

// WithPipeline runs fn with exclusive access to the pipeline, for wiring
// signal handlers or resolving several packs as one step.
func (m *Monster) WithPipeline(fn func(root *damage.Node, health *damage.MeterNode)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.pipeline, m.health)
}

// Health returns the current and maximum health.
func (m *Monster) Health() (value, valueMax float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.health.Value(), m.health.ValueMax()
}

// Alive reports whether the monster has health left.
func (m *Monster) Alive() bool {
	value, _ := m.Health()
	return value > 0
}

// Revive refills the health meter without firing meter signals.
func (m *Monster) Revive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.health.Reset()
}

// DisplayName returns the name in title case, e.g. "fire imp" as "Fire Imp".
func (m *Monster) DisplayName() string {
	return cases.Title(language.English).String(m.Name)
}

// Describe renders the monster's pipeline tree.
func (m *Monster) Describe() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pipeline.Describe()
}
