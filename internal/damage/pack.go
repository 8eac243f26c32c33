package damage

import (
	"math"
	"slices"
	"strconv"
	"strings"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"gopkg.in/yaml.v3"
)

// Mode selects how a meter merges a Pack's value.
type Mode int

// Numeric values match the wire form accepted by ParseMode.
const (
	ModeAdd Mode = iota
	ModeSet
	ModeSubtract
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "ADD"
	case ModeSet:
		return "SET"
	case ModeSubtract:
		return "SUBTRACT"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Valid reports whether m is one of the three known modes.
func (m Mode) Valid() bool {
	return m >= ModeAdd && m <= ModeSubtract
}

// ParseMode accepts "ADD", "SET", "SUBTRACT" in any case, or their numeric
// equivalents "0", "1", "2". An empty string yields ModeSubtract.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "SUBTRACT", "2":
		return ModeSubtract, nil
	case "ADD", "0":
		return ModeAdd, nil
	case "SET", "1":
		return ModeSet, nil
	}
	return 0, bmerr.InvalidArgumentf("unrecognized pack mode %q", s)
}

// UnmarshalYAML accepts either the name or the number of a mode.
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseMode(value.Value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalYAML writes the mode name.
func (m Mode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// Tag labels packs and nodes. Numeric tags are written in decimal, see IntTag.
type Tag string

// IntTag returns the tag for an integer label.
func IntTag(n int) Tag {
	return Tag(strconv.Itoa(n))
}

// UnmarshalYAML keeps the raw scalar text so `3` and `"3"` are the same tag.
func (t *Tag) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return bmerr.InvalidArgumentf("tag must be a scalar, got yaml kind %d", value.Kind)
	}
	*t = Tag(value.Value)
	return nil
}

// Pack is a quantity of damage (or healing) travelling through a pipeline.
//
// Writes to the value go through SetValue, which re-derives exhaustion for
// this pack and discards exhausted sub-packs.
type Pack struct {
	Mode Mode

	// Owner is whoever dealt the damage. The pipeline never looks at it.
	Owner any

	// SubPacks are nested damage sources. They form a tree.
	SubPacks []*Pack

	value     float64
	tags      []Tag
	exhausted bool
}

// PackOption configures a Pack in NewPack.
type PackOption func(*Pack)

// WithMode sets the pack mode. The default is ModeSubtract.
func WithMode(mode Mode) PackOption {
	return func(p *Pack) { p.Mode = mode }
}

// WithOwner records who dealt the pack.
func WithOwner(owner any) PackOption {
	return func(p *Pack) { p.Owner = owner }
}

// WithTags adds tags, silently skipping duplicates.
func WithTags(tags ...Tag) PackOption {
	return func(p *Pack) {
		for _, tag := range tags {
			if !p.HasTag(tag) {
				p.tags = append(p.tags, tag)
			}
		}
	}
}

// WithSubPacks attaches sub-packs.
func WithSubPacks(subPacks ...*Pack) PackOption {
	return func(p *Pack) { p.SubPacks = append(p.SubPacks, subPacks...) }
}

// NewPack creates a SUBTRACT pack with the given value.
func NewPack(value float64, opts ...PackOption) *Pack {
	p := &Pack{
		Mode:  ModeSubtract,
		value: value,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.CheckExhaustion()
	return p
}

// PackConfig is the combat entry point's description of a pack. Mode is
// "ADD", "SET", "SUBTRACT" or "0".."2"; empty means SUBTRACT.
type PackConfig struct {
	Value    float64      `yaml:"value" json:"value"`
	Mode     string       `yaml:"mode" json:"mode"`
	Owner    any          `yaml:"owner,omitempty" json:"owner,omitempty"`
	Tags     []Tag        `yaml:"tags,omitempty" json:"tags,omitempty"`
	SubPacks []PackConfig `yaml:"sub_packs,omitempty" json:"sub_packs,omitempty"`
}

// NewPackFromConfig builds a pack tree, failing on unknown modes, duplicate
// tags and non-finite values.
func NewPackFromConfig(cfg PackConfig) (*Pack, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	if !finite(cfg.Value) {
		return nil, bmerr.Validationf("pack value must be finite, got %v", cfg.Value)
	}

	p := &Pack{
		Mode:  mode,
		Owner: cfg.Owner,
		value: cfg.Value,
	}
	for _, tag := range cfg.Tags {
		if err := p.AddTag(tag); err != nil {
			return nil, err
		}
	}
	for i, subCfg := range cfg.SubPacks {
		sub, err := NewPackFromConfig(subCfg)
		if err != nil {
			return nil, bmerr.Wrapf(err, "sub pack %d", i)
		}
		p.SubPacks = append(p.SubPacks, sub)
	}

	p.CheckExhaustion()
	return p, nil
}

// Value returns the current magnitude.
func (p *Pack) Value() float64 {
	return p.value
}

// Exhausted reports whether the value has dropped to zero or below.
func (p *Pack) Exhausted() bool {
	return p.exhausted
}

// SetValue assigns the magnitude and re-checks exhaustion on this pack and
// its sub-packs. Non-finite values are refused and leave the pack unchanged.
func (p *Pack) SetValue(v float64) error {
	if !finite(v) {
		return bmerr.Validationf("pack value must be finite, got %v", v)
	}
	p.value = v
	p.CheckExhaustion()
	return nil
}

// MultiplyValue scales the value by factor.
func (p *Pack) MultiplyValue(factor float64) error {
	return p.SetValue(p.value * factor)
}

// CheckExhaustion sets and returns the exhaustion flag, recursing into
// sub-packs and discarding the ones that are exhausted.
func (p *Pack) CheckExhaustion() bool {
	p.exhausted = p.value <= 0
	for _, sub := range p.SubPacks {
		sub.CheckExhaustion()
	}
	p.DiscardExhaustedSubPacks()
	return p.exhausted
}

// DiscardExhaustedSubPacks drops exhausted direct sub-packs. Discarded packs
// are not coming back.
func (p *Pack) DiscardExhaustedSubPacks() {
	p.SubPacks = slices.DeleteFunc(p.SubPacks, func(sub *Pack) bool {
		return sub.exhausted
	})
}

// AllPacks flattens the tree deepest-first with p last. Pipelines walk this
// list so children resolve before their parent.
func (p *Pack) AllPacks() []*Pack {
	var out []*Pack
	for _, sub := range p.SubPacks {
		out = append(out, sub.AllPacks()...)
	}
	return append(out, p)
}

// TopDownPacks flattens the tree parent-first (pre-order).
func (p *Pack) TopDownPacks() []*Pack {
	out := []*Pack{p}
	for _, sub := range p.SubPacks {
		out = append(out, sub.TopDownPacks()...)
	}
	return out
}

// ExtractSubPack removes target from anywhere below p and returns it, or nil
// when target is not a descendant.
func (p *Pack) ExtractSubPack(target *Pack) *Pack {
	for i, sub := range p.SubPacks {
		if sub == target {
			p.SubPacks = slices.Delete(p.SubPacks, i, i+1)
			return sub
		}
		if found := sub.ExtractSubPack(target); found != nil {
			return found
		}
	}
	return nil
}

// Contains reports whether target is p or one of its descendants.
func (p *Pack) Contains(target *Pack) bool {
	if p == target {
		return true
	}
	for _, sub := range p.SubPacks {
		if sub.Contains(target) {
			return true
		}
	}
	return false
}

// Tags returns a copy of the pack's tags.
func (p *Pack) Tags() []Tag {
	return slices.Clone(p.tags)
}

// HasTag reports whether the pack carries tag.
func (p *Pack) HasTag(tag Tag) bool {
	return slices.Contains(p.tags, tag)
}

// HasTagInSlice reports whether the pack carries any of tags. An empty slice
// matches every pack.
func (p *Pack) HasTagInSlice(tags []Tag) bool {
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if p.HasTag(tag) {
			return true
		}
	}
	return false
}

// AddTag adds a tag. Duplicates are rejected.
func (p *Pack) AddTag(tag Tag) error {
	if p.HasTag(tag) {
		return bmerr.AlreadyExistsf("pack already has tag %q", tag)
	}
	p.tags = append(p.tags, tag)
	return nil
}

// RemoveTag removes a tag and reports whether it was present.
func (p *Pack) RemoveTag(tag Tag) bool {
	i := slices.Index(p.tags, tag)
	if i < 0 {
		return false
	}
	p.tags = slices.Delete(p.tags, i, i+1)
	return true
}

// Clone deep-copies the pack tree. Owner is shared.
func (p *Pack) Clone() *Pack {
	c := &Pack{
		Mode:      p.Mode,
		Owner:     p.Owner,
		value:     p.value,
		tags:      slices.Clone(p.tags),
		exhausted: p.exhausted,
	}
	if len(p.SubPacks) > 0 {
		c.SubPacks = make([]*Pack, len(p.SubPacks))
		for i, sub := range p.SubPacks {
			c.SubPacks[i] = sub.Clone()
		}
	}
	return c
}

// Validate checks mode and values across the tree.
func (p *Pack) Validate() error {
	if !p.Mode.Valid() {
		return bmerr.InvalidArgumentf("unrecognized pack mode %d", int(p.Mode))
	}
	if !finite(p.value) {
		return bmerr.Validationf("pack value must be finite, got %v", p.value)
	}
	for i, sub := range p.SubPacks {
		if err := sub.Validate(); err != nil {
			return bmerr.Wrapf(err, "sub pack %d", i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
