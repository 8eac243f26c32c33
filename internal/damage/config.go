package damage

import (
	"io"
	"strings"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"gopkg.in/yaml.v3"
)

// Node kinds accepted by NodeConfig.Kind.
const (
	ConfigKindNode       = "node"
	ConfigKindMeter      = "meter"
	ConfigKindMultiplier = "multiplier"
)

// NodeConfig describes one node of a pipeline tree. Pointer fields are
// optional; nil keeps the node default.
type NodeConfig struct {
	Name     string       `yaml:"name" json:"name"`
	Kind     string       `yaml:"kind,omitempty" json:"kind,omitempty"`
	Tags     []Tag        `yaml:"tags,omitempty" json:"tags,omitempty"`
	Children []NodeConfig `yaml:"children,omitempty" json:"children,omitempty"`

	DefaultChildIndex int   `yaml:"default_child_index,omitempty" json:"default_child_index,omitempty"`
	DoDefaultDispatch *bool `yaml:"do_default_dispatch,omitempty" json:"do_default_dispatch,omitempty"`
	ProcessOnReceive  *bool `yaml:"process_on_receive,omitempty" json:"process_on_receive,omitempty"`
	ProcessTopDown    bool  `yaml:"process_top_down,omitempty" json:"process_top_down,omitempty"`

	// Meter only. Both default to DefaultValueMax.
	Value    *float64 `yaml:"value,omitempty" json:"value,omitempty"`
	ValueMax *float64 `yaml:"value_max,omitempty" json:"value_max,omitempty"`

	// Multiplier only.
	Factor *float64 `yaml:"factor,omitempty" json:"factor,omitempty"`
}

// Build constructs the tree described by cfg and returns its root.
func Build(cfg NodeConfig) (*Node, error) {
	if cfg.Name == "" {
		return nil, bmerr.InvalidArgument("node name is required")
	}

	opts := []NodeOption{
		WithDefaultChildIndex(cfg.DefaultChildIndex),
		WithProcessTopDown(cfg.ProcessTopDown),
	}
	if cfg.DoDefaultDispatch != nil {
		opts = append(opts, WithDefaultDispatch(*cfg.DoDefaultDispatch))
	}
	if cfg.ProcessOnReceive != nil {
		opts = append(opts, WithProcessOnReceive(*cfg.ProcessOnReceive))
	}

	var (
		node *Node
		err  error
	)
	switch strings.ToLower(cfg.Kind) {
	case "", ConfigKindNode:
		opts = append(opts, WithNodeTags(cfg.Tags...))
		node, err = NewNode(cfg.Name, opts...)
	case ConfigKindMeter:
		valueMax := float64(DefaultValueMax)
		if cfg.ValueMax != nil {
			valueMax = *cfg.ValueMax
		}
		value := valueMax
		if cfg.Value != nil {
			value = *cfg.Value
		}
		opts = append(opts, WithNodeTags(cfg.Tags...))
		var meter *MeterNode
		meter, err = NewMeterNode(cfg.Name, value, valueMax, opts...)
		if meter != nil {
			node = meter.Node
		}
	case ConfigKindMultiplier:
		if len(cfg.Tags) != 1 {
			return nil, bmerr.InvalidArgumentf("multiplier %q needs exactly one tag, got %d", cfg.Name, len(cfg.Tags))
		}
		if cfg.Factor == nil {
			return nil, bmerr.InvalidArgumentf("multiplier %q needs a factor", cfg.Name)
		}
		node, err = NewMultiplierNode(cfg.Name, cfg.Tags[0], *cfg.Factor, opts...)
	default:
		return nil, bmerr.InvalidArgumentf("node %q has unknown kind %q", cfg.Name, cfg.Kind)
	}
	if err != nil {
		return nil, err
	}

	for _, childCfg := range cfg.Children {
		child, err := Build(childCfg)
		if err != nil {
			return nil, bmerr.Wrapf(err, "node %q", cfg.Name)
		}
		if err := node.AddChild(child); err != nil {
			return nil, err
		}
	}

	return node, nil
}

// LoadTree decodes a YAML NodeConfig from r and builds it.
func LoadTree(r io.Reader) (*Node, error) {
	var cfg NodeConfig
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, bmerr.WrapWithCode(err, bmerr.CodeInvalidArgument, "failed to decode pipeline config")
	}
	return Build(cfg)
}
