package damage_test

import (
	"strings"
	"testing"

	"github.com/CWDN/battle-monsters/internal/damage"
	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fireMonsterTree = `
name: Water Multiplier
kind: multiplier
tags: [WATER]
factor: 2
children:
  - name: Earth Multiplier
    kind: multiplier
    tags: [EARTH]
    factor: 0.5
    children:
      - name: Health Meter
        kind: meter
        value_max: 100
`

func TestLoadTree(t *testing.T) {
	root, err := damage.LoadTree(strings.NewReader(fireMonsterTree))
	require.NoError(t, err)

	assert.Equal(t, "Water Multiplier", root.Name())
	assert.Equal(t, damage.KindMultiplier, root.Kind())

	health, ok := root.Find("Health Meter").Meter()
	require.True(t, ok)
	assert.Equal(t, 100.0, health.Value())

	require.NoError(t, root.Receive(damage.NewPack(20, damage.WithTags(damage.TagWater))))
	assert.Equal(t, 60.0, health.Value())

	require.NoError(t, root.Receive(damage.NewPack(20, damage.WithTags(damage.TagEarth))))
	assert.Equal(t, 50.0, health.Value())
}

func TestLoadTree_NumericTagsAndFlags(t *testing.T) {
	root, err := damage.LoadTree(strings.NewReader(`
name: Router
tags: [3, "FIRE"]
process_on_receive: false
do_default_dispatch: false
process_top_down: true
default_child_index: 1
children:
  - name: Shield
    kind: meter
    value: 5
    value_max: 10
  - name: Health
    kind: meter
`))
	require.NoError(t, err)

	assert.Equal(t, []damage.Tag{damage.IntTag(3), damage.TagFire}, root.Tags())
	assert.False(t, root.ProcessOnReceive)
	assert.False(t, root.DoDefaultDispatch)
	assert.True(t, root.ProcessTopDown)
	assert.Equal(t, 1, root.DefaultChildIndex)

	shield, ok := root.ChildByName("Shield").Meter()
	require.True(t, ok)
	assert.Equal(t, 5.0, shield.Value())
	assert.Equal(t, 10.0, shield.ValueMax())

	health, ok := root.ChildByName("Health").Meter()
	require.True(t, ok)
	assert.Equal(t, float64(damage.DefaultValueMax), health.Value())
}

func TestBuild_Errors(t *testing.T) {
	factor := 2.0
	negative := -4.0

	tests := []struct {
		name    string
		cfg     damage.NodeConfig
		checkFn func(error) bool
	}{
		{
			name:    "missing name",
			cfg:     damage.NodeConfig{},
			checkFn: bmerr.IsInvalidArgument,
		},
		{
			name:    "unknown kind",
			cfg:     damage.NodeConfig{Name: "X", Kind: "teleporter"},
			checkFn: bmerr.IsInvalidArgument,
		},
		{
			name:    "multiplier without tag",
			cfg:     damage.NodeConfig{Name: "X", Kind: "multiplier", Factor: &factor},
			checkFn: bmerr.IsInvalidArgument,
		},
		{
			name:    "multiplier without factor",
			cfg:     damage.NodeConfig{Name: "X", Kind: "multiplier", Tags: []damage.Tag{damage.TagFire}},
			checkFn: bmerr.IsInvalidArgument,
		},
		{
			name:    "negative meter max",
			cfg:     damage.NodeConfig{Name: "X", Kind: "meter", ValueMax: &negative},
			checkFn: bmerr.IsValidation,
		},
		{
			name: "duplicate sibling names",
			cfg: damage.NodeConfig{Name: "Root", Children: []damage.NodeConfig{
				{Name: "Twin"},
				{Name: "Twin"},
			}},
			checkFn: bmerr.IsAlreadyExists,
		},
		{
			name: "bad grandchild",
			cfg: damage.NodeConfig{Name: "Root", Children: []damage.NodeConfig{
				{Name: "Child", Children: []damage.NodeConfig{{Kind: "meter"}}},
			}},
			checkFn: bmerr.IsInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := damage.Build(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, node)
			assert.True(t, tt.checkFn(err), "unexpected error: %v", err)
		})
	}
}

func TestLoadTree_MalformedYAML(t *testing.T) {
	_, err := damage.LoadTree(strings.NewReader("name: [unterminated"))
	assert.True(t, bmerr.IsInvalidArgument(err))

	_, err = damage.LoadTree(strings.NewReader("name: X\ntags:\n  - {a: b}\n"))
	assert.True(t, bmerr.IsInvalidArgument(err))
}
