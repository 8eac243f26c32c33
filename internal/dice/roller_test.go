package dice_test

import (
	"testing"

	"github.com/CWDN/battle-monsters/internal/dice"
	mockdice "github.com/CWDN/battle-monsters/internal/dice/mock"
	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestParseExpression(t *testing.T) {
	tests := []struct {
		input   string
		want    dice.Expression
		wantErr bool
	}{
		{input: "2d6+3", want: dice.Expression{Count: 2, Sides: 6, Bonus: 3}},
		{input: "1d8-1", want: dice.Expression{Count: 1, Sides: 8, Bonus: -1}},
		{input: "d20", want: dice.Expression{Count: 1, Sides: 20}},
		{input: " 3D4 + 2 ", want: dice.Expression{Count: 3, Sides: 4, Bonus: 2}},
		{input: "7", want: dice.Expression{Bonus: 7}},
		{input: "", wantErr: true},
		{input: "2d", wantErr: true},
		{input: "0d6", wantErr: true},
		{input: "2d6+", wantErr: true},
		{input: "1d8+2+3", wantErr: true},
		{input: "fireball", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := dice.ParseExpression(tt.input)
			if tt.wantErr {
				assert.True(t, bmerr.IsInvalidArgument(err), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpression_String(t *testing.T) {
	assert.Equal(t, "2d6+3", dice.Expression{Count: 2, Sides: 6, Bonus: 3}.String())
	assert.Equal(t, "1d8-1", dice.Expression{Count: 1, Sides: 8, Bonus: -1}.String())
	assert.Equal(t, "1d20", dice.Expression{Count: 1, Sides: 20}.String())
	assert.Equal(t, "4", dice.Expression{Bonus: 4}.String())
}

func TestManualMockRoller_Roll(t *testing.T) {
	tests := []struct {
		name       string
		setupRolls []int
		count      int
		sides      int
		bonus      int
		wantTotal  int
		wantRolls  []int
		wantErr    bool
	}{
		{
			name:       "single d20 roll",
			setupRolls: []int{15},
			count:      1,
			sides:      20,
			wantTotal:  15,
			wantRolls:  []int{15},
		},
		{
			name:       "2d6+3",
			setupRolls: []int{4, 5},
			count:      2,
			sides:      6,
			bonus:      3,
			wantTotal:  12, // 4+5+3
			wantRolls:  []int{4, 5},
		},
		{
			name:       "not enough rolls",
			setupRolls: []int{10},
			count:      2,
			sides:      6,
			wantErr:    true,
		},
		{
			name:       "invalid roll for die size",
			setupRolls: []int{7},
			count:      1,
			sides:      6,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roller := mockdice.NewManualMockRoller(tt.setupRolls...)

			result, err := roller.Roll(tt.count, tt.sides, tt.bonus)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, len(tt.setupRolls), roller.Remaining())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, result.Total)
			assert.Equal(t, tt.wantRolls, result.Rolls)
			assert.Equal(t, 0, roller.Remaining())
		})
	}
}

func TestRollString(t *testing.T) {
	ctrl := gomock.NewController(t)
	roller := mockdice.NewMockRoller(ctrl)

	roller.EXPECT().Roll(2, 6, 3).Return(&dice.RollResult{Total: 10, RawTotal: 7, Rolls: []int{3, 4}, Bonus: 3, Count: 2, Sides: 6}, nil)

	result, err := dice.RollString(roller, "2d6+3")
	require.NoError(t, err)
	assert.Equal(t, 10, result.Total)
	assert.Equal(t, "10 : [3,4]+3", result.String())
}

func TestRollString_FlatAmountSkipsRoller(t *testing.T) {
	ctrl := gomock.NewController(t)
	roller := mockdice.NewMockRoller(ctrl)

	result, err := dice.RollString(roller, "12")
	require.NoError(t, err)
	assert.Equal(t, 12, result.Total)
	assert.Equal(t, "12", result.String())
}

func TestRollResult_String(t *testing.T) {
	tests := []struct {
		name   string
		result dice.RollResult
		want   string
	}{
		{name: "single die", result: dice.RollResult{Total: 4, Rolls: []int{4}}, want: "4 : [4]"},
		{name: "multi digit rolls stay apart", result: dice.RollResult{Total: 22, Rolls: []int{12, 10}}, want: "22 : [12,10]"},
		{name: "penalty", result: dice.RollResult{Total: 5, Rolls: []int{3, 4}, Bonus: -2}, want: "5 : [3,4]-2"},
		{name: "flat", result: dice.RollResult{Total: 7, Bonus: 7}, want: "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.String())
		})
	}
}

func TestRollString_PropagatesRollerErrors(t *testing.T) {
	roller := mockdice.NewManualMockRoller()

	_, err := dice.RollString(roller, "1d6")
	assert.Error(t, err)

	_, err = dice.RollString(roller, "1dX")
	assert.True(t, bmerr.IsInvalidArgument(err))
}

func TestRandomRoller_Bounds(t *testing.T) {
	roller := dice.NewRandomRoller()

	for range 200 {
		result, err := roller.Roll(3, 6, 2)
		require.NoError(t, err)
		require.Len(t, result.Rolls, 3)
		for _, roll := range result.Rolls {
			assert.GreaterOrEqual(t, roll, 1)
			assert.LessOrEqual(t, roll, 6)
		}
		assert.Equal(t, result.RawTotal+2, result.Total)
	}

	_, err := roller.Roll(0, 6, 0)
	assert.True(t, bmerr.IsInvalidArgument(err))
	_, err = roller.Roll(1, 0, 0)
	assert.True(t, bmerr.IsInvalidArgument(err))
}

func TestSeededRoller_Repeatable(t *testing.T) {
	a := dice.NewSeededRoller(42)
	b := dice.NewSeededRoller(42)

	for range 10 {
		ra, err := a.Roll(2, 20, 0)
		require.NoError(t, err)
		rb, err := b.Roll(2, 20, 0)
		require.NoError(t, err)
		assert.Equal(t, ra.Rolls, rb.Rolls)
	}
}
