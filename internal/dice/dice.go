package dice

import (
	"fmt"
	"strconv"
	"strings"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
)

// RollResult is the outcome of one roll of a dice expression
type RollResult struct {
	Total    int
	RawTotal int
	Rolls    []int
	Bonus    int
	Count    int
	Sides    int
}

// String renders the roll as "total : [rolls]+bonus". A flat amount is just
// its total.
func (r *RollResult) String() string {
	if len(r.Rolls) == 0 {
		return strconv.Itoa(r.Total)
	}
	rolls := make([]string, len(r.Rolls))
	for i, v := range r.Rolls {
		rolls[i] = strconv.Itoa(v)
	}
	compact := "[" + strings.Join(rolls, ",") + "]"
	if r.Bonus == 0 {
		return fmt.Sprintf("%d : %s", r.Total, compact)
	}
	return fmt.Sprintf("%d : %s%+d", r.Total, compact, r.Bonus)
}

// Expression is a parsed dice string such as "2d6+3". Count is zero for a
// flat amount like "7".
type Expression struct {
	Count int
	Sides int
	Bonus int
}

func (e Expression) String() string {
	if e.Count == 0 {
		return strconv.Itoa(e.Bonus)
	}
	if e.Bonus == 0 {
		return fmt.Sprintf("%dd%d", e.Count, e.Sides)
	}
	return fmt.Sprintf("%dd%d%+d", e.Count, e.Sides, e.Bonus)
}

// ParseExpression parses "NdS", "NdS+B", "NdS-B", "dS" or a flat integer.
// Whitespace is ignored.
func ParseExpression(s string) (Expression, error) {
	clean := strings.ToLower(strings.Join(strings.Fields(s), ""))
	if clean == "" {
		return Expression{}, bmerr.InvalidArgument("empty dice string")
	}

	dice, bonusPart := clean, ""
	if i := strings.LastIndexAny(clean, "+-"); i > 0 {
		dice, bonusPart = clean[:i], clean[i:]
	}

	var expr Expression
	if bonusPart != "" {
		bonus, err := strconv.Atoi(bonusPart)
		if err != nil {
			return Expression{}, bmerr.InvalidArgumentf("invalid dice string %q", s)
		}
		expr.Bonus = bonus
	}

	countPart, sidesPart, found := strings.Cut(dice, "d")
	if !found {
		flat, err := strconv.Atoi(dice)
		if err != nil || bonusPart != "" {
			return Expression{}, bmerr.InvalidArgumentf("invalid dice string %q", s)
		}
		expr.Bonus = flat
		return expr, nil
	}

	expr.Count = 1
	if countPart != "" {
		count, err := strconv.Atoi(countPart)
		if err != nil || count < 1 {
			return Expression{}, bmerr.InvalidArgumentf("invalid dice count in %q", s)
		}
		expr.Count = count
	}
	sides, err := strconv.Atoi(sidesPart)
	if err != nil || sides < 1 {
		return Expression{}, bmerr.InvalidArgumentf("invalid dice size in %q", s)
	}
	expr.Sides = sides

	return expr, nil
}

// RollString parses and rolls a dice string with roller
func RollString(roller Roller, diceString string) (*RollResult, error) {
	expr, err := ParseExpression(diceString)
	if err != nil {
		return nil, err
	}
	return RollExpression(roller, expr)
}

// RollExpression rolls expr with roller. Flat expressions do not touch the
// roller.
func RollExpression(roller Roller, expr Expression) (*RollResult, error) {
	if expr.Count == 0 {
		return &RollResult{Total: expr.Bonus, Bonus: expr.Bonus}, nil
	}
	return roller.Roll(expr.Count, expr.Sides, expr.Bonus)
}
