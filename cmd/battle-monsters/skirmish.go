package main

import (
	"context"
	"fmt"
	"io"

	"github.com/CWDN/battle-monsters/internal/dice"
	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/monsters"
	"github.com/CWDN/battle-monsters/internal/pathfinding"
	"github.com/CWDN/battle-monsters/internal/services/combat"
)

const (
	defaultMaxRounds = 20
	moveSpeed        = 2
)

type combatant struct {
	monster *monsters.Monster
	attack  string
	pos     *pathfinding.GraphNode
}

type skirmish struct {
	combat    combat.Service
	roller    dice.Roller
	arena     *arena
	out       io.Writer
	maxRounds int
}

// run lets every living fighter move and strike once per round until one
// side is left or the round limit is hit. It returns the survivors.
func (s *skirmish) run(ctx context.Context, fighters []*combatant) ([]*combatant, int, error) {
	if !s.arena.place(fighters) {
		return nil, 0, bmerr.Validationf("arena too small for %d fighters", len(fighters))
	}

	round := 0
	for round < s.maxRounds && len(living(fighters)) > 1 {
		round++
		fmt.Fprintf(s.out, "Round %d\n", round)

		for _, f := range fighters {
			if err := ctx.Err(); err != nil {
				return living(fighters), round, err
			}
			if !f.monster.Alive() {
				continue
			}

			target, err := s.pickTarget(f, fighters)
			if err != nil {
				return nil, round, err
			}
			if target == nil {
				break
			}
			if err := s.turn(ctx, f, target); err != nil {
				return nil, round, err
			}
		}
	}

	return living(fighters), round, nil
}

func (s *skirmish) pickTarget(f *combatant, fighters []*combatant) (*combatant, error) {
	var targets []*combatant
	for _, other := range fighters {
		if other != f && other.monster.Alive() {
			targets = append(targets, other)
		}
	}

	switch len(targets) {
	case 0:
		return nil, nil
	case 1:
		return targets[0], nil
	}

	roll, err := s.roller.Roll(1, len(targets), 0)
	if err != nil {
		return nil, err
	}
	return targets[roll.Total-1], nil
}

func (s *skirmish) turn(ctx context.Context, f, target *combatant) error {
	name := f.monster.DisplayName()
	if !s.arena.approach(f, target, moveSpeed) {
		fmt.Fprintf(s.out, "  %s moves to %s\n", name, f.pos)
		return nil
	}

	result, err := s.combat.Strike(ctx, &combat.StrikeInput{
		AttackerID: f.monster.ID,
		TargetID:   target.monster.ID,
		Dice:       f.attack,
		Element:    f.monster.Element,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "  %s hits %s with %s: %s dealt %g, health %g -> %g\n",
		name, target.monster.DisplayName(), f.attack, result.Roll, result.HealthBefore-result.HealthAfter,
		result.HealthBefore, result.HealthAfter)
	if result.Killed {
		fmt.Fprintf(s.out, "  %s is defeated\n", target.monster.DisplayName())
		s.arena.remove(target)
	}
	return nil
}

func living(fighters []*combatant) []*combatant {
	var out []*combatant
	for _, f := range fighters {
		if f.monster.Alive() {
			out = append(out, f)
		}
	}
	return out
}
