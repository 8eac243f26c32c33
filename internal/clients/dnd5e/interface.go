package dnd5e

//go:generate mockgen -destination=mock/mock_client.go -package=mockdnd5e . Client

import "context"

// Client looks up SRD monster stat blocks
type Client interface {
	GetMonster(ctx context.Context, key string) (*MonsterTemplate, error)
}

// MonsterTemplate is the part of an SRD stat block a bestiary entry can
// borrow
type MonsterTemplate struct {
	Key             string
	Name            string
	HitPoints       float64
	ChallengeRating float64
	Actions         []*MonsterAction
}

// MonsterAction is one attack from a stat block
type MonsterAction struct {
	Name       string
	DamageDice []string
}

// AttackDice returns the first damage expression in the stat block, or an
// empty string when the monster has none
func (m *MonsterTemplate) AttackDice() string {
	for _, action := range m.Actions {
		for _, dice := range action.DamageDice {
			if dice != "" {
				return dice
			}
		}
	}
	return ""
}
