package combatlog

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mock/mock_repository.go -package=mockcombatlog -source=interface.go

// Repository stores the journal of pipeline events per monster
type Repository interface {
	// Append stores e, filling in ID and CreatedAt when empty
	Append(ctx context.Context, e *Entry) error
	Get(ctx context.Context, id string) (*Entry, error)
	// ListByMonster returns a monster's entries in append order
	ListByMonster(ctx context.Context, monsterID string) ([]*Entry, error)
	// DeleteByMonster removes a monster's entries and returns how many
	DeleteByMonster(ctx context.Context, monsterID string) (int, error)
}

// TimeProvider stamps entries
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider reads the wall clock
type RealTimeProvider struct{}

func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}
