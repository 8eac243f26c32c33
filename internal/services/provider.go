package services

import (
	"github.com/CWDN/battle-monsters/internal/clients/dnd5e"
	"github.com/CWDN/battle-monsters/internal/dice"
	"github.com/CWDN/battle-monsters/internal/events"
	"github.com/CWDN/battle-monsters/internal/repositories/combatlog"
	"github.com/CWDN/battle-monsters/internal/services/bestiary"
	"github.com/CWDN/battle-monsters/internal/services/combat"
)

// Provider holds all service instances
type Provider struct {
	CombatService   combat.Service
	BestiaryService bestiary.Service
	Bus             *events.Bus
}

// ProviderConfig holds configuration for creating services
type ProviderConfig struct {
	DNDClient           dnd5e.Client
	CombatLogRepository combatlog.Repository
	Roller              dice.Roller
	Bus                 *events.Bus
}

// NewProvider creates a new service provider with all services initialized
func NewProvider(cfg *ProviderConfig) *Provider {
	// Use in-memory repository if none provided
	logRepo := cfg.CombatLogRepository
	if logRepo == nil {
		logRepo = combatlog.NewInMemoryRepository()
	}

	roller := cfg.Roller
	if roller == nil {
		roller = dice.NewRandomRoller()
	}

	bus := cfg.Bus
	if bus == nil {
		bus = events.NewBus()
	}

	combatService := combat.NewService(&combat.ServiceConfig{
		Roller:    roller,
		CombatLog: logRepo,
		Bus:       bus,
	})

	bestiaryService := bestiary.NewService(&bestiary.ServiceConfig{
		Combat:    combatService,
		DNDClient: cfg.DNDClient,
	})

	return &Provider{
		CombatService:   combatService,
		BestiaryService: bestiaryService,
		Bus:             bus,
	}
}
