package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/CWDN/battle-monsters/internal/clients/dnd5e"
	"github.com/CWDN/battle-monsters/internal/config"
	"github.com/CWDN/battle-monsters/internal/dice"
	"github.com/CWDN/battle-monsters/internal/events"
	"github.com/CWDN/battle-monsters/internal/logger"
	"github.com/CWDN/battle-monsters/internal/repositories/combatlog"
	"github.com/CWDN/battle-monsters/internal/services"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format, nil)
	log := logger.Log

	if envErr != nil {
		log.Debug("No .env file found")
	} else {
		log.Debug("Loaded .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var combatLog combatlog.Repository = combatlog.NewInMemoryRepository()

	// Keep Redis client for cleanup
	var redisClient *redis.Client

	// Try to connect to Redis if URL is provided
	if cfg.Redis.URL != "" {
		opts, parseErr := redis.ParseURL(cfg.Redis.URL)
		if parseErr != nil {
			log.WithError(parseErr).Warn("Failed to parse Redis URL, keeping the combat log in memory")
		} else {
			client := redis.NewClient(opts)

			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			pingErr := client.Ping(pingCtx).Err()
			cancel()

			if pingErr != nil {
				log.WithError(pingErr).Warn("Failed to connect to Redis, keeping the combat log in memory")
				_ = client.Close()
			} else {
				redisClient = client
				combatLog = combatlog.NewRedis(client)
				log.WithField("addr", opts.Addr).Info("Using Redis for the combat log")
			}
		}
	} else {
		log.Info("No REDIS_URL found, keeping the combat log in memory")
	}

	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Error("Error closing Redis connection")
		}
	}()

	var dndClient dnd5e.Client
	if cfg.DND5E.Enabled {
		dndClient, err = dnd5e.New(&dnd5e.Config{
			BaseURL: cfg.DND5E.BaseURL,
			Timeout: cfg.DND5E.Timeout,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to create D&D 5e client")
		}
	}

	roller := dice.NewRandomRoller()
	provider := services.NewProvider(&services.ProviderConfig{
		DNDClient:           dndClient,
		CombatLogRepository: combatLog,
		Roller:              roller,
	})
	provider.Bus.Subscribe(events.EventTypeMeterBreak, events.NewListener("overkill-report", events.PriorityPresentation, func(e events.Event) error {
		if meter, ok := e.(*events.MeterEvent); ok {
			log.WithFields(logrus.Fields{
				"monster_id": meter.MonsterID,
				"meter":      meter.Node,
				"overkill":   meter.PackValue,
			}).Info("Meter broken")
		}
		return nil
	}))

	entries, err := provider.BestiaryService.LoadFile(ctx, cfg.Bestiary.Path)
	if err != nil {
		log.WithError(err).Fatal("Failed to load bestiary")
	}
	spawned, err := provider.BestiaryService.Populate(ctx, entries)
	if err != nil {
		log.WithError(err).Fatal("Failed to spawn bestiary")
	}

	fighters := make([]*combatant, len(spawned))
	for i, monster := range spawned {
		fighters[i] = &combatant{monster: monster, attack: entries[i].Attack}
		os.Stdout.WriteString(monster.Describe())
	}

	ground, err := newArena(defaultLayout)
	if err != nil {
		log.WithError(err).Fatal("Failed to build arena")
	}

	s := &skirmish{
		combat:    provider.CombatService,
		roller:    roller,
		arena:     ground,
		out:       os.Stdout,
		maxRounds: defaultMaxRounds,
	}
	survivors, rounds, err := s.run(ctx, fighters)
	if err != nil {
		log.WithError(err).Error("Skirmish stopped")
		return
	}

	switch len(survivors) {
	case 0:
		log.WithField("rounds", rounds).Info("Nobody survived")
	case 1:
		log.WithFields(logrus.Fields{
			"rounds": rounds,
			"winner": survivors[0].monster.DisplayName(),
		}).Info("Skirmish won")
	default:
		log.WithFields(logrus.Fields{
			"rounds":    rounds,
			"survivors": len(survivors),
		}).Info("Skirmish ended in a stalemate")
	}
}
