package bestiary

import (
	"context"
	"io"
	"os"

	"github.com/CWDN/battle-monsters/internal/clients/dnd5e"
	"github.com/CWDN/battle-monsters/internal/damage"
	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/logger"
	"github.com/CWDN/battle-monsters/internal/monsters"
	"github.com/CWDN/battle-monsters/internal/services/combat"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// DefaultAttack is used when an entry names no attack and has no SRD action
const DefaultAttack = "1d6"

// srdLookupLimit caps concurrent SRD requests while loading
const srdLookupLimit = 4

// Service loads bestiary files and spawns their monsters
type Service interface {
	// Load decodes a bestiary and fills gaps from the SRD
	Load(ctx context.Context, r io.Reader) ([]*Entry, error)

	// LoadFile opens path and loads it
	LoadFile(ctx context.Context, path string) ([]*Entry, error)

	// Populate spawns every entry into the combat roster
	Populate(ctx context.Context, entries []*Entry) ([]*monsters.Monster, error)
}

// Entry is one monster in a bestiary file. SRD names a dnd5e monster key
// whose stat block supplies any of name, health and attack left empty.
type Entry struct {
	ID       string             `yaml:"id"`
	Name     string             `yaml:"name"`
	Element  monsters.Element   `yaml:"element"`
	Health   float64            `yaml:"health"`
	Attack   string             `yaml:"attack"`
	SRD      string             `yaml:"srd"`
	Pipeline *damage.NodeConfig `yaml:"pipeline"`
}

// SpawnInput converts the entry for the combat service
func (e *Entry) SpawnInput() *combat.SpawnInput {
	return &combat.SpawnInput{
		ID:       e.ID,
		Name:     e.Name,
		Element:  e.Element,
		Health:   e.Health,
		Pipeline: e.Pipeline,
	}
}

type document struct {
	Monsters []*Entry `yaml:"monsters"`
}

type service struct {
	combat    combat.Service
	dndClient dnd5e.Client
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Combat    combat.Service // Required
	DNDClient dnd5e.Client   // Optional; SRD entries fail to load without it
}

// NewService creates a new bestiary service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Combat == nil {
		panic("combat service is required")
	}

	return &service{
		combat:    cfg.Combat,
		dndClient: cfg.DNDClient,
	}
}

func (s *service) LoadFile(ctx context.Context, path string) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, bmerr.NotFoundf("bestiary not found: %s", path)
		}
		return nil, bmerr.Wrapf(err, "failed to open bestiary %s", path)
	}
	defer f.Close()

	entries, err := s.Load(ctx, f)
	if err != nil {
		return nil, bmerr.Wrapf(err, "bestiary %s", path)
	}
	return entries, nil
}

func (s *service) Load(ctx context.Context, r io.Reader) ([]*Entry, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, bmerr.WrapWithCode(err, bmerr.CodeInvalidArgument, "failed to decode bestiary")
	}

	for i, entry := range doc.Monsters {
		if entry == nil {
			return nil, bmerr.InvalidArgumentf("bestiary entry %d is empty", i)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(srdLookupLimit)
	for _, entry := range doc.Monsters {
		g.Go(func() error {
			return s.resolve(ctx, entry)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for i, entry := range doc.Monsters {
		if err := validate(entry); err != nil {
			return nil, bmerr.Wrapf(err, "bestiary entry %d", i)
		}
		if entry.ID == "" {
			continue
		}
		if seen[entry.ID] {
			return nil, bmerr.AlreadyExistsf("bestiary lists %s twice", entry.ID)
		}
		seen[entry.ID] = true
	}

	return doc.Monsters, nil
}

// resolve fills an entry's gaps from its SRD stat block
func (s *service) resolve(ctx context.Context, entry *Entry) error {
	if entry.Element == "" {
		entry.Element = monsters.ElementNone
	}
	if entry.SRD != "" {
		if s.dndClient == nil {
			return bmerr.InvalidArgumentf("entry %q needs the SRD client for %q", entry.Name, entry.SRD)
		}

		template, err := s.dndClient.GetMonster(ctx, entry.SRD)
		if err != nil {
			return bmerr.Wrapf(err, "failed to look up %q", entry.SRD)
		}
		if entry.Name == "" {
			entry.Name = template.Name
		}
		if entry.Health == 0 {
			entry.Health = template.HitPoints
		}
		if entry.Attack == "" {
			entry.Attack = template.AttackDice()
		}
	}
	if entry.Attack == "" {
		entry.Attack = DefaultAttack
	}
	return nil
}

func validate(entry *Entry) error {
	if entry.Name == "" {
		return bmerr.InvalidArgument("monster name is required")
	}
	if entry.Pipeline == nil && entry.Health <= 0 {
		return bmerr.Validationf("%s needs positive health, got %v", entry.Name, entry.Health)
	}
	return nil
}

func (s *service) Populate(ctx context.Context, entries []*Entry) ([]*monsters.Monster, error) {
	spawned := make([]*monsters.Monster, 0, len(entries))
	for _, entry := range entries {
		monster, err := s.combat.Spawn(ctx, entry.SpawnInput())
		if err != nil {
			return spawned, bmerr.Wrapf(err, "failed to spawn %s", entry.Name)
		}
		spawned = append(spawned, monster)
	}

	logger.Log.WithFields(logrus.Fields{
		"count": len(spawned),
	}).Info("bestiary populated")

	return spawned, nil
}
