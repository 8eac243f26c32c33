package combat

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/CWDN/battle-monsters/internal/damage"
	"github.com/CWDN/battle-monsters/internal/dice"
	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/events"
	"github.com/CWDN/battle-monsters/internal/logger"
	"github.com/CWDN/battle-monsters/internal/monsters"
	"github.com/CWDN/battle-monsters/internal/repositories/combatlog"
	"github.com/CWDN/battle-monsters/internal/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Service resolves attacks against a roster of monsters
type Service interface {
	// Spawn adds a monster to the roster
	Spawn(ctx context.Context, input *SpawnInput) (*monsters.Monster, error)

	// Get returns a spawned monster
	Get(ctx context.Context, id string) (*monsters.Monster, error)

	// List returns the roster ordered by ID
	List(ctx context.Context) []*monsters.Monster

	// Despawn removes a monster and its combat log
	Despawn(ctx context.Context, id string) error

	// Strike rolls damage and feeds it through the target's pipeline
	Strike(ctx context.Context, input *StrikeInput) (*StrikeResult, error)

	// StrikeAll resolves one attack against several targets concurrently
	StrikeAll(ctx context.Context, input *StrikeInput, targetIDs []string) ([]*StrikeResult, error)

	// History returns the recorded pipeline events for a monster
	History(ctx context.Context, id string) ([]*combatlog.Entry, error)
}

// SpawnInput describes a monster to add to the roster
type SpawnInput struct {
	ID      string // Generated when empty
	Name    string
	Element monsters.Element
	Health  float64

	// Pipeline replaces the element's standard pipeline. It must contain a
	// meter named monsters.HealthMeterName.
	Pipeline *damage.NodeConfig
}

// StrikeInput describes one attack
type StrikeInput struct {
	AttackerID string // Recorded as the pack owner
	TargetID   string
	Dice       string // Dice expression such as "2d6+3", or a flat amount
	Element    monsters.Element
	Mode       string // ADD, SET or SUBTRACT; empty means SUBTRACT
	Tags       []damage.Tag
}

// StrikeResult reports what a strike did to its target
type StrikeResult struct {
	TargetID     string
	Roll         *dice.RollResult
	Damage       float64 // Pack value before the pipeline
	Residual     float64 // Pack value after the pipeline
	HealthBefore float64
	HealthAfter  float64
	Killed       bool
	Events       []events.EventType
}

type service struct {
	roller  dice.Roller
	log     combatlog.Repository
	uuidGen uuid.Generator
	bus     *events.Bus

	mu       sync.RWMutex
	roster   map[string]*monsters.Monster
	trackers map[string]*tracker
}

// ServiceConfig holds configuration for the service
type ServiceConfig struct {
	Roller        dice.Roller          // Required
	CombatLog     combatlog.Repository // Required
	UUIDGenerator uuid.Generator
	Bus           *events.Bus
}

// NewService creates a new combat service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Roller == nil {
		panic("dice roller is required")
	}
	if cfg.CombatLog == nil {
		panic("combat log repository is required")
	}

	s := &service{
		roller:   cfg.Roller,
		log:      cfg.CombatLog,
		uuidGen:  cfg.UUIDGenerator,
		bus:      cfg.Bus,
		roster:   make(map[string]*monsters.Monster),
		trackers: make(map[string]*tracker),
	}
	if s.uuidGen == nil {
		s.uuidGen = uuid.NewGoogleUUIDGenerator()
	}
	if s.bus == nil {
		s.bus = events.NewBus()
	}

	s.bus.Subscribe(events.EventTypeMeterZero, events.NewListener("combat-death-log", events.PriorityGameplay, s.logDeath))

	return s
}

func (s *service) Spawn(ctx context.Context, input *SpawnInput) (*monsters.Monster, error) {
	if input == nil {
		return nil, bmerr.InvalidArgument("spawn input is required")
	}
	if input.Name == "" {
		return nil, bmerr.InvalidArgument("monster name is required")
	}

	id := input.ID
	if id == "" {
		id = s.uuidGen.New()
	}

	var (
		monster *monsters.Monster
		err     error
	)
	if input.Pipeline != nil {
		root, buildErr := damage.Build(*input.Pipeline)
		if buildErr != nil {
			return nil, bmerr.Wrapf(buildErr, "failed to build pipeline for %q", input.Name)
		}
		monster, err = monsters.NewWithPipeline(id, input.Name, input.Element, root)
	} else {
		monster, err = monsters.New(id, input.Name, input.Element, input.Health)
	}
	if err != nil {
		return nil, err
	}

	t := &tracker{monsterID: id}
	monster.WithPipeline(func(root *damage.Node, _ *damage.MeterNode) {
		t.wire(root)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.roster[id]; exists {
		return nil, bmerr.AlreadyExistsf("monster %s already spawned", id).WithMeta("monster_id", id)
	}
	s.roster[id] = monster
	s.trackers[id] = t

	health, _ := monster.Health()
	logger.Log.WithFields(logrus.Fields{
		"monster_id": id,
		"name":       monster.DisplayName(),
		"element":    monster.Element,
		"health":     health,
	}).Info("monster spawned")

	return monster, nil
}

func (s *service) Get(ctx context.Context, id string) (*monsters.Monster, error) {
	monster, _, err := s.lookup(id)
	return monster, err
}

func (s *service) lookup(id string) (*monsters.Monster, *tracker, error) {
	if id == "" {
		return nil, nil, bmerr.InvalidArgument("monster ID is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	monster, ok := s.roster[id]
	if !ok {
		return nil, nil, bmerr.NotFoundf("monster not found: %s", id).WithMeta("monster_id", id)
	}
	return monster, s.trackers[id], nil
}

func (s *service) List(ctx context.Context) []*monsters.Monster {
	s.mu.RLock()
	out := make([]*monsters.Monster, 0, len(s.roster))
	for _, monster := range s.roster {
		out = append(out, monster)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *monsters.Monster) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (s *service) Despawn(ctx context.Context, id string) error {
	if _, _, err := s.lookup(id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.roster, id)
	delete(s.trackers, id)
	s.mu.Unlock()

	if _, err := s.log.DeleteByMonster(ctx, id); err != nil {
		return bmerr.Wrapf(err, "failed to clear combat log for %s", id)
	}
	return nil
}

func (s *service) Strike(ctx context.Context, input *StrikeInput) (*StrikeResult, error) {
	if input == nil {
		return nil, bmerr.InvalidArgument("strike input is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, bmerr.Wrap(err, "strike cancelled")
	}

	target, t, err := s.lookup(input.TargetID)
	if err != nil {
		return nil, err
	}

	roll, err := dice.RollString(s.roller, input.Dice)
	if err != nil {
		return nil, bmerr.Wrapf(err, "failed to roll %q", input.Dice)
	}

	tags := slices.Clone(input.Tags)
	if tag := input.Element.Tag(); tag != "" && !slices.Contains(tags, tag) {
		tags = append(tags, tag)
	}
	pack, err := damage.NewPackFromConfig(damage.PackConfig{
		Value: float64(roll.Total),
		Mode:  input.Mode,
		Owner: input.AttackerID,
		Tags:  tags,
	})
	if err != nil {
		return nil, err
	}

	result := &StrikeResult{
		TargetID: input.TargetID,
		Roll:     roll,
		Damage:   pack.Value(),
	}

	var emitted []events.Event
	target.WithPipeline(func(root *damage.Node, health *damage.MeterNode) {
		// Left over from hits that bypassed Strike.
		t.drain()
		result.HealthBefore = health.Value()
		err = root.Receive(pack)
		result.HealthAfter = health.Value()
		emitted = t.drain()
	})
	if err != nil {
		return nil, err
	}

	result.Residual = pack.Value()
	result.Killed = result.HealthBefore > 0 && result.HealthAfter == 0

	logger.Log.WithFields(logrus.Fields{
		"monster_id":    input.TargetID,
		"attacker_id":   input.AttackerID,
		"roll":          roll.Total,
		"mode":          pack.Mode.String(),
		"health_before": result.HealthBefore,
		"health_after":  result.HealthAfter,
	}).Debug("strike resolved")

	for _, event := range emitted {
		result.Events = append(result.Events, event.GetType())
		s.record(ctx, event)
	}

	return result, nil
}

func (s *service) StrikeAll(ctx context.Context, input *StrikeInput, targetIDs []string) ([]*StrikeResult, error) {
	if input == nil {
		return nil, bmerr.InvalidArgument("strike input is required")
	}

	results := make([]*StrikeResult, len(targetIDs))

	g, ctx := errgroup.WithContext(ctx)
	for i, targetID := range targetIDs {
		g.Go(func() error {
			perTarget := *input
			perTarget.TargetID = targetID

			result, err := s.Strike(ctx, &perTarget)
			if err != nil {
				return bmerr.Wrapf(err, "strike on %s failed", targetID)
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (s *service) History(ctx context.Context, id string) ([]*combatlog.Entry, error) {
	if id == "" {
		return nil, bmerr.InvalidArgument("monster ID is required")
	}
	return s.log.ListByMonster(ctx, id)
}

// record journals an event and then publishes it. Failures are logged; the
// damage has already been applied.
func (s *service) record(ctx context.Context, event events.Event) {
	log := logger.Log.WithFields(logrus.Fields{
		"monster_id": event.GetMonsterID(),
		"event":      event.GetType(),
	})

	if err := s.log.Append(ctx, toEntry(event)); err != nil {
		log.WithError(err).Warn("failed to record combat log entry")
	}
	if err := s.bus.Emit(event); err != nil {
		log.WithError(err).Warn("event listener failed")
	}
}

func (s *service) logDeath(event events.Event) error {
	meterEvent, ok := event.(*events.MeterEvent)
	if !ok || meterEvent.Node != monsters.HealthMeterName {
		return nil
	}

	logger.Log.WithFields(logrus.Fields{
		"monster_id": meterEvent.MonsterID,
		"overkill":   meterEvent.PackValue,
	}).Info("monster died")
	return nil
}

func toEntry(event events.Event) *combatlog.Entry {
	entry := &combatlog.Entry{
		MonsterID: event.GetMonsterID(),
		Type:      string(event.GetType()),
	}

	switch e := event.(type) {
	case *events.MeterEvent:
		entry.Node = e.Node
		entry.Mode = e.Mode
		entry.Tags = e.Tags
		entry.PackValue = e.PackValue
		entry.MeterValue = e.MeterValue
		entry.MeterMax = e.MeterMax
	case *events.DispatchEvent:
		entry.Node = e.Node
		entry.Mode = e.Mode
		entry.Tags = e.Tags
		entry.PackValue = e.PackValue
	}

	return entry
}
