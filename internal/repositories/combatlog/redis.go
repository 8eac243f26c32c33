package combatlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// RedisConfig configures the Redis combat log
type RedisConfig struct {
	Client        redis.UniversalClient
	UUIDGenerator uuid.Generator
	TimeProvider  TimeProvider
}

type redisRepo struct {
	client       redis.UniversalClient
	uuidGen      uuid.Generator
	timeProvider TimeProvider
}

// NewRedisRepository creates a Redis-backed combat log
func NewRedisRepository(cfg *RedisConfig) (Repository, error) {
	if cfg == nil || cfg.Client == nil {
		return nil, bmerr.InvalidArgument("redis client is required")
	}

	repo := &redisRepo{
		client:       cfg.Client,
		uuidGen:      cfg.UUIDGenerator,
		timeProvider: cfg.TimeProvider,
	}
	if repo.uuidGen == nil {
		repo.uuidGen = uuid.NewGoogleUUIDGenerator()
	}
	if repo.timeProvider == nil {
		repo.timeProvider = &RealTimeProvider{}
	}

	return repo, nil
}

// NewRedis creates a Redis-backed combat log with default id and time sources
func NewRedis(client redis.UniversalClient) Repository {
	repo, err := NewRedisRepository(&RedisConfig{Client: client})
	if err != nil {
		// Only a nil client fails
		panic(err)
	}
	return repo
}

func entryKey(id string) string {
	return fmt.Sprintf("combatlog:%s", id)
}

func monsterKey(monsterID string) string {
	return fmt.Sprintf("monster:%s:combatlog", monsterID)
}

func (r *redisRepo) Append(ctx context.Context, e *Entry) error {
	if e == nil {
		return bmerr.InvalidArgument("entry cannot be nil")
	}
	if e.MonsterID == "" {
		return bmerr.InvalidArgument("entry monster ID is required")
	}
	stamp(e, r.uuidGen, r.timeProvider)

	jsonData, err := json.Marshal(toData(e))
	if err != nil {
		return bmerr.Wrap(err, "failed to marshal combat log entry")
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, entryKey(e.ID), string(jsonData), 0)
	pipe.RPush(ctx, monsterKey(e.MonsterID), e.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return bmerr.WrapWithCode(err, bmerr.CodeUnavailable, "failed to append combat log entry to Redis")
	}

	return nil
}

func (r *redisRepo) Get(ctx context.Context, id string) (*Entry, error) {
	if id == "" {
		return nil, bmerr.InvalidArgument("entry ID is required")
	}

	jsonData, err := r.client.Get(ctx, entryKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, bmerr.NotFoundf("combat log entry not found: %s", id)
		}
		return nil, bmerr.WrapWithCode(err, bmerr.CodeUnavailable, "failed to get combat log entry from Redis")
	}

	var data Data
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, bmerr.WrapWithCode(err, bmerr.CodeInternal, "failed to unmarshal combat log entry")
	}

	return toEntry(&data), nil
}

func (r *redisRepo) ListByMonster(ctx context.Context, monsterID string) ([]*Entry, error) {
	if monsterID == "" {
		return nil, bmerr.InvalidArgument("monster ID is required")
	}

	ids, err := r.client.LRange(ctx, monsterKey(monsterID), 0, -1).Result()
	if err != nil {
		return nil, bmerr.WrapWithCode(err, bmerr.CodeUnavailable, "failed to get monster combat log from Redis")
	}

	entries := make([]*Entry, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			entry, err := r.Get(ctx, id)
			if err != nil {
				return bmerr.Wrapf(err, "failed to get combat log entry %s", id)
			}
			entries[i] = entry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *redisRepo) DeleteByMonster(ctx context.Context, monsterID string) (int, error) {
	if monsterID == "" {
		return 0, bmerr.InvalidArgument("monster ID is required")
	}

	ids, err := r.client.LRange(ctx, monsterKey(monsterID), 0, -1).Result()
	if err != nil {
		return 0, bmerr.WrapWithCode(err, bmerr.CodeUnavailable, "failed to get monster combat log from Redis")
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, entryKey(id))
	}
	keys = append(keys, monsterKey(monsterID))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return 0, bmerr.WrapWithCode(err, bmerr.CodeUnavailable, "failed to delete monster combat log from Redis")
	}

	return len(ids), nil
}
