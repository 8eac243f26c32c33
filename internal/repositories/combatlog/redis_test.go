package combatlog_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/repositories/combatlog"
	mockcombatlog "github.com/CWDN/battle-monsters/internal/repositories/combatlog/mock"
	mockuuid "github.com/CWDN/battle-monsters/internal/uuid/mock"
	"github.com/go-redis/redismock/v9"
	"go.uber.org/mock/gomock"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisRepoTestSuite struct {
	suite.Suite
	mockClient   *redis.Client
	mock         redismock.ClientMock
	repo         combatlog.Repository
	mockCtrl     *gomock.Controller
	uuidGen      *mockuuid.MockGenerator
	timeProvider *mockcombatlog.MockTimeProvider
	now          time.Time
}

func (s *RedisRepoTestSuite) SetupTest() {
	s.mockClient, s.mock = redismock.NewClientMock()
	s.mockCtrl = gomock.NewController(s.T())
	s.uuidGen = mockuuid.NewMockGenerator(s.mockCtrl)
	s.timeProvider = mockcombatlog.NewMockTimeProvider(s.mockCtrl)
	s.now = time.Now().UTC().Truncate(time.Millisecond)

	var err error
	s.repo, err = combatlog.NewRedisRepository(&combatlog.RedisConfig{
		Client:        s.mockClient,
		UUIDGenerator: s.uuidGen,
		TimeProvider:  s.timeProvider,
	})
	s.Require().NoError(err)
}

func (s *RedisRepoTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestRedisRepoTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepoTestSuite))
}

func (s *RedisRepoTestSuite) entryJSON(data combatlog.Data) string {
	jsonData, err := json.Marshal(data)
	s.Require().NoError(err)
	return string(jsonData)
}

func (s *RedisRepoTestSuite) TestAppend() {
	ctx := context.Background()
	s.uuidGen.EXPECT().New().Return("entry-1")
	s.timeProvider.EXPECT().Now().Return(s.now)

	entry := &combatlog.Entry{
		MonsterID:  "fire-1",
		Type:       "meter_zero",
		Node:       "Health Meter",
		Mode:       "SUBTRACT",
		Tags:       []string{"WATER"},
		PackValue:  20,
		MeterValue: 0,
		MeterMax:   100,
	}

	expected := s.entryJSON(combatlog.Data{
		ID:         "entry-1",
		MonsterID:  "fire-1",
		Type:       "meter_zero",
		Node:       "Health Meter",
		Mode:       "SUBTRACT",
		Tags:       []string{"WATER"},
		PackValue:  20,
		MeterValue: 0,
		MeterMax:   100,
		CreatedAt:  s.now,
	})

	// Happy path
	s.mock.ExpectSet("combatlog:entry-1", expected, 0).SetVal("OK")
	s.mock.ExpectRPush("monster:fire-1:combatlog", "entry-1").SetVal(1)

	err := s.repo.Append(ctx, entry)
	s.NoError(err)
	s.Equal("entry-1", entry.ID)
	s.Equal(s.now, entry.CreatedAt)

	// Dependency error; ID and time are already set so no new ones are drawn
	s.mock.ExpectSet("combatlog:entry-1", expected, 0).SetErr(errors.New("redis error"))

	err = s.repo.Append(ctx, entry)
	s.Error(err)
	s.Equal(bmerr.CodeUnavailable, bmerr.GetCode(err))

	// Input validation
	s.True(bmerr.IsInvalidArgument(s.repo.Append(ctx, nil)))
	s.True(bmerr.IsInvalidArgument(s.repo.Append(ctx, &combatlog.Entry{Type: "meter_max"})))
}

func (s *RedisRepoTestSuite) TestGet() {
	ctx := context.Background()
	stored := s.entryJSON(combatlog.Data{
		ID:         "entry-1",
		MonsterID:  "fire-1",
		Type:       "meter_break",
		Node:       "Health Meter",
		PackValue:  20,
		MeterValue: 0,
		MeterMax:   100,
		CreatedAt:  s.now,
	})

	// Happy path
	s.mock.ExpectGet("combatlog:entry-1").SetVal(stored)

	entry, err := s.repo.Get(ctx, "entry-1")
	s.Require().NoError(err)
	s.Equal("fire-1", entry.MonsterID)
	s.Equal("meter_break", entry.Type)
	s.Equal(20.0, entry.PackValue)
	s.True(s.now.Equal(entry.CreatedAt))

	// Missing
	s.mock.ExpectGet("combatlog:missing").RedisNil()

	_, err = s.repo.Get(ctx, "missing")
	s.True(bmerr.IsNotFound(err))

	// Dependency error
	s.mock.ExpectGet("combatlog:entry-1").SetErr(errors.New("redis error"))

	_, err = s.repo.Get(ctx, "entry-1")
	s.Equal(bmerr.CodeUnavailable, bmerr.GetCode(err))

	// Corrupt data
	s.mock.ExpectGet("combatlog:entry-1").SetVal("{not json")

	_, err = s.repo.Get(ctx, "entry-1")
	s.Equal(bmerr.CodeInternal, bmerr.GetCode(err))

	// Input validation
	_, err = s.repo.Get(ctx, "")
	s.True(bmerr.IsInvalidArgument(err))
}

func (s *RedisRepoTestSuite) TestListByMonster() {
	ctx := context.Background()
	first := s.entryJSON(combatlog.Data{ID: "entry-1", MonsterID: "fire-1", Type: "meter_receive", CreatedAt: s.now})
	second := s.entryJSON(combatlog.Data{ID: "entry-2", MonsterID: "fire-1", Type: "meter_zero", CreatedAt: s.now})

	// Entries are fetched concurrently
	s.mock.MatchExpectationsInOrder(false)

	// Happy path
	s.mock.ExpectLRange("monster:fire-1:combatlog", 0, -1).SetVal([]string{"entry-1", "entry-2"})
	s.mock.ExpectGet("combatlog:entry-2").SetVal(second)
	s.mock.ExpectGet("combatlog:entry-1").SetVal(first)

	entries, err := s.repo.ListByMonster(ctx, "fire-1")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("entry-1", entries[0].ID)
	s.Equal("entry-2", entries[1].ID)

	// Empty
	s.mock.ExpectLRange("monster:ghost:combatlog", 0, -1).SetVal([]string{})

	entries, err = s.repo.ListByMonster(ctx, "ghost")
	s.NoError(err)
	s.Empty(entries)

	// Dangling index entry
	s.mock.ExpectLRange("monster:fire-1:combatlog", 0, -1).SetVal([]string{"gone"})
	s.mock.ExpectGet("combatlog:gone").RedisNil()

	_, err = s.repo.ListByMonster(ctx, "fire-1")
	s.True(bmerr.IsNotFound(err))

	// Dependency error
	s.mock.ExpectLRange("monster:fire-1:combatlog", 0, -1).SetErr(errors.New("redis error"))

	_, err = s.repo.ListByMonster(ctx, "fire-1")
	s.Error(err)

	// Input validation
	_, err = s.repo.ListByMonster(ctx, "")
	s.True(bmerr.IsInvalidArgument(err))
}

func (s *RedisRepoTestSuite) TestDeleteByMonster() {
	ctx := context.Background()

	// Happy path
	s.mock.ExpectLRange("monster:fire-1:combatlog", 0, -1).SetVal([]string{"entry-1", "entry-2"})
	s.mock.ExpectDel("combatlog:entry-1", "combatlog:entry-2", "monster:fire-1:combatlog").SetVal(3)

	deleted, err := s.repo.DeleteByMonster(ctx, "fire-1")
	s.NoError(err)
	s.Equal(2, deleted)

	// Dependency error
	s.mock.ExpectLRange("monster:fire-1:combatlog", 0, -1).SetVal([]string{"entry-1"})
	s.mock.ExpectDel("combatlog:entry-1", "monster:fire-1:combatlog").SetErr(errors.New("redis error"))

	_, err = s.repo.DeleteByMonster(ctx, "fire-1")
	s.Error(err)

	// Input validation
	_, err = s.repo.DeleteByMonster(ctx, "")
	s.True(bmerr.IsInvalidArgument(err))
}

func TestNewRedisRepository_RequiresClient(t *testing.T) {
	_, err := combatlog.NewRedisRepository(&combatlog.RedisConfig{})
	if !bmerr.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
