package bestiary_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CWDN/battle-monsters/internal/clients/dnd5e"
	mockdnd5e "github.com/CWDN/battle-monsters/internal/clients/dnd5e/mock"
	mockdice "github.com/CWDN/battle-monsters/internal/dice/mock"
	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/monsters"
	"github.com/CWDN/battle-monsters/internal/repositories/combatlog"
	"github.com/CWDN/battle-monsters/internal/services/bestiary"
	"github.com/CWDN/battle-monsters/internal/services/combat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const sampleBestiary = `
monsters:
  - id: ember
    name: ember imp
    element: FIRE
    health: 40
    attack: 1d8+1
  - id: goblin-1
    srd: goblin
    element: earth
  - id: golem
    name: stone golem
    pipeline:
      name: Stone Skin
      kind: meter
      value_max: 20
      children:
        - name: Health Meter
          kind: meter
          value_max: 80
`

func newServices(t *testing.T, client dnd5e.Client) (bestiary.Service, combat.Service) {
	combatService := combat.NewService(&combat.ServiceConfig{
		Roller:    mockdice.NewManualMockRoller(),
		CombatLog: combatlog.NewInMemoryRepository(),
	})
	return bestiary.NewService(&bestiary.ServiceConfig{
		Combat:    combatService,
		DNDClient: client,
	}), combatService
}

func TestLoad_ResolvesSRDEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockdnd5e.NewMockClient(ctrl)
	client.EXPECT().GetMonster(gomock.Any(), "goblin").Return(&dnd5e.MonsterTemplate{
		Key:       "goblin",
		Name:      "Goblin",
		HitPoints: 7,
		Actions: []*dnd5e.MonsterAction{
			{Name: "Scimitar", DamageDice: []string{"1d6+2"}},
		},
	}, nil)

	service, _ := newServices(t, client)
	entries, err := service.Load(context.Background(), strings.NewReader(sampleBestiary))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, monsters.ElementFire, entries[0].Element)
	assert.Equal(t, "1d8+1", entries[0].Attack)

	assert.Equal(t, "Goblin", entries[1].Name)
	assert.Equal(t, 7.0, entries[1].Health)
	assert.Equal(t, "1d6+2", entries[1].Attack)
	assert.Equal(t, monsters.ElementEarth, entries[1].Element)

	assert.Equal(t, monsters.ElementNone, entries[2].Element)
	assert.Equal(t, bestiary.DefaultAttack, entries[2].Attack)
	require.NotNil(t, entries[2].Pipeline)
	assert.Equal(t, "Stone Skin", entries[2].Pipeline.Name)
}

func TestPopulate(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockdnd5e.NewMockClient(ctrl)
	client.EXPECT().GetMonster(gomock.Any(), "goblin").Return(&dnd5e.MonsterTemplate{Name: "Goblin", HitPoints: 7}, nil)

	service, combatService := newServices(t, client)
	entries, err := service.Load(context.Background(), strings.NewReader(sampleBestiary))
	require.NoError(t, err)

	spawned, err := service.Populate(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, spawned, 3)

	golem, err := combatService.Get(context.Background(), "golem")
	require.NoError(t, err)
	health, max := golem.Health()
	assert.Equal(t, 80.0, health)
	assert.Equal(t, 80.0, max)

	// Populating twice collides on IDs
	_, err = service.Populate(context.Background(), entries)
	assert.True(t, bmerr.IsAlreadyExists(err))
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		client  func(*mockdnd5e.MockClient)
		noSRD   bool
		checkFn func(error) bool
	}{
		{
			name:    "malformed yaml",
			yaml:    "monsters: [",
			checkFn: bmerr.IsInvalidArgument,
		},
		{
			name:    "unknown element",
			yaml:    "monsters:\n  - name: odd\n    element: lightning\n    health: 5\n",
			checkFn: bmerr.IsInvalidArgument,
		},
		{
			name:    "missing name",
			yaml:    "monsters:\n  - health: 5\n",
			checkFn: bmerr.IsInvalidArgument,
		},
		{
			name:    "missing health",
			yaml:    "monsters:\n  - name: wisp\n",
			checkFn: bmerr.IsValidation,
		},
		{
			name:    "duplicate id",
			yaml:    "monsters:\n  - {id: a, name: one, health: 1}\n  - {id: a, name: two, health: 1}\n",
			checkFn: bmerr.IsAlreadyExists,
		},
		{
			name:    "empty entry",
			yaml:    "monsters:\n  -\n",
			checkFn: bmerr.IsInvalidArgument,
		},
		{
			// No GetMonster expectation: the goblin must not be looked up.
			name:    "empty entry after srd entry",
			yaml:    "monsters:\n  - srd: goblin\n  -\n",
			checkFn: bmerr.IsInvalidArgument,
		},
		{
			name:    "srd without client",
			yaml:    "monsters:\n  - srd: goblin\n",
			noSRD:   true,
			checkFn: bmerr.IsInvalidArgument,
		},
		{
			name: "srd lookup fails",
			yaml: "monsters:\n  - srd: goblin\n",
			client: func(m *mockdnd5e.MockClient) {
				m.EXPECT().GetMonster(gomock.Any(), "goblin").
					Return(nil, bmerr.WrapWithCode(errors.New("timeout"), bmerr.CodeUnavailable, "failed to fetch SRD monster"))
			},
			checkFn: func(err error) bool { return bmerr.Is(err, bmerr.CodeUnavailable) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			var client dnd5e.Client
			if !tc.noSRD {
				mock := mockdnd5e.NewMockClient(ctrl)
				if tc.client != nil {
					tc.client(mock)
				}
				client = mock
			}

			service, _ := newServices(t, client)
			_, err := service.Load(context.Background(), strings.NewReader(tc.yaml))
			require.Error(t, err)
			assert.True(t, tc.checkFn(err), "unexpected error: %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	service, _ := newServices(t, nil)

	path := filepath.Join(t.TempDir(), "bestiary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monsters:\n  - {id: slime, name: slime, health: 12}\n"), 0o600))

	entries, err := service.LoadFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "slime", entries[0].ID)

	_, err = service.LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, bmerr.IsNotFound(err))

	entries, err = service.Load(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
