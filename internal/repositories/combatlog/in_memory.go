package combatlog

import (
	"context"
	"sync"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/uuid"
)

type inMemoryRepository struct {
	mu           sync.RWMutex
	entries      map[string]*Entry
	byMonster    map[string][]string // monsterID -> entry IDs in append order
	uuidGen      uuid.Generator
	timeProvider TimeProvider
}

// NewInMemoryRepository creates a new in-memory combat log
func NewInMemoryRepository() Repository {
	return NewInMemoryRepositoryWith(uuid.NewGoogleUUIDGenerator(), &RealTimeProvider{})
}

// NewInMemoryRepositoryWith creates an in-memory combat log with the given
// id and time sources
func NewInMemoryRepositoryWith(uuidGen uuid.Generator, timeProvider TimeProvider) Repository {
	return &inMemoryRepository{
		entries:      make(map[string]*Entry),
		byMonster:    make(map[string][]string),
		uuidGen:      uuidGen,
		timeProvider: timeProvider,
	}
}

// Append stores a copy of the entry
func (r *inMemoryRepository) Append(ctx context.Context, e *Entry) error {
	if e == nil {
		return bmerr.InvalidArgument("entry cannot be nil")
	}
	if e.MonsterID == "" {
		return bmerr.InvalidArgument("entry monster ID is required")
	}
	stamp(e, r.uuidGen, r.timeProvider)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[e.ID]; exists {
		return bmerr.AlreadyExistsf("combat log entry %s already exists", e.ID)
	}

	r.entries[e.ID] = cloneEntry(e)
	r.byMonster[e.MonsterID] = append(r.byMonster[e.MonsterID], e.ID)

	return nil
}

// Get retrieves an entry by ID
func (r *inMemoryRepository) Get(ctx context.Context, id string) (*Entry, error) {
	if id == "" {
		return nil, bmerr.InvalidArgument("entry ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[id]
	if !exists {
		return nil, bmerr.NotFoundf("combat log entry not found: %s", id)
	}

	return cloneEntry(e), nil
}

// ListByMonster returns a monster's entries in append order
func (r *inMemoryRepository) ListByMonster(ctx context.Context, monsterID string) ([]*Entry, error) {
	if monsterID == "" {
		return nil, bmerr.InvalidArgument("monster ID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byMonster[monsterID]
	entries := make([]*Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, cloneEntry(r.entries[id]))
	}

	return entries, nil
}

// DeleteByMonster removes all of a monster's entries
func (r *inMemoryRepository) DeleteByMonster(ctx context.Context, monsterID string) (int, error) {
	if monsterID == "" {
		return 0, bmerr.InvalidArgument("monster ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.byMonster[monsterID]
	for _, id := range ids {
		delete(r.entries, id)
	}
	delete(r.byMonster, monsterID)

	return len(ids), nil
}

// stamp fills in the ID and creation time the caller left empty
func stamp(e *Entry, uuidGen uuid.Generator, timeProvider TimeProvider) {
	if e.ID == "" {
		e.ID = uuidGen.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = timeProvider.Now()
	}
}
