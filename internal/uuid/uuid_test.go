package uuid_test

import (
	"testing"

	"github.com/CWDN/battle-monsters/internal/uuid"
	"github.com/stretchr/testify/assert"
)

func TestGoogleUUIDGenerator_New(t *testing.T) {
	gen := uuid.NewGoogleUUIDGenerator()

	first := gen.New()
	second := gen.New()

	assert.True(t, uuid.Valid(first))
	assert.True(t, uuid.Valid(second))
	assert.NotEqual(t, first, second)
	assert.False(t, uuid.Valid("fire-monster"))
}
