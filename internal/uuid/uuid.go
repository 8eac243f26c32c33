// Package uuid generates identifiers behind an interface so tests can pin them
package uuid

import (
	"github.com/google/uuid"
)

//go:generate mockgen -destination=mock/mock_generator.go -package=mockuuid -source=uuid.go

// Generator is an interface for generating UUIDs
type Generator interface {
	New() string
}

// GoogleUUIDGenerator implements the Generator interface using Google's UUID package
type GoogleUUIDGenerator struct{}

// New generates a new random (v4) UUID string
func (g *GoogleUUIDGenerator) New() string {
	return uuid.NewString()
}

// NewGoogleUUIDGenerator creates a new GoogleUUIDGenerator
func NewGoogleUUIDGenerator() *GoogleUUIDGenerator {
	return &GoogleUUIDGenerator{}
}

// Valid reports whether s parses as a UUID
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
