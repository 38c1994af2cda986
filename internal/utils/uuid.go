package utils

import "github.com/google/uuid"

// UUIDGenerator produces entity ids on the device that creates the record.
// Version 7 uuids sort by creation time, which keeps the entities table
// roughly insert-ordered on the server; the random v4 fallback only fires
// when the system clock source fails.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
