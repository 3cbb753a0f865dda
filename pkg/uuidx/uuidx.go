package uuidx

import (
	"github.com/google/uuid"
)

// New generates a version 7 UUID, so run ids sort by creation time.
// It panics if the UUID generation fails, which only happens when the system random
// source is broken.
//
// Returns:
//   - uuid.UUID: A new version 7 UUID.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
