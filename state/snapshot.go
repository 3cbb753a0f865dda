package state

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// Load reads a state snapshot written by Save.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state snapshot: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode state snapshot %s: %w", path, err)
	}
	return &s, nil
}

// Save writes the state as indented JSON.
func (s *State) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state snapshot: %w", err)
	}
	return nil
}
