package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Slot is one entry of the deployment's closed slot set. File order is
// significant: it defines the auto-assign scan order.
type Slot struct {
	// Name is the symbolic slot identifier, e.g. SLOT_1.
	Name string `yaml:"name"`
	// ListChannelID is the text channel holding the slot's live table.
	ListChannelID string `yaml:"list_channel"`
	// RoleID is the guild role granting access to the slot's room.
	RoleID string `yaml:"role"`
}

type slotsFile struct {
	Slots []Slot `yaml:"slots"`
}

// LoadSlots reads the slot definitions from a YAML file.
func LoadSlots(path string) ([]Slot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read slots file: %w", err)
	}

	var parsed slotsFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse slots file: %w", err)
	}
	if len(parsed.Slots) == 0 {
		return nil, fmt.Errorf("slots file %s defines no slots", path)
	}

	seen := make(map[string]bool, len(parsed.Slots))
	for _, s := range parsed.Slots {
		if s.Name == "" {
			return nil, fmt.Errorf("slots file %s: slot with empty name", path)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("slots file %s: duplicate slot %s", path, s.Name)
		}
		seen[s.Name] = true
	}

	return parsed.Slots, nil
}
