package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSlotsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSlots(t *testing.T) {
	path := writeSlotsFile(t, `
slots:
  - name: SLOT_1
    list_channel: "100"
    role: "200"
  - name: SLOT_2
    list_channel: "101"
    role: "201"
`)

	slots, err := LoadSlots(path)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "SLOT_1", slots[0].Name)
	assert.Equal(t, "100", slots[0].ListChannelID)
	assert.Equal(t, "201", slots[1].RoleID)
}

func TestLoadSlotsPreservesOrder(t *testing.T) {
	// File order is the auto-assign scan order; it must survive parsing.
	path := writeSlotsFile(t, `
slots:
  - name: ZULU
  - name: ALPHA
  - name: MIKE
`)

	slots, err := LoadSlots(path)
	require.NoError(t, err)
	names := []string{slots[0].Name, slots[1].Name, slots[2].Name}
	assert.Equal(t, []string{"ZULU", "ALPHA", "MIKE"}, names)
}

func TestLoadSlotsErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{name: "empty file", content: ""},
		{name: "no slots", content: "slots: []"},
		{name: "empty name", content: "slots:\n  - name: \"\""},
		{name: "duplicate name", content: "slots:\n  - name: A\n  - name: A"},
		{name: "bad yaml", content: "slots: ["},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadSlots(writeSlotsFile(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadSlotsMissingFile(t *testing.T) {
	_, err := LoadSlots(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
