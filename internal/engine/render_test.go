package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable("SLOT_1", []string{"Alpha", "Bravo"}, 4)

	assert.Contains(t, out, "**SLOT_1** (2/4)")
	assert.Contains(t, out, "01 | Alpha")
	assert.Contains(t, out, "02 | Bravo")
	assert.Contains(t, out, "03 | OPEN")
	assert.Contains(t, out, "04 | OPEN")

	// One numbered row per capacity position, no gaps.
	lines := strings.Split(out, "\n")
	numbered := 0
	for _, line := range lines {
		if strings.Contains(line, " | ") {
			numbered++
		}
	}
	assert.Equal(t, 4, numbered)
}

func TestRenderTableEmpty(t *testing.T) {
	out := RenderTable("SLOT_2", nil, 2)
	assert.Contains(t, out, "**SLOT_2** (0/2)")
	assert.Contains(t, out, "01 | OPEN")
	assert.Contains(t, out, "02 | OPEN")
}

func TestRenderTableTruncatesLongNames(t *testing.T) {
	long := strings.Repeat("A", 40)
	out := RenderTable("SLOT_1", []string{long}, 1)

	assert.NotContains(t, out, long)
	assert.Contains(t, out, "…")
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "01 | ") {
			name := strings.TrimPrefix(line, "01 | ")
			assert.Equal(t, displayWidth, len([]rune(name)))
		}
	}
}

func TestRenderTableDeterministic(t *testing.T) {
	names := []string{"Alpha", "Bravo", "Charlie"}
	assert.Equal(t,
		RenderTable("SLOT_3", names, 5),
		RenderTable("SLOT_3", names, 5))
}

func TestRenderTableRenumbersAfterRelease(t *testing.T) {
	// Ranking is positional: removing the middle occupant shifts the
	// ones behind it up, leaving no gap.
	before := RenderTable("SLOT_1", []string{"Alpha", "Bravo", "Charlie"}, 3)
	assert.Contains(t, before, "02 | Bravo")
	assert.Contains(t, before, "03 | Charlie")

	after := RenderTable("SLOT_1", []string{"Alpha", "Charlie"}, 3)
	assert.Contains(t, after, "02 | Charlie")
	assert.Contains(t, after, "03 | OPEN")
}
