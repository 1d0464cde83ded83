package engine

import (
	"fmt"
	"strings"
)

const (
	// displayWidth bounds a team name in the rendered table.
	displayWidth = 24
	openMarker   = "OPEN"
	ellipsis     = "…"
)

// RenderTable renders a slot's ranked occupancy table: one row per
// position up to capacity, occupied rows showing the team name in claim
// order, free rows showing the OPEN marker. Pure function of its inputs.
func RenderTable(slotName string, names []string, capacity int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**%s** (%d/%d)\n", slotName, len(names), capacity))
	sb.WriteString("```\n")
	for i := 1; i <= capacity; i++ {
		entry := openMarker
		if i <= len(names) {
			entry = truncateName(names[i-1])
		}
		sb.WriteString(fmt.Sprintf("%02d | %s\n", i, entry))
	}
	sb.WriteString("```")
	return sb.String()
}

// truncateName bounds a name to the display width, marking the cut with
// an ellipsis. Width is counted in runes so multi-byte names do not get
// split mid-character.
func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= displayWidth {
		return name
	}
	return string(runes[:displayWidth-1]) + ellipsis
}
