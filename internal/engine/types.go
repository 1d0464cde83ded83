package engine

import "time"

// SlotID is the symbolic name of a match lobby slot (e.g. "SLOT_1").
// The set of valid slot IDs is fixed by deployment configuration.
type SlotID string

// MaxPlayers is the maximum roster size per team; the first entry is the captain.
const MaxPlayers = 4

// MaxTeamNameLen bounds the team name accepted at registration.
const MaxTeamNameLen = 50

// Team is a registered squad, independent of any slot occupancy.
type Team struct {
	Name        string    `json:"team"`
	Players     []string  `json:"players"`
	BookedSlots []SlotID  `json:"booked_slots"`
	LastUpdated time.Time `json:"last_updated"`
}

// Captain returns the first player name, or the empty string for a
// malformed record.
func (t *Team) Captain() string {
	if len(t.Players) == 0 {
		return ""
	}
	return t.Players[0]
}

func (t *Team) clone() *Team {
	c := &Team{
		Name:        t.Name,
		Players:     append([]string(nil), t.Players...),
		BookedSlots: append([]SlotID(nil), t.BookedSlots...),
		LastUpdated: t.LastUpdated,
	}
	return c
}

// Snapshot is the full persisted state, written in one piece on every save.
// Teams maps Discord user IDs to team records; Slots maps slot IDs to
// occupant user IDs in claim order; TableMessages maps slot IDs to the
// live-view message handle.
type Snapshot struct {
	Teams            map[string]*Team    `json:"teams"`
	Slots            map[SlotID][]string `json:"slots"`
	TableMessages    map[SlotID]string   `json:"table_messages"`
	RegistrationOpen bool                `json:"registration_open"`
}

// NewSnapshot returns an empty snapshot with registration open.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Teams:            make(map[string]*Team),
		Slots:            make(map[SlotID][]string),
		TableMessages:    make(map[SlotID]string),
		RegistrationOpen: true,
	}
}

// Normalize fills in missing maps so snapshots loaded from older
// deployments (which may lack newer top-level keys) are usable as-is.
func (s *Snapshot) Normalize() {
	if s.Teams == nil {
		s.Teams = make(map[string]*Team)
	}
	if s.Slots == nil {
		s.Slots = make(map[SlotID][]string)
	}
	if s.TableMessages == nil {
		s.TableMessages = make(map[SlotID]string)
	}
	for _, t := range s.Teams {
		if t.Players == nil {
			t.Players = []string{}
		}
		if t.BookedSlots == nil {
			t.BookedSlots = []SlotID{}
		}
	}
}
