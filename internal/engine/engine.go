package engine

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Saver persists the full state snapshot. Implementations must replace
// the previous snapshot atomically.
type Saver interface {
	Save(*Snapshot) error
}

// Options configures an Engine.
type Options struct {
	// SlotOrder is the closed, ordered set of valid slots. Order defines
	// the auto-assign scan order and the display order.
	SlotOrder []SlotID
	// Capacity is the occupant bound applied to every slot.
	Capacity int
	// Retention is how long an untouched team record survives the daily
	// sweep.
	Retention time.Duration
	// AllowMultiSlot permits one team to claim several slots explicitly.
	// Auto-assign never hands out a second slot regardless.
	AllowMultiSlot bool
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Engine is the slot allocation state machine. Every mutating operation
// runs under one exclusive lock covering both the team registry and the
// slot table; cross-slot invariants (a team's bookings spanning slots)
// make finer-grained locking pointless at this scale.
type Engine struct {
	mu    sync.Mutex
	state *Snapshot

	slotOrder      []SlotID
	capacity       int
	retention      time.Duration
	allowMultiSlot bool
	now            func() time.Time

	store    Saver
	saveMu   sync.Mutex
	seq      uint64 // guarded by mu
	savedSeq uint64 // guarded by saveMu
}

// New builds an Engine from a loaded snapshot. Unknown slots present in
// the snapshot are kept (their occupants can still be released); slots
// from the configured order are created empty when missing.
func New(snap *Snapshot, store Saver, opts Options) *Engine {
	if snap == nil {
		snap = NewSnapshot()
	}
	snap.Normalize()
	for _, id := range opts.SlotOrder {
		if _, ok := snap.Slots[id]; !ok {
			snap.Slots[id] = []string{}
		}
	}
	nowFn := opts.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Engine{
		state:          snap,
		slotOrder:      append([]SlotID(nil), opts.SlotOrder...),
		capacity:       opts.Capacity,
		retention:      opts.Retention,
		allowMultiSlot: opts.AllowMultiSlot,
		now:            nowFn,
		store:          store,
	}
}

// RegisterTeam creates or replaces the caller's team record. An existing
// record is overwritten, not merged, and any slots the team currently
// occupies are released first so the registry and the slot table cannot
// diverge. Registration does not consult capacity; booking a slot is a
// separate step.
func (e *Engine) RegisterTeam(userID, name string, players []string) (*Team, []Effect, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, &ValidationError{Field: "team name", Message: "must not be empty"}
	}
	if len([]rune(name)) > MaxTeamNameLen {
		return nil, nil, &ValidationError{Field: "team name", Message: "too long"}
	}
	roster := make([]string, 0, MaxPlayers)
	for _, p := range players {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		roster = append(roster, p)
		if len(roster) == MaxPlayers {
			break
		}
	}
	if len(roster) == 0 {
		return nil, nil, &ValidationError{Field: "players", Message: "at least one player is required"}
	}

	e.mu.Lock()
	var fx effectList
	e.releaseEverywhere(userID, &fx)
	team := &Team{
		Name:        name,
		Players:     roster,
		BookedSlots: []SlotID{},
		LastUpdated: e.now().UTC(),
	}
	e.state.Teams[userID] = team
	out := team.clone()
	snap, seq := e.commitLocked()
	e.mu.Unlock()

	return out, fx.list(), e.save(snap, seq)
}

// ClaimSlot books a specific slot for the caller's team. Preconditions
// are checked in a fixed order; the first failure wins.
func (e *Engine) ClaimSlot(userID string, slot SlotID) ([]Effect, error) {
	e.mu.Lock()
	if !e.state.RegistrationOpen {
		e.mu.Unlock()
		return nil, reject(ReasonRegistrationClosed)
	}
	occupants, ok := e.state.Slots[slot]
	if !ok {
		e.mu.Unlock()
		return nil, reject(ReasonUnknownSlot)
	}
	if len(occupants) >= e.capacity {
		e.mu.Unlock()
		return nil, reject(ReasonSlotFull)
	}
	if contains(occupants, userID) {
		e.mu.Unlock()
		return nil, reject(ReasonAlreadyClaimed)
	}
	team, ok := e.state.Teams[userID]
	if !ok {
		e.mu.Unlock()
		return nil, reject(ReasonNotRegistered)
	}
	if !e.allowMultiSlot && len(team.BookedSlots) > 0 {
		e.mu.Unlock()
		return nil, reject(ReasonAlreadyHasSlot)
	}

	var fx effectList
	e.occupyLocked(userID, team, slot, &fx)
	snap, seq := e.commitLocked()
	e.mu.Unlock()

	return fx.list(), e.save(snap, seq)
}

// AutoAssign books the first slot with spare capacity, scanning in the
// configured order. A team that already holds a slot is refused; quick
// claim exists to get slotless teams seated, not to collect lobbies.
func (e *Engine) AutoAssign(userID string) (SlotID, []Effect, error) {
	e.mu.Lock()
	if !e.state.RegistrationOpen {
		e.mu.Unlock()
		return "", nil, reject(ReasonRegistrationClosed)
	}
	team, ok := e.state.Teams[userID]
	if !ok {
		e.mu.Unlock()
		return "", nil, reject(ReasonNotRegistered)
	}
	if len(team.BookedSlots) > 0 {
		e.mu.Unlock()
		return "", nil, reject(ReasonAlreadyHasSlot)
	}

	var target SlotID
	for _, id := range e.slotOrder {
		occupants := e.state.Slots[id]
		if len(occupants) < e.capacity && !contains(occupants, userID) {
			target = id
			break
		}
	}
	if target == "" {
		e.mu.Unlock()
		return "", nil, reject(ReasonAllSlotsFull)
	}

	var fx effectList
	e.occupyLocked(userID, team, target, &fx)
	snap, seq := e.commitLocked()
	e.mu.Unlock()

	return target, fx.list(), e.save(snap, seq)
}

// ReleaseSlot removes the caller's team from a slot it booked. Removal is
// order-preserving: remaining occupants keep their relative claim order
// and the rendered ranking re-numbers without gaps.
func (e *Engine) ReleaseSlot(userID string, slot SlotID) ([]Effect, error) {
	e.mu.Lock()
	team, ok := e.state.Teams[userID]
	if !ok || !containsSlot(team.BookedSlots, slot) {
		e.mu.Unlock()
		return nil, reject(ReasonNotOwner)
	}

	var fx effectList
	e.vacateLocked(userID, slot, &fx)
	snap, seq := e.commitLocked()
	e.mu.Unlock()

	return fx.list(), e.save(snap, seq)
}

// ReleaseAll releases every slot the caller's team currently holds and
// reports how many were released.
func (e *Engine) ReleaseAll(userID string) (int, []Effect, error) {
	e.mu.Lock()
	team, ok := e.state.Teams[userID]
	if !ok || len(team.BookedSlots) == 0 {
		e.mu.Unlock()
		return 0, nil, reject(ReasonNothingBooked)
	}

	var fx effectList
	booked := append([]SlotID(nil), team.BookedSlots...)
	for _, slot := range booked {
		e.vacateLocked(userID, slot, &fx)
	}
	snap, seq := e.commitLocked()
	e.mu.Unlock()

	return len(booked), fx.list(), e.save(snap, seq)
}

// ForceRemove is the administrative override: it removes the occupant at
// the given 1-based position from a slot, bypassing the ownership check.
func (e *Engine) ForceRemove(slot SlotID, position int) (string, []Effect, error) {
	e.mu.Lock()
	occupants, ok := e.state.Slots[slot]
	if !ok {
		e.mu.Unlock()
		return "", nil, reject(ReasonUnknownSlot)
	}
	if position < 1 || position > len(occupants) {
		e.mu.Unlock()
		return "", nil, reject(ReasonEmptyPosition)
	}
	userID := occupants[position-1]

	var fx effectList
	e.vacateLocked(userID, slot, &fx)
	snap, seq := e.commitLocked()
	e.mu.Unlock()

	return userID, fx.list(), e.save(snap, seq)
}

// SweepResult summarizes one reset sweep.
type SweepResult struct {
	Released     int
	TeamsExpired int
}

// Sweep is the daily reset: every slot is emptied (revoking roles and
// refreshing views), team records untouched for the retention window are
// purged, and registration reopens. Safe to run on an empty state and
// idempotent within a trigger window.
func (e *Engine) Sweep(now time.Time) (SweepResult, []Effect, error) {
	e.mu.Lock()
	var res SweepResult
	var fx effectList
	for _, slot := range e.slotIDsLocked() {
		occupants := append([]string(nil), e.state.Slots[slot]...)
		for _, userID := range occupants {
			e.vacateLocked(userID, slot, &fx)
			res.Released++
		}
		// Refresh even untouched tables so a stale view heals on reset.
		fx.upsertView(slot)
	}
	for userID, team := range e.state.Teams {
		if now.Sub(team.LastUpdated) >= e.retention {
			delete(e.state.Teams, userID)
			res.TeamsExpired++
		}
	}
	e.state.RegistrationOpen = true
	snap, seq := e.commitLocked()
	e.mu.Unlock()

	return res, fx.list(), e.save(snap, seq)
}

// SetRegistrationOpen flips the registration gate. The flag is persisted
// so a restart keeps a locked system locked.
func (e *Engine) SetRegistrationOpen(open bool) error {
	e.mu.Lock()
	e.state.RegistrationOpen = open
	snap, seq := e.commitLocked()
	e.mu.Unlock()
	return e.save(snap, seq)
}

// RegistrationOpen reports the current state of the registration gate.
func (e *Engine) RegistrationOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.RegistrationOpen
}

// Slots returns the configured slot IDs in display order.
func (e *Engine) Slots() []SlotID {
	return append([]SlotID(nil), e.slotOrder...)
}

// Capacity returns the per-slot occupant bound.
func (e *Engine) Capacity() int { return e.capacity }

// Occupants returns a slot's occupant user IDs in claim order.
func (e *Engine) Occupants(slot SlotID) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.state.Slots[slot]...)
}

// Team returns a copy of a team record, if registered.
func (e *Engine) Team(userID string) (*Team, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	team, ok := e.state.Teams[userID]
	if !ok {
		return nil, false
	}
	return team.clone(), true
}

// BookedSlots returns the slots currently booked by a team.
func (e *Engine) BookedSlots(userID string) []SlotID {
	e.mu.Lock()
	defer e.mu.Unlock()
	team, ok := e.state.Teams[userID]
	if !ok {
		return nil
	}
	return append([]SlotID(nil), team.BookedSlots...)
}

// PendingTeams lists user IDs that registered a team but hold no slot,
// for the last-call notification.
func (e *Engine) PendingTeams() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var pending []string
	for userID, team := range e.state.Teams {
		if len(team.BookedSlots) == 0 {
			pending = append(pending, userID)
		}
	}
	sort.Strings(pending)
	return pending
}

// RenderSlot renders a slot's live-view table.
func (e *Engine) RenderSlot(slot SlotID) string {
	e.mu.Lock()
	names := make([]string, 0, len(e.state.Slots[slot]))
	for _, userID := range e.state.Slots[slot] {
		if team, ok := e.state.Teams[userID]; ok {
			names = append(names, team.Name)
		} else {
			names = append(names, userID)
		}
	}
	e.mu.Unlock()
	return RenderTable(string(slot), names, e.capacity)
}

// TableMessage returns the live-view message handle for a slot, if one
// was recorded.
func (e *Engine) TableMessage(slot SlotID) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.state.TableMessages[slot]
	return id, ok && id != ""
}

// SetTableMessage records the live-view message handle for a slot. Called
// by the effect executor after it creates or replaces a table message.
func (e *Engine) SetTableMessage(slot SlotID, messageID string) error {
	e.mu.Lock()
	e.state.TableMessages[slot] = messageID
	snap, seq := e.commitLocked()
	e.mu.Unlock()
	return e.save(snap, seq)
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// occupyLocked appends the user to a slot and records the booking.
// Caller holds e.mu and has verified all preconditions.
func (e *Engine) occupyLocked(userID string, team *Team, slot SlotID, fx *effectList) {
	e.state.Slots[slot] = append(e.state.Slots[slot], userID)
	if !containsSlot(team.BookedSlots, slot) {
		team.BookedSlots = append(team.BookedSlots, slot)
	}
	fx.grantRole(slot, userID)
	fx.upsertView(slot)
}

// vacateLocked removes the user from a slot's occupant list (preserving
// the order of everyone else) and from the team's bookings.
func (e *Engine) vacateLocked(userID string, slot SlotID, fx *effectList) {
	occupants := e.state.Slots[slot]
	for i, occ := range occupants {
		if occ == userID {
			e.state.Slots[slot] = append(occupants[:i:i], occupants[i+1:]...)
			break
		}
	}
	if team, ok := e.state.Teams[userID]; ok {
		for i, s := range team.BookedSlots {
			if s == slot {
				team.BookedSlots = append(team.BookedSlots[:i:i], team.BookedSlots[i+1:]...)
				break
			}
		}
	}
	fx.revokeRole(slot, userID)
	fx.upsertView(slot)
}

// releaseEverywhere vacates the user from every slot they occupy,
// scanning the slot table directly so stale occupancy with no matching
// booking is cleaned up too.
func (e *Engine) releaseEverywhere(userID string, fx *effectList) {
	for _, slot := range e.slotIDsLocked() {
		if contains(e.state.Slots[slot], userID) {
			e.vacateLocked(userID, slot, fx)
		}
	}
}

// slotIDsLocked returns configured slots first, then any extra slots that
// exist only in the loaded snapshot, in stable order.
func (e *Engine) slotIDsLocked() []SlotID {
	ids := append([]SlotID(nil), e.slotOrder...)
	known := make(map[SlotID]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}
	var extra []SlotID
	for id := range e.state.Slots {
		if !known[id] {
			extra = append(extra, id)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(ids, extra...)
}

func (e *Engine) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		Teams:            make(map[string]*Team, len(e.state.Teams)),
		Slots:            make(map[SlotID][]string, len(e.state.Slots)),
		TableMessages:    make(map[SlotID]string, len(e.state.TableMessages)),
		RegistrationOpen: e.state.RegistrationOpen,
	}
	for id, team := range e.state.Teams {
		snap.Teams[id] = team.clone()
	}
	for id, occupants := range e.state.Slots {
		snap.Slots[id] = append([]string(nil), occupants...)
	}
	for id, msg := range e.state.TableMessages {
		snap.TableMessages[id] = msg
	}
	return snap
}

// commitLocked snapshots the state and tags it with the next sequence
// number. Caller holds e.mu.
func (e *Engine) commitLocked() (*Snapshot, uint64) {
	e.seq++
	return e.snapshotLocked(), e.seq
}

// save persists a snapshot taken under the state lock. Saves run outside
// the critical section so slow storage cannot stall claims; the sequence
// check makes sure a snapshot that lost the race to the save lock can
// never overwrite a newer one.
func (e *Engine) save(snap *Snapshot, seq uint64) error {
	if e.store == nil {
		return nil
	}
	e.saveMu.Lock()
	defer e.saveMu.Unlock()
	if seq <= e.savedSeq {
		return nil
	}
	if err := e.store.Save(snap); err != nil {
		return &PersistenceError{Err: err}
	}
	e.savedSeq = seq
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsSlot(list []SlotID, v SlotID) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
