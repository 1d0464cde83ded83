package engine

// EffectKind names an external side effect produced by a mutation.
type EffectKind string

const (
	// EffectGrantRole grants the slot's room role to the user.
	EffectGrantRole EffectKind = "grant_role"
	// EffectRevokeRole removes the slot's room role from the user.
	EffectRevokeRole EffectKind = "revoke_role"
	// EffectUpsertLiveView re-renders the slot's occupancy table message,
	// creating it if the previous message no longer exists.
	EffectUpsertLiveView EffectKind = "upsert_live_view"
)

// Effect is one external action the collaborator layer must execute after
// a successful mutation. The engine never performs network I/O itself;
// effect failures are reported, not rolled back.
type Effect struct {
	Kind   EffectKind
	Slot   SlotID
	UserID string
}

// effectList accumulates effects for one mutation outcome. Role effects
// are ordered before view effects so a freshly rendered table never shows
// a user whose role sync was not yet attempted, and duplicate view
// upserts for the same slot are coalesced.
type effectList struct {
	roles []Effect
	views []Effect
	seen  map[SlotID]bool
}

func (l *effectList) grantRole(slot SlotID, userID string) {
	l.roles = append(l.roles, Effect{Kind: EffectGrantRole, Slot: slot, UserID: userID})
}

func (l *effectList) revokeRole(slot SlotID, userID string) {
	l.roles = append(l.roles, Effect{Kind: EffectRevokeRole, Slot: slot, UserID: userID})
}

func (l *effectList) upsertView(slot SlotID) {
	if l.seen == nil {
		l.seen = make(map[SlotID]bool)
	}
	if l.seen[slot] {
		return
	}
	l.seen[slot] = true
	l.views = append(l.views, Effect{Kind: EffectUpsertLiveView, Slot: slot})
}

func (l *effectList) list() []Effect {
	if len(l.roles) == 0 && len(l.views) == 0 {
		return nil
	}
	out := make([]Effect, 0, len(l.roles)+len(l.views))
	out = append(out, l.roles...)
	out = append(out, l.views...)
	return out
}
