package bot

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// flow is one pending multi-step interaction (e.g. pick-a-slot panel).
// Nothing is mutated until the final step, so an expired flow is simply
// discarded; there is nothing to roll back.
type flow struct {
	userID  string
	created time.Time
}

// flowRegistry tracks pending interactive flows by token. Tokens are
// embedded in component custom IDs so a click can be matched back to the
// user that opened the panel.
type flowRegistry struct {
	mu    sync.RWMutex
	flows map[string]flow
	ttl   time.Duration
	now   func() time.Time
}

func newFlowRegistry(ttl time.Duration) *flowRegistry {
	return &flowRegistry{
		flows: make(map[string]flow),
		ttl:   ttl,
		now:   time.Now,
	}
}

// create registers a new pending flow for the user and returns its token.
// Stale flows are purged opportunistically.
func (r *flowRegistry) create(userID string) string {
	token := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.ttl)
	for t, f := range r.flows {
		if f.created.Before(cutoff) {
			delete(r.flows, t)
		}
	}

	r.flows[token] = flow{userID: userID, created: r.now()}
	return token
}

// take consumes a pending flow. It reports false when the token is
// unknown, expired, or belongs to another user.
func (r *flowRegistry) take(token, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.flows[token]
	if !ok {
		return false
	}
	delete(r.flows, token)
	if f.userID != userID {
		return false
	}
	return r.now().Sub(f.created) < r.ttl
}
