package table

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultConfirmTTL = 2 * time.Minute

type pendingDelete struct {
	scope   string
	id      string
	expires time.Time
}

// Confirmations issues single-use tokens that a destructive call must present.
type Confirmations struct {
	mu      sync.Mutex
	ttl     time.Duration
	pending map[string]pendingDelete
	now     func() time.Time
}

func NewConfirmations(ttl time.Duration) *Confirmations {
	if ttl <= 0 {
		ttl = DefaultConfirmTTL
	}
	return &Confirmations{ttl: ttl, pending: map[string]pendingDelete{}, now: time.Now}
}

// Request issues a token for deleting id within scope.
func (c *Confirmations) Request(scope, id string) (string, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked()

	token := uuid.NewString()
	expires := c.now().Add(c.ttl)
	c.pending[token] = pendingDelete{scope: scope, id: id, expires: expires}
	return token, expires
}

// Valid reports whether token was issued for scope/id and has not expired.
// The token stays usable.
func (c *Confirmations) Valid(token, scope, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked()
	return c.matchLocked(token, scope, id)
}

// Confirm consumes token if it was issued for scope/id and has not expired.
func (c *Confirmations) Confirm(token, scope, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.purgeLocked()

	if !c.matchLocked(token, scope, id) {
		return false
	}
	delete(c.pending, token)
	return true
}

func (c *Confirmations) matchLocked(token, scope, id string) bool {
	p, ok := c.pending[token]
	return ok && p.scope == scope && p.id == id
}

func (c *Confirmations) purgeLocked() {
	now := c.now()
	for token, p := range c.pending {
		if !now.Before(p.expires) {
			delete(c.pending, token)
		}
	}
}
