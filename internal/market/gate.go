package market

import (
	"sync"

	"github.com/erazemk/wildcat/internal/model"
)

// Gate defers an action a guest tried to take on an item until they have
// logged in and finished onboarding. It remembers at most one item.
type Gate struct {
	sessions *SessionProvider
	open     func(model.Item)

	mu          sync.Mutex
	pending     *model.Item
	unsubscribe func()
}

// NewGate returns a Gate that calls open for items the user may act on.
func NewGate(sessions *SessionProvider, open func(model.Item)) *Gate {
	g := &Gate{sessions: sessions, open: open}
	g.unsubscribe = sessions.Subscribe(g.stateChanged)
	return g
}

// Open opens item right away for signed-in users and returns true. For
// guests it remembers item, replacing any earlier one, and returns false;
// the caller should then show the login flow.
func (g *Gate) Open(item model.Item) bool {
	// The state check and the store happen under g.mu so a concurrent
	// stateChanged either sees the pending item or has already made the
	// session complete.
	g.mu.Lock()
	if g.sessions.State() == StateComplete {
		g.mu.Unlock()
		g.open(item)
		return true
	}
	g.pending = &item
	g.mu.Unlock()
	return false
}

// Pending returns the remembered item, if any.
func (g *Gate) Pending() *model.Item {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending == nil {
		return nil
	}
	item := *g.pending
	return &item
}

// Cancel forgets the remembered item without opening it.
func (g *Gate) Cancel() {
	g.mu.Lock()
	g.pending = nil
	g.mu.Unlock()
}

// Close stops listening to session changes.
func (g *Gate) Close() {
	g.unsubscribe()
}

func (g *Gate) stateChanged(state State, _ *model.Session) {
	if state != StateComplete {
		return
	}
	g.mu.Lock()
	item := g.pending
	g.pending = nil
	g.mu.Unlock()

	if item != nil {
		g.open(*item)
	}
}
