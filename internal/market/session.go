package market

import (
	"context"
	"sync"

	"github.com/erazemk/wildcat/internal/model"
)

// State is where the user is in the login and onboarding flow.
type State int

const (
	StateAnonymous State = iota
	StateIncompleteProfile
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateIncompleteProfile:
		return "incomplete profile"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// SessionProvider is the single owner of session and profile state. It holds
// the only subscription to the AuthGateway and fans changes out to its own
// subscribers.
type SessionProvider struct {
	auth     AuthGateway
	profiles ListingStore

	mu          sync.Mutex
	session     *model.Session
	state       State
	subscribers map[int]func(State, *model.Session)
	nextID      int
	unsubscribe func()
}

// NewSessionProvider subscribes to auth. Call Start to resume a stored session.
func NewSessionProvider(auth AuthGateway, profiles ListingStore) *SessionProvider {
	p := &SessionProvider{
		auth:        auth,
		profiles:    profiles,
		subscribers: map[int]func(State, *model.Session){},
	}
	p.unsubscribe = auth.OnChange(p.set)
	return p
}

// Start loads the current session from the gateway.
func (p *SessionProvider) Start(ctx context.Context) error {
	s, err := p.auth.Session(ctx)
	if err != nil {
		return err
	}
	p.set(s)
	return nil
}

// Close drops the gateway subscription.
func (p *SessionProvider) Close() {
	p.unsubscribe()
}

// State returns the current state.
func (p *SessionProvider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Session returns the current session, nil for guests.
func (p *SessionProvider) Session() *model.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// RequestCode asks for a login code to be emailed.
func (p *SessionProvider) RequestCode(ctx context.Context, email string) error {
	return p.auth.RequestCode(ctx, email)
}

// VerifyCode signs in with an emailed code.
func (p *SessionProvider) VerifyCode(ctx context.Context, email, code string) error {
	s, err := p.auth.VerifyCode(ctx, email, code)
	if err != nil {
		return err
	}
	p.set(s)
	return nil
}

// SignOut ends the session.
func (p *SessionProvider) SignOut(ctx context.Context) error {
	err := p.auth.SignOut(ctx)
	p.set(nil)
	return err
}

// CompleteOnboarding saves the user's full name and leaves the incomplete state.
func (p *SessionProvider) CompleteOnboarding(ctx context.Context, fullName string) error {
	s := p.Session()
	if s == nil {
		return ErrNotAuthenticated
	}
	name, err := model.NormalizeFullName(fullName)
	if err != nil {
		return err
	}
	profile, err := p.profiles.UpdateProfile(ctx, s.UserID, model.ProfilePatch{FullName: &name})
	if err != nil {
		return err
	}
	p.SetProfile(profile)
	return nil
}

// SetProfile replaces the profile of the current session.
func (p *SessionProvider) SetProfile(profile *model.Profile) {
	s := p.Session()
	if s == nil || profile == nil || profile.ID != s.UserID {
		return
	}
	next := *s
	next.Profile = profile
	p.set(&next)
}

// Subscribe calls fn after every state change. The returned function unsubscribes.
func (p *SessionProvider) Subscribe(fn func(State, *model.Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subscribers, id)
	}
}

func stateOf(s *model.Session) State {
	switch {
	case s == nil:
		return StateAnonymous
	case s.Profile == nil || s.Profile.NeedsOnboarding():
		return StateIncompleteProfile
	default:
		return StateComplete
	}
}

func (p *SessionProvider) set(s *model.Session) {
	state := stateOf(s)

	p.mu.Lock()
	changed := state != p.state || userID(s) != userID(p.session)
	p.session = s
	p.state = state
	var fns []func(State, *model.Session)
	if changed {
		for _, fn := range p.subscribers {
			fns = append(fns, fn)
		}
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(state, s)
	}
}

func userID(s *model.Session) string {
	if s == nil {
		return ""
	}
	return s.UserID
}
