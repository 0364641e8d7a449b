package client

import (
	"context"
	"errors"
	"log/slog"

	"github.com/erazemk/wildcat/internal/model"
)

// RequestCode asks the server to email a login code to email.
func (c *Client) RequestCode(ctx context.Context, email string) error {
	return c.do(ctx, "POST", "/api/auth/otp", map[string]string{"email": email}, nil)
}

// VerifyCode exchanges a code for a session, stores its token and notifies listeners.
func (c *Client) VerifyCode(ctx context.Context, email, code string) (*model.Session, error) {
	var s model.Session
	err := c.do(ctx, "POST", "/api/auth/verify", map[string]string{"email": email, "code": code}, &s)
	if err != nil {
		return nil, err
	}
	if err := c.tokens.Save(s.Token); err != nil {
		slog.Warn("failed to persist session token", "error", err)
	}
	c.setSession(s.Token, &s)
	return &s, nil
}

// Session returns the current session, or nil for a guest. On first use it
// resumes a persisted token; a token the server no longer accepts is dropped.
func (c *Client) Session(ctx context.Context) (*model.Session, error) {
	c.mu.Lock()
	if c.loaded {
		s := c.session
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	token, err := c.tokens.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		c.markLoaded()
		return nil, nil
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	s, err := c.fetchSession(ctx)
	if errors.Is(err, ErrUnauthorized) {
		c.dropSession()
		return nil, nil
	}
	if err != nil {
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return nil, err
	}
	s.Token = token
	c.setSession(token, s)
	return s, nil
}

// Refresh reloads the session from the server, picking up profile changes.
func (c *Client) Refresh(ctx context.Context) (*model.Session, error) {
	token := c.currentToken()
	if token == "" {
		return nil, nil
	}
	s, err := c.fetchSession(ctx)
	if errors.Is(err, ErrUnauthorized) {
		c.dropSession()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Token = token
	c.setSession(token, s)
	return s, nil
}

func (c *Client) fetchSession(ctx context.Context) (*model.Session, error) {
	var s model.Session
	if err := c.do(ctx, "GET", "/api/auth/session", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SignOut ends the session on the server and locally. The local session is
// cleared even if the server cannot be reached.
func (c *Client) SignOut(ctx context.Context) error {
	if c.currentToken() == "" {
		return nil
	}
	err := c.do(ctx, "POST", "/api/auth/logout", nil, nil)
	c.dropSession()
	if errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}

// OnChange registers fn to be called with the new session (nil on sign out)
// whenever it changes. The returned function unregisters it.
func (c *Client) OnChange(fn func(*model.Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Client) markLoaded() {
	c.mu.Lock()
	c.loaded = true
	c.mu.Unlock()
}

func (c *Client) dropSession() {
	if err := c.tokens.Clear(); err != nil {
		slog.Warn("failed to remove session token", "error", err)
	}
	c.setSession("", nil)
}

func (c *Client) setSession(token string, s *model.Session) {
	c.mu.Lock()
	c.token = token
	c.session = s
	c.loaded = true
	fns := make([]func(*model.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	// Called without the lock so listeners may call back into the client.
	for _, fn := range fns {
		fn(s)
	}
}
