package gateway

import "sync"

// TokenSource supplies the bearer token for outgoing requests.
type TokenSource interface {
	// Token returns the installed token, or "" when none is installed.
	Token() string
	// Invalidate drops token if it is still the installed one.
	Invalidate(token string)
}

// Credentials is the single holder of the bearer token used by a Client.
// The auth controller owns it and is the only caller of Install and Clear;
// the Client only reads it and invalidates a token the backend rejected.
type Credentials struct {
	mu    sync.RWMutex
	token string
}

// NewCredentials returns an empty holder.
func NewCredentials() *Credentials {
	return &Credentials{}
}

// Token implements TokenSource.
func (c *Credentials) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Install replaces the held token.
func (c *Credentials) Install(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Clear drops the held token.
func (c *Credentials) Clear() {
	c.Install("")
}

// Invalidate implements TokenSource. A token installed after the rejected
// request was sent is left alone.
func (c *Credentials) Invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token = ""
	}
}
