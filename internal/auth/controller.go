// Package auth drives the login/logout lifecycle of a client session.
//
// The Controller is the only writer of the persisted session and of the
// gateway's bearer token. Its states are LoggedOut and LoggedIn; concurrent
// logins are not coordinated beyond "last call wins".
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/marcus-qen/erplite/internal/account"
	"github.com/marcus-qen/erplite/internal/gateway"
	"github.com/marcus-qen/erplite/internal/metrics"
	"github.com/marcus-qen/erplite/internal/permissions"
	"github.com/marcus-qen/erplite/internal/session"
	"github.com/marcus-qen/erplite/internal/telemetry"
)

const (
	// LoginPath is the public credential endpoint.
	LoginPath = "/accounts/login/"

	defaultLoginError = "login failed"
	invalidEmailError = "invalid email"
)

// ErrMissingAccessToken is returned when a successful login response carries
// no access token.
var ErrMissingAccessToken = errors.New("login response missing access token")

// Requester issues API calls. *gateway.Client satisfies it.
type Requester interface {
	Post(ctx context.Context, path string, body, out any, opts ...gateway.RequestOption) error
}

// SessionStore persists the session. *session.Store satisfies it.
type SessionStore interface {
	Load(ctx context.Context) *session.Session
	Save(ctx context.Context, sess session.Session) error
	Clear(ctx context.Context) error
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User    *account.User `json:"user"`
	Access  string        `json:"access"`
	Refresh string        `json:"refresh"`

	// Some deployments answer with the OAuth-style names.
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Controller holds the current identity and keeps the gateway token and the
// persisted session in step with it.
type Controller struct {
	api    Requester
	creds  *gateway.Credentials
	store  SessionStore
	logger *zap.Logger

	mu      sync.RWMutex
	user    *account.User
	token   string
	refresh string
}

// NewController wires a controller. creds must be the holder the gateway
// client reads its token from.
func NewController(api Requester, creds *gateway.Credentials, store SessionStore, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{api: api, creds: creds, store: store, logger: logger}
}

// Restore loads a previously persisted session into memory and installs its
// token into the gateway. It reports whether a session was found.
func (c *Controller) Restore(ctx context.Context) bool {
	sess := c.store.Load(ctx)
	if sess == nil {
		return false
	}

	user := sess.User
	c.mu.Lock()
	c.user = &user
	c.token = sess.Access
	c.refresh = sess.Refresh
	c.creds.Install(sess.Access)
	c.mu.Unlock()

	c.logger.Debug("restored persisted session", zap.Int64("user_id", user.ID))
	return true
}

// Login submits credentials and, on success, installs and persists the new
// session before returning. On failure nothing is persisted and the previous
// state is left as it was.
func (c *Controller) Login(ctx context.Context, email, password string) error {
	ctx, span := telemetry.StartLoginSpan(ctx)

	if !strings.Contains(email, "@") {
		metrics.RecordLogin("invalid")
		telemetry.EndLoginSpan(span, "invalid", false)
		return gateway.NewValidationError(invalidEmailError)
	}

	var resp loginResponse
	err := c.api.Post(ctx, LoginPath, loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		metrics.RecordLogin("failed")
		telemetry.EndLoginSpan(span, "failed", false)
		c.logger.Info("login failed", zap.Error(err))
		return loginError(err)
	}

	access := firstNonEmpty(resp.Access, resp.AccessToken)
	if access == "" {
		metrics.RecordLogin("failed")
		telemetry.EndLoginSpan(span, "failed", false)
		return ErrMissingAccessToken
	}
	user := account.User{}
	if resp.User != nil {
		user = *resp.User
	}
	sess := session.Session{
		User:    user,
		Access:  access,
		Refresh: firstNonEmpty(resp.Refresh, resp.RefreshToken),
	}

	c.mu.Lock()
	c.user = &user
	c.token = sess.Access
	c.refresh = sess.Refresh
	c.creds.Install(sess.Access)
	c.mu.Unlock()

	if err := c.store.Save(ctx, sess); err != nil {
		c.reset()
		metrics.RecordLogin("failed")
		telemetry.EndLoginSpan(span, "failed", false)
		return fmt.Errorf("failed to persist session: %w", err)
	}

	admin := permissions.IsAdmin(&user)
	metrics.RecordLogin("success")
	telemetry.EndLoginSpan(span, "success", admin)
	c.logger.Info("login succeeded",
		zap.Int64("user_id", user.ID),
		zap.Bool("admin", admin))
	return nil
}

// Logout clears the in-memory identity, the gateway token and the persisted
// session. No request is sent to the backend.
func (c *Controller) Logout(ctx context.Context) error {
	c.reset()
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.logger.Info("logged out")
	return nil
}

// User returns a copy of the current user, or nil when logged out.
func (c *Controller) User() *account.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Token returns the controller's access token, or "" when logged out.
func (c *Controller) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// RefreshToken returns the persisted refresh token. It is not used for renewal.
func (c *Controller) RefreshToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresh
}

// LoggedIn reports whether an access token is held.
func (c *Controller) LoggedIn() bool {
	return c.Token() != ""
}

// Stale reports whether the gateway dropped the token after the backend
// rejected it while the controller still holds it. Callers observing this
// should log the user out or prompt for a new login.
func (c *Controller) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != "" && c.creds.Token() == ""
}

func (c *Controller) reset() {
	c.mu.Lock()
	c.user = nil
	c.token = ""
	c.refresh = ""
	c.creds.Clear()
	c.mu.Unlock()
}

// loginError re-wraps a gateway failure so callers only see the server's
// detail message, the raw response text, or a generic fallback.
func loginError(err error) error {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		msg := err.Error()
		if strings.TrimSpace(msg) == "" {
			msg = defaultLoginError
		}
		return &gateway.Error{Kind: gateway.KindTransport, Message: msg}
	}

	msg := gwErr.Detail()
	if msg == "" {
		msg = gwErr.Message
	}
	if strings.TrimSpace(msg) == "" {
		msg = defaultLoginError
	}
	return &gateway.Error{
		Kind:    gwErr.Kind,
		Status:  gwErr.Status,
		Message: msg,
		RawBody: gwErr.RawBody,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
