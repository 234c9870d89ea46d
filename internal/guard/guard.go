// Package guard decides, per navigation attempt, whether a page may be shown.
package guard

import (
	"github.com/marcus-qen/erplite/internal/account"
	"github.com/marcus-qen/erplite/internal/metrics"
	"github.com/marcus-qen/erplite/internal/permissions"
)

const (
	// LoginPath is where unauthenticated navigation is sent.
	LoginPath = "/login"
	// FallbackPath is where an authenticated user lands on a denied page.
	FallbackPath = "/sales"
)

// SessionView is the read side of the current session. *auth.Controller
// satisfies it.
type SessionView interface {
	Token() string
	User() *account.User
}

// Decision is the outcome of a check. Redirect is empty when Allowed.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Check evaluates path against the session. It holds no state, so every
// navigation is evaluated afresh.
func Check(sess SessionView, path string) Decision {
	if sess == nil || sess.Token() == "" {
		metrics.RecordGuardDecision("login")
		return Decision{Redirect: LoginPath}
	}

	user := sess.User()
	if permissions.IsAdmin(user) || permissions.CanAccessPath(user, path) {
		metrics.RecordGuardDecision("allow")
		return Decision{Allowed: true}
	}

	metrics.RecordGuardDecision("fallback")
	return Decision{Redirect: FallbackPath}
}
