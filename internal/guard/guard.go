// Package guard provides declarative admission control for navigable
// screens, backed by the session manager's state.
package guard

import (
	"github.com/debriefapp/debrief-cli/internal/auth"
	"github.com/debriefapp/debrief-cli/internal/domain"
)

// LoginRoute is the default redirect target for anonymous users.
const LoginRoute = "/login"

// DecisionKind enumerates the admission outcomes.
type DecisionKind string

const (
	// Waiting means the session is still loading; render a neutral waiting
	// state and make no redirect decision yet.
	Waiting DecisionKind = "waiting"
	// Allow admits the requested screen unchanged.
	Allow DecisionKind = "allow"
	// Redirect sends an anonymous user to the login screen, remembering
	// where they were headed.
	Redirect DecisionKind = "redirect"
	// AccessDenied means authenticated but holding the wrong account type.
	// Rendered in place rather than redirected: the user is logged in, just
	// not authorized.
	AccessDenied DecisionKind = "access_denied"
	// MissingPermissions means authenticated but lacking at least one
	// required permission.
	MissingPermissions DecisionKind = "missing_permissions"
)

// Decision is the outcome of resolving a guarded route.
type Decision struct {
	Kind DecisionKind
	// RedirectTo is the target route when Kind is Redirect.
	RedirectTo string
	// From is the originally requested route, carried through a redirect so
	// a successful login can return the user to it.
	From string
	// Missing lists the unmet permissions when Kind is MissingPermissions.
	Missing []string
}

// Guard wraps a screen with admission requirements.
type Guard struct {
	session *auth.Manager

	// RedirectTo overrides the login route as the anonymous-user target.
	RedirectTo string
	// RequiredAccountType, when set, must match the current user's type.
	RequiredAccountType domain.AccountType
	// RequiredPermissions must ALL be held by the current user.
	RequiredPermissions []string
}

// New creates a guard that only requires authentication.
func New(session *auth.Manager) *Guard {
	return &Guard{session: session}
}

// Resolve decides admission for the requested route.
func (g *Guard) Resolve(requested string) Decision {
	switch g.session.State() {
	case auth.StateLoading, auth.StateUninitialized:
		return Decision{Kind: Waiting, From: requested}
	case auth.StateAuthenticated:
		// fall through to authorization checks
	default:
		target := g.RedirectTo
		if target == "" {
			target = LoginRoute
		}
		return Decision{Kind: Redirect, RedirectTo: target, From: requested}
	}

	user := g.session.CurrentUser()
	if g.RequiredAccountType != "" && (user == nil || user.AccountType != g.RequiredAccountType) {
		return Decision{Kind: AccessDenied, From: requested}
	}

	if missing := g.missingPermissions(); len(missing) > 0 {
		return Decision{Kind: MissingPermissions, From: requested, Missing: missing}
	}

	return Decision{Kind: Allow, From: requested}
}

func (g *Guard) missingPermissions() []string {
	var missing []string
	for _, name := range g.RequiredPermissions {
		if !g.session.HasPermission(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
