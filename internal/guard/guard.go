// Package guard implements the navigation-gating protocol consulted before
// every route transition.
package guard

import (
	"context"

	"github.com/sellora/storefront/internal/model"
)

// Route is the navigation target (or origin) with its access metadata.
type Route struct {
	Path         string
	RequiresAuth bool
}

// Decision is the guard's verdict for a navigation.
type Decision struct {
	Allowed    bool
	RedirectTo string
}

// Allow permits the navigation.
var Allow = Decision{Allowed: true}

// Redirect denies the navigation and names the path to go to instead.
func Redirect(path string) Decision {
	return Decision{RedirectTo: path}
}

// SessionState is the session store surface the guard consults.
type SessionState interface {
	WaitReady(ctx context.Context) error
	Current() *model.Session
}

// Guard decides route transitions against the current session. While the
// session bootstrap is pending the decision is suspended, never polled:
// Check parks on the store's one-shot ready signal and proceeds on the first
// loading transition.
type Guard struct {
	sessions     SessionState
	loginPath    string
	registerPath string
	homePath     string
}

// New creates a Guard around the session store.
func New(sessions SessionState) *Guard {
	return &Guard{
		sessions:     sessions,
		loginPath:    "/login",
		registerPath: "/register",
		homePath:     "/",
	}
}

// Check resolves the navigation from one route to another. The origin route
// carries no weight in the current rules but is part of the protocol the
// router invokes.
func (g *Guard) Check(ctx context.Context, to, from Route) (Decision, error) {
	if err := g.sessions.WaitReady(ctx); err != nil {
		return Decision{}, err
	}

	sess := g.sessions.Current()

	if to.RequiresAuth && sess == nil {
		return Redirect(g.loginPath), nil
	}

	// An authenticated user has no business on the auth screens.
	if sess != nil && (to.Path == g.loginPath || to.Path == g.registerPath) {
		return Redirect(g.homePath), nil
	}

	return Allow, nil
}
