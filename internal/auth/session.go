// Package auth covers both sides of authentication: token handling for
// the API server and the client-side session state machine the UI drives.
package auth

import (
	"context"
	"errors"
)

// User is the opaque authenticated-user record a provider yields.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// Provider is the narrow contract the session depends on. Local backends
// run without one; the remote backend supplies RemoteProvider.
type Provider interface {
	Login(ctx context.Context, email, password string) (User, error)
	Restore(ctx context.Context) (User, bool, error)
	Logout(ctx context.Context) error
}

type State string

const (
	Anonymous      State = "anonymous"
	Authenticating State = "authenticating"
	Authenticated  State = "authenticated"
)

// Route is a structured navigation target. Transitions hand one of these
// back instead of the UI re-deriving a destination from its current view.
type Route string

const (
	RouteHome      Route = "home"
	RouteLogin     Route = "login"
	RouteDashboard Route = "dashboard"
)

// Session is the authentication state machine. Every transition returns
// the route the UI should show next; the intended post-login destination
// travels with the machine rather than being inferred later.
type Session struct {
	state State
	user  User
	dest  Route
}

func NewSession() *Session {
	return &Session{state: Anonymous, dest: RouteDashboard}
}

func (s *Session) State() State { return s.state }
func (s *Session) User() User   { return s.user }

// Require records where the user was headed and sends them to the login
// view. Already-authenticated sessions pass straight through.
func (s *Session) Require(dest Route) Route {
	if s.state == Authenticated {
		return dest
	}
	s.dest = dest
	return RouteLogin
}

// Begin marks a login attempt in progress. The UI stays on the login view
// until the provider resolves.
func (s *Session) Begin() (Route, error) {
	if s.state == Authenticating {
		return RouteLogin, errors.New("auth: login already in progress")
	}
	s.state = Authenticating
	return RouteLogin, nil
}

// Succeed commits the provider's user record and navigates to the
// destination recorded before login was required.
func (s *Session) Succeed(user User) Route {
	s.state = Authenticated
	s.user = user
	dest := s.dest
	s.dest = RouteDashboard
	return dest
}

// Fail returns the machine to anonymous; the login view stays up so the
// user can retry.
func (s *Session) Fail() Route {
	s.state = Anonymous
	s.user = User{}
	return RouteLogin
}

// Logout clears the session and lands on the public home view.
func (s *Session) Logout() Route {
	s.state = Anonymous
	s.user = User{}
	s.dest = RouteDashboard
	return RouteHome
}
