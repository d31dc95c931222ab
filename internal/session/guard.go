// Package session gates access to the dashboard on an authenticated user.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/patrickmn/go-cache"

	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	fsmutil "github.com/autopeer-io/tripdash/internal/pkg/util/fsm"
	"github.com/autopeer-io/tripdash/internal/route"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
	"github.com/autopeer-io/tripdash/pkg/log"
)

const (
	StateChecking        = "checking"
	StateAuthenticated   = "authenticated"
	StateUnauthenticated = "unauthenticated"
)

const (
	// EventVerify (Checking -> Authenticated) carries the *v1.User.
	EventVerify = "verify"
	// EventReject (Checking -> Unauthenticated) carries the requested route.Location and the cause.
	EventReject = "reject"
	// EventRecheck starts a new check from a settled state.
	EventRecheck = "recheck"
	// EventLogout ends the session.
	EventLogout = "logout"
)

// DefaultCacheTTL is how long a successful identity lookup is reused.
const DefaultCacheTTL = 5 * time.Minute

const meKey = "auth/me"

// Authenticator is the part of the gateway the guard needs.
type Authenticator interface {
	Me(ctx context.Context) (*v1.User, error)
	Login(ctx context.Context, creds v1.Credentials) (*v1.User, error)
	Logout(ctx context.Context) error
}

// Decision is the outcome of a check.
type Decision struct {
	State string
	User  *v1.User

	// Redirect points at the login view when State is unauthenticated.
	Redirect *route.Location

	// Cause is the failure that led to an unauthenticated state.
	Cause error
}

// Allowed reports whether protected content may be shown.
func (d Decision) Allowed() bool {
	return d.State == StateAuthenticated
}

// Guard gates protected views. Identity lookups are cached for a fixed
// window and never retried: a failed lookup means unauthenticated.
type Guard struct {
	*fsm.FSM

	mu    sync.Mutex
	auth  Authenticator
	cache *cache.Cache
	log   log.Logger

	user     *v1.User
	redirect *route.Location
	cause    error
}

// NewGuard creates a guard in the checking state.
func NewGuard(auth Authenticator, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	g := &Guard{
		auth:  auth,
		cache: cache.New(ttl, 2*ttl),
		log:   log.WithName("session"),
	}

	events := fsm.Events{
		{Name: EventVerify, Src: []string{StateChecking}, Dst: StateAuthenticated},
		{Name: EventReject, Src: []string{StateChecking}, Dst: StateUnauthenticated},
		{Name: EventRecheck, Src: []string{StateAuthenticated, StateUnauthenticated}, Dst: StateChecking},
		{Name: EventLogout, Src: []string{StateChecking, StateAuthenticated}, Dst: StateUnauthenticated},
	}

	callbacks := fsm.Callbacks{
		"before_" + EventVerify: fsmutil.WrapEvent(g.guardVerify),

		"enter_" + StateChecking:        fsmutil.WrapEvent(g.enterChecking),
		"enter_" + StateAuthenticated:   fsmutil.WrapEvent(g.enterAuthenticated),
		"enter_" + StateUnauthenticated: fsmutil.WrapEvent(g.enterUnauthenticated),
	}

	g.FSM = fsm.NewFSM(StateChecking, events, callbacks)
	return g
}

// Check resolves the session for a visit to requested.
func (g *Guard) Check(ctx context.Context, requested route.Location) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.Is(StateChecking) {
		if err := g.Event(ctx, EventRecheck); err != nil && !fsmutil.IsNoop(err) {
			g.log.Error(err, "Failed to restart session check")
		}
	}

	user, err := g.currentUser(ctx)
	if err != nil {
		g.transition(ctx, EventReject, requested, err)
	} else {
		g.transition(ctx, EventVerify, user)
	}

	return g.decision()
}

// Login authenticates and returns where to continue: the remembered origin
// of a redirect, or the root view.
func (g *Guard) Login(ctx context.Context, creds v1.Credentials, redirect *route.Location) (route.Location, error) {
	if strings.TrimSpace(creds.Username) == "" {
		return route.Location{}, errdefs.Invalid("username", "must not be empty")
	}
	if creds.Password == "" {
		return route.Location{}, errdefs.Invalid("password", "must not be empty")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	user, err := g.auth.Login(ctx, creds)
	if err != nil {
		return route.Location{}, err
	}
	g.cache.Set(meKey, user, cache.DefaultExpiration)

	if !g.Is(StateChecking) {
		g.transition(ctx, EventRecheck)
	}
	g.transition(ctx, EventVerify, user)

	next := route.Root("")
	if redirect != nil && redirect.From != nil {
		next = *redirect.From
	}
	g.log.Info("Logged in", "user", user.Username)
	return next, nil
}

// Logout ends the session on the server and locally. The local session ends
// even when the server call fails; that error is returned.
func (g *Guard) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	err := g.auth.Logout(ctx)
	g.cache.Delete(meKey)
	g.transition(ctx, EventLogout, route.Root(""), errors.New("logged out"))
	return err
}

// Invalidate drops the cached identity so the next Check asks the server.
func (g *Guard) Invalidate() {
	g.cache.Delete(meKey)
}

// User returns the authenticated user, or nil.
func (g *Guard) User() *v1.User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.user
}

func (g *Guard) currentUser(ctx context.Context) (*v1.User, error) {
	if v, ok := g.cache.Get(meKey); ok {
		return v.(*v1.User), nil
	}

	user, err := g.auth.Me(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: empty identity", errdefs.ErrUnauthorized)
	}

	g.cache.Set(meKey, user, cache.DefaultExpiration)
	return user, nil
}

func (g *Guard) transition(ctx context.Context, event string, args ...any) {
	if err := g.Event(ctx, event, args...); err != nil && !fsmutil.IsNoop(err) {
		g.log.Error(err, "Session transition failed", "event", event, "state", g.Current())
	}
}

func (g *Guard) decision() Decision {
	return Decision{
		State:    g.Current(),
		User:     g.user,
		Redirect: g.redirect,
		Cause:    g.cause,
	}
}

// guardVerify refuses to authenticate without a user.
func (g *Guard) guardVerify(_ context.Context, e *fsm.Event) error {
	if u, ok := fsmutil.Arg[*v1.User](e, 0); !ok || u == nil {
		e.Cancel(errors.New("verify requires a user"))
	}
	return nil
}

func (g *Guard) enterChecking(_ context.Context, _ *fsm.Event) error {
	g.redirect, g.cause = nil, nil
	return nil
}

func (g *Guard) enterAuthenticated(_ context.Context, e *fsm.Event) error {
	u, _ := fsmutil.Arg[*v1.User](e, 0)
	g.user, g.redirect, g.cause = u, nil, nil
	return nil
}

func (g *Guard) enterUnauthenticated(_ context.Context, e *fsm.Event) error {
	requested, ok := fsmutil.Arg[route.Location](e, 0)
	if !ok {
		requested = route.Root("")
	}
	login := requested.Login()

	g.user = nil
	g.redirect = &login
	g.cause, _ = fsmutil.Arg[error](e, 1)

	if g.cause != nil {
		g.log.Debug("Session rejected", "from", requested.String(), "cause", g.cause)
	}
	return nil
}
