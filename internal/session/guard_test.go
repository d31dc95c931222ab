package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/tripdash/internal/pkg/errdefs"
	"github.com/autopeer-io/tripdash/internal/route"
	v1 "github.com/autopeer-io/tripdash/pkg/apis/fleet/v1"
)

type fakeAuth struct {
	mu        sync.Mutex
	user      *v1.User
	meErr     error
	loginErr  error
	logoutErr error
	meCalls   int
}

func (f *fakeAuth) Me(context.Context) (*v1.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.user, nil
}

func (f *fakeAuth) Login(_ context.Context, creds v1.Credentials) (*v1.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.user, f.meErr = &v1.User{Username: creds.Username}, nil
	return f.user, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user, f.meErr = nil, errdefs.ErrUnauthorized
	return f.logoutErr
}

func (f *fakeAuth) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meCalls
}

func TestGuard_InitialState(t *testing.T) {
	g := NewGuard(&fakeAuth{}, time.Minute)
	assert.Equal(t, StateChecking, g.Current())
}

func TestGuard_Authenticated(t *testing.T) {
	auth := &fakeAuth{user: &v1.User{Username: "alice"}}
	g := NewGuard(auth, time.Minute)

	d := g.Check(context.Background(), route.Root("d1"))
	assert.True(t, d.Allowed())
	assert.Equal(t, StateAuthenticated, d.State)
	assert.Equal(t, "alice", d.User.Username)
	assert.Nil(t, d.Redirect)
	assert.Equal(t, "alice", g.User().Username)
}

func TestGuard_CachesIdentity(t *testing.T) {
	auth := &fakeAuth{user: &v1.User{Username: "alice"}}
	g := NewGuard(auth, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, g.Check(ctx, route.Root("")).Allowed())
	}
	assert.Equal(t, 1, auth.calls())

	g.Invalidate()
	require.True(t, g.Check(ctx, route.Root("")).Allowed())
	assert.Equal(t, 2, auth.calls())
}

func TestGuard_RejectsWithoutRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "expired session", err: errdefs.ErrUnauthorized},
		{name: "server error", err: &errdefs.APIError{StatusCode: 500, StatusText: "Internal Server Error"}},
		{name: "network failure", err: &errdefs.NetworkError{Op: "GET", URL: "/auth/me", Err: errors.New("refused")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &fakeAuth{meErr: tt.err}
			g := NewGuard(auth, time.Minute)

			requested, err := route.Parse("/history?device=d1")
			require.NoError(t, err)

			d := g.Check(context.Background(), requested)
			assert.False(t, d.Allowed())
			assert.Equal(t, StateUnauthenticated, d.State)
			assert.ErrorIs(t, d.Cause, tt.err)
			assert.Equal(t, 1, auth.calls(), "identity lookup must not be retried")

			require.NotNil(t, d.Redirect)
			assert.Equal(t, route.LoginPath, d.Redirect.Path)
			require.NotNil(t, d.Redirect.From)
			assert.Equal(t, "/history?device=d1", d.Redirect.From.String())
		})
	}
}

func TestGuard_RecheckAfterFailure(t *testing.T) {
	auth := &fakeAuth{meErr: errdefs.ErrUnauthorized}
	g := NewGuard(auth, time.Minute)
	ctx := context.Background()

	require.False(t, g.Check(ctx, route.Root("")).Allowed())

	auth.mu.Lock()
	auth.user, auth.meErr = &v1.User{Username: "bob"}, nil
	auth.mu.Unlock()

	d := g.Check(ctx, route.Root(""))
	assert.True(t, d.Allowed())
	assert.Nil(t, d.Cause)
}

func TestGuard_LoginReturnsToOrigin(t *testing.T) {
	auth := &fakeAuth{meErr: errdefs.ErrUnauthorized}
	g := NewGuard(auth, time.Minute)
	ctx := context.Background()

	requested := route.Location{Path: route.NotesPath}.WithDevice("d7")
	d := g.Check(ctx, requested)
	require.NotNil(t, d.Redirect)

	next, err := g.Login(ctx, v1.Credentials{Username: "alice", Password: "pw"}, d.Redirect)
	require.NoError(t, err)
	assert.Equal(t, "/notes?device=d7", next.String())
	assert.Equal(t, StateAuthenticated, g.Current())

	calls := auth.calls()
	assert.True(t, g.Check(ctx, requested).Allowed())
	assert.Equal(t, calls, auth.calls(), "login seeds the cache")
}

func TestGuard_LoginValidation(t *testing.T) {
	auth := &fakeAuth{}
	g := NewGuard(auth, time.Minute)

	_, err := g.Login(context.Background(), v1.Credentials{Password: "pw"}, nil)
	assert.True(t, errdefs.IsValidation(err))

	_, err = g.Login(context.Background(), v1.Credentials{Username: "alice"}, nil)
	assert.True(t, errdefs.IsValidation(err))

	assert.Equal(t, StateChecking, g.Current())
}

func TestGuard_LoginFailureKeepsState(t *testing.T) {
	auth := &fakeAuth{meErr: errdefs.ErrUnauthorized, loginErr: errdefs.ErrUnauthorized}
	g := NewGuard(auth, time.Minute)
	ctx := context.Background()

	g.Check(ctx, route.Root(""))
	_, err := g.Login(ctx, v1.Credentials{Username: "alice", Password: "wrong"}, nil)
	assert.True(t, errdefs.IsUnauthorized(err))
	assert.Equal(t, StateUnauthenticated, g.Current())
}

func TestGuard_Logout(t *testing.T) {
	auth := &fakeAuth{user: &v1.User{Username: "alice"}}
	g := NewGuard(auth, time.Minute)
	ctx := context.Background()

	require.True(t, g.Check(ctx, route.Root("")).Allowed())
	require.NoError(t, g.Logout(ctx))
	assert.Equal(t, StateUnauthenticated, g.Current())
	assert.Nil(t, g.User())

	d := g.Check(ctx, route.Root(""))
	assert.False(t, d.Allowed(), "logout drops the cached identity")
}
