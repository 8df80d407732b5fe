package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellora/storefront/internal/model"
	"github.com/sellora/storefront/internal/testutil"
)

// fakeIdentity mimics the identity client: auth operations publish the
// resulting session through registered callbacks.
type fakeIdentity struct {
	mu         sync.Mutex
	stored     *model.Session
	gate       chan struct{}
	currErr    error
	signInErr  error
	signUpErr  error
	signOutErr error
	callbacks  []func(*model.Session)
}

func (f *fakeIdentity) CurrentSession(ctx context.Context) (*model.Session, error) {
	if f.gate != nil {
		<-f.gate
	}
	return f.stored, f.currErr
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	sess := &model.Session{AccessToken: "tok", User: model.User{ID: "u1", Email: email}}
	f.notify(sess)
	return sess, nil
}

func (f *fakeIdentity) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	sess := &model.Session{AccessToken: "tok", User: model.User{ID: "u2", Email: email}}
	f.notify(sess)
	return sess, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.notify(nil)
	return nil
}

func (f *fakeIdentity) OnSessionChange(fn func(*model.Session)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, fn)
}

func (f *fakeIdentity) notify(sess *model.Session) {
	f.mu.Lock()
	callbacks := make([]func(*model.Session), len(f.callbacks))
	copy(callbacks, f.callbacks)
	f.mu.Unlock()
	for _, fn := range callbacks {
		fn(sess)
	}
}

func waitReady(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.WaitReady(ctx))
}

func TestStore_Bootstrap_WithExistingSession(t *testing.T) {
	identity := &fakeIdentity{stored: &model.Session{AccessToken: "tok", User: model.User{ID: "u1", Email: "a@b.c"}}}

	s := New(context.Background(), identity, testutil.MakeNoopLogger())
	waitReady(t, s)

	assert.False(t, s.Loading())
	require.NotNil(t, s.Current())
	assert.Equal(t, "u1", s.Current().User.ID)
	assert.Equal(t, "a@b.c", s.Email())
	assert.Equal(t, "tok", s.AccessToken())
	assert.NoError(t, s.Err())
}

func TestStore_Bootstrap_Anonymous(t *testing.T) {
	identity := &fakeIdentity{}

	s := New(context.Background(), identity, testutil.MakeNoopLogger())
	waitReady(t, s)

	assert.False(t, s.Loading())
	assert.Nil(t, s.Current())
	assert.Equal(t, "", s.Email())
}

func TestStore_Bootstrap_ErrorYieldsAnonymous(t *testing.T) {
	wantErr := errors.New("identity service down")
	identity := &fakeIdentity{currErr: wantErr}

	s := New(context.Background(), identity, testutil.MakeNoopLogger())
	waitReady(t, s)

	assert.False(t, s.Loading())
	assert.Nil(t, s.Current())
	assert.ErrorIs(t, s.Err(), wantErr)
}

func TestStore_WaitReady_BlocksUntilBootstrapResolves(t *testing.T) {
	gate := make(chan struct{})
	identity := &fakeIdentity{gate: gate}

	s := New(context.Background(), identity, testutil.MakeNoopLogger())
	assert.True(t, s.Loading())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.WaitReady(ctx), context.DeadlineExceeded)

	close(gate)
	waitReady(t, s)
	assert.False(t, s.Loading())
}

func TestStore_Login_UpdatesSessionViaPush(t *testing.T) {
	identity := &fakeIdentity{}
	s := New(context.Background(), identity, testutil.MakeNoopLogger())
	waitReady(t, s)

	require.NoError(t, s.Login(context.Background(), "a@b.c", "pw"))

	assert.False(t, s.Busy())
	require.NotNil(t, s.Current())
	assert.Equal(t, "a@b.c", s.Current().User.Email)
	assert.NoError(t, s.Err())
}

func TestStore_Login_FailureCapturedAndBusyCleared(t *testing.T) {
	identity := &fakeIdentity{signInErr: model.ErrInvalidCredentials}
	s := New(context.Background(), identity, testutil.MakeNoopLogger())
	waitReady(t, s)

	err := s.Login(context.Background(), "a@b.c", "bad")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	assert.ErrorIs(t, s.Err(), model.ErrInvalidCredentials)
	assert.False(t, s.Busy())
	assert.Nil(t, s.Current())
}

func TestStore_Register_UpdatesSession(t *testing.T) {
	identity := &fakeIdentity{}
	s := New(context.Background(), identity, testutil.MakeNoopLogger())
	waitReady(t, s)

	require.NoError(t, s.Register(context.Background(), "new@b.c", "pw"))
	require.NotNil(t, s.Current())
	assert.Equal(t, "new@b.c", s.Current().User.Email)
}

func TestStore_Logout_ClearsSession(t *testing.T) {
	identity := &fakeIdentity{stored: &model.Session{AccessToken: "tok", User: model.User{ID: "u1"}}}
	s := New(context.Background(), identity, testutil.MakeNoopLogger())
	waitReady(t, s)
	require.NotNil(t, s.Current())

	require.NoError(t, s.Logout(context.Background()))
	assert.Nil(t, s.Current())
	assert.False(t, s.Busy())
}

func TestStore_Logout_FailureKeepsSession(t *testing.T) {
	wantErr := errors.New("network")
	identity := &fakeIdentity{
		stored:     &model.Session{AccessToken: "tok", User: model.User{ID: "u1"}},
		signOutErr: wantErr,
	}
	s := New(context.Background(), identity, testutil.MakeNoopLogger())
	waitReady(t, s)

	assert.ErrorIs(t, s.Logout(context.Background()), wantErr)
	assert.NotNil(t, s.Current())
	assert.ErrorIs(t, s.Err(), wantErr)
}

func TestStore_PushDuringBootstrapWins(t *testing.T) {
	gate := make(chan struct{})
	identity := &fakeIdentity{gate: gate}

	s := New(context.Background(), identity, testutil.MakeNoopLogger())

	// A sign-in push lands while the bootstrap lookup is still in flight.
	pushed := &model.Session{AccessToken: "fresh", User: model.User{ID: "u9"}}
	identity.notify(pushed)

	// Bootstrap resolves to anonymous afterwards; the push must not be
	// overwritten by the stale lookup result.
	close(gate)
	waitReady(t, s)

	require.NotNil(t, s.Current())
	assert.Equal(t, "u9", s.Current().User.ID)
}

func TestStore_LoadingTransitionsExactlyOnce(t *testing.T) {
	identity := &fakeIdentity{}
	s := New(context.Background(), identity, testutil.MakeNoopLogger())
	waitReady(t, s)

	require.False(t, s.Loading())

	// Later pushes and auth operations never resurrect the loading flag.
	identity.notify(&model.Session{User: model.User{ID: "u1"}})
	require.NoError(t, s.Logout(context.Background()))
	assert.False(t, s.Loading())
}
