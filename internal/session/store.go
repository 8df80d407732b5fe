// Package session holds the current identity: bootstrapped asynchronously
// from the identity service at construction and kept live by its push
// notifications for the lifetime of the store.
package session

import (
	"context"
	"sync"

	"github.com/sellora/storefront/internal/logger"
	"github.com/sellora/storefront/internal/model"
)

// Store is the reactive holder of the current session.
//
// Loading is true from construction until the bootstrap lookup resolves,
// success or failure, and transitions exactly once. Session changes pushed
// by the identity service overwrite local state unconditionally: the service
// is the source of truth, so a push always wins over a concurrently
// resolving bootstrap or login.
type Store struct {
	identity model.IdentityService
	logger   *logger.Logger

	mu      sync.RWMutex
	current *model.Session
	loading bool
	busy    bool
	lastErr error
	pushed  bool

	ready     chan struct{}
	readyOnce sync.Once
}

// New creates the store, registers the push subscription and starts the
// bootstrap lookup without blocking the caller.
func New(ctx context.Context, identity model.IdentityService, l *logger.Logger) *Store {
	s := &Store{
		identity: identity,
		logger:   l,
		loading:  true,
		ready:    make(chan struct{}),
	}

	identity.OnSessionChange(s.apply)
	go s.bootstrap(ctx)

	return s
}

func (s *Store) bootstrap(ctx context.Context) {
	sess, err := s.identity.CurrentSession(ctx)

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
		s.logger.Error("Session store: bootstrap failed", "error", err.Error())
	} else if !s.pushed {
		s.current = sess
	}
	s.loading = false
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
}

// apply is the standing push subscription callback.
func (s *Store) apply(sess *model.Session) {
	s.mu.Lock()
	s.current = sess
	s.pushed = true
	s.mu.Unlock()

	if sess != nil {
		s.logger.Debug("Session store: session change applied", "user_id", sess.User.ID)
	} else {
		s.logger.Debug("Session store: session cleared")
	}
}

// Loading reports whether the bootstrap lookup is still pending.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Busy reports whether a login, registration or logout is in flight.
func (s *Store) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.busy
}

// Current returns the session, or nil when anonymous.
func (s *Store) Current() *model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Err returns the last captured identity error, cleared at the start of each
// auth operation.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Email returns the current identity's email, or empty when anonymous.
func (s *Store) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.User.Email
}

// AccessToken returns the current session token, or empty when anonymous.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

// WaitReady blocks until the bootstrap lookup has resolved. It reacts to the
// loading transition exactly once; there is no polling.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Login exchanges credentials for a session. The resulting session reaches
// the store through the identity service's push channel.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.beginAuthOp()
	defer s.endAuthOp()

	_, err := s.identity.SignIn(ctx, email, password)
	if err != nil {
		s.captureErr(err)
		s.logger.Info("Session store: login failed", "email", email, "error", err.Error())
		return err
	}

	s.logger.Info("Session store: login succeeded", "email", email)
	return nil
}

// Register creates an account, signing the user in when the identity service
// issues a session right away.
func (s *Store) Register(ctx context.Context, email, password string) error {
	s.beginAuthOp()
	defer s.endAuthOp()

	_, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		s.captureErr(err)
		s.logger.Info("Session store: registration failed", "email", email, "error", err.Error())
		return err
	}

	s.logger.Info("Session store: registration succeeded", "email", email)
	return nil
}

// Logout invalidates the current session.
func (s *Store) Logout(ctx context.Context) error {
	s.beginAuthOp()
	defer s.endAuthOp()

	if err := s.identity.SignOut(ctx); err != nil {
		s.captureErr(err)
		s.logger.Info("Session store: logout failed", "error", err.Error())
		return err
	}

	s.logger.Info("Session store: logout succeeded")
	return nil
}

func (s *Store) beginAuthOp() {
	s.mu.Lock()
	s.busy = true
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Store) endAuthOp() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Store) captureErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
