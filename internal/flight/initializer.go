// Package flight provides a single-flight, at-most-once initializer for
// asynchronous setup routines shared by concurrent callers.
package flight

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Action is the pluggable setup routine guarded by an Initializer.
type Action func(ctx context.Context) error

type state int

const (
	stateNotStarted state = iota
	stateInFlight
	stateReady
	stateFailed
)

// Initializer runs its action at most once per process lifetime. Concurrent
// callers of Run share the outcome of the single in-flight execution; once
// the action has succeeded or failed that outcome is terminal and Run
// returns it without re-running the action.
type Initializer struct {
	action Action
	group  singleflight.Group

	mu    sync.Mutex
	state state
	err   error
}

// New creates an Initializer around the given setup action.
func New(action Action) *Initializer {
	return &Initializer{action: action}
}

// Run executes the action if it has never completed, or returns the recorded
// outcome. Callers arriving while the action is in flight block until it
// finishes and observe the same result.
func (i *Initializer) Run(ctx context.Context) error {
	i.mu.Lock()
	switch i.state {
	case stateReady:
		i.mu.Unlock()
		return nil
	case stateFailed:
		err := i.err
		i.mu.Unlock()
		return err
	case stateNotStarted:
		i.state = stateInFlight
	}
	i.mu.Unlock()

	// All callers that passed the state check collapse onto one execution.
	_, err, _ := i.group.Do("init", func() (any, error) {
		// A caller that observed InFlight may enter here after the flight
		// completed and the key was forgotten; the terminal state must win.
		i.mu.Lock()
		switch i.state {
		case stateReady:
			i.mu.Unlock()
			return nil, nil
		case stateFailed:
			doneErr := i.err
			i.mu.Unlock()
			return nil, doneErr
		}
		i.mu.Unlock()

		runErr := i.action(ctx)

		i.mu.Lock()
		if runErr != nil {
			i.state = stateFailed
			i.err = runErr
		} else {
			i.state = stateReady
		}
		i.mu.Unlock()

		return nil, runErr
	})

	return err
}

// Ready reports whether the action has completed successfully.
func (i *Initializer) Ready() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state == stateReady
}
