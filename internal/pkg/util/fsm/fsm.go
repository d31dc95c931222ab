package fsm

import (
	"context"
	"errors"

	"github.com/looplab/fsm"
)

// WrapEvent adapts an error-returning callback; a returned error is stored on
// the event and surfaces from FSM.Event.
func WrapEvent(fn func(ctx context.Context, event *fsm.Event) error) fsm.Callback {
	return func(ctx context.Context, event *fsm.Event) {
		if err := fn(ctx, event); err != nil {
			event.Err = err
		}
	}
}

// Arg returns the i-th event argument as T.
func Arg[T any](event *fsm.Event, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(event.Args) {
		return zero, false
	}
	v, ok := event.Args[i].(T)
	return v, ok
}

// IsNoop reports whether err only says that nothing happened: the event was
// not valid in the current state, or the transition did not change the state.
func IsNoop(err error) bool {
	var invalid fsm.InvalidEventError
	var noTransition fsm.NoTransitionError
	return errors.As(err, &invalid) || errors.As(err, &noTransition)
}
