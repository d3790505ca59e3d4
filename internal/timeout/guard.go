// Package timeout converts silently hanging store calls into explicit
// timeout errors. The guarded operation keeps running after the deadline
// fires - there is no cancellation channel to the remote store - so a save
// reported as timed out may still land remotely (at-least-once semantics).
package timeout

import (
	"errors"
	"fmt"
	"time"
)

// Error reports an operation that missed its deadline.
type Error struct {
	Label    string
	Deadline time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s timed out after %dms", e.Label, e.Deadline.Milliseconds())
}

// IsTimeout reports whether err (or anything it wraps) is a guard timeout.
func IsTimeout(err error) bool {
	var guardErr *Error
	return errors.As(err, &guardErr)
}

type result[T any] struct {
	value T
	err   error
}

// Do races op against the deadline. If the timer fires first the operation's
// eventual result is discarded and a *Error naming label and the deadline is
// returned instead. op runs on its own goroutine and is never interrupted.
func Do[T any](deadline time.Duration, label string, op func() (T, error)) (T, error) {
	done := make(chan result[T], 1)
	go func() {
		value, err := op()
		done <- result[T]{value: value, err: err}
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.value, res.err
	case <-timer.C:
		var zero T
		return zero, &Error{Label: label, Deadline: deadline}
	}
}
