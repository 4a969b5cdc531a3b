// Package await turns asynchronous arrival into a synchronous outcome by
// polling a condition on a fixed interval until it holds or a deadline passes.
package await

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultInterval = 100 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
)

var ErrTimeout = errors.New("await: condition not met before timeout")

// TimeoutError is returned when the condition never held within the timeout.
type TimeoutError struct {
	Timeout  time.Duration
	Attempts int
	Elapsed  time.Duration
	// LastErr is the last error reported by the condition, if any.
	LastErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("await: condition not met after %d attempts in %s (timeout %s)", e.Attempts, e.Elapsed.Round(time.Millisecond), e.Timeout)
	if e.LastErr != nil {
		msg += ": last error: " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

type options struct {
	interval    time.Duration
	timeout     time.Duration
	ignoreError bool
}

type Option func(*options)

func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// IgnoreErrors keeps polling when the condition returns an error instead of
// failing fast. The last error is kept on the TimeoutError.
func IgnoreErrors() Option {
	return func(o *options) { o.ignoreError = true }
}

func newOptions(opts []Option) options {
	o := options{interval: DefaultInterval, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Until polls cond until it returns true. It returns nil on success, a
// *TimeoutError (errors.Is ErrTimeout) when the timeout elapses, or ctx.Err()
// if ctx is cancelled first.
func Until(ctx context.Context, cond func() bool, opts ...Option) error {
	return UntilErr(ctx, func() (bool, error) { return cond(), nil }, opts...)
}

// UntilErr is Until for conditions that can fail. A condition error stops
// the wait immediately unless IgnoreErrors is set.
func UntilErr(ctx context.Context, cond func() (bool, error), opts ...Option) error {
	o := newOptions(opts)

	start := time.Now()
	deadline := time.NewTimer(o.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	var (
		attempts int
		lastErr  error
	)
	for {
		attempts++
		ok, err := cond()
		if err != nil {
			if !o.ignoreError {
				return fmt.Errorf("await: condition failed on attempt %d: %w", attempts, err)
			}
			lastErr = err
		} else if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return &TimeoutError{
				Timeout:  o.timeout,
				Attempts: attempts,
				Elapsed:  time.Since(start),
				LastErr:  lastErr,
			}
		case <-ticker.C:
		}
	}
}

// Value polls fn until it reports ok and returns the produced value.
func Value[T any](ctx context.Context, fn func() (T, bool), opts ...Option) (T, error) {
	var out T
	err := Until(ctx, func() bool {
		v, ok := fn()
		if ok {
			out = v
		}
		return ok
	}, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
