// Package transport runs an ordered list of named transport attempts,
// settling on the first one that succeeds.
package transport

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// ErrExhausted indicates every transport attempt failed.
var ErrExhausted = errors.New("all transports exhausted")

// Attempt is one named way of performing an operation.
type Attempt[T any] struct {
	Name string
	Try  func(ctx context.Context) (T, error)
}

// Run tries each attempt in order, at most once each, and returns the first
// success. Failures are logged and the next attempt runs; when every attempt
// fails the error wraps ErrExhausted together with the last failure.
func Run[T any](ctx context.Context, attempts []Attempt[T]) (T, error) {
	var zero T
	if len(attempts) == 0 {
		return zero, ErrExhausted
	}

	var lastErr error
	for _, attempt := range attempts {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		result, err := attempt.Try(ctx)
		if err == nil {
			return result, nil
		}
		log.Printf("transport %s failed: %v", attempt.Name, err)
		lastErr = err
	}
	return zero, fmt.Errorf("%w: last error: %w", ErrExhausted, lastErr)
}
