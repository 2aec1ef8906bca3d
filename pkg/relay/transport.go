// Package relay wires the pipeline together: the fill routine that turns
// directory contents into queued messages, and the dispatcher that drains
// the queue at a throttled rate.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tinyland-inc/dropgram/pkg/assemble"
)

// ErrRetriesExhausted is returned when a send keeps failing transiently up
// to the attempt ceiling. It is fatal for the run: the ordering invariant
// cannot be trusted past this point.
var ErrRetriesExhausted = errors.New("send retries exhausted")

// Transport delivers one assembled payload to the chat API.
type Transport interface {
	Send(ctx context.Context, payload assemble.Payload) error
}

// RetryableError marks a transient transport failure: no response from the
// API, or an explicit rate-limit. The dispatcher backs off and retries;
// every other error is treated as a permanent per-item failure.
type RetryableError struct {
	Err error
	// RetryAfter is the wait the API asked for, if it named one.
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("transient send failure: %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }
