package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/tinyland-inc/dropgram/pkg/config"
	"github.com/tinyland-inc/dropgram/pkg/logger"
	"github.com/tinyland-inc/dropgram/pkg/queue"
)

// Dispatcher drains the queue in batches: each message goes through
// Pending → Sending → Sent or Failed, with bounded retries on transient
// failures and a per-item delay between sends.
type Dispatcher struct {
	queue     *queue.Queue
	transport Transport
	clock     Clock
	cfg       *config.Config
}

func NewDispatcher(q *queue.Queue, t Transport, cfg *config.Config) *Dispatcher {
	return &Dispatcher{
		queue:     q,
		transport: t,
		clock:     RealClock{},
		cfg:       cfg,
	}
}

// SetClock replaces the dispatcher's clock. Tests use this to skip the
// inter-item and backoff waits.
func (d *Dispatcher) SetClock(c Clock) { d.clock = c }

// RunOnce performs one send cycle: pull up to the batch size and send each
// message sequentially. A transient failure that survives the attempt
// ceiling is returned and must terminate the run.
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	pull, err := d.pull(ctx)
	if err != nil {
		return err
	}
	defer pull.Close()

	for {
		msg, ok := pull.Next()
		if !ok {
			return nil
		}

		if err := d.sendWithRetry(ctx, msg); err != nil {
			return err
		}

		d.queue.MarkSent(msg)
		logger.InfoCF("sender", "Message sent", map[string]any{
			"id":    msg.ID,
			"name":  msg.Record.Name,
			"route": string(msg.Payload.Route),
		})

		delay := d.cfg.SendDelay()
		if msg.Record.IsBundleHead() {
			delay = d.cfg.BundleDelay()
		}
		if err := d.clock.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// pull acquires the queue, waiting out an in-flight pull rather than
// proceeding with an empty batch.
func (d *Dispatcher) pull(ctx context.Context) (*queue.Pull, error) {
	for {
		pull, err := d.queue.TryPull(d.cfg.SendAtOnce)
		if err == nil {
			return pull, nil
		}
		if !errors.Is(err, queue.ErrPullInProgress) {
			return nil, err
		}
		logger.DebugCF("sender", "Queue locked, waiting to pull", map[string]any{
			"retry_in": d.cfg.PullRetry().String(),
		})
		if err := d.clock.Sleep(ctx, d.cfg.PullRetry()); err != nil {
			return nil, err
		}
	}
}

func (d *Dispatcher) sendWithRetry(ctx context.Context, msg *queue.Message) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := d.transport.Send(ctx, msg.Payload)
		if err == nil {
			return nil
		}

		var transient *RetryableError
		if !errors.As(err, &transient) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Permanent per-item failure: log it and let the queue advance
			// rather than wedging the whole pipeline on one bad file.
			logger.ErrorCF("sender", "Unrecoverable send error, dropping message", map[string]any{
				"id":    msg.ID,
				"name":  msg.Record.Name,
				"error": err.Error(),
			})
			return nil
		}

		if attempt >= d.cfg.MaxSendAttempts {
			return fmt.Errorf("sending %s after %d attempts: %w: %w",
				msg.Record.Name, attempt, ErrRetriesExhausted, transient.Err)
		}

		backoff := d.cfg.RetryBackoff()
		if transient.RetryAfter > backoff {
			backoff = transient.RetryAfter
		}
		logger.WarnCF("sender", "Transient send failure, backing off", map[string]any{
			"id":      msg.ID,
			"name":    msg.Record.Name,
			"attempt": attempt,
			"backoff": backoff.String(),
			"error":   transient.Err.Error(),
		})
		if err := d.clock.Sleep(ctx, backoff); err != nil {
			return err
		}
	}
}
