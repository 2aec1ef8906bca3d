package relay

import (
	"context"
	"errors"
	"time"

	"github.com/tinyland-inc/dropgram/pkg/config"
	"github.com/tinyland-inc/dropgram/pkg/logger"
)

// Relay runs the two periodic routines: a fill cycle at half the send
// period and a send cycle at the full period. An initial fill and send run
// before the tickers start so a pre-existing backlog is not delayed.
type Relay struct {
	filler     *Filler
	dispatcher *Dispatcher
	cfg        *config.Config
}

func New(filler *Filler, dispatcher *Dispatcher, cfg *config.Config) *Relay {
	return &Relay{
		filler:     filler,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// Run blocks until ctx is canceled or the dispatcher hits a fatal
// condition. Fill errors are logged and the cycle skipped; a send cycle
// that exhausts its retry ceiling terminates the run with an error.
func (r *Relay) Run(ctx context.Context) error {
	if err := r.fill(); err != nil {
		logger.ErrorCF("relay", "Initial fill failed", map[string]any{"error": err.Error()})
	}
	if err := r.dispatcher.RunOnce(ctx); err != nil {
		return stripCancel(err)
	}

	sendTicker := time.NewTicker(r.cfg.SendEvery())
	defer sendTicker.Stop()
	fillTicker := time.NewTicker(r.cfg.FillEvery())
	defer fillTicker.Stop()

	logger.InfoCF("relay", "Relay started", map[string]any{
		"send_every": r.cfg.SendEvery().String(),
		"fill_every": r.cfg.FillEvery().String(),
		"load_path":  r.cfg.LoadPath,
	})

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-fillTicker.C:
			if err := r.fill(); err != nil {
				logger.ErrorCF("relay", "Fill cycle failed", map[string]any{"error": err.Error()})
			}
		case <-sendTicker.C:
			if err := r.dispatcher.RunOnce(ctx); err != nil {
				return stripCancel(err)
			}
		}
	}
}

func (r *Relay) fill() error {
	return r.filler.Fill()
}

// stripCancel turns context cancellation into a clean shutdown; anything
// else propagates as the fatal condition it is.
func stripCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
