package relay

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tinyland-inc/dropgram/pkg/assemble"
	"github.com/tinyland-inc/dropgram/pkg/config"
	"github.com/tinyland-inc/dropgram/pkg/files"
	"github.com/tinyland-inc/dropgram/pkg/logger"
	"github.com/tinyland-inc/dropgram/pkg/queue"
)

// Filler reconciles the queue with the load directory: relocates sent
// files, drops queued messages whose files vanished, and enqueues messages
// for new files.
type Filler struct {
	queue     *queue.Queue
	assembler *assemble.Assembler
	clock     Clock
	cfg       *config.Config
}

func NewFiller(q *queue.Queue, a *assemble.Assembler, cfg *config.Config) *Filler {
	return &Filler{
		queue:     q,
		assembler: a,
		clock:     RealClock{},
		cfg:       cfg,
	}
}

// Fill runs one fill cycle. Errors reading the load directory abort the
// cycle; everything else is per-file and logged where it happens.
func (f *Filler) Fill() error {
	// Hand sent messages to relocation first so their files are gone from
	// the load directory before it is rescanned.
	if excluded := f.queue.DrainExcluded(); len(excluded) > 0 {
		records := make([]*files.Record, 0, len(excluded))
		for _, msg := range excluded {
			records = append(records, msg.Record)
		}
		if err := files.MoveSent(records, f.cfg.HistoryPath); err != nil {
			return err
		}
	}

	scanned, err := files.Scan(f.cfg.LoadPath)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}

	onDisk := make(map[string]bool, len(scanned))
	for _, rec := range scanned {
		onDisk[rec.Path] = true
	}
	enqueued := f.queue.FilePaths()

	// Vanished files first: a queued message whose file is gone can no
	// longer be sent.
	var missing []string
	for p := range enqueued {
		if !onDisk[p] {
			missing = append(missing, p)
		}
	}
	if removed := f.queue.RemoveByPath(missing); removed > 0 {
		logger.WarnCF("fill", "Dropped queued messages for vanished files", map[string]any{
			"messages": removed,
		})
	}

	// Then new files: anything on disk not yet represented in the queue.
	fresh := scanned[:0]
	for _, rec := range scanned {
		if !enqueued[rec.Path] {
			fresh = append(fresh, rec)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	classified := files.Classify(fresh)
	files.SortByModTime(classified)
	results := f.assembler.Build(classified)

	msgs := make([]*queue.Message, 0, len(results))
	now := f.clock.Now()
	for _, res := range results {
		msgs = append(msgs, &queue.Message{
			ID:         uuid.New().String(),
			Record:     res.Record,
			Payload:    res.Payload,
			EnqueuedAt: now,
		})
	}
	f.queue.Enqueue(msgs...)

	logger.InfoCF("fill", "Queue filled", map[string]any{
		"new_messages": len(msgs),
		"pending":      f.queue.Len(),
	})
	return nil
}
