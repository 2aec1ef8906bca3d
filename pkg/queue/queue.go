// Package queue implements the ordered delivery buffer: a FIFO of pending
// messages with cooperative single-consumer pull semantics and a separate
// exclude list of sent messages awaiting file relocation.
package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/tinyland-inc/dropgram/pkg/assemble"
	"github.com/tinyland-inc/dropgram/pkg/files"
)

// ErrPullInProgress signals that a pull is already in flight. This is a
// normal, polled condition for the sender, not a failure.
var ErrPullInProgress = errors.New("queue: pull already in progress")

// Message is one queue entry: a top-level record (or bundle head) with its
// assembled payload.
type Message struct {
	ID         string
	Record     *files.Record
	Payload    assemble.Payload
	EnqueuedAt time.Time
}

type pullState int

const (
	pullIdle pullState = iota
	pullInFlight
)

// Queue owns two disjoint sequences: pending (FIFO) and excluded (sent,
// awaiting relocation). Pending is only appended at the tail and removed at
// arbitrary positions by MarkSent and RemoveByPath; it is never reordered.
type Queue struct {
	mu       sync.Mutex
	pending  []*Message
	excluded []*Message
	state    pullState
}

func New() *Queue {
	return &Queue{}
}

// Enqueue appends messages at the tail. Deduplication against already
// queued files is the fill routine's job, via FilePaths.
func (q *Queue) Enqueue(msgs ...*Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, msgs...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// FilePaths returns the flattened set of file paths represented by pending
// messages, including companions and bundle members. This projection is the
// single source of truth for what is already enqueued.
func (q *Queue) FilePaths() map[string]bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make(map[string]bool)
	for _, msg := range q.pending {
		for _, p := range msg.Record.FlattenPaths() {
			out[p] = true
		}
	}
	return out
}

// TryPull starts a pull of up to n messages from the head. It fails with
// ErrPullInProgress while another pull is in flight. Messages are handed
// out lazily by Pull.Next and are not removed from pending; only MarkSent
// removes, so a consumer crash mid-batch loses nothing.
func (q *Queue) TryPull(n int) (*Pull, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state == pullInFlight {
		return nil, ErrPullInProgress
	}

	if n > len(q.pending) {
		n = len(q.pending)
	}
	items := make([]*Message, n)
	copy(items, q.pending[:n])

	q.state = pullInFlight
	return &Pull{q: q, items: items}, nil
}

// MarkSent moves a message from pending to the exclude list. This is the
// only removal path for successfully sent messages.
func (q *Queue) MarkSent(msg *Message) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, m := range q.pending {
		if m == msg {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			q.excluded = append(q.excluded, m)
			return
		}
	}
}

// DrainExcluded atomically returns and clears the exclude list.
func (q *Queue) DrainExcluded() []*Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.excluded
	q.excluded = nil
	return out
}

// RemoveByPath drops every pending message any of whose constituent file
// paths (companions and bundle members included) appears in paths. Used to
// reconcile the queue when files vanish from disk between scans. Returns
// the number of messages removed.
func (q *Queue) RemoveByPath(paths []string) int {
	if len(paths) == 0 {
		return 0
	}
	victims := make(map[string]bool, len(paths))
	for _, p := range paths {
		victims[p] = true
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	kept := q.pending[:0]
	for _, msg := range q.pending {
		hit := false
		for _, p := range msg.Record.FlattenPaths() {
			if victims[p] {
				hit = true
				break
			}
		}
		if hit {
			removed++
			continue
		}
		kept = append(kept, msg)
	}
	q.pending = kept
	return removed
}

// Pull lazily hands out the messages snapshotted by TryPull. The queue
// returns to idle once the pull is exhausted or closed.
type Pull struct {
	q      *Queue
	items  []*Message
	next   int
	closed bool
}

// Next returns the next message of the pull, or false when exhausted. The
// final call that exhausts the pull unlocks the queue.
func (p *Pull) Next() (*Message, bool) {
	if p.closed || p.next >= len(p.items) {
		p.Close()
		return nil, false
	}
	msg := p.items[p.next]
	p.next++
	if p.next >= len(p.items) {
		p.Close()
	}
	return msg, true
}

// Close releases the pull early. Safe to call multiple times.
func (p *Pull) Close() {
	if p.closed {
		return
	}
	p.closed = true

	p.q.mu.Lock()
	p.q.state = pullIdle
	p.q.mu.Unlock()
}
