package queue

import (
	"testing"

	"github.com/tinyland-inc/dropgram/pkg/assemble"
	"github.com/tinyland-inc/dropgram/pkg/files"
)

func msg(id, path string) *Message {
	return &Message{
		ID: id,
		Record: &files.Record{
			Name: path,
			Path: path,
			Kind: files.KindImage,
		},
		Payload: assemble.Payload{Route: assemble.RouteSendPhoto},
	}
}

func TestPullOrder(t *testing.T) {
	q := New()
	a, b, c := msg("a", "/load/a.jpg"), msg("b", "/load/b.jpg"), msg("c", "/load/c.jpg")
	q.Enqueue(a, b, c)

	pull, err := q.TryPull(2)
	if err != nil {
		t.Fatal(err)
	}
	first, ok := pull.Next()
	if !ok || first != a {
		t.Fatalf("first pulled = %v", first)
	}
	second, ok := pull.Next()
	if !ok || second != b {
		t.Fatalf("second pulled = %v", second)
	}
	if _, ok := pull.Next(); ok {
		t.Fatal("pull of 2 handed out a third message")
	}
}

func TestPullDoesNotRemove(t *testing.T) {
	q := New()
	a, b, c := msg("a", "/load/a.jpg"), msg("b", "/load/b.jpg"), msg("c", "/load/c.jpg")
	q.Enqueue(a, b, c)

	pull, _ := q.TryPull(2)
	got, _ := pull.Next()
	pull.Close()

	// A pull alone removes nothing; the consumer may have crashed before
	// sending anything.
	if q.Len() != 3 {
		t.Fatalf("len = %d after abandoned pull, want 3", q.Len())
	}

	q.MarkSent(got)
	if q.Len() != 2 {
		t.Fatalf("len = %d after MarkSent, want 2", q.Len())
	}
	next, _ := q.TryPull(1)
	remaining, _ := next.Next()
	if remaining != b {
		t.Errorf("head after MarkSent = %v, want b", remaining)
	}
	if remaining.Payload.Route != assemble.RouteSendPhoto {
		t.Error("payload lost")
	}
}

func TestPullLock(t *testing.T) {
	q := New()
	q.Enqueue(msg("a", "/load/a.jpg"))

	pull, err := q.TryPull(1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.TryPull(1); err != ErrPullInProgress {
		t.Fatalf("concurrent pull error = %v", err)
	}

	// Exhausting the pull unlocks it.
	pull.Next()
	pull.Next()
	if _, err := q.TryPull(1); err != nil {
		t.Fatalf("pull after exhaustion failed: %v", err)
	}
}

func TestPullMoreThanPending(t *testing.T) {
	q := New()
	q.Enqueue(msg("a", "/load/a.jpg"))

	pull, err := q.TryPull(5)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for {
		if _, ok := pull.Next(); !ok {
			break
		}
		count++
	}
	if count != 1 {
		t.Errorf("handed out %d messages, want 1", count)
	}
}

func TestPullEmptyQueue(t *testing.T) {
	q := New()
	pull, err := q.TryPull(3)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := pull.Next(); ok {
		t.Fatal("empty queue handed out a message")
	}
	// The empty pull must still release the lock.
	if _, err := q.TryPull(3); err != nil {
		t.Fatalf("queue stayed locked: %v", err)
	}
}

func TestDrainExcluded(t *testing.T) {
	q := New()
	a, b := msg("a", "/load/a.jpg"), msg("b", "/load/b.jpg")
	q.Enqueue(a, b)
	q.MarkSent(a)

	drained := q.DrainExcluded()
	if len(drained) != 1 || drained[0] != a {
		t.Fatalf("drained = %v", drained)
	}
	if got := q.DrainExcluded(); len(got) != 0 {
		t.Fatalf("second drain = %v, want empty", got)
	}
}

func TestFilePathsFlattened(t *testing.T) {
	q := New()
	m := msg("a", "/load/a.mp4")
	m.Record.Thumbnail = &files.Record{Path: "/load/a_thumb.jpg"}
	m.Record.Caption = &files.Record{Path: "/load/a_caption.txt"}
	q.Enqueue(m)

	paths := q.FilePaths()
	for _, want := range []string{"/load/a.mp4", "/load/a_thumb.jpg", "/load/a_caption.txt"} {
		if !paths[want] {
			t.Errorf("missing path %s", want)
		}
	}
	if len(paths) != 3 {
		t.Errorf("got %d paths, want 3", len(paths))
	}
}

func TestRemoveByPath(t *testing.T) {
	q := New()
	a, b := msg("a", "/load/a.jpg"), msg("b", "/load/b.jpg")

	// A bundle message is removed when any member path vanishes.
	head := &files.Record{Name: "x{00}.jpg", Path: "/load/x{00}.jpg", Kind: files.KindImage, BundleKey: "x_0"}
	member := &files.Record{Name: "x{01}.jpg", Path: "/load/x{01}.jpg", Kind: files.KindImage, BundleKey: "x_0"}
	head.BundleMembers = []*files.Record{head, member}
	bundle := &Message{ID: "x", Record: head}

	q.Enqueue(a, bundle, b)

	removed := q.RemoveByPath([]string{"/load/x{01}.jpg"})
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if q.Len() != 2 {
		t.Fatalf("len = %d, want 2", q.Len())
	}

	if n := q.RemoveByPath(nil); n != 0 {
		t.Errorf("empty removal removed %d", n)
	}
	if n := q.RemoveByPath([]string{"/load/unknown.jpg"}); n != 0 {
		t.Errorf("unknown path removed %d", n)
	}
}
