package relay

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/tinyland-inc/dropgram/pkg/assemble"
	"github.com/tinyland-inc/dropgram/pkg/config"
	"github.com/tinyland-inc/dropgram/pkg/files"
	"github.com/tinyland-inc/dropgram/pkg/logger"
	"github.com/tinyland-inc/dropgram/pkg/queue"
)

func TestMain(m *testing.M) {
	logger.SetNop()
	os.Exit(m.Run())
}

// fakeClock records sleeps instead of waiting and can run a hook on each
// Sleep call.
type fakeClock struct {
	now     time.Time
	slept   []time.Duration
	onSleep func(time.Duration)
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.slept = append(c.slept, d)
	if c.onSleep != nil {
		c.onSleep(d)
	}
	return nil
}

// fakeTransport replays a scripted error sequence, then succeeds.
type fakeTransport struct {
	errs  []error
	calls int
}

func (t *fakeTransport) Send(_ context.Context, _ assemble.Payload) error {
	t.calls++
	if len(t.errs) > 0 {
		err := t.errs[0]
		t.errs = t.errs[1:]
		return err
	}
	return nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.SendDelaySeconds = 1
	cfg.BundleDelaySeconds = 3
	cfg.RetryBackoffSeconds = 10
	cfg.PullRetrySeconds = 2
	return cfg
}

func queueMsg(id string) *queue.Message {
	return &queue.Message{
		ID: id,
		Record: &files.Record{
			Name: id + ".jpg",
			Path: "/load/" + id + ".jpg",
			Kind: files.KindImage,
		},
		Payload: assemble.Payload{Route: assemble.RouteSendPhoto},
	}
}

func TestRunOnceSendsBatch(t *testing.T) {
	q := queue.New()
	q.Enqueue(queueMsg("a"), queueMsg("b"), queueMsg("c"))

	tr := &fakeTransport{}
	cfg := testConfig()
	cfg.SendAtOnce = 2
	d := NewDispatcher(q, tr, cfg)
	clk := &fakeClock{}
	d.SetClock(clk)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.calls != 2 {
		t.Errorf("transport called %d times, want 2", tr.calls)
	}
	if q.Len() != 1 {
		t.Errorf("pending = %d, want 1", q.Len())
	}
	if sent := q.DrainExcluded(); len(sent) != 2 {
		t.Errorf("excluded = %d, want 2", len(sent))
	}
	// One per-item delay after each send.
	if len(clk.slept) != 2 || clk.slept[0] != time.Second {
		t.Errorf("sleeps = %v", clk.slept)
	}
}

func TestRunOnceBundleDelay(t *testing.T) {
	q := queue.New()
	head := &files.Record{Name: "x{00}.jpg", Path: "/load/x{00}.jpg", Kind: files.KindImage, BundleKey: "x_0"}
	head.BundleMembers = []*files.Record{head}
	q.Enqueue(&queue.Message{ID: "x", Record: head, Payload: assemble.Payload{Route: assemble.RouteSendMediaGroup}})

	d := NewDispatcher(q, &fakeTransport{}, testConfig())
	clk := &fakeClock{}
	d.SetClock(clk)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(clk.slept) != 1 || clk.slept[0] != 3*time.Second {
		t.Errorf("bundle delay sleeps = %v", clk.slept)
	}
}

func TestRetryCeiling(t *testing.T) {
	q := queue.New()
	q.Enqueue(queueMsg("a"))

	flood := &RetryableError{Err: errors.New("too many requests")}
	tr := &fakeTransport{errs: []error{flood, flood, flood, flood, flood, flood}}
	cfg := testConfig()
	cfg.MaxSendAttempts = 5
	d := NewDispatcher(q, tr, cfg)
	clk := &fakeClock{}
	d.SetClock(clk)

	err := d.RunOnce(context.Background())
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("err = %v, want retries exhausted", err)
	}
	if tr.calls != 5 {
		t.Errorf("transport called %d times, want exactly 5", tr.calls)
	}
	// Message stays pending for the next run.
	if q.Len() != 1 {
		t.Errorf("pending = %d, want 1", q.Len())
	}
	if sent := q.DrainExcluded(); len(sent) != 0 {
		t.Errorf("failed message marked sent: %v", sent)
	}
}

func TestRetryThenSuccess(t *testing.T) {
	q := queue.New()
	q.Enqueue(queueMsg("a"))

	tr := &fakeTransport{errs: []error{
		&RetryableError{Err: errors.New("no response")},
		&RetryableError{Err: errors.New("no response")},
	}}
	d := NewDispatcher(q, tr, testConfig())
	clk := &fakeClock{}
	d.SetClock(clk)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.calls != 3 {
		t.Errorf("transport called %d times, want 3", tr.calls)
	}
	if q.Len() != 0 {
		t.Errorf("pending = %d, want 0", q.Len())
	}
	// Two backoffs plus the final per-item delay.
	want := []time.Duration{10 * time.Second, 10 * time.Second, time.Second}
	if len(clk.slept) != len(want) {
		t.Fatalf("sleeps = %v", clk.slept)
	}
	for i, dur := range want {
		if clk.slept[i] != dur {
			t.Errorf("sleep %d = %v, want %v", i, clk.slept[i], dur)
		}
	}
}

func TestBackoffHonorsRetryAfter(t *testing.T) {
	q := queue.New()
	q.Enqueue(queueMsg("a"))

	tr := &fakeTransport{errs: []error{
		&RetryableError{Err: errors.New("flood"), RetryAfter: 45 * time.Second},
		&RetryableError{Err: errors.New("flood"), RetryAfter: 2 * time.Second},
	}}
	d := NewDispatcher(q, tr, testConfig())
	clk := &fakeClock{}
	d.SetClock(clk)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	// The longer of the configured backoff and the server's retry-after
	// wins each time.
	if clk.slept[0] != 45*time.Second {
		t.Errorf("first backoff = %v, want 45s", clk.slept[0])
	}
	if clk.slept[1] != 10*time.Second {
		t.Errorf("second backoff = %v, want configured 10s", clk.slept[1])
	}
}

func TestPermanentErrorAdvancesQueue(t *testing.T) {
	q := queue.New()
	q.Enqueue(queueMsg("bad"), queueMsg("good"))

	tr := &fakeTransport{errs: []error{errors.New("400: wrong file")}}
	d := NewDispatcher(q, tr, testConfig())
	clk := &fakeClock{}
	d.SetClock(clk)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.calls != 2 {
		t.Errorf("transport called %d times, want 2", tr.calls)
	}
	// The bad message is dropped from pending rather than retried forever.
	if q.Len() != 0 {
		t.Errorf("pending = %d, want 0", q.Len())
	}
}

func TestPullWaitsOutLock(t *testing.T) {
	q := queue.New()
	q.Enqueue(queueMsg("a"))

	held, err := q.TryPull(1)
	if err != nil {
		t.Fatal(err)
	}

	tr := &fakeTransport{}
	d := NewDispatcher(q, tr, testConfig())
	clk := &fakeClock{}
	clk.onSleep = func(time.Duration) { held.Close() }
	d.SetClock(clk)

	if err := d.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.calls != 1 {
		t.Errorf("transport called %d times, want 1", tr.calls)
	}
	// The first sleep is the pull-retry wait.
	if clk.slept[0] != 2*time.Second {
		t.Errorf("pull retry wait = %v, want 2s", clk.slept[0])
	}
}

func TestRunOnceCancelled(t *testing.T) {
	q := queue.New()
	q.Enqueue(queueMsg("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDispatcher(q, &fakeTransport{}, testConfig())
	d.SetClock(&fakeClock{})

	if err := d.RunOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if q.Len() != 1 {
		t.Errorf("pending = %d, cancellation must not consume messages", q.Len())
	}
}
