package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imgbatch/internal/events"
	"github.com/phrazzld/imgbatch/internal/job"
	"github.com/phrazzld/imgbatch/internal/recovery"
	"github.com/phrazzld/imgbatch/internal/uiloop"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// harness wires a running UI loop, a job manager and an event log.
type harness struct {
	loop    *uiloop.Loop
	manager *job.Manager
	emitter *events.InMemoryEventEmitter
	events  *eventLog
	view    *recordingView
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := setupTestLogger()
	loop := uiloop.New(logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	m := job.NewManager(loop, job.DefaultManagerConfig(), logger)
	m.Start()
	t.Cleanup(m.Close)

	emitter := events.NewInMemoryEventEmitter(logger)
	log := &eventLog{}
	emitter.RegisterHandler(log)

	return &harness{
		loop:    loop,
		manager: m,
		emitter: emitter,
		events:  log,
		view:    &recordingView{},
	}
}

func (h *harness) deps(p recovery.Presenter) Deps {
	return Deps{
		Loop:      h.loop,
		Presenter: p,
		Emitter:   h.emitter,
		View:      h.view,
		Logger:    setupTestLogger(),
	}
}

// result is what the UI saw when the batch job finished.
type result struct {
	job      *job.Job
	status   job.Status
	success  bool
	progress []float64
}

// submit starts c as a job and returns its id plus a channel that yields the
// finished result.
func submit[T any](t *testing.T, h *harness, c *Coordinator[T]) (id uuid.UUID, out <-chan result) {
	t.Helper()

	ch := make(chan result, 1)
	var progress []float64

	spec := c.JobSpec()
	showProgress := spec.OnProgress
	spec.OnProgress = func(j *job.Job, p float64) {
		progress = append(progress, p)
		showProgress(j, p)
	}
	spec.OnFinished = func(j *job.Job) {
		ch <- result{job: j, status: j.Status(), success: j.Success(), progress: progress}
	}

	jobID, err := h.manager.Submit(spec)
	require.NoError(t, err)
	return jobID, ch
}

func await(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for batch to finish")
		return result{}
	}
}

// runBatch submits c and waits for it to finish.
func runBatch[T any](t *testing.T, h *harness, c *Coordinator[T]) result {
	t.Helper()
	_, ch := submit(t, h, c)
	return await(t, ch)
}

// scriptedOp fails each item with the scripted errors, one per attempt,
// and then succeeds.
type scriptedOp struct {
	mu       sync.Mutex
	failures map[string][]error
	attempts map[string]int
	order    []string
	// fail, when set, decides failures instead of the script
	fail func(item string, dest *Destination) error
}

func newScriptedOp(failures map[string][]error) *scriptedOp {
	if failures == nil {
		failures = map[string][]error{}
	}
	return &scriptedOp{failures: failures, attempts: map[string]int{}}
}

func (s *scriptedOp) op(_ context.Context, item string, dest *Destination) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[item]++
	s.order = append(s.order, item)

	if s.fail != nil {
		return s.fail(item, dest)
	}
	if errs := s.failures[item]; len(errs) > 0 {
		s.failures[item] = errs[1:]
		return errs[0]
	}
	return nil
}

func (s *scriptedOp) attemptsFor(item string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[item]
}

// scriptedPresenter answers questions with the scripted decisions in order.
type scriptedPresenter struct {
	mu        sync.Mutex
	decisions []recovery.Decision
	asked     []*recovery.Request
}

func (p *scriptedPresenter) Present(req *recovery.Request) recovery.Decision {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.asked = append(p.asked, req)
	if len(p.decisions) == 0 {
		return recovery.Undecided
	}
	d := p.decisions[0]
	p.decisions = p.decisions[1:]
	return d
}

func (p *scriptedPresenter) questions() []*recovery.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*recovery.Request(nil), p.asked...)
}

// eventLog records batch events.
type eventLog struct {
	mu     sync.Mutex
	events []*events.BatchEvent
}

func (l *eventLog) HandleEvent(_ context.Context, e *events.BatchEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, string(e.Type)+":"+e.Item)
	}
	return out
}

// recordingView records progress shown to the user.
type recordingView struct {
	mu        sync.Mutex
	fractions []float64
	captions  []string
}

func (v *recordingView) ShowProgress(fraction float64, caption string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fractions = append(v.fractions, fraction)
	v.captions = append(v.captions, caption)
}

func (v *recordingView) last() (float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.fractions) == 0 {
		return 0, false
	}
	return v.fractions[len(v.fractions)-1], true
}

func (v *recordingView) lastCaption() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.captions) == 0 {
		return ""
	}
	return v.captions[len(v.captions)-1]
}

var errIO = errors.New("input/output error")
