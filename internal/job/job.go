package job

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/imgbatch/internal/uiloop"
)

// Action is the work a job performs on a worker goroutine.
// ctx is canceled when the job is canceled; long-running actions should
// check it (or j.Canceled) between units of work.
type Action func(ctx context.Context, j *Job) error

// Spec describes a job to submit. Only Action is required.
//
// OnProgress, OnCancel and OnFinished always run on the UI loop. FreePayload
// runs on the UI loop right after OnFinished.
type Spec struct {
	// Name is a short label used in logs and metrics, e.g. "save".
	Name string

	Action      Action
	OnFinished  func(j *Job)
	OnCancel    func(j *Job)
	OnProgress  func(j *Job, progress float64)
	Payload     any
	FreePayload func(payload any)

	Priority Priority

	// NParts splits reported progress into equal parts; see PartFinished.
	// Values below 1 are treated as 1.
	NParts int
}

// Job is a unit of background work tracked by a Manager.
type Job struct {
	id        uuid.UUID
	spec      Spec
	nParts    int
	threshold float64
	loop      uiloop.Deferrer

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	status       Status
	err          error
	nthPart      int
	progress     float64
	lastNotified float64
	finishQueued bool
}

func newJob(spec Spec, threshold float64, loop uiloop.Deferrer) *Job {
	nParts := spec.NParts
	if nParts < 1 {
		nParts = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Job{
		id:        uuid.New(),
		spec:      spec,
		nParts:    nParts,
		threshold: threshold,
		loop:      loop,
		ctx:       ctx,
		cancel:    cancel,
		status:    StatusPending,
	}
}

// ID returns the job's unique identifier
func (j *Job) ID() uuid.UUID {
	return j.id
}

// Name returns the label the job was submitted with.
func (j *Job) Name() string {
	return j.spec.Name
}

// Payload returns the opaque payload the job was submitted with.
func (j *Job) Payload() any {
	return j.spec.Payload
}

// Priority returns the queue priority the job was submitted with.
func (j *Job) Priority() Priority {
	return j.spec.Priority
}

// Status returns the current job status
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Success reports whether the job finished and its action returned nil.
func (j *Job) Success() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status == StatusFinished && j.err == nil
}

// Err returns the error returned by the action, if any.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Canceled reports whether cancellation has been requested.
func (j *Job) Canceled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status == StatusCanceled
}

// Context returns a context that is canceled together with the job.
func (j *Job) Context() context.Context {
	return j.ctx
}

// Progress returns the last computed overall progress in [0, 1].
func (j *Job) Progress() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

// PartFinished advances the job to its next progress part. The part counter
// never exceeds NParts.
func (j *Job) PartFinished() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nthPart = min(j.nthPart+1, j.nParts)
}

// SetProgress records progress within the current part, where v is in [0, 1].
// Overall progress is (finished parts + v) / NParts. OnProgress is scheduled
// on the UI loop when progress has moved by at least the configured threshold
// since the last notification, and always when it reaches 1.
func (j *Job) SetProgress(v float64) {
	v = max(0, min(v, 1))

	j.mu.Lock()
	defer j.mu.Unlock()

	j.progress = min((float64(j.nthPart)+v)/float64(j.nParts), 1)

	if j.spec.OnProgress == nil {
		return
	}
	reachedEnd := j.progress >= 1 && j.lastNotified < 1
	if !reachedEnd && j.progress-j.lastNotified < j.threshold {
		return
	}

	j.lastNotified = j.progress
	value := j.progress
	onProgress := j.spec.OnProgress
	j.loop.Defer(func() { onProgress(j, value) })
}

// start moves a pending job to running. It returns false when the job was
// canceled while it sat in the queue.
func (j *Job) start() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status != StatusPending {
		return false
	}
	j.status = StatusRunning
	return true
}

// complete records the action result. A job that was canceled while running
// stays canceled.
func (j *Job) complete(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.err = err
	if j.status == StatusRunning {
		if isCancellation(err) {
			j.status = StatusCanceled
		} else {
			j.status = StatusFinished
		}
	}
	j.cancel()
}

// requestCancel marks a pending or running job canceled and schedules its
// cancel hook. It returns the status the job had before the call.
func (j *Job) requestCancel() (Status, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	prev := j.status
	if prev.IsTerminal() {
		return prev, false
	}

	j.status = StatusCanceled
	j.cancel()

	// queued while holding the lock so the hook always precedes finished
	if onCancel := j.spec.OnCancel; onCancel != nil {
		j.loop.Defer(func() { onCancel(j) })
	}
	return prev, true
}

// claimFinish returns true exactly once per job.
func (j *Job) claimFinish() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.finishQueued {
		return false
	}
	j.finishQueued = true
	return true
}
