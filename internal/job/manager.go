package job

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/imgbatch/internal/uiloop"
)

// Observer receives job lifecycle notifications. JobSubmitted runs on the
// submitting goroutine, JobStarted on a worker and JobFinished on the UI loop,
// so implementations must be safe for concurrent use.
type Observer interface {
	JobSubmitted(j *Job)
	JobStarted(j *Job)
	JobFinished(j *Job)
}

// ManagerConfig holds configuration for the job manager
type ManagerConfig struct {
	// WorkerCount determines how many jobs run concurrently
	WorkerCount int

	// ProgressThreshold is the minimum progress delta between two
	// OnProgress notifications of the same job
	ProgressThreshold float64
}

// DefaultManagerConfig returns a ManagerConfig with reasonable defaults
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:       DefaultWorkerPoolConfig().WorkerCount,
		ProgressThreshold: 0.1,
	}
}

// Manager schedules jobs onto a worker pool and routes their callbacks to the
// UI loop. A Manager is safe for concurrent use.
type Manager struct {
	config   ManagerConfig
	loop     uiloop.Deferrer
	queue    *Queue
	pool     *WorkerPool
	logger   *slog.Logger
	observer Observer

	mu     sync.Mutex
	jobs   map[uuid.UUID]*Job
	closed bool
}

// NewManager creates a Manager whose callbacks run on loop.
// Call Start to begin processing.
func NewManager(loop uiloop.Deferrer, config ManagerConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "job_manager")

	if config.ProgressThreshold < 0 || config.ProgressThreshold > 1 {
		logger.Warn("invalid progress threshold specified, using default",
			"specified_threshold", config.ProgressThreshold,
			"default_threshold", DefaultManagerConfig().ProgressThreshold)
		config.ProgressThreshold = DefaultManagerConfig().ProgressThreshold
	}

	m := &Manager{
		config: config,
		loop:   loop,
		queue:  NewQueue(logger),
		logger: logger,
		jobs:   make(map[uuid.UUID]*Job),
	}
	m.pool = NewWorkerPool(m.queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, m.run, logger)
	return m
}

// SetObserver installs a lifecycle observer. It must be called before Start.
func (m *Manager) SetObserver(o Observer) {
	m.observer = o
}

// Start launches the worker goroutines.
func (m *Manager) Start() {
	m.pool.Start()
}

// Submit registers a new pending job and queues it for execution.
func (m *Manager) Submit(spec Spec) (uuid.UUID, error) {
	if spec.Action == nil {
		return uuid.Nil, fmt.Errorf("%w: action is required", ErrInvalidJob)
	}

	j := newJob(spec, m.config.ProgressThreshold, m.loop)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return uuid.Nil, ErrManagerClosed
	}
	m.jobs[j.ID()] = j
	if err := m.queue.Push(j); err != nil {
		delete(m.jobs, j.ID())
		m.mu.Unlock()
		return uuid.Nil, fmt.Errorf("failed to queue job: %w", err)
	}
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.JobSubmitted(j)
	}
	m.logger.Debug("job submitted",
		"job_id", j.ID(),
		"job_name", j.Name(),
		"priority", j.Priority().String(),
		"n_parts", j.nParts)

	return j.ID(), nil
}

// Get returns a live job by id. Jobs are retired once their finished callback
// has run.
func (m *Manager) Get(id uuid.UUID) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return j, nil
}

// Status returns the status of a live job.
func (m *Manager) Status(id uuid.UUID) (Status, error) {
	j, err := m.Get(id)
	if err != nil {
		return "", err
	}
	return j.Status(), nil
}

// Len returns the number of live (pending, running, or awaiting their
// finished callback) jobs.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Cancel requests cancellation of a job. A pending job is removed from the
// queue and its finished callback scheduled immediately; a running job is
// flagged and finishes once its action returns. It returns false if the job
// had already finished or been canceled.
func (m *Manager) Cancel(id uuid.UUID) (bool, error) {
	j, err := m.Get(id)
	if err != nil {
		return false, err
	}
	return m.cancel(j), nil
}

// CancelAll cancels every pending and running job and returns how many
// were canceled.
func (m *Manager) CancelAll() int {
	m.mu.Lock()
	live := make([]*Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		live = append(live, j)
	}
	m.mu.Unlock()

	canceled := 0
	for _, j := range live {
		if m.cancel(j) {
			canceled++
		}
	}
	return canceled
}

// Close cancels all jobs, stops the workers and waits for them to return.
// Finished callbacks for the canceled jobs are left on the UI loop.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	n := m.CancelAll()
	m.pool.Stop()
	m.logger.Info("job manager closed", "canceled_jobs", n)
}

func (m *Manager) cancel(j *Job) bool {
	prev, ok := j.requestCancel()
	if !ok {
		return false
	}

	m.logger.Info("job canceled",
		"job_id", j.ID(),
		"job_name", j.Name(),
		"previous_status", prev)

	if prev == StatusPending {
		m.queue.Remove(j)
		m.scheduleFinished(j)
	}
	return true
}

// run executes one job on a worker goroutine.
func (m *Manager) run(j *Job, workerID int) {
	logger := m.logger.With(
		"job_id", j.ID(),
		"job_name", j.Name(),
		"worker_id", workerID,
	)

	if !j.start() {
		logger.Debug("skipping job canceled while pending")
		return
	}
	if m.observer != nil {
		m.observer.JobStarted(j)
	}

	logger.Info("running job")

	err := m.invoke(j)
	j.complete(err)

	switch {
	case j.Status() == StatusCanceled:
		logger.Info("job stopped after cancellation", "error", err)
	case err != nil:
		logger.Error("job action failed", "error", err)
	default:
		logger.Info("job action completed successfully")
	}

	m.scheduleFinished(j)
}

// invoke calls the job action, converting a panic into an error.
func (m *Manager) invoke(j *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrActionPanicked, r)
		}
	}()
	return j.spec.Action(j.ctx, j)
}

func (m *Manager) scheduleFinished(j *Job) {
	if !j.claimFinish() {
		return
	}
	m.loop.Defer(func() { m.finish(j) })
}

// finish runs on the UI loop.
func (m *Manager) finish(j *Job) {
	status := j.Status()
	if !status.IsTerminal() {
		panic(fmt.Sprintf("job: finished callback for non-terminal job %s (status %s)", j.ID(), status))
	}

	if j.spec.OnFinished != nil {
		j.spec.OnFinished(j)
	}
	if j.spec.FreePayload != nil {
		j.spec.FreePayload(j.spec.Payload)
	}

	m.mu.Lock()
	delete(m.jobs, j.ID())
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.JobFinished(j)
	}

	m.logger.Debug("job retired",
		"job_id", j.ID(),
		"status", status,
		"success", j.Success())
}
