package job

import (
	"fmt"
	"log/slog"
	"sync"
)

// Queue holds pending jobs in priority order. High-priority jobs are pushed
// to the head, normal ones appended to the tail. Pop blocks until a job is
// available or the queue is closed.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []*Job
	logger *slog.Logger
	closed bool
}

// NewQueue creates an empty, open queue
func NewQueue(logger *slog.Logger) *Queue {
	q := &Queue{
		logger: logger,
		closed: false,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push adds a job to the queue according to its priority.
// Returns ErrQueueClosed once Close has been called.
func (q *Queue) Push(j *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("%w: job %s", ErrQueueClosed, j.ID())
	}

	if j.Priority() == PriorityHigh {
		q.jobs = append([]*Job{j}, q.jobs...)
	} else {
		q.jobs = append(q.jobs, j)
	}

	q.logger.Debug("job enqueued",
		"job_id", j.ID(),
		"priority", j.Priority().String(),
		"queue_len", len(q.jobs))

	q.cond.Signal()
	return nil
}

// Pop removes and returns the job at the head of the queue, waiting for one
// if the queue is empty. The second result is false once the queue is closed.
func (q *Queue) Pop() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.jobs) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return nil, false
	}

	j := q.jobs[0]
	q.jobs[0] = nil
	q.jobs = q.jobs[1:]
	return j, true
}

// Remove takes a specific job out of the queue. It returns false if the job
// was not queued (already popped, or never pushed).
func (q *Queue) Remove(j *Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, queued := range q.jobs {
		if queued == j {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Close wakes every blocked Pop and rejects further pushes. Jobs still queued
// are dropped from the queue; the manager is responsible for canceling them.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		q.jobs = nil
		q.cond.Broadcast()
		q.logger.Info("job queue closed")
	}
}
