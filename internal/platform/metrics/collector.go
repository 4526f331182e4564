package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/imgbatch/internal/events"
	"github.com/phrazzld/imgbatch/internal/job"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "imgbatch"

// Collector records job and batch metrics in its own registry.
type Collector struct {
	registry *prometheus.Registry

	jobsSubmitted *prometheus.CounterVec
	jobsFinished  *prometheus.CounterVec
	jobsActive    prometheus.Gauge
	jobDuration   *prometheus.HistogramVec

	itemsTotal     *prometheus.CounterVec
	itemFailures   *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
	batchesTotal   *prometheus.CounterVec

	mu      sync.Mutex
	started map[uuid.UUID]time.Time
}

var (
	_ job.Observer        = (*Collector)(nil)
	_ events.EventHandler = (*Collector)(nil)
)

// NewCollector creates a Collector with every metric registered, plus the
// Go runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_submitted_total",
			Help:      "Jobs submitted to the job manager.",
		}, []string{"job"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Jobs whose finished callback ran, by final status.",
		}, []string{"job", "status", "success"}),
		jobsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Jobs submitted but not yet finished.",
		}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time from a job starting on a worker to its finished callback.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"job"}),
		itemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Batch items completed, by result.",
		}, []string{"operation", "result"}),
		itemFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_item_failures_total",
			Help:      "Failed item attempts that were sent to recovery.",
		}, []string{"operation"}),
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovery_decisions_total",
			Help:      "Recovery decisions, by kind.",
		}, []string{"operation", "decision"}),
		batchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Finished batches, by outcome.",
		}, []string{"operation", "outcome"}),
		started: make(map[uuid.UUID]time.Time),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.jobsSubmitted,
		c.jobsFinished,
		c.jobsActive,
		c.jobDuration,
		c.itemsTotal,
		c.itemFailures,
		c.decisionsTotal,
		c.batchesTotal,
	)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// JobSubmitted implements job.Observer.
func (c *Collector) JobSubmitted(j *job.Job) {
	c.jobsSubmitted.WithLabelValues(jobLabel(j)).Inc()
	c.jobsActive.Inc()
}

// JobStarted implements job.Observer.
func (c *Collector) JobStarted(j *job.Job) {
	c.mu.Lock()
	c.started[j.ID()] = time.Now()
	c.mu.Unlock()
}

// JobFinished implements job.Observer.
func (c *Collector) JobFinished(j *job.Job) {
	success := "false"
	if j.Success() {
		success = "true"
	}
	c.jobsFinished.WithLabelValues(jobLabel(j), string(j.Status()), success).Inc()
	c.jobsActive.Dec()

	c.mu.Lock()
	start, ok := c.started[j.ID()]
	delete(c.started, j.ID())
	c.mu.Unlock()

	// jobs canceled while pending never started
	if ok {
		c.jobDuration.WithLabelValues(jobLabel(j)).Observe(time.Since(start).Seconds())
	}
}

// HandleEvent implements events.EventHandler.
func (c *Collector) HandleEvent(_ context.Context, e *events.BatchEvent) error {
	switch e.Type {
	case events.ItemCompleted:
		c.itemsTotal.WithLabelValues(e.Operation, e.Result).Inc()
	case events.ItemFailed:
		c.itemFailures.WithLabelValues(e.Operation).Inc()
	case events.DecisionMade:
		c.decisionsTotal.WithLabelValues(e.Operation, e.Decision).Inc()
	case events.BatchFinished:
		c.batchesTotal.WithLabelValues(e.Operation, e.Result).Inc()
	}
	return nil
}

func jobLabel(j *job.Job) string {
	if j.Name() == "" {
		return "unnamed"
	}
	return j.Name()
}
