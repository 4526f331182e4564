package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/phrazzld/imgbatch/internal/batch"
	"github.com/phrazzld/imgbatch/internal/config"
	"github.com/phrazzld/imgbatch/internal/events"
	"github.com/phrazzld/imgbatch/internal/job"
	"github.com/phrazzld/imgbatch/internal/platform/metrics"
	"github.com/phrazzld/imgbatch/internal/recovery"
	"github.com/phrazzld/imgbatch/internal/uiloop"
)

// Options customizes the terminal side of an App.
type Options struct {
	// In supplies answers to recovery questions. Defaults to os.Stdin.
	In io.Reader

	// Out receives prompts and progress. Defaults to os.Stderr.
	Out io.Writer

	// Presenter replaces the terminal presenter when set.
	Presenter recovery.Presenter
}

// Result is what the user sees once a batch job has finished.
type Result struct {
	Outcome batch.Outcome
	Counts  batch.Counts
	// Err is the job error, if any. It wraps job.ErrCanceled for canceled
	// batches.
	Err error
}

// App owns the UI loop goroutine, the job manager and the event pipeline.
type App struct {
	cfg       config.Config
	base      *slog.Logger
	logger    *slog.Logger
	out       io.Writer
	loop      *uiloop.Loop
	manager   *job.Manager
	emitter   *events.InMemoryEventEmitter
	collector *metrics.Collector
	presenter recovery.Presenter

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewApp wires the loop, the manager and the event handlers. Call Start
// before running batches.
func NewApp(cfg config.Config, opts Options, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stderr
	}

	loop := uiloop.New(logger)
	collector := metrics.NewCollector()

	manager := job.NewManager(loop, job.ManagerConfig{
		WorkerCount:       cfg.Jobs.WorkerCount,
		ProgressThreshold: cfg.Jobs.ProgressThreshold,
	}, logger)
	manager.SetObserver(collector)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewLogHandler(logger))
	emitter.RegisterHandler(collector)

	presenter := opts.Presenter
	if presenter == nil {
		presenter = NewTerminalPresenter(opts.In, opts.Out, logger)
	}

	return &App{
		cfg:       cfg,
		base:      logger,
		logger:    logger.With("component", "shell"),
		out:       opts.Out,
		loop:      loop,
		manager:   manager,
		emitter:   emitter,
		collector: collector,
		presenter: presenter,
	}
}

// Start runs the UI loop and the workers, and the metrics endpoint when one
// is configured. Everything stops on Close.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("ui loop stopped", "error", err)
		}
	}()

	a.manager.Start()

	if addr := a.cfg.Metrics.Addr; addr != "" {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			router := metrics.NewRouter(a.collector, a.base)
			if err := metrics.Serve(ctx, addr, router, a.base); err != nil {
				a.logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}
}

// Close cancels outstanding jobs, waits for the workers, then stops the loop.
func (a *App) Close() {
	if n := a.manager.CancelAll(); n > 0 {
		a.logger.Info("canceled outstanding jobs", "count", n)
	}
	a.manager.Close()
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
}

// Metrics returns the app's collector.
func (a *App) Metrics() *metrics.Collector {
	return a.collector
}

// RunBatch runs cfg as a job and waits for its finished callback. Canceling
// ctx cancels the job; RunBatch still waits for the callback so that the
// outcome reflects every item that was processed.
func RunBatch[T any](ctx context.Context, a *App, cfg batch.Config[T]) (Result, error) {
	view := NewTerminalProgress(a.out, cfg.Name, a.base)

	coord, err := batch.New(cfg, batch.Deps{
		Loop:      a.loop,
		Presenter: a.presenter,
		Emitter:   a.emitter,
		View:      view,
		Logger:    a.base,
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to create %s batch: %w", cfg.Name, err)
	}

	finished := make(chan Result, 1)
	spec := coord.JobSpec()
	spec.OnFinished = func(j *job.Job) {
		res := Result{
			Outcome: coord.Outcome(),
			Counts:  coord.Counts(),
			Err:     j.Err(),
		}
		a.closeView(view, res.Outcome, func() { finished <- res })
	}

	id, err := a.manager.Submit(spec)
	if err != nil {
		return Result{}, fmt.Errorf("failed to submit %s batch: %w", cfg.Name, err)
	}
	a.logger.Info("batch submitted", "job_id", id, "batch", cfg.Name, "items", len(cfg.Items))

	var res Result
	select {
	case res = <-finished:
	case <-ctx.Done():
		a.logger.Info("canceling batch", "job_id", id, "reason", ctx.Err())
		if _, err := a.manager.Cancel(id); err != nil && !errors.Is(err, job.ErrJobNotFound) {
			a.logger.Error("failed to cancel batch", "job_id", id, "error", err)
		}
		res = <-finished
	}

	a.logger.Info("batch finished",
		"job_id", id,
		"outcome", res.Outcome.String(),
		"saved", res.Counts.Saved,
		"skipped", res.Counts.Skipped,
		"not_attempted", res.Counts.NotAttempted)

	if res.Err != nil && !errors.Is(res.Err, job.ErrCanceled) {
		return res, fmt.Errorf("%s batch failed: %w", cfg.Name, res.Err)
	}
	return res, nil
}

// closeView applies the close policy: a complete batch keeps its progress
// visible for the configured delay, anything else closes at once. done runs
// on the loop after the view is closed.
func (a *App) closeView(view *TerminalProgress, outcome batch.Outcome, done func()) {
	delay := a.cfg.UI.SuccessCloseDelay
	if outcome != batch.Complete || delay <= 0 {
		view.Close()
		done()
		return
	}

	view.ShowProgress(1, "done")
	time.AfterFunc(delay, func() {
		a.loop.Defer(func() {
			view.Close()
			done()
		})
	})
}
