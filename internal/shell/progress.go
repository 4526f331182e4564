package shell

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/imgbatch/internal/batch"
	"github.com/schollz/progressbar/v3"
)

// progressSteps is the bar resolution; fractions are scaled onto it.
const progressSteps = 1000

// TerminalProgress draws batch progress as a terminal progress bar.
type TerminalProgress struct {
	bar    *progressbar.ProgressBar
	logger *slog.Logger

	mu       sync.Mutex
	fraction float64
	caption  string
	closed   bool
}

var _ batch.ProgressView = (*TerminalProgress)(nil)

// NewTerminalProgress creates a bar labeled with the batch name.
func NewTerminalProgress(w io.Writer, name string, logger *slog.Logger) *TerminalProgress {
	if logger == nil {
		logger = slog.Default()
	}
	bar := progressbar.NewOptions(progressSteps,
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetPredictTime(false),
	)
	return &TerminalProgress{
		bar:     bar,
		logger:  logger.With("component", "progress"),
		caption: name,
	}
}

// ShowProgress implements batch.ProgressView.
func (p *TerminalProgress) ShowProgress(fraction float64, caption string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.fraction = fraction
	p.caption = caption
	p.bar.Describe(caption)
	if err := p.bar.Set(int(fraction * progressSteps)); err != nil {
		p.logger.Debug("failed to draw progress", "error", err)
	}
}

// Fraction returns the last fraction shown.
func (p *TerminalProgress) Fraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fraction
}

// Caption returns the last caption shown.
func (p *TerminalProgress) Caption() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.caption
}

// Close removes the bar. Later progress updates are ignored.
func (p *TerminalProgress) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if err := p.bar.Clear(); err != nil {
		p.logger.Debug("failed to clear progress", "error", err)
	}
}

// Closed reports whether Close has been called.
func (p *TerminalProgress) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
