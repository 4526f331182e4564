package shell

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/phrazzld/imgbatch/internal/recovery"
)

// TerminalPresenter asks recovery questions on a terminal. Present only
// prints the prompt; answers are read by a separate goroutine, so the UI
// loop keeps running while the user thinks.
type TerminalPresenter struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	readOnce sync.Once

	mu      sync.Mutex
	current *recovery.Request
	eof     bool
}

var _ recovery.Presenter = (*TerminalPresenter)(nil)

// NewTerminalPresenter creates a presenter reading answers from in and
// writing prompts to out. Input is not touched until the first question.
func NewTerminalPresenter(in io.Reader, out io.Writer, logger *slog.Logger) *TerminalPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TerminalPresenter{
		in:     in,
		out:    out,
		logger: logger.With("component", "terminal_presenter"),
	}
}

// Present implements recovery.Presenter.
func (p *TerminalPresenter) Present(req *recovery.Request) recovery.Decision {
	p.mu.Lock()
	if p.eof {
		p.mu.Unlock()
		p.logger.Warn("no more input, canceling batch", "item", req.Item)
		return recovery.Cancel
	}
	p.current = req
	p.mu.Unlock()

	p.prompt(req)
	p.readOnce.Do(func() { go p.readAnswers() })
	return recovery.Undecided
}

func (p *TerminalPresenter) prompt(req *recovery.Request) {
	choices := make([]string, 0, len(req.Options))
	for _, d := range req.Options {
		choices = append(choices, fmt.Sprintf("[%c]%s", d.String()[0], d.String()[1:]))
	}
	_, _ = fmt.Fprintf(p.out, "\n%s\n%s? ", req.Message(), strings.Join(choices, " "))
}

// readAnswers feeds input lines to the open request. Lines typed while no
// question is open are dropped.
func (p *TerminalPresenter) readAnswers() {
	scanner := bufio.NewScanner(p.in)
	for scanner.Scan() {
		line := scanner.Text()

		p.mu.Lock()
		req := p.current
		p.mu.Unlock()

		if req == nil || !req.Pending() {
			p.logger.Debug("ignoring input with no open question", "input", line)
			continue
		}

		d, ok := parseAnswer(line)
		if !ok || !req.Offers(d) {
			_, _ = fmt.Fprintf(p.out, "please answer one of %s: ", optionNames(req.Options))
			continue
		}

		p.clear(req)
		req.Respond(d)
	}
	if err := scanner.Err(); err != nil {
		p.logger.Error("failed to read answers", "error", err)
	}

	p.mu.Lock()
	p.eof = true
	req := p.current
	p.current = nil
	p.mu.Unlock()

	if req != nil && req.Respond(recovery.Cancel) {
		p.logger.Warn("input closed while a question was open, canceling batch", "item", req.Item)
	}
}

func (p *TerminalPresenter) clear(req *recovery.Request) {
	p.mu.Lock()
	if p.current == req {
		p.current = nil
	}
	p.mu.Unlock()
}

// parseAnswer accepts a decision name or its first letter.
func parseAnswer(line string) (recovery.Decision, bool) {
	answer := strings.ToLower(strings.TrimSpace(line))
	switch answer {
	case "r":
		return recovery.Retry, true
	case "s":
		return recovery.Skip, true
	case "o":
		return recovery.Overwrite, true
	case "c":
		return recovery.Cancel, true
	}
	return recovery.ParseDecision(answer)
}

func optionNames(options []recovery.Decision) string {
	names := make([]string, len(options))
	for i, d := range options {
		names[i] = d.String()
	}
	return strings.Join(names, ", ")
}
