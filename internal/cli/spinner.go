package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

// Spinner draws a progress line with the elapsed time to w until it is
// stopped or its context ends.
type Spinner struct {
	w       io.Writer
	message string
	start   time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	once    sync.Once

	mu      sync.Mutex
	started bool
	width   int // visible width of the last drawn line
}

// newSpinner creates a spinner for message. It stops by itself when ctx
// is cancelled.
func newSpinner(ctx context.Context, w io.Writer, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		message: message,
		start:   time.Now(),
		ctx:     spinnerCtx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start begins drawing in the background.
func (s *Spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()

		for i := 0; ; i++ {
			s.draw(spinnerFrames[i%len(spinnerFrames)])
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop ends the animation and clears the line. It may be called more than
// once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.stopped
		}
	})
}

// Elapsed returns the time since the spinner was created.
func (s *Spinner) Elapsed() time.Duration {
	return time.Since(s.start).Round(time.Millisecond)
}

// StopWithSuccess stops the spinner and prints a success line with the
// elapsed time.
func (s *Spinner) StopWithSuccess(format string, args ...any) {
	s.Stop()
	printSuccess("%s %s", fmt.Sprintf(format, args...), StyleDim.Render("("+s.Elapsed().String()+")"))
}

// StopWithWarning stops the spinner and prints a warning line.
func (s *Spinner) StopWithWarning(format string, args ...any) {
	s.Stop()
	printWarning(format, args...)
}

func (s *Spinner) draw(frame string) {
	line := fmt.Sprintf("%s %s %s",
		styleIconSpinner.Render(frame),
		StyleDim.Render(s.message+"..."),
		StyleDim.Render(time.Since(s.start).Truncate(time.Second).String()))

	s.mu.Lock()
	defer s.mu.Unlock()
	// Pad over a longer previous line.
	pad := max(0, s.width-lipgloss.Width(line))
	fmt.Fprintf(s.w, "\r%s%s", line, strings.Repeat(" ", pad))
	s.width = lipgloss.Width(line)
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
}
