package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// StatusOverlay shows the most recent significant line to the user.
type StatusOverlay interface {
	SetStatus(line string)
}

// StatusFunc adapts a function to StatusOverlay
type StatusFunc func(line string)

// SetStatus calls f
func (f StatusFunc) SetStatus(line string) { f(line) }

var statusStyle = lipgloss.NewStyle().Bold(true)

// WriterStatus prints status lines to a writer and remembers the last one.
type WriterStatus struct {
	mu     sync.Mutex
	w      io.Writer
	styled bool
	last   string
}

// NewWriterStatus creates an overlay over w. When styled is set the line
// is rendered bold.
func NewWriterStatus(w io.Writer, styled bool) *WriterStatus {
	return &WriterStatus{w: w, styled: styled}
}

// SetStatus replaces the current status line
func (s *WriterStatus) SetStatus(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = line
	if s.w == nil {
		return
	}
	out := strings.TrimRight(line, "\n")
	if s.styled {
		out = statusStyle.Render(out)
	}
	fmt.Fprintln(s.w, out)
}

// Last returns the current status line
func (s *WriterStatus) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
