package sinks

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/pkg/formatters"
	"github.com/artcraftzone/hierlog/pkg/types"
)

// ConsoleName is the identity of console sinks.
const ConsoleName = "console"

// ColorMode selects when the console colours level names.
type ColorMode int

const (
	// ColorAuto colours only when the output is a terminal
	ColorAuto ColorMode = iota
	// ColorAlways always colours
	ColorAlways
	// ColorNever never colours
	ColorNever
)

// ParseColorMode converts "auto", "always" or "never". Anything else is auto.
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Console writes formatted lines to a live output stream, stderr by default.
type Console struct {
	leveled
	mu        sync.Mutex
	out       io.Writer
	formatter *formatters.LineFormatter
	closed    bool
}

// ConsoleOption configures a Console
type ConsoleOption func(*Console)

// WithWriter sets the output stream
func WithWriter(w io.Writer) ConsoleOption {
	return func(c *Console) {
		if w != nil {
			c.out = w
		}
	}
}

// WithColor sets the colour mode
func WithColor(mode ColorMode) ConsoleOption {
	return func(c *Console) {
		c.formatter.Options.Color = useColor(mode, c.out)
	}
}

// NewConsole creates a console sink. Options are applied in order, so
// WithWriter must come before WithColor when both are given.
func NewConsole(opts ...ConsoleOption) *Console {
	c := &Console{
		out:       os.Stderr,
		formatter: formatters.NewLineFormatter(),
	}
	c.leveled = leveled{write: c.write}
	c.formatter.Options.Color = useColor(ColorAuto, c.out)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

func useColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Name implements Sink
func (c *Console) Name() string { return ConsoleName }

// Kind implements Sink
func (c *Console) Kind() types.SinkKind { return types.KindConsole }

func (c *Console) write(level types.Level, e Entry) error {
	line := c.formatter.Format(e.Time, level, e.Logger, e.Message)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrSinkClosed
	}
	if _, err := c.out.Write(line); err != nil {
		return errors.Wrap(err, "console write")
	}
	return nil
}

// Close implements Sink. The underlying stream is not closed.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
