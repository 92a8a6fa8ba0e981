package logger

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/internal/metrics"
	"github.com/artcraftzone/hierlog/pkg/registry"
	"github.com/artcraftzone/hierlog/pkg/remote"
)

// Option is a functional option for configuring a Logger
type Option func(*Logger) error

// WithRegistry sets the node registry. The default is registry.Default().
func WithRegistry(r *registry.Registry) Option {
	return func(l *Logger) error {
		if r == nil {
			return errors.New("registry cannot be nil")
		}
		l.registry = r
		return nil
	}
}

// WithStatus sets the status overlay
func WithStatus(s StatusOverlay) Option {
	return func(l *Logger) error {
		l.status = s
		return nil
	}
}

// WithCallbacks shares a callback hook between loggers
func WithCallbacks(c *Callbacks) Option {
	return func(l *Logger) error {
		if c == nil {
			return errors.New("callbacks cannot be nil")
		}
		l.callbacks = c
		return nil
	}
}

// WithFrameSource sets the frame counters attached to every item
func WithFrameSource(f FrameSource) Option {
	return func(l *Logger) error {
		if f == nil {
			return errors.New("frame source cannot be nil")
		}
		l.frames = f
		return nil
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(c *metrics.Collector) Option {
	return func(l *Logger) error {
		if c == nil {
			return errors.New("metrics collector cannot be nil")
		}
		l.metrics = c
		return nil
	}
}

// WithErrorHandler sets the handler for internal failures
func WithErrorHandler(h ErrorHandler) Option {
	return func(l *Logger) error {
		l.errorHandler = h
		return nil
	}
}

// WithConsoleWriter sets the stream used by console sinks
func WithConsoleWriter(w io.Writer) Option {
	return func(l *Logger) error {
		l.console = w
		return nil
	}
}

// WithTransport supplies the remote transport instead of building one
// from the configuration.
func WithTransport(t remote.Transport) Option {
	return func(l *Logger) error {
		l.transport = t
		return nil
	}
}

// WithRemoteFallback sets the writer used for remote failures that cannot
// be reported through the sinks
func WithRemoteFallback(w io.Writer) Option {
	return func(l *Logger) error {
		l.remoteFallback = w
		return nil
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(l *Logger) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		l.now = now
		return nil
	}
}

// WithPID overrides the process id used in file names and sources
func WithPID(pid int) Option {
	return func(l *Logger) error {
		l.pid = pid
		return nil
	}
}
