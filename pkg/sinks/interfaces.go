package sinks

import (
	"time"

	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/pkg/types"
)

var (
	// ErrSinkClosed is returned when writing to a closed sink
	ErrSinkClosed = errors.New("sink closed")
	// ErrSinkPanic wraps a panic raised while writing to a sink
	ErrSinkPanic = errors.New("sink panicked")
)

// Entry is one formatted record handed to a sink.
type Entry struct {
	Time time.Time
	// Logger is the qualified name of the node that produced the record
	Logger  string
	Message string
}

// Sink is a destination for log lines. Each severity has its own entry
// point; callers pick one through Dispatch.
type Sink interface {
	// Name is the identity used for duplicate detection
	Name() string

	// Kind returns the sink variant
	Kind() types.SinkKind

	Debug(e Entry) error
	Info(e Entry) error
	Warning(e Entry) error
	Error(e Entry) error
	Critical(e Entry) error

	// Close releases the sink's resources. Writes after Close fail with
	// ErrSinkClosed.
	Close() error
}

// leveled implements the severity entry points on top of one write function.
type leveled struct {
	write func(level types.Level, e Entry) error
}

func (l leveled) Debug(e Entry) error    { return l.write(types.LevelDebug, e) }
func (l leveled) Info(e Entry) error     { return l.write(types.LevelInfo, e) }
func (l leveled) Warning(e Entry) error  { return l.write(types.LevelWarning, e) }
func (l leveled) Error(e Entry) error    { return l.write(types.LevelError, e) }
func (l leveled) Critical(e Entry) error { return l.write(types.LevelCritical, e) }
