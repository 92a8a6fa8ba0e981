// Package logger implements the component that owns one hierarchical
// logger node: it enriches records with call-site and frame context, routes
// them to the node's sinks, the status overlay, the remote sink and the host
// callbacks, buffers them while the node is not live, and turns
// configuration changes into node and sink operations.
//
// Basic usage:
//
//	cfg := logger.DefaultConfig()
//	cfg.Name = "App"
//	cfg.Active = true
//	cfg.LogToFile = true
//
//	l, err := logger.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer l.Close()
//
//	l.Info("started", port)
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/internal/metrics"
	"github.com/artcraftzone/hierlog/internal/utils"
	"github.com/artcraftzone/hierlog/pkg/formatters"
	"github.com/artcraftzone/hierlog/pkg/registry"
	"github.com/artcraftzone/hierlog/pkg/remote"
	"github.com/artcraftzone/hierlog/pkg/sinks"
	"github.com/artcraftzone/hierlog/pkg/types"
)

// callerDepth is the distance from log to the user's call
const callerDepth = 2

// FrameSource supplies the frame counters attached to each item
type FrameSource interface {
	AbsoluteFrame() int64
	Frame() int64
}

// Logger is one logging component. All methods are safe for concurrent use.
type Logger struct {
	mu sync.Mutex

	cfg         Config
	registry    *registry.Registry
	node        *registry.Node
	baseName    string
	logFilePath string

	queue      *StartupQueue
	status     StatusOverlay
	callbacks  *Callbacks
	frames     FrameSource
	metrics    *metrics.Collector
	controller *Controller

	transport      remote.Transport
	remoteSink     *remote.Sink
	remoteFallback io.Writer

	errorHandler ErrorHandler
	console      io.Writer
	now          func() time.Time
	pid          int

	// items logged under the lock, announced to callbacks after unlocking
	pending []*types.LogItem
}

// New creates a logger from cfg. When cfg.Active is set the node is
// created and the sinks attached before New returns.
func New(cfg Config, opts ...Option) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid logger config")
	}
	cfg.ApplyEnv()

	active := cfg.Active
	cfg.Active = false

	l := &Logger{
		cfg:          cfg,
		registry:     registry.Default(),
		metrics:      metrics.NewCollector(),
		errorHandler: defaultErrorHandler(),
		console:      os.Stderr,
		now:          time.Now,
		pid:          os.Getpid(),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	if err := l.cfg.requireEndpoint(l.transport != nil); err != nil {
		return nil, errors.Wrap(err, "invalid logger config")
	}

	if l.frames == nil {
		l.frames = utils.NewFrameClock(cfg.FrameRate)
	}
	if l.callbacks == nil {
		l.callbacks = NewCallbacks()
	}
	if l.callbacks.onPanic == nil {
		l.callbacks.onPanic = func(event string, err error) {
			l.reportError("callback", event, "handler failed", err, ErrorLevelLow)
		}
	}

	l.queue = NewStartupQueue(cfg.QueueCapacity)
	l.queue.onDrop = func(QueueEntry) { l.metrics.TrackDropped() }
	l.queue.onPanic = func(e QueueEntry, r interface{}) {
		l.reportError("flush", "queue", e.String(), errors.Errorf("dispatch panic: %v", r), ErrorLevelMedium)
	}

	l.controller = &Controller{l: l}
	l.baseName = l.fileBaseName()

	if cfg.Remote.Enabled {
		l.mu.Lock()
		if err := l.buildRemoteLocked(); err != nil {
			l.reportError("remote", cfg.Remote.URL, "transport setup failed", err, ErrorLevelHigh)
		}
		l.mu.Unlock()
	}

	if active {
		l.controller.OnActiveChange(false, true)
	}
	return l, nil
}

// unlock releases the mutex and then runs the callbacks of the items
// logged while it was held, so a callback may log again.
func (l *Logger) unlock() {
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, item := range pending {
		l.callbacks.Notify(EventMessageLogged, item)
	}
}

// Log records the arguments at level. Arguments are joined with " - ".
func (l *Logger) Log(level types.Level, args ...interface{}) {
	l.log(level, args)
}

// Debug logs at DEBUG
func (l *Logger) Debug(args ...interface{}) {
	l.log(types.LevelDebug, args)
}

// Info logs at INFO
func (l *Logger) Info(args ...interface{}) {
	l.log(types.LevelInfo, args)
}

// Warning logs at WARNING
func (l *Logger) Warning(args ...interface{}) {
	l.log(types.LevelWarning, args)
}

// Error logs at ERROR
func (l *Logger) Error(args ...interface{}) {
	l.log(types.LevelError, args)
}

// Critical logs at CRITICAL
func (l *Logger) Critical(args ...interface{}) {
	l.log(types.LevelCritical, args)
}

func (l *Logger) log(level types.Level, args []interface{}) {
	if !level.Valid() {
		l.reportError("log", "", "record dropped",
			errors.Wrapf(types.ErrUnknownLevel, "level %d", int(level)), ErrorLevelLow)
		return
	}

	message := formatters.JoinArgs(args...)
	site := utils.Locate(callerDepth)
	abs, frame := l.frames.AbsoluteFrame(), l.frames.Frame()

	l.mu.Lock()
	defer l.unlock()

	if !l.cfg.IncludeCallSite {
		site = nil
	}
	l.process(level, message, site, abs, frame)
}

// process routes one record. Callers hold the mutex.
func (l *Logger) process(level types.Level, message string, site *types.CallSite, abs, frame int64) {
	if !l.activeLocked() {
		l.enqueue(level, message, site, abs, frame)
		return
	}

	l.flushLocked()

	item := &types.LogItem{
		Message:   message,
		Level:     level,
		Source:    l.source(),
		CallSite:  site,
		AbsFrame:  abs,
		Frame:     frame,
		ExtraInfo: formatters.ExtraInfo(site, abs, frame),
		Logger:    l.node.QualifiedName(),
		Time:      l.now(),
	}
	l.metrics.TrackMessageLogged(level.String())

	entry := sinks.Entry{Time: item.Time, Logger: item.Logger, Message: formatters.ItemLine(item)}
	if err := l.node.Emit(level, entry); err != nil {
		l.metrics.TrackDispatchFailure()
		l.enqueue(types.LevelError,
			fmt.Sprintf("An error occurred while trying to log with sinks. %v.", err), nil, abs, frame)
		l.enqueue(level, message, site, abs, frame)
	}

	if level.AtLeast(l.cfg.Level) {
		if l.cfg.LogToStatus && l.status != nil {
			l.status.SetStatus(formatters.StatusLine(item))
		}
		if l.cfg.Remote.Enabled && l.remoteSink != nil {
			l.remoteSink.Send(context.Background(), l.cfg.Name, item, l.identity())
		}
	}

	l.pending = append(l.pending, item)
}

func (l *Logger) enqueue(level types.Level, message string, site *types.CallSite, abs, frame int64) {
	l.queue.Enqueue(QueueEntry{
		Level:   level,
		Message: message,
		Dispatch: func(m string) {
			l.process(level, m, site, abs, frame)
		},
	})
	l.metrics.TrackQueued()
}

// logf routes a message produced by the logger itself. Callers hold the mutex.
func (l *Logger) logf(level types.Level, format string, args ...interface{}) {
	l.process(level, fmt.Sprintf(format, args...), nil, l.frames.AbsoluteFrame(), l.frames.Frame())
}

// enqueuef queues a message produced by the logger itself
func (l *Logger) enqueuef(level types.Level, format string, args ...interface{}) {
	l.enqueue(level, fmt.Sprintf(format, args...), nil, l.frames.AbsoluteFrame(), l.frames.Frame())
}

func (l *Logger) flushLocked() {
	for n := l.queue.Flush(); n > 0; n-- {
		l.metrics.TrackFlushed()
	}
}

// Flush delivers the startup queue if the logger is active
func (l *Logger) Flush() {
	l.mu.Lock()
	defer l.unlock()

	if l.activeLocked() {
		l.flushLocked()
	}
}

func (l *Logger) activeLocked() bool {
	return l.node != nil && l.node.Active()
}

// source is the origin, prefixed with the process id when the id is not
// already part of the file name
func (l *Logger) source() string {
	if l.cfg.AddPIDToFilename {
		return l.cfg.Origin
	}
	prefix := "PID:" + strconv.Itoa(l.pid)
	if l.cfg.Origin == "" {
		return prefix
	}
	return prefix + " - " + l.cfg.Origin
}

func (l *Logger) identity() types.Identity {
	id := types.Identity{DeviceID: l.cfg.Remote.DeviceID, UserID: l.cfg.Remote.UserID}
	if id.DeviceID == "" {
		id.DeviceID = l.cfg.ProjectName
	}
	return id
}

// Active reports whether the logger has a live node
func (l *Logger) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeLocked()
}

// SetActive activates or deactivates the logger
func (l *Logger) SetActive(active bool) {
	l.mu.Lock()
	prev := l.cfg.Active
	l.mu.Unlock()
	l.controller.OnActiveChange(prev, active)
}

// Name returns the logger's leaf name
func (l *Logger) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg.Name
}

// QualifiedName returns the node's qualified name, or "" when inactive
func (l *Logger) QualifiedName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.node == nil {
		return ""
	}
	return l.node.QualifiedName()
}

// Node returns the live node, or nil
func (l *Logger) Node() *registry.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.node
}

// Config returns a copy of the current configuration
func (l *Logger) Config() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cfg
}

// Controller returns the reconfiguration controller
func (l *Logger) Controller() *Controller {
	return l.controller
}

// Callbacks returns the host hook
func (l *Logger) Callbacks() *Callbacks {
	return l.callbacks
}

// Metrics returns the metrics collector
func (l *Logger) Metrics() *metrics.Collector {
	return l.metrics
}

// QueueLen returns the number of records waiting in the startup queue
func (l *Logger) QueueLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

// RemoteState returns the state of the remote sink, StateIdle when none
func (l *Logger) RemoteState() remote.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.remoteSink == nil {
		return remote.StateIdle
	}
	return l.remoteSink.State()
}

// Health probes the remote ingestion service
func (l *Logger) Health(ctx context.Context) (remote.HealthStatus, error) {
	l.mu.Lock()
	if err := l.buildRemoteLocked(); err != nil {
		l.mu.Unlock()
		return remote.HealthStatus{}, err
	}
	s := l.remoteSink
	l.mu.Unlock()

	return s.Health(ctx)
}

// Close deactivates the logger and releases the remote transport
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.unlock()

	var firstErr error
	if l.node != nil {
		if err := l.destroyNodeLocked(); err != nil {
			firstErr = err
		}
	}
	l.cfg.Active = false
	if err := l.closeRemoteLocked(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
