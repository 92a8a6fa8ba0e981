package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/pkg/formatters"
	"github.com/artcraftzone/hierlog/pkg/registry"
	"github.com/artcraftzone/hierlog/pkg/remote"
	"github.com/artcraftzone/hierlog/pkg/sinks"
	"github.com/artcraftzone/hierlog/pkg/types"
)

// activateLocked fills in a missing name or folder, then creates the node.
func (l *Logger) activateLocked() {
	if l.cfg.Name == "" {
		l.cfg.Name = l.cfg.Origin
		if l.cfg.Name == "" {
			l.cfg.Name = DefaultName
		}
		l.baseName = l.fileBaseName()
		l.enqueuef(types.LevelWarning, "No name was provided for logger, name was set to %s.", l.cfg.Name)
	}
	if l.cfg.LogFolder == "" {
		l.cfg.LogFolder = filepath.Join(l.cfg.ProjectFolder, LogsDir)
		l.enqueuef(types.LevelWarning, "No folder was provided for logger, folder was set to %s.", l.cfg.LogFolder)
	}

	if r, ok := l.frames.(interface{ Reset() }); ok {
		r.Reset()
	}
	l.initNodeLocked()
}

// initNodeLocked creates or re-uses the node, applies level and propagation,
// attaches the configured sinks and announces the topology.
func (l *Logger) initNodeLocked() {
	parent := l.resolveParentLocked()

	node := l.registry.CreateOrGet(l.cfg.Name, parent)
	node.SetThreshold(l.cfg.Level)
	node.SetPropagate(l.cfg.Propagate)
	node.SetActive(true)
	l.node = node

	if l.cfg.LogToConsole && len(node.Sinks().FindByKind(types.KindConsole)) == 0 {
		l.createConsoleSinkLocked()
	}
	if l.cfg.LogToFile && len(node.Sinks().FindByKind(types.KindRotatingFile)) == 0 {
		l.ensureFolderLocked()
		l.createFileSinkLocked()
	}

	if parent == nil {
		l.logf(types.LevelInfo, "The logger %s is a root logger.", node.QualifiedName())
	} else {
		l.logf(types.LevelInfo, "The logger %s was setup with a parent %s. %s will inherit from parent.",
			node.QualifiedName(), parent.QualifiedName(), node.QualifiedName())
	}

	l.refreshLogFilePath()
}

func (l *Logger) resolveParentLocked() *registry.Node {
	if l.cfg.Role == RoleApp || l.cfg.Parent == "" {
		return nil
	}
	parent, ok := l.registry.Get(l.cfg.Parent)
	if !ok || !parent.Active() {
		l.enqueuef(types.LevelWarning, "The parent logger %s is not active, %s will be a root logger.", l.cfg.Parent, l.cfg.Name)
		return nil
	}
	return parent
}

// destroyNodeLocked tears the node down and frees its qualified name
func (l *Logger) destroyNodeLocked() error {
	if l.node == nil {
		return nil
	}
	name := l.node.QualifiedName()
	l.node = nil
	l.logFilePath = ""

	if err := l.registry.Destroy(name); err != nil && !errors.Is(err, registry.ErrNodeNotFound) {
		l.reportError("destroy", name, "closing sinks failed", err, ErrorLevelMedium)
		return err
	}
	return nil
}

func (l *Logger) createConsoleSinkLocked() {
	l.node.Sinks().Add(sinks.NewConsole(
		sinks.WithWriter(l.console),
		sinks.WithColor(sinks.ParseColorMode(l.cfg.Color)),
	))
}

func (l *Logger) removeConsoleSinksLocked() {
	if err := l.node.Sinks().RemoveByKind(types.KindConsole); err != nil {
		l.reportError("remove", sinks.ConsoleName, "closing console sink failed", err, ErrorLevelLow)
	}
}

// ensureFolderLocked creates the log folder. The file sink never creates
// directories itself.
func (l *Logger) ensureFolderLocked() {
	if err := os.MkdirAll(l.cfg.LogFolder, 0755); err != nil {
		l.reportError("mkdir", l.cfg.LogFolder, "cannot create log folder", err, ErrorLevelHigh)
	}
}

func (l *Logger) createFileSinkLocked() {
	path := l.fileSinkPath()
	file, err := sinks.NewRotatingFile(path, l.cfg.FileRotation,
		sinks.WithName(l.baseName),
		sinks.WithEventHandler(l.metrics.TrackEvent),
		sinks.WithWriteHandler(l.metrics.TrackWrite),
		sinks.WithFileErrorHandler(func(source, dest, msg string, err error) {
			l.reportError(source, dest, msg, err, ErrorLevelMedium)
		}),
	)
	if err != nil {
		l.reportError("open", path, "cannot create file sink", err, ErrorLevelHigh)
		return
	}
	l.node.Sinks().Add(file)
}

func (l *Logger) removeFileSinksLocked() {
	if err := l.node.Sinks().RemoveByKind(types.KindRotatingFile); err != nil {
		l.reportError("remove", l.baseName, "closing file sink failed", err, ErrorLevelLow)
	}
}

func (l *Logger) hasFileSinkLocked() bool {
	return l.node != nil && len(l.node.Sinks().FindByKind(types.KindRotatingFile)) > 0
}

// fileBaseName is "{project}_{name}", or "{project}_{pid}_{name}" when the
// process id goes in the file name.
func (l *Logger) fileBaseName() string {
	project := l.cfg.ProjectName
	if i := strings.Index(project, "."); i > 0 {
		project = project[:i]
	}
	if l.cfg.AddPIDToFilename {
		return project + "_" + strconv.Itoa(l.pid) + "_" + l.cfg.Name
	}
	return project + "_" + l.cfg.Name
}

func (l *Logger) fileSinkPath() string {
	return filepath.Join(l.cfg.LogFolder, l.baseName+".log")
}

// refreshLogFilePath recomputes the effective log file: the node's own file
// sink when logging to file, otherwise the nearest ancestor's.
func (l *Logger) refreshLogFilePath() {
	if l.node == nil {
		l.logFilePath = ""
		return
	}

	if l.cfg.LogToFile {
		files := l.node.Sinks().FindByKind(types.KindRotatingFile)
		switch {
		case len(files) == 0:
			l.logFilePath = ""
			l.logf(types.LevelWarning, "%s has no file sink.", l.node.QualifiedName())
			return
		case len(files) > 1:
			l.logf(types.LevelWarning, "%s has more than 1 file sink, this could cause unexpected behaviors.",
				l.node.QualifiedName())
		}
		if file, ok := files[0].(*sinks.RotatingFile); ok {
			l.logFilePath = file.Path()
		}
		return
	}

	l.logFilePath = ""
	if parent := l.node.Parent(); parent != nil {
		if file, _ := parent.FindFileSink(); file != nil {
			l.logFilePath = file.Path()
		}
	}
}

// LogFilePath returns the file this logger's records end up in, or "" when
// neither the node nor an ancestor writes to a file
func (l *Logger) LogFilePath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.logFilePath
}

// LogFolderPath returns the folder holding the effective log file, or the
// configured folder when there is none
func (l *Logger) LogFolderPath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFilePath == "" {
		return l.cfg.LogFolder
	}
	return filepath.Dir(l.logFilePath)
}

// FileBaseName returns the file name without folder and extension
func (l *Logger) FileBaseName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.baseName
}

// ClearSinks detaches and closes every sink of the node
func (l *Logger) ClearSinks() error {
	l.mu.Lock()
	defer l.unlock()

	if l.node == nil {
		return nil
	}
	err := l.node.Sinks().Clear()
	l.refreshLogFilePath()
	return err
}

// buildRemoteLocked creates the remote sink if there is none
func (l *Logger) buildRemoteLocked() error {
	if l.remoteSink != nil {
		return nil
	}

	t := l.transport
	if t == nil {
		var err error
		t, err = remote.NewTransport(l.cfg.Remote.transportConfig())
		if err != nil {
			return errors.Wrap(err, "remote transport")
		}
	}

	opts := []remote.SinkOption{
		remote.WithReporter(l.reportRemoteFailure),
		remote.WithMetrics(l.metrics),
		remote.WithSendTimeout(l.cfg.Remote.Timeout),
	}
	if l.remoteFallback != nil {
		opts = append(opts, remote.WithFallback(l.remoteFallback))
	}
	l.remoteSink = remote.NewSink(t, opts...)
	return nil
}

// closeRemoteLocked drops the remote sink. An injected transport is left open.
func (l *Logger) closeRemoteLocked() error {
	if l.remoteSink == nil {
		return nil
	}
	s := l.remoteSink
	l.remoteSink = nil
	if l.transport != nil {
		return nil
	}
	return s.Close()
}

// reportRemoteFailure writes a delivery failure to the node's sinks only.
// It runs under the logger mutex, so it must not go through process.
func (l *Logger) reportRemoteFailure(f remote.Failure) {
	if l.node == nil {
		fallback := l.remoteFallback
		if fallback == nil {
			fallback = os.Stderr
		}
		fmt.Fprintln(fallback, f.Message())
		return
	}
	item := &types.LogItem{Source: l.source(), Message: f.Message()}
	entry := sinks.Entry{Time: l.now(), Logger: l.node.QualifiedName(), Message: formatters.ItemLine(item)}
	if err := l.node.Emit(types.LevelWarning, entry); err != nil {
		l.reportError("report", "sinks", f.Message(), err, ErrorLevelMedium)
	}
}
