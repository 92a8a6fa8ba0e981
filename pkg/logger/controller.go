package logger

import (
	"context"

	"github.com/artcraftzone/hierlog/pkg/types"
)

// Controller turns configuration changes into node and sink operations.
// Each method receives the previous and the new value of one field.
type Controller struct {
	l *Logger
}

// OnActiveChange creates the node when the logger becomes active and
// destroys it when it stops being active.
func (c *Controller) OnActiveChange(prev, next bool) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.cfg.Active = next
	if next {
		if !l.activeLocked() {
			l.activateLocked()
		}
		l.flushLocked()
		return
	}
	if prev {
		l.destroyNodeLocked()
	}
}

// OnParentChange moves the node under a new parent
func (c *Controller) OnParentChange(prev, next string) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.cfg.Parent = next
	if l.cfg.Role == RoleApp {
		l.cfg.Parent = ""
	}
	if l.node != nil {
		l.destroyNodeLocked()
	}
	if l.cfg.Active {
		l.activateLocked()
	}
	l.refreshLogFilePath()
}

// OnPropagateChange sets whether records reach the ancestors' sinks
func (c *Controller) OnPropagateChange(prev, next bool) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.cfg.Propagate = next
	if l.node != nil {
		l.node.SetPropagate(next)
	}
	if prev != next {
		l.refreshLogFilePath()
	}
}

// OnOriginChange sets the source of future items
func (c *Controller) OnOriginChange(prev, next string) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.cfg.Origin = next
}

// OnLevelChange sets the node threshold
func (c *Controller) OnLevelChange(prev, next types.Level) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	if !next.Valid() && next != types.LevelNotSet {
		l.reportError("level", l.cfg.Name, "unknown level ignored", types.ErrUnknownLevel, ErrorLevelLow)
		return
	}
	l.cfg.Level = next
	if l.node != nil {
		l.node.SetThreshold(next)
	}
}

// OnLogAppErrorsChange records the change of the application error flag
func (c *Controller) OnLogAppErrorsChange(prev, next bool) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.cfg.LogAppErrors = next
	l.logf(types.LevelInfo, "Log app errors was changed from %t to %t", prev, next)
}

// OnNameChange renames the logger. The old node is destroyed and, when
// active, a new one is created under the new name.
func (c *Controller) OnNameChange(prev, next string) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.logf(types.LevelInfo, "Logger name will be changed from %s to %s", prev, next)
	if l.node != nil {
		l.destroyNodeLocked()
	}
	l.cfg.Name = next
	l.baseName = l.fileBaseName()
	if l.cfg.Active {
		l.activateLocked()
	}
}

// OnLogToConsoleChange attaches or removes the console sink
func (c *Controller) OnLogToConsoleChange(prev, next bool) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.cfg.LogToConsole = next
	if l.node == nil {
		return
	}
	if next {
		l.removeConsoleSinksLocked()
		l.createConsoleSinkLocked()
	} else if prev {
		l.removeConsoleSinksLocked()
	}
}

// OnLogToStatusChange turns the status overlay on or off
func (c *Controller) OnLogToStatusChange(prev, next bool) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.cfg.LogToStatus = next
}

// OnLogToFileChange attaches or removes the file sink. Turning it on
// replaces any existing file sink, so repeated toggles leave at most one.
func (c *Controller) OnLogToFileChange(prev, next bool) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.cfg.LogToFile = next
	if l.node == nil {
		l.refreshLogFilePath()
		return
	}
	if next {
		l.removeFileSinksLocked()
		l.ensureFolderLocked()
		l.createFileSinkLocked()
	} else if prev {
		l.removeFileSinksLocked()
	}
	l.refreshLogFilePath()
}

// OnLogFolderChange sets the folder. While logging to file the new folder
// takes effect on the next file toggle; otherwise the file sink is
// recreated in the new folder.
func (c *Controller) OnLogFolderChange(prev, next string) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	if prev == next {
		return
	}
	l.cfg.LogFolder = next
	if l.cfg.LogToFile || l.node == nil {
		return
	}
	l.removeFileSinksLocked()
	l.ensureFolderLocked()
	l.createFileSinkLocked()
	l.refreshLogFilePath()
}

// OnFileRotationChange recreates the file sink with the new backup count
func (c *Controller) OnFileRotationChange(prev, next int) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	if next < 0 {
		next = 0
	}
	l.cfg.FileRotation = next
	if !l.hasFileSinkLocked() {
		return
	}
	l.removeFileSinksLocked()
	l.createFileSinkLocked()
	l.refreshLogFilePath()
}

// OnAddPIDToFilenameChange regenerates the file name and recreates the
// file sink under it
func (c *Controller) OnAddPIDToFilenameChange(prev, next bool) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.cfg.AddPIDToFilename = next
	old := l.baseName
	l.baseName = l.fileBaseName()
	l.logf(types.LevelInfo, "Logger file name will be changed from %s to %s", old, l.baseName)

	if l.hasFileSinkLocked() || (l.node != nil && l.cfg.LogToFile) {
		l.removeFileSinksLocked()
		l.ensureFolderLocked()
		l.createFileSinkLocked()
	}
	l.refreshLogFilePath()
}

// OnLogToRemoteChange enables or disables remote delivery. Enabling probes
// the service and reports the result without blocking activation.
func (c *Controller) OnLogToRemoteChange(prev, next bool) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	l.cfg.Remote.Enabled = next
	if !next {
		l.logf(types.LevelInfo, "Remote logging disabled")
		return
	}

	l.logf(types.LevelInfo, "Remote logging enabled")
	if err := l.buildRemoteLocked(); err != nil {
		l.logf(types.LevelWarning, "Remote connection test failed: %v", err)
		return
	}

	status, err := l.remoteSink.Health(context.Background())
	switch {
	case err != nil:
		l.logf(types.LevelWarning, "Remote connection test failed: %v", err)
	case !status.OK:
		l.logf(types.LevelWarning, "Remote health check failed: %s", status.Reason())
	default:
		l.logf(types.LevelInfo, "Remote connection successful (version %s, %d actions available)",
			status.Version, len(status.Actions))
	}
}

// OnRemoteEndpointChange updates the remote settings, rebuilding the
// remote sink when the endpoint moved
func (c *Controller) OnRemoteEndpointChange(prev, next RemoteConfig) {
	l := c.l
	l.mu.Lock()
	defer l.unlock()

	enabled := l.cfg.Remote.Enabled
	l.cfg.Remote = next
	l.cfg.Remote.Enabled = enabled
	if prev.sameEndpoint(next) {
		return
	}
	if err := l.closeRemoteLocked(); err != nil {
		l.reportError("remote", prev.URL, "closing transport failed", err, ErrorLevelLow)
	}
	if enabled {
		if err := l.buildRemoteLocked(); err != nil {
			l.logf(types.LevelWarning, "Remote connection test failed: %v", err)
		}
	}
}

// Apply invokes the transition of every field that differs between prev
// and next. Deactivation runs first and activation last, so a logger that
// is switched on starts with the rest of next already in place.
func (c *Controller) Apply(prev, next Config) {
	if prev.Active && !next.Active {
		c.OnActiveChange(prev.Active, next.Active)
	}

	if prev.Origin != next.Origin {
		c.OnOriginChange(prev.Origin, next.Origin)
	}
	if prev.Level != next.Level {
		c.OnLevelChange(prev.Level, next.Level)
	}
	if prev.Propagate != next.Propagate {
		c.OnPropagateChange(prev.Propagate, next.Propagate)
	}
	if prev.Parent != next.Parent {
		c.OnParentChange(prev.Parent, next.Parent)
	}
	if prev.Name != next.Name {
		c.OnNameChange(prev.Name, next.Name)
	}
	if prev.LogToConsole != next.LogToConsole {
		c.OnLogToConsoleChange(prev.LogToConsole, next.LogToConsole)
	}
	if prev.LogToStatus != next.LogToStatus {
		c.OnLogToStatusChange(prev.LogToStatus, next.LogToStatus)
	}
	if prev.LogFolder != next.LogFolder {
		c.OnLogFolderChange(prev.LogFolder, next.LogFolder)
	}
	if prev.LogToFile != next.LogToFile {
		c.OnLogToFileChange(prev.LogToFile, next.LogToFile)
	}
	if prev.FileRotation != next.FileRotation {
		c.OnFileRotationChange(prev.FileRotation, next.FileRotation)
	}
	if prev.AddPIDToFilename != next.AddPIDToFilename {
		c.OnAddPIDToFilenameChange(prev.AddPIDToFilename, next.AddPIDToFilename)
	}
	if prev.LogAppErrors != next.LogAppErrors {
		c.OnLogAppErrorsChange(prev.LogAppErrors, next.LogAppErrors)
	}
	if !prev.Remote.sameEndpoint(next.Remote) || prev.Remote.DeviceID != next.Remote.DeviceID ||
		prev.Remote.UserID != next.Remote.UserID {
		c.OnRemoteEndpointChange(prev.Remote, next.Remote)
	}
	if prev.Remote.Enabled != next.Remote.Enabled {
		c.OnLogToRemoteChange(prev.Remote.Enabled, next.Remote.Enabled)
	}

	if !prev.Active && next.Active {
		c.OnActiveChange(prev.Active, next.Active)
	}
}
