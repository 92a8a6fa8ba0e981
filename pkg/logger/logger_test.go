package logger

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artcraftzone/hierlog/internal/utils"
	"github.com/artcraftzone/hierlog/pkg/registry"
	"github.com/artcraftzone/hierlog/pkg/remote"
	"github.com/artcraftzone/hierlog/pkg/sinks"
	"github.com/artcraftzone/hierlog/pkg/types"
)

type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func (l *lockedBuffer) Lines() []string {
	return strings.Split(strings.TrimRight(l.String(), "\n"), "\n")
}

type recordingStatus struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingStatus) SetStatus(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func (r *recordingStatus) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

type fakeTransport struct {
	mu        sync.Mutex
	requests  []remote.AppendRequest
	errs      []error
	health    remote.HealthStatus
	healthErr error
}

func (f *fakeTransport) AppendLog(_ context.Context, req remote.AppendRequest) (remote.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return remote.Response{}, err
		}
	}
	return remote.Response{OK: true}, nil
}

func (f *fakeTransport) Health(context.Context) (remote.HealthStatus, error) {
	return f.health, f.healthErr
}

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) Requests() []remote.AppendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]remote.AppendRequest(nil), f.requests...)
}

// failingSink rejects every record
type failingSink struct{}

func (failingSink) Name() string               { return "failing" }
func (failingSink) Kind() types.SinkKind       { return types.KindConsole }
func (failingSink) Debug(sinks.Entry) error    { return errors.New("sink offline") }
func (failingSink) Info(sinks.Entry) error     { return errors.New("sink offline") }
func (failingSink) Warning(sinks.Entry) error  { return errors.New("sink offline") }
func (failingSink) Error(sinks.Entry) error    { return errors.New("sink offline") }
func (failingSink) Critical(sinks.Entry) error { return errors.New("sink offline") }
func (failingSink) Close() error               { return nil }

// panickingSink panics on every record
type panickingSink struct{ failingSink }

func (panickingSink) Info(sinks.Entry) error { panic("broken writer") }

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Name = "App"
	cfg.Color = "never"
	cfg.ProjectName = "proj"
	cfg.ProjectFolder = t.TempDir()
	cfg.LogFolder = filepath.Join(cfg.ProjectFolder, LogsDir)
	return cfg
}

func newTestLogger(t *testing.T, cfg Config, opts ...Option) (*Logger, *lockedBuffer) {
	t.Helper()
	out := &lockedBuffer{}
	base := []Option{
		WithRegistry(registry.New()),
		WithConsoleWriter(out),
		WithFrameSource(utils.NewManualFrames()),
		WithPID(4242),
		WithErrorHandler(SilentErrorHandler),
	}
	l, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l, out
}

func indexOf(lines []string, substr string) int {
	for i, line := range lines {
		if strings.Contains(line, substr) {
			return i
		}
	}
	return -1
}

func TestQueuedMessagesFlushInOrderOnActivation(t *testing.T) {
	l, out := newTestLogger(t, testConfig(t))

	messages := []string{"one", "two", "three", "four", "five"}
	for _, m := range messages {
		l.Info(m)
	}
	assert.Equal(t, 5, l.QueueLen())
	assert.Empty(t, out.String())

	l.SetActive(true)

	assert.Equal(t, 0, l.QueueLen())
	lines := out.Lines()
	last := -1
	for _, m := range messages {
		needle := "PID:4242 - " + m + " ("
		assert.Equal(t, 1, strings.Count(out.String(), needle), "message %q", m)
		i := indexOf(lines, needle)
		assert.Greater(t, i, last, "message %q out of order", m)
		last = i
	}

	m := l.Metrics().GetMetrics()
	assert.Equal(t, uint64(5), m.Queued)
	assert.Equal(t, uint64(5), m.Flushed)
}

func TestAppScenarioConsoleOrder(t *testing.T) {
	status := &recordingStatus{}
	l, out := newTestLogger(t, testConfig(t), WithStatus(status))

	l.Warning("starting")
	l.Info("ready")
	l.SetActive(true)

	lines := out.Lines()
	starting := indexOf(lines, "WARNING - App - PID:4242 - starting")
	ready := indexOf(lines, "INFO - App - PID:4242 - ready")
	require.GreaterOrEqual(t, starting, 0)
	require.GreaterOrEqual(t, ready, 0)
	assert.Less(t, starting, ready)
	assert.Empty(t, status.Lines(), "status overlay is off")
}

func TestAppScenarioStatusAtErrorThreshold(t *testing.T) {
	cfg := testConfig(t)
	cfg.Level = types.LevelError
	cfg.LogToStatus = true
	status := &recordingStatus{}
	l, _ := newTestLogger(t, cfg, WithStatus(status))

	l.Warning("starting")
	l.Info("ready")
	l.SetActive(true)

	assert.Empty(t, status.Lines())
}

func TestSameNameSharesNode(t *testing.T) {
	reg := registry.New()
	cfg := testConfig(t)
	cfg.Active = true

	a, _ := newTestLogger(t, cfg, WithRegistry(reg))
	b, _ := newTestLogger(t, cfg, WithRegistry(reg))

	assert.Same(t, a.Node(), b.Node())
	assert.Equal(t, []string{"App"}, reg.Names())
}

func TestChildLoggerUnderParent(t *testing.T) {
	reg := registry.New()
	parentCfg := testConfig(t)
	parentCfg.Active = true
	parent, parentOut := newTestLogger(t, parentCfg, WithRegistry(reg))
	require.True(t, parent.Active())

	childCfg := testConfig(t)
	childCfg.Name = "Core"
	childCfg.Parent = "App"
	childCfg.Active = true
	childCfg.LogToConsole = false
	child, _ := newTestLogger(t, childCfg, WithRegistry(reg))

	assert.Equal(t, "App.Core", child.QualifiedName())
	assert.Contains(t, parentOut.String(),
		"The logger App.Core was setup with a parent App. App.Core will inherit from parent.")

	child.Error("from the child")
	assert.Contains(t, parentOut.String(), "ERROR - App.Core - PID:4242 - from the child")
}

func TestInactiveParentMakesRootLogger(t *testing.T) {
	cfg := testConfig(t)
	cfg.Name = "Core"
	cfg.Parent = "Missing"
	cfg.Active = true
	l, out := newTestLogger(t, cfg)

	assert.Equal(t, "Core", l.QualifiedName())
	assert.Contains(t, out.String(), "The parent logger Missing is not active, Core will be a root logger.")
	assert.Contains(t, out.String(), "The logger Core is a root logger.")
}

func TestAppRoleIgnoresParent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Role = RoleApp
	cfg.Parent = "Elsewhere"
	cfg.Active = true
	l, _ := newTestLogger(t, cfg)

	assert.Equal(t, "App", l.QualifiedName())
	assert.Empty(t, l.Config().Parent)
}

func TestSystemRoleLevelFromEnvironment(t *testing.T) {
	t.Setenv(SysLogLevelEnv, "error")
	cfg := testConfig(t)
	cfg.Role = RoleSystem
	l, _ := newTestLogger(t, cfg)

	assert.Equal(t, types.LevelError, l.Config().Level)
}

func TestFileToggleLeavesOneFileSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	l, _ := newTestLogger(t, cfg)
	c := l.Controller()

	c.OnLogToFileChange(false, true)
	c.OnLogToFileChange(true, false)
	assert.Empty(t, l.Node().Sinks().FindByKind(types.KindRotatingFile))
	assert.Empty(t, l.LogFilePath())

	c.OnLogToFileChange(false, true)
	c.OnLogToFileChange(true, true)

	assert.Len(t, l.Node().Sinks().FindByKind(types.KindRotatingFile), 1)
	assert.Equal(t, filepath.Join(cfg.LogFolder, "proj_App.log"), l.LogFilePath())
	assert.Equal(t, cfg.LogFolder, l.LogFolderPath())
}

func TestStatusAndRemoteGating(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	cfg.Level = types.LevelWarning
	cfg.LogToStatus = true
	cfg.Remote.Enabled = true
	cfg.Remote.URL = "https://logs.example.com/api.php"
	status := &recordingStatus{}
	tr := &fakeTransport{}
	l, _ := newTestLogger(t, cfg, WithStatus(status), WithTransport(tr))

	l.Info("routine")
	assert.Empty(t, status.Lines())
	assert.Empty(t, tr.Requests())

	l.Critical("reactor")
	require.Len(t, status.Lines(), 1)
	assert.True(t, strings.HasPrefix(status.Lines()[0], "CRITICAL - PID:4242 - reactor"))
	require.Len(t, tr.Requests(), 1)
	req := tr.Requests()[0]
	assert.Equal(t, "critical", req.Level)
	assert.Equal(t, "proj", req.DeviceID)
	assert.True(t, strings.HasPrefix(req.Msg, "[CRITICAL] App - PID:4242 - reactor - (logger_test.go:"))
}

func TestRemoteTransportErrorIsReportedLocally(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	cfg.Remote.Enabled = true
	cfg.Remote.URL = "https://logs.example.com/api.php"
	// the activation announcement goes through first
	tr := &fakeTransport{errs: []error{nil, errors.New("connection refused")}}
	var fallback bytes.Buffer
	l, out := newTestLogger(t, cfg, WithTransport(tr), WithRemoteFallback(&fallback))

	assert.NotPanics(t, func() { l.Error("first") })
	assert.Contains(t, out.String(), "WARNING - App - PID:4242 - Remote logging request error: connection refused")
	assert.Equal(t, remote.StateIdle, l.RemoteState())
	assert.Empty(t, fallback.String())

	l.Error("second")
	assert.Len(t, tr.Requests(), 3)
	assert.Equal(t, 1, strings.Count(out.String(), "Remote logging request error"))
	assert.Equal(t, uint64(1), l.Metrics().GetRemoteFailures("transport"))
}

func TestRenameRecreatesFileSink(t *testing.T) {
	reg := registry.New()
	cfg := testConfig(t)
	cfg.Active = true
	cfg.LogToFile = true
	l, out := newTestLogger(t, cfg, WithRegistry(reg))
	old := l.Node()
	require.NotEmpty(t, l.LogFilePath())

	l.Controller().OnNameChange("App", "Core")

	_, ok := reg.Get("App")
	assert.False(t, ok)
	assert.False(t, old.Active())

	node, ok := reg.Get("Core")
	require.True(t, ok)
	files := node.Sinks().FindByKind(types.KindRotatingFile)
	require.Len(t, files, 1)
	path := files[0].(*sinks.RotatingFile).Path()
	assert.Contains(t, path, "Core")
	assert.Equal(t, path, l.LogFilePath())
	assert.Equal(t, "proj_Core", l.FileBaseName())
	assert.Contains(t, out.String(), "Logger name will be changed from App to Core")
}

func TestDefaultNameAndFolder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Name = ""
	cfg.LogFolder = ""
	cfg.Origin = "Worker"
	cfg.Active = true
	l, out := newTestLogger(t, cfg)

	assert.Equal(t, "Worker", l.Name())
	assert.Equal(t, filepath.Join(cfg.ProjectFolder, LogsDir), l.Config().LogFolder)
	assert.Contains(t, out.String(), "No name was provided for logger, name was set to Worker.")
	assert.Contains(t, out.String(), "No folder was provided for logger, folder was set to")
	assert.Contains(t, out.String(), "PID:4242 - Worker - The logger Worker is a root logger.")
}

func TestSourceCarriesPIDOnlyWhenNotInFileName(t *testing.T) {
	cfg := testConfig(t)
	cfg.Origin = "Worker"
	cfg.Active = true
	l, out := newTestLogger(t, cfg)

	l.Info("hello")
	assert.Contains(t, out.String(), "INFO - App - PID:4242 - Worker - hello")

	l.Controller().OnAddPIDToFilenameChange(false, true)
	assert.Equal(t, "proj_4242_App", l.FileBaseName())
	assert.Contains(t, out.String(), "Logger file name will be changed from proj_App to proj_4242_App")

	l.Info("again")
	assert.Contains(t, out.String(), "INFO - App - Worker - again")
}

func TestSinkFailureRequeuesRecord(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	cfg.LogToConsole = false
	l, _ := newTestLogger(t, cfg)
	l.Node().Sinks().Add(failingSink{})

	l.Warning("lost?")

	entries := l.queue.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, types.LevelError, entries[0].Level)
	assert.Contains(t, entries[0].Message, "An error occurred while trying to log with sinks.")
	assert.Contains(t, entries[0].Message, "sink offline")
	assert.Equal(t, types.LevelWarning, entries[1].Level)
	assert.Equal(t, "lost?", entries[1].Message)
	assert.Equal(t, uint64(1), l.Metrics().GetMetrics().DispatchFailures)
}

func TestSinkPanicIsTreatedAsFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	cfg.LogToConsole = false
	l, _ := newTestLogger(t, cfg)
	l.Node().Sinks().Add(panickingSink{})

	assert.NotPanics(t, func() { l.Info("still here") })

	entries := l.queue.Entries()
	require.Len(t, entries, 2)
	assert.Contains(t, entries[0].Message, "An error occurred while trying to log with sinks.")
	assert.Contains(t, entries[0].Message, "broken writer")
	assert.Equal(t, "still here", entries[1].Message)
}

func TestPIDToggleRecreatesFileSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	cfg.LogToFile = true
	l, _ := newTestLogger(t, cfg)
	require.Equal(t, filepath.Join(cfg.LogFolder, "proj_App.log"), l.LogFilePath())

	l.Controller().OnAddPIDToFilenameChange(false, true)

	files := l.Node().Sinks().FindByKind(types.KindRotatingFile)
	require.Len(t, files, 1)
	expected := filepath.Join(cfg.LogFolder, "proj_4242_App.log")
	assert.Equal(t, expected, files[0].(*sinks.RotatingFile).Path())
	assert.Equal(t, expected, l.LogFilePath())

	l.Info("with pid")
	content, err := os.ReadFile(expected)
	require.NoError(t, err)
	assert.Contains(t, string(content), "with pid")

	l.Controller().OnAddPIDToFilenameChange(true, false)
	files = l.Node().Sinks().FindByKind(types.KindRotatingFile)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(cfg.LogFolder, "proj_App.log"), l.LogFilePath())
}

func TestRepeatedActivationIsQuiet(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	frames := utils.NewManualFrames()
	l, out := newTestLogger(t, cfg, WithFrameSource(frames))
	frames.Advance(5)

	l.SetActive(true)

	assert.Equal(t, 1, strings.Count(out.String(), "is a root logger."))
	assert.Equal(t, int64(5), frames.Frame(), "the relative frame counter keeps running")
}

func TestLogFilePathFromAncestor(t *testing.T) {
	reg := registry.New()
	parentCfg := testConfig(t)
	parentCfg.Active = true
	parentCfg.LogToFile = true
	parent, _ := newTestLogger(t, parentCfg, WithRegistry(reg))

	childCfg := testConfig(t)
	childCfg.Name = "Core"
	childCfg.Parent = "App"
	childCfg.Active = true
	child, _ := newTestLogger(t, childCfg, WithRegistry(reg))

	assert.Equal(t, parent.LogFilePath(), child.LogFilePath())
	assert.Equal(t, filepath.Dir(parent.LogFilePath()), child.LogFolderPath())
}

func TestMoreThanOneFileSinkWarns(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	cfg.LogToFile = true
	l, out := newTestLogger(t, cfg)

	extra, err := sinks.NewRotatingFile(filepath.Join(cfg.LogFolder, "extra.log"), 1)
	require.NoError(t, err)
	l.Node().Sinks().Add(extra)

	l.Controller().OnPropagateChange(true, false)

	assert.Contains(t, out.String(), "App has more than 1 file sink, this could cause unexpected behaviors.")
	assert.Equal(t, filepath.Join(cfg.LogFolder, "proj_App.log"), l.LogFilePath())
}

func TestCallbacksReceiveItems(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	l, out := newTestLogger(t, cfg)

	var items []*types.LogItem
	l.Callbacks().Register(EventMessageLogged, func(event string, item *types.LogItem) {
		items = append(items, item)
		if item.Message == "ping" {
			l.Info("pong")
		}
	})

	l.Info("ping")

	require.Len(t, items, 2)
	assert.Equal(t, "ping", items[0].Message)
	assert.Equal(t, "App", items[0].Logger)
	assert.Equal(t, "pong", items[1].Message)
	assert.Contains(t, out.String(), "pong")
}

func TestUnknownLevelIsRejected(t *testing.T) {
	var reported []LogError
	cfg := testConfig(t)
	cfg.Active = true
	l, out := newTestLogger(t, cfg, WithErrorHandler(func(e LogError) { reported = append(reported, e) }))
	before := out.String()

	l.Log(types.Level(42), "mystery")

	assert.Equal(t, before, out.String())
	require.Len(t, reported, 1)
	assert.True(t, errors.Is(reported[0], types.ErrUnknownLevel))
}

func TestClearSinks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	cfg.LogToFile = true
	l, _ := newTestLogger(t, cfg)

	require.NoError(t, l.ClearSinks())
	assert.Equal(t, 0, l.Node().Sinks().Len())
}

func TestDeactivateDestroysNode(t *testing.T) {
	reg := registry.New()
	cfg := testConfig(t)
	cfg.Active = true
	l, _ := newTestLogger(t, cfg, WithRegistry(reg))

	l.SetActive(false)

	assert.False(t, l.Active())
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, l.LogFilePath())

	l.Info("buffered")
	assert.Equal(t, 1, l.QueueLen())
}

func TestConcurrentLogging(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	l, out := newTestLogger(t, cfg)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Info("tick")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 400, strings.Count(out.String(), "PID:4242 - tick"))
	assert.Equal(t, uint64(400), l.Metrics().GetMessageCount("INFO")-1)
}

func TestFileOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Active = true
	cfg.LogToFile = true
	cfg.LogToConsole = false
	l, _ := newTestLogger(t, cfg)

	l.Error("written")

	data, err := os.ReadFile(l.LogFilePath())
	require.NoError(t, err)
	assert.Contains(t, string(data), " - ERROR - App - PID:4242 - written (DAT:logger_test.go, fn:TestFileOutput")
}
