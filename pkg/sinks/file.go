package sinks

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/pkg/features"
	"github.com/artcraftzone/hierlog/pkg/formatters"
	"github.com/artcraftzone/hierlog/pkg/types"
)

// DefaultBufferSize is the write buffer of a file sink
const DefaultBufferSize = 32 * 1024

// RotatingFile writes formatted lines to a file that rotates at local
// midnight and keeps a bounded number of backups. Writes are guarded by an
// advisory file lock so several processes can share a log file.
//
// The sink never creates directories; the folder must exist before
// NewRotatingFile is called.
type RotatingFile struct {
	leveled
	mu         sync.Mutex
	name       string
	path       string
	file       *os.File
	writer     *bufio.Writer
	lock       *flock.Flock
	rolloverAt time.Time
	rotation   *features.RotationManager
	formatter  *formatters.LineFormatter
	now        func() time.Time
	onWrite    func(int)
	onError    func(source, dest, msg string, err error)
	closed     bool
}

// FileOption configures a RotatingFile
type FileOption func(*RotatingFile)

// WithName sets the sink identity. The default is the file base name
// without extension.
func WithName(name string) FileOption {
	return func(f *RotatingFile) {
		if name != "" {
			f.name = name
		}
	}
}

// WithClock replaces time.Now, for rotation tests.
func WithClock(now func() time.Time) FileOption {
	return func(f *RotatingFile) {
		if now != nil {
			f.now = now
		}
	}
}

// WithLocation sets the time zone in which midnight is computed.
func WithLocation(loc *time.Location) FileOption {
	return func(f *RotatingFile) {
		f.rotation.SetLocation(loc)
		f.formatter.Options.TimeZone = loc
	}
}

// WithEventHandler receives "rotation_completed" and "cleanup_completed".
func WithEventHandler(handler func(string)) FileOption {
	return func(f *RotatingFile) {
		f.rotation.SetMetricsHandler(handler)
	}
}

// WithWriteHandler receives the byte count of every write.
func WithWriteHandler(handler func(int)) FileOption {
	return func(f *RotatingFile) {
		f.onWrite = handler
	}
}

// WithFileErrorHandler receives rotation and cleanup failures that do not
// stop the sink.
func WithFileErrorHandler(handler func(source, dest, msg string, err error)) FileOption {
	return func(f *RotatingFile) {
		f.onError = handler
		f.rotation.SetErrorHandler(handler)
	}
}

// NewRotatingFile opens path for appending and schedules the first rotation
// at the midnight following the file's last modification.
// backupCount is the number of rotated files kept; 0 keeps all of them.
func NewRotatingFile(path string, backupCount int, opts ...FileOption) (*RotatingFile, error) {
	cleanPath := filepath.Clean(path)
	base := filepath.Base(cleanPath)

	f := &RotatingFile{
		name:      base[:len(base)-len(filepath.Ext(base))],
		path:      cleanPath,
		rotation:  features.NewRotationManager(),
		formatter: formatters.NewLineFormatter(),
		now:       time.Now,
	}
	f.leveled = leveled{write: f.write}
	f.rotation.SetMaxFiles(backupCount)

	for _, opt := range opts {
		opt(f)
	}

	if info, err := os.Stat(cleanPath); err == nil {
		f.rolloverAt = f.rotation.NextRollover(info.ModTime())
	} else {
		f.rolloverAt = f.rotation.NextRollover(f.now())
	}

	if err := f.open(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RotatingFile) open() error {
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644) // #nosec G302 - log files need to be readable
	if err != nil {
		return errors.Wrap(err, "open file")
	}

	f.file = file
	f.writer = bufio.NewWriterSize(file, DefaultBufferSize)
	f.lock = flock.New(f.path)
	return nil
}

func (f *RotatingFile) closeFile() error {
	var errs []error

	if f.writer != nil {
		if err := f.writer.Flush(); err != nil {
			errs = append(errs, errors.Wrap(err, "flush"))
		}
	}
	if f.lock != nil {
		if err := f.lock.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "unlock"))
		}
	}
	if f.file != nil {
		if err := f.file.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "close file"))
		}
	}

	f.file, f.writer, f.lock = nil, nil, nil

	if len(errs) > 0 {
		return errors.Errorf("close errors: %v", errs)
	}
	return nil
}

// Name implements Sink
func (f *RotatingFile) Name() string { return f.name }

// Kind implements Sink
func (f *RotatingFile) Kind() types.SinkKind { return types.KindRotatingFile }

// Path returns the live file path
func (f *RotatingFile) Path() string { return f.path }

// BackupCount returns the retention count
func (f *RotatingFile) BackupCount() int { return f.rotation.GetMaxFiles() }

// RolloverAt returns the time of the next rotation
func (f *RotatingFile) RolloverAt() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rolloverAt
}

func (f *RotatingFile) write(level types.Level, e Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrSinkClosed
	}

	if now := f.now(); !now.Before(f.rolloverAt) {
		if err := f.rollover(now); err != nil {
			return err
		}
	}
	if f.file == nil {
		if err := f.open(); err != nil {
			return err
		}
	}

	line := f.formatter.Format(e.Time, level, e.Logger, e.Message)

	if err := f.lock.Lock(); err != nil {
		return errors.Wrap(err, "acquire lock")
	}
	defer func() {
		_ = f.lock.Unlock() // Best effort unlock
	}()

	n, err := f.writer.Write(line)
	if err != nil {
		return errors.Wrap(err, "write")
	}
	if err := f.writer.Flush(); err != nil {
		return errors.Wrap(err, "flush")
	}

	if f.onWrite != nil {
		f.onWrite(n)
	}
	return nil
}

// rollover closes the live file, renames it after the period it covered,
// prunes old backups and reopens a fresh file. Rename and cleanup failures
// are reported and do not stop logging.
func (f *RotatingFile) rollover(now time.Time) error {
	periodStart := f.rolloverAt.AddDate(0, 0, -1)

	if err := f.closeFile(); err != nil {
		f.report("rotate", "Failed to close log file before rotation", err)
	}

	if _, err := f.rotation.RotateFile(f.path, nil, periodStart); err != nil {
		f.report("rotate", "Failed to rotate log file", err)
	} else if err := f.rotation.CleanupOldFiles(f.path); err != nil {
		f.report("cleanup", "Failed to remove old log files", err)
	}

	f.rolloverAt = f.rotation.NextRollover(now)
	return f.open()
}

func (f *RotatingFile) report(source, msg string, err error) {
	if f.onError != nil {
		f.onError(source, f.path, msg, err)
	}
}

// Close implements Sink
func (f *RotatingFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true
	return f.closeFile()
}
