package features

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// RotationTimeFormat is the timestamp suffix of rotated log files.
// Example: "app.log.20240115-000000"
const RotationTimeFormat = "20060102-150405"

// RotationManager handles midnight rotation of a log file and the cleanup
// of rotated backups beyond the retention count.
type RotationManager struct {
	mu             sync.RWMutex
	maxFiles       int
	errorHandler   func(source, dest, msg string, err error)
	metricsHandler func(string) // Function to track rotation metrics
	location       *time.Location
}

// NewRotationManager creates a new rotation manager using local time.
func NewRotationManager() *RotationManager {
	return &RotationManager{
		location: time.Local,
	}
}

// SetErrorHandler sets the error handling function
func (r *RotationManager) SetErrorHandler(handler func(source, dest, msg string, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errorHandler = handler
}

// SetMetricsHandler sets the metrics tracking function
func (r *RotationManager) SetMetricsHandler(handler func(string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metricsHandler = handler
}

// SetMaxFiles sets the number of rotated files to keep. Zero keeps all.
func (r *RotationManager) SetMaxFiles(count int) {
	if count < 0 {
		count = 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxFiles = count
}

// GetMaxFiles returns the number of rotated files kept
func (r *RotationManager) GetMaxFiles() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxFiles
}

// SetLocation sets the time zone in which midnight is computed.
func (r *RotationManager) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.location = loc
}

// NextRollover returns the first midnight strictly after t.
func (r *RotationManager) NextRollover(t time.Time) time.Time {
	r.mu.RLock()
	loc := r.location
	r.mu.RUnlock()

	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
}

// RotateFile renames the log file to path.{periodStart} and returns the new
// name. periodStart is the start of the period the file covered. An existing
// backup with the same name is replaced.
func (r *RotationManager) RotateFile(path string, writer *bufio.Writer, periodStart time.Time) (string, error) {
	// Flush the writer if provided
	if writer != nil {
		if err := writer.Flush(); err != nil {
			return "", errors.Wrap(err, "flushing log")
		}
	}

	cleanPath := filepath.Clean(path)

	r.mu.RLock()
	loc := r.location
	metricsHandler := r.metricsHandler
	r.mu.RUnlock()

	rotatedPath := fmt.Sprintf("%s.%s", cleanPath, periodStart.In(loc).Format(RotationTimeFormat))

	if _, err := os.Stat(rotatedPath); err == nil {
		if err := os.Remove(rotatedPath); err != nil {
			return "", errors.Wrap(err, "replacing rotated log")
		}
	}

	if err := os.Rename(cleanPath, rotatedPath); err != nil {
		return "", errors.Wrap(err, "rotating log")
	}

	if metricsHandler != nil {
		metricsHandler("rotation_completed")
	}

	return rotatedPath, nil
}

func rotatedPattern(base string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^%s\.(\d{8}-\d{6})$`, regexp.QuoteMeta(base)))
}

// CleanupOldFiles removes old rotated files based on maxFiles count.
func (r *RotationManager) CleanupOldFiles(logPath string) error {
	r.mu.RLock()
	maxFiles := r.maxFiles
	errorHandler := r.errorHandler
	metricsHandler := r.metricsHandler
	r.mu.RUnlock()

	if maxFiles <= 0 {
		return nil // No file count limit
	}

	rotated, err := r.GetRotatedFiles(logPath)
	if err != nil {
		return err
	}

	// Remove files beyond maxFiles limit, oldest last in the list
	for i := maxFiles; i < len(rotated); i++ {
		if err := os.Remove(rotated[i].Path); err != nil {
			if errorHandler != nil {
				errorHandler("cleanup", rotated[i].Path, "Failed to remove old log file (exceeded maxFiles)", err)
			}
			continue
		}
		if metricsHandler != nil {
			metricsHandler("cleanup_completed")
		}
	}

	return nil
}

// GetRotatedFiles returns the rotated files for the given log path,
// newest first.
func (r *RotationManager) GetRotatedFiles(logPath string) ([]RotatedFileInfo, error) {
	dir := filepath.Dir(logPath)
	base := filepath.Base(logPath)

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading log directory")
	}

	r.mu.RLock()
	loc := r.location
	r.mu.RUnlock()

	pattern := rotatedPattern(base)

	var rotatedFiles []RotatedFileInfo
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		matches := pattern.FindStringSubmatch(file.Name())
		if len(matches) != 2 {
			continue
		}

		fileInfo, err := file.Info()
		if err != nil {
			continue
		}

		fileTime, err := time.ParseInLocation(RotationTimeFormat, matches[1], loc)
		if err != nil {
			continue
		}

		rotatedFiles = append(rotatedFiles, RotatedFileInfo{
			Path:        filepath.Join(dir, file.Name()),
			Name:        file.Name(),
			Size:        fileInfo.Size(),
			PeriodStart: fileTime,
		})
	}

	sort.Slice(rotatedFiles, func(i, j int) bool {
		return rotatedFiles[i].PeriodStart.After(rotatedFiles[j].PeriodStart)
	})

	return rotatedFiles, nil
}

// RotatedFileInfo contains information about a rotated log file
type RotatedFileInfo struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	PeriodStart time.Time `json:"period_start"`
}
