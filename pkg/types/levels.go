package types

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Level is a log severity. The zero value is LevelNotSet, which a node uses
// to inherit its threshold from its ancestors.
type Level int

// Severity levels in ascending order
const (
	LevelNotSet Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// ErrUnknownLevel is returned when a level name is not one of the five
// recognised names.
var ErrUnknownLevel = errors.New("unknown log level")

var levelNames = map[Level]string{
	LevelNotSet:   "NOTSET",
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

// Levels returns the five recognised severities in ascending order.
func Levels() []Level {
	return []Level{LevelDebug, LevelInfo, LevelWarning, LevelError, LevelCritical}
}

// String returns the upper-case level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "LEVEL(" + strconv.Itoa(int(l)) + ")"
}

// Lower returns the lower-case level name, as used by remote ingestion.
func (l Level) Lower() string {
	return strings.ToLower(l.String())
}

// Valid reports whether l is one of the five recognised severities.
func (l Level) Valid() bool {
	return l >= LevelDebug && l <= LevelCritical
}

// ParseLevel converts a level name to a Level. Names are matched case
// insensitively; "WARN" is accepted as an alias for WARNING. Anything else
// is rejected with ErrUnknownLevel.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL", "FATAL":
		return LevelCritical, nil
	case "NOTSET", "":
		return LevelNotSet, nil
	}
	return LevelNotSet, errors.Wrapf(ErrUnknownLevel, "%q", name)
}

// Rank returns the routing rank of a level name. Unknown names rank 0,
// below DEBUG, so they never pass a threshold comparison by accident.
// Rank is only used for comparisons, never for display.
func Rank(name string) int {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return int(LevelDebug)
	case "INFO":
		return int(LevelInfo)
	case "WARNING":
		return int(LevelWarning)
	case "ERROR":
		return int(LevelError)
	case "CRITICAL":
		return int(LevelCritical)
	}
	return 0
}

// AtLeast reports whether l is at least as severe as threshold.
func (l Level) AtLeast(threshold Level) bool {
	return Rank(l.String()) >= Rank(threshold.String())
}
