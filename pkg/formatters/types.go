package formatters

import (
	"time"
)

// TimestampFormat matches the asctime layout of the log files:
// "2024-05-01 13:45:02,117".
const TimestampFormat = "2006-01-02 15:04:05,000"

// FormatOptions controls the output format of a LineFormatter
type FormatOptions struct {
	TimestampFormat string
	TimeZone        *time.Location
	// Color renders the level name with a terminal colour
	Color bool
}

// DefaultFormatOptions returns default formatting options
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		TimestampFormat: TimestampFormat,
		TimeZone:        time.Local,
		Color:           false,
	}
}
