package types

import (
	"time"
)

// CallSite identifies where a log call originated.
type CallSite struct {
	File     string `json:"file"`
	Function string `json:"function"`
	Line     int    `json:"line"`
}

// LogItem represents one logged event as it travels through the logger.
// It is built by the logger component, enriched with call-site and frame
// metadata, and handed to sinks, the status overlay, the remote sink and
// the callback hook.
type LogItem struct {
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
	Source    string    `json:"source"`
	CallSite  *CallSite `json:"call_site,omitempty"`
	AbsFrame  int64     `json:"abs_frame"`
	Frame     int64     `json:"frame"`
	ExtraInfo string    `json:"extra_info,omitempty"`

	// Logger is the qualified name of the node that produced the item.
	Logger string    `json:"logger"`
	Time   time.Time `json:"time"`
}

// Identity tags remote log entries with the device and user they belong to.
type Identity struct {
	DeviceID string `json:"device_id"`
	UserID   string `json:"user_id"`
}

// SinkKind enumerates the sink variants a node can carry.
type SinkKind int

const (
	// KindConsole writes to a live output stream
	KindConsole SinkKind = iota
	// KindRotatingFile writes to a midnight-rotated file
	KindRotatingFile
	// KindRemote delivers to a remote ingestion endpoint
	KindRemote
)

// String returns the sink kind name
func (k SinkKind) String() string {
	switch k {
	case KindConsole:
		return "console"
	case KindRotatingFile:
		return "rotating_file"
	case KindRemote:
		return "remote"
	default:
		return "unknown"
	}
}
