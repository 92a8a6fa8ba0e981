package logger

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/pkg/remote"
	"github.com/artcraftzone/hierlog/pkg/types"
)

const (
	// DefaultQueueCapacity bounds the startup queue
	DefaultQueueCapacity = 1000
	// DefaultFileRotation is the number of rotated files kept
	DefaultFileRotation = 7
	// DefaultName is used when neither a name nor an origin is configured
	DefaultName = "Logger"
	// LogsDir is the folder created under the project folder by default
	LogsDir = "Logs"
	// SysLogLevelEnv overrides the level of system loggers
	SysLogLevelEnv = "HIERLOG_SYS_LOG_LEVEL"
)

// Role tags a logger with its place in the host application.
type Role int

const (
	// RoleNone is an ordinary component logger
	RoleNone Role = iota
	// RoleApp is the application's root logger. It never has a parent.
	RoleApp
	// RoleSystem is a framework logger whose level can be forced from
	// the environment.
	RoleSystem
)

// String returns the role name
func (r Role) String() string {
	switch r {
	case RoleApp:
		return "app"
	case RoleSystem:
		return "system"
	default:
		return "none"
	}
}

// ParseRole converts a role name. Unknown names map to RoleNone.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "app":
		return RoleApp
	case "system", "sys":
		return RoleSystem
	default:
		return RoleNone
	}
}

// RemoteConfig configures delivery to the ingestion service
type RemoteConfig struct {
	Enabled   bool
	Transport string
	URL       string
	Token     string
	Subject   string
	Timeout   time.Duration
	DeviceID  string
	UserID    string
}

func (r RemoteConfig) transportConfig() remote.TransportConfig {
	return remote.TransportConfig{
		Kind:    r.Transport,
		URL:     r.URL,
		Token:   r.Token,
		Subject: r.Subject,
		Timeout: r.Timeout,
	}
}

// sameEndpoint reports whether two configurations reach the same service
func (r RemoteConfig) sameEndpoint(other RemoteConfig) bool {
	return r.Transport == other.Transport &&
		r.URL == other.URL &&
		r.Token == other.Token &&
		r.Subject == other.Subject &&
		r.Timeout == other.Timeout
}

// Config holds every setting of a Logger. It mirrors the parameters a host
// exposes; changes are applied through the Controller.
type Config struct {
	Active bool
	Name   string
	// Origin identifies the component that owns the logger. It is the
	// source of every item and the fallback name.
	Origin string
	// Parent is the qualified name of the parent node. Empty makes a root.
	Parent    string
	Propagate bool
	Level     types.Level
	Role      Role

	LogToConsole bool
	LogToStatus  bool
	LogToFile    bool
	LogFolder    string
	FileRotation int
	// AddPIDToFilename puts the process id in the file name. When it is
	// off the id is prefixed to the source instead.
	AddPIDToFilename bool
	LogAppErrors     bool
	Color            string

	ProjectName   string
	ProjectFolder string

	IncludeCallSite bool
	FrameRate       int
	QueueCapacity   int

	Remote RemoteConfig
}

// DefaultConfig returns the configuration of a fresh, inactive logger
func DefaultConfig() Config {
	return Config{
		Propagate:       true,
		Level:           types.LevelInfo,
		LogToConsole:    true,
		FileRotation:    DefaultFileRotation,
		Color:           "auto",
		ProjectName:     defaultProjectName(),
		ProjectFolder:   defaultProjectFolder(),
		IncludeCallSite: true,
		QueueCapacity:   DefaultQueueCapacity,
		Remote: RemoteConfig{
			Transport: remote.TransportHTTP,
			Timeout:   remote.DefaultTimeout,
		},
	}
}

func defaultProjectName() string {
	exe, err := os.Executable()
	if err != nil {
		return "hierlog"
	}
	return strings.TrimSuffix(filepath.Base(exe), filepath.Ext(exe))
}

func defaultProjectFolder() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// Validate fills unset values and rejects contradictory settings.
func (c *Config) Validate() error {
	if !c.Level.Valid() && c.Level != types.LevelNotSet {
		return errors.Wrapf(types.ErrUnknownLevel, "level %d", int(c.Level))
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.FileRotation < 0 {
		c.FileRotation = 0
	}
	if c.ProjectName == "" {
		c.ProjectName = defaultProjectName()
	}
	if c.ProjectFolder == "" {
		c.ProjectFolder = defaultProjectFolder()
	}
	if c.Remote.Timeout <= 0 {
		c.Remote.Timeout = remote.DefaultTimeout
	}
	switch c.Remote.Transport {
	case "":
		c.Remote.Transport = remote.TransportHTTP
	case remote.TransportHTTP, remote.TransportNATS:
	default:
		return errors.Errorf("unknown remote transport %q", c.Remote.Transport)
	}
	if c.Role == RoleApp {
		c.Parent = ""
	}
	return nil
}

// requireEndpoint rejects remote logging with nowhere to send to. An
// injected transport stands in for the url.
func (c *Config) requireEndpoint(injected bool) error {
	if c.Remote.Enabled && c.Remote.URL == "" && !injected {
		return errors.Wrap(remote.ErrNoTransport, "remote logging enabled without a url")
	}
	return nil
}

// ApplyEnv forces the level of system loggers from the environment. New
// calls it; configuration reloaders call it before diffing.
func (c *Config) ApplyEnv() {
	if c.Role != RoleSystem {
		return
	}
	value, ok := os.LookupEnv(SysLogLevelEnv)
	if !ok {
		return
	}
	if level, err := types.ParseLevel(value); err == nil {
		c.Level = level
	}
}
