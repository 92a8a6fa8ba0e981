// Package config loads logger settings with viper and keeps a running
// logger in step with its configuration file.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/artcraftzone/hierlog/pkg/logger"
	"github.com/artcraftzone/hierlog/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g. HIERLOG_LOGGER_LEVEL
const EnvPrefix = "HIERLOG"

// Config is the file representation of a logger
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggerConfig holds the logger parameters
type LoggerConfig struct {
	Active           bool   `mapstructure:"active"`
	Name             string `mapstructure:"name"`
	Origin           string `mapstructure:"origin"`
	Parent           string `mapstructure:"parent"`
	Propagate        bool   `mapstructure:"propagate"`
	Level            string `mapstructure:"level"`
	Role             string `mapstructure:"role"`
	LogToConsole     bool   `mapstructure:"log_to_console"`
	LogToStatus      bool   `mapstructure:"log_to_status"`
	LogToFile        bool   `mapstructure:"log_to_file"`
	LogFolder        string `mapstructure:"log_folder"`
	FileRotation     int    `mapstructure:"file_rotation"`
	AddPIDToFilename bool   `mapstructure:"add_pid_to_filename"`
	LogAppErrors     bool   `mapstructure:"log_app_errors"`
	Color            string `mapstructure:"color"`
	ProjectName      string `mapstructure:"project_name"`
	ProjectFolder    string `mapstructure:"project_folder"`
	IncludeCallSite  bool   `mapstructure:"include_call_site"`
	FrameRate        int    `mapstructure:"frame_rate"`
	QueueCapacity    int    `mapstructure:"queue_capacity"`
}

// RemoteConfig holds the ingestion service settings
type RemoteConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Transport string        `mapstructure:"transport"`
	URL       string        `mapstructure:"url"`
	Token     string        `mapstructure:"token"`
	Subject   string        `mapstructure:"subject"`
	Timeout   time.Duration `mapstructure:"timeout"`
	DeviceID  string        `mapstructure:"device_id"`
	UserID    string        `mapstructure:"user_id"`
}

// MetricsConfig holds the metrics endpoint settings
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the file representation of logger.DefaultConfig
func Default() *Config {
	d := logger.DefaultConfig()
	return &Config{
		Logger: LoggerConfig{
			Active:           d.Active,
			Propagate:        d.Propagate,
			Level:            d.Level.String(),
			Role:             d.Role.String(),
			LogToConsole:     d.LogToConsole,
			LogToStatus:      d.LogToStatus,
			LogToFile:        d.LogToFile,
			FileRotation:     d.FileRotation,
			AddPIDToFilename: d.AddPIDToFilename,
			Color:            d.Color,
			ProjectName:      d.ProjectName,
			ProjectFolder:    d.ProjectFolder,
			IncludeCallSite:  d.IncludeCallSite,
			FrameRate:        d.FrameRate,
			QueueCapacity:    d.QueueCapacity,
		},
		Remote: RemoteConfig{
			Transport: d.Remote.Transport,
			Timeout:   d.Remote.Timeout,
		},
	}
}

// SetDefaults registers every key with its default so that environment
// overrides work without a configuration file
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("logger.active", defaults.Logger.Active)
	v.SetDefault("logger.name", defaults.Logger.Name)
	v.SetDefault("logger.origin", defaults.Logger.Origin)
	v.SetDefault("logger.parent", defaults.Logger.Parent)
	v.SetDefault("logger.propagate", defaults.Logger.Propagate)
	v.SetDefault("logger.level", defaults.Logger.Level)
	v.SetDefault("logger.role", defaults.Logger.Role)
	v.SetDefault("logger.log_to_console", defaults.Logger.LogToConsole)
	v.SetDefault("logger.log_to_status", defaults.Logger.LogToStatus)
	v.SetDefault("logger.log_to_file", defaults.Logger.LogToFile)
	v.SetDefault("logger.log_folder", defaults.Logger.LogFolder)
	v.SetDefault("logger.file_rotation", defaults.Logger.FileRotation)
	v.SetDefault("logger.add_pid_to_filename", defaults.Logger.AddPIDToFilename)
	v.SetDefault("logger.log_app_errors", defaults.Logger.LogAppErrors)
	v.SetDefault("logger.color", defaults.Logger.Color)
	v.SetDefault("logger.project_name", defaults.Logger.ProjectName)
	v.SetDefault("logger.project_folder", defaults.Logger.ProjectFolder)
	v.SetDefault("logger.include_call_site", defaults.Logger.IncludeCallSite)
	v.SetDefault("logger.frame_rate", defaults.Logger.FrameRate)
	v.SetDefault("logger.queue_capacity", defaults.Logger.QueueCapacity)

	v.SetDefault("remote.enabled", defaults.Remote.Enabled)
	v.SetDefault("remote.transport", defaults.Remote.Transport)
	v.SetDefault("remote.url", defaults.Remote.URL)
	v.SetDefault("remote.token", defaults.Remote.Token)
	v.SetDefault("remote.subject", defaults.Remote.Subject)
	v.SetDefault("remote.timeout", defaults.Remote.Timeout)
	v.SetDefault("remote.device_id", defaults.Remote.DeviceID)
	v.SetDefault("remote.user_id", defaults.Remote.UserID)

	v.SetDefault("metrics.addr", defaults.Metrics.Addr)
}

// New creates a viper instance with defaults and environment overrides,
// reading path when given. A missing file is only an error when path was
// named explicitly.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hierlog")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return v, nil
}

// Load reads the configuration from v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return &cfg, nil
}

// ToLogger converts the file representation into a validated
// logger.Config with environment overrides applied
func (c *Config) ToLogger() (logger.Config, error) {
	level, err := types.ParseLevel(c.Logger.Level)
	if err != nil {
		return logger.Config{}, errors.Wrap(err, "logger.level")
	}

	cfg := logger.Config{
		Active:           c.Logger.Active,
		Name:             c.Logger.Name,
		Origin:           c.Logger.Origin,
		Parent:           c.Logger.Parent,
		Propagate:        c.Logger.Propagate,
		Level:            level,
		Role:             logger.ParseRole(c.Logger.Role),
		LogToConsole:     c.Logger.LogToConsole,
		LogToStatus:      c.Logger.LogToStatus,
		LogToFile:        c.Logger.LogToFile,
		LogFolder:        c.Logger.LogFolder,
		FileRotation:     c.Logger.FileRotation,
		AddPIDToFilename: c.Logger.AddPIDToFilename,
		LogAppErrors:     c.Logger.LogAppErrors,
		Color:            c.Logger.Color,
		ProjectName:      c.Logger.ProjectName,
		ProjectFolder:    c.Logger.ProjectFolder,
		IncludeCallSite:  c.Logger.IncludeCallSite,
		FrameRate:        c.Logger.FrameRate,
		QueueCapacity:    c.Logger.QueueCapacity,
		Remote: logger.RemoteConfig{
			Enabled:   c.Remote.Enabled,
			Transport: c.Remote.Transport,
			URL:       c.Remote.URL,
			Token:     c.Remote.Token,
			Subject:   c.Remote.Subject,
			Timeout:   c.Remote.Timeout,
			DeviceID:  c.Remote.DeviceID,
			UserID:    c.Remote.UserID,
		},
	}
	if err := cfg.Validate(); err != nil {
		return logger.Config{}, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ConfigDir returns the directory searched for hierlog.yaml
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hierlog")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hierlog"
	}
	return filepath.Join(home, ".config", "hierlog")
}
