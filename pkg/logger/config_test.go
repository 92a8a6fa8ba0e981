package logger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artcraftzone/hierlog/pkg/remote"
	"github.com/artcraftzone/hierlog/pkg/types"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Active)
	assert.True(t, cfg.Propagate)
	assert.True(t, cfg.LogToConsole)
	assert.Equal(t, types.LevelInfo, cfg.Level)
	assert.Equal(t, DefaultQueueCapacity, cfg.QueueCapacity)
	assert.Equal(t, remote.TransportHTTP, cfg.Remote.Transport)
	assert.Equal(t, remote.DefaultTimeout, cfg.Remote.Timeout)
	assert.NotEmpty(t, cfg.ProjectName)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
		check   func(*testing.T, Config)
	}{
		{
			name: "fills defaults",
			mutate: func(c *Config) {
				c.QueueCapacity = 0
				c.FileRotation = -3
				c.Remote.Timeout = 0
				c.Remote.Transport = ""
			},
			check: func(t *testing.T, c Config) {
				assert.Equal(t, DefaultQueueCapacity, c.QueueCapacity)
				assert.Equal(t, 0, c.FileRotation)
				assert.Equal(t, remote.DefaultTimeout, c.Remote.Timeout)
				assert.Equal(t, remote.TransportHTTP, c.Remote.Transport)
			},
		},
		{
			name:    "unknown level",
			mutate:  func(c *Config) { c.Level = types.Level(99) },
			wantErr: types.ErrUnknownLevel,
		},
		{
			name:   "remote without url is left to New",
			mutate: func(c *Config) { c.Remote.Enabled = true },
			check: func(t *testing.T, c Config) {
				assert.True(t, c.Remote.Enabled)
			},
		},
		{
			name:   "unknown transport",
			mutate: func(c *Config) { c.Remote.Transport = "carrier-pigeon" },
		},
		{
			name:   "app role drops parent",
			mutate: func(c *Config) { c.Role = RoleApp; c.Parent = "Root" },
			check: func(t *testing.T, c Config) {
				assert.Empty(t, c.Parent)
			},
		},
		{
			name:   "notset level is allowed",
			mutate: func(c *Config) { c.Level = types.LevelNotSet; c.Remote.Timeout = time.Second },
			check: func(t *testing.T, c Config) {
				assert.Equal(t, types.LevelNotSet, c.Level)
				assert.Equal(t, time.Second, c.Remote.Timeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			case tt.check == nil:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				tt.check(t, cfg)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleApp, ParseRole("App"))
	assert.Equal(t, RoleSystem, ParseRole(" system "))
	assert.Equal(t, RoleSystem, ParseRole("sys"))
	assert.Equal(t, RoleNone, ParseRole(""))
	assert.Equal(t, RoleNone, ParseRole("other"))
	assert.Equal(t, "app", RoleApp.String())
	assert.Equal(t, "none", RoleNone.String())
}

func TestSystemEnvIgnoredForOtherRoles(t *testing.T) {
	t.Setenv(SysLogLevelEnv, "CRITICAL")
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, types.LevelInfo, cfg.Level)

	cfg.Role = RoleSystem
	cfg.ApplyEnv()
	assert.Equal(t, types.LevelCritical, cfg.Level)
}

func TestRemoteEndpointRequired(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Remote.Enabled = true

	_, err := New(cfg, WithErrorHandler(SilentErrorHandler))
	assert.True(t, errors.Is(err, remote.ErrNoTransport), "got %v", err)

	l, err := New(cfg, WithTransport(&fakeTransport{}), WithErrorHandler(SilentErrorHandler))
	require.NoError(t, err)
	defer l.Close()
	assert.Equal(t, remote.StateIdle, l.RemoteState())
}

func TestLogErrorFormatting(t *testing.T) {
	cause := errors.New("disk full")
	e := LogError{Operation: "write", Destination: "app.log", Message: "write failed", Err: cause}

	assert.Equal(t, "write app.log: write failed: disk full", e.Error())
	assert.True(t, errors.Is(e, cause))
	assert.Equal(t, "open x: denied", LogError{Operation: "open", Destination: "x", Message: "denied"}.Error())
	assert.True(t, isTestMode())
}
