package control_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/vee/control"
	"github.com/momentics/vee/delegate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vee.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, control.DefaultConfig().Validate())
}

func TestLoadFile_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
[reactor]
workers = 3

[server]
mode = "ws"
port = 9100
io_timeout = "250ms"

[log]
level = "debug"
`)
	cfg, err := control.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Reactor.Workers)
	assert.Equal(t, "ws", cfg.Server.Mode)
	assert.Equal(t, uint16(9100), cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.IOTimeout.Duration)
	assert.Equal(t, 4096, cfg.Server.ReadBuffer, "unset keys keep defaults")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Log.Format)
}

func TestLoadFile_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":  "[server]\nbogus = 1\n",
		"bad mode":     "[server]\nmode = \"sctp\"\n",
		"bad duration": "[server]\nio_timeout = \"soon\"\n",
		"bad format":   "[log]\nformat = \"xml\"\n",
		"bad buffer":   "[server]\nread_buffer = 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := control.LoadFile(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
	_, err := control.LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfigStore_ReloadListeners(t *testing.T) {
	store := control.NewConfigStore(control.DefaultConfig())
	var levels []string
	require.NoError(t, store.OnReload("log", func(c *control.Config) { levels = append(levels, c.Log.Level) }))
	assert.ErrorIs(t, store.OnReload("log", func(*control.Config) {}), delegate.ErrKeyAlreadyExists)

	next := control.DefaultConfig()
	next.Log.Level = "warn"
	require.NoError(t, store.Set(next))
	assert.Same(t, next, store.Get())
	assert.Equal(t, []string{"warn"}, levels)

	bad := control.DefaultConfig()
	bad.Server.Mode = "quic"
	require.Error(t, store.Set(bad))
	assert.Same(t, next, store.Get(), "invalid config is not installed")

	require.NoError(t, store.RemoveReload("log"))
	require.NoError(t, store.Set(control.DefaultConfig()))
	assert.Len(t, levels, 1)
	assert.ErrorIs(t, store.RemoveReload("log"), delegate.ErrTargetNotFound)
}
