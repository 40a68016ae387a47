// control/config.go
// Author: momentics <momentics@gmail.com>
//
// TOML configuration and the live configuration store.

package control

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/momentics/vee/delegate"
	"github.com/momentics/vee/lock"
)

// Config is the full runtime configuration.
type Config struct {
	Reactor ReactorConfig `toml:"reactor"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// ReactorConfig sizes the completion reactor.
type ReactorConfig struct {
	Workers int `toml:"workers"` // worker goroutines, 0 = NumCPU
}

// ServerConfig describes the listening side.
type ServerConfig struct {
	Mode       string   `toml:"mode"` // tcp, ws or udp
	Host       string   `toml:"host"`
	Port       uint16   `toml:"port"`
	ReadBuffer int      `toml:"read_buffer"`
	IOTimeout  Duration `toml:"io_timeout"` // per read/write, 0 = none
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // auto, console or json
}

// Duration decodes TOML strings such as "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Reactor: ReactorConfig{
			Workers: runtime.NumCPU(),
		},
		Server: ServerConfig{
			Mode:       "tcp",
			Host:       "127.0.0.1",
			Port:       9000,
			ReadBuffer: 4096,
			IOTimeout:  Duration{30 * time.Second},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// LoadFile overlays the TOML file at path onto the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "tcp", "ws", "udp":
	default:
		return fmt.Errorf("config: server.mode %q must be tcp, ws or udp", c.Server.Mode)
	}
	if c.Reactor.Workers < 0 {
		return fmt.Errorf("config: reactor.workers must not be negative")
	}
	if c.Server.ReadBuffer <= 0 {
		return fmt.Errorf("config: server.read_buffer must be positive")
	}
	if c.Server.IOTimeout.Duration < 0 {
		return fmt.Errorf("config: server.io_timeout must not be negative")
	}
	switch c.Log.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("config: log.format %q must be auto, console or json", c.Log.Format)
	}
	return nil
}

// ConfigStore holds the live configuration and notifies reload listeners.
type ConfigStore struct {
	mu        sync.RWMutex
	config    *Config
	listeners *delegate.Delegate[*Config, string]
}

// NewConfigStore initializes a store holding cfg.
func NewConfigStore(cfg *Config) *ConfigStore {
	return &ConfigStore{
		config:    cfg,
		listeners: delegate.New[*Config, string](lock.Blocking),
	}
}

// Get returns the current snapshot. Callers must not mutate it.
func (cs *ConfigStore) Get() *Config {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// Set validates and installs cfg, then calls every listener with it.
func (cs *ConfigStore) Set(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cs.mu.Lock()
	cs.config = cfg
	cs.mu.Unlock()
	cs.listeners.Invoke(cfg)
	return nil
}

// OnReload registers fn under name. Names are unique.
func (cs *ConfigStore) OnReload(name string, fn func(*Config)) error {
	return cs.listeners.AddKeyed(name, fn)
}

// RemoveReload drops the listener registered under name.
func (cs *ConfigStore) RemoveReload(name string) error {
	return cs.listeners.RemoveKey(name)
}
