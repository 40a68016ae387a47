// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics: lock-free counters plus named debug probes.
// A nil *Metrics is a valid no-op receiver.

package control

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts reactor operations and transport traffic.
type Metrics struct {
	opsPosted         atomic.Int64
	opsCompleted      atomic.Int64
	opsAborted        atomic.Int64
	opsPanicked       atomic.Int64
	bytesRead         atomic.Int64
	bytesWritten      atomic.Int64
	sessionsAccepted  atomic.Int64
	sessionsConnected atomic.Int64

	mu      sync.RWMutex
	probes  map[string]func() any
	started time.Time
}

// NewMetrics creates an empty registry.
func NewMetrics() *Metrics {
	return &Metrics{
		probes:  make(map[string]func() any),
		started: time.Now(),
	}
}

func (m *Metrics) OpPosted() {
	if m != nil {
		m.opsPosted.Add(1)
	}
}

func (m *Metrics) OpCompleted() {
	if m != nil {
		m.opsCompleted.Add(1)
	}
}

func (m *Metrics) OpAborted() {
	if m != nil {
		m.opsAborted.Add(1)
	}
}

func (m *Metrics) OpPanicked() {
	if m != nil {
		m.opsPanicked.Add(1)
	}
}

func (m *Metrics) BytesRead(n int) {
	if m != nil && n > 0 {
		m.bytesRead.Add(int64(n))
	}
}

func (m *Metrics) BytesWritten(n int) {
	if m != nil && n > 0 {
		m.bytesWritten.Add(int64(n))
	}
}

func (m *Metrics) SessionAccepted() {
	if m != nil {
		m.sessionsAccepted.Add(1)
	}
}

func (m *Metrics) SessionConnected() {
	if m != nil {
		m.sessionsConnected.Add(1)
	}
}

// RegisterProbe adds a named value computed at snapshot time.
func (m *Metrics) RegisterProbe(name string, fn func() any) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes[name] = fn
}

// Snapshot returns counters and probe values.
func (m *Metrics) Snapshot() map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := map[string]any{
		"ops.posted":         m.opsPosted.Load(),
		"ops.completed":      m.opsCompleted.Load(),
		"ops.aborted":        m.opsAborted.Load(),
		"ops.panicked":       m.opsPanicked.Load(),
		"bytes.read":         m.bytesRead.Load(),
		"bytes.written":      m.bytesWritten.Load(),
		"sessions.accepted":  m.sessionsAccepted.Load(),
		"sessions.connected": m.sessionsConnected.Load(),
		"uptime":             time.Since(m.started).Round(time.Millisecond).String(),
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for k, fn := range m.probes {
		out[k] = fn()
	}
	return out
}
