// File: internal/streamio/env.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streamio

import (
	"github.com/rs/zerolog"

	"github.com/momentics/vee/control"
	"github.com/momentics/vee/reactor"
)

// Env carries the collaborators of a session or server.
type Env struct {
	Reactor *reactor.Reactor
	Metrics *control.Metrics
	Log     zerolog.Logger
	Host    string // listen host for servers, "" = all interfaces
}

// Option customizes an Env.
type Option func(*Env)

// NewEnv applies opts over the defaults: the shared reactor and a no-op logger.
func NewEnv(component string, opts ...Option) Env {
	env := Env{Log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&env)
	}
	if env.Reactor == nil {
		env.Reactor = reactor.Default()
	}
	env.Log = env.Log.With().Str("component", component).Logger()
	return env
}

func WithReactor(r *reactor.Reactor) Option {
	return func(e *Env) { e.Reactor = r }
}

func WithMetrics(m *control.Metrics) Option {
	return func(e *Env) { e.Metrics = m }
}

func WithLogger(log zerolog.Logger) Option {
	return func(e *Env) { e.Log = log }
}

func WithHost(host string) Option {
	return func(e *Env) { e.Host = host }
}
