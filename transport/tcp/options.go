// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"github.com/rs/zerolog"

	"github.com/momentics/vee/control"
	"github.com/momentics/vee/internal/streamio"
	"github.com/momentics/vee/reactor"
)

// Option configures a Session or Server.
type Option = streamio.Option

// WithReactor selects the reactor that delivers completions.
func WithReactor(r *reactor.Reactor) Option { return streamio.WithReactor(r) }

// WithMetrics attaches a metrics registry.
func WithMetrics(m *control.Metrics) Option { return streamio.WithMetrics(m) }

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option { return streamio.WithLogger(log) }

// WithHost sets the listen host of a Server. The default is all interfaces.
func WithHost(host string) Option { return streamio.WithHost(host) }
