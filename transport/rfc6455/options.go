// File: transport/rfc6455/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package rfc6455

import (
	"github.com/rs/zerolog"

	"github.com/momentics/vee/control"
	"github.com/momentics/vee/internal/streamio"
	"github.com/momentics/vee/reactor"
)

// Option configures a Session or Server.
type Option func(*options)

type options struct {
	stream []streamio.Option
	path   string
}

func collect(opts []Option) options {
	o := options{path: "/"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func streamOpt(so streamio.Option) Option {
	return func(o *options) { o.stream = append(o.stream, so) }
}

// WithReactor selects the reactor that delivers completions.
func WithReactor(r *reactor.Reactor) Option { return streamOpt(streamio.WithReactor(r)) }

// WithMetrics attaches a metrics registry.
func WithMetrics(m *control.Metrics) Option { return streamOpt(streamio.WithMetrics(m)) }

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option { return streamOpt(streamio.WithLogger(log)) }

// WithHost sets the listen host of a Server.
func WithHost(host string) Option { return streamOpt(streamio.WithHost(host)) }

// WithPath sets the request path a client session upgrades on. Servers
// accept any path.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}
