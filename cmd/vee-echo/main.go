// File: cmd/vee-echo/main.go
// Package main
// Echo server and client over the vee transports.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/control"
	"github.com/momentics/vee/internal/logging"
	"github.com/momentics/vee/reactor"
	"github.com/momentics/vee/transport/rfc6455"
	"github.com/momentics/vee/transport/tcp"
	"github.com/momentics/vee/transport/udp"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "vee-echo:", err)
		}
		os.Exit(1)
	}
}

type flags struct {
	fs         *flag.FlagSet
	configPath string
	mode       string
	host       string
	port       uint16
	workers    int
	timeout    time.Duration
	readBuffer int
	logLevel   string
	logFormat  string
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{fs: flag.NewFlagSet("vee-echo", flag.ContinueOnError)}
	fs := f.fs
	fs.StringVarP(&f.configPath, "config", "c", "", "TOML config file, reloaded on SIGHUP")
	fs.StringVarP(&f.mode, "mode", "m", "", "transport: tcp, ws or udp")
	fs.StringVarP(&f.host, "host", "H", "", "listen or target host")
	fs.Uint16VarP(&f.port, "port", "p", 0, "listen or target port")
	fs.IntVarP(&f.workers, "workers", "w", 0, "reactor workers (0 = NumCPU)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "per read/write timeout")
	fs.IntVar(&f.readBuffer, "read-buffer", 0, "read buffer size in bytes")
	fs.StringVarP(&f.logLevel, "log-level", "l", "", "trace, debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "", "auto, console or json")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: vee-echo [flags] serve\n       vee-echo [flags] send <message>...\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// load reads the config file, if any, and overlays the flags that were set.
func (f *flags) load() (*control.Config, error) {
	cfg := control.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = control.LoadFile(f.configPath); err != nil {
			return nil, err
		}
	}
	set := map[string]func(){
		"mode":        func() { cfg.Server.Mode = f.mode },
		"host":        func() { cfg.Server.Host = f.host },
		"port":        func() { cfg.Server.Port = f.port },
		"workers":     func() { cfg.Reactor.Workers = f.workers },
		"timeout":     func() { cfg.Server.IOTimeout.Duration = f.timeout },
		"read-buffer": func() { cfg.Server.ReadBuffer = f.readBuffer },
		"log-level":   func() { cfg.Log.Level = f.logLevel },
		"log-format":  func() { cfg.Log.Format = f.logFormat },
	}
	for name, apply := range set {
		if f.fs.Changed(name) {
			apply()
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	f, err := parseFlags(args)
	if err != nil {
		return err
	}
	rest := f.fs.Args()
	if len(rest) == 0 {
		f.fs.Usage()
		return fmt.Errorf("missing command")
	}
	cfg, err := f.load()
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}

	metrics := control.NewMetrics()
	r := reactor.New(reactor.Config{Workers: cfg.Reactor.Workers},
		reactor.WithLogger(log), reactor.WithMetrics(metrics))
	defer r.Close()

	switch rest[0] {
	case "serve":
		store := control.NewConfigStore(cfg)
		return serve(ctx, f, store, r, metrics, log)
	case "send":
		if len(rest) < 2 {
			return fmt.Errorf("send: missing message")
		}
		return send(cfg, r, log, strings.Join(rest[1:], " "), stdout)
	default:
		return fmt.Errorf("unknown command %q", rest[0])
	}
}

func newServer(cfg *control.Config, r *reactor.Reactor, m *control.Metrics, log zerolog.Logger) (api.Server, error) {
	sc := cfg.Server
	switch sc.Mode {
	case "tcp":
		return tcp.NewServer(sc.Port, tcp.WithHost(sc.Host), tcp.WithReactor(r),
			tcp.WithMetrics(m), tcp.WithLogger(log)), nil
	case "ws":
		return rfc6455.NewServer(sc.Port, rfc6455.WithHost(sc.Host), rfc6455.WithReactor(r),
			rfc6455.WithMetrics(m), rfc6455.WithLogger(log)), nil
	}
	return nil, fmt.Errorf("serve: mode %s: %w", sc.Mode, api.ErrNotSupported)
}

func newClient(cfg *control.Config, r *reactor.Reactor, log zerolog.Logger) api.NetStream {
	switch cfg.Server.Mode {
	case "ws":
		return rfc6455.NewSession(rfc6455.WithReactor(r), rfc6455.WithLogger(log))
	case "udp":
		return udp.NewStream(udp.WithReactor(r), udp.WithLogger(log))
	}
	return tcp.NewSession(tcp.WithReactor(r), tcp.WithLogger(log))
}

func serve(ctx context.Context, f *flags, store *control.ConfigStore, r *reactor.Reactor,
	metrics *control.Metrics, log zerolog.Logger) error {
	cfg := store.Get()
	srv, err := newServer(cfg, r, metrics, log)
	if err != nil {
		return err
	}
	if err := srv.Open(); err != nil {
		return err
	}
	es, err := newEchoServer(srv, cfg.Server.ReadBuffer, cfg.Server.IOTimeout.Duration, log)
	if err != nil {
		srv.Close()
		return err
	}
	metrics.RegisterProbe("echo.sessions", func() any { return es.count() })

	err = store.OnReload("log-level", func(c *control.Config) {
		level, _ := logging.ParseLevel(c.Log.Level)
		zerolog.SetGlobalLevel(level)
		log.Info().Str("level", level.String()).Msg("log level applied")
	})
	if err == nil {
		err = store.OnReload("io-timeout", func(c *control.Config) {
			es.setTimeout(c.Server.IOTimeout.Duration)
		})
	}
	if err != nil {
		srv.Close()
		return err
	}

	es.start()
	log.Info().Str("mode", cfg.Server.Mode).Str("host", cfg.Server.Host).
		Uint16("port", srv.Port()).Msg("echo server started")

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-hup:
			next, err := f.load()
			if err == nil {
				err = store.Set(next)
			}
			if err != nil {
				log.Error().Err(err).Msg("reload rejected")
				continue
			}
			log.Info().Msg("configuration reloaded")
		case <-ctx.Done():
			es.stop()
			log.Info().Interface("metrics", metrics.Snapshot()).Msg("echo server stopped")
			return nil
		}
	}
}

// send connects asynchronously, writes msg and prints the echo.
func send(cfg *control.Config, r *reactor.Reactor, log zerolog.Logger, msg string, stdout io.Writer) error {
	s := newClient(cfg, r, log)
	timeout := cfg.Server.IOTimeout.Duration

	connected := make(chan *api.AsyncConnectInfo, 1)
	onConnect := api.NewConnectDelegate()
	if err := onConnect.AddKeyed(0, func(info *api.AsyncConnectInfo) { connected <- info }); err != nil {
		return err
	}
	s.AsyncConnect(cfg.Server.Host, cfg.Server.Port, onConnect, timeout)
	if ci := <-connected; !ci.IsSuccess {
		return fmt.Errorf("connect %s:%d: %w", cfg.Server.Host, cfg.Server.Port, ci.Err)
	}
	defer s.Disconnect()

	if err := writeAll(s, []byte(msg), timeout); err != nil {
		return err
	}
	buf := make([]byte, cfg.Server.ReadBuffer)
	got := 0
	for got < len(msg) {
		n, err := s.ReadSome(buf[got:], timeout)
		if err != nil {
			return fmt.Errorf("read echo: %w", err)
		}
		got += n
		if got == len(buf) {
			break
		}
	}
	fmt.Fprintln(stdout, string(buf[:got]))
	return nil
}

func writeAll(s api.SyncStream, p []byte, timeout time.Duration) error {
	for len(p) > 0 {
		n, err := s.WriteSome(p, timeout)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		p = p[n:]
	}
	return nil
}
