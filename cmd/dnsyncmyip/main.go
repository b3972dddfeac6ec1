// dnsyncmyip keeps a DNS A record pointed at the host's public IPv4 address.
// It discovers the address through an IP-echo name server, looks the record
// up through a DNS hosting provider and creates or updates it when the
// address changed. With an interval configured it repeats the sync and
// serves health and metrics endpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gitlab.bluewillows.net/root/dnsyncmyip/internal/config"
	"gitlab.bluewillows.net/root/dnsyncmyip/internal/discovery"
	"gitlab.bluewillows.net/root/dnsyncmyip/internal/health"
	"gitlab.bluewillows.net/root/dnsyncmyip/internal/metrics"
	"gitlab.bluewillows.net/root/dnsyncmyip/internal/syncer"
	"gitlab.bluewillows.net/root/dnsyncmyip/pkg/provider"
	"gitlab.bluewillows.net/root/dnsyncmyip/providers/cloudflare"
	"gitlab.bluewillows.net/root/dnsyncmyip/providers/digitalocean"
	"gitlab.bluewillows.net/root/dnsyncmyip/providers/rfc2136"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// errUsage marks command-line errors, which exit with status 2.
var errUsage = errors.New("usage error")

// loggedError wraps an error that was already logged where it happened.
type loggedError struct {
	err error
}

func (e *loggedError) Error() string { return e.err.Error() }
func (e *loggedError) Unwrap() error { return e.err }

type options struct {
	configFile    string
	dryRun        bool
	once          bool
	showVersion   bool
	listProviders bool
}

func main() {
	os.Exit(exitCode(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	case errors.As(err, new(*loggedError)):
		return exitError
	default:
		slog.Error("fatal error", slog.String("error", err.Error()))
		return exitError
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("dnsyncmyip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "path to a YAML or TOML configuration file")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "decide the change but do not write it")
	fs.BoolVar(&opts.once, "once", false, "sync once and exit even if an interval is configured")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	fs.BoolVar(&opts.listProviders, "list-providers", false, "print the available providers and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return nil, fmt.Errorf("%w: unexpected arguments", errUsage)
	}

	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "dnsyncmyip %s (built %s, %s)\n", Version, BuildDate, runtime.Version())
		return nil
	}

	registry := provider.NewRegistry(slog.Default())
	registerProviderFactories(registry)

	if opts.listProviders {
		for _, label := range registry.Labels() {
			fmt.Fprintln(stdout, label)
		}
		return nil
	}

	var loadOpts []config.LoadOption
	if opts.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(opts.configFile))
	}
	cfg, err := config.Load(loadOpts...)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if opts.dryRun {
		cfg.DryRun = true
	}
	if opts.once {
		cfg.Interval = 0
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	metrics.SetBuildInfo(Version, runtime.Version())

	logger.Info("dnsyncmyip starting",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("go_version", runtime.Version()),
		slog.String("provider", cfg.Provider),
		slog.String("domain", cfg.Domain),
		slog.String("host", cfg.Host),
		slog.Bool("dry_run", cfg.DryRun),
	)

	userAgent := "dnsyncmyip/" + Version
	p, err := registry.New(cfg.Provider, cfg.ProviderConfig(userAgent, logger))
	if err != nil {
		return err
	}

	resolver, err := newResolver(cfg, logger)
	if err != nil {
		return err
	}

	session, err := syncer.New(p,
		syncer.WithResolver(resolver),
		syncer.WithLogger(logger),
		syncer.WithDryRun(cfg.DryRun),
	)
	if err != nil {
		return fmt.Errorf("creating sync session: %w", err)
	}

	if cfg.RunOnce() {
		// Sync logs its own failures.
		if _, err := session.Sync(ctx, cfg.Host); err != nil {
			return &loggedError{err: err}
		}
		return nil
	}

	return runLoop(ctx, cfg, session, logger)
}

// runLoop syncs on every tick until SIGINT or SIGTERM. A failed pass is
// reported through /ready; the next tick runs a fresh sync.
func runLoop(ctx context.Context, cfg *config.Config, session *syncer.Session, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker := health.NewSyncTracker()

	healthServer := health.New(cfg.HealthPort, health.WithLogger(logger))
	healthServer.RegisterChecker("sync", tracker.Ready)
	healthServer.RegisterDegradedChecker("sync", tracker.Stale(2*cfg.Interval))
	if pinger, ok := session.Provider().(provider.Pinger); ok {
		healthServer.RegisterChecker("provider:"+session.Provider().Name(), pinger.Ping)
	}

	if err := healthServer.Start(); err != nil {
		return fmt.Errorf("starting health server: %w", err)
	}

	syncOnce := func() {
		_, err := session.Sync(ctx, cfg.Host)
		if err != nil && ctx.Err() != nil {
			return
		}
		tracker.Record(err)
	}

	logger.Info("periodic sync enabled",
		slog.Duration("interval", cfg.Interval),
		slog.Int("health_port", cfg.HealthPort),
	)

	syncOnce()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			syncOnce()
		}
	}

	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("dnsyncmyip shutdown complete")
	return nil
}

// newResolver returns the static resolver when an address is configured,
// otherwise the IP-echo resolver with any configured overrides.
func newResolver(cfg *config.Config, logger *slog.Logger) (discovery.Resolver, error) {
	if cfg.StaticIP != "" {
		logger.Info("public IP discovery disabled, using configured address",
			slog.String("ip", cfg.StaticIP),
		)
		return discovery.NewStatic(cfg.StaticIP)
	}

	opts := []discovery.Option{discovery.WithLogger(logger)}
	if server := cfg.ResolverServer; server != "" {
		host, port, err := net.SplitHostPort(server)
		if err != nil {
			opts = append(opts, discovery.WithResolverHost(server))
		} else {
			n, err := strconv.Atoi(port)
			if err != nil {
				return nil, provider.ErrConfigInvalid("resolver_server", server, "invalid port")
			}
			opts = append(opts, discovery.WithResolverHost(host), discovery.WithPort(n))
		}
	}
	if cfg.EchoName != "" {
		opts = append(opts, discovery.WithEchoName(cfg.EchoName))
	}

	return discovery.NewDNSResolver(opts...), nil
}

func registerProviderFactories(registry *provider.Registry) {
	registry.Register("digitalocean", digitalocean.Factory())
	registry.Register("cloudflare", cloudflare.Factory())
	registry.Register("rfc2136", rfc2136.Factory())
}

func setupLogger(level, format string) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
