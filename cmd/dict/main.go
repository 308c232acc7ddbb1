package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/pior/dict"
	"github.com/pior/dict/internal/promexporter"
	"github.com/pior/dict/protocol"
)

const usage = `Usage: dict [flags] [dict://host[:port]/[d:word[:db[:n]] | m:word[:db[:strategy[:n]]]] | word...]

With a dict:// URL, run its action and exit. With words, define them and
exit. Without arguments, start an interactive shell.

Flags:
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "dict: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dict", "config.toml")
}

func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("dict", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), usage)
		flags.PrintDefaults()
	}

	configPath := flags.String("config", defaultConfigPath(), "TOML config file")
	server := flags.String("server", "", "server host[:port] (overrides config)")
	database := flags.String("db", "", "database name (overrides config)")
	strategy := flags.String("strategy", "", "match strategy (overrides config)")
	timeout := flags.Duration("timeout", 0, "per-command timeout (overrides config)")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	metricsAddr := flags.String("metrics-addr", "", "serve Prometheus metrics on this address (overrides config)")
	matchMode := flags.Bool("match", false, "match the words instead of defining them")

	if err := flags.Parse(args); err != nil {
		return err
	}

	explicit := false
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	cfg, err := loadCLIConfig(*configPath, explicit)
	if err != nil {
		return err
	}
	if *server != "" {
		cfg.Server = *server
	}
	if *database != "" {
		cfg.Database = *database
	}
	if *strategy != "" {
		cfg.Strategy = *strategy
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	if *logLevel != "" {
		level, err := zerolog.ParseLevel(*logLevel)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		cfg.LogLevel = level
	}

	logger := initLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	positional := flags.Args()
	if len(positional) == 1 && strings.HasPrefix(positional[0], "dict://") {
		return lookupTarget(ctx, positional[0], cfg, logger, out)
	}

	client, err := dict.NewClient(serverAddr(cfg.Server), clientConfig(cfg, logger))
	if err != nil {
		return err
	}
	defer client.Close()

	if cfg.MetricsAddr != "" {
		_, stopMetrics, err := serveMetrics(cfg.MetricsAddr, client, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	sh := newShell(client, out, cfg)

	if len(positional) > 0 {
		word := strings.Join(positional, " ")
		ctx, cancel := sh.withTimeout(ctx)
		defer cancel()
		if *matchMode {
			matches, err := client.Match(ctx, sh.database, sh.strategy, word)
			if err != nil {
				return errors.New(describeError(err))
			}
			printMatches(out, matches)
			return nil
		}
		defs, err := client.Define(ctx, sh.database, word)
		if err != nil {
			return errors.New(describeError(err))
		}
		printDefinitions(out, defs)
		return nil
	}

	le := newLineEditor(os.Stdin, out)
	defer le.close()

	if le.interactive {
		greeting, err := client.Greeting(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Connected to %s\n%s\nType 'help' for available commands.\n", client.Addr(), greeting.Text)
	}

	return sh.run(ctx, le)
}

// initLogger writes human readable logs to stderr.
func initLogger(level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "dict").Logger()
}

// serverAddr adds the default port to a bare host.
func serverAddr(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	host := strings.TrimSuffix(strings.TrimPrefix(server, "["), "]")
	return net.JoinHostPort(host, strconv.Itoa(protocol.DefaultPort))
}

func clientConfig(cfg cliConfig, logger zerolog.Logger) dict.Config {
	config := dict.Config{
		ClientName:  cfg.ClientName,
		DialTimeout: cfg.Timeout,
		CacheSize:   cfg.CacheSize,
		CacheTTL:    cfg.CacheTTL,
		Logger:      &logger,
	}

	if cfg.BreakerFailures > 0 {
		failures := cfg.BreakerFailures
		config.NewCircuitBreaker = func(serverAddr string) *gobreaker.CircuitBreaker[bool] {
			return gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
				Name:         serverAddr,
				Timeout:      cfg.BreakerTimeout,
				IsSuccessful: dict.IsCircuitBreakerSuccess,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= failures
				},
			})
		}
	}

	return config
}

// serveMetrics exposes the client statistics on addr/metrics until the
// returned function is called.
func serveMetrics(addr string, client *dict.Client, logger zerolog.Logger) (net.Addr, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen for metrics: %w", err)
	}

	server := &http.Server{
		Handler:           promexporter.NewExporter(client).Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str("addr", listener.Addr().String()).Msg("serving metrics")

	return listener.Addr(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}

// lookupTarget connects to the server named by a dict:// URL and runs its action.
func lookupTarget(ctx context.Context, raw string, cfg cliConfig, logger zerolog.Logger, out io.Writer) error {
	target, err := dict.ParseTarget(raw)
	if err != nil {
		return err
	}

	client, err := dict.NewClientForTarget(target, clientConfig(cfg, logger))
	if err != nil {
		return err
	}
	defer client.Close()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	result, err := client.Lookup(ctx, target.Action)
	if err != nil {
		return errors.New(describeError(err))
	}

	switch target.Action.Kind {
	case dict.ActionDefine:
		printDefinitions(out, result.Definitions)
	case dict.ActionMatch:
		printMatches(out, result.Matches)
	default:
		greeting, err := client.Greeting(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, greeting.Text)
	}
	return nil
}
