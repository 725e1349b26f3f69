package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/alnah/go-html2pdf"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("html2pdfd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to YAML config file")
	port := fs.Int("port", 0, "listening port (overrides config and env)")
	verbose := fs.BoolP("verbose", "v", false, "enable debug logging")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if *showVersion {
		fmt.Println(Version)
		return 0
	}

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	warnUnknownEnvVars(os.Stderr)

	cfg, err := resolveConfig(*configPath, *port)
	if err != nil {
		logger.Error("configuration error", zap.Error(err))
		return 1
	}

	svc := html2pdf.New(
		html2pdf.WithTimeout(cfg.RenderTimeout()),
		html2pdf.WithMaxConcurrent(cfg.MaxConcurrent),
		html2pdf.WithLogger(logger),
	)

	// A server with no usable engine must not start accepting requests.
	if err := svc.WarmUp(); err != nil {
		logger.Error("browser launch failed", zap.Error(err))
		return 1
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Handler:           newServer(cfg, svc, logger).handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	logger.Info("listening",
		zap.Int("port", cfg.Port),
		zap.Int("max_concurrent", cfg.MaxConcurrent),
		zap.String("version", Version))

	select {
	case err := <-errc:
		logger.Error("server stopped", zap.Error(err))
		_ = svc.Close()
		return 1
	case <-ctx.Done():
	}

	// Shutdown does not wait for in-flight renders: connections are closed
	// immediately, then the browser is torn down and awaited before exit.
	logger.Info("shutting down")
	if err := srv.Close(); err != nil {
		logger.Warn("closing server", zap.Error(err))
	}
	if err := svc.Close(); err != nil {
		logger.Warn("closing browser", zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// resolveConfig merges configuration sources.
// Precedence: flags > environment > config file > defaults.
func resolveConfig(configPath string, flagPort int) (*Config, error) {
	env := loadEnvConfig()
	if configPath == "" {
		configPath = env.ConfigPath
	}

	cfg := DefaultConfig()
	if configPath != "" {
		loaded, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvConfig(env, cfg)

	if flagPort > 0 {
		cfg.Port = flagPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
