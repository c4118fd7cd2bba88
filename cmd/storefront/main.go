package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/eventloop"
	"storefront/internal/services"
	"storefront/internal/services/fakeapi"
	"storefront/internal/session"
	"storefront/internal/storefront"
	"storefront/internal/ui"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.NewConfig()
	var demo bool

	cmd := &cobra.Command{
		Use:          "storefront",
		Short:        "Interactive storefront client: browse the menu, manage a cart and place orders",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg, demo)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "Base URL of the storefront API")
	flags.StringVar(&cfg.SessionBackend, "session-backend", cfg.SessionBackend, "Where the session is kept: file or redis")
	flags.StringVar(&cfg.SessionDir, "session-dir", cfg.SessionDir, "Directory for the file session backend")
	flags.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address for the redis session backend")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address when set")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	flags.BoolVar(&demo, "demo", false, "Run against a built-in in-memory API")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, demo bool) error {
	if demo {
		addr, stop, err := startDemoAPI()
		if err != nil {
			return err
		}
		defer stop()
		cfg.APIBaseURL = "http://" + addr
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	level, _ := config.ParseLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	slog.Info("Starting storefront", "api", cfg.APIBaseURL, "session_backend", cfg.SessionBackend)

	storage, closeStorage, err := newStorage(cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	var codec session.Codec
	if cfg.SessionSecret != "" {
		codec = session.NewSignedCodec(auth.NewSigner(cfg.SessionSecret), cfg.SessionTTL)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	loop := eventloop.New()
	go func() {
		if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Event loop stopped", "error", err)
		}
	}()

	term := ui.NewTerminal(os.Stdout)
	app := storefront.New(loop, services.NewServiceClient(cfg), session.NewStore(storage, codec), term)
	if err := app.Exec(func() error {
		app.Start(ctx)
		return nil
	}); err != nil {
		return err
	}

	shell := ui.NewShell(ctx, app, term)
	go func() {
		<-ctx.Done()
		shell.Close()
	}()
	shell.Run()
	return nil
}

func newStorage(cfg *config.Config) (session.Storage, func(), error) {
	if cfg.SessionBackend == config.SessionBackendRedis {
		client, err := cache.NewClient(cfg.RedisAddr, "storefront:")
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		slog.Info("Connected to Redis", "addr", cfg.RedisAddr)
		return session.NewRedisStorage(client, cfg.SessionTTL), func() { client.Close() }, nil
	}
	return session.NewFileStorage(afero.NewOsFs(), cfg.SessionDir), func() {}, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	slog.Info("Metrics server listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Metrics server error", "error", err)
	}
}

// startDemoAPI serves a seeded in-memory API on a loopback port.
func startDemoAPI() (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("start demo API: %w", err)
	}
	srv := &http.Server{Handler: fakeapi.Seeded()}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Demo API stopped", "error", err)
		}
	}()
	return ln.Addr().String(), func() { srv.Close() }, nil
}
