package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/yndnr/relog-go/internal/infra/buildinfo"
	"github.com/yndnr/relog-go/internal/infra/confloader"
	"github.com/yndnr/relog-go/internal/infra/shutdown"
	"github.com/yndnr/relog-go/internal/kvstore"
	"github.com/yndnr/relog-go/internal/server/config"
	"github.com/yndnr/relog-go/internal/server/httpserver"
	"github.com/yndnr/relog-go/internal/server/localserver"
	"github.com/yndnr/relog-go/internal/telemetry/logger"
	"github.com/yndnr/relog-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.StringP("config", "c", "", "Path to configuration file (YAML, or JSON with comments)")
		dataDir     = flag.StringP("data-dir", "d", "", "Journal directory (overrides storage.data_dir)")
		httpAddr    = flag.String("http-addr", "", "HTTP listen address (overrides server.http.addr)")
		logLevel    = flag.String("log-level", "", "Log level (overrides log.level)")
		showVersion = flag.BoolP("version", "v", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("relog-server " + buildinfo.String())
		return nil
	}

	overrides := map[string]any{}
	if *dataDir != "" {
		overrides["storage.data_dir"] = *dataDir
	}
	if flag.CommandLine.Changed("http-addr") {
		overrides["server.http.addr"] = *httpAddr
	}
	if flag.CommandLine.Changed("log-level") {
		overrides["log.level"] = *logLevel
	}
	cfg, err := config.Load(*configFile, overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting relog-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
	)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	cipher, err := cfg.Security.NewCipher()
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}

	reg := metric.NewRegistry()
	store, err := kvstore.Open(kvstore.Config{
		Dir:        cfg.Storage.DataDir,
		SyncWrites: cfg.Storage.SyncWrites,
		Cipher:     cipher,
		Policy: kvstore.SnapshotPolicy{
			Interval:     cfg.Storage.SnapshotInterval,
			MaxLogBytes:  cfg.Storage.SnapshotMaxLogBytes,
			EveryUpdates: cfg.Storage.SnapshotEveryUpdates,
			MinInterval:  cfg.Storage.SnapshotMinInterval,
		},
		Shards:  cfg.Storage.Shards,
		Logger:  log,
		Metrics: reg.Journal,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err := reg.Register(metric.NewStoreCollector(store)); err != nil {
		store.Close()
		return fmt.Errorf("register store metrics: %w", err)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Store:        store,
		Metrics:      reg,
		Logger:       log,
		MaxBodyBytes: cfg.Server.HTTP.MaxBodyBytes,
		RateLimit:    cfg.Server.HTTP.RateLimit,
		RateBurst:    cfg.Server.HTTP.RateBurst,
	})
	srv := httpserver.New(cfg.Server.HTTP, router, log)

	sh := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, shutdown.WithLogger(log))

	// Hooks run newest first: HTTP stops before the store closes.
	sh.OnShutdown("store", func(context.Context) error {
		return store.Close()
	})
	sh.OnShutdown("http", srv.Shutdown)

	if path := cfg.Server.Local.SocketPath; path != "" {
		local := localserver.New(path, httpserver.NewRouter(&httpserver.RouterConfig{
			Store:        store,
			Metrics:      reg,
			Logger:       log.With("listener", "local"),
			MaxBodyBytes: cfg.Server.HTTP.MaxBodyBytes,
		}), log)
		if err := local.Listen(); err != nil {
			sh.Shutdown()
			return err
		}
		sh.OnShutdown("local", local.Shutdown)
		go func() {
			if err := local.Serve(); err != nil {
				log.Error("local socket failed", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	if *configFile != "" {
		if err := watchConfig(ctx, *configFile, overrides, log); err != nil {
			log.Warn("config reload disabled", "error", err)
		}
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Error("http server failed", "error", err)
			cancel(err)
		}
	}()

	log.Info("server started", "data_dir", cfg.Storage.DataDir)
	if err := sh.Wait(ctx); err != nil {
		return err
	}
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	log.Info("server stopped gracefully")
	return nil
}

// watchConfig reloads the config file on change and applies log.level.
// Other settings need a restart. Flag overrides keep winning.
func watchConfig(ctx context.Context, path string, overrides map[string]any, log *slog.Logger) error {
	w, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(log))
	if err != nil {
		return err
	}
	w.OnChange(func(path string) {
		cfg, err := config.Load(path, overrides)
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if cfg.Log.Level == logger.Level() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	go w.Run(ctx)
	return nil
}
