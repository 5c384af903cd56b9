package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/httpapi"
	"github.com/MrEthical07/goAccount/internal/config"
	"github.com/MrEthical07/goAccount/internal/logger"
	promexport "github.com/MrEthical07/goAccount/metrics/export/prometheus"
	"github.com/MrEthical07/goAccount/store"
)

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the account HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			app := fx.New(
				fx.Provide(
					func() (config.Config, error) { return provideConfig(*configPath) },
					provideLogger,
					provideEngineConfig,
					provideStore,
					fx.Annotate(newMailer, fx.As(new(goAccount.Mailer))),
					provideEngine,
					promexport.New,
					provideServer,
				),
				fx.Invoke(startServer),
				fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
					return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
				}),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func provideConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	return logger.Init(cfg.Log.Level, cfg.Log.Format)
}

// provideEngineConfig maps and lints the engine settings. Lint findings are
// logged, never fatal.
func provideEngineConfig(cfg config.Config, log *slog.Logger) (goAccount.Config, error) {
	out, err := cfg.EngineConfig()
	if err != nil {
		return out, err
	}
	for _, w := range out.Lint() {
		log.Warn("config lint",
			slog.String("code", w.Code),
			slog.String("severity", w.Severity.String()),
			slog.String("message", w.Message),
		)
	}
	return out, nil
}

func provideStore(lc fx.Lifecycle, cfg config.Config, log *slog.Logger) (store.Store, error) {
	st, err := openStore(context.Background(), cfg.Database.URL, log.With(slog.String("component", "store")))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := st.Close(); err != nil {
				return fmt.Errorf("close store: %w", err)
			}
			return nil
		},
	})
	return st, nil
}

func provideEngine(lc fx.Lifecycle, cfg goAccount.Config, st store.Store, mailer goAccount.Mailer, log *slog.Logger) (*goAccount.Engine, error) {
	engine, err := goAccount.New().
		WithConfig(cfg).
		WithStore(st).
		WithMailer(mailer).
		WithLogger(log).
		WithAuditSink(goAccount.NewSlogSink(log.With(slog.String("component", "audit")))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			engine.Close()
			return nil
		},
	})
	return engine, nil
}

func provideServer(cfg config.Config, log *slog.Logger, engine *goAccount.Engine, metrics *promexport.Exporter) *httpapi.Server {
	return httpapi.NewAccountServer(log, cfg.Addr(), engine, metrics.Handler())
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *httpapi.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
