package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/cmusrpc/internal/config"
	"github.com/genricoloni/cmusrpc/internal/domain"
	"github.com/genricoloni/cmusrpc/internal/engine"
	"github.com/genricoloni/cmusrpc/internal/notifier"
	"github.com/genricoloni/cmusrpc/internal/presence"
	"github.com/genricoloni/cmusrpc/internal/probe"
	"github.com/soellman/pidfile"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	appName = "cmusrpc"
	version = "0.1.1"
)

// AppOptions is the dependency graph of the daemon. The resolved
// config.Config must be supplied separately.
var AppOptions = fx.Options(
	fx.Provide(
		newLogger,
		probe.New,
		fx.Annotate(presence.NewDiscord, fx.As(new(domain.Presence))),
		fx.Annotate(notifier.New, fx.As(new(domain.Notifier))),
		engine.NewEngine,
	),
	fx.Invoke(registerHooks),
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(appName, args, os.Stderr)
	switch {
	case errors.Is(err, config.ErrVersion):
		fmt.Printf("%s %s\n", appName, version)
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case err != nil:
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: log}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		AppOptions,
	)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	// Wait for an interrupt or for the poll loop to end on its own
	code := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		code = sig.ExitCode
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
	}
	return code
}

// newLogger creates a console logger on stdout. Silent mode keeps only
// fatal messages unless debug is also set.
func newLogger(cfg config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch {
	case cfg.Debug:
		level = zapcore.DebugLevel
	case !cfg.Verbose():
		level = zapcore.FatalLevel
	}

	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")

	zcfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          "console",
		EncoderConfig:     encoder,
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(appName), nil
}

// registerHooks sets up application lifecycle hooks
func registerHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	eng *engine.Engine,
	cfg config.Config,
	logger *zap.Logger,
) {
	stopping := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Debug("Resolved configuration", zap.Object("config", cfg))

			if cfg.PIDFile != "" {
				if err := pidfile.Write(cfg.PIDFile); err != nil {
					return fmt.Errorf("writing pid file: %w", err)
				}
			}

			if err := eng.Start(ctx); err != nil {
				return err
			}

			// The poll loop ends by itself on terminal errors
			go func() {
				select {
				case <-eng.Done():
				case <-stopping:
					return
				}
				if err := shutdowner.Shutdown(fx.ExitCode(0)); err != nil {
					logger.Warn("Failed to request shutdown", zap.Error(err))
				}
			}()

			logger.Info("cmusrpc daemon started", zap.String("version", version))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stopping)
			logger.Info("Shutting down")

			err := eng.Stop(ctx)
			if cfg.PIDFile != "" {
				if rmErr := pidfile.Remove(cfg.PIDFile); rmErr != nil {
					logger.Warn("Failed to remove pid file", zap.Error(rmErr))
				}
			}
			_ = logger.Sync()
			return err
		},
	})
}
