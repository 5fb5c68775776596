package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/playermanager/internal/api"
	"github.com/mcoot/playermanager/internal/config"
	"github.com/mcoot/playermanager/internal/factory"
	"github.com/mcoot/playermanager/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "playermanager",
		Short: "Player manager server",
		Long: `playermanager tracks players across game-server instances.

Instances connect over a websocket and report player snapshots. Admins use
the HTTP API (or pmctl) to manage users, the whitelist and the banlist.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("PM_CONFIG"), "Path to YAML config file (env: PM_CONFIG)")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		JSON:       cfg.Log.Format == config.LogFormatJSON,
		SetDefault: true,
	})
	if err != nil {
		return fmt.Errorf("log level %q: %w", cfg.Log.Level, err)
	}

	app, err := factory.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	defer func() { _ = app.Close() }()

	if err := app.Store.Load(ctx); err != nil {
		return fmt.Errorf("loading database: %w", err)
	}

	proxies, err := cfg.Server.ProxyPrefixes()
	if err != nil {
		return err
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:             logger,
		Store:              app.Store,
		Players:            app.Players,
		AuthService:        app.AuthService,
		Permissions:        app.Permissions,
		Dispatcher:         app.Dispatcher,
		Registry:           app.Registry,
		WebSocket:          app.WebSocket,
		Events:             app.Events,
		LoginRatePerMinute: cfg.Auth.LoginRatePerMinute,
		TrustedProxies:     proxies,
	})

	server := api.NewServer(router, api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)
	if err := server.Listen(); err != nil {
		return err
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		app.Store.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		app.WebSocket.Shutdown()
		app.Events.Close()
		err := server.Shutdown(context.Background())
		app.Scheduler.Wait()
		return err
	})

	logger.Info("server started", slog.String("addr", server.Addr()))

	runErr := g.Wait()
	if runErr != nil {
		logger.Error("server error", slog.String("error", runErr.Error()))
	}

	// The final save runs even when the server failed
	if err := app.Store.Shutdown(context.Background()); err != nil {
		logger.Error("final save failed", slog.String("error", err.Error()))
		return errors.Join(runErr, err)
	}

	logger.Info("server stopped")
	return runErr
}
