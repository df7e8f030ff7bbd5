package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/brizzai/auto-xhr/internal/catalog"
	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/brizzai/auto-xhr/internal/server"
	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Expose the request adapter as MCP tools",
		Long: `Start an MCP server that offers the generic xhr_request tool and, when an
OpenAPI document is configured, one tool per operation. The transport is
chosen with --mode (stdio, sse or http).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

// serve runs the server until ctx ends or the server fails.
func serve(ctx context.Context, cfg *config.Config) error {
	var srv *server.Server
	app := fx.New(appOptions(cfg, &srv)...)

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			logger.Warn("Failed to stop application", zap.Error(err))
		}
	}()

	return srv.Start(ctx)
}

func appOptions(cfg *config.Config, srv **server.Server) []fx.Option {
	return []fx.Option{
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		config.Module,
		catalog.Module,
		xhr.Module,
		server.Module,
		fx.Populate(srv),
	}
}
