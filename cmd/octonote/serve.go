package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/octonote/internal/httpapi"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app := openApp(ctx)

		opts := []httpapi.Option{
			httpapi.WithLogger(slog.Default()),
			httpapi.WithStaticDir(cfg.Server.StaticDir),
			httpapi.WithShutdownTimeout(cfg.Server.ShutdownTimeout()),
		}
		if cfg.Locks.IdleTimeout() > 0 {
			opts = append(opts, httpapi.WithLockSweeper(app.Locks, cfg.Locks.SweepInterval()))
		}

		slog.Info("starting octonote", "data_dir", app.DataDir, "versioning", cfg.Storage.Versioning)
		if err := httpapi.New(app.Service, opts...).Run(ctx, cfg.Server.Addr()); err != nil {
			fatal("Server error", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides server.port)")
}
