package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aretw0/octonote/internal/config"
	"github.com/aretw0/octonote/internal/platform"
)

var (
	configFile string
	dataDir    string
	verbose    bool

	v   *viper.Viper
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "octonote",
	Short: "A multi-user note editor with per-note edit locks",
	Long: `Octonote stores notes as plain text files and lets several users edit
them without overwriting each other: opening a note locks it for its editor
until the note is closed.

Run "octonote serve" for the HTTP API or use the other commands to work on
the data directory directly.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		v, err = config.New(configFile)
		if err != nil {
			fatal("Failed to load config", err)
		}
		if dataDir != "" {
			v.Set("storage.data_dir", dataDir)
		}
		if servePort != 0 {
			v.Set("server.port", servePort)
		}

		cfg, err = config.Load(v)
		if err != nil {
			fatal("Invalid config", err)
		}

		slog.SetDefault(newLogger(os.Stderr, cfg.Logging, verbose))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./octonote.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (overrides storage.data_dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// newLogger builds the process logger from the logging section. verbose forces debug.
func newLogger(w io.Writer, lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	if strings.ToLower(lc.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// openApp wires the service against the configured data directory.
func openApp(ctx context.Context) *platform.App {
	opts := append(platform.FromConfig(cfg), platform.WithLogger(slog.Default()))
	app, err := platform.New(ctx, cfg.Storage.DataDir, opts...)
	if err != nil {
		fatal("Failed to initialize octonote", err)
	}
	return app
}
