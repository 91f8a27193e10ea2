// Package cmd is the storelens command line: one-off analyses against local
// media, report lookups and media uploads, all on the same wiring as the API.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/storelens/internal/app"
	"github.com/bryanwahyu/storelens/internal/config"
	"github.com/bryanwahyu/storelens/internal/logger"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	appVersion = "dev"

	// set by PersistentPreRunE
	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storelens",
	Short: "Store layout analysis from the command line",
	Long: `storelens analyzes a store profile and its photos or videos, stores the
report and renders it, using the same configuration as the API server.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	if log != nil {
		_ = log.Sync()
	}
	return err
}

func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
}

func initConfig(_ *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		path = config.Path()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	l, err := logger.New(c.Logging.Level, logFormat)
	if err != nil {
		return err
	}
	cfg, log = c, l
	return nil
}

// withApp builds the service for one command and closes it afterwards.
func withApp(ctx context.Context, opts app.Options, fn func(*app.App) error) error {
	a, err := app.Build(ctx, cfg, log, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("close adapters", zap.Error(err))
		}
	}()
	return fn(a)
}
