package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/bharatbiz/bizagent/internal/config"
	"github.com/bharatbiz/bizagent/internal/container"
	"github.com/bharatbiz/bizagent/pkg/utils"
)

var version = "1.0.0"

const defaultConfigPath = "configs/config.yaml"

var rootCmd = &cobra.Command{
	Use:   "bizagent",
	Short: "Bharat Biz-Agent - a conversational billing assistant for small shops",
	Long: `bizagent turns shopkeeper utterances into draft GST invoices, payment
records, reminders and shop summaries.

Run "bizagent chat" for an interactive session against the configured
language model, or "bizagent products" to inspect the catalog.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to the YAML configuration file (default configs/config.yaml when present)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log at the configured level instead of errors only")
}

// app is the wired application behind a command
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	container *container.Container
}

func (a *app) Close() {
	if err := a.container.Close(); err != nil {
		a.logger.Error("Failed to close container", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// loadConfig reads the configuration named by the --config flag
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		if _, statErr := os.Stat(defaultConfigPath); statErr == nil {
			path = defaultConfigPath
		}
	}
	return config.Load(path)
}

// newLogger keeps terminal output readable: unless --verbose is set only
// errors are logged, and never to stdout.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	lc := utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     "console",
	}
	if !verbose {
		lc.Level = "error"
	}
	if lc.OutputPath == "" || lc.OutputPath == "stdout" {
		lc.OutputPath = "stderr"
	}
	return utils.NewLogger(lc)
}

// startApp loads configuration and starts the container
func startApp(cmd *cobra.Command, opts ...container.Option) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	containerCfg, err := cfg.ToContainerConfig()
	if err != nil {
		return nil, fmt.Errorf("build container config: %w", err)
	}

	c, err := container.NewContainer(containerCfg, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	if err := c.Start(cmd.Context()); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	return &app{cfg: cfg, logger: logger, container: c}, nil
}
