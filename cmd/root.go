package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/kiosk/internal/config"
	"github.com/okian/kiosk/pkg/logger"
)

// Version is the application version.
const Version = "0.3.0"

var (
	configPath string
	logLevel   string
	logFormat  string

	// cfg is loaded once per invocation by the root pre-run hook.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "kiosk",
	Short:         "Face attendance kiosk",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := setup(cmd.Context())
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides "+config.EnvConfigFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "text or json")
}

// setup loads configuration and initializes logging. Logs go to stderr so
// they stay apart from the operator console.
func setup(ctx context.Context) (*config.Config, error) {
	if configPath != "" {
		if err := os.Setenv(config.EnvConfigFile, configPath); err != nil {
			return nil, fmt.Errorf("set config path: %w", err)
		}
	}

	c, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}

	if err := logger.InitWithOptions(logger.WithWriter(os.Stderr), logger.WithFormat(c.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(c.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", c.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return c, nil
}
