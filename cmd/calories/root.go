package main

import (
	"github.com/spf13/cobra"

	"github.com/mmynk/calories/internal/config"
	"github.com/mmynk/calories/pkg/logging"
)

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "calories",
		Short: "Calorie tracking API",
		Long: `calories serves a REST and Connect API for logging food and tracking
daily calorie limits.

Configuration is read from defaults, an optional YAML file (--config) and
CALORIES_* environment variables, in increasing precedence. A .env file in
the working directory is loaded first when present.

Examples:
  calories serve --config calories.yaml
  calories migrate
  calories create-admin --username admin --password s3cret
  calories config show`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if _, err := logging.Setup(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	root.AddCommand(
		newServeCommand(load),
		newMigrateCommand(load),
		newCreateAdminCommand(load),
		newConfigCommand(load),
	)
	return root
}

// loadFunc loads the configuration and installs the configured logger.
type loadFunc func() (*config.Config, error)
