package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/slop/internal/config"
	"github.com/harrison/slop/internal/executor"
)

// loadConfig loads the --config file, or .slop/config.yaml in the current
// directory when the flag is unset.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// stringFlag returns a pointer to the flag value if it was set explicitly.
func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func configError(err error) error {
	return &executor.RunError{Kind: executor.KindConfig, Err: err}
}
