// Package app implements the main application commands.
package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/logger"
)

var (
	configPath string // directory holding main.toml
	cfg        config.Config

	rootCmd = &cobra.Command{
		Use:   "go-permission-admin",
		Short: "GoPermission-Admin resolves and manages effective permissions",
		Long: `GoPermission-Admin manages the permission catalog, role permission matrices and
user overrides, and answers which actions a user may perform on a resource.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc", "directory containing main.toml")
}

// loadConfig reads the configuration and sets up logging.
func loadConfig(_ *cobra.Command, _ []string) error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err //nolint:wrapcheck
	}

	return logger.Init(cfg.Log) //nolint:wrapcheck
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background()) //nolint:wrapcheck
}
