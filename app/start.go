package app

import (
	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/daemon"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")

	rootCmd.AddCommand(startCmd)
}

var (
	devMode bool

	startCmd = &cobra.Command{
		Use:     "start",
		Short:   "Start the GoPermission-Admin API service",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if devMode {
				cfg.DevMode = true
			}

			d, err := daemon.New(cmd.Context(), &cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}

			return d.Run(cmd.Context()) //nolint:wrapcheck
		},
	}
)
