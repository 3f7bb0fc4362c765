package app

import (
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/uniuri"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate an API token and the hash to list in Auth.APITokenHashes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		token := uniuri.Token()

		hash, err := argon2id.CreateHash(token, argon2id.DefaultParams)
		if err != nil {
			return err //nolint:wrapcheck
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "token: %s\nhash:  %s\n", token, hash)

		return err //nolint:wrapcheck
	},
}
