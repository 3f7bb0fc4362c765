package app

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/daemon"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/permission"
)

func init() { //nolint: gochecknoinits
	f := evaluateCmd.Flags()
	f.Uint64Var(&evalUser, "user", 0, "user id")
	f.UintVar(&evalRole, "role", 0, "role id")
	f.StringVar(&evalResource, "resource", "", "resource to check")
	f.StringVar(&evalAction, "action", "", "action to check")
	f.StringVar(&evalDomain, "domain", permission.DomainAll, `domain, "*" or "company:<uuid>"`)
	f.StringVar(&evalAt, "at", "", "evaluation time in RFC 3339, defaults to now")
	f.StringVar(&evalIP, "ip", "", "client ip")

	_ = evaluateCmd.MarkFlagRequired("resource")
	_ = evaluateCmd.MarkFlagRequired("action")

	rootCmd.AddCommand(evaluateCmd)
}

var (
	evalUser     uint64
	evalRole     uint
	evalResource string
	evalAction   string
	evalDomain   string
	evalAt       string
	evalIP       string

	evaluateCmd = &cobra.Command{
		Use:     "evaluate",
		Short:   "Decide one permission request against the configured database",
		PreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := permission.Request{
				UserID:   evalUser,
				RoleID:   evalRole,
				Resource: evalResource,
				Action:   evalAction,
				Domain:   evalDomain,
				ClientIP: evalIP,
			}

			if evalAt != "" {
				at, err := time.Parse(time.RFC3339, evalAt)
				if err != nil {
					return err //nolint:wrapcheck
				}

				req.Now = at
			}

			services, err := daemon.Open(&cfg)
			if err != nil {
				return err //nolint:wrapcheck
			}
			defer services.Close()

			d, err := services.Deps.Authz.Evaluate(cmd.Context(), req)
			if err != nil {
				return err //nolint:wrapcheck
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(d) //nolint:wrapcheck
		},
	}
)
