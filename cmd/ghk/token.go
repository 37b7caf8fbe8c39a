package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gharkharcha/internal/models"
	"gharkharcha/internal/session"
)

func newTokenCmd(app *cli) *cobra.Command {
	var (
		identity models.Identity
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development sign-in token",
		Long: `Issue a token signed with AUTH_TOKEN_SECRET, as the auth service would.
Use it with POST /api/v1/session or the --token flag of other commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if identity.UID == "" {
				return fmt.Errorf("--uid is required")
			}
			token, err := session.IssueToken(app.cfg.AuthTokenSecret, identity, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&identity.UID, "uid", "", "User id (token subject)")
	cmd.Flags().StringVar(&identity.DisplayName, "name", "", "Display name")
	cmd.Flags().StringVar(&identity.Email, "email", "", "Email address")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}
