package plugman

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func tokenCmd(options *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the access token for the release host",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <token>",
			Short: "Store the access token",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return updateToken(cmd, options, args[0])
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored access token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return updateToken(cmd, options, "")
			},
		},
	)
	return cmd
}

func updateToken(cmd *cobra.Command, options *globalOptions, token string) error {
	app, err := newApplication(options, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	app.registryCache.SetToken(token)
	app.releaseClient.SetToken(lo.CoalesceOrEmpty(token, app.hostRuleToken))
	if err := app.registryCache.Save(); err != nil {
		return err
	}
	if token == "" {
		app.logger.Info("The access token has been removed")
	} else {
		app.logger.Info(fmt.Sprintf("The access token has been stored in '%s'", app.registryCache.FilePath()))
	}
	return nil
}
