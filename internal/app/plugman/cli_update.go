package plugman

import (
	"fmt"

	"github.com/roemer/plugman/pkg/common"
	"github.com/roemer/plugman/pkg/installer"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func updateCmd(options *globalOptions) *cobra.Command {
	var (
		overwrite bool
		skipCheck bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update all plugins",
		Long: `Updates all plugins that follow the latest release. Pinned plugins are never touched
and manually modified plugins are only replaced with --overwrite.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := options.scope()
			if err != nil {
				return err
			}
			app, err := newApplication(options, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			report, err := app.installer.UpdatePlugins(cmd.Context(), scope, overwrite, skipCheck)
			printUpdateReport(cmd.OutOrStdout(), report)
			if err != nil {
				return err
			}
			failed := lo.Filter(report.Results, func(result *installer.PluginUpdateResult, _ int) bool {
				return result.Action == installer.UPDATE_ACTION_FAILED
			})
			if len(failed) > 0 {
				return fmt.Errorf("failed to update %s", common.GetSingularPluralStringSimple(failed, "plugin"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace manually modified files")
	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Use the cached versions without checking for updates")
	return cmd
}

func checkCmd(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check all plugins for updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := options.scope()
			if err != nil {
				return err
			}
			app, err := newApplication(options, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			report, err := app.installer.CheckForUpdates(cmd.Context(), scope)
			printCheckReport(cmd.OutOrStdout(), report)
			return err
		},
	}
}

func listCmd(options *globalOptions) *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the installed plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := options.scope()
			if err != nil {
				return err
			}
			app, err := newApplication(options, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			entries, err := app.installer.ListPlugins(cmd.Context(), scope, skipCheck)
			if err != nil {
				return err
			}
			printPluginList(cmd.OutOrStdout(), scope.String(), entries)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Do not check for updates")
	return cmd
}
