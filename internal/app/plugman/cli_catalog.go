package plugman

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func catalogCmd(options *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with the official plugin catalog",
	}
	cmd.AddCommand(catalogRefreshCmd(options), catalogSearchCmd(options))
	return cmd
}

func catalogRefreshCmd(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the plugin catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(options, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := app.directory.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog contains %d plugins\n", len(app.directory.Entries()))
			return nil
		},
	}
}

func catalogSearchCmd(options *globalOptions) *cobra.Command {
	var skipRefresh bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the plugin catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(options, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			app.refreshCatalogIfNeeded(cmd.Context(), skipRefresh)
			printCatalogEntries(cmd.OutOrStdout(), app.directory.Search(strings.Join(args, " ")))
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipRefresh, "skip-refresh", false, "Do not refresh the plugin catalog")
	return cmd
}
