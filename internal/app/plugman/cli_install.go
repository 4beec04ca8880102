package plugman

import (
	"errors"
	"fmt"

	"github.com/roemer/plugman/pkg/common"
	"github.com/spf13/cobra"
)

func installCmd(options *globalOptions) *cobra.Command {
	var (
		version     string
		overwrite   bool
		skipRefresh bool
	)

	cmd := &cobra.Command{
		Use:   "install <plugin>...",
		Short: "Install plugins",
		Long: `Installs plugins by identifier ("owner/repo") or by their catalog name.

The version "latest" follows the newest release, any other version is the tag
the plugin gets pinned to.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := options.scope()
			if err != nil {
				return err
			}
			app, err := newApplication(options, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			var errs []error
			for _, arg := range args {
				pluginId, err := app.resolvePluginId(cmd.Context(), arg, skipRefresh)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				app.logger.Info(fmt.Sprintf("Installing plugin '%s' (%s) into '%s'", pluginId, common.ValueOrPlaceholder(version), scope))
				if err := app.installer.InstallBySelector(cmd.Context(), pluginId, version, scope, overwrite); err != nil {
					errs = append(errs, fmt.Errorf("failed to install '%s': %w", pluginId, err))
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringVarP(&version, "version", "V", common.VERSION_SELECTOR_LATEST, "The version to install")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace manually modified files")
	cmd.Flags().BoolVar(&skipRefresh, "skip-refresh", false, "Do not refresh the plugin catalog")
	return cmd
}

func uninstallCmd(options *globalOptions) *cobra.Command {
	var skipRefresh bool

	cmd := &cobra.Command{
		Use:   "uninstall <plugin>...",
		Short: "Uninstall plugins",
		Long:  `Removes plugins and all dependencies no other plugin needs anymore.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, err := options.scope()
			if err != nil {
				return err
			}
			app, err := newApplication(options, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			var errs []error
			for _, arg := range args {
				pluginId, err := app.resolvePluginId(cmd.Context(), arg, skipRefresh)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if err := app.installer.Uninstall(pluginId, scope); err != nil {
					errs = append(errs, fmt.Errorf("failed to uninstall '%s': %w", pluginId, err))
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().BoolVar(&skipRefresh, "skip-refresh", false, "Do not refresh the plugin catalog")
	return cmd
}

func maintenanceCmd(options *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "maintenance",
		Short: "Reconcile the metadata with the files on disk",
		Long: `Drops records of plugins and dependencies that were removed manually and deletes
dependencies no plugin needs anymore.`,
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
			return app.installer.Sweep(scope)
		},
	}
}
