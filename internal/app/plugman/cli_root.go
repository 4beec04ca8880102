package plugman

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roemer/plugman/pkg/common"
	"github.com/spf13/cobra"
)

// Creates the root command with all sub commands.
func NewRootCmd() *cobra.Command {
	options := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "plugman",
		Short: "Manage plugins of SCP:SL servers",
		Long: `Installs, updates and removes plugins of SCP: Secret Laboratory servers.

Plugins are released on a code hosting platform and identified by "owner/repo" or by
their name in the official plugin catalog. Each server instance and plugin framework
(labapi or exiled) keeps its own plugins, dependencies and metadata.

Examples:
  # Install the latest release of a plugin into the instance on port 7777
  plugman install owner/plugin --instance 7777

  # Pin a plugin to a release
  plugman install owner/plugin --version v1.2.0

  # Update all plugins of the global exiled location
  plugman update --framework exiled`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.configFile, "config", "c", "", "The path to the config file to read")
	flags.BoolVarP(&options.verbose, "verbose", "v", false, "The flag to set in order to get verbose output")
	flags.BoolVar(&options.noColor, "no-color", false, "Disables colored output")
	flags.StringVarP(&options.instance, "instance", "i", common.INSTANCE_GLOBAL, "The server instance (port) to work on")
	flags.StringVarP(&options.framework, "framework", "f", string(common.FRAMEWORK_TYPE_LABAPI), "The plugin framework: labapi or exiled")

	rootCmd.AddCommand(
		installCmd(options),
		uninstallCmd(options),
		updateCmd(options),
		checkCmd(options),
		listCmd(options),
		maintenanceCmd(options),
		catalogCmd(options),
		tokenCmd(options),
	)
	return rootCmd
}

// Runs the CLI and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return 1
	}
	return 0
}
