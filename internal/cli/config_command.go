package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tyemirov/gravity/internal/config"
	"github.com/tyemirov/gravity/internal/types"
	"github.com/tyemirov/gravity/internal/utils"
)

const (
	configInitCommandName = "init"
	globalFlagName        = "global"
	forceFlagName         = "force"

	configShortDescription     = "manage gravity configuration"
	configInitShortDescription = "write the default configuration file"
	configInitLongDescription  = "Write the default configuration to ./" + utils.LocalConfigFileName +
		", or to ~/" + utils.GlobalConfigDirectoryName + "/" + utils.GlobalConfigFileName + " with --global."

	globalFlagDescription = "write the global configuration file"
	forceFlagDescription  = "overwrite an existing configuration file"

	configWrittenFormat = "configuration written to %s\n"
)

// createConfigCommand returns the config command group.
func createConfigCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   types.CommandConfig,
		Short: configShortDescription,
		Args:  cobra.NoArgs,
	}
	configCommand.AddCommand(createConfigInitCommand())
	return configCommand
}

func createConfigInitCommand() *cobra.Command {
	var global, force bool
	initCommand := &cobra.Command{
		Use:   configInitCommandName,
		Short: configInitShortDescription,
		Long:  configInitLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			destination, initError := config.InitializeConfiguration(config.InitOptions{Target: target, Force: force})
			if initError != nil {
				return initError
			}
			_, printError := fmt.Fprintf(command.OutOrStdout(), configWrittenFormat, destination)
			return printError
		},
	}
	bindLiteralBool(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	bindLiteralBool(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
