package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/pepdigest/pkg/config"
)

var writeDefault string

func init() {
	validateCmd.Flags().StringVar(&writeDefault, "write-default", "", "Write the default configuration to this path and exit")
}

var validateCmd = &cobra.Command{
	Use:   "validate [config.yaml]",
	Short: "Validate a run configuration",
	Long: `Load a run configuration, parse every protease rule and modification catalog it refers
to, and build the digestion pipeline without reading any proteins.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if writeDefault != "" {
			if err := config.DefaultConfig().SaveToFile(writeDefault); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", writeDefault)
			return nil
		}

		path := configFile
		if len(args) == 1 {
			path = args[0]
		}

		setup, err := loadSetup(path, nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration is valid\n")
		fmt.Fprintf(out, "Digestion: %s\n", setup.params)
		fmt.Fprintf(out, "Proteases: %d\n", setup.proteases.Len())
		fmt.Fprintf(out, "Modifications: %d in catalog, %d fixed, %d variable\n",
			setup.catalog.Len(), len(setup.config.Modifications.Fixed), len(setup.config.Modifications.Variable))
		fmt.Fprintf(out, "Dissociation: %s\n", setup.dissociation)
		return nil
	},
}
