package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/pepdigest/pkg/config"
)

var proteasesCmd = &cobra.Command{
	Use:   "proteases",
	Short: "List the protease rule table",
	Long:  `List every protease in the built-in table, plus any added with --proteases, with its cleavage rule.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader(logger)
		cfg, err := loader.Load(configFile)
		if err != nil {
			return err
		}
		if proteaseFile != "" {
			cfg.Digestion.ProteaseFile = proteaseFile
		}
		table, err := loader.Proteases(cfg)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "name\trule\tspecificity\tpsi-ms")
		for _, name := range table.Names() {
			p, _ := table.Get(name)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Rule(), p.Specificity, p.PsiMsAccessionNumber)
		}
		return tw.Flush()
	},
}
