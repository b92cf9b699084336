package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/pepdigest/pkg/report"
	"github.com/ChrisMcGann/pepdigest/pkg/writer/sqlite"
)

var plotFile string

func init() {
	summarizeCmd.Flags().StringVar(&plotFile, "plot", "", "Write a peptide length histogram (SVG) to this path")
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize [index.db]",
	Short: "Summarize a peptide index",
	Long:  `Print the run header and summary statistics of peptide masses and lengths in an index.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("index does not exist: %s", path)
		}

		header, err := sqlite.ReadHeader(path)
		if err != nil {
			return err
		}
		masses, err := sqlite.ReadPeptideMasses(path)
		if err != nil {
			return err
		}
		lengths, err := sqlite.ReadPeptideLengths(path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run: %s (%s)\n", header.RunID, header.CreationDate)
		fmt.Fprintf(out, "Digestion: %s\n", header.DigestionParams)
		fmt.Fprintf(out, "Dissociation: %s\n", header.Dissociation)
		if header.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", header.Description)
		}
		fmt.Fprintln(out)

		if err := report.WriteTable(out, []string{"mass", "length"},
			[]report.Summary{report.Summarize(masses), report.Summarize(lengths)}); err != nil {
			return err
		}

		if plotFile == "" {
			return nil
		}
		svg, err := report.LengthHistogramSVG(lengths)
		if err != nil {
			return fmt.Errorf("failed to plot lengths: %w", err)
		}
		if err := os.WriteFile(plotFile, svg, 0644); err != nil {
			return fmt.Errorf("failed to write plot: %w", err)
		}
		logger.Info("Wrote length histogram", slog.String("path", plotFile))
		return nil
	},
}
