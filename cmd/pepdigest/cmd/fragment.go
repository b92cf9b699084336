package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/pepdigest/pkg/config"
	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/digest"
	"github.com/ChrisMcGann/pepdigest/pkg/filter"
	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
)

var (
	// Flags for fragment command
	fragDissociation string
	fragTerminus     string
	fragInternal     int
	fragIonTypes     string
	fragCharge       int
)

func init() {
	f := fragmentCmd.Flags()
	f.StringVar(&fragDissociation, "dissociation", "", "Dissociation type (default from config, HCD)")
	f.StringVar(&fragTerminus, "terminus", "Both", "Fragmentation terminus: Both, N or C")
	f.IntVar(&fragInternal, "internal", 0, "Also list internal fragments of at least this length (0 = none)")
	f.StringVar(&fragIonTypes, "ion-types", "", "Comma-separated ion types to keep (e.g., 'b,y')")
	f.IntVar(&fragCharge, "charge", 1, "Charge used for the m/z column")
}

var fragmentCmd = &cobra.Command{
	Use:   "fragment SEQUENCE",
	Short: "Print the theoretical fragment ions of one peptide",
	Long: `Print the theoretical fragment ions of a peptide given as a full sequence.
Modifications are written as [Type:Id on Motif] after the residue they modify.

Examples:
  pepdigest fragment PEPTIDE
  pepdigest fragment "PEPT[Common Biological:Phosphorylation on T]IDE" --dissociation HCD
  pepdigest fragment PEPTIDEK --dissociation ETD --ion-types c,zDot --charge 2`,
	Args: cobra.ExactArgs(1),
	RunE: runFragment,
}

func runFragment(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(logger)
	cfg, err := loader.Load(configFile)
	if err != nil {
		return err
	}
	if catalogFile != "" {
		cfg.Modifications.CatalogFile = catalogFile
	}
	catalog, err := loader.Catalog(cfg)
	if err != nil {
		return err
	}

	pep, err := digest.ParseFullSequence(args[0], catalog)
	if err != nil {
		return err
	}

	dtName := cfg.Fragmentation.Dissociation
	if fragDissociation != "" {
		dtName = fragDissociation
	}
	dt, err := core.ParseDissociationType(dtName)
	if err != nil {
		return err
	}
	term, err := fragment.ParseTerminus(fragTerminus)
	if err != nil {
		return err
	}
	types, err := filter.ParseIonTypes(fragIonTypes)
	if err != nil {
		return err
	}
	if fragCharge < 1 {
		return fmt.Errorf("charge must be >= 1, got %d", fragCharge)
	}

	var products []fragment.Product
	pep.Fragment(dt, term, &products)
	if fragInternal > 0 {
		var internal []fragment.Product
		pep.FragmentInternally(dt, fragInternal, &internal)
		products = append(products, internal...)
	}
	products = (&filter.Config{IonTypes: types}).Apply(products)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Peptide: %s\n", pep.FullSequence())
	fmt.Fprintf(out, "Monoisotopic mass: %.5f\n", pep.MonoisotopicMass())
	fmt.Fprintf(out, "Dissociation: %s\n\n", dt)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ion\tterminus\tnumber\tposition\tneutral mass\tm/z (%d+)\tloss\n", fragCharge)
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.5f\t%.5f\t%g\n",
			p.Annotation(), p.Terminus, p.FragmentNumber, p.ResiduePosition, p.NeutralMass, p.MZ(fragCharge), p.NeutralLoss)
	}
	return tw.Flush()
}
