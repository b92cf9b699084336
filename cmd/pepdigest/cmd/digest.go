package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/pepdigest/pkg/config"
	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/digest"
	"github.com/ChrisMcGann/pepdigest/pkg/filter"
	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
	"github.com/ChrisMcGann/pepdigest/pkg/reader/fasta"
	"github.com/ChrisMcGann/pepdigest/pkg/writer/sqlite"
)

var (
	// Flags for digest command
	inputFile         string
	outputFile        string
	proteaseName      string
	searchMode        string
	terminus          string
	missedCleavages   int
	minLength         int
	maxLength         int
	maxIsoforms       int
	maxMods           int
	initiatorMet      string
	fixedMods         []string
	variableMods      []string
	dissociation      string
	internalMinLength int
	ionTypes          string
	decoys            bool
	dedup             bool
	workers           int
	description       string
)

func init() {
	f := digestCmd.Flags()
	f.StringVarP(&inputFile, "in", "i", "", "Input protein FASTA file (required)")
	f.StringVarP(&outputFile, "out", "o", "", "Output database file (required)")
	f.StringVar(&proteaseName, "protease", "", "Protease name from the protease table (default trypsin)")
	f.StringVar(&searchMode, "search-mode", "", "Search mode: Full, Semi or None")
	f.StringVar(&terminus, "terminus", "", "Fragmentation terminus: Both, N or C")
	f.IntVar(&missedCleavages, "missed", 0, "Maximum missed cleavages")
	f.IntVar(&minLength, "min-length", 0, "Minimum peptide length")
	f.IntVar(&maxLength, "max-length", 0, "Maximum peptide length (0 = unbounded)")
	f.IntVar(&maxIsoforms, "max-isoforms", 0, "Maximum modification isoforms per peptide (0 = unbounded)")
	f.IntVar(&maxMods, "max-mods", 0, "Maximum variable modifications per peptide")
	f.StringVar(&initiatorMet, "initiator-met", "", "Initiator methionine: Variable, Retain or Cleave")
	f.StringSliceVar(&fixedMods, "fixed", nil, "Fixed modifications as 'Id on Motif' (repeatable)")
	f.StringSliceVar(&variableMods, "variable", nil, "Variable modifications as 'Id on Motif' (repeatable)")
	f.StringVar(&dissociation, "dissociation", "", "Dissociation type: HCD, CID, ETD, ECD, EThcD, LowCID...")
	f.IntVar(&internalMinLength, "internal", 0, "Also store internal fragments of at least this length (0 = none)")
	f.StringVar(&ionTypes, "ion-types", "", "Comma-separated ion types to keep (e.g., 'b,y')")
	f.BoolVar(&decoys, "decoys", false, "Also write a reverse decoy for every target peptide")
	f.BoolVar(&dedup, "dedup", false, "Mark peptides whose compact representation repeats an earlier one")
	f.IntVar(&workers, "workers", 0, "Number of proteins digested concurrently (default from config)")
	f.StringVar(&description, "description", "", "Free-text description stored in the header table")

	digestCmd.MarkFlagRequired("in")
	digestCmd.MarkFlagRequired("out")
}

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Digest a FASTA database into a SQLite peptide index",
	Long: `Digest every protein of a FASTA database, enumerate modification isoforms and
write peptides with their theoretical fragment ions to a SQLite index.

Examples:
  # Tryptic digest with default modifications
  pepdigest digest --in proteome.fasta --out index.db

  # Semi-specific Lys-C digest with phosphorylation and decoys
  pepdigest digest --in proteome.fasta --out index.db --protease "Lys-C (don't cleave before proline)" \
    --search-mode Semi --variable "Phosphorylation on S" --variable "Phosphorylation on T" --decoys

  # ETD fragments, c and z ions only
  pepdigest digest --in proteome.fasta --out index.db --dissociation ETD --ion-types c,zDot`,
	RunE: runDigest,
}

// applyDigestFlags overrides configuration values with flags given on the command line
func applyDigestFlags(cmd *cobra.Command) func(*config.Config) error {
	return func(cfg *config.Config) error {
		flags := cmd.Flags()
		d := &cfg.Digestion
		if flags.Changed("protease") {
			d.Protease = proteaseName
		}
		if flags.Changed("search-mode") {
			d.SearchMode = searchMode
		}
		if flags.Changed("terminus") {
			d.FragmentationTerminus = terminus
		}
		if flags.Changed("missed") {
			d.MaxMissedCleavages = missedCleavages
		}
		if flags.Changed("min-length") {
			d.MinPeptideLength = minLength
		}
		if flags.Changed("max-length") {
			d.MaxPeptideLength = maxLength
		}
		if flags.Changed("max-isoforms") {
			d.MaxModificationIsoforms = maxIsoforms
		}
		if flags.Changed("max-mods") {
			d.MaxModsForPeptide = maxMods
		}
		if flags.Changed("initiator-met") {
			d.InitiatorMethionine = initiatorMet
		}
		if flags.Changed("fixed") {
			cfg.Modifications.Fixed = fixedMods
		}
		if flags.Changed("variable") {
			cfg.Modifications.Variable = variableMods
		}
		if flags.Changed("dissociation") {
			cfg.Fragmentation.Dissociation = dissociation
		}
		if flags.Changed("internal") {
			cfg.Fragmentation.MinInternalLength = internalMinLength
		}
		if flags.Changed("ion-types") {
			types, err := filter.ParseIonTypes(ionTypes)
			if err != nil {
				return err
			}
			cfg.Fragmentation.IonTypes = cfg.Fragmentation.IonTypes[:0]
			for _, t := range types {
				cfg.Fragmentation.IonTypes = append(cfg.Fragmentation.IonTypes, t.String())
			}
		}
		if flags.Changed("decoys") {
			cfg.Output.Decoys = decoys
		}
		if flags.Changed("dedup") {
			cfg.Output.Dedup = dedup
		}
		if flags.Changed("workers") {
			cfg.Output.Workers = workers
		}
		if flags.Changed("description") {
			cfg.Output.Description = description
		}
		return nil
	}
}

// indexedPeptide is a peptide with everything the writer stores for it
type indexedPeptide struct {
	peptide  *digest.Peptide
	compact  *digest.CompactPeptide
	products []fragment.Product
}

// proteinResult is the digest of one protein, tagged with its position in the input
type proteinResult struct {
	index   int
	protein *core.Protein
	targets []indexedPeptide
	decoys  []indexedPeptide
	skipped error
}

// digestStats counts what the writer stored
type digestStats struct {
	proteins   int
	skipped    int
	peptides   int
	decoys     int
	duplicates int
}

func runDigest(cmd *cobra.Command, args []string) error {
	// Validate input file exists
	if _, err := os.Stat(inputFile); os.IsNotExist(err) {
		return fmt.Errorf("input file does not exist: %s", inputFile)
	}

	setup, err := loadSetup(configFile, applyDigestFlags(cmd))
	if err != nil {
		return err
	}
	out := setup.config.Output

	fmt.Printf("Digesting %s to %s...\n", inputFile, outputFile)
	fmt.Printf("Digestion: %s\n", setup.params)
	fmt.Printf("Dissociation: %s\n", setup.dissociation)
	if out.Decoys {
		fmt.Printf("Decoys: reverse\n")
	}

	inFile, err := os.Open(inputFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	writer, err := sqlite.NewWriter(outputFile, sqlite.Header{
		Params:       setup.params,
		Dissociation: setup.dissociation,
		Description:  out.Description,
	})
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	logger.Debug("Opened index", slog.String("path", outputFile), slog.String("run_id", writer.RunID().String()))

	stats, err := digestDatabase(cmd.Context(), setup, fasta.NewReader(inFile), writer)
	if err != nil {
		writer.Abort()
		return err
	}

	// Finalize database
	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	fmt.Printf("\nDigestion complete!\n")
	fmt.Printf("Proteins: %d\n", stats.proteins)
	fmt.Printf("Peptides: %d\n", stats.peptides)
	if stats.decoys > 0 {
		fmt.Printf("Decoy peptides: %d\n", stats.decoys)
	}
	if stats.duplicates > 0 {
		fmt.Printf("Duplicates: %d\n", stats.duplicates)
	}
	if stats.skipped > 0 {
		fmt.Printf("Skipped: %d proteins (validation errors)\n", stats.skipped)
	}
	fmt.Printf("Output: %s\n", outputFile)

	return nil
}

// digestDatabase fans proteins out to a bounded worker pool and funnels the results, in input
// order, through a single writer goroutine.
func digestDatabase(ctx context.Context, setup *runSetup, reader *fasta.Reader, writer *sqlite.Writer) (*digestStats, error) {
	limit := setup.config.Output.Workers
	if limit < 1 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make(chan *proteinResult, limit)
	iw := newIndexWriter(writer, setup.dissociation, setup.config.Output.Dedup)
	writeErr := make(chan error, 1)
	go func() {
		writeErr <- iw.writeResults(results)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	index := 0
	for reader.Next() {
		if gctx.Err() != nil {
			break
		}
		protein := reader.Protein()
		i := index
		index++

		g.Go(func() error {
			res := setup.digestProtein(i, protein)
			select {
			case results <- res:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}

	err := g.Wait()
	close(results)
	if werr := <-writeErr; werr != nil {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("error reading input file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &iw.stats, nil
}

// digestProtein digests, fragments and optionally decoys one protein
func (s *runSetup) digestProtein(index int, protein *core.Protein) *proteinResult {
	res := &proteinResult{index: index, protein: protein}
	if err := protein.Validate(); err != nil {
		res.skipped = err
		return res
	}

	withDecoys := s.config.Output.Decoys && !protein.IsDecoy
	for pep := range s.digestion.Digest(protein) {
		res.targets = append(res.targets, s.index(pep))
		if withDecoys {
			decoy, _ := pep.ReverseDecoy()
			res.decoys = append(res.decoys, s.index(decoy))
		}
	}
	return res
}

func (s *runSetup) index(pep *digest.Peptide) indexedPeptide {
	term := s.params.FragmentationTerminus

	var products []fragment.Product
	pep.Fragment(s.dissociation, term, &products)
	if n := s.config.Fragmentation.MinInternalLength; n > 0 {
		var internal []fragment.Product
		pep.FragmentInternally(s.dissociation, n, &internal)
		products = append(products, internal...)
	}
	products = filter.RemoveNaNMasses(products)
	if !s.filter.IsZero() {
		products = s.filter.Apply(products)
	}

	return indexedPeptide{
		peptide:  pep,
		compact:  digest.NewCompactPeptide(pep, term, s.dissociation),
		products: products,
	}
}

// indexWriter stores results on the single writer goroutine
type indexWriter struct {
	w            *sqlite.Writer
	dissociation core.DissociationType
	dedup        bool
	compacts     *digest.CompactIndex
	rows         map[int]int64 // compact id -> first peptide row
	stats        digestStats
}

func newIndexWriter(w *sqlite.Writer, dt core.DissociationType, dedup bool) *indexWriter {
	return &indexWriter{
		w:            w,
		dissociation: dt,
		dedup:        dedup,
		compacts:     digest.NewCompactIndex(),
		rows:         make(map[int]int64),
	}
}

// writeResults writes results in input order. After the first error it keeps draining the
// channel so workers never block.
func (x *indexWriter) writeResults(results <-chan *proteinResult) error {
	pending := make(map[int]*proteinResult)
	next := 0

	var firstErr error
	for res := range results {
		if firstErr != nil {
			continue
		}
		pending[res.index] = res

		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++

			if err := x.writeProtein(r); err != nil {
				firstErr = err
				break
			}
			if next%1000 == 0 {
				fmt.Printf("Processed %d proteins...\n", next)
			}
		}
	}
	return firstErr
}

func (x *indexWriter) writeProtein(r *proteinResult) error {
	if r.skipped != nil {
		logger.Warn("Skipping invalid protein", slog.String("accession", r.protein.Accession), slog.String("error", r.skipped.Error()))
		x.stats.skipped++
		return nil
	}

	proteinID, err := x.w.WriteProtein(r.protein)
	if err != nil {
		return err
	}
	x.stats.proteins++
	if err := x.writePeptides(proteinID, r.targets); err != nil {
		return err
	}
	x.stats.peptides += len(r.targets)

	if len(r.decoys) > 0 {
		decoyID, err := x.w.WriteProtein(&core.Protein{
			Accession:    core.DecoyPrefix + r.protein.Accession,
			Name:         r.protein.Name,
			BaseSequence: r.protein.BaseSequence,
			IsDecoy:      true,
		})
		if err != nil {
			return err
		}
		if err := x.writePeptides(decoyID, r.decoys); err != nil {
			return err
		}
		x.stats.decoys += len(r.decoys)
	}

	logger.Debug("Wrote protein",
		slog.String("accession", r.protein.Accession),
		slog.Int("peptides", len(r.targets)),
		slog.Int("decoys", len(r.decoys)))
	return nil
}

func (x *indexWriter) writePeptides(proteinID int64, entries []indexedPeptide) error {
	for _, e := range entries {
		compactID, isNew := 0, true
		var duplicateOf int64
		if x.dedup {
			compactID, isNew = x.compacts.Add(e.compact)
			if !isNew {
				duplicateOf = x.rows[compactID]
				x.stats.duplicates++
			}
		}

		peptideID, err := x.w.WritePeptide(proteinID, e.peptide, e.compact.Hash(), duplicateOf)
		if err != nil {
			return err
		}
		if x.dedup && isNew {
			x.rows[compactID] = peptideID
		}
		if err := x.w.WriteFragments(peptideID, x.dissociation, e.products); err != nil {
			return err
		}
	}
	return nil
}
