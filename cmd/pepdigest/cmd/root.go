// Package cmd provides CLI command implementations
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/pepdigest/pkg/config"
	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/digest"
	"github.com/ChrisMcGann/pepdigest/pkg/filter"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

var (
	// Global flags
	configFile   string
	proteaseFile string
	catalogFile  string
	verbose      bool
	logFormat    string

	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "pepdigest",
	Short: "pepdigest - Peptide digestion and fragment index tool",
	Long: `pepdigest digests protein FASTA databases into modified peptides and computes
their theoretical fragment ions, writing a SQLite index for database search.

Supports:
- Full, semi-specific and non-specific digestion with any protease rule
- Fixed and variable modifications with isoform caps
- Neutral losses, diagnostic ions and internal fragments
- Reverse decoys and compact-representation deduplication`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd.ErrOrStderr())
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with a context that cancels long-running commands
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(fragmentCmd)
	rootCmd.AddCommand(proteasesCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(summarizeCmd)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML run configuration (default: pepdigest.yaml in the current or a parent directory)")
	rootCmd.PersistentFlags().StringVar(&proteaseFile, "proteases", "", "TSV file of extra or overriding protease rules")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "CSV file of extra modifications")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

// setupLogging installs the stderr logger selected by --verbose and --log-format
func setupLogging(w io.Writer) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(logFormat) {
	case "text", "":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("invalid log format '%s', must be text or json", logFormat)
	}

	logger = slog.New(handler)
	slog.SetDefault(logger)
	return nil
}

// runSetup holds everything resolved from configuration before any protein is read
type runSetup struct {
	config       *config.Config
	proteases    *protease.Table
	catalog      *core.ModificationCatalog
	params       *digest.DigestionParams
	digestion    *digest.ProteinDigestion
	dissociation core.DissociationType
	filter       *filter.Config
}

// loadSetup loads the configuration at path, applies command-line overrides and builds the
// digestion pipeline.
func loadSetup(path string, overrides func(*config.Config) error) (*runSetup, error) {
	loader := config.NewLoader(logger)

	cfg, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	if proteaseFile != "" {
		cfg.Digestion.ProteaseFile = proteaseFile
	}
	if catalogFile != "" {
		cfg.Modifications.CatalogFile = catalogFile
	}
	if overrides != nil {
		if err := overrides(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s := &runSetup{config: cfg}

	if s.proteases, err = loader.Proteases(cfg); err != nil {
		return nil, err
	}
	if s.catalog, err = loader.Catalog(cfg); err != nil {
		return nil, err
	}
	if s.params, err = cfg.Digestion.Params(s.proteases); err != nil {
		return nil, err
	}

	fixed, variable, err := cfg.Modifications.Resolve(s.catalog)
	if err != nil {
		return nil, err
	}
	if s.digestion, err = digest.NewProteinDigestion(s.params, fixed, variable); err != nil {
		return nil, err
	}

	if s.dissociation, err = cfg.Fragmentation.DissociationType(); err != nil {
		return nil, err
	}
	ionTypes, err := cfg.Fragmentation.ProductTypes()
	if err != nil {
		return nil, err
	}
	s.filter = &filter.Config{
		IonTypes: ionTypes,
		MinMass:  cfg.Fragmentation.MinMass,
		MaxMass:  cfg.Fragmentation.MaxMass,
	}

	logger.Debug("Loaded run setup",
		slog.String("params", s.params.String()),
		slog.Int("fixed", len(fixed)),
		slog.Int("variable", len(variable)),
		slog.String("dissociation", s.dissociation.String()))

	return s, nil
}
