package core

import (
	"fmt"
	"sort"
	"strings"
)

// DecoyPrefix is prepended to the accession of decoy proteins.
const DecoyPrefix = "DECOY_"

// Protein is the sequence being digested together with the annotations digestion uses.
type Protein struct {
	Accession    string
	Name         string
	BaseSequence string
	IsDecoy      bool

	ProteolysisProducts []ProteolysisProduct

	// One-based residue index -> modifications known to occur there
	OneBasedPossibleLocalizedModifications map[int][]*Modification

	AppliedSequenceVariations []SequenceVariation

	// The protein before AppliedSequenceVariations; nil for a non-variant protein
	NonVariantProtein *Protein
}

// ProteolysisProduct is an annotated processed form of a protein (signal peptide, chain, propeptide).
// Zero positions mean the boundary is unknown.
type ProteolysisProduct struct {
	OneBasedBeginPosition int
	OneBasedEndPosition   int
	Type                  string
}

// HasBounds reports whether both boundaries are known.
func (p ProteolysisProduct) HasBounds() bool {
	return p.OneBasedBeginPosition > 0 && p.OneBasedEndPosition > 0
}

// SequenceVariation replaces OriginalSequence at [OneBasedBeginPosition, OneBasedEndPosition]
// with VariantSequence. A VariantSequence ending in '*' is a stop gain.
type SequenceVariation struct {
	OneBasedBeginPosition int
	OneBasedEndPosition   int
	OriginalSequence      string
	VariantSequence       string
	Description           string
}

// SimpleString renders the variation as e.g. "P4V".
func (v SequenceVariation) SimpleString() string {
	return fmt.Sprintf("%s%d%s", v.OriginalSequence, v.OneBasedBeginPosition, v.VariantSequence)
}

// Length returns the number of residues.
func (p *Protein) Length() int {
	return len(p.BaseSequence)
}

// NonVariant returns the non-variant protein, or p itself when it carries no variants.
func (p *Protein) NonVariant() *Protein {
	if p.NonVariantProtein != nil {
		return p.NonVariantProtein
	}
	return p
}

// ModsAt returns the localized modifications annotated at a one-based position.
func (p *Protein) ModsAt(oneBasedIndex int) []*Modification {
	if p.OneBasedPossibleLocalizedModifications == nil {
		return nil
	}
	return p.OneBasedPossibleLocalizedModifications[oneBasedIndex]
}

// ModPositions returns the annotated positions in ascending order.
func (p *Protein) ModPositions() []int {
	positions := make([]int, 0, len(p.OneBasedPossibleLocalizedModifications))
	for pos := range p.OneBasedPossibleLocalizedModifications {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}

// ValidationError represents an error found during validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a protein meets all requirements for digestion.
func (p *Protein) Validate() error {
	var errs []string

	// Required fields
	if p.Accession == "" {
		errs = append(errs, "accession is required")
	}
	if p.BaseSequence == "" {
		errs = append(errs, "sequence is required")
	}

	for i := 0; i < len(p.BaseSequence); i++ {
		if !IsKnownResidue(p.BaseSequence[i]) && p.BaseSequence[i] != 'X' {
			errs = append(errs, fmt.Sprintf("residue %d '%c' is not an amino acid", i+1, p.BaseSequence[i]))
			break
		}
	}

	for i, pp := range p.ProteolysisProducts {
		if !pp.HasBounds() {
			continue
		}
		if pp.OneBasedBeginPosition > pp.OneBasedEndPosition || pp.OneBasedEndPosition > p.Length() {
			errs = append(errs, fmt.Sprintf("proteolysis product %d has invalid bounds %d-%d", i, pp.OneBasedBeginPosition, pp.OneBasedEndPosition))
		}
	}

	for pos := range p.OneBasedPossibleLocalizedModifications {
		if pos < 1 || pos > p.Length() {
			errs = append(errs, fmt.Sprintf("modification position %d is outside the sequence", pos))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Protein " + p.Accession,
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}
