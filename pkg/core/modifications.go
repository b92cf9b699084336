package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// ErrUnsupportedLocation is returned when a modification's location restriction cannot be
// placed on a peptide (e.g. "Unassigned." used as a fixed modification).
var ErrUnsupportedLocation = errors.New("unsupported modification location restriction")

// LocationRestriction limits where on a protein or peptide a modification may occur.
type LocationRestriction string

const (
	NTerminal        LocationRestriction = "N-terminal."
	PeptideNTerminal LocationRestriction = "Peptide N-terminal."
	Anywhere         LocationRestriction = "Anywhere."
	CTerminal        LocationRestriction = "C-terminal."
	PeptideCTerminal LocationRestriction = "Peptide C-terminal."
	Unassigned       LocationRestriction = "Unassigned."
)

// ParseLocationRestriction accepts the canonical names with or without the trailing period.
func ParseLocationRestriction(s string) (LocationRestriction, error) {
	key := strings.TrimSuffix(strings.TrimSpace(s), ".")
	for _, l := range []LocationRestriction{NTerminal, PeptideNTerminal, Anywhere, CTerminal, PeptideCTerminal, Unassigned} {
		if strings.EqualFold(key, strings.TrimSuffix(string(l), ".")) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown location restriction '%s'", s)
}

// IsNTerminal reports whether l is a protein or peptide N-terminal restriction.
func (l LocationRestriction) IsNTerminal() bool {
	return l == NTerminal || l == PeptideNTerminal
}

// IsCTerminal reports whether l is a protein or peptide C-terminal restriction.
func (l LocationRestriction) IsCTerminal() bool {
	return l == CTerminal || l == PeptideCTerminal
}

// ModificationMotif is the residue pattern a modification targets. Exactly one letter is
// uppercase; it marks the modified residue, lowercase letters give the surrounding context.
type ModificationMotif struct {
	pattern string
	anchor  int
}

// NewModificationMotif validates and builds a motif.
func NewModificationMotif(pattern string) (ModificationMotif, error) {
	anchor := -1
	for i, r := range pattern {
		if !unicode.IsLetter(r) {
			return ModificationMotif{}, fmt.Errorf("invalid motif '%s': '%c' is not a residue", pattern, r)
		}
		if unicode.IsUpper(r) {
			if anchor >= 0 {
				return ModificationMotif{}, fmt.Errorf("invalid motif '%s': more than one uppercase residue", pattern)
			}
			anchor = i
		}
	}
	if anchor < 0 {
		return ModificationMotif{}, fmt.Errorf("invalid motif '%s': no uppercase residue", pattern)
	}
	return ModificationMotif{pattern: pattern, anchor: anchor}, nil
}

// MustModificationMotif is NewModificationMotif for literals known to be valid.
func MustModificationMotif(pattern string) ModificationMotif {
	m, err := NewModificationMotif(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

func (m ModificationMotif) String() string { return m.pattern }

// IsZero reports whether the motif was never set.
func (m ModificationMotif) IsZero() bool { return m.pattern == "" }

// Modification is a catalog entry describing a mass shift at a residue or terminus.
type Modification struct {
	OriginalID       string
	Accession        string
	ModificationType string
	FeatureType      string
	Target           ModificationMotif
	Location         LocationRestriction
	ChemicalFormula  Formula
	MonoisotopicMass float64

	// Keyed by dissociation type; AnyActivationType applies to every method.
	NeutralLosses  map[DissociationType][]float64
	DiagnosticIons map[DissociationType][]float64
}

// IDWithMotif returns the identifier used in full sequences, e.g. "Phospho on S".
func (m *Modification) IDWithMotif() string {
	return m.OriginalID + " on " + m.Target.String()
}

// Validate checks that a modification is usable for digestion.
func (m *Modification) Validate() error {
	var errs []string

	if m.OriginalID == "" {
		errs = append(errs, "id is required")
	}
	if m.Target.IsZero() {
		errs = append(errs, "target motif is required")
	}
	if m.Location == "" {
		errs = append(errs, "location restriction is required")
	}
	if math.IsNaN(m.MonoisotopicMass) || math.IsInf(m.MonoisotopicMass, 0) {
		errs = append(errs, "monoisotopic mass must be finite")
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Modification " + m.IDWithMotif(),
			Message: strings.Join(errs, "; "),
		}
	}
	return nil
}

// Equal compares identity fields and mass within 1e-9.
func (m *Modification) Equal(o *Modification) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil {
		return false
	}
	return m.IDWithMotif() == o.IDWithMotif() &&
		m.ModificationType == o.ModificationType &&
		m.Location == o.Location &&
		math.Abs(m.MonoisotopicMass-o.MonoisotopicMass) < 1e-9
}

// LossesFor returns the neutral losses registered for dt.
func (m *Modification) LossesFor(dt DissociationType) []float64 {
	if m.NeutralLosses == nil {
		return nil
	}
	return m.NeutralLosses[dt]
}

// HasLossesFor reports whether m carries any neutral losses for dt.
func (m *Modification) HasLossesFor(dt DissociationType) bool {
	return len(m.LossesFor(dt)) > 0
}

// ModFits reports whether mod can be placed at proteinOneBasedIndex of proteinSequence,
// which is residue peptideOneBasedIndex of a peptide of peptideLength residues.
func ModFits(mod *Modification, proteinSequence string, peptideOneBasedIndex, peptideLength, proteinOneBasedIndex int) bool {
	motif := mod.Target.pattern
	offset := proteinOneBasedIndex - mod.Target.anchor - 1
	for i := 0; i < len(motif); i++ {
		p := offset + i
		if p < 0 || p >= len(proteinSequence) || !motifMatches(motif[i], proteinSequence[p]) {
			return false
		}
	}

	switch mod.Location {
	case NTerminal:
		if proteinOneBasedIndex > 2 {
			return false
		}
	case PeptideNTerminal:
		if peptideOneBasedIndex > 1 {
			return false
		}
	case CTerminal:
		if proteinOneBasedIndex < len(proteinSequence) {
			return false
		}
	case PeptideCTerminal:
		if peptideOneBasedIndex < peptideLength {
			return false
		}
	}
	return true
}

func motifMatches(motifChar, residue byte) bool {
	upper := byte(unicode.ToUpper(rune(motifChar)))
	if upper == 'X' || upper == residue {
		return true
	}
	switch upper {
	case 'B':
		return residue == 'D' || residue == 'N'
	case 'J':
		return residue == 'I' || residue == 'L'
	case 'Z':
		return residue == 'E' || residue == 'Q'
	}
	return false
}
