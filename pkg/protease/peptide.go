package protease

import (
	"fmt"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
)

// ProteolyticPeptide is an unmodified interval of a protein produced by digestion.
type ProteolyticPeptide struct {
	Protein         *core.Protein
	OneBasedStart   int
	OneBasedEnd     int
	MissedCleavages int
	Specificity     CleavageSpecificity
	Description     string
}

// Length returns the number of residues.
func (p *ProteolyticPeptide) Length() int {
	return p.OneBasedEnd - p.OneBasedStart + 1
}

// BaseSequence returns the unmodified residues.
func (p *ProteolyticPeptide) BaseSequence() string {
	return p.Protein.BaseSequence[p.OneBasedStart-1 : p.OneBasedEnd]
}

// PreviousResidue returns the residue before the peptide, or '-' at the protein N-terminus.
func (p *ProteolyticPeptide) PreviousResidue() byte {
	if p.OneBasedStart > 1 {
		return p.Protein.BaseSequence[p.OneBasedStart-2]
	}
	return '-'
}

// NextResidue returns the residue after the peptide, or '-' at the protein C-terminus.
func (p *ProteolyticPeptide) NextResidue() byte {
	if p.OneBasedEnd < p.Protein.Length() {
		return p.Protein.BaseSequence[p.OneBasedEnd]
	}
	return '-'
}

func (p *ProteolyticPeptide) String() string {
	return fmt.Sprintf("%s[%d-%d]", p.BaseSequence(), p.OneBasedStart, p.OneBasedEnd)
}
