package digest

import (
	"fmt"
	"iter"
	"strings"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

// ProteinDigestion digests proteins into modified peptides. It is read-only after
// construction and safe for concurrent use.
type ProteinDigestion struct {
	params   *DigestionParams
	fixed    []*core.Modification
	variable []*core.Modification
}

// NewProteinDigestion validates the params and modification lists.
func NewProteinDigestion(params *DigestionParams, fixed, variable []*core.Modification) (*ProteinDigestion, error) {
	if params == nil {
		return nil, fmt.Errorf("digestion params are required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	check := func(kind string, mods []*core.Modification) error {
		for _, mod := range mods {
			if mod == nil {
				return fmt.Errorf("%s modification is nil", kind)
			}
			if err := mod.Validate(); err != nil {
				return fmt.Errorf("invalid %s modification: %w", kind, err)
			}
			switch mod.Location {
			case core.NTerminal, core.PeptideNTerminal, core.Anywhere, core.CTerminal, core.PeptideCTerminal:
			default:
				return fmt.Errorf("%s modification %s: %w '%s'", kind, mod.IDWithMotif(), core.ErrUnsupportedLocation, mod.Location)
			}
		}
		return nil
	}
	if err := check("fixed", fixed); err != nil {
		return nil, err
	}
	if err := check("variable", variable); err != nil {
		return nil, err
	}

	return &ProteinDigestion{
		params:   params,
		fixed:    append([]*core.Modification(nil), fixed...),
		variable: append([]*core.Modification(nil), variable...),
	}, nil
}

func (d *ProteinDigestion) Params() *DigestionParams { return d.params }

// Digest yields every modified peptide of protein. The sequence is lazy and may be iterated
// more than once; each pass yields the same peptides in the same order.
func (d *ProteinDigestion) Digest(protein *core.Protein) iter.Seq[*Peptide] {
	return func(yield func(*Peptide) bool) {
		for _, pep := range d.Intervals(protein) {
			if !d.modifiedPeptides(pep, yield) {
				return
			}
		}
	}
}

// DigestAll collects Digest.
func (d *ProteinDigestion) DigestAll(protein *core.Protein) []*Peptide {
	var out []*Peptide
	for p := range d.Digest(protein) {
		out = append(out, p)
	}
	return out
}

// Intervals returns the unmodified intervals of protein for the configured search mode.
func (d *ProteinDigestion) Intervals(protein *core.Protein) []*protease.ProteolyticPeptide {
	if protein == nil || protein.Length() == 0 {
		return nil
	}
	p := d.params

	var peptides []*protease.ProteolyticPeptide
	switch {
	case p.SearchModeType == protease.Semi && p.FragmentationTerminus == fragment.TerminusBoth:
		peptides = p.Protease.WithSpecificity(protease.Semi).UnmodifiedPeptides(protein, p.MaxMissedCleavages,
			p.InitiatorMethionineBehavior, p.MinPeptideLength, p.MaxPeptideLength, p.SpecificProtease)
	case p.SearchModeType == protease.Semi:
		peptides = d.speedySemi(protein)
	default:
		peptides = p.Protease.UnmodifiedPeptides(protein, p.MaxMissedCleavages,
			p.InitiatorMethionineBehavior, p.MinPeptideLength, p.MaxPeptideLength, p.SpecificProtease)
	}

	retain := p.InitiatorMethionineBehavior == protease.Retain
	for _, pep := range peptides {
		if pep.Specificity == protease.Unknown {
			pep.Specificity = p.SpecificProtease.CleavageSpecificityOf(protein, pep.OneBasedStart, pep.OneBasedEnd, retain)
			pep.Description = pep.Specificity.String()
		}
	}
	return peptides
}

// speedySemi emits the maximal windows for a semi-specific search with one fixed terminus.
// Every shorter semi-specific peptide is a prefix (terminus N) or suffix (terminus C) of one of
// them and is recovered from the fragment index rather than enumerated.
func (d *ProteinDigestion) speedySemi(protein *core.Protein) []*protease.ProteolyticPeptide {
	p := d.params
	seq := protein.BaseSequence
	sites := p.Protease.DigestionSiteIndices(seq)
	first := seq[0]
	nTerminus := p.FragmentationTerminus == fragment.TerminusN
	minLength := max(p.MinPeptideLength, 1)
	maxLength := p.MaxPeptideLength
	if maxLength <= 0 {
		maxLength = len(seq)
	}
	maxMissed := max(p.MaxMissedCleavages, 0)

	var out []*protease.ProteolyticPeptide
	emit := func(start, end int, description string) {
		length := end - start + 1
		if length < minLength {
			return
		}
		spec := protease.Full
		if length > maxLength {
			if nTerminus {
				end = min(start+maxLength-1, len(seq))
			} else {
				start = max(end-maxLength+1, 1)
			}
			spec = protease.Semi
			description = "semi"
		}
		out = append(out, &protease.ProteolyticPeptide{
			Protein:         protein,
			OneBasedStart:   start,
			OneBasedEnd:     end,
			MissedCleavages: protease.SitesWithin(sites, start, end),
			Specificity:     spec,
			Description:     description,
		})
	}

	for i := 0; i < len(sites)-maxMissed-1; i++ {
		end := sites[i+maxMissed+1]
		retain := protease.RetainsFirstResidue(i, p.InitiatorMethionineBehavior, first)
		if retain {
			emit(sites[i]+1, end, "full")
		}
		if protease.CleavesInitiatorMethionine(i, p.InitiatorMethionineBehavior, first) && sites[1] != 1 {
			// cropping from the C-terminus would repeat the retained window
			if nTerminus || !retain || end-1 <= maxLength {
				emit(2, end, "full:M cleaved")
			}
		}
	}

	last := len(sites) - 1
	for i := 1; i <= min(maxMissed, last); i++ {
		if nTerminus {
			emit(sites[last-i]+1, sites[last], "full")
			continue
		}
		start := 1
		if !protease.RetainsFirstResidue(0, p.InitiatorMethionineBehavior, first) {
			start = 2
		}
		emit(start, sites[i], "full")
	}

	for _, pp := range protein.ProteolysisProducts {
		if !pp.HasBounds() || pp.OneBasedBeginPosition > pp.OneBasedEndPosition || pp.OneBasedEndPosition > len(seq) {
			continue
		}
		if pp.OneBasedBeginPosition == 1 && pp.OneBasedEndPosition == len(seq) {
			continue
		}
		emit(pp.OneBasedBeginPosition, pp.OneBasedEndPosition, strings.TrimSpace(pp.Type+" start"))
	}
	return out
}
