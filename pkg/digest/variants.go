package digest

import (
	"fmt"
	"slices"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

// IntersectsAndIdentifiesVariation reports whether the applied variation v overlaps p and
// whether p identifies it. A peptide identifies a variation it overlaps when its sequence
// differs from the non-variant one, and one it does not overlap when the variation created the
// cleavage site bounding the peptide.
func (p *Peptide) IntersectsAndIdentifiesVariation(v core.SequenceVariation) (intersects, identifies bool) {
	start, end := p.OneBasedStart, p.OneBasedEnd
	begin, vEnd := v.OneBasedBeginPosition, v.OneBasedEndPosition

	startsBefore := begin < start
	startsAtStart := begin == start
	startsInside := begin >= start && begin < end
	startsAtEnd := begin == end
	endsAtStart := vEnd == start
	endsInside := vEnd > start && vEnd <= end
	endsAtEnd := vEnd == end
	endsAfter := vEnd > end

	switch {
	case startsBefore || startsAtStart:
		intersects = endsAtStart || endsInside || endsAtEnd || endsAfter
	case startsInside:
		intersects = endsInside || endsAfter || endsAtEnd
	case startsAtEnd:
		intersects = endsAfter || endsAtEnd
	}

	if intersects {
		return true, identifiesIntersecting(v, start, end)
	}
	return false, p.createsCleavageSite(v)
}

func identifiesIntersecting(v core.SequenceVariation, start, end int) bool {
	lengthDiff := len(v.VariantSequence) - len(v.OriginalSequence)
	intersectStart := max(start, v.OneBasedBeginPosition)
	intersectEnd := min(end, v.OneBasedEndPosition+lengthDiff)
	intersectSize := intersectEnd - intersectStart + 1

	offset := intersectStart - v.OneBasedBeginPosition
	origShort := len(v.OriginalSequence)-offset < intersectSize
	origLong := len(v.OriginalSequence) > intersectSize && end > intersectEnd
	if origShort || origLong {
		return true
	}

	if intersectSize != len(v.VariantSequence) {
		return false
	}
	if offset < 0 || intersectSize < 0 || offset+intersectSize > len(v.OriginalSequence) || offset+intersectSize > len(v.VariantSequence) {
		return false
	}
	return v.OriginalSequence[offset:offset+intersectSize] != v.VariantSequence[offset:offset+intersectSize]
}

// createsCleavageSite checks the residues on either side of p in the variant and non-variant
// proteins against the single-residue motifs of the protease.
func (p *Peptide) createsCleavageSite(v core.SequenceVariation) bool {
	prot := p.digestionProtease()
	if prot == nil {
		return false
	}
	protein := p.Protein
	original := protein.NonVariant()
	start, end := p.OneBasedStart, p.OneBasedEnd

	// length change of variants applied before the peptide
	shift := 0
	for _, applied := range protein.AppliedSequenceVariations {
		if applied.OneBasedEndPosition <= start {
			shift += len(applied.VariantSequence) - len(applied.OriginalSequence)
		}
	}

	var cTerminal, nTerminal []string
	for _, m := range prot.Motifs {
		switch m.CutIndex {
		case 1:
			cTerminal = append(cTerminal, m.Inducing)
		case 0:
			nTerminal = append(nTerminal, m.Inducing)
		}
	}

	residue := func(of *core.Protein, pos int) string {
		if pos < 1 || pos > of.Length() {
			return ""
		}
		return of.BaseSequence[pos-1 : pos]
	}

	switch {
	case v.OneBasedEndPosition == start-1:
		if len(cTerminal) == 0 {
			return false
		}
		newSite := slices.Contains(cTerminal, residue(protein, start-1))
		oldSite := slices.Contains(cTerminal, residue(original, start-1-shift))
		return newSite && !oldSite

	case v.OneBasedBeginPosition == end+1:
		// a stop gain right after the peptide ends it without a cleavage site
		if len(cTerminal) > 0 && v.VariantSequence == "*" && !slices.Contains(cTerminal, residue(protein, end)) {
			return true
		}
		if len(nTerminal) == 0 {
			return false
		}
		oldSite := slices.Contains(nTerminal, residue(original, end+1-shift))
		if protein.Length() < end+1 {
			return !oldSite
		}
		if original.Length() < end+1 {
			return false
		}
		newSite := slices.Contains(nTerminal, residue(protein, end+1))
		return newSite && !oldSite
	}
	return false
}

// digestionProtease is the protease whose sites bound p.
func (p *Peptide) digestionProtease() *protease.Protease {
	if p.params == nil {
		return nil
	}
	if p.params.SpecificProtease != nil {
		return p.params.SpecificProtease
	}
	return p.params.Protease
}

// SequenceVariantString renders an identified variation, e.g. "P4V". When the peptide overlaps
// the variation the variant residues are written with their modifications, preceded by the
// residue before the variation.
func (p *Peptide) SequenceVariantString(v core.SequenceVariation, intersects bool) string {
	if !intersects {
		return fmt.Sprintf("%s%d%s", v.OriginalSequence, v.OneBasedBeginPosition, v.VariantSequence)
	}

	begin := v.OneBasedBeginPosition
	newStart := begin
	if begin != 1 {
		newStart = begin - 1
	}
	newEnd := min(v.OneBasedEndPosition, p.Protein.Length())
	if newEnd < newStart {
		return fmt.Sprintf("%s%d%s", v.OriginalSequence, begin, v.VariantSequence)
	}

	mods := make(map[int]*core.Modification)
	for key, mod := range p.mods {
		if key == 1 {
			if begin == 1 && p.OneBasedStart == 1 {
				mods[1] = mod
			}
			continue
		}
		pos := key - 2 + p.OneBasedStart
		if pos >= begin && pos <= v.OneBasedEndPosition && pos <= newEnd {
			mods[pos-newStart+2] = mod
		}
	}

	variant := NewPeptide(protease.ProteolyticPeptide{
		Protein:         p.Protein,
		OneBasedStart:   newStart,
		OneBasedEnd:     newEnd,
		MissedCleavages: p.MissedCleavages,
		Specificity:     p.Specificity,
		Description:     p.Description,
	}, p.params, mods, 0)

	full := variant.FullSequence()
	if begin != 1 {
		full = full[1:]
	}
	return fmt.Sprintf("%s%d%s", v.OriginalSequence, begin, full)
}

// IsVariantPeptide reports whether p identifies any variation applied to its protein.
func (p *Peptide) IsVariantPeptide() bool {
	for _, v := range p.Protein.AppliedSequenceVariations {
		if _, identifies := p.IntersectsAndIdentifiesVariation(v); identifies {
			return true
		}
	}
	return false
}
