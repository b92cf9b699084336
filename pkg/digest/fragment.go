package digest

import (
	"math"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
)

// neutralLosses is the ordered set of nonzero losses seen so far on one ion series.
type neutralLosses []float64

func (l neutralLosses) add(mod *core.Modification, dt core.DissociationType) neutralLosses {
	if mod == nil || mod.NeutralLosses == nil {
		return l
	}
	for _, d := range [2]core.DissociationType{dt, core.AnyActivationType} {
		for _, loss := range mod.NeutralLosses[d] {
			if loss != 0 && !l.contains(loss) {
				l = append(l, loss)
			}
		}
	}
	return l
}

func (l neutralLosses) contains(loss float64) bool {
	for _, v := range l {
		if v == loss {
			return true
		}
	}
	return false
}

func residueMass(aa byte) float64 {
	if !core.IsKnownResidue(aa) {
		return math.NaN()
	}
	return core.ResidueMass(aa)
}

// Fragment replaces the contents of products with the theoretical fragment ions of p for dt,
// restricted to the series retaining terminus. Whole-molecule neutral-loss ions and diagnostic
// ions are always appended.
func (p *Peptide) Fragment(dt core.DissociationType, terminus fragment.Terminus, products *[]fragment.Product) {
	out := (*products)[:0]
	seq := p.BaseSequence()
	length := len(seq)

	nTypes := fragment.TerminusProductTypes(dt, fragment.TerminusN)
	cTypes := fragment.TerminusProductTypes(dt, fragment.TerminusC)
	doN := terminus == fragment.TerminusN || terminus == fragment.TerminusBoth
	doC := terminus == fragment.TerminusC || terminus == fragment.TerminusBoth

	skipFirstN := dt == core.CID || dt == core.LowCID
	skipProlineZ := dt == core.ETD || dt == core.ECD || dt == core.EThcD

	var nMass, cMass float64
	var nLosses, cLosses neutralLosses
	var seenNStar, seenNDegree, seenCStar, seenCDegree bool

	if doN {
		if mod, ok := p.mods[1]; ok {
			nMass += mod.MonoisotopicMass
			nLosses = nLosses.add(mod, dt)
		}
	}
	if doC {
		if mod, ok := p.mods[length+2]; ok {
			cMass += mod.MonoisotopicMass
			cLosses = cLosses.add(mod, dt)
		}
	}

	for r := 0; r < length-1; r++ {
		if doN {
			aa := seq[r]
			nMass += residueMass(aa)
			mod := p.mods[r+2]
			if mod != nil {
				nMass += mod.MonoisotopicMass
			}
			nLosses = nLosses.add(mod, dt)
			if dt == core.LowCID {
				seenNStar = seenNStar || isAmmoniaLosing(aa)
				seenNDegree = seenNDegree || isWaterLosing(aa)
			}

			if r > 0 || !skipFirstN {
				for _, t := range nTypes {
					if dt == core.LowCID {
						if !seenNStar && (t == fragment.AStar || t == fragment.BAmmoniaLoss) {
							continue
						}
						if !seenNDegree && (t == fragment.ADegree || t == fragment.BWaterLoss) {
							continue
						}
					}
					mass := nMass + t.MassShift()
					out = append(out, fragment.NewProduct(t, fragment.TerminusN, mass, r+1, r+1, 0))
					for _, loss := range nLosses {
						out = append(out, fragment.NewProduct(t, fragment.TerminusN, mass-loss, r+1, r+1, loss))
					}
				}
			}
		}

		if doC {
			aa := seq[length-r-1]
			cMass += residueMass(aa)
			mod := p.mods[length-r+1]
			if mod != nil {
				cMass += mod.MonoisotopicMass
			}
			cLosses = cLosses.add(mod, dt)
			if dt == core.LowCID {
				seenCStar = seenCStar || isAmmoniaLosing(aa)
				seenCDegree = seenCDegree || isWaterLosing(aa)
			}

			for _, t := range cTypes {
				if t == fragment.ZDot && aa == 'P' && skipProlineZ {
					continue
				}
				if dt == core.LowCID {
					if !seenCStar && t == fragment.YAmmoniaLoss {
						continue
					}
					if !seenCDegree && t == fragment.YWaterLoss {
						continue
					}
				}
				mass := cMass + t.MassShift()
				out = append(out, fragment.NewProduct(t, fragment.TerminusC, mass, r+1, length-r, 0))
				for _, loss := range cLosses {
					out = append(out, fragment.NewProduct(t, fragment.TerminusC, mass-loss, r+1, length-r, loss))
				}
			}
		}
	}

	// z-dot of the whole peptide
	if doC && length > 0 && seq[0] != 'P' && containsType(cTypes, fragment.ZDot) {
		cMass += residueMass(seq[0])
		mod := p.mods[2]
		if mod != nil {
			cMass += mod.MonoisotopicMass
		}
		cLosses = cLosses.add(mod, dt)
		mass := cMass + fragment.ZDot.MassShift()
		out = append(out, fragment.NewProduct(fragment.ZDot, fragment.TerminusC, mass, length, 1, 0))
		for _, loss := range cLosses {
			out = append(out, fragment.NewProduct(fragment.ZDot, fragment.TerminusC, mass-loss, length, 1, loss))
		}
	}

	if len(p.mods) == 0 {
		*products = out
		return
	}

	for pos := 1; pos <= length+2; pos++ {
		mod := p.mods[pos]
		if mod == nil || mod.NeutralLosses == nil {
			continue
		}
		for _, d := range [2]core.DissociationType{dt, core.AnyActivationType} {
			for _, loss := range mod.NeutralLosses[d] {
				if loss != 0 {
					out = append(out, fragment.NewProduct(fragment.M, fragment.TerminusBoth, p.MonoisotopicMass()-loss, 0, 0, loss))
				}
			}
		}
	}

	var seenIons [8]float64
	diagnostic := seenIons[:0]
	for pos := 1; pos <= length+2; pos++ {
		mod := p.mods[pos]
		if mod == nil || mod.DiagnosticIons == nil {
			continue
		}
		for _, d := range [2]core.DissociationType{dt, core.AnyActivationType} {
			for _, ion := range mod.DiagnosticIons[d] {
				if containsMass(diagnostic, ion) {
					continue
				}
				diagnostic = append(diagnostic, ion)
				label := int(math.Round(core.ToMZ(ion, 1)))
				out = append(out, fragment.NewProduct(fragment.D, fragment.TerminusBoth, ion, label, 0, 0))
			}
		}
	}

	*products = out
}

// FragmentInternally replaces the contents of products with the internal fragments of p that
// span at least minLength residues and neither terminus.
func (p *Peptide) FragmentInternally(dt core.DissociationType, minLength int, products *[]fragment.Product) {
	out := (*products)[:0]
	seq := p.BaseSequence()
	length := len(seq)
	minLength = max(minLength, 1)

	nTypes := fragment.TerminusProductTypes(dt, fragment.TerminusN)
	cTypes := fragment.TerminusProductTypes(dt, fragment.TerminusC)

	for n := 1; n <= length-minLength-1; n++ {
		mass := 0.0
		for i := 0; i < minLength-1; i++ {
			mass += residueMass(seq[n+i])
			if mod, ok := p.mods[n+i+2]; ok {
				mass += mod.MonoisotopicMass
			}
		}

		for c := n + minLength - 1; c < length-1; c++ {
			mass += residueMass(seq[c])
			if mod, ok := p.mods[c+2]; ok {
				mass += mod.MonoisotopicMass
			}
			for _, nt := range nTypes {
				for _, ct := range cTypes {
					out = append(out, fragment.Product{
						ProductType:             ct,
						Terminus:                fragment.TerminusNone,
						NeutralMass:             mass + nt.MassShift() + ct.MassShift() - core.WaterMass,
						FragmentNumber:          n + 1,
						ResiduePosition:         c - n + 1,
						SecondaryProductType:    nt,
						SecondaryFragmentNumber: c + 1,
					})
				}
			}
		}
	}

	*products = out
}

func isAmmoniaLosing(aa byte) bool {
	return aa == 'R' || aa == 'K' || aa == 'N' || aa == 'Q'
}

func isWaterLosing(aa byte) bool {
	return aa == 'S' || aa == 'T' || aa == 'E' || aa == 'D'
}

func containsType(types []fragment.ProductType, t fragment.ProductType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsMass(masses []float64, m float64) bool {
	for _, v := range masses {
		if v == m {
			return true
		}
	}
	return false
}
