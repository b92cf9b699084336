package digest

import (
	"fmt"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

// candidates maps a peptide position key to the variable modifications that may occur there.
type candidates map[int][]*core.Modification

func (c candidates) add(key int, mod *core.Modification) {
	for _, m := range c[key] {
		if m == mod || m.Equal(mod) {
			return
		}
	}
	c[key] = append(c[key], mod)
}

// variableCandidates collects the variable modifications and protein-annotated modifications
// that fit the interval.
func variableCandidates(pep *protease.ProteolyticPeptide, variable []*core.Modification) candidates {
	protein := pep.Protein
	seq := protein.BaseSequence
	start, length := pep.OneBasedStart, pep.Length()
	c := make(candidates)

	canBeN := func(mod *core.Modification) bool {
		return mod.Location.IsNTerminal() && core.ModFits(mod, seq, 1, length, start)
	}
	canBeC := func(mod *core.Modification) bool {
		return mod.Location.IsCTerminal() && core.ModFits(mod, seq, length, length, start+length-1)
	}

	for _, mod := range variable {
		switch {
		case canBeN(mod):
			c.add(1, mod)
		case canBeC(mod):
			c.add(length+2, mod)
		case mod.Location == core.Anywhere:
			for r := 0; r < length; r++ {
				if core.ModFits(mod, seq, r+1, length, start+r) {
					c.add(r+2, mod)
				}
			}
		}
	}

	for _, pos := range protein.ModPositions() {
		if pos < start || pos > pep.OneBasedEnd {
			continue
		}
		loc := pos - start + 1
		for _, mod := range protein.ModsAt(pos) {
			switch {
			case loc == 1 && canBeN(mod) && !protein.IsDecoy:
				c.add(1, mod)
			case loc == length && canBeC(mod) && !protein.IsDecoy:
				c.add(length+2, mod)
			case protein.IsDecoy || (mod.Location == core.Anywhere && core.ModFits(mod, seq, loc, length, pos)):
				c.add(loc+1, mod)
			}
		}
	}
	return c
}

// fixedModifications places every fixed modification that fits the interval. It panics on a
// location restriction NewProteinDigestion would have rejected.
func fixedModifications(pep *protease.ProteolyticPeptide, fixed []*core.Modification) map[int]*core.Modification {
	seq := pep.Protein.BaseSequence
	start, length := pep.OneBasedStart, pep.Length()
	out := make(map[int]*core.Modification)

	for _, mod := range fixed {
		switch mod.Location {
		case core.NTerminal, core.PeptideNTerminal:
			if core.ModFits(mod, seq, 1, length, start) {
				out[1] = mod
			}
		case core.Anywhere:
			for i := 2; i <= length+1; i++ {
				if core.ModFits(mod, seq, i-1, length, start+i-2) {
					out[i] = mod
				}
			}
		case core.CTerminal, core.PeptideCTerminal:
			if core.ModFits(mod, seq, length, length, start+length-1) {
				out[length+2] = mod
			}
		default:
			panic(fmt.Sprintf("digest: %v: fixed modification %s has location %q", core.ErrUnsupportedLocation, mod.IDWithMotif(), mod.Location))
		}
	}
	return out
}

// modificationPatterns calls yield with every assignment of at most maxMods variable
// modifications to the candidate positions, fewest modifications first. The pattern slice is
// indexed by position key and reused between calls. Enumeration stops when yield returns false.
func modificationPatterns(c candidates, keys []int, size, maxMods int, yield func(pattern []*core.Modification) bool) {
	pattern := make([]*core.Modification, size)
	if len(keys) == 0 {
		yield(pattern)
		return
	}

	limit := min(maxMods, len(keys))
	for k := 0; k <= limit; k++ {
		if !assign(c, keys, pattern, 0, len(keys)-k, yield) {
			return
		}
	}
}

// assign fills keys[index:] leaving exactly unmodified of them empty.
func assign(c candidates, keys []int, pattern []*core.Modification, index, unmodified int, yield func([]*core.Modification) bool) bool {
	key := keys[index]
	last := index == len(keys)-1

	if unmodified > 0 {
		pattern[key] = nil
		if last {
			if !yield(pattern) {
				return false
			}
		} else if !assign(c, keys, pattern, index+1, unmodified-1, yield) {
			return false
		}
	}

	if unmodified < len(keys)-index {
		for _, mod := range c[key] {
			pattern[key] = mod
			if last {
				if !yield(pattern) {
					return false
				}
			} else if !assign(c, keys, pattern, index+1, unmodified, yield) {
				return false
			}
		}
		pattern[key] = nil
	}
	return true
}

// modifiedPeptides enumerates the modified forms of one interval, stopping after
// params.MaxModificationIsoforms of them (unbounded when not positive).
func (d *ProteinDigestion) modifiedPeptides(pep *protease.ProteolyticPeptide, yield func(*Peptide) bool) bool {
	length := pep.Length()
	c := variableCandidates(pep, d.variable)
	fixed := fixedModifications(pep, d.fixed)

	keys := make([]int, 0, len(c))
	for key := 1; key <= length+2; key++ {
		if len(c[key]) > 0 {
			keys = append(keys, key)
		}
	}

	maxIsoforms := d.params.MaxModificationIsoforms
	produced := 0
	stopped := false

	modificationPatterns(c, keys, length+3, d.params.MaxModsForPeptide, func(pattern []*core.Modification) bool {
		mods := make(map[int]*core.Modification, len(fixed)+d.params.MaxModsForPeptide)
		for _, key := range keys {
			if pattern[key] != nil {
				mods[key] = pattern[key]
			}
		}
		numFixed := 0
		for key, mod := range fixed {
			if _, ok := mods[key]; !ok {
				mods[key] = mod
				numFixed++
			}
		}

		if !yield(NewPeptide(*pep, d.params, mods, numFixed)) {
			stopped = true
			return false
		}
		produced++
		return maxIsoforms <= 0 || produced < maxIsoforms
	})
	return !stopped
}
