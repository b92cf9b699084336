package digest

import (
	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

// ReverseDecoy builds the decoy of a target peptide. Residues matched by a cleavage motif of
// the protease stay in place and the remaining residues are written in reverse order; every
// modification moves with its residue and terminal modifications stay on their terminus. When
// that reproduces the target sequence the mirror image is returned instead.
//
// order[i] is the target residue index that decoy residue i came from. The target is not
// modified; the decoy records the target's Hash as its PairedTargetDecoyHash.
func (p *Peptide) ReverseDecoy() (decoy *Peptide, order []int) {
	seq := p.BaseSequence()
	length := len(seq)
	order = make([]int, length)
	residues := make([]byte, length)
	kept := make([]bool, length)
	mods := p.terminalMods()

	if prot := p.digestionProtease(); prot != nil {
		for _, m := range prot.Motifs {
			if m.Inducing == "" {
				continue
			}
			for i := 0; i < length; i++ {
				fits, prevents := m.Fits(seq, i)
				if !fits || prevents {
					continue
				}
				for j := i; j < i+len(m.Inducing) && j < length; j++ {
					if kept[j] {
						continue
					}
					kept[j] = true
					residues[j] = seq[j]
					order[j] = j
					if mod, ok := p.mods[j+2]; ok {
						mods[j+2] = mod
					}
				}
			}
		}
	}

	fill := 0
	for from := length - 1; from >= 0; from-- {
		if kept[from] {
			continue
		}
		for kept[fill] {
			fill++
		}
		residues[fill] = seq[from]
		order[fill] = from
		if mod, ok := p.mods[from+2]; ok {
			mods[fill+2] = mod
		}
		fill++
	}

	reversed := string(residues)
	if reversed == seq {
		return p.Mirror()
	}
	return p.decoyWith(reversed, mods), order
}

// Mirror builds the decoy holding the target residues in reverse order. Side-chain
// modifications follow their residues; terminal modifications stay on their terminus.
func (p *Peptide) Mirror() (decoy *Peptide, order []int) {
	seq := p.BaseSequence()
	length := len(seq)
	order = make([]int, length)
	residues := make([]byte, length)
	for i := 0; i < length; i++ {
		residues[i] = seq[length-1-i]
		order[i] = length - 1 - i
	}

	mods := p.terminalMods()
	for key, mod := range p.mods {
		if key >= 2 && key <= length+1 {
			mods[length-key+3] = mod
		}
	}
	return p.decoyWith(string(residues), mods), order
}

func (p *Peptide) terminalMods() map[int]*core.Modification {
	mods := make(map[int]*core.Modification, len(p.mods))
	if mod, ok := p.mods[1]; ok {
		mods[1] = mod
	}
	if mod, ok := p.mods[p.Length()+2]; ok {
		mods[p.Length()+2] = mod
	}
	return mods
}

// decoyWith places residues over the target interval of a copy of the protein.
func (p *Peptide) decoyWith(residues string, mods map[int]*core.Modification) *Peptide {
	target := p.Protein
	seq := target.BaseSequence[:p.OneBasedStart-1] + residues + target.BaseSequence[p.OneBasedEnd:]
	protein := &core.Protein{
		Accession:    core.DecoyPrefix + target.Accession,
		Name:         target.Name,
		BaseSequence: seq,
		IsDecoy:      true,
	}

	decoy := NewPeptide(protease.ProteolyticPeptide{
		Protein:         protein,
		OneBasedStart:   p.OneBasedStart,
		OneBasedEnd:     p.OneBasedEnd,
		MissedCleavages: p.MissedCleavages,
		Specificity:     p.Specificity,
		Description:     p.fullSequence,
	}, p.params, mods, p.numFixedMods)
	decoy.pairedHash = p.Hash()
	return decoy
}
