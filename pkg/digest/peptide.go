package digest

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

// ErrAmbiguousSequence is returned when a full sequence lists alternatives with '|'.
var ErrAmbiguousSequence = errors.New("ambiguous peptide sequence")

// Peptide is a protein interval with a concrete modification on zero or more positions.
// Position 1 is the N-terminus, positions 2..L+1 are the residues and L+2 is the C-terminus.
// A Peptide is immutable; Localize and the decoy builders return new values.
type Peptide struct {
	protease.ProteolyticPeptide

	params       *DigestionParams
	mods         map[int]*core.Modification
	numFixedMods int
	fullSequence string

	// hash of the target this decoy was built from, 0 for targets
	pairedHash uint64

	mass atomic.Pointer[float64]
}

// NewPeptide builds a peptide from an interval and its modification map. The map is owned by
// the peptide afterwards.
func NewPeptide(interval protease.ProteolyticPeptide, params *DigestionParams, mods map[int]*core.Modification, numFixedMods int) *Peptide {
	if mods == nil {
		mods = make(map[int]*core.Modification)
	}
	p := &Peptide{
		ProteolyticPeptide: interval,
		params:             params,
		mods:               mods,
		numFixedMods:       numFixedMods,
	}
	p.fullSequence = p.buildFullSequence()
	return p
}

// Params returns the digestion params the peptide was generated with. It may be nil for
// parsed peptides.
func (p *Peptide) Params() *DigestionParams { return p.params }

// Mods returns the modification map keyed by position. Callers must not modify it.
func (p *Peptide) Mods() map[int]*core.Modification { return p.mods }

// ModAt returns the modification at a position.
func (p *Peptide) ModAt(position int) (*core.Modification, bool) {
	mod, ok := p.mods[position]
	return mod, ok
}

// ModPositions returns the modified positions in ascending order.
func (p *Peptide) ModPositions() []int {
	keys := make([]int, 0, len(p.mods))
	for k := range p.mods {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func (p *Peptide) NumMods() int         { return len(p.mods) }
func (p *Peptide) NumFixedMods() int    { return p.numFixedMods }
func (p *Peptide) NumVariableMods() int { return len(p.mods) - p.numFixedMods }

// FullSequence returns the base sequence with modifications inlined as [Type:Id on Motif].
func (p *Peptide) FullSequence() string { return p.fullSequence }

func (p *Peptide) String() string { return p.fullSequence }

func modLabel(mod *core.Modification) string {
	return "[" + mod.ModificationType + ":" + mod.IDWithMotif() + "]"
}

func (p *Peptide) buildFullSequence() string {
	seq := p.BaseSequence()
	var b strings.Builder
	b.Grow(len(seq) + 32*len(p.mods))

	if mod, ok := p.mods[1]; ok {
		b.WriteString(modLabel(mod))
	}
	for r := 0; r < len(seq); r++ {
		b.WriteByte(seq[r])
		if mod, ok := p.mods[r+2]; ok {
			b.WriteString(modLabel(mod))
		}
	}
	if mod, ok := p.mods[len(seq)+2]; ok {
		b.WriteString(modLabel(mod))
	}
	return b.String()
}

// MonoisotopicMass returns the neutral monoisotopic mass rounded to 9 decimal digits.
func (p *Peptide) MonoisotopicMass() float64 {
	if m := p.mass.Load(); m != nil {
		return *m
	}

	mass := core.WaterMass
	for _, pos := range p.ModPositions() {
		mass += p.mods[pos].MonoisotopicMass
	}
	seq := p.BaseSequence()
	for i := 0; i < len(seq); i++ {
		mass += core.ResidueMass(seq[i])
	}
	mass = core.RoundFloat(mass, 9)

	p.mass.Store(&mass)
	return mass
}

// SequenceWithChemicalFormulas renders modifications as their formulas, e.g. "PEPT[H1O3P1]IDE".
// ok is false when any modification is defined by mass only.
func (p *Peptide) SequenceWithChemicalFormulas() (string, bool) {
	seq := p.BaseSequence()
	var b strings.Builder

	write := func(pos int) bool {
		mod, ok := p.mods[pos]
		if !ok {
			return true
		}
		if len(mod.ChemicalFormula) == 0 {
			return false
		}
		b.WriteString("[" + mod.ChemicalFormula.String() + "]")
		return true
	}

	if !write(1) {
		return "", false
	}
	for r := 0; r < len(seq); r++ {
		b.WriteByte(seq[r])
		if !write(r + 2) {
			return "", false
		}
	}
	if !write(len(seq) + 2) {
		return "", false
	}
	return b.String(), true
}

// Localize returns a copy of p with mass added at residue j (zero-based). Any modification
// already on that residue is folded into a single synthetic one.
func (p *Peptide) Localize(j int, mass float64) *Peptide {
	mods := make(map[int]*core.Modification, len(p.mods)+1)
	for k, v := range p.mods {
		mods[k] = v
	}

	existing := 0.0
	if mod, ok := mods[j+2]; ok {
		existing = mod.MonoisotopicMass
	}
	total := mass + existing

	target := "X"
	if seq := p.BaseSequence(); j >= 0 && j < len(seq) && seq[j] >= 'A' && seq[j] <= 'Z' {
		target = string(seq[j])
	}
	mods[j+2] = &core.Modification{
		OriginalID:       strconv.FormatFloat(total, 'f', 5, 64),
		ModificationType: "Localized",
		Target:           core.MustModificationMotif(target),
		Location:         core.Anywhere,
		MonoisotopicMass: total,
	}

	out := NewPeptide(p.ProteolyticPeptide, p.params, mods, p.numFixedMods)
	out.pairedHash = p.pairedHash
	return out
}

// Hash returns the xxhash of the full sequence.
func (p *Peptide) Hash() uint64 {
	return xxhash.Sum64String(p.fullSequence)
}

// PairedTargetDecoyHash returns, for a decoy, the Hash of the target it was built from.
func (p *Peptide) PairedTargetDecoyHash() uint64 { return p.pairedHash }

// Equal reports whether two peptides have the same full sequence, start and protein.
func (p *Peptide) Equal(o *Peptide) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.fullSequence != o.fullSequence || p.OneBasedStart != o.OneBasedStart {
		return false
	}
	if p.Protein == nil || o.Protein == nil {
		return p.Protein == o.Protein
	}
	return p.Protein.Accession == o.Protein.Accession
}

// BaseSequenceFromFullSequence strips bracketed modifications from a full sequence.
func BaseSequenceFromFullSequence(full string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(full); i++ {
		switch c := full[i]; {
		case c == '[':
			depth++
		case c == ']':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ParseFullSequence rebuilds a peptide from a full sequence, resolving "[Type:Id on Motif]"
// labels against catalog. The peptide spans the whole of a synthetic protein holding only
// its base sequence.
func ParseFullSequence(full string, catalog *core.ModificationCatalog) (*Peptide, error) {
	if strings.Contains(full, "|") {
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousSequence, full)
	}

	mods := make(map[int]*core.Modification)
	var base strings.Builder
	position := 1

	for i := 0; i < len(full); i++ {
		c := full[i]
		switch c {
		case '[':
			end := matchingBracket(full, i)
			if end < 0 {
				return nil, fmt.Errorf("unbalanced '[' at %d in '%s'", i, full)
			}
			label := full[i+1 : end]
			if !strings.Contains(label, ":") {
				return nil, fmt.Errorf("modification '%s' in '%s' is not of the form Type:Id", label, full)
			}
			mod, ok := catalog.Get(label)
			if !ok {
				return nil, fmt.Errorf("unknown modification '%s' in '%s'", label, full)
			}
			key := position
			if _, taken := mods[key]; taken {
				// a second label after the last residue is the C-terminal one
				if hasResidue(full[end+1:]) {
					return nil, fmt.Errorf("more than one modification at position %d in '%s'", position, full)
				}
				key++
			}
			mods[key] = mod
			i = end
		case ']':
			return nil, fmt.Errorf("unbalanced ']' at %d in '%s'", i, full)
		default:
			if c < 'A' || c > 'Z' {
				return nil, fmt.Errorf("invalid residue '%c' at %d in '%s'", c, i, full)
			}
			base.WriteByte(c)
			position++
		}
	}

	seq := base.String()
	if seq == "" {
		return nil, fmt.Errorf("'%s' has no residues", full)
	}

	// a lone C-terminal modification written after the last residue
	last := len(seq) + 1
	if mod, ok := mods[last]; ok && mod.Location.IsCTerminal() {
		if _, taken := mods[last+1]; !taken {
			delete(mods, last)
			mods[last+1] = mod
		}
	}
	for key := range mods {
		if key > len(seq)+2 {
			return nil, fmt.Errorf("modification position %d is past the end of '%s'", key, full)
		}
	}

	protein := &core.Protein{BaseSequence: seq}
	interval := protease.ProteolyticPeptide{
		Protein:       protein,
		OneBasedStart: 1,
		OneBasedEnd:   len(seq),
		Specificity:   protease.Full,
	}
	return NewPeptide(interval, nil, mods, 0), nil
}

func hasResidue(s string) bool {
	return BaseSequenceFromFullSequence(s) != ""
}

func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
