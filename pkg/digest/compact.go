package digest

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
)

const (
	compactDigits        = 9
	compactMassTolerance = 1e-9
)

// CompactPeptide is a peptide reduced to its cumulative N- and C-terminal residue masses. Two
// peptides with the same masses are interchangeable for fragment indexing.
type CompactPeptide struct {
	// nil when the terminus was not requested
	NTerminalMasses  []float64
	CTerminalMasses  []float64
	MonoisotopicMass float64
}

// NewCompactPeptide builds the compact form of p. terminus selects the series to keep and dt
// selects which neutral losses branch the series.
func NewCompactPeptide(p *Peptide, terminus fragment.Terminus, dt core.DissociationType) *CompactPeptide {
	seq := p.BaseSequence()
	length := len(seq)
	cp := &CompactPeptide{MonoisotopicMass: p.MonoisotopicMass()}

	if terminus == fragment.TerminusN || terminus == fragment.TerminusBoth {
		residues := make([]int, 0, max(length-1, 0))
		for r := 0; r < length-1; r++ {
			residues = append(residues, r)
		}
		start := 0.0
		if mod, ok := p.mods[1]; ok {
			start = mod.MonoisotopicMass
		}
		cp.NTerminalMasses = p.appendSeries(make([]float64, 0, len(residues)), start, residues, dt)
	}

	if terminus == fragment.TerminusC || terminus == fragment.TerminusBoth {
		residues := make([]int, 0, max(length-1, 0))
		for r := length - 1; r > 0; r-- {
			residues = append(residues, r)
		}
		start := 0.0
		if mod, ok := p.mods[length+2]; ok {
			start = mod.MonoisotopicMass
		}
		cp.CTerminalMasses = p.appendSeries(make([]float64, 0, len(residues)), start, residues, dt)
	}
	return cp
}

// appendSeries walks residues accumulating mass. A modification with neutral losses for dt
// branches the series: each loss yields the current mass minus the loss and then the rest of
// the series shifted by the same loss.
func (p *Peptide) appendSeries(out []float64, mass float64, residues []int, dt core.DissociationType) []float64 {
	seq := p.BaseSequence()
	for i, r := range residues {
		mass += residueMass(seq[r])
		mod := p.mods[r+2]
		if mod != nil {
			mass += mod.MonoisotopicMass
		}
		out = append(out, core.RoundFloat(mass, compactDigits))

		if mod == nil {
			continue
		}
		for _, loss := range mod.LossesFor(dt) {
			if loss == 0 {
				continue
			}
			out = append(out, core.RoundFloat(mass-loss, compactDigits))
			if i == len(residues)-1 {
				continue
			}
			from := len(out)
			out = p.appendSeries(out, mass, residues[i+1:], dt)
			for k := from; k < len(out); k++ {
				out[k] = core.RoundFloat(out[k]-loss, compactDigits)
			}
		}
	}
	return out
}

// Equal compares the series both values carry and the monoisotopic masses. Series values are
// compared after rounding, so masses that round to different digits are unequal even when
// they differ by less than the tolerance. A value with a C-terminal series never equals one
// without, so that equal values hash equal.
func (c *CompactPeptide) Equal(o *CompactPeptide) bool {
	if c == nil || o == nil {
		return false
	}
	if (c.CTerminalMasses == nil) != (o.CTerminalMasses == nil) {
		return false
	}
	massOK := (math.IsNaN(c.MonoisotopicMass) && math.IsNaN(o.MonoisotopicMass)) ||
		math.Abs(c.MonoisotopicMass-o.MonoisotopicMass) < compactMassTolerance

	switch {
	case c.CTerminalMasses != nil && o.CTerminalMasses != nil:
		if !massOK || !seriesEqual(c.CTerminalMasses, o.CTerminalMasses) {
			return false
		}
		if c.NTerminalMasses != nil && o.NTerminalMasses != nil {
			return seriesEqual(c.NTerminalMasses, o.NTerminalMasses)
		}
		return true
	case c.NTerminalMasses != nil && o.NTerminalMasses != nil:
		return massOK && seriesEqual(c.NTerminalMasses, o.NTerminalMasses)
	}
	return false
}

func seriesEqual(a, b []float64) bool {
	return slices.EqualFunc(a, b, func(x, y float64) bool {
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	})
}

// Hash returns the xxhash of the C-terminal series, or of the N-terminal series when there is
// no C-terminal one. Equal values hash equal. A nil value hashes to 0.
func (c *CompactPeptide) Hash() uint64 {
	if c == nil {
		return 0
	}
	series := c.CTerminalMasses
	if series == nil {
		series = c.NTerminalMasses
	}

	h := xxhash.New()
	var buf [8]byte
	for _, v := range series {
		binary.LittleEndian.PutUint64(buf[:], canonicalBits(v))
		h.Write(buf[:])
	}
	return h.Sum64()
}

func canonicalBits(v float64) uint64 {
	switch {
	case math.IsNaN(v):
		return 0x7ff8000000000001
	case v == 0:
		return 0
	}
	return math.Float64bits(v)
}

// CompactIndex is a set of compact peptides with stable ids. It is not safe for concurrent
// use.
type CompactIndex struct {
	buckets map[uint64][]int
	entries []*CompactPeptide
}

func NewCompactIndex() *CompactIndex {
	return &CompactIndex{buckets: make(map[uint64][]int)}
}

// Add returns the id of the first entry equal to cp, adding cp if there is none.
func (x *CompactIndex) Add(cp *CompactPeptide) (id int, isNew bool) {
	h := cp.Hash()
	for _, existing := range x.buckets[h] {
		if x.entries[existing].Equal(cp) {
			return existing, false
		}
	}
	id = len(x.entries)
	x.entries = append(x.entries, cp)
	x.buckets[h] = append(x.buckets[h], id)
	return id, true
}

// Get returns the entry with the given id.
func (x *CompactIndex) Get(id int) *CompactPeptide {
	if id < 0 || id >= len(x.entries) {
		return nil
	}
	return x.entries[id]
}

func (x *CompactIndex) Len() int { return len(x.entries) }
