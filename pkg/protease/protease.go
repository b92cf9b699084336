package protease

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
)

// CleavageSpecificity classifies a protease, or a peptide by how many of its ends are true
// cleavage sites.
type CleavageSpecificity int

const (
	None CleavageSpecificity = iota
	Semi
	Full
	SingleN
	SingleC
	// Unknown marks a peptide whose specificity is resolved after digestion.
	Unknown
)

var specificityNames = [...]string{
	None:    "None",
	Semi:    "Semi",
	Full:    "Full",
	SingleN: "SingleN",
	SingleC: "SingleC",
	Unknown: "Unknown",
}

func (s CleavageSpecificity) String() string {
	if s < 0 || int(s) >= len(specificityNames) {
		return fmt.Sprintf("CleavageSpecificity(%d)", int(s))
	}
	return specificityNames[s]
}

// ParseCleavageSpecificity parses a specificity name, case-insensitively.
func ParseCleavageSpecificity(s string) (CleavageSpecificity, error) {
	s = strings.TrimSpace(s)
	for i, name := range specificityNames {
		if strings.EqualFold(s, name) {
			return CleavageSpecificity(i), nil
		}
	}
	return None, fmt.Errorf("unknown cleavage specificity '%s'", s)
}

// InitiatorMethionineBehavior controls whether a protein N-terminal methionine is kept.
type InitiatorMethionineBehavior int

const (
	Variable InitiatorMethionineBehavior = iota
	Retain
	Cleave
)

func (b InitiatorMethionineBehavior) String() string {
	switch b {
	case Variable:
		return "Variable"
	case Retain:
		return "Retain"
	case Cleave:
		return "Cleave"
	}
	return fmt.Sprintf("InitiatorMethionineBehavior(%d)", int(b))
}

// ParseInitiatorMethionineBehavior parses "Variable", "Retain" or "Cleave".
func ParseInitiatorMethionineBehavior(s string) (InitiatorMethionineBehavior, error) {
	for _, b := range []InitiatorMethionineBehavior{Variable, Retain, Cleave} {
		if strings.EqualFold(strings.TrimSpace(s), b.String()) {
			return b, nil
		}
	}
	return Variable, fmt.Errorf("unknown initiator methionine behavior '%s'", s)
}

// Protease is an immutable named set of cleavage motifs.
type Protease struct {
	Name                 string
	Motifs               []DigestionMotif
	Specificity          CleavageSpecificity
	PsiMsAccessionNumber string
	PsiMsName            string
	rule                 string
}

// NewProtease parses rule and builds a protease.
func NewProtease(name, rule string, specificity CleavageSpecificity, psiMsAccession, psiMsName string) (*Protease, error) {
	if name == "" {
		return nil, fmt.Errorf("protease name is required")
	}
	if specificity == Unknown {
		return nil, fmt.Errorf("protease %s: specificity must be known", name)
	}
	motifs, err := ParseMotifs(rule)
	if err != nil {
		return nil, fmt.Errorf("protease %s: %w", name, err)
	}
	return &Protease{
		Name:                 name,
		Motifs:               motifs,
		Specificity:          specificity,
		PsiMsAccessionNumber: psiMsAccession,
		PsiMsName:            psiMsName,
		rule:                 rule,
	}, nil
}

func (p *Protease) String() string { return p.Name }

// Rule returns the rule string the protease was built from.
func (p *Protease) Rule() string { return p.rule }

// WithSpecificity returns a copy of p that digests with a different specificity.
func (p *Protease) WithSpecificity(s CleavageSpecificity) *Protease {
	c := *p
	c.Specificity = s
	return &c
}

// Equal compares proteases by name.
func (p *Protease) Equal(o *Protease) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Name == o.Name
}

// DigestionSiteIndices returns the sorted, distinct zero-based positions the protease cuts
// before. 0 and len(seq) are always included.
func (p *Protease) DigestionSiteIndices(seq string) []int {
	indices := []int{0}
	for r := 0; r < len(seq); r++ {
		cut := -1
		prevented := false
		for _, m := range p.Motifs {
			fits, prevents := m.Fits(seq, r)
			if fits && r+m.CutIndex < len(seq) && r+m.CutIndex > cut {
				cut = r + m.CutIndex
			}
			if prevents {
				prevented = true
			}
		}
		if cut != -1 && !prevented {
			indices = append(indices, cut)
		}
	}
	indices = append(indices, len(seq))

	sort.Ints(indices)
	out := indices[:1]
	for _, idx := range indices[1:] {
		if idx != out[len(out)-1] {
			out = append(out, idx)
		}
	}
	return out
}

// CleavageSpecificityOf classifies the interval [start, end] of protein by how many of its
// boundaries are cleavage sites of p, the initiator methionine, or proteolysis product ends.
func (p *Protease) CleavageSpecificityOf(protein *core.Protein, start, end int, retainMethionine bool) CleavageSpecificity {
	matches := 0
	if p.Specificity != SingleN && p.Specificity != SingleC {
		sites := p.DigestionSiteIndices(protein.BaseSequence)
		if containsSite(sites, start-1) ||
			(start == 2 && protein.BaseSequence[0] == 'M' && !retainMethionine) ||
			productBeginsAt(protein, start) {
			matches++
		}
		if containsSite(sites, end) || productEndsAt(protein, end) {
			matches++
		}
	}

	switch matches {
	case 0:
		return None
	case 1:
		return Semi
	}
	return Full
}

func productBeginsAt(protein *core.Protein, pos int) bool {
	for _, pp := range protein.ProteolysisProducts {
		if pp.OneBasedBeginPosition == pos {
			return true
		}
	}
	return false
}

func productEndsAt(protein *core.Protein, pos int) bool {
	for _, pp := range protein.ProteolysisProducts {
		if pp.OneBasedEndPosition == pos {
			return true
		}
	}
	return false
}

func containsSite(sites []int, pos int) bool {
	i := sort.SearchInts(sites, pos)
	return i < len(sites) && sites[i] == pos
}

// SitesWithin counts the cleavage sites s with start <= s < end, i.e. the cuts inside the
// one-based interval [start, end]. sites must be sorted.
func SitesWithin(sites []int, start, end int) int {
	lo := sort.SearchInts(sites, start)
	hi := sort.SearchInts(sites, end)
	if hi < lo {
		return 0
	}
	return hi - lo
}

// RetainsFirstResidue reports whether the peptide starting after site index i keeps its first
// residue.
func RetainsFirstResidue(i int, imb InitiatorMethionineBehavior, first byte) bool {
	return i != 0 || imb != Cleave || first != 'M'
}

// CleavesInitiatorMethionine reports whether the peptide starting after site index i also
// exists without the initiator methionine.
func CleavesInitiatorMethionine(i int, imb InitiatorMethionineBehavior, first byte) bool {
	return i == 0 && imb != Retain && first == 'M'
}

// ValidLength reports whether length is within [minLength, maxLength]. A non-positive
// minLength or a non-positive or math.MaxInt maxLength is unbounded.
func ValidLength(length, minLength, maxLength int) bool {
	return validMinLength(length, minLength) && validMaxLength(length, maxLength)
}

func validMinLength(length, minLength int) bool {
	return minLength <= 0 || length >= minLength
}

func validMaxLength(length, maxLength int) bool {
	return maxLength <= 0 || maxLength == math.MaxInt || length <= maxLength
}
