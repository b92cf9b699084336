// Package core provides the chemistry, modification and protein models shared by the
// digestion and fragmentation packages of pepdigest.
package core

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Atomic masses (monoisotopic)
const (
	MassH  = 1.00782503207
	MassC  = 12.0000000000
	MassN  = 14.0030740048
	MassO  = 15.99491461956
	MassS  = 31.97207100
	MassP  = 30.97376163
	MassSe = 79.9165213

	ElectronMass = 5.48579909070e-4

	// Proton mass for charge calculations
	ProtonMass = 1.007276466621

	WaterMass = 2*MassH + MassO
)

// AminoAcidComposition stores the elemental composition of a residue (amino acid minus water)
type AminoAcidComposition struct {
	C, H, N, O, S, Se int
}

// Mass returns the monoisotopic mass of the composition.
func (c AminoAcidComposition) Mass() float64 {
	return float64(c.C)*MassC +
		float64(c.H)*MassH +
		float64(c.N)*MassN +
		float64(c.O)*MassO +
		float64(c.S)*MassS +
		float64(c.Se)*MassSe
}

// AminoAcidMasses maps amino acid one-letter codes to elemental composition
var AminoAcidMasses = map[rune]AminoAcidComposition{
	'A': {C: 3, H: 5, N: 1, O: 1},
	'R': {C: 6, H: 12, N: 4, O: 1},
	'N': {C: 4, H: 6, N: 2, O: 2},
	'D': {C: 4, H: 5, N: 1, O: 3},
	'C': {C: 3, H: 5, N: 1, O: 1, S: 1},
	'E': {C: 5, H: 7, N: 1, O: 3},
	'Q': {C: 5, H: 8, N: 2, O: 2},
	'G': {C: 2, H: 3, N: 1, O: 1},
	'H': {C: 6, H: 7, N: 3, O: 1},
	'I': {C: 6, H: 11, N: 1, O: 1},
	'L': {C: 6, H: 11, N: 1, O: 1},
	'K': {C: 6, H: 12, N: 2, O: 1},
	'M': {C: 5, H: 9, N: 1, O: 1, S: 1},
	'F': {C: 9, H: 9, N: 1, O: 1},
	'P': {C: 5, H: 7, N: 1, O: 1},
	'S': {C: 3, H: 5, N: 1, O: 2},
	'T': {C: 4, H: 7, N: 1, O: 2},
	'W': {C: 11, H: 10, N: 2, O: 1},
	'Y': {C: 9, H: 9, N: 1, O: 2},
	'V': {C: 5, H: 9, N: 1, O: 1},
	'U': {C: 3, H: 5, N: 1, O: 1, Se: 1},
	'O': {C: 12, H: 19, N: 3, O: 2},
}

// residueMasses is a byte-indexed view of AminoAcidMasses; unknown residues hold NaN.
var residueMasses = func() [256]float64 {
	var table [256]float64
	for i := range table {
		table[i] = math.NaN()
	}
	for aa, comp := range AminoAcidMasses {
		table[byte(aa)] = comp.Mass()
	}
	return table
}()

// ResidueMass returns the monoisotopic residue mass of aa, or NaN for an unrecognized residue.
func ResidueMass(aa byte) float64 {
	return residueMasses[aa]
}

// IsKnownResidue reports whether aa has a defined residue mass.
func IsKnownResidue(aa byte) bool {
	return !math.IsNaN(residueMasses[aa])
}

// CalculateNeutralMass computes the neutral monoisotopic mass of an unmodified sequence
// plus the given modification mass shifts.
func CalculateNeutralMass(sequence string, modMasses ...float64) float64 {
	mass := WaterMass
	for i := 0; i < len(sequence); i++ {
		mass += residueMasses[sequence[i]]
	}

	// Add modification masses
	for _, m := range modMasses {
		mass += m
	}

	return mass
}

// ToMZ converts a neutral mass to m/z at the given charge state.
func ToMZ(neutralMass float64, charge int) float64 {
	if charge == 0 {
		return neutralMass
	}
	return (neutralMass + float64(charge)*ProtonMass) / math.Abs(float64(charge))
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

var elementMasses = map[string]float64{
	"H":  MassH,
	"C":  MassC,
	"N":  MassN,
	"O":  MassO,
	"S":  MassS,
	"P":  MassP,
	"Se": MassSe,
}

// Formula is an elemental composition that may carry negative counts (e.g. a loss of H1N1).
type Formula map[string]int

// ParseFormula parses formulas such as "H1O3P1", "C2H3NO" or "H-1N-1O1".
// A missing count means one atom.
func ParseFormula(s string) (Formula, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty chemical formula")
	}

	f := Formula{}
	i := 0
	for i < len(s) {
		if !unicode.IsUpper(rune(s[i])) {
			return nil, fmt.Errorf("invalid chemical formula '%s': unexpected '%c' at %d", s, s[i], i)
		}
		j := i + 1
		for j < len(s) && unicode.IsLower(rune(s[j])) {
			j++
		}
		element := s[i:j]
		if _, ok := elementMasses[element]; !ok {
			return nil, fmt.Errorf("invalid chemical formula '%s': unknown element '%s'", s, element)
		}

		k := j
		if k < len(s) && s[k] == '-' {
			k++
		}
		for k < len(s) && unicode.IsDigit(rune(s[k])) {
			k++
		}
		count := 1
		if k > j {
			n, err := strconv.Atoi(s[j:k])
			if err != nil {
				return nil, fmt.Errorf("invalid chemical formula '%s': bad count for %s: %w", s, element, err)
			}
			count = n
		}
		f[element] += count
		i = k
	}
	return f, nil
}

// Mass returns the monoisotopic mass of the formula.
func (f Formula) Mass() float64 {
	var mass float64
	for element, count := range f {
		mass += float64(count) * elementMasses[element]
	}
	return mass
}

// String renders the formula in Hill order (C, H, then alphabetical) with explicit counts.
func (f Formula) String() string {
	elements := make([]string, 0, len(f))
	for e, n := range f {
		if n != 0 {
			elements = append(elements, e)
		}
	}
	sort.Slice(elements, func(i, j int) bool {
		return hillRank(elements[i]) < hillRank(elements[j]) ||
			(hillRank(elements[i]) == hillRank(elements[j]) && elements[i] < elements[j])
	})

	var b strings.Builder
	for _, e := range elements {
		b.WriteString(e)
		b.WriteString(strconv.Itoa(f[e]))
	}
	return b.String()
}

func hillRank(element string) int {
	switch element {
	case "C":
		return 0
	case "H":
		return 1
	}
	return 2
}
