// Package fragment defines theoretical product ions and the per-dissociation ion series rules.
package fragment

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
)

// ProductType is an ion series.
type ProductType int

const (
	A ProductType = iota
	AStar
	ADegree
	B
	BAmmoniaLoss
	BWaterLoss
	C
	X
	Y
	YAmmoniaLoss
	YWaterLoss
	ZDot
	ZPlusOne
	// M is the intact precursor minus a neutral loss.
	M
	// D is a diagnostic ion.
	D
)

var productTypeNames = [...]string{
	A:            "a",
	AStar:        "aStar",
	ADegree:      "aDegree",
	B:            "b",
	BAmmoniaLoss: "bAmmoniaLoss",
	BWaterLoss:   "bWaterLoss",
	C:            "c",
	X:            "x",
	Y:            "y",
	YAmmoniaLoss: "yAmmoniaLoss",
	YWaterLoss:   "yWaterLoss",
	ZDot:         "zDot",
	ZPlusOne:     "zPlusOne",
	M:            "M",
	D:            "D",
}

func (t ProductType) String() string {
	if t < 0 || int(t) >= len(productTypeNames) {
		return fmt.Sprintf("ProductType(%d)", int(t))
	}
	return productTypeNames[t]
}

// ParseProductType parses the names produced by String.
func ParseProductType(s string) (ProductType, error) {
	for i, name := range productTypeNames {
		if s == name {
			return ProductType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown product type '%s'", s)
}

// Terminus is the end of the peptide a fragment retains.
type Terminus int

const (
	TerminusBoth Terminus = iota
	TerminusN
	TerminusC
	TerminusNone
)

func (t Terminus) String() string {
	switch t {
	case TerminusBoth:
		return "Both"
	case TerminusN:
		return "N"
	case TerminusC:
		return "C"
	case TerminusNone:
		return "None"
	}
	return fmt.Sprintf("Terminus(%d)", int(t))
}

// ParseTerminus parses "Both", "N", "C" or "None", case-insensitively.
func ParseTerminus(s string) (Terminus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "both", "":
		return TerminusBoth, nil
	case "n":
		return TerminusN, nil
	case "c":
		return TerminusC, nil
	case "none":
		return TerminusNone, nil
	}
	return TerminusBoth, fmt.Errorf("unknown fragmentation terminus '%s'", s)
}

// Product is a single theoretical fragment ion.
type Product struct {
	ProductType     ProductType
	Terminus        Terminus
	NeutralMass     float64
	FragmentNumber  int
	ResiduePosition int
	NeutralLoss     float64

	// Internal fragments carry the N-terminal ion type that bounds them.
	SecondaryProductType    ProductType
	SecondaryFragmentNumber int
}

// NewProduct builds a terminal, whole-molecule or diagnostic product.
func NewProduct(t ProductType, term Terminus, neutralMass float64, fragmentNumber, residuePosition int, neutralLoss float64) Product {
	return Product{
		ProductType:     t,
		Terminus:        term,
		NeutralMass:     neutralMass,
		FragmentNumber:  fragmentNumber,
		ResiduePosition: residuePosition,
		NeutralLoss:     neutralLoss,
	}
}

// IsInternal reports whether the product is bounded by two cleavages.
func (p Product) IsInternal() bool {
	return p.SecondaryFragmentNumber != 0
}

// Annotation returns the label used for spectrum annotation, e.g. "b3", "y5-97.98" or "yIb[2-5]".
func (p Product) Annotation() string {
	var b strings.Builder
	if p.IsInternal() {
		fmt.Fprintf(&b, "%sI%s[%d-%d]", p.ProductType, p.SecondaryProductType, p.FragmentNumber, p.SecondaryFragmentNumber)
	} else {
		b.WriteString(p.ProductType.String())
		b.WriteString(strconv.Itoa(p.FragmentNumber))
	}
	if p.NeutralLoss != 0 {
		fmt.Fprintf(&b, "-%.2f", p.NeutralLoss)
	}
	return b.String()
}

// String returns "b1;97.05276-0": annotation base, mass to five decimals and neutral loss.
func (p Product) String() string {
	return fmt.Sprintf("%s%d;%.5f-%s", p.ProductType, p.FragmentNumber, p.NeutralMass,
		strconv.FormatFloat(p.NeutralLoss, 'f', -1, 64))
}

// MZ returns the product m/z at the given charge.
func (p Product) MZ(charge int) float64 {
	return core.ToMZ(p.NeutralMass, charge)
}

// Equal compares products with a mass tolerance of 1e-9.
func (p Product) Equal(o Product) bool {
	return p.ProductType == o.ProductType &&
		p.Terminus == o.Terminus &&
		p.FragmentNumber == o.FragmentNumber &&
		p.ResiduePosition == o.ResiduePosition &&
		p.SecondaryProductType == o.SecondaryProductType &&
		p.SecondaryFragmentNumber == o.SecondaryFragmentNumber &&
		massEqual(p.NeutralMass, o.NeutralMass) &&
		massEqual(p.NeutralLoss, o.NeutralLoss)
}

func massEqual(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) < 1e-9
}
