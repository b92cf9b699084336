// Package digest turns proteins into modified peptides and peptides into theoretical fragment
// ions.
package digest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

// Default digestion settings.
const (
	DefaultProtease                = "trypsin"
	DefaultMaxMissedCleavages      = 2
	DefaultMinPeptideLength        = 7
	DefaultMaxPeptideLength        = math.MaxInt
	DefaultMaxModificationIsoforms = 1024
	DefaultMaxModsForPeptide       = 2
)

// DigestionParams holds every setting that shapes the peptides generated from a protein.
// It is read-only once built.
type DigestionParams struct {
	// Protease drives the cleavage engine. For non-specific searches it is singleN or singleC.
	Protease *protease.Protease
	// SpecificProtease is the protease the user asked for.
	SpecificProtease *protease.Protease

	MaxMissedCleavages          int
	MinPeptideLength            int
	MaxPeptideLength            int
	MaxModificationIsoforms     int
	MaxModsForPeptide           int
	InitiatorMethionineBehavior protease.InitiatorMethionineBehavior
	SearchModeType              protease.CleavageSpecificity
	FragmentationTerminus       fragment.Terminus
}

// NewDigestionParams builds params with default limits for the named protease. A None search
// mode digests with singleN (terminus N) or singleC (otherwise) bounded by the named protease.
func NewDigestionParams(table *protease.Table, proteaseName string, mode protease.CleavageSpecificity, terminus fragment.Terminus) (*DigestionParams, error) {
	specific, ok := table.Get(proteaseName)
	if !ok {
		return nil, fmt.Errorf("unknown protease '%s'", proteaseName)
	}

	p := &DigestionParams{
		Protease:                    specific,
		SpecificProtease:            specific,
		MaxMissedCleavages:          DefaultMaxMissedCleavages,
		MinPeptideLength:            DefaultMinPeptideLength,
		MaxPeptideLength:            DefaultMaxPeptideLength,
		MaxModificationIsoforms:     DefaultMaxModificationIsoforms,
		MaxModsForPeptide:           DefaultMaxModsForPeptide,
		InitiatorMethionineBehavior: protease.Variable,
		SearchModeType:              mode,
		FragmentationTerminus:       terminus,
	}

	switch mode {
	case protease.Full, protease.Semi:
	case protease.None:
		name := "singleC"
		if terminus == fragment.TerminusN {
			name = "singleN"
		}
		single, ok := table.Get(name)
		if !ok {
			return nil, fmt.Errorf("protease table has no '%s' entry for non-specific search", name)
		}
		p.Protease = single
	default:
		return nil, fmt.Errorf("unsupported search mode %s", mode)
	}
	return p, nil
}

// DefaultDigestionParams returns trypsin, full specificity, both termini.
func DefaultDigestionParams(table *protease.Table) (*DigestionParams, error) {
	return NewDigestionParams(table, DefaultProtease, protease.Full, fragment.TerminusBoth)
}

// Validate checks the numeric limits.
func (p *DigestionParams) Validate() error {
	var errs []string
	if p.Protease == nil || p.SpecificProtease == nil {
		errs = append(errs, "protease is required")
	}
	if p.MaxMissedCleavages < 0 {
		errs = append(errs, "max missed cleavages must be >= 0")
	}
	if p.MinPeptideLength < 0 {
		errs = append(errs, "min peptide length must be >= 0")
	}
	if p.MaxPeptideLength > 0 && p.MaxPeptideLength < p.MinPeptideLength {
		errs = append(errs, "max peptide length must be >= min peptide length")
	}
	if p.MaxModsForPeptide < 0 {
		errs = append(errs, "max mods for peptide must be >= 0")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid digestion params: %s", strings.Join(errs, "; "))
	}
	return nil
}

const paramsFieldCount = 9

// String serializes the params as
//
//	maxMissed,initMet,minLen,maxLen,maxIsoforms,maxMods,specificProtease,searchMode,terminus
//
// Stored peptide records depend on this field order.
func (p *DigestionParams) String() string {
	return strings.Join([]string{
		strconv.Itoa(p.MaxMissedCleavages),
		p.InitiatorMethionineBehavior.String(),
		strconv.Itoa(p.MinPeptideLength),
		strconv.Itoa(p.MaxPeptideLength),
		strconv.Itoa(p.MaxModificationIsoforms),
		strconv.Itoa(p.MaxModsForPeptide),
		p.SpecificProtease.Name,
		p.SearchModeType.String(),
		p.FragmentationTerminus.String(),
	}, ",")
}

// ParseDigestionParams is the inverse of String.
func ParseDigestionParams(s string, table *protease.Table) (*DigestionParams, error) {
	fields := strings.Split(s, ",")
	if len(fields) != paramsFieldCount {
		return nil, fmt.Errorf("digestion params: expected %d fields, got %d", paramsFieldCount, len(fields))
	}

	ints := make([]int, 0, 5)
	for _, i := range []int{0, 2, 3, 4, 5} {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return nil, fmt.Errorf("digestion params: field %d: %w", i+1, err)
		}
		ints = append(ints, n)
	}

	imb, err := protease.ParseInitiatorMethionineBehavior(fields[1])
	if err != nil {
		return nil, fmt.Errorf("digestion params: %w", err)
	}
	mode, err := protease.ParseCleavageSpecificity(fields[7])
	if err != nil {
		return nil, fmt.Errorf("digestion params: %w", err)
	}
	terminus, err := fragment.ParseTerminus(fields[8])
	if err != nil {
		return nil, fmt.Errorf("digestion params: %w", err)
	}

	p, err := NewDigestionParams(table, fields[6], mode, terminus)
	if err != nil {
		return nil, fmt.Errorf("digestion params: %w", err)
	}
	p.MaxMissedCleavages = ints[0]
	p.InitiatorMethionineBehavior = imb
	p.MinPeptideLength = ints[1]
	p.MaxPeptideLength = ints[2]
	p.MaxModificationIsoforms = ints[3]
	p.MaxModsForPeptide = ints[4]
	return p, nil
}

// Equal compares every field; proteases compare by name.
func (p *DigestionParams) Equal(o *DigestionParams) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.Protease.Equal(o.Protease) &&
		p.SpecificProtease.Equal(o.SpecificProtease) &&
		p.MaxMissedCleavages == o.MaxMissedCleavages &&
		p.MinPeptideLength == o.MinPeptideLength &&
		p.MaxPeptideLength == o.MaxPeptideLength &&
		p.MaxModificationIsoforms == o.MaxModificationIsoforms &&
		p.MaxModsForPeptide == o.MaxModsForPeptide &&
		p.InitiatorMethionineBehavior == o.InitiatorMethionineBehavior &&
		p.SearchModeType == o.SearchModeType &&
		p.FragmentationTerminus == o.FragmentationTerminus
}
