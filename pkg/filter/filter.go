// Package filter provides product ion filtering for export
package filter

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
)

// Config holds filtering configuration
type Config struct {
	IonTypes   []fragment.ProductType // Keep only specified ion types (nil = all)
	MinMass    float64                // Drop products lighter than this (0 = no cutoff)
	MaxMass    float64                // Drop products heavier than this (0 = no cutoff)
	NoLosses   bool                   // Drop products carrying a neutral loss
	NoInternal bool                   // Drop internal fragments
	SortByMass bool                   // Sort the surviving products by neutral mass
}

// IsZero reports whether the config keeps every product unchanged
func (c *Config) IsZero() bool {
	return len(c.IonTypes) == 0 && c.MinMass == 0 && c.MaxMass == 0 && !c.NoLosses && !c.NoInternal && !c.SortByMass
}

// Apply applies all configured filters to products in place and returns the shortened slice
func (c *Config) Apply(products []fragment.Product) []fragment.Product {
	filtered := products[:0]
	for _, p := range products {
		if c.keep(p) {
			filtered = append(filtered, p)
		}
	}

	if c.SortByMass {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].NeutralMass < filtered[j].NeutralMass
		})
	}

	return filtered
}

func (c *Config) keep(p fragment.Product) bool {
	if len(c.IonTypes) > 0 && !matchesIonType(p, c.IonTypes) {
		return false
	}
	if c.NoLosses && p.NeutralLoss != 0 {
		return false
	}
	if c.NoInternal && p.IsInternal() {
		return false
	}
	if c.MinMass > 0 && !(p.NeutralMass >= c.MinMass) {
		return false
	}
	if c.MaxMass > 0 && !(p.NeutralMass <= c.MaxMass) {
		return false
	}
	return true
}

// matchesIonType checks if a product is of any of the allowed ion types.
// Internal fragments match on either bounding type.
func matchesIonType(p fragment.Product, ionTypes []fragment.ProductType) bool {
	for _, t := range ionTypes {
		if p.ProductType == t || (p.IsInternal() && p.SecondaryProductType == t) {
			return true
		}
	}
	return false
}

// ParseIonTypes parses a comma-separated list such as "b,y,zDot"
func ParseIonTypes(list string) ([]fragment.ProductType, error) {
	var types []fragment.ProductType
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		t, err := fragment.ParseProductType(name)
		if err != nil {
			return nil, fmt.Errorf("invalid ion type list '%s': %w", list, err)
		}
		types = append(types, t)
	}
	return types, nil
}

// RemoveNaNMasses removes products whose mass could not be computed
func RemoveNaNMasses(products []fragment.Product) []fragment.Product {
	filtered := products[:0]
	for _, p := range products {
		if !math.IsNaN(p.NeutralMass) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
