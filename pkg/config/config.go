// Package config provides configuration loading and management for pepdigest.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/digest"
	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

// Config represents the complete pepdigest configuration
type Config struct {
	Digestion     DigestionConfig     `yaml:"digestion"`
	Modifications ModificationsConfig `yaml:"modifications"`
	Fragmentation FragmentationConfig `yaml:"fragmentation"`
	Output        OutputConfig        `yaml:"output"`
}

// DigestionConfig configures how proteins are cut into peptides
type DigestionConfig struct {
	// Protease is a name from the protease table (default: trypsin)
	Protease string `yaml:"protease"`
	// ProteaseFile adds or overrides protease table rows
	ProteaseFile string `yaml:"protease_file,omitempty"`
	MaxMissedCleavages      int `yaml:"max_missed_cleavages"`
	MinPeptideLength        int `yaml:"min_peptide_length"`
	// MaxPeptideLength of 0 means unbounded
	MaxPeptideLength        int `yaml:"max_peptide_length"`
	MaxModificationIsoforms int `yaml:"max_modification_isoforms"`
	MaxModsForPeptide       int `yaml:"max_mods_for_peptide"`
	// InitiatorMethionine is Variable, Retain or Cleave
	InitiatorMethionine string `yaml:"initiator_methionine"`
	// SearchMode is Full, Semi or None
	SearchMode string `yaml:"search_mode"`
	// FragmentationTerminus is Both, N or C
	FragmentationTerminus string `yaml:"fragmentation_terminus"`
}

// ModificationsConfig selects modifications from the catalog by "Id on Motif"
type ModificationsConfig struct {
	// CatalogFile is a CSV catalog merged over the built-in one
	CatalogFile string   `yaml:"catalog_file,omitempty"`
	Fixed       []string `yaml:"fixed"`
	Variable    []string `yaml:"variable"`
}

// FragmentationConfig configures theoretical fragment generation
type FragmentationConfig struct {
	Dissociation string `yaml:"dissociation"`
	// MinInternalLength of 0 disables internal fragments
	MinInternalLength int `yaml:"min_internal_length"`
	// IonTypes restricts the stored products (empty = keep all)
	IonTypes []string `yaml:"ion_types,omitempty"`
	MinMass  float64  `yaml:"min_mass"`
	MaxMass  float64  `yaml:"max_mass"`
}

// OutputConfig configures the index writer
type OutputConfig struct {
	Decoys      bool   `yaml:"decoys"`
	Dedup       bool   `yaml:"dedup"`
	Workers     int    `yaml:"workers"`
	Description string `yaml:"description,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Digestion: DigestionConfig{
			Protease:                digest.DefaultProtease,
			MaxMissedCleavages:      digest.DefaultMaxMissedCleavages,
			MinPeptideLength:        digest.DefaultMinPeptideLength,
			MaxPeptideLength:        0, // Unbounded
			MaxModificationIsoforms: digest.DefaultMaxModificationIsoforms,
			MaxModsForPeptide:       digest.DefaultMaxModsForPeptide,
			InitiatorMethionine:     protease.Variable.String(),
			SearchMode:              protease.Full.String(),
			FragmentationTerminus:   fragment.TerminusBoth.String(),
		},
		Modifications: ModificationsConfig{
			Fixed:    []string{"Carbamidomethyl on C"},
			Variable: []string{"Oxidation on M"},
		},
		Fragmentation: FragmentationConfig{
			Dissociation: core.HCD.String(),
			MinMass:      0,
			MaxMass:      0, // No upper bound
		},
		Output: OutputConfig{
			Workers: 4,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	d := c.Digestion
	if d.Protease == "" {
		return fmt.Errorf("digestion.protease is required")
	}
	if d.MaxMissedCleavages < 0 {
		return fmt.Errorf("digestion.max_missed_cleavages must be >= 0")
	}
	if d.MinPeptideLength < 0 {
		return fmt.Errorf("digestion.min_peptide_length must be >= 0")
	}
	if d.MaxPeptideLength < 0 || (d.MaxPeptideLength > 0 && d.MaxPeptideLength < d.MinPeptideLength) {
		return fmt.Errorf("digestion.max_peptide_length must be 0 or >= min_peptide_length")
	}
	if d.MaxModsForPeptide < 0 {
		return fmt.Errorf("digestion.max_mods_for_peptide must be >= 0")
	}
	if _, err := protease.ParseInitiatorMethionineBehavior(d.InitiatorMethionine); err != nil {
		return fmt.Errorf("digestion.initiator_methionine: %w", err)
	}
	if _, err := parseSearchMode(d.SearchMode); err != nil {
		return fmt.Errorf("digestion.search_mode: %w", err)
	}
	if _, err := fragment.ParseTerminus(d.FragmentationTerminus); err != nil {
		return fmt.Errorf("digestion.fragmentation_terminus: %w", err)
	}

	f := c.Fragmentation
	if _, err := core.ParseDissociationType(f.Dissociation); err != nil {
		return fmt.Errorf("fragmentation.dissociation: %w", err)
	}
	if f.MinInternalLength < 0 {
		return fmt.Errorf("fragmentation.min_internal_length must be >= 0")
	}
	for _, name := range f.IonTypes {
		if _, err := fragment.ParseProductType(strings.TrimSpace(name)); err != nil {
			return fmt.Errorf("fragmentation.ion_types: %w", err)
		}
	}
	if f.MinMass < 0 || (f.MaxMass > 0 && f.MaxMass < f.MinMass) {
		return fmt.Errorf("fragmentation mass range [%g, %g] is invalid", f.MinMass, f.MaxMass)
	}

	if c.Output.Workers < 1 {
		return fmt.Errorf("output.workers must be >= 1")
	}
	return nil
}

func parseSearchMode(s string) (protease.CleavageSpecificity, error) {
	mode, err := protease.ParseCleavageSpecificity(s)
	if err != nil {
		return mode, err
	}
	switch mode {
	case protease.Full, protease.Semi, protease.None:
		return mode, nil
	}
	return mode, fmt.Errorf("search mode must be Full, Semi or None, got '%s'", s)
}

// Params converts the digestion settings into digest params using table for protease lookup.
func (d *DigestionConfig) Params(table *protease.Table) (*digest.DigestionParams, error) {
	mode, err := parseSearchMode(d.SearchMode)
	if err != nil {
		return nil, err
	}
	terminus, err := fragment.ParseTerminus(d.FragmentationTerminus)
	if err != nil {
		return nil, err
	}
	imb, err := protease.ParseInitiatorMethionineBehavior(d.InitiatorMethionine)
	if err != nil {
		return nil, err
	}

	params, err := digest.NewDigestionParams(table, d.Protease, mode, terminus)
	if err != nil {
		return nil, err
	}
	params.MaxMissedCleavages = d.MaxMissedCleavages
	params.MinPeptideLength = d.MinPeptideLength
	params.MaxPeptideLength = d.MaxPeptideLength
	if params.MaxPeptideLength == 0 {
		params.MaxPeptideLength = math.MaxInt
	}
	params.MaxModificationIsoforms = d.MaxModificationIsoforms
	params.MaxModsForPeptide = d.MaxModsForPeptide
	params.InitiatorMethionineBehavior = imb

	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// Resolve looks up the fixed and variable modifications in catalog.
func (m *ModificationsConfig) Resolve(catalog *core.ModificationCatalog) (fixed, variable []*core.Modification, err error) {
	if fixed, err = catalog.Resolve(m.Fixed); err != nil {
		return nil, nil, fmt.Errorf("modifications.fixed: %w", err)
	}
	if variable, err = catalog.Resolve(m.Variable); err != nil {
		return nil, nil, fmt.Errorf("modifications.variable: %w", err)
	}
	return fixed, variable, nil
}

// DissociationType parses the configured dissociation type.
func (f *FragmentationConfig) DissociationType() (core.DissociationType, error) {
	return core.ParseDissociationType(f.Dissociation)
}

// ProductTypes parses the configured ion type filter.
func (f *FragmentationConfig) ProductTypes() ([]fragment.ProductType, error) {
	types := make([]fragment.ProductType, 0, len(f.IonTypes))
	for _, name := range f.IonTypes {
		t, err := fragment.ParseProductType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Digestion
	d, o := &c.Digestion, other.Digestion
	if o.Protease != "" {
		d.Protease = o.Protease
	}
	if o.ProteaseFile != "" {
		d.ProteaseFile = o.ProteaseFile
	}
	if o.MaxMissedCleavages != 0 {
		d.MaxMissedCleavages = o.MaxMissedCleavages
	}
	if o.MinPeptideLength != 0 {
		d.MinPeptideLength = o.MinPeptideLength
	}
	if o.MaxPeptideLength != 0 {
		d.MaxPeptideLength = o.MaxPeptideLength
	}
	if o.MaxModificationIsoforms != 0 {
		d.MaxModificationIsoforms = o.MaxModificationIsoforms
	}
	if o.MaxModsForPeptide != 0 {
		d.MaxModsForPeptide = o.MaxModsForPeptide
	}
	if o.InitiatorMethionine != "" {
		d.InitiatorMethionine = o.InitiatorMethionine
	}
	if o.SearchMode != "" {
		d.SearchMode = o.SearchMode
	}
	if o.FragmentationTerminus != "" {
		d.FragmentationTerminus = o.FragmentationTerminus
	}

	// Modifications
	if other.Modifications.CatalogFile != "" {
		c.Modifications.CatalogFile = other.Modifications.CatalogFile
	}
	if len(other.Modifications.Fixed) > 0 {
		c.Modifications.Fixed = other.Modifications.Fixed
	}
	if len(other.Modifications.Variable) > 0 {
		c.Modifications.Variable = other.Modifications.Variable
	}

	// Fragmentation
	if other.Fragmentation.Dissociation != "" {
		c.Fragmentation.Dissociation = other.Fragmentation.Dissociation
	}
	if other.Fragmentation.MinInternalLength != 0 {
		c.Fragmentation.MinInternalLength = other.Fragmentation.MinInternalLength
	}
	if len(other.Fragmentation.IonTypes) > 0 {
		c.Fragmentation.IonTypes = other.Fragmentation.IonTypes
	}
	if other.Fragmentation.MinMass != 0 {
		c.Fragmentation.MinMass = other.Fragmentation.MinMass
	}
	if other.Fragmentation.MaxMass != 0 {
		c.Fragmentation.MaxMass = other.Fragmentation.MaxMass
	}

	// Output
	if other.Output.Decoys {
		c.Output.Decoys = true
	}
	if other.Output.Dedup {
		c.Output.Dedup = true
	}
	if other.Output.Workers != 0 {
		c.Output.Workers = other.Output.Workers
	}
	if other.Output.Description != "" {
		c.Output.Description = other.Output.Description
	}
}
