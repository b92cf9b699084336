package core

import (
	"testing"
)

func TestProteinValidation(t *testing.T) {
	tests := []struct {
		name    string
		protein *Protein
		wantErr bool
	}{
		{
			name:    "valid protein",
			protein: &Protein{Accession: "P1", BaseSequence: "MPEPTIDEK"},
			wantErr: false,
		},
		{
			name:    "missing accession",
			protein: &Protein{BaseSequence: "MPEPTIDEK"},
			wantErr: true,
		},
		{
			name:    "missing sequence",
			protein: &Protein{Accession: "P1"},
			wantErr: true,
		},
		{
			name:    "invalid residue",
			protein: &Protein{Accession: "P1", BaseSequence: "PEP1"},
			wantErr: true,
		},
		{
			name:    "unknown residue X allowed",
			protein: &Protein{Accession: "P1", BaseSequence: "PEXPX"},
			wantErr: false,
		},
		{
			name: "proteolysis product past the end",
			protein: &Protein{
				Accession:           "P1",
				BaseSequence:        "MPEPTIDEK",
				ProteolysisProducts: []ProteolysisProduct{{OneBasedBeginPosition: 2, OneBasedEndPosition: 12, Type: "chain"}},
			},
			wantErr: true,
		},
		{
			name: "modification outside sequence",
			protein: &Protein{
				Accession:    "P1",
				BaseSequence: "MPEPTIDEK",
				OneBasedPossibleLocalizedModifications: map[int][]*Modification{
					10: nil,
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.protein.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProteinHelpers(t *testing.T) {
	nonVariant := &Protein{Accession: "P1", BaseSequence: "MPEPTIDEK"}
	variant := &Protein{Accession: "P1", BaseSequence: "MPEVTIDEK", NonVariantProtein: nonVariant}

	if variant.NonVariant() != nonVariant {
		t.Errorf("NonVariant() should return the non-variant protein")
	}
	if nonVariant.NonVariant() != nonVariant {
		t.Errorf("NonVariant() of a non-variant protein should be itself")
	}

	p := &Protein{
		Accession:    "P1",
		BaseSequence: "MPEPTIDEK",
		OneBasedPossibleLocalizedModifications: map[int][]*Modification{
			5: {{OriginalID: "a"}},
			2: {{OriginalID: "b"}},
		},
	}
	positions := p.ModPositions()
	if len(positions) != 2 || positions[0] != 2 || positions[1] != 5 {
		t.Errorf("ModPositions() = %v, want [2 5]", positions)
	}
	if len(p.ModsAt(3)) != 0 {
		t.Errorf("ModsAt(3) should be empty")
	}

	v := SequenceVariation{OneBasedBeginPosition: 4, OneBasedEndPosition: 4, OriginalSequence: "P", VariantSequence: "V"}
	if v.SimpleString() != "P4V" {
		t.Errorf("SimpleString() = %s, want P4V", v.SimpleString())
	}
}
