package fasta

import (
	"strings"
	"testing"
)

const testFasta = `>sp|P02769|ALBU_BOVIN Albumin OS=Bos taurus OX=9913 GN=ALB PE=1 SV=4
MKWVTFISLL LLFSSAYS
RGVFRRDTHK

>tr|A0A024R161|A0A024R161_HUMAN Guanine nucleotide-binding protein subunit gamma OS=Homo sapiens
MASNNTASIAQARKLVEQLKMEANIDRIKVSKAAADLMAYCEAHAKEDPLLTPVPASENPFR*
>DECOY_P12345 reversed entry
kedcba
`

func TestReaderEntries(t *testing.T) {
	r := NewReader(strings.NewReader(testFasta))

	tests := []struct {
		accession string
		name      string
		sequence  string
		decoy     bool
	}{
		{"P02769", "ALB", "MKWVTFISLLLLFSSAYSRGVFRRDTHK", false},
		{"A0A024R161", "A0A024R161_HUMAN", "MASNNTASIAQARKLVEQLKMEANIDRIKVSKAAADLMAYCEAHAKEDPLLTPVPASENPFR", false},
		{"DECOY_P12345", "reversed entry", "KEDCBA", true},
	}

	for _, tt := range tests {
		if !r.Next() {
			t.Fatalf("expected entry %s, reader stopped: %v", tt.accession, r.Err())
		}
		p := r.Protein()
		if p.Accession != tt.accession {
			t.Errorf("accession = %s, want %s", p.Accession, tt.accession)
		}
		if p.Name != tt.name {
			t.Errorf("name = %s, want %s", p.Name, tt.name)
		}
		if p.BaseSequence != tt.sequence {
			t.Errorf("sequence = %s, want %s", p.BaseSequence, tt.sequence)
		}
		if p.IsDecoy != tt.decoy {
			t.Errorf("%s: decoy = %v, want %v", tt.accession, p.IsDecoy, tt.decoy)
		}
	}

	if r.Next() {
		t.Errorf("unexpected extra entry %s", r.Protein().Accession)
	}
	if r.Err() != nil {
		t.Errorf("unexpected error: %v", r.Err())
	}
}

func TestReadAll(t *testing.T) {
	proteins, err := NewReader(strings.NewReader(testFasta)).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(proteins) != 3 {
		t.Errorf("expected 3 proteins, got %d", len(proteins))
	}
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"sequence before header", "PEPTIDE\n>P1\nPEPTIDE\n", "line 1"},
		{"empty entry", ">P1\n>P2\nPEPTIDE\n", "has no sequence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tt.input))
			for r.Next() {
			}
			if r.Err() == nil || !strings.Contains(r.Err().Error(), tt.wantErr) {
				t.Errorf("Err() = %v, want error containing %q", r.Err(), tt.wantErr)
			}
		})
	}
}

func TestReaderEmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader("\n\n"))
	if r.Next() {
		t.Error("expected no entries")
	}
	if r.Err() != nil {
		t.Errorf("unexpected error: %v", r.Err())
	}
}
