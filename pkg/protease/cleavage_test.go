package protease

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
)

type interval struct{ start, end int }

func intervals(peptides []*ProteolyticPeptide) []interval {
	out := make([]interval, len(peptides))
	for i, p := range peptides {
		out[i] = interval{p.OneBasedStart, p.OneBasedEnd}
	}
	return out
}

func sequences(peptides []*ProteolyticPeptide) []string {
	out := make([]string, len(peptides))
	for i, p := range peptides {
		out[i] = p.BaseSequence()
	}
	return out
}

func protein(seq string) *core.Protein {
	return &core.Protein{Accession: "test", BaseSequence: seq}
}

func TestFullDigestion(t *testing.T) {
	tests := []struct {
		name   string
		rule   string
		seq    string
		missed int
		imb    InitiatorMethionineBehavior
		minLen int
		count  int
		first  string
		last   string
	}{
		{"trypsin", "K|[P],R|[P]", "PROTEIN", 0, Variable, 1, 2, "PR", "OTEIN"},
		{"lys-c with initiator methionine", "K|[P]", "MKPKPKPMKA", 0, Variable, 1, 3, "MKPKPKPMK", "A"},
		{"wildcard exclusion", "RX{P}|", "PROPRPPM", 0, Variable, 1, 2, "PRO", "PRPPM"},
		{"n-terminal motif", "|AAA", "FAAAMAAM", 0, Variable, 1, 2, "F", "AAAMAAM"},
		{"collagenase", "GPX|GPX", "ABCGPXGPMFKCGPMKK", 0, Variable, 1, 2, "ABCGPX", "GPMFKCGPMKK"},
		{"asp-n", "|D", "PADDMSKDPDMMAASMDJSSM", 0, Variable, 1, 6, "PA", "DJSSM"},
		{"lys-n", "|K", "KKPROTEIN", 0, Variable, 1, 2, "K", "KPROTEIN"},
		{"chymotrypsin", "F[P]|,W[P]|,Y[P]|", "AASFPWDJSSMF", 0, Variable, 1, 2, "AASFPW", "DJSSMF"},
		{"non-specific", "X|", "PRO", 0, Variable, 1, 3, "P", "O"},
		{"any preventing motif blocks", "N[M]|,N[C]|,N[A]|", "PRONFNMMHFHAA", 0, Variable, 1, 2, "PRON", "FNMMHFHAA"},
		{"single site pair", "K|[P]", "PROKPKMKP", 0, Variable, 1, 2, "PROKPK", "MKP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustProtease(t, tt.name, tt.rule, Full)
			peptides := p.UnmodifiedPeptides(protein(tt.seq), tt.missed, tt.imb, tt.minLen, 0, nil)
			require.Len(t, peptides, tt.count)
			assert.Equal(t, tt.first, peptides[0].BaseSequence())
			assert.Equal(t, tt.last, peptides[len(peptides)-1].BaseSequence())
			for _, pep := range peptides {
				assert.Equal(t, Full, pep.Specificity)
			}
		})
	}
}

func TestFullDigestionInitiatorMethionine(t *testing.T) {
	lysC := mustProtease(t, "Lys-C", "K|[P]", Full)
	prot := protein("MKPKPKPMKA")

	tests := []struct {
		imb  InitiatorMethionineBehavior
		want []string
	}{
		{Variable, []string{"MKPKPKPMK", "KPKPKPMK", "A"}},
		{Retain, []string{"MKPKPKPMK", "A"}},
		{Cleave, []string{"KPKPKPMK", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.imb.String(), func(t *testing.T) {
			peptides := lysC.UnmodifiedPeptides(prot, 0, tt.imb, 1, 0, nil)
			assert.Equal(t, tt.want, sequences(peptides))
		})
	}

	peptides := lysC.UnmodifiedPeptides(prot, 0, Variable, 1, 0, nil)
	assert.Equal(t, "full:M cleaved", peptides[1].Description)
}

func TestFullDigestionIntervalCount(t *testing.T) {
	nonSpecific := mustProtease(t, "non-specific", "X|", Full)
	prot := protein("PEPTIDEK")

	// K sites including both termini, cap M: sum over m of K-1-m
	k := 9
	for missed := 0; missed <= 3; missed++ {
		want := 0
		for m := 0; m <= missed; m++ {
			want += k - 1 - m
		}
		peptides := nonSpecific.UnmodifiedPeptides(prot, missed, Retain, 1, 0, nil)
		assert.Len(t, peptides, want, "missed=%d", missed)
		for _, pep := range peptides {
			assert.LessOrEqual(t, pep.MissedCleavages, missed)
			assert.Equal(t, pep.Length()-1, pep.MissedCleavages)
		}
	}
}

func TestFullDigestionLengthBounds(t *testing.T) {
	trypsin := mustProtease(t, "trypsin", "K|[P],R|[P]", Full)
	prot := protein("MAKAAAKAAAAARAAAAAAAK")

	peptides := trypsin.UnmodifiedPeptides(prot, 2, Variable, 5, 10, nil)
	require.NotEmpty(t, peptides)
	for _, pep := range peptides {
		assert.GreaterOrEqual(t, pep.Length(), 5, pep.String())
		assert.LessOrEqual(t, pep.Length(), 10, pep.String())
		assert.LessOrEqual(t, pep.MissedCleavages, 2)
	}
}

func TestFullDigestionProteolysisProducts(t *testing.T) {
	trypsin := mustProtease(t, "trypsin", "K|[P],R|[P]", Full)
	prot := protein("AAAKAAAAKAAA")
	prot.ProteolysisProducts = []core.ProteolysisProduct{
		{OneBasedBeginPosition: 3, OneBasedEndPosition: 10, Type: "chain"},
		{Type: "propeptide"},
	}

	peptides := trypsin.UnmodifiedPeptides(prot, 0, Variable, 1, 0, nil)
	assert.Equal(t, []interval{{1, 4}, {5, 9}, {10, 12}, {3, 4}, {10, 10}}, intervals(peptides))
	assert.Equal(t, "chain start", peptides[3].Description)
	assert.Equal(t, "chain end", peptides[4].Description)

	peptides = trypsin.UnmodifiedPeptides(prot, 3, Variable, 1, 0, nil)
	last := peptides[len(peptides)-1]
	assert.Equal(t, interval{3, 10}, interval{last.OneBasedStart, last.OneBasedEnd})
	assert.Equal(t, "chain end", last.Description)
	assert.Equal(t, 2, last.MissedCleavages)
}

func TestSemiDigestion(t *testing.T) {
	semiTrypsin := mustProtease(t, "semi-trypsin", "K|[P],R|[P]", Semi)

	peptides := semiTrypsin.UnmodifiedPeptides(protein("AAKCCR"), 0, Variable, 1, 0, nil)
	assert.Equal(t, []interval{
		{1, 3}, {2, 3}, {3, 3}, {1, 1}, {1, 2},
		{4, 6}, {5, 6}, {6, 6}, {4, 4}, {4, 5},
	}, intervals(peptides))

	var full int
	for _, pep := range peptides {
		if pep.Specificity == Full {
			full++
		}
		assert.Equal(t, 0, pep.MissedCleavages)
	}
	assert.Equal(t, 2, full)
}

func TestSemiDigestionMissedCleavages(t *testing.T) {
	semiTrypsin := mustProtease(t, "semi-trypsin", "K|[P],R|[P]", Semi)

	peptides := semiTrypsin.UnmodifiedPeptides(protein("AAKCCR"), 1, Variable, 1, 0, nil)
	assert.Len(t, peptides, 14)

	seen := make(map[interval]bool)
	for _, pep := range peptides {
		iv := interval{pep.OneBasedStart, pep.OneBasedEnd}
		assert.False(t, seen[iv], "duplicate interval %v", iv)
		seen[iv] = true
		assert.LessOrEqual(t, pep.MissedCleavages, 1)
		assert.GreaterOrEqual(t, pep.MissedCleavages, 0)
	}
	assert.Equal(t, 1, peptides[0].MissedCleavages)
	assert.Equal(t, interval{1, 6}, interval{peptides[0].OneBasedStart, peptides[0].OneBasedEnd})
}

func TestSemiDigestionProteolysisProducts(t *testing.T) {
	semiTrypsin := mustProtease(t, "semi-trypsin", "K|[P],R|[P]", Semi)
	prot := protein("AAKCCR")
	prot.ProteolysisProducts = []core.ProteolysisProduct{{OneBasedBeginPosition: 2, OneBasedEndPosition: 5, Type: "peptide"}}

	peptides := semiTrypsin.UnmodifiedPeptides(prot, 0, Variable, 1, 0, nil)
	tail := peptides[10:]
	assert.Equal(t, []interval{{2, 2}, {4, 5}}, intervals(tail))
	assert.Equal(t, "peptide start", tail[0].Description)
	assert.Equal(t, "peptide end", tail[1].Description)
}

func TestTopDown(t *testing.T) {
	topDown := mustProtease(t, "top-down", "", None)
	prot := protein("MPEPTIDE")
	prot.ProteolysisProducts = []core.ProteolysisProduct{{OneBasedBeginPosition: 2, OneBasedEndPosition: 4, Type: "signal peptide"}}

	tests := []struct {
		imb  InitiatorMethionineBehavior
		want []interval
	}{
		{Variable, []interval{{1, 8}, {2, 8}, {2, 4}}},
		{Retain, []interval{{1, 8}, {2, 4}}},
		{Cleave, []interval{{2, 8}, {2, 4}}},
	}

	for _, tt := range tests {
		t.Run(tt.imb.String(), func(t *testing.T) {
			peptides := topDown.UnmodifiedPeptides(prot, 0, tt.imb, 1, 0, nil)
			assert.Equal(t, tt.want, intervals(peptides))
			last := peptides[len(peptides)-1]
			assert.Equal(t, None, last.Specificity)
			assert.Equal(t, "signal peptide", last.Description)
		})
	}

	assert.Empty(t, topDown.UnmodifiedPeptides(protein("M"), 0, Cleave, 1, 0, nil))
}

func TestSingleNNonSpecific(t *testing.T) {
	singleN := mustProtease(t, "singleN", "", SingleN)

	peptides := singleN.UnmodifiedPeptides(protein("PEPTIDE"), 0, Retain, 1, 3, nil)
	assert.Equal(t, []interval{{1, 3}, {2, 4}, {3, 5}, {4, 6}, {5, 7}, {6, 7}, {7, 7}}, intervals(peptides))
	for _, pep := range peptides {
		assert.Equal(t, Unknown, pep.Specificity)
		assert.Equal(t, "SingleN", pep.Description)
	}

	peptides = singleN.UnmodifiedPeptides(protein("PEPTIDE"), 0, Retain, 2, 0, singleN)
	assert.Len(t, peptides, 6)
	assert.Equal(t, interval{1, 7}, interval{peptides[0].OneBasedStart, peptides[0].OneBasedEnd})

	peptides = singleN.UnmodifiedPeptides(protein("MPEPTIDE"), 0, Cleave, 1, 0, nil)
	assert.Equal(t, 2, peptides[0].OneBasedStart)
}

func TestSingleCNonSpecific(t *testing.T) {
	singleC := mustProtease(t, "singleC", "", SingleC)

	peptides := singleC.UnmodifiedPeptides(protein("PEPTIDE"), 0, Retain, 1, 3, nil)
	assert.Equal(t, []interval{{1, 1}, {1, 2}, {1, 3}, {2, 4}, {3, 5}, {4, 6}, {5, 7}}, intervals(peptides))

	peptides = singleC.UnmodifiedPeptides(protein("MPEPTIDE"), 0, Cleave, 1, 0, nil)
	assert.Equal(t, interval{2, 2}, interval{peptides[0].OneBasedStart, peptides[0].OneBasedEnd})
	assert.Len(t, peptides, 7)
}

func TestSingleNWithSpecificProtease(t *testing.T) {
	singleN := mustProtease(t, "singleN", "", SingleN)
	trypsin := mustProtease(t, "trypsin", "K|[P],R|[P]", Full)
	prot := protein("AAKAAKAA")

	peptides := singleN.UnmodifiedPeptides(prot, 0, Retain, 1, 0, trypsin)
	assert.Equal(t, []interval{{1, 3}, {2, 3}, {3, 3}, {4, 6}, {5, 6}, {6, 6}, {7, 8}, {8, 8}}, intervals(peptides))
	for _, pep := range peptides {
		assert.Equal(t, 0, pep.MissedCleavages)
	}

	assert.Equal(t, Full, trypsin.CleavageSpecificityOf(prot, 1, 3, true))
	assert.Equal(t, Semi, trypsin.CleavageSpecificityOf(prot, 2, 3, true))
}

func TestSingleCWithSpecificProtease(t *testing.T) {
	singleC := mustProtease(t, "singleC", "", SingleC)
	trypsin := mustProtease(t, "trypsin", "K|[P],R|[P]", Full)

	peptides := singleC.UnmodifiedPeptides(protein("AAKAAKAA"), 0, Retain, 1, 0, trypsin)
	require.NotEmpty(t, peptides)
	for _, pep := range peptides {
		assert.GreaterOrEqual(t, pep.Length(), 1)
		assert.LessOrEqual(t, pep.MissedCleavages, 0)
		assert.Equal(t, "SingleC", pep.Description)
	}
	assert.Equal(t, interval{7, 8}, interval{peptides[0].OneBasedStart, peptides[0].OneBasedEnd})
}

func TestDigestionIsDeterministic(t *testing.T) {
	prot := protein("MAKAAAKAAAAARAAAAAAAKPEPTIDEK")
	for _, spec := range []CleavageSpecificity{Full, Semi, None, SingleN, SingleC} {
		p := mustProtease(t, spec.String(), "K|[P],R|[P]", spec)
		first := intervals(p.UnmodifiedPeptides(prot, 2, Variable, 3, 12, nil))
		second := intervals(p.UnmodifiedPeptides(prot, 2, Variable, 3, 12, nil))
		assert.Equal(t, first, second, spec.String())
	}
}

func TestDegenerateInputs(t *testing.T) {
	trypsin := mustProtease(t, "trypsin", "K|[P],R|[P]", Full)
	assert.Empty(t, trypsin.UnmodifiedPeptides(protein(""), 2, Variable, 1, 0, nil))
	assert.Empty(t, trypsin.UnmodifiedPeptides(nil, 2, Variable, 1, 0, nil))
	assert.Empty(t, trypsin.UnmodifiedPeptides(protein("AAAA"), 2, Variable, 5, 0, nil))
}

func TestUnreachableSpecificityPanics(t *testing.T) {
	p := &Protease{Name: "broken", Specificity: Unknown}
	assert.Panics(t, func() {
		p.UnmodifiedPeptides(protein("PEPTIDE"), 0, Variable, 1, 0, nil)
	})
}
