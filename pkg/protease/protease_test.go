package protease

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
)

func mustProtease(t *testing.T, name, rule string, spec CleavageSpecificity) *Protease {
	t.Helper()
	p, err := NewProtease(name, rule, spec, "", "")
	require.NoError(t, err)
	return p
}

func TestDigestionSiteIndices(t *testing.T) {
	tests := []struct {
		name string
		rule string
		seq  string
		want []int
	}{
		{"trypsin", "K|[P],R|[P]", "PROTEIN", []int{0, 2, 7}},
		{"trypsin blocked by proline", "K|[P],R|[P]", "AKPARA", []int{0, 5, 6}},
		{"lys-n", "|K", "KKPROTEIN", []int{0, 1, 9}},
		{"asp-n", "|D", "PADDMSKDPDMMAASMDJSSM", []int{0, 2, 3, 7, 9, 16, 21}},
		{"wildcard exclusion", "RX{P}|", "PROPRPPM", []int{0, 3, 8}},
		{"collagenase", "GPX|GPX", "ABCGPXGPMFKCGPMKK", []int{0, 6, 17}},
		{"any preventing motif blocks", "N[M]|,N[C]|,N[A]|", "PRONFNMMHFHAA", []int{0, 4, 13}},
		{"no motifs", "", "PEPTIDE", []int{0, 7}},
		{"empty sequence", "K|", "", []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustProtease(t, tt.name, tt.rule, Full)
			assert.Equal(t, tt.want, p.DigestionSiteIndices(tt.seq))
		})
	}
}

func TestNewProteaseErrors(t *testing.T) {
	_, err := NewProtease("bad", "X[Y,P]", Full, "", "")
	assert.ErrorIs(t, err, ErrRuleSyntax)

	_, err = NewProtease("", "K|", Full, "", "")
	assert.Error(t, err)

	_, err = NewProtease("unknown", "K|", Unknown, "", "")
	assert.Error(t, err)
}

func TestCleavageSpecificityOf(t *testing.T) {
	trypsin := mustProtease(t, "trypsin", "K|[P],R|[P]", Full)
	protein := &core.Protein{
		Accession:           "P1",
		BaseSequence:        "MAAKAAKAA",
		ProteolysisProducts: []core.ProteolysisProduct{{OneBasedBeginPosition: 5, OneBasedEndPosition: 6, Type: "chain"}},
	}

	tests := []struct {
		start, end int
		retain     bool
		want       CleavageSpecificity
	}{
		{1, 4, true, Full},
		{5, 7, true, Full},
		{2, 4, false, Full},
		{2, 4, true, Semi},
		{3, 4, true, Semi},
		{2, 3, true, None},
		{5, 6, true, Full},
		{8, 8, true, Semi},
	}

	for _, tt := range tests {
		got := trypsin.CleavageSpecificityOf(protein, tt.start, tt.end, tt.retain)
		assert.Equal(t, tt.want, got, "interval %d-%d retain=%v", tt.start, tt.end, tt.retain)
	}

	singleN := mustProtease(t, "singleN", "", SingleN)
	assert.Equal(t, None, singleN.CleavageSpecificityOf(protein, 1, 4, true))
}

func TestValidLength(t *testing.T) {
	assert.True(t, ValidLength(5, 0, 0))
	assert.True(t, ValidLength(5, 5, 5))
	assert.False(t, ValidLength(4, 5, 0))
	assert.False(t, ValidLength(6, 1, 5))
	assert.True(t, ValidLength(1<<40, 1, int(^uint(0)>>1)))
}

func TestParseEnums(t *testing.T) {
	s, err := ParseCleavageSpecificity("semi")
	require.NoError(t, err)
	assert.Equal(t, Semi, s)
	assert.Equal(t, "SingleC", SingleC.String())

	_, err = ParseCleavageSpecificity("partial")
	assert.Error(t, err)

	b, err := ParseInitiatorMethionineBehavior("cleave")
	require.NoError(t, err)
	assert.Equal(t, Cleave, b)

	_, err = ParseInitiatorMethionineBehavior("drop")
	assert.Error(t, err)
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()

	trypsin, ok := table.Get("trypsin")
	require.True(t, ok)
	assert.Equal(t, Full, trypsin.Specificity)
	assert.Equal(t, "MS:1001251", trypsin.PsiMsAccessionNumber)
	assert.Equal(t, "K|[P],R|[P]", trypsin.Rule())

	topDown, ok := table.Get("Top-Down")
	require.True(t, ok)
	assert.Equal(t, None, topDown.Specificity)
	assert.Empty(t, topDown.Motifs)

	for _, name := range []string{"singleN", "singleC", "non-specific", "semi-trypsin", "collagenase"} {
		_, ok := table.Get(name)
		assert.True(t, ok, name)
	}
	assert.Equal(t, "trypsin", table.Names()[0])
	assert.Len(t, table.SortedNames(), table.Len())
}

func TestLoadTableMerge(t *testing.T) {
	extra := "Name\tMotif\tSpecificity\tPSI-MS Accession Number\tPSI-MS Name\n" +
		"# custom rules\n" +
		"trypsin\tK|,R|\tfull\t\t\n" +
		"my-enzyme\tW|\tsemi\n"

	other, err := LoadTable(strings.NewReader(extra))
	require.NoError(t, err)
	assert.Equal(t, 2, other.Len())

	base := DefaultTable()
	merged := base.Merge(other)
	assert.Equal(t, base.Len()+1, merged.Len())
	assert.Equal(t, "K|,R|", merged.MustGet("trypsin").Rule())
	assert.Equal(t, "K|[P],R|[P]", base.MustGet("trypsin").Rule())
	assert.Equal(t, Semi, merged.MustGet("my-enzyme").Specificity)
}

func TestLoadTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"too few fields", "header\ntrypsin\tK|\n", "line 2"},
		{"bad specificity", "header\ntrypsin\tK|\tpartial\n", "line 2"},
		{"bad rule", "header\n\nbad\tK\tfull\n", "line 3"},
		{"duplicate", "header\na\tK|\tfull\na\tR|\tfull\n", "duplicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTable(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
