package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

func fullSequences(peptides []*Peptide) []string {
	out := make([]string, len(peptides))
	for i, p := range peptides {
		out[i] = p.FullSequence()
	}
	return out
}

func newDigestion(t *testing.T, params *DigestionParams, fixed, variable []*core.Modification) *ProteinDigestion {
	t.Helper()
	d, err := NewProteinDigestion(params, fixed, variable)
	require.NoError(t, err)
	return d
}

func TestModificationIsoforms(t *testing.T) {
	oxidation := catalogMod(t, "Oxidation on M")
	protein := &core.Protein{Accession: "P1", BaseSequence: "PMAMK"}
	ox := "[Common Variable:Oxidation on M]"

	tests := []struct {
		name        string
		maxMods     int
		maxIsoforms int
		want        []string
	}{
		{"all", 2, 1024, []string{"PMAMK", "PMAM" + ox + "K", "PM" + ox + "AMK", "PM" + ox + "AM" + ox + "K"}},
		{"one mod", 1, 1024, []string{"PMAMK", "PMAM" + ox + "K", "PM" + ox + "AMK"}},
		{"no mods", 0, 1024, []string{"PMAMK"}},
		{"isoform cap", 2, 2, []string{"PMAMK", "PMAM" + ox + "K"}},
		{"unbounded", 2, 0, []string{"PMAMK", "PMAM" + ox + "K", "PM" + ox + "AMK", "PM" + ox + "AM" + ox + "K"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testParams(t, "trypsin", protease.Full, fragment.TerminusBoth)
			params.MaxModsForPeptide = tt.maxMods
			params.MaxModificationIsoforms = tt.maxIsoforms
			d := newDigestion(t, params, nil, []*core.Modification{oxidation})
			assert.Equal(t, tt.want, fullSequences(d.DigestAll(protein)))
		})
	}
}

func TestIsoformCount(t *testing.T) {
	// two candidates on each of three methionines and one on the cysteine
	oxidation := catalogMod(t, "Oxidation on M")
	dioxidation := &core.Modification{
		OriginalID:       "Dioxidation",
		ModificationType: "Common Variable",
		Target:           core.MustModificationMotif("M"),
		Location:         core.Anywhere,
		MonoisotopicMass: 31.989829,
	}
	cam := catalogMod(t, "Carbamidomethyl on C")
	protein := &core.Protein{Accession: "P1", BaseSequence: "AMMCMK"}

	// e_k over candidate counts (2, 2, 1, 2)
	elementary := []int{1, 7, 18, 20, 8}
	for maxMods := 0; maxMods <= 4; maxMods++ {
		params := testParams(t, "trypsin", protease.Full, fragment.TerminusBoth)
		params.MaxModsForPeptide = maxMods
		d := newDigestion(t, params, nil, []*core.Modification{oxidation, dioxidation, cam})

		want := 0
		for k := 0; k <= maxMods; k++ {
			want += elementary[k]
		}
		assert.Len(t, d.DigestAll(protein), want, "max mods %d", maxMods)
	}
}

func TestFixedModifications(t *testing.T) {
	cam := catalogMod(t, "Carbamidomethyl on C")
	oxidation := catalogMod(t, "Oxidation on M")
	acetyl := catalogMod(t, "Acetylation on X")
	protein := &core.Protein{Accession: "P1", BaseSequence: "PCMK"}

	params := testParams(t, "trypsin", protease.Full, fragment.TerminusBoth)
	d := newDigestion(t, params, []*core.Modification{cam}, []*core.Modification{oxidation})
	peptides := d.DigestAll(protein)

	require.Len(t, peptides, 2)
	for _, p := range peptides {
		assert.Equal(t, 1, p.NumFixedMods())
		assert.Same(t, cam, p.Mods()[3])
	}
	assert.Equal(t, 1, peptides[1].NumVariableMods())

	// a variable modification wins over a fixed one on the same position
	d = newDigestion(t, params, []*core.Modification{acetyl}, []*core.Modification{acetyl})
	for _, p := range d.DigestAll(protein) {
		assert.Same(t, acetyl, p.Mods()[1])
		assert.Equal(t, p.NumMods()-p.NumVariableMods(), p.NumFixedMods())
	}
}

func TestProteinLocalizedModifications(t *testing.T) {
	phospho := catalogMod(t, "Phosphorylation on S")
	protein := &core.Protein{
		Accession:    "P1",
		BaseSequence: "PESKAASK",
		OneBasedPossibleLocalizedModifications: map[int][]*core.Modification{
			3: {phospho},
			// does not fit an alanine
			5: {phospho},
		},
	}
	params := testParams(t, "trypsin", protease.Full, fragment.TerminusBoth)
	params.MaxMissedCleavages = 0
	d := newDigestion(t, params, nil, nil)

	assert.Equal(t, []string{
		"PESK",
		"PES[Common Biological:Phosphorylation on S]K",
		"AASK",
	}, fullSequences(d.DigestAll(protein)))

	// decoys take annotated modifications as they are
	protein.IsDecoy = true
	assert.Equal(t, []string{
		"PESK",
		"PES[Common Biological:Phosphorylation on S]K",
		"AASK",
		"A[Common Biological:Phosphorylation on S]ASK",
	}, fullSequences(d.DigestAll(protein)))
}

func TestNewProteinDigestionErrors(t *testing.T) {
	params := testParams(t, "trypsin", protease.Full, fragment.TerminusBoth)
	unassigned := &core.Modification{
		OriginalID:       "Odd",
		ModificationType: "Test",
		Target:           core.MustModificationMotif("K"),
		Location:         core.Unassigned,
		MonoisotopicMass: 1,
	}

	_, err := NewProteinDigestion(params, []*core.Modification{unassigned}, nil)
	assert.ErrorIs(t, err, core.ErrUnsupportedLocation)

	_, err = NewProteinDigestion(params, nil, []*core.Modification{unassigned})
	assert.ErrorIs(t, err, core.ErrUnsupportedLocation)

	_, err = NewProteinDigestion(params, []*core.Modification{{OriginalID: "NoTarget"}}, nil)
	assert.Error(t, err)

	_, err = NewProteinDigestion(nil, nil, nil)
	assert.Error(t, err)

	bad := *params
	bad.MaxMissedCleavages = -1
	_, err = NewProteinDigestion(&bad, nil, nil)
	assert.Error(t, err)
}

func TestDigestIsLazyAndRepeatable(t *testing.T) {
	oxidation := catalogMod(t, "Oxidation on M")
	protein := &core.Protein{Accession: "P1", BaseSequence: "MAMKPEPTMIDEKRAMSK"}
	params := testParams(t, "trypsin", protease.Full, fragment.TerminusBoth)
	d := newDigestion(t, params, nil, []*core.Modification{oxidation})

	first := fullSequences(d.DigestAll(protein))
	second := fullSequences(d.DigestAll(protein))
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)

	var taken []string
	for p := range d.Digest(protein) {
		taken = append(taken, p.FullSequence())
		if len(taken) == 3 {
			break
		}
	}
	assert.Equal(t, first[:3], taken)

	assert.Empty(t, d.DigestAll(&core.Protein{Accession: "empty"}))
	assert.Empty(t, d.DigestAll(nil))
}

func TestDigestInvariants(t *testing.T) {
	protein := &core.Protein{Accession: "P1", BaseSequence: "MKWVTFISLLLLFSSAYSRGVFRRDTHKSEIAHRFKDLGEEHFKGLVLIAFSQYLQQCPFDEHVK"}
	params := testParams(t, "trypsin", protease.Full, fragment.TerminusBoth)
	params.MinPeptideLength = 5
	params.MaxPeptideLength = 20
	d := newDigestion(t, params, nil, nil)

	peptides := d.DigestAll(protein)
	require.NotEmpty(t, peptides)
	for _, p := range peptides {
		assert.GreaterOrEqual(t, p.Length(), 5)
		assert.LessOrEqual(t, p.Length(), 20)
		assert.GreaterOrEqual(t, p.MissedCleavages, 0)
		assert.LessOrEqual(t, p.MissedCleavages, params.MaxMissedCleavages)
	}
}

func TestSpeedySemiDigestion(t *testing.T) {
	protein := &core.Protein{Accession: "P1", BaseSequence: "AAAAKGGGGKLLLLK"}

	type window struct {
		start, end, missed int
		specificity        protease.CleavageSpecificity
	}
	tests := []struct {
		name     string
		terminus fragment.Terminus
		missed   int
		maxLen   int
		want     []window
	}{
		{"n cropped", fragment.TerminusN, 0, 3, []window{
			{1, 3, 0, protease.Semi}, {6, 8, 0, protease.Semi}, {11, 13, 0, protease.Semi},
		}},
		{"c cropped", fragment.TerminusC, 0, 3, []window{
			{3, 5, 0, protease.Semi}, {8, 10, 0, protease.Semi}, {13, 15, 0, protease.Semi},
		}},
		{"n full windows", fragment.TerminusN, 1, 0, []window{
			{1, 10, 1, protease.Full}, {6, 15, 1, protease.Full}, {11, 15, 0, protease.Full},
		}},
		{"c full windows", fragment.TerminusC, 1, 0, []window{
			{1, 10, 1, protease.Full}, {6, 15, 1, protease.Full}, {1, 5, 0, protease.Full},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := testParams(t, "trypsin", protease.Semi, tt.terminus)
			params.MaxMissedCleavages = tt.missed
			params.MaxPeptideLength = tt.maxLen
			d := newDigestion(t, params, nil, nil)

			var got []window
			for _, p := range d.Intervals(protein) {
				got = append(got, window{p.OneBasedStart, p.OneBasedEnd, p.MissedCleavages, p.Specificity})
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSemiDigestionBothTermini(t *testing.T) {
	protein := &core.Protein{Accession: "P1", BaseSequence: "AAKCCR"}
	params := testParams(t, "trypsin", protease.Semi, fragment.TerminusBoth)
	params.MaxMissedCleavages = 0
	d := newDigestion(t, params, nil, nil)

	intervals := d.Intervals(protein)
	assert.Len(t, intervals, 10)
	var semi int
	for _, p := range intervals {
		if p.Specificity == protease.Semi {
			semi++
		}
	}
	assert.Positive(t, semi)
}

func TestNonSpecificDigestion(t *testing.T) {
	protein := &core.Protein{Accession: "P1", BaseSequence: "PEPTIDEKPEPRAAK"}

	for _, terminus := range []fragment.Terminus{fragment.TerminusN, fragment.TerminusC} {
		t.Run(terminus.String(), func(t *testing.T) {
			params := testParams(t, "trypsin", protease.None, terminus)
			params.MaxPeptideLength = 6
			params.MinPeptideLength = 3
			d := newDigestion(t, params, nil, nil)

			intervals := d.Intervals(protein)
			require.NotEmpty(t, intervals)
			specificities := map[protease.CleavageSpecificity]bool{}
			for _, p := range intervals {
				assert.NotEqual(t, protease.Unknown, p.Specificity)
				assert.Equal(t, p.Specificity.String(), p.Description)
				assert.LessOrEqual(t, p.Length(), 6)
				assert.GreaterOrEqual(t, p.Length(), 3)
				specificities[p.Specificity] = true
			}
			assert.True(t, specificities[protease.Full] || specificities[protease.Semi])
		})
	}
}

func TestTopDownDigestion(t *testing.T) {
	protein := &core.Protein{
		Accession:    "P1",
		BaseSequence: "MPEPTIDEKPEPTIDE",
		ProteolysisProducts: []core.ProteolysisProduct{
			{OneBasedBeginPosition: 2, OneBasedEndPosition: 9, Type: "chain"},
		},
	}
	params := testParams(t, "top-down", protease.Full, fragment.TerminusBoth)
	d := newDigestion(t, params, nil, nil)

	var got []string
	for _, p := range d.Intervals(protein) {
		got = append(got, p.BaseSequence())
	}
	assert.Equal(t, []string{"MPEPTIDEKPEPTIDE", "PEPTIDEKPEPTIDE", "PEPTIDEK"}, got)
}
