package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/digest"
	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
	"github.com/ChrisMcGann/pepdigest/pkg/protease"
)

func testDigestion(t *testing.T) *digest.ProteinDigestion {
	t.Helper()
	params, err := digest.DefaultDigestionParams(protease.DefaultTable())
	require.NoError(t, err)
	params.MinPeptideLength = 1
	params.MaxMissedCleavages = 0

	d, err := digest.NewProteinDigestion(params, nil, nil)
	require.NoError(t, err)
	return d
}

func TestWriterRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	d := testDigestion(t)
	runID := uuid.New()

	w, err := NewWriter(dbPath, Header{
		RunID:        runID,
		Params:       d.Params(),
		Dissociation: core.HCD,
		Description:  "unit test",
	})
	require.NoError(t, err)
	assert.Equal(t, runID, w.RunID())

	protein := &core.Protein{Accession: "P1", Name: "test", BaseSequence: "PEPTIDEKAAR"}
	proteinID, err := w.WriteProtein(protein)
	require.NoError(t, err)
	assert.Equal(t, int64(1), proteinID)

	var (
		masses   []float64
		products []fragment.Product
		firstID  int64
	)
	for pep := range d.Digest(protein) {
		id, err := w.WritePeptide(proteinID, pep, 42, firstID)
		require.NoError(t, err)
		if firstID == 0 {
			firstID = id
		}
		masses = append(masses, pep.MonoisotopicMass())

		pep.Fragment(core.HCD, fragment.TerminusBoth, &products)
		require.NoError(t, w.WriteFragments(id, core.HCD, products))
	}
	require.Len(t, masses, 2)
	require.NoError(t, w.Finalize())

	header, err := ReadHeader(dbPath)
	require.NoError(t, err)
	assert.Equal(t, schemaVersion, header.Version)
	assert.Equal(t, runID.String(), header.RunID)
	assert.Equal(t, d.Params().String(), header.DigestionParams)
	assert.Equal(t, "HCD", header.Dissociation)
	assert.Equal(t, "unit test", header.Description)

	storedMasses, err := ReadPeptideMasses(dbPath)
	require.NoError(t, err)
	assert.Equal(t, masses, storedMasses)

	lengths, err := ReadPeptideLengths(dbPath)
	require.NoError(t, err)
	assert.Equal(t, []float64{8, 3}, lengths)

	// PEPTIDEK, both series
	rows, err := ReadFragments(dbPath, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "HCD", rows[0].Dissociation)
	assert.Len(t, rows[0].Masses, 14)
	assert.Len(t, rows[0].NeutralLoss, 14)
	assert.Equal(t, "b1", rows[0].Annotations[0])
	assert.InDelta(t, 97.05276, rows[0].Masses[0], 1e-5)
}

func TestWriterDuplicateAndHash(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	d := testDigestion(t)

	w, err := NewWriter(dbPath, Header{Params: d.Params()})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, w.RunID())

	protein := &core.Protein{Accession: "P1", BaseSequence: "PEPTIDEK"}
	proteinID, err := w.WriteProtein(protein)
	require.NoError(t, err)

	peptides := d.DigestAll(protein)
	require.Len(t, peptides, 1)

	// high bit set survives as a signed integer
	hash := uint64(1)<<63 | 7
	first, err := w.WritePeptide(proteinID, peptides[0], hash, 0)
	require.NoError(t, err)
	second, err := w.WritePeptide(proteinID, peptides[0], hash, first)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var (
		stored int64
		dup    sql.NullInt64
	)
	require.NoError(t, db.QueryRow("SELECT CompactHash, DuplicateOf FROM PeptideTable WHERE PeptideId = ?", first).Scan(&stored, &dup))
	assert.Equal(t, hash, uint64(stored))
	assert.False(t, dup.Valid)

	require.NoError(t, db.QueryRow("SELECT DuplicateOf FROM PeptideTable WHERE PeptideId = ?", second).Scan(&dup))
	assert.True(t, dup.Valid)
	assert.Equal(t, first, dup.Int64)
}

func TestDecodeFloat64(t *testing.T) {
	products := []fragment.Product{
		{NeutralMass: 97.05276},
		{NeutralMass: 226.09536},
	}
	values, err := decodeFloat64(encodeFloat64(products, func(p fragment.Product) float64 { return p.NeutralMass }))
	require.NoError(t, err)
	assert.Equal(t, []float64{97.05276, 226.09536}, values)

	_, err = decodeFloat64([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestReadMissingDatabase(t *testing.T) {
	_, err := ReadPeptideMasses(filepath.Join(t.TempDir(), "missing.db"))
	assert.Error(t, err)
}

func TestWriterAbort(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	d := testDigestion(t)

	w, err := NewWriter(dbPath, Header{Params: d.Params()})
	require.NoError(t, err)

	protein := &core.Protein{Accession: "P1", BaseSequence: "PEPTIDEK"}
	proteinID, err := w.WriteProtein(protein)
	require.NoError(t, err)
	for pep := range d.Digest(protein) {
		_, err := w.WritePeptide(proteinID, pep, 0, 0)
		require.NoError(t, err)
	}

	require.NoError(t, w.Abort())
	require.NoError(t, w.Close(), "close after abort is a no-op")

	masses, err := ReadPeptideMasses(dbPath)
	require.NoError(t, err)
	assert.Empty(t, masses)
}
