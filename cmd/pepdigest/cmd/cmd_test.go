package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/pepdigest/pkg/writer/sqlite"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestFragmentCommand(t *testing.T) {
	out := execute(t, "fragment", "PEPTIDE", "--ion-types", "b")

	assert.Contains(t, out, "Peptide: PEPTIDE")
	assert.Contains(t, out, "799.35996")
	assert.Contains(t, out, "226.09536")
	assert.NotContains(t, out, "y1")
}

func TestProteasesCommand(t *testing.T) {
	out := execute(t, "proteases")

	assert.Contains(t, out, "trypsin")
	assert.Contains(t, out, "K|[P],R|[P]")
}

func TestValidateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepdigest.yaml")

	out := execute(t, "validate", "--write-default", path)
	assert.Contains(t, out, "Wrote default configuration")
	writeDefault = ""

	out = execute(t, "validate", path)
	assert.Contains(t, out, "Configuration is valid")
	assert.Contains(t, out, "trypsin")
}

func TestDigestAndSummarize(t *testing.T) {
	dir := t.TempDir()
	fastaPath := filepath.Join(dir, "proteins.fasta")
	dbPath := filepath.Join(dir, "index.db")
	plotPath := filepath.Join(dir, "lengths.svg")

	fasta := ">sp|P1|TEST_HUMAN Test protein GN=TST\nMPEPTIDEKAAAARLLLK\n>P2 second\nPEPTIDEKGGR\n"
	require.NoError(t, os.WriteFile(fastaPath, []byte(fasta), 0644))

	execute(t, "digest", "--in", fastaPath, "--out", dbPath,
		"--min-length", "1", "--missed", "0", "--decoys", "--dedup", "--workers", "2")

	header, err := sqlite.ReadHeader(dbPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header.DigestionParams, "0,Variable,1,"))

	lengths, err := sqlite.ReadPeptideLengths(dbPath)
	require.NoError(t, err)
	assert.NotEmpty(t, lengths)

	out := execute(t, "summarize", dbPath, "--plot", plotPath)
	assert.Contains(t, out, "Digestion: 0,Variable,1,")
	assert.Contains(t, out, "length")

	svg, err := os.ReadFile(plotPath)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}
