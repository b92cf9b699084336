// Package fasta provides a streaming reader for protein FASTA databases
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
)

const maxLineSize = 1024 * 1024

// Reader provides streaming access to FASTA files
type Reader struct {
	scanner        *bufio.Scanner
	lineNum        int
	pending        string // header line read ahead of the next entry
	currentProtein *core.Protein
	err            error
}

// NewReader creates a new FASTA reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// Next advances to the next protein. Returns false when no more proteins or error.
func (r *Reader) Next() bool {
	r.currentProtein = nil

	protein, err := r.readProtein()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentProtein = protein
	return true
}

// Protein returns the current protein
func (r *Reader) Protein() *core.Protein {
	return r.currentProtein
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// ReadAll reads every remaining protein.
func (r *Reader) ReadAll() ([]*core.Protein, error) {
	var proteins []*core.Protein
	for r.Next() {
		proteins = append(proteins, r.Protein())
	}
	return proteins, r.Err()
}

// readProtein reads one header line and the sequence lines that follow it
func (r *Reader) readProtein() (*core.Protein, error) {
	header := r.pending
	r.pending = ""
	headerLine := r.lineNum

	var seq strings.Builder
	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, ">") {
			if header == "" {
				header = line
				headerLine = r.lineNum
				continue
			}
			// Start of the next entry
			r.pending = line
			break
		}

		if header == "" {
			return nil, fmt.Errorf("line %d: sequence data before the first '>' header", r.lineNum)
		}
		seq.WriteString(strings.ToUpper(strings.Join(strings.Fields(line), "")))
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if header == "" {
		return nil, io.EOF
	}

	protein := parseHeader(header)
	protein.BaseSequence = strings.TrimSuffix(seq.String(), "*")
	if protein.BaseSequence == "" {
		return nil, fmt.Errorf("line %d: entry '%s' has no sequence", headerLine, protein.Accession)
	}
	return protein, nil
}

// parseHeader extracts accession and name from a header line. UniProt headers
// ("sp|P12345|NAME_HUMAN Description OS=...") yield the accession between the bars and the
// entry name; anything else uses the first word as accession and the rest as name.
func parseHeader(header string) *core.Protein {
	header = strings.TrimSpace(strings.TrimPrefix(header, ">"))

	id, description, _ := strings.Cut(header, " ")
	description = strings.TrimSpace(description)

	protein := &core.Protein{Accession: id, Name: description}

	if parts := strings.Split(id, "|"); len(parts) >= 3 && (parts[0] == "sp" || parts[0] == "tr") {
		protein.Accession = parts[1]
		protein.Name = parts[2]
		if gene := headerField(description, "GN"); gene != "" {
			protein.Name = gene
		}
	}

	if strings.HasPrefix(protein.Accession, core.DecoyPrefix) {
		protein.IsDecoy = true
	}
	return protein
}

// headerField returns the value of a "KEY=value" token in a UniProt description
func headerField(description, key string) string {
	for _, field := range strings.Fields(description) {
		if value, ok := strings.CutPrefix(field, key+"="); ok {
			return value
		}
	}
	return ""
}
