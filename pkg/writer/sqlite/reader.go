package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
)

// HeaderRow is the stored HeaderTable row
type HeaderRow struct {
	Version         int
	CreationDate    string
	RunID           string
	DigestionParams string
	Dissociation    string
	Description     string
}

// FragmentRow is one stored FragmentTable row
type FragmentRow struct {
	PeptideID    int64
	Dissociation string
	Masses       []float64
	NeutralLoss  []float64
	Annotations  []string
}

func openReadOnly(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// ReadHeader reads the HeaderTable row of an index
func ReadHeader(path string) (*HeaderRow, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	h := &HeaderRow{}
	err = db.QueryRow(`
		SELECT version, CreationDate, RunId, DigestionParams, Dissociation, Description
		FROM HeaderTable LIMIT 1
	`).Scan(&h.Version, &h.CreationDate, &h.RunID, &h.DigestionParams, &h.Dissociation, &h.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return h, nil
}

// ReadPeptideMasses returns the monoisotopic mass of every stored peptide in id order
func ReadPeptideMasses(path string) ([]float64, error) {
	return readPeptideColumn(path, "MonoisotopicMass")
}

// ReadPeptideLengths returns the length of every stored peptide in id order
func ReadPeptideLengths(path string) ([]float64, error) {
	return readPeptideColumn(path, "OneBasedEnd - OneBasedStart + 1")
}

func readPeptideColumn(path, expr string) ([]float64, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query("SELECT " + expr + " FROM PeptideTable ORDER BY PeptideId")
	if err != nil {
		return nil, fmt.Errorf("failed to query peptides: %w", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan peptide: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read peptides: %w", err)
	}
	return values, nil
}

// ReadFragments returns the fragment rows stored for one peptide
func ReadFragments(path string, peptideID int64) ([]FragmentRow, error) {
	db, err := openReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT PeptideId, Dissociation, blobMass, blobNeutralLoss, Annotations
		FROM FragmentTable WHERE PeptideId = ?
	`, peptideID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fragments: %w", err)
	}
	defer rows.Close()

	var out []FragmentRow
	for rows.Next() {
		var (
			row                FragmentRow
			massBlob, lossBlob []byte
			annotations        string
		)
		if err := rows.Scan(&row.PeptideID, &row.Dissociation, &massBlob, &lossBlob, &annotations); err != nil {
			return nil, fmt.Errorf("failed to scan fragments: %w", err)
		}
		if row.Masses, err = decodeFloat64(massBlob); err != nil {
			return nil, fmt.Errorf("peptide %d blobMass: %w", row.PeptideID, err)
		}
		if row.NeutralLoss, err = decodeFloat64(lossBlob); err != nil {
			return nil, fmt.Errorf("peptide %d blobNeutralLoss: %w", row.PeptideID, err)
		}
		if annotations != "" {
			row.Annotations = strings.Split(annotations, ",")
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
