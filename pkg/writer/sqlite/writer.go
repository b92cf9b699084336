// Package sqlite provides SQLite database writing for peptide indexes
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/pepdigest/pkg/core"
	"github.com/ChrisMcGann/pepdigest/pkg/digest"
	"github.com/ChrisMcGann/pepdigest/pkg/fragment"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// Schema version written to HeaderTable
	schemaVersion = 1
)

// Header describes the run that produced an index
type Header struct {
	RunID        uuid.UUID
	Params       *digest.DigestionParams
	Dissociation core.DissociationType
	Description  string
}

// Writer handles writing proteins, peptides and fragments to SQLite database files.
// It is not safe for concurrent use.
type Writer struct {
	db           *sql.DB
	tx           *sql.Tx
	outputPath   string
	header       Header
	proteinStmt  *sql.Stmt
	peptideStmt  *sql.Stmt
	fragmentStmt *sql.Stmt
	proteinID    int64
	peptideID    int64
	finalized    bool
}

// NewWriter creates a new SQLite writer. A zero header RunID is replaced with a random one.
func NewWriter(outputPath string, header Header) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if header.RunID == uuid.Nil {
		header.RunID = uuid.New()
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		header:     header,
		proteinID:  1,
		peptideID:  1,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if w.tx, err = db.Begin(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := w.prepareStatements(); err != nil {
		w.tx.Rollback()
		db.Close()
		return nil, err
	}

	return w, nil
}

// RunID returns the identifier written to HeaderTable
func (w *Writer) RunID() uuid.UUID {
	return w.header.RunID
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ProteinTable (
		ProteinId INTEGER PRIMARY KEY,
		Accession TEXT,
		Name TEXT,
		IsDecoy BOOL,
		Length INTEGER
	);

	CREATE TABLE IF NOT EXISTS PeptideTable (
		PeptideId INTEGER PRIMARY KEY,
		ProteinId INTEGER REFERENCES ProteinTable(ProteinId),
		OneBasedStart INTEGER,
		OneBasedEnd INTEGER,
		BaseSequence TEXT,
		FullSequence TEXT,
		MissedCleavages INTEGER,
		Specificity TEXT,
		Description TEXT,
		MonoisotopicMass DOUBLE,
		NumFixedMods INTEGER,
		NumVariableMods INTEGER,
		CompactHash INTEGER,
		DuplicateOf INTEGER REFERENCES PeptideTable(PeptideId)
	);

	CREATE TABLE IF NOT EXISTS FragmentTable (
		PeptideId INTEGER REFERENCES PeptideTable(PeptideId),
		Dissociation TEXT,
		blobMass BLOB,
		blobNeutralLoss BLOB,
		Annotations TEXT
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		RunId TEXT,
		DigestionParams TEXT,
		Dissociation TEXT,
		Description TEXT
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.proteinStmt, err = w.tx.Prepare(`
		INSERT INTO ProteinTable (ProteinId, Accession, Name, IsDecoy, Length)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare protein statement: %w", err)
	}

	w.peptideStmt, err = w.tx.Prepare(`
		INSERT INTO PeptideTable (
			PeptideId, ProteinId, OneBasedStart, OneBasedEnd, BaseSequence, FullSequence,
			MissedCleavages, Specificity, Description, MonoisotopicMass,
			NumFixedMods, NumVariableMods, CompactHash, DuplicateOf
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare peptide statement: %w", err)
	}

	w.fragmentStmt, err = w.tx.Prepare(`
		INSERT INTO FragmentTable (PeptideId, Dissociation, blobMass, blobNeutralLoss, Annotations)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare fragment statement: %w", err)
	}

	return nil
}

// WriteProtein writes a protein row and returns its id
func (w *Writer) WriteProtein(p *core.Protein) (int64, error) {
	id := w.proteinID
	_, err := w.proteinStmt.Exec(id, p.Accession, p.Name, p.IsDecoy, p.Length())
	if err != nil {
		return 0, fmt.Errorf("failed to insert protein %s: %w", p.Accession, err)
	}
	w.proteinID++
	return id, nil
}

// WritePeptide writes a peptide row and returns its id. duplicateOf is the id of an earlier
// peptide with the same compact representation, or 0.
func (w *Writer) WritePeptide(proteinID int64, pep *digest.Peptide, compactHash uint64, duplicateOf int64) (int64, error) {
	id := w.peptideID

	var dup interface{} = nil
	if duplicateOf > 0 {
		dup = duplicateOf
	}

	_, err := w.peptideStmt.Exec(
		id,                       // PeptideId
		proteinID,                // ProteinId
		pep.OneBasedStart,        // OneBasedStart
		pep.OneBasedEnd,          // OneBasedEnd
		pep.BaseSequence(),       // BaseSequence
		pep.FullSequence(),       // FullSequence
		pep.MissedCleavages,      // MissedCleavages
		pep.Specificity.String(), // Specificity
		pep.Description,          // Description
		pep.MonoisotopicMass(),   // MonoisotopicMass
		pep.NumFixedMods(),       // NumFixedMods
		pep.NumVariableMods(),    // NumVariableMods
		int64(compactHash),       // CompactHash (sqlite integers are signed)
		dup,                      // DuplicateOf
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert peptide %s: %w", pep.FullSequence(), err)
	}

	w.peptideID++
	return id, nil
}

// WriteFragments writes the product ions of one peptide
func (w *Writer) WriteFragments(peptideID int64, dt core.DissociationType, products []fragment.Product) error {
	annotations := make([]string, len(products))
	for i, p := range products {
		annotations[i] = p.Annotation()
	}

	_, err := w.fragmentStmt.Exec(
		peptideID,
		dt.String(),
		encodeFloat64(products, func(p fragment.Product) float64 { return p.NeutralMass }),
		encodeFloat64(products, func(p fragment.Product) float64 { return p.NeutralLoss }),
		strings.Join(annotations, ","),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fragments for peptide %d: %w", peptideID, err)
	}
	return nil
}

// encodeFloat64 encodes one product field as a little-endian float64 blob
func encodeFloat64(products []fragment.Product, value func(fragment.Product) float64) []byte {
	buf := make([]byte, len(products)*8)
	for i, p := range products {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value(p)))
	}
	return buf
}

// decodeFloat64 decodes a little-endian float64 blob
func decodeFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values, nil
}

// Finalize writes the header table, commits and closes the database. Later calls are no-ops.
func (w *Writer) Finalize() error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	params := ""
	if w.header.Params != nil {
		params = w.header.Params.String()
	}

	_, err := w.tx.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, RunId, DigestionParams, Dissociation, Description)
		VALUES (?, ?, ?, ?, ?, ?)
	`, schemaVersion, time.Now().Format(headerDateFormat), w.header.RunID.String(), params,
		w.header.Dissociation.String(), w.header.Description)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		return fmt.Errorf("failed to insert header: %w", err)
	}

	// Close prepared statements
	for _, stmt := range []*sql.Stmt{w.proteinStmt, w.peptideStmt, w.fragmentStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("failed to commit: %w", err)
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}

// Abort discards everything written since NewWriter and closes the database
func (w *Writer) Abort() error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	w.tx.Rollback()
	return w.db.Close()
}
