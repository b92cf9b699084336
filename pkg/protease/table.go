package protease

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
)

//go:embed proteases.tsv
var defaultTable []byte

// Table is a read-only lookup of proteases by name.
type Table struct {
	proteases map[string]*Protease
	order     []string
}

// DefaultTable returns the built-in protease table.
func DefaultTable() *Table {
	t, err := LoadTable(bytes.NewReader(defaultTable))
	if err != nil {
		panic(fmt.Sprintf("protease: embedded table is invalid: %v", err))
	}
	return t
}

// LoadTable reads tab-separated rows of name, rule, specificity, PSI-MS accession and
// PSI-MS name. The first line is a header.
func LoadTable(r io.Reader) (*Table, error) {
	t := &Table{proteases: make(map[string]*Protease)}
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 tab-separated fields, got %d", lineNum, len(fields))
		}
		for len(fields) < 5 {
			fields = append(fields, "")
		}

		specificity, err := ParseCleavageSpecificity(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		p, err := NewProtease(strings.TrimSpace(fields[0]), fields[1], specificity,
			strings.TrimSpace(fields[3]), strings.TrimSpace(fields[4]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if _, dup := t.proteases[p.Name]; dup {
			return nil, fmt.Errorf("line %d: duplicate protease '%s'", lineNum, p.Name)
		}
		t.add(p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading protease table: %w", err)
	}
	return t, nil
}

func (t *Table) add(p *Protease) {
	if _, ok := t.proteases[p.Name]; !ok {
		t.order = append(t.order, p.Name)
	}
	t.proteases[p.Name] = p
}

// Get looks up a protease by exact name, falling back to a case-insensitive match.
func (t *Table) Get(name string) (*Protease, bool) {
	if p, ok := t.proteases[name]; ok {
		return p, true
	}
	for _, n := range t.order {
		if strings.EqualFold(n, name) {
			return t.proteases[n], true
		}
	}
	return nil, false
}

// MustGet is Get for names known to be in the table.
func (t *Table) MustGet(name string) *Protease {
	p, ok := t.Get(name)
	if !ok {
		panic(fmt.Sprintf("protease: unknown protease '%s'", name))
	}
	return p
}

// Names returns the protease names in table order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// SortedNames returns the protease names alphabetically.
func (t *Table) SortedNames() []string {
	names := t.Names()
	sort.Strings(names)
	return names
}

// Len returns the number of proteases.
func (t *Table) Len() int { return len(t.order) }

// Merge returns a new table holding t's proteases overridden and extended by other's.
func (t *Table) Merge(other *Table) *Table {
	merged := &Table{proteases: make(map[string]*Protease, t.Len()+other.Len())}
	for _, name := range t.order {
		merged.add(t.proteases[name])
	}
	for _, name := range other.order {
		merged.add(other.proteases[name])
	}
	return merged
}
