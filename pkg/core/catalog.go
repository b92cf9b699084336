package core

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ModificationCatalog stores modification definitions keyed by "Id on Motif".
type ModificationCatalog struct {
	mods  map[string]*Modification
	order []string
}

// NewModificationCatalog creates an empty catalog
func NewModificationCatalog() *ModificationCatalog {
	return &ModificationCatalog{
		mods: make(map[string]*Modification),
	}
}

// Add adds or replaces a modification.
func (c *ModificationCatalog) Add(mod *Modification) {
	key := mod.IDWithMotif()
	if _, ok := c.mods[key]; !ok {
		c.order = append(c.order, key)
	}
	c.mods[key] = mod
}

// Len returns the number of entries.
func (c *ModificationCatalog) Len() int { return len(c.order) }

// All returns every modification in insertion order.
func (c *ModificationCatalog) All() []*Modification {
	out := make([]*Modification, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.mods[key])
	}
	return out
}

// Get looks up a modification by "Id on Motif". The full-sequence form "Type:Id on Motif"
// is also accepted.
func (c *ModificationCatalog) Get(key string) (*Modification, bool) {
	key = strings.TrimSpace(key)
	if mod, ok := c.mods[key]; ok {
		return mod, true
	}
	if i := strings.Index(key, ":"); i >= 0 {
		mod, ok := c.mods[key[i+1:]]
		if ok && (mod.ModificationType == key[:i]) {
			return mod, true
		}
	}
	return nil, false
}

// Resolve looks up each key and fails on the first unknown one.
func (c *ModificationCatalog) Resolve(keys []string) ([]*Modification, error) {
	mods := make([]*Modification, 0, len(keys))
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			continue
		}
		mod, ok := c.Get(key)
		if !ok {
			return nil, fmt.Errorf("unknown modification '%s'", key)
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// LoadFromCSV loads modifications from CSV text with the columns
//
//	id,type,target,location,mass,neutral_losses,diagnostic_ions
//
// target may list several motifs separated by ';', producing one entry each. mass is either a
// number or a chemical formula. Losses and ions look like "HCD:0;97.976896|CID:97.976896".
func (c *ModificationCatalog) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 5 {
			return fmt.Errorf("line %d: invalid format, expected at least 5 comma-separated fields", lineNum)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		location, err := ParseLocationRestriction(parts[3])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}

		mass, formula, err := parseMassOrFormula(parts[4])
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}

		var losses, ions map[DissociationType][]float64
		if len(parts) > 5 {
			if losses, err = parseDissociationMasses(parts[5]); err != nil {
				return fmt.Errorf("line %d: invalid neutral losses: %w", lineNum, err)
			}
		}
		if len(parts) > 6 {
			if ions, err = parseDissociationMasses(parts[6]); err != nil {
				return fmt.Errorf("line %d: invalid diagnostic ions: %w", lineNum, err)
			}
		}

		for _, target := range strings.Split(parts[2], ";") {
			motif, err := NewModificationMotif(strings.TrimSpace(target))
			if err != nil {
				return fmt.Errorf("line %d: %w", lineNum, err)
			}
			mod := &Modification{
				OriginalID:       parts[0],
				ModificationType: parts[1],
				Target:           motif,
				Location:         location,
				ChemicalFormula:  formula,
				MonoisotopicMass: mass,
				NeutralLosses:    losses,
				DiagnosticIons:   ions,
			}
			if err := mod.Validate(); err != nil {
				return fmt.Errorf("line %d: %w", lineNum, err)
			}
			c.Add(mod)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

func parseMassOrFormula(s string) (float64, Formula, error) {
	if mass, err := strconv.ParseFloat(s, 64); err == nil {
		return mass, nil, nil
	}
	f, err := ParseFormula(s)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid mass value '%s': %w", s, err)
	}
	return f.Mass(), f, nil
}

func parseDissociationMasses(s string) (map[DissociationType][]float64, error) {
	if s == "" {
		return nil, nil
	}
	out := make(map[DissociationType][]float64)
	for _, group := range strings.Split(s, "|") {
		name, values, ok := strings.Cut(group, ":")
		if !ok {
			return nil, fmt.Errorf("expected 'Dissociation:mass;mass', got '%s'", group)
		}
		dt, err := ParseDissociationType(name)
		if err != nil {
			return nil, err
		}
		for _, v := range strings.Split(values, ";") {
			mass, _, err := parseMassOrFormula(strings.TrimSpace(v))
			if err != nil {
				return nil, err
			}
			out[dt] = append(out[dt], mass)
		}
	}
	return out, nil
}

// formatDissociationMasses is the inverse of parseDissociationMasses.
func formatDissociationMasses(m map[DissociationType][]float64) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]DissociationType, 0, len(m))
	for dt := range m {
		keys = append(keys, dt)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	groups := make([]string, 0, len(keys))
	for _, dt := range keys {
		values := make([]string, len(m[dt]))
		for i, v := range m[dt] {
			values[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		groups = append(groups, dt.String()+":"+strings.Join(values, ";"))
	}
	return strings.Join(groups, "|")
}

// WriteCSV writes the catalog in the format read by LoadFromCSV, one row per motif.
func (c *ModificationCatalog) WriteCSV(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "id,type,target,location,mass,neutral_losses,diagnostic_ions"); err != nil {
		return err
	}
	for _, mod := range c.All() {
		mass := strconv.FormatFloat(mod.MonoisotopicMass, 'f', -1, 64)
		if len(mod.ChemicalFormula) > 0 {
			mass = mod.ChemicalFormula.String()
		}
		_, err := fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s\n",
			mod.OriginalID, mod.ModificationType, mod.Target, mod.Location, mass,
			formatDissociationMasses(mod.NeutralLosses), formatDissociationMasses(mod.DiagnosticIons))
		if err != nil {
			return err
		}
	}
	return nil
}

// DefaultModificationCatalog returns a catalog pre-loaded with common Unimod modifications
func DefaultModificationCatalog() *ModificationCatalog {
	c := NewModificationCatalog()

	add := func(id, modType, targets string, loc LocationRestriction, formula string) *Modification {
		f, err := ParseFormula(formula)
		if err != nil {
			panic(err)
		}
		var last *Modification
		for _, t := range strings.Split(targets, ";") {
			last = &Modification{
				OriginalID:       id,
				ModificationType: modType,
				Target:           MustModificationMotif(t),
				Location:         loc,
				ChemicalFormula:  f,
				MonoisotopicMass: f.Mass(),
			}
			c.Add(last)
		}
		return last
	}

	add("Carbamidomethyl", "Common Fixed", "C", Anywhere, "C2H3N1O1")
	add("Carbamidomethyl", "Common Fixed", "U", Anywhere, "C2H3N1O1")
	add("Oxidation", "Common Variable", "M", Anywhere, "O1")
	add("Acetylation", "Common Biological", "X", NTerminal, "C2H2O1")
	add("Acetylation", "Common Biological", "K", Anywhere, "C2H2O1")
	add("Methylation", "Common Biological", "K;R", Anywhere, "C1H2")
	add("Dimethylation", "Common Biological", "K;R", Anywhere, "C2H4")
	add("Trimethylation", "Common Biological", "K", Anywhere, "C3H6")
	add("Deamidation", "Common Artifact", "N;Q", Anywhere, "H-1N-1O1")
	add("Gln->pyro-Glu", "Common Artifact", "Q", PeptideNTerminal, "H-3N-1")
	add("Glu->pyro-Glu", "Common Artifact", "E", PeptideNTerminal, "H-2O-1")
	add("Carbamyl", "Common Artifact", "X", PeptideNTerminal, "C1H1N1O1")
	add("Amidation", "Common Biological", "X", CTerminal, "H1N1O-1")
	add("Sulfonation", "Common Biological", "Y", Anywhere, "O3S1")

	// Isotope-labelled tags are defined by mass only.
	for _, loc := range []LocationRestriction{Anywhere, PeptideNTerminal} {
		target := "K"
		if loc == PeptideNTerminal {
			target = "X"
		}
		c.Add(&Modification{OriginalID: "TMT6plex", ModificationType: "Common Fixed", Target: MustModificationMotif(target), Location: loc, MonoisotopicMass: 229.162932})
		c.Add(&Modification{OriginalID: "TMTpro", ModificationType: "Common Fixed", Target: MustModificationMotif(target), Location: loc, MonoisotopicMass: 304.207146})
		c.Add(&Modification{OriginalID: "iTRAQ4plex", ModificationType: "Common Fixed", Target: MustModificationMotif(target), Location: loc, MonoisotopicMass: 144.102063})
	}

	// Phosphorylation loses H3PO4 under collisional activation.
	for _, target := range []string{"S", "T", "Y"} {
		phospho := add("Phosphorylation", "Common Biological", target, Anywhere, "H1O3P1")
		phospho.NeutralLosses = map[DissociationType][]float64{
			HCD: {0, 97.976896},
			CID: {0, 97.976896},
		}
		if target == "Y" {
			phospho.NeutralLosses = nil
			phospho.DiagnosticIons = map[DissociationType][]float64{
				HCD: {215.034744},
			}
		}
	}

	return c
}
