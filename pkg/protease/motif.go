// Package protease parses cleavage rules and finds the intervals a protease cuts a protein into.
package protease

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRuleSyntax is returned for a malformed cleavage rule.
var ErrRuleSyntax = errors.New("invalid cleavage rule syntax")

// DigestionMotif is one cleavage rule: the residues that induce a cut, the residues that block
// it, and where the cut falls relative to the start of the inducing residues.
type DigestionMotif struct {
	Inducing   string
	Preventing string
	// Residue the X wildcard does not match, 0 when X matches everything
	ExcludeFromWildcard byte
	CutIndex            int
}

// ParseMotifs parses a comma-separated rule string such as "K|[P],R|[P]" or "RX{P}|".
// '|' marks the cut, "[...]" holds residues preventing cleavage and "{.}" excludes one residue
// from the X wildcard. An empty string yields no motifs.
func ParseMotifs(rule string) ([]DigestionMotif, error) {
	rule = strings.NewReplacer("\"", "", " ", "", "\t", "").Replace(rule)
	if rule == "" {
		return nil, nil
	}

	var motifs []DigestionMotif
	for _, segment := range strings.Split(rule, ",") {
		m, err := parseMotif(segment)
		if err != nil {
			return nil, err
		}
		motifs = append(motifs, m)
	}
	return motifs, nil
}

func parseMotif(segment string) (DigestionMotif, error) {
	var m DigestionMotif

	if !strings.Contains(segment, "|") {
		return m, fmt.Errorf("%w: '%s' has no cleavage marker '|'", ErrRuleSyntax, segment)
	}
	if strings.Count(segment, "|") > 1 {
		return m, fmt.Errorf("%w: '%s' has more than one cleavage marker", ErrRuleSyntax, segment)
	}

	// wildcard exclusion
	if open := strings.IndexByte(segment, '{'); open >= 0 {
		end := strings.IndexByte(segment, '}')
		if end != open+2 || strings.Count(segment, "{") > 1 {
			return m, fmt.Errorf("%w: '%s' has a malformed wildcard exclusion", ErrRuleSyntax, segment)
		}
		if strings.Count(segment, "X") != 1 {
			return m, fmt.Errorf("%w: '%s' needs exactly one X to exclude from", ErrRuleSyntax, segment)
		}
		m.ExcludeFromWildcard = segment[open+1]
		segment = segment[:open] + segment[end+1:]
	} else if strings.IndexByte(segment, '}') >= 0 {
		return m, fmt.Errorf("%w: '%s' has an unbalanced '}'", ErrRuleSyntax, segment)
	}

	m.CutIndex = -1
	var inducing, preventing strings.Builder
	inBracket := false
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		switch c {
		case '|':
			if inBracket {
				return m, fmt.Errorf("%w: '%s' has a cleavage marker inside brackets", ErrRuleSyntax, segment)
			}
			if m.CutIndex < 0 {
				m.CutIndex = inducing.Len()
			}
		case '[':
			if inBracket || preventing.Len() > 0 {
				return m, fmt.Errorf("%w: '%s' has nested or repeated brackets", ErrRuleSyntax, segment)
			}
			inBracket = true
			if m.CutIndex < 0 {
				m.CutIndex = inducing.Len()
			}
		case ']':
			if !inBracket {
				return m, fmt.Errorf("%w: '%s' has an unbalanced ']'", ErrRuleSyntax, segment)
			}
			inBracket = false
		default:
			if c < 'A' || c > 'Z' {
				return m, fmt.Errorf("%w: '%s' contains '%c'", ErrRuleSyntax, segment, c)
			}
			if inBracket {
				preventing.WriteByte(c)
			} else {
				inducing.WriteByte(c)
			}
		}
	}
	if inBracket {
		return m, fmt.Errorf("%w: '%s' has an unbalanced '['", ErrRuleSyntax, segment)
	}

	m.Inducing = inducing.String()
	m.Preventing = preventing.String()
	return m, nil
}

// String renders the motif back into rule syntax, e.g. "K|[P]" or "[P]|D".
func (m DigestionMotif) String() string {
	var b strings.Builder
	inducing := m.Inducing
	if m.ExcludeFromWildcard != 0 {
		if i := strings.IndexByte(inducing, 'X'); i >= 0 {
			inducing = inducing[:i+1] + "{" + string(m.ExcludeFromWildcard) + "}" + inducing[i+1:]
		}
	}
	cut := m.CutIndex
	if m.ExcludeFromWildcard != 0 && strings.IndexByte(m.Inducing, 'X') < cut {
		cut += 3
	}
	if m.CutIndex == 0 && m.Preventing != "" {
		b.WriteString("[" + m.Preventing + "]|")
		b.WriteString(inducing)
		return b.String()
	}
	b.WriteString(inducing[:cut])
	b.WriteByte('|')
	if m.Preventing != "" {
		b.WriteString("[" + m.Preventing + "]")
	}
	b.WriteString(inducing[cut:])
	return b.String()
}

// Fits reports whether the inducing residues match seq at loc and, if so, whether the
// preventing residues block the cut. Prevention is checked after the cut for C-terminal
// motifs and before it (read backwards) for N-terminal motifs.
func (m DigestionMotif) Fits(seq string, loc int) (fits, prevents bool) {
	for i := 0; i < len(m.Inducing); i++ {
		if loc+i >= len(seq) || !m.matches(m.Inducing[i], seq[loc+i]) {
			return false, false
		}
	}

	if m.Preventing == "" {
		return true, false
	}

	n := len(m.Preventing)
	if m.CutIndex != 0 {
		start := loc + m.CutIndex
		for i := 0; i < n; i++ {
			if start+i >= len(seq) || !m.matches(m.Preventing[i], seq[start+i]) {
				return true, false
			}
		}
		return true, true
	}

	for i := 0; i < n; i++ {
		p := loc - i - 1
		if p < 0 || !m.matches(m.Preventing[n-i-1], seq[p]) {
			return true, false
		}
	}
	return true, true
}

func (m DigestionMotif) matches(motifChar, residue byte) bool {
	switch motifChar {
	case 'X':
		return m.ExcludeFromWildcard == 0 || residue != m.ExcludeFromWildcard
	case 'B':
		if residue == 'D' || residue == 'N' {
			return true
		}
	case 'J':
		if residue == 'I' || residue == 'L' {
			return true
		}
	case 'Z':
		if residue == 'E' || residue == 'Q' {
			return true
		}
	}
	return motifChar == residue
}
