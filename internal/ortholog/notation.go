package ortholog

import (
	"regexp"
	"strings"
)

// Kind is the class of a protein-level mutation.
type Kind int

const (
	SNV Kind = iota
	Frameshift
)

func (k Kind) String() string {
	if k == Frameshift {
		return "frameshift"
	}
	return "snv"
}

// Mutation is a parsed GENE_CHANGE notation such as TP53_R175H or
// TP53_G255fs. Position stays in its textual form; it is only ever used as
// a lookup key.
type Mutation struct {
	Gene     string
	WildType string
	Position string
	Mutant   string // empty for frameshifts
	Kind     Kind
}

var (
	frameshiftPattern   = regexp.MustCompile(`^([A-Za-z])(\d+)([A-Za-z]*)fs`)
	substitutionPattern = regexp.MustCompile(`^([A-Za-z])(\d+)([A-Z])$`)
)

// ParseNotation splits a GENE_CHANGE token at its last underscore and
// parses the protein change. ok is false for anything that is not an SNV
// or a frameshift.
func ParseNotation(notation string) (Mutation, bool) {
	i := strings.LastIndexByte(notation, '_')
	if i <= 0 {
		return Mutation{}, false
	}
	m, ok := ParseProteinChange(notation[i+1:])
	if !ok {
		return Mutation{}, false
	}
	m.Gene = notation[:i]
	return m, true
}

// ParseProteinChange parses a one-letter protein change without the "p."
// prefix. Frameshifts are tried first; the residues after the position of a
// frameshift are dropped since they cannot be translated.
func ParseProteinChange(change string) (Mutation, bool) {
	change = strings.TrimPrefix(strings.TrimSpace(change), "p.")

	if strings.Contains(change, "fs") {
		g := frameshiftPattern.FindStringSubmatch(change)
		if g == nil {
			return Mutation{}, false
		}
		return Mutation{
			WildType: strings.ToUpper(g[1]),
			Position: g[2],
			Kind:     Frameshift,
		}, true
	}

	g := substitutionPattern.FindStringSubmatch(change)
	if g == nil {
		return Mutation{}, false
	}
	return Mutation{
		WildType: strings.ToUpper(g[1]),
		Position: g[2],
		Mutant:   g[3],
		Kind:     SNV,
	}, true
}

// String formats m back into GENE_CHANGE notation.
func (m Mutation) String() string {
	if m.Kind == Frameshift {
		return m.Gene + "_" + m.WildType + m.Position + "fs"
	}
	return m.Gene + "_" + m.WildType + m.Position + m.Mutant
}
