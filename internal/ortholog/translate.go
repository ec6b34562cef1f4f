package ortholog

// Outcome classifies a translation result.
type Outcome int

const (
	NoCounterpart Outcome = iota
	Translated
	NoMutation
)

func (o Outcome) String() string {
	switch o {
	case Translated:
		return "translated"
	case NoMutation:
		return "no_mutation"
	default:
		return "no_counterpart"
	}
}

// Reason explains a NoCounterpart outcome.
type Reason int

const (
	ReasonNone Reason = iota
	GeneAbsentInOtherSpecies
	PositionUnaligned
	ResidueUnmapped
	UnsupportedAminoAcid
	UnsupportedMutationKind
)

var reasonNames = [...]string{
	ReasonNone:               "",
	GeneAbsentInOtherSpecies: "gene_absent_in_other_species",
	PositionUnaligned:        "position_unaligned",
	ResidueUnmapped:          "residue_unmapped",
	UnsupportedAminoAcid:     "unsupported_amino_acid",
	UnsupportedMutationKind:  "unsupported_mutation_kind",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// Result is the counterpart of a mutation in the other species.
type Result struct {
	Outcome  Outcome
	Reason   Reason
	Notation string // GENE_CHANGE in the target species, set when Translated

	// WildTypeStable marks a Translated result for a mutation whose
	// wild-type and mutant residues are equal: the notation names the
	// target species' residue on both sides.
	WildTypeStable bool
}

// Matchable returns the notation to look up in a mutation database, if any.
func (r Result) Matchable() (string, bool) {
	return r.Notation, r.Outcome == Translated
}

func noCounterpart(reason Reason) Result {
	return Result{Outcome: NoCounterpart, Reason: reason}
}

// Translator maps mutations through one alignment Index.
type Translator struct {
	index *Index
}

// NewTranslator creates a Translator over ix.
func NewTranslator(ix *Index) *Translator {
	return &Translator{index: ix}
}

// TranslateNotation parses notation and translates it into target's
// coordinates. Unparseable notations yield UnsupportedMutationKind.
func (t *Translator) TranslateNotation(notation string, target Species) Result {
	m, ok := ParseNotation(notation)
	if !ok {
		return noCounterpart(UnsupportedMutationKind)
	}
	return t.Translate(m, target)
}

// Translate computes the counterpart of m, observed in the species opposite
// to target, in target's coordinates.
func (t *Translator) Translate(m Mutation, target Species) Result {
	from := target.Other()
	ix := t.index

	if !ix.HasGene(m.Gene) {
		return noCounterpart(GeneAbsentInOtherSpecies)
	}
	if !IsStandardResidue(m.WildType) {
		return noCounterpart(UnsupportedAminoAcid)
	}
	if m.Kind == SNV && !IsStandardResidue(m.Mutant) {
		return noCounterpart(UnsupportedAminoAcid)
	}

	pos, ok := ix.Position(from, m.Gene, m.Position)
	if !ok {
		return noCounterpart(PositionUnaligned)
	}
	wildType, ok := ix.Residue(target, m.Gene, pos)
	if !ok {
		return noCounterpart(ResidueUnmapped)
	}

	prefix := m.Gene + "_" + wildType + pos
	switch {
	case m.Kind == SNV && m.WildType == m.Mutant:
		return Result{Outcome: Translated, Notation: prefix + wildType, WildTypeStable: true}
	case m.Kind == SNV && m.Mutant == wildType:
		return Result{Outcome: NoMutation}
	case m.Kind == Frameshift:
		return Result{Outcome: Translated, Notation: prefix + "fs"}
	default:
		return Result{Outcome: Translated, Notation: prefix + m.Mutant}
	}
}
