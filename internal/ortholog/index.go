// Package ortholog translates protein-level mutations between two species
// using a precomputed per-gene sequence alignment.
//
// The alignment query sequence is the human protein and the reference
// sequence the dog protein, matching the tables produced by the upstream
// alignment tool.
package ortholog

import (
	"fmt"
	"io"
	"strings"

	"github.com/kunlinho/xsomatic/internal/tsv"
)

// Gap marks an alignment column with no residue in the sequence.
const Gap = "-"

// Record is one aligned residue pair from an alignment table.
type Record struct {
	Gene         string
	QueryPos     string
	QueryAA      string
	ReferencePos string
	ReferenceAA  string
}

// Species selects one side of the alignment.
type Species int

const (
	// Human is the alignment query.
	Human Species = iota
	// Dog is the alignment reference.
	Dog
)

func (s Species) String() string {
	if s == Dog {
		return "dog"
	}
	return "human"
}

// Other returns the opposite side of the alignment.
func (s Species) Other() Species {
	if s == Dog {
		return Human
	}
	return Dog
}

// ParseSpecies accepts "human"/"query" and "dog"/"canine"/"reference".
func ParseSpecies(name string) (Species, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "human", "query":
		return Human, nil
	case "dog", "canine", "reference":
		return Dog, nil
	}
	return Human, fmt.Errorf("unknown species %q (want human or dog)", name)
}

type geneMap map[string]map[string]string

func (m geneMap) set(gene, key, value string) {
	inner, ok := m[gene]
	if !ok {
		inner = make(map[string]string)
		m[gene] = inner
	}
	inner[key] = value
}

// Index holds the position and residue lookups built from one alignment
// table. It is read-only after Build returns.
type Index struct {
	humanToDog geneMap // gene -> human pos -> dog pos
	dogToHuman geneMap // gene -> dog pos -> human pos
	humanAA    geneMap // gene -> human pos -> residue
	dogAA      geneMap // gene -> dog pos -> residue
}

// Build indexes the alignment rows. Rows whose query residue is a gap have
// their query position replaced by the gap marker and are then discarded,
// so a gap can never collide with a real position. Later rows overwrite
// earlier ones for the same gene and position.
func Build(records []Record) *Index {
	ix := &Index{
		humanToDog: make(geneMap),
		dogToHuman: make(geneMap),
		humanAA:    make(geneMap),
		dogAA:      make(geneMap),
	}
	for _, r := range records {
		queryPos := r.QueryPos
		if r.QueryAA == Gap {
			queryPos = Gap
		}
		if queryPos == Gap {
			continue
		}
		ix.humanToDog.set(r.Gene, queryPos, r.ReferencePos)
		ix.dogToHuman.set(r.Gene, r.ReferencePos, queryPos)
		ix.humanAA.set(r.Gene, queryPos, r.QueryAA)
		ix.dogAA.set(r.Gene, r.ReferencePos, r.ReferenceAA)
	}
	return ix
}

// positions returns the map from positions of species from to positions of
// the other species.
func (ix *Index) positions(from Species) geneMap {
	if from == Dog {
		return ix.dogToHuman
	}
	return ix.humanToDog
}

func (ix *Index) residues(of Species) geneMap {
	if of == Dog {
		return ix.dogAA
	}
	return ix.humanAA
}

// HasGene reports whether the alignment covers gene.
func (ix *Index) HasGene(gene string) bool {
	_, ok := ix.humanToDog[gene]
	return ok
}

// Position returns the position aligned to pos of species from.
func (ix *Index) Position(from Species, gene, pos string) (string, bool) {
	p, ok := ix.positions(from)[gene][pos]
	return p, ok
}

// Residue returns the residue of species of at pos.
func (ix *Index) Residue(of Species, gene, pos string) (string, bool) {
	aa, ok := ix.residues(of)[gene][pos]
	return aa, ok
}

// GeneCount returns the number of genes in the index.
func (ix *Index) GeneCount() int {
	return len(ix.humanToDog)
}

// Alignment table column names written by the upstream alignment tool.
var (
	geneColumns         = []string{"Gene", "Gene_name", "gene", "GeneName"}
	queryPosColumns     = []string{"QueryIdx"}
	queryAAColumns      = []string{"QueryAA"}
	referencePosColumns = []string{"RefIdx", "ReferenceIdx", "TargetIdx", "SubjectIdx"}
	referenceAAColumns  = []string{"RefAA", "ReferenceAA", "TargetAA", "SubjectAA"}
)

// columnLayout holds the column index of each alignment field.
type columnLayout struct {
	gene, queryPos, queryAA, refPos, refAA int
}

// defaultLayout is the positional order used when the header names are
// not recognised: gene, QueryIdx, RefIdx, QueryAA, RefAA.
var defaultLayout = columnLayout{gene: 0, queryPos: 1, refPos: 2, queryAA: 3, refAA: 4}

func layoutFromHeader(header []string) columnLayout {
	l := columnLayout{
		gene:     tsv.Column(header, geneColumns...),
		queryPos: tsv.Column(header, queryPosColumns...),
		queryAA:  tsv.Column(header, queryAAColumns...),
		refPos:   tsv.Column(header, referencePosColumns...),
		refAA:    tsv.Column(header, referenceAAColumns...),
	}
	if l.queryPos < 0 || l.queryAA < 0 || l.refPos < 0 || l.refAA < 0 {
		return defaultLayout
	}
	if l.gene < 0 {
		l.gene = 0
	}
	return l
}

func (l columnLayout) width() int {
	return max(l.gene, l.queryPos, l.queryAA, l.refPos, l.refAA) + 1
}

// ReadTable reads a tab-delimited alignment table with a header row.
func ReadTable(r io.Reader) ([]Record, error) {
	scanner := tsv.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read alignment header: %w", err)
		}
		return nil, fmt.Errorf("alignment table: empty file")
	}
	layout := layoutFromHeader(tsv.Fields(scanner.Text()))
	width := layout.width()

	var records []Record
	line := 1
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if tsv.IsBlank(text) {
			continue
		}
		fields := tsv.Fields(text)
		if len(fields) < width {
			return nil, &tsv.ParseError{
				Table:   "alignment",
				Line:    line,
				Message: fmt.Sprintf("expected at least %d columns, found %d", width, len(fields)),
			}
		}
		records = append(records, Record{
			Gene:         strings.TrimSpace(fields[layout.gene]),
			QueryPos:     strings.TrimSpace(fields[layout.queryPos]),
			QueryAA:      strings.TrimSpace(fields[layout.queryAA]),
			ReferencePos: strings.TrimSpace(fields[layout.refPos]),
			ReferenceAA:  strings.TrimSpace(fields[layout.refAA]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading alignment table: %w", err)
	}
	return records, nil
}

// LoadIndex reads the alignment table at path and builds its Index.
func LoadIndex(path string) (*Index, error) {
	f, err := tsv.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alignment table: %w", err)
	}
	defer f.Close()

	records, err := ReadTable(f)
	if err != nil {
		return nil, err
	}
	return Build(records), nil
}
