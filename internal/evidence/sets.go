// Package evidence loads reference mutation databases and matches variant
// rows against them, either by genomic coordinate or through cross-species
// translation of the protein change.
package evidence

import (
	"fmt"
	"io"
	"strings"

	"github.com/kunlinho/xsomatic/internal/tsv"
)

// Set is a set of atomic keys: genomic keys or GENE_CHANGE notations.
type Set map[string]struct{}

// NewSet builds a set from keys.
func NewSet(keys ...string) Set {
	s := make(Set, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts k.
func (s Set) Add(k string) {
	s[k] = struct{}{}
}

// Contains reports whether k is in the set.
func (s Set) Contains(k string) bool {
	_, ok := s[k]
	return ok
}

// Column names of the reference tables.
const (
	ColMutType = "Mut_type"
	ColChrom   = "Chrom"
	ColPos     = "Pos"
	ColRef     = "Ref"
	ColAlt     = "Alt"
)

// readHeader scans the header row and resolves the required columns.
func readHeader(scanner interface {
	Scan() bool
	Text() string
	Err() error
}, table string, names ...string) ([]int, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read %s header: %w", table, err)
		}
		return nil, fmt.Errorf("%s: empty file", table)
	}
	header := tsv.Fields(scanner.Text())
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = tsv.Column(header, name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("%s: missing '%s' column", table, name)
		}
	}
	return idx, nil
}

// ReadMutationSet reads a mutation occurrence table. Each Mut_type cell is
// a comma-joined list of GENE_CHANGE notations; the lists are flattened.
func ReadMutationSet(r io.Reader) (Set, error) {
	scanner := tsv.NewScanner(r)
	idx, err := readHeader(scanner, "mutation table", ColMutType)
	if err != nil {
		return nil, err
	}
	col := idx[0]

	set := make(Set)
	for scanner.Scan() {
		fields := tsv.Fields(scanner.Text())
		if len(fields) <= col {
			continue
		}
		for _, m := range strings.Split(fields[col], ",") {
			if m = strings.TrimSpace(m); m != "" {
				set.Add(m)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading mutation table: %w", err)
	}
	return set, nil
}

// ReadCoordinateSet reads a table with Chrom, Pos, Ref and Alt columns into
// a set of chrom_pos_ref_alt keys.
func ReadCoordinateSet(r io.Reader) (Set, error) {
	scanner := tsv.NewScanner(r)
	idx, err := readHeader(scanner, "coordinate table", ColChrom, ColPos, ColRef, ColAlt)
	if err != nil {
		return nil, err
	}
	width := max(idx[0], idx[1], idx[2], idx[3]) + 1

	set := make(Set)
	for scanner.Scan() {
		fields := tsv.Fields(scanner.Text())
		if len(fields) < width {
			continue
		}
		set.Add(strings.Join([]string{
			fields[idx[0]],
			strings.TrimSpace(fields[idx[1]]),
			fields[idx[2]],
			fields[idx[3]],
		}, "_"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading coordinate table: %w", err)
	}
	return set, nil
}

// Correspondence is one row of a human-dog transcript table.
type Correspondence struct {
	Gene            string
	HumanTranscript string
	DogTranscript   string
}

// ReadCorrespondence reads the three unheaded columns gene, human
// transcript, dog transcript.
func ReadCorrespondence(r io.Reader) ([]Correspondence, error) {
	scanner := tsv.NewScanner(r)
	var out []Correspondence
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if tsv.IsBlank(text) {
			continue
		}
		fields := tsv.Fields(text)
		if len(fields) < 3 {
			return nil, &tsv.ParseError{
				Table:   "transcript correspondence",
				Line:    line,
				Message: fmt.Sprintf("expected 3 columns, found %d", len(fields)),
			}
		}
		out = append(out, Correspondence{
			Gene:            strings.TrimSpace(fields[0]),
			HumanTranscript: strings.TrimSpace(fields[1]),
			DogTranscript:   strings.TrimSpace(fields[2]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript correspondence: %w", err)
	}
	return out, nil
}

// TranscriptKey joins a gene name and a dog transcript ID into the key of
// a transcript gate.
func TranscriptKey(gene, transcript string) string {
	return gene + "\t" + transcript
}

// DogTranscripts returns the (gene, dog transcript) pairs in c, keyed by
// TranscriptKey.
func DogTranscripts(c []Correspondence) Set {
	s := make(Set, len(c))
	for _, row := range c {
		s.Add(TranscriptKey(row.Gene, row.DogTranscript))
	}
	return s
}

func load[T any](path, what string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := tsv.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", what, err)
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", what, path, err)
	}
	return v, nil
}

// LoadMutationSet reads the mutation occurrence table at path.
func LoadMutationSet(path string) (Set, error) {
	return load(path, "mutation table", ReadMutationSet)
}

// LoadCoordinateSet reads the coordinate table at path.
func LoadCoordinateSet(path string) (Set, error) {
	return load(path, "coordinate table", ReadCoordinateSet)
}

// LoadCorrespondence reads the transcript correspondence table at path.
func LoadCorrespondence(path string) ([]Correspondence, error) {
	return load(path, "transcript correspondence", ReadCorrespondence)
}
