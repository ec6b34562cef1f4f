// Package annovar reads Annovar exonic variant function tables and pairs
// each variant with its transcript-level protein changes.
package annovar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kunlinho/xsomatic/internal/tsv"
)

// Column positions in the annotation table.
const (
	colLine        = 0
	colConsequence = 1
	colInfo        = 2
	colChrom       = 3
	colStart       = 4
	colEnd         = 5
	colRef         = 6
	colAlt         = 7
	colGeneName    = 13
	colSample      = 14
	numColumns     = 15
)

// Record is one annotated variant.
type Record struct {
	Line        int    // ordinal from the "lineN" identifier
	Consequence string // e.g. "nonsynonymous SNV", "frameshift insertion"
	Chrom       string
	Start       int64
	End         int64
	Ref         string // Annovar allele representation
	Alt         string
	Sample      string
	Transcripts []Transcript
}

// Stats counts what the parser dropped.
type Stats struct {
	Records    int // data rows read
	Mismatched int // rows whose annotation string could not be paired
	Excluded   int // transcripts removed through the excluded gene set
}

// Records whose transcripts were all excluded are dropped. Records with no
// protein-level annotation at all are kept with an empty transcript list.

// Parser reads records from an annotation table.
type Parser struct {
	scanner    *bufio.Scanner
	closer     io.Closer
	lineNumber int
	exclude    GeneSet
	stats      Stats
}

// NewParser opens the table at path.
func NewParser(path string) (*Parser, error) {
	r, err := tsv.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation table: %w", err)
	}
	p := NewParserFromReader(r)
	p.closer = r
	return p, nil
}

// NewParserFromReader creates a parser over r.
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{scanner: tsv.NewScanner(r)}
}

// SetExcludedGenes drops transcripts of the given Ensembl genes.
func (p *Parser) SetExcludedGenes(genes GeneSet) {
	p.exclude = genes
}

// Next reads the next record. Records whose transcript annotations cannot
// be paired are counted and skipped.
// Returns nil, nil when there are no more records.
func (p *Parser) Next() (*Record, error) {
	for p.scanner.Scan() {
		p.lineNumber++
		line := p.scanner.Text()
		if tsv.IsBlank(line) {
			continue
		}
		rec, err := p.parseLine(line)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			continue
		}
		return rec, nil
	}
	if err := p.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read annotation line: %w", err)
	}
	return nil, nil
}

func (p *Parser) parseError(format string, args ...any) error {
	return &tsv.ParseError{
		Table:   "annotation",
		Line:    p.lineNumber,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *Parser) parseLine(line string) (*Record, error) {
	fields := tsv.Fields(line)
	if len(fields) < numColumns {
		return nil, p.parseError("expected %d columns, found %d", numColumns, len(fields))
	}
	p.stats.Records++

	ordinal, err := ParseLineID(fields[colLine])
	if err != nil {
		return nil, p.parseError("%v", err)
	}
	start, err := strconv.ParseInt(fields[colStart], 10, 64)
	if err != nil {
		return nil, p.parseError("invalid start: %s", fields[colStart])
	}
	end, err := strconv.ParseInt(fields[colEnd], 10, 64)
	if err != nil {
		return nil, p.parseError("invalid end: %s", fields[colEnd])
	}

	transcripts, err := ExtractTranscripts(fields[colInfo], fields[colGeneName])
	if errors.Is(err, ErrMismatchedAnnotation) {
		p.stats.Mismatched++
		return nil, nil
	}

	kept := transcripts[:0]
	for _, t := range transcripts {
		if p.exclude.Contains(t.GeneID) {
			p.stats.Excluded++
			continue
		}
		kept = append(kept, t)
	}
	if len(transcripts) > 0 && len(kept) == 0 {
		return nil, nil
	}

	return &Record{
		Line:        ordinal,
		Consequence: fields[colConsequence],
		Chrom:       fields[colChrom],
		Start:       start,
		End:         end,
		Ref:         fields[colRef],
		Alt:         fields[colAlt],
		Sample:      fields[colSample],
		Transcripts: kept,
	}, nil
}

// ReadAll reads every remaining record.
func (p *Parser) ReadAll() ([]*Record, error) {
	var recs []*Record
	for {
		r, err := p.Next()
		if err != nil {
			return nil, err
		}
		if r == nil {
			return recs, nil
		}
		recs = append(recs, r)
	}
}

// Stats returns the counts accumulated so far.
func (p *Parser) Stats() Stats {
	return p.stats
}

// Close closes the underlying file, if any.
func (p *Parser) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// ParseLineID converts an Annovar line identifier such as "line12" into
// its ordinal.
func ParseLineID(id string) (int, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(id), "line")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid line identifier: %q", id)
	}
	return n, nil
}
