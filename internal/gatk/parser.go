package gatk

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kunlinho/xsomatic/internal/tsv"
)

// Column positions in the variant-call table.
const (
	colChrom    = 0
	colPos      = 1
	colRef      = 3
	colAlt      = 4
	colGenotype = 9
	colSample   = 10
	minColumns  = 11
)

// Parser reads calls from a variant-call table.
type Parser struct {
	scanner    *bufio.Scanner
	closer     io.Closer
	lineNumber int // physical line number, for errors
	ordinal    int // data line ordinal
}

// NewParser opens the table at path. Plain, gzip and BGZF files are supported.
func NewParser(path string) (*Parser, error) {
	r, err := tsv.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open variant-call table: %w", err)
	}
	p := NewParserFromReader(r)
	p.closer = r
	return p, nil
}

// NewParserFromReader creates a parser over r.
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{scanner: tsv.NewScanner(r)}
}

// Next reads the next call.
// Returns nil, nil when there are no more calls.
func (p *Parser) Next() (*Call, error) {
	for p.scanner.Scan() {
		p.lineNumber++
		line := p.scanner.Text()
		if tsv.IsBlank(line) || strings.HasPrefix(line, "#") {
			continue
		}
		p.ordinal++
		return p.parseLine(line)
	}
	if err := p.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read variant-call line: %w", err)
	}
	return nil, nil
}

func (p *Parser) parseLine(line string) (*Call, error) {
	fields := tsv.Fields(line)
	if len(fields) < minColumns {
		return nil, &tsv.ParseError{
			Table:   "variant-call",
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minColumns, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[colPos], 10, 64)
	if err != nil {
		return nil, &tsv.ParseError{
			Table:   "variant-call",
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[colPos]),
		}
	}

	return &Call{
		Line:     p.ordinal,
		Chrom:    fields[colChrom],
		Pos:      pos,
		Ref:      fields[colRef],
		Alt:      fields[colAlt],
		Genotype: fields[colGenotype],
		Sample:   fields[colSample],
		Depth:    ParseReadDepth(fields[colGenotype]),
	}, nil
}

// ReadAll reads every remaining call.
func (p *Parser) ReadAll() ([]*Call, error) {
	var calls []*Call
	for {
		c, err := p.Next()
		if err != nil {
			return nil, err
		}
		if c == nil {
			return calls, nil
		}
		calls = append(calls, c)
	}
}

// Close closes the underlying file, if any.
func (p *Parser) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}
