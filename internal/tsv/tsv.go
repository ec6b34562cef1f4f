// Package tsv opens and scans the tab-delimited tables exchanged with the
// upstream annotation pipeline.
package tsv

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bgzf"
)

// maxLineSize bounds a single table line. Annotation strings of genes with
// many transcripts easily exceed bufio's 64 KiB default.
const maxLineSize = 8 * 1024 * 1024

// Open opens a table for reading. Plain, gzip and BGZF files are accepted;
// compression is detected from the magic bytes, not the file extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	head := make([]byte, 16)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	head = head[:n]

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek %s: %w", path, err)
	}

	switch {
	case isBGZF(head):
		r, err := bgzf.NewReader(f, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create bgzf reader: %w", err)
		}
		return &multiCloser{Reader: r, closers: []io.Closer{r, f}}, nil
	case isGzip(head):
		r, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &multiCloser{Reader: r, closers: []io.Closer{r, f}}, nil
	}
	return f, nil
}

func isGzip(head []byte) bool {
	return len(head) >= 2 && head[0] == 0x1f && head[1] == 0x8b
}

// isBGZF reports whether head starts a BGZF block: a gzip member with the
// FEXTRA flag whose first extra subfield is "BC".
func isBGZF(head []byte) bool {
	return isGzip(head) && len(head) >= 14 && head[3]&0x04 != 0 &&
		head[12] == 'B' && head[13] == 'C'
}

type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewScanner returns a line scanner sized for annotation tables.
func NewScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return s
}

// Fields splits a line into its tab-separated columns after trimming the
// line terminator.
func Fields(line string) []string {
	return strings.Split(strings.TrimRight(line, "\r\n"), "\t")
}

// Column returns the index of the first header column matching one of
// names, or -1.
func Column(header []string, names ...string) int {
	for _, name := range names {
		for i, col := range header {
			if strings.TrimSpace(col) == name {
				return i
			}
		}
	}
	return -1
}

// IsBlank reports whether a line carries no data.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// ParseError reports a structurally broken table line.
type ParseError struct {
	Table   string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s parse error at line %d: %s", e.Table, e.Line, e.Message)
}
