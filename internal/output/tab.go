// Package output writes annotated variant rows.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/kunlinho/xsomatic/internal/record"
)

// Columns are the header of the annotated variant table.
var Columns = []string{
	"Consequence",
	"Gene_name",
	"Chrom",
	"Start",
	"End",
	"Sample_name",
	"Ensembl_gene",
	"Ensembl_transcripts",
	"Total_protein_change",
	"Gene_mut_info",
	"Transcript_mut_info",
	"Ref",
	"Alt",
	"Ref_reads",
	"Alt_reads",
	"VAF",
	"Chrom_mut_info",
	"Source",
	"Bioproject",
}

// TabWriter writes rows in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	project string
	count   int
}

// NewTabWriter creates a new tab-delimited writer. Every row is tagged with
// project in the Bioproject column.
func NewTabWriter(w io.Writer, project string) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		project: project,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(Columns, "\t") + "\n")
	return err
}

// Write writes a single row.
func (tw *TabWriter) Write(r *record.Row) error {
	values := []string{
		r.Consequence,
		r.GeneName,
		r.Chrom,
		strconv.FormatInt(r.Start, 10),
		strconv.FormatInt(r.End, 10),
		r.Sample,
		r.GeneID,
		r.TranscriptID,
		r.ProteinChange,
		r.GeneMutation(),
		r.TranscriptMutation(),
		r.Ref,
		r.Alt,
		strconv.Itoa(r.RefReads),
		strconv.Itoa(r.AltReads),
		FormatVAF(r.VAF),
		r.GenomicKey(),
		r.Source.String(),
		tw.project,
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	if err == nil {
		tw.count++
	}
	return err
}

// WriteAll writes the header followed by rows and flushes.
func (tw *TabWriter) WriteAll(rows []*record.Row) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range rows {
		if err := tw.Write(r); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Count returns the number of rows written.
func (tw *TabWriter) Count() int {
	return tw.count
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// FormatVAF renders a variant allele fraction in its shortest round-trip
// decimal form.
func FormatVAF(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
