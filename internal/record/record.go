// Package record joins variant calls with their transcript annotations into
// the typed rows that evidence matching and reconciliation work on.
package record

import (
	"strconv"

	"github.com/kunlinho/xsomatic/internal/annovar"
)

// Source is the evidence a row was retained for.
type Source int

const (
	SourceNone Source = iota
	SourcePanCancer
	SourceCBio
	SourceCosmic
	SourceRemained
)

var sourceLabels = [...]string{
	SourceNone:      "",
	SourcePanCancer: "Pan-cancer",
	SourceCBio:      "C-bio",
	SourceCosmic:    "Cosmic",
	SourceRemained:  "Remained",
}

// String returns the label written to the output table.
func (s Source) String() string {
	if int(s) < len(sourceLabels) {
		return sourceLabels[s]
	}
	return "Unknown"
}

// ParseSource is the inverse of Source.String.
func ParseSource(label string) (Source, bool) {
	for s, l := range sourceLabels {
		if l == label && s != int(SourceNone) {
			return Source(s), true
		}
	}
	return SourceNone, false
}

// Variant is one genomic variant of a sample with all of its transcript
// annotations and read counts.
type Variant struct {
	Line        int
	Chrom       string
	Start       int64
	End         int64
	Ref         string // from the call
	Alt         string // from the call
	Sample      string
	Consequence string
	RefReads    int
	AltReads    int
	VAF         float64
	Transcripts []annovar.Transcript
}

// Rows expands v into one Row per transcript annotation. A variant without
// protein-level annotations yields a single row with empty transcript
// fields, so it can still be matched by coordinate or kept as Remained.
func (v *Variant) Rows() []*Row {
	transcripts := v.Transcripts
	if len(transcripts) == 0 {
		transcripts = []annovar.Transcript{{}}
	}
	rows := make([]*Row, 0, len(transcripts))
	for _, t := range transcripts {
		rows = append(rows, &Row{
			Line: v.Line,
			Fields: Fields{
				Consequence:   v.Consequence,
				GeneName:      t.GeneName,
				Chrom:         v.Chrom,
				Start:         v.Start,
				End:           v.End,
				Sample:        v.Sample,
				GeneID:        t.GeneID,
				TranscriptID:  t.TranscriptID,
				ProteinChange: t.ProteinChange,
				Ref:           v.Ref,
				Alt:           v.Alt,
				RefReads:      v.RefReads,
				AltReads:      v.AltReads,
				VAF:           v.VAF,
			},
		})
	}
	return rows
}

// Fields are the columns of a row that reach the output. Two rows with
// equal Fields are the same evidence.
type Fields struct {
	Consequence   string
	GeneName      string
	Chrom         string
	Start         int64
	End           int64
	Sample        string
	GeneID        string
	TranscriptID  string
	ProteinChange string
	Ref           string
	Alt           string
	RefReads      int
	AltReads      int
	VAF           float64
}

// Row is one (variant, transcript annotation) pair.
type Row struct {
	Line int // ordinal of the source line, used for ordering only
	Fields
	Source Source
}

// GeneMutation returns GENE_CHANGE, e.g. TP53_G255fs.
func (r *Row) GeneMutation() string {
	return r.GeneName + "_" + r.ProteinChange
}

// TranscriptMutation returns TRANSCRIPT_CHANGE.
func (r *Row) TranscriptMutation() string {
	return r.TranscriptID + "_" + r.ProteinChange
}

// GenomicKey returns chrom_start_ref_alt, the key used by coordinate
// matched databases.
func (r *Row) GenomicKey() string {
	return GenomicKey(r.Chrom, r.Start, r.Ref, r.Alt)
}

// GenomicKey formats a chrom_pos_ref_alt key.
func GenomicKey(chrom string, pos int64, ref, alt string) string {
	return chrom + "_" + strconv.FormatInt(pos, 10) + "_" + ref + "_" + alt
}

// WithSource returns a copy of r labelled with s.
func (r *Row) WithSource(s Source) *Row {
	c := *r
	c.Source = s
	return &c
}
