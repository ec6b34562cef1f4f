package record

import (
	"github.com/kunlinho/xsomatic/internal/annovar"
	"github.com/kunlinho/xsomatic/internal/gatk"
)

// JoinStats counts annotation records dropped by Join.
type JoinStats struct {
	Joined      int
	Unmatched   int // no call on the same line and chromosome
	NoReadDepth int // call without usable allele counts
}

type callKey struct {
	line  int
	chrom string
}

// Join attaches each annotation record to the call on the same line and
// chromosome. Records without a call, or whose call has no read depth, are
// dropped. Ref and Alt come from the call; sample names every variant.
func Join(calls []*gatk.Call, recs []*annovar.Record, sample string) ([]*Variant, JoinStats) {
	byLine := make(map[callKey]*gatk.Call, len(calls))
	for _, c := range calls {
		byLine[callKey{c.Line, c.Chrom}] = c
	}

	var stats JoinStats
	variants := make([]*Variant, 0, len(recs))
	for _, rec := range recs {
		c, ok := byLine[callKey{rec.Line, rec.Chrom}]
		if !ok {
			stats.Unmatched++
			continue
		}
		vaf, ok := c.Depth.VAF()
		if !ok {
			stats.NoReadDepth++
			continue
		}
		stats.Joined++
		variants = append(variants, &Variant{
			Line:        rec.Line,
			Chrom:       rec.Chrom,
			Start:       rec.Start,
			End:         rec.End,
			Ref:         c.Ref,
			Alt:         c.Alt,
			Sample:      sample,
			Consequence: rec.Consequence,
			RefReads:    c.Depth.Ref,
			AltReads:    c.Depth.Alt,
			VAF:         vaf,
			Transcripts: rec.Transcripts,
		})
	}
	return variants, stats
}

// Expand flattens variants into rows in input order.
func Expand(variants []*Variant) []*Row {
	var rows []*Row
	for _, v := range variants {
		rows = append(rows, v.Rows()...)
	}
	return rows
}
