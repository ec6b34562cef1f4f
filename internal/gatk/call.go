// Package gatk reads the tab-delimited variant-call tables exported from
// GATK calls, one row per variant with the sample's genotype column.
package gatk

import (
	"strconv"
	"strings"
)

// Call is one row of the variant-call table.
type Call struct {
	Line     int    // 1-based ordinal among data lines, joins with the annotation table
	Chrom    string // Chromosome name
	Pos      int64  // 1-based genomic position
	Ref      string // Reference allele
	Alt      string // Alternate allele
	Genotype string // Raw genotype/read-depth field
	Sample   string // Sample column
	Depth    ReadDepth
}

// ReadDepth holds the allele read counts from the genotype field.
type ReadDepth struct {
	Ref int
	Alt int
	OK  bool // false when the field carries no parseable counts
}

// ParseReadDepth extracts the reference and alternate read counts from a
// genotype field formatted as <ignored>:<ref>,<alt>[,...][:...].
func ParseReadDepth(field string) ReadDepth {
	parts := strings.Split(field, ":")
	if len(parts) < 2 {
		return ReadDepth{}
	}
	counts := strings.Split(parts[1], ",")
	if len(counts) < 2 {
		return ReadDepth{}
	}
	ref, err := strconv.Atoi(strings.TrimSpace(counts[0]))
	if err != nil || ref < 0 {
		return ReadDepth{}
	}
	alt, err := strconv.Atoi(strings.TrimSpace(counts[1]))
	if err != nil || alt < 0 {
		return ReadDepth{}
	}
	return ReadDepth{Ref: ref, Alt: alt, OK: true}
}

// VAF returns the variant allele fraction alt/(ref+alt). ok is false when
// the depth is unknown or zero.
func (d ReadDepth) VAF() (vaf float64, ok bool) {
	if !d.OK || d.Ref+d.Alt == 0 {
		return 0, false
	}
	return float64(d.Alt) / float64(d.Ref+d.Alt), true
}
