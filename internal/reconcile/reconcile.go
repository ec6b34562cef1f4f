// Package reconcile labels variant rows with the highest-priority evidence
// source that documents them.
package reconcile

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/kunlinho/xsomatic/internal/record"
)

// Matcher is one evidence tier.
type Matcher interface {
	Source() record.Source
	Match(r *record.Row) bool
}

// Policy selects the key lower-tier rows are deduplicated against.
type Policy int

const (
	// DedupRow drops a lower-tier row when a higher tier claimed a row of
	// the same input line with identical output fields.
	DedupRow Policy = iota
	// DedupCoordinate drops a lower-tier row when a higher tier claimed any
	// row at the same genomic key.
	DedupCoordinate
)

func (p Policy) String() string {
	switch p {
	case DedupRow:
		return "row"
	case DedupCoordinate:
		return "coordinate"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses "row" or "coordinate". The empty string is DedupRow.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "row":
		return DedupRow, nil
	case "coordinate":
		return DedupCoordinate, nil
	}
	return DedupRow, fmt.Errorf("unknown dedup policy %q (want row or coordinate)", s)
}

// Stats summarises one Reconcile call.
type Stats struct {
	Input     int
	Matched   map[record.Source]int // rows matched per tier, before dedup
	Redundant int                   // lower-tier rows already claimed by a higher tier
	Siblings  int                   // unmatched rows of a claimed variant
	Output    map[record.Source]int
}

// Reconciler merges the matches of its tiers.
type Reconciler struct {
	policy Policy
	tiers  []Matcher
	stats  Stats
	logger *zap.Logger
}

// New creates a Reconciler. Tiers are given in priority order.
func New(policy Policy, tiers ...Matcher) *Reconciler {
	return &Reconciler{policy: policy, tiers: tiers, logger: zap.NewNop()}
}

// SetLogger sets the logger.
func (rc *Reconciler) SetLogger(l *zap.Logger) {
	rc.logger = l
}

// Stats returns the statistics of the last Reconcile call.
func (rc *Reconciler) Stats() Stats {
	return rc.stats
}

// rowKey identifies a row by its input line and output fields. Identical
// content on distinct input lines stays distinct.
type rowKey struct {
	line   int
	fields record.Fields
}

func (rc *Reconciler) dedupKey(r *record.Row) any {
	if rc.policy == DedupCoordinate {
		return r.GenomicKey()
	}
	return rowKey{r.Line, r.Fields}
}

type outKey struct {
	row    rowKey
	source record.Source
}

// Reconcile labels rows and returns the retained ones, deduplicated on
// (line, fields, source) and ordered by input line. Each row takes the first tier
// that matches it. Rows of variants no tier claimed are labelled Remained.
// The input rows are not modified.
func (rc *Reconciler) Reconcile(rows []*record.Row) []*record.Row {
	rc.stats = Stats{
		Input:   len(rows),
		Matched: make(map[record.Source]int),
		Output:  make(map[record.Source]int),
	}

	const unmatched = -1
	tier := make([]int, len(rows))
	best := make(map[any]int)
	claimed := make(map[string]bool)
	for i, r := range rows {
		tier[i] = unmatched
		for t, m := range rc.tiers {
			if m.Match(r) {
				tier[i] = t
				rc.stats.Matched[m.Source()]++
				break
			}
		}
		if tier[i] == unmatched {
			continue
		}
		claimed[r.GenomicKey()] = true
		k := rc.dedupKey(r)
		if b, ok := best[k]; !ok || tier[i] < b {
			best[k] = tier[i]
		}
	}

	seen := make(map[outKey]bool)
	out := make([]*record.Row, 0, len(rows))
	for i, r := range rows {
		var src record.Source
		switch {
		case tier[i] != unmatched:
			if best[rc.dedupKey(r)] < tier[i] {
				rc.stats.Redundant++
				continue
			}
			src = rc.tiers[tier[i]].Source()
		case claimed[r.GenomicKey()]:
			rc.stats.Siblings++
			continue
		default:
			src = record.SourceRemained
		}

		k := outKey{rowKey{r.Line, r.Fields}, src}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r.WithSource(src))
		rc.stats.Output[src]++
	}

	slices.SortStableFunc(out, func(a, b *record.Row) int {
		return a.Line - b.Line
	})

	rc.logger.Info("reconciled rows",
		zap.Int("input", rc.stats.Input),
		zap.Int("output", len(out)),
		zap.Int("redundant", rc.stats.Redundant),
		zap.Int("unmatched_siblings", rc.stats.Siblings),
		zap.String("dedup", rc.policy.String()))
	for _, m := range rc.tiers {
		rc.logger.Debug("tier result",
			zap.Stringer("source", m.Source()),
			zap.Int("matched", rc.stats.Matched[m.Source()]),
			zap.Int("retained", rc.stats.Output[m.Source()]))
	}
	return out
}
