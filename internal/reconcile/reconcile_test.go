package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunlinho/xsomatic/internal/evidence"
	"github.com/kunlinho/xsomatic/internal/record"
)

// tierFunc is a Matcher backed by a predicate.
type tierFunc struct {
	source record.Source
	match  func(*record.Row) bool
}

func (t tierFunc) Source() record.Source { return t.source }
func (t tierFunc) Match(r *record.Row) bool { return t.match(r) }

func byTranscript(source record.Source, transcripts ...string) Matcher {
	set := evidence.NewSet(transcripts...)
	return tierFunc{source, func(r *record.Row) bool { return set.Contains(r.TranscriptID) }}
}

func row(line int, chrom string, start int64, transcript string) *record.Row {
	return &record.Row{
		Line: line,
		Fields: record.Fields{
			Chrom: chrom, Start: start, End: start, Ref: "A", Alt: "T",
			Sample: "CMT-2", TranscriptID: transcript, RefReads: 10, AltReads: 5, VAF: 1.0 / 3,
		},
	}
}

func sources(rows []*record.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.TranscriptID + ":" + r.Source.String()
	}
	return out
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DedupRow, p)

	p, err = ParsePolicy("coordinate")
	require.NoError(t, err)
	assert.Equal(t, DedupCoordinate, p)
	assert.Equal(t, "coordinate", p.String())

	_, err = ParsePolicy("transcript")
	assert.Error(t, err)
}

func TestReconcile_PanCancerWins(t *testing.T) {
	pan := evidence.NewCoordinateDatabase(record.SourcePanCancer, evidence.NewSet("chr1_500_A_T"))
	rc := New(DedupRow, pan, byTranscript(record.SourceCBio, "T1", "T2"), byTranscript(record.SourceCosmic, "T1"))

	rows := []*record.Row{row(1, "chr1", 500, "T1"), row(1, "chr1", 500, "T2")}
	got := rc.Reconcile(rows)
	assert.Equal(t, []string{"T1:Pan-cancer", "T2:Pan-cancer"}, sources(got))
	assert.Equal(t, 2, rc.Stats().Matched[record.SourcePanCancer])
	assert.Zero(t, rc.Stats().Matched[record.SourceCBio])
}

func TestReconcile_CBioBeforeCosmic(t *testing.T) {
	rc := New(DedupRow,
		byTranscript(record.SourcePanCancer),
		byTranscript(record.SourceCBio, "T1"),
		byTranscript(record.SourceCosmic, "T1", "T2"))

	rows := []*record.Row{
		row(3, "chr2", 100, "T1"),
		row(3, "chr2", 100, "T2"),
		row(3, "chr2", 100, "T3"),
	}
	got := rc.Reconcile(rows)
	assert.Equal(t, []string{"T1:C-bio", "T2:Cosmic"}, sources(got))
	assert.Equal(t, 1, rc.Stats().Siblings)
}

func TestReconcile_DuplicateRowAcrossTiers(t *testing.T) {
	// Two identical rows: one matches C-bio, its duplicate only COSMIC.
	first := row(4, "chr3", 10, "T1")
	dup := row(4, "chr3", 10, "T1")
	matchFirst := tierFunc{record.SourceCBio, func(r *record.Row) bool { return r == first }}
	rc := New(DedupRow, byTranscript(record.SourcePanCancer), matchFirst, byTranscript(record.SourceCosmic, "T1"))

	got := rc.Reconcile([]*record.Row{first, dup})
	assert.Equal(t, []string{"T1:C-bio"}, sources(got))
	assert.Equal(t, 1, rc.Stats().Redundant)
}

func TestReconcile_CoordinatePolicy(t *testing.T) {
	tiers := []Matcher{
		byTranscript(record.SourcePanCancer),
		byTranscript(record.SourceCBio, "T1"),
		byTranscript(record.SourceCosmic, "T2"),
	}
	rows := []*record.Row{row(5, "chr4", 20, "T1"), row(5, "chr4", 20, "T2")}

	got := New(DedupRow, tiers...).Reconcile(rows)
	assert.Equal(t, []string{"T1:C-bio", "T2:Cosmic"}, sources(got))

	got = New(DedupCoordinate, tiers...).Reconcile(rows)
	assert.Equal(t, []string{"T1:C-bio"}, sources(got))
}

func TestReconcile_RemainedAndOrder(t *testing.T) {
	rc := New(DedupRow,
		byTranscript(record.SourcePanCancer),
		byTranscript(record.SourceCBio, "T9"),
		byTranscript(record.SourceCosmic))

	rows := []*record.Row{
		row(10, "chr7", 70, "T7"),
		row(2, "chr1", 10, "T1"),
		row(2, "chr1", 10, "T1"), // exact duplicate
		row(9, "chr6", 60, "T9"),
		row(2, "chr1", 10, "T2"),
	}
	got := rc.Reconcile(rows)
	assert.Equal(t, []string{"T1:Remained", "T2:Remained", "T9:C-bio", "T7:Remained"}, sources(got))

	for _, r := range rows {
		assert.Equal(t, record.SourceNone, r.Source, "input rows must stay unlabelled")
	}
	assert.Equal(t, 3, rc.Stats().Output[record.SourceRemained])
	assert.Equal(t, 5, rc.Stats().Input)
}

func TestReconcile_IdenticalContentOnTwoLines(t *testing.T) {
	cbio := byTranscript(record.SourceCBio, "T1")
	rc := New(DedupRow, byTranscript(record.SourcePanCancer), cbio, byTranscript(record.SourceCosmic, "T1", "T2"))

	rows := []*record.Row{
		row(6, "chr8", 80, "T1"),
		row(7, "chr8", 80, "T1"),
		row(6, "chr8", 80, "T2"),
		row(7, "chr8", 80, "T2"),
		row(7, "chr8", 80, "T2"),
	}
	got := rc.Reconcile(rows)
	require.Len(t, got, 4)
	assert.Equal(t, []int{6, 6, 7, 7}, []int{got[0].Line, got[1].Line, got[2].Line, got[3].Line})
	assert.Equal(t, []string{"T1:C-bio", "T2:Cosmic", "T1:C-bio", "T2:Cosmic"}, sources(got))
	assert.Zero(t, rc.Stats().Redundant)
}

func TestReconcile_Empty(t *testing.T) {
	got := New(DedupRow).Reconcile(nil)
	assert.Empty(t, got)
}
