package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunlinho/xsomatic/internal/record"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRows() []*record.Row {
	base := record.Fields{
		Consequence: "nonsynonymous SNV", GeneName: "TP53", Chrom: "chr5",
		Start: 100, End: 100, Sample: "CMT-33", GeneID: "ENSCAFG00000000001",
		TranscriptID: "ENSCAFT00000000001", ProteinChange: "R242W",
		Ref: "C", Alt: "T", RefReads: 12, AltReads: 8, VAF: 0.4,
	}
	second := base
	second.Start, second.End, second.ProteinChange = 300, 300, "R242L"
	third := base
	third.Chrom, third.Start, third.End, third.GeneName = "chr9", 10, 10, "BRAF"
	return []*record.Row{
		{Line: 2, Fields: base, Source: record.SourceCBio},
		{Line: 4, Fields: second, Source: record.SourceCosmic},
		{Line: 5, Fields: third, Source: record.SourceRemained},
	}
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NoError(t, s.db.Ping())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestWriteRun(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := s.WriteRun(ctx, Run{
		Sample: "CMT-33", Project: "PRJNA000001", TranslateTo: "human", Dedup: "row", StartedAt: started,
	}, testRows(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "CMT-33", runs[0].Sample)
	assert.Equal(t, "PRJNA000001", runs[0].Project)
	assert.Equal(t, 3, runs[0].Rows)
	assert.True(t, started.Equal(runs[0].StartedAt))

	counts, err := s.SourceCounts(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, map[record.Source]int{
		record.SourceCBio:     1,
		record.SourceCosmic:   1,
		record.SourceRemained: 1,
	}, counts)

	rows, err := s.RunRows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, testRows(), rows)
}

func TestWriteRun_Empty(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	id, err := s.WriteRun(ctx, Run{Sample: "CMT-1"}, nil, nil)
	require.NoError(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Zero(t, runs[0].Rows)

	counts, err := s.SourceCounts(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestReferenceFiles(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "retro_gene_list.txt")
	require.NoError(t, os.WriteFile(path, []byte("ENSCAFG00000099999\n"), 0644))
	ref, err := StatReferenceFile("retro_genes", path)
	require.NoError(t, err)
	assert.Equal(t, int64(19), ref.Size)
	assert.True(t, ref.Matches())

	id, err := s.WriteRun(ctx, Run{Sample: "CMT-33"}, testRows(), []ReferenceFile{ref})
	require.NoError(t, err)

	files, err := s.ReferenceFiles(ctx, id)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "retro_genes", files[0].Name)
	assert.Equal(t, path, files[0].Path)
	assert.True(t, files[0].Matches())

	require.NoError(t, os.WriteFile(path, []byte("changed\n"), 0644))
	assert.False(t, files[0].Matches())
}

func TestStatFile_NotFound(t *testing.T) {
	_, err := StatFile("/nonexistent/file.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = StatReferenceFile("x", "/nonexistent/file.txt")
	assert.Error(t, err)
}

func TestRunRows_KeepsWriteOrder(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	rows := testRows()
	cosmic := *rows[0]
	cosmic.TranscriptID = "ENSCAFT00000000000"
	cosmic.Source = record.SourceCosmic
	written := []*record.Row{rows[0], &cosmic, rows[1]}

	id, err := s.WriteRun(ctx, Run{Sample: "CMT-33"}, written, nil)
	require.NoError(t, err)

	got, err := s.RunRows(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, written, got)
}

func TestRunRows_UnknownSource(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	id, err := s.WriteRun(ctx, Run{Sample: "CMT-33"}, testRows(), nil)
	require.NoError(t, err)
	_, err = s.db.Exec(`UPDATE annotated_variants SET source='Bogus' WHERE run_id=? AND line=2`, id.String())
	require.NoError(t, err)

	_, err = s.RunRows(ctx, id)
	assert.ErrorContains(t, err, `unknown source "Bogus"`)
}

func TestWriteRun_FailureLeavesNothing(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	ref := ReferenceFile{Name: "retro_genes", FileFingerprint: FileFingerprint{Path: "/data/retro.txt", Size: 1}}
	_, err := s.WriteRun(ctx, Run{Sample: "CMT-33"}, testRows(), []ReferenceFile{ref, ref})
	require.Error(t, err)

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)

	for _, table := range []string{"annotated_variants", "reference_files"} {
		var n int64
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}
