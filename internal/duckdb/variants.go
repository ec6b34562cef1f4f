package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/kunlinho/xsomatic/internal/record"
)

// Run describes one stored annotation run.
type Run struct {
	ID          uuid.UUID
	Sample      string
	Project     string
	TranslateTo string
	Dedup       string
	StartedAt   time.Time
	Rows        int // filled by Runs
}

// WriteRun stores rows and reference fingerprints under a new run ID, which
// is returned. Rows are bulk inserted using the Appender API and keep their
// order. On failure nothing of the run is left in the store.
func (s *Store) WriteRun(ctx context.Context, run Run, rows []*record.Row, refs []ReferenceFile) (uuid.UUID, error) {
	id := uuid.New()
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	if err := s.writeRun(ctx, id, run, rows, refs); err != nil {
		if cerr := s.deleteRun(context.WithoutCancel(ctx), id); cerr != nil {
			return uuid.Nil, fmt.Errorf("%w (removing partial run: %v)", err, cerr)
		}
		return uuid.Nil, err
	}
	return id, nil
}

// writeRun appends the rows first; the run and its reference files are
// committed together afterwards, so a run only becomes visible complete.
func (s *Store) writeRun(ctx context.Context, id uuid.UUID, run Run, rows []*record.Row, refs []ReferenceFile) error {
	if err := s.appendRows(ctx, id, rows); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, sample, project, translate_to, dedup, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), run.Sample, run.Project, run.TranslateTo, run.Dedup, run.StartedAt); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, f := range refs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO reference_files (run_id, name, path, size, mod_time) VALUES (?, ?, ?, ?, ?)`,
			id.String(), f.Name, f.Path, f.Size, f.ModTime); err != nil {
			return fmt.Errorf("insert reference file %s: %w", f.Name, err)
		}
	}
	return tx.Commit()
}

func (s *Store) deleteRun(ctx context.Context, id uuid.UUID) error {
	for _, table := range []string{"annotated_variants", "reference_files", "runs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id=?", id.String()); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) appendRows(ctx context.Context, id uuid.UUID, rows []*record.Row) error {
	if len(rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "annotated_variants")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	runID := id.String()
	for i, r := range rows {
		if err := appender.AppendRow(
			runID, int64(i), int64(r.Line), r.Consequence, r.GeneName,
			r.Chrom, r.Start, r.End, r.Sample,
			r.GeneID, r.TranscriptID, r.ProteinChange,
			r.Ref, r.Alt, int64(r.RefReads), int64(r.AltReads), r.VAF,
			r.Source.String(),
		); err != nil {
			return fmt.Errorf("append annotated variant: %w", err)
		}
	}

	return appender.Flush()
}

// Runs lists stored runs, oldest first, with their row counts.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		r.run_id, r.sample, r.project, r.translate_to, r.dedup, r.started_at,
		COUNT(v.run_id)
		FROM runs r LEFT JOIN annotated_variants v ON v.run_id = r.run_id
		GROUP BY r.run_id, r.sample, r.project, r.translate_to, r.dedup, r.started_at
		ORDER BY r.started_at, r.run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var id string
		var n int64
		if err := rows.Scan(&id, &run.Sample, &run.Project, &run.TranslateTo, &run.Dedup, &run.StartedAt, &n); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		run.Rows = int(n)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// SourceCounts returns the number of stored rows per evidence source of a run.
func (s *Store) SourceCounts(ctx context.Context, id uuid.UUID) (map[record.Source]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, COUNT(*) FROM annotated_variants WHERE run_id=? GROUP BY source`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query source counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[record.Source]int)
	for rows.Next() {
		var label string
		var n int64
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan source count: %w", err)
		}
		src, ok := record.ParseSource(label)
		if !ok {
			return nil, fmt.Errorf("unknown source %q in run %s", label, id)
		}
		counts[src] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source counts: %w", err)
	}
	return counts, nil
}

// RunRows returns the stored rows of a run in the order they were written.
func (s *Store) RunRows(ctx context.Context, id uuid.UUID) ([]*record.Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		line, consequence, gene_name, chrom, start_pos, end_pos, sample,
		gene_id, transcript_id, protein_change, ref, alt,
		ref_reads, alt_reads, vaf, source
		FROM annotated_variants
		WHERE run_id=?
		ORDER BY seq`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query run rows: %w", err)
	}
	defer rows.Close()

	var out []*record.Row
	for rows.Next() {
		var r record.Row
		var line, refReads, altReads int64
		var label string
		if err := rows.Scan(
			&line, &r.Consequence, &r.GeneName, &r.Chrom, &r.Start, &r.End, &r.Sample,
			&r.GeneID, &r.TranscriptID, &r.ProteinChange, &r.Ref, &r.Alt,
			&refReads, &altReads, &r.VAF, &label,
		); err != nil {
			return nil, fmt.Errorf("scan annotated variant: %w", err)
		}
		r.Line = int(line)
		r.RefReads = int(refReads)
		r.AltReads = int(altReads)
		src, ok := record.ParseSource(label)
		if !ok {
			return nil, fmt.Errorf("unknown source %q in run %s", label, id)
		}
		r.Source = src
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotated variants: %w", err)
	}
	return out, nil
}

// ReferenceFiles returns the reference fingerprints recorded for a run.
func (s *Store) ReferenceFiles(ctx context.Context, id uuid.UUID) ([]ReferenceFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, path, size, mod_time FROM reference_files WHERE run_id=? ORDER BY name`, id.String())
	if err != nil {
		return nil, fmt.Errorf("query reference files: %w", err)
	}
	defer rows.Close()

	var files []ReferenceFile
	for rows.Next() {
		var f ReferenceFile
		if err := rows.Scan(&f.Name, &f.Path, &f.Size, &f.ModTime); err != nil {
			return nil, fmt.Errorf("scan reference file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference files: %w", err)
	}
	return files, nil
}
