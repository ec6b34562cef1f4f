package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kunlinho/xsomatic/internal/duckdb"
	"github.com/kunlinho/xsomatic/internal/output"
	"github.com/kunlinho/xsomatic/internal/record"
)

var summarySources = []record.Source{
	record.SourcePanCancer,
	record.SourceCBio,
	record.SourceCosmic,
	record.SourceRemained,
}

func newSummaryCmd() *cobra.Command {
	var (
		files bool
		rows  string
	)

	cmd := &cobra.Command{
		Use:   "summary [store.duckdb]",
		Short: "Summarise the runs recorded in a result store",
		Long: `Print one line per recorded run with its row count per evidence source.
Without an argument the store.path configuration value is used.

--files lists the reference files each run was computed from and marks the
ones that changed on disk since. --rows writes the stored table of one run.`,
		Example: `  xsomatic summary runs.duckdb
  xsomatic summary --files runs.duckdb
  xsomatic summary --rows 1b4e28ba-2fa1-11d2-883f-0016d3cca427 runs.duckdb > CMT-33.txt`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("store.path")
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return &usageError{cmd: cmd, err: fmt.Errorf("no store given and store.path is not set")}
			}
			var runID uuid.UUID
			if rows != "" {
				id, err := uuid.Parse(rows)
				if err != nil {
					return &usageError{cmd: cmd, err: fmt.Errorf("--rows: %w", err)}
				}
				runID = id
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("store: %w", err)
			}

			store, err := duckdb.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != uuid.Nil {
				return writeRunRows(cmd.Context(), cmd.OutOrStdout(), store, runID)
			}
			return writeSummary(cmd.Context(), cmd.OutOrStdout(), store, files)
		},
	}

	cmd.Flags().BoolVar(&files, "files", false, "List reference files per run and flag changed ones")
	cmd.Flags().StringVar(&rows, "rows", "", "Write the stored rows of the run with this ID")

	return cmd
}

func writeSummary(ctx context.Context, w io.Writer, store *duckdb.Store, files bool) error {
	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "RUN\tSTARTED\tSAMPLE\tPROJECT\tROWS")
	for _, src := range summarySources {
		fmt.Fprintf(tw, "\t%s", src)
	}
	fmt.Fprintln(tw)

	for _, run := range runs {
		counts, err := store.SourceCounts(ctx, run.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d", run.ID, run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Sample, run.Project, run.Rows)
		for _, src := range summarySources {
			fmt.Fprintf(tw, "\t%d", counts[src])
		}
		fmt.Fprintln(tw)

		if !files {
			continue
		}
		refs, err := store.ReferenceFiles(ctx, run.ID)
		if err != nil {
			return err
		}
		for _, f := range refs {
			status := "current"
			if !f.Matches() {
				status = "changed"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", f.Name, status, f.Path)
		}
	}
	return tw.Flush()
}

func writeRunRows(ctx context.Context, w io.Writer, store *duckdb.Store, id uuid.UUID) error {
	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	var project string
	found := false
	for _, run := range runs {
		if run.ID == id {
			project, found = run.Project, true
			break
		}
	}
	if !found {
		return fmt.Errorf("run %s not found", id)
	}

	rows, err := store.RunRows(ctx, id)
	if err != nil {
		return err
	}
	return output.NewTabWriter(w, project).WriteAll(rows)
}
