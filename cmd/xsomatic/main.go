// Package main provides the xsomatic command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kunlinho/xsomatic/internal/annotate"
	"github.com/kunlinho/xsomatic/internal/duckdb"
	"github.com/kunlinho/xsomatic/internal/ortholog"
	"github.com/kunlinho/xsomatic/internal/output"
	"github.com/kunlinho/xsomatic/internal/reconcile"
	"github.com/kunlinho/xsomatic/internal/record"
	"github.com/kunlinho/xsomatic/internal/refdata"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// usageError marks errors caused by bad command-line usage.
type usageError struct {
	cmd *cobra.Command
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{cmd: cmd, err: err}
		}
		return nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(stderr, "Error: %v\n\n", err)
			ue.cmd.SetOut(stderr)
			ue.cmd.Usage()
			return ExitUsage
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "xsomatic <variant-file> <annotation-file> <sample-name> <output-path> <data-root> <project>",
		Short: "Annotate canine somatic mutations with human cancer evidence",
		Long: `Annotate the somatic variants of one dog sample with the evidence that
documents them: a pan-cancer dog cohort (matched by genomic coordinate) and
the human C-bioportal and COSMIC databases (matched through the orthologous
human protein change). Every transcript row is labelled Pan-cancer, C-bio,
Cosmic or Remained.`,
		Example: `  xsomatic CMT-33.gatk.txt CMT-33.exonic_variant_function CMT-33 out/CMT-33.txt /data PRJNA000001
  xsomatic translate --database cbio --data-root /data TP53_R242W
  xsomatic summary runs.duckdb`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Args:          usageArgs(cobra.ExactArgs(6)),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(cmd.Context(), annotateArgs{
				variantPath:    args[0],
				annotationPath: args[1],
				sample:         args[2],
				outputPath:     args[3],
				dataRoot:       args[4],
				project:        args[5],
			})
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{cmd: c, err: err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ~/.xsomatic.yaml)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "console", "Log format: console, json")

	f := cmd.Flags()
	f.String("translate-to", "human", "Species the dog protein changes are translated into: human or dog")
	f.String("dedup", "row", "Cross-database deduplication: row or coordinate")
	f.String("store", "", "DuckDB file to record the run in (default: none)")

	bindFlag(pf, "log.level", "log-level")
	bindFlag(pf, "log.format", "log-format")
	bindFlag(f, "translate_to", "translate-to")
	bindFlag(f, "reconcile.dedup", "dedup")
	bindFlag(f, "store.path", "store")

	cmd.AddCommand(newTranslateCmd())
	cmd.AddCommand(newSummaryCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

type annotateArgs struct {
	variantPath    string
	annotationPath string
	sample         string
	outputPath     string
	dataRoot       string
	project        string
}

func runAnnotate(ctx context.Context, a annotateArgs) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	target, err := ortholog.ParseSpecies(viper.GetString("translate_to"))
	if err != nil {
		return fmt.Errorf("translate_to: %w", err)
	}
	policy, err := reconcile.ParsePolicy(viper.GetString("reconcile.dedup"))
	if err != nil {
		return fmt.Errorf("reconcile.dedup: %w", err)
	}
	layout, err := dataLayout(a.dataRoot)
	if err != nil {
		return err
	}

	started := time.Now()
	loader := refdata.NewLoader(layout, target)
	loader.SetLogger(logger)
	ref, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading reference data: %w", err)
	}

	annotator := annotate.NewAnnotator(ref, policy)
	annotator.SetLogger(logger)
	res, err := annotator.Annotate(ctx, annotate.Input{
		VariantPath:    a.variantPath,
		AnnotationPath: a.annotationPath,
		Sample:         a.sample,
	})
	if err != nil {
		return err
	}

	written, err := writeOutput(a.outputPath, a.project, res.Rows)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("sample", a.sample),
		zap.String("output", a.outputPath),
		zap.Int("rows", written),
		zap.Duration("elapsed", time.Since(started)),
	}
	for _, src := range []record.Source{record.SourcePanCancer, record.SourceCBio, record.SourceCosmic, record.SourceRemained} {
		fields = append(fields, zap.Int(strings.ToLower(src.String()), res.Reconcile.Output[src]))
	}
	logger.Info("annotation complete", fields...)

	if path := viper.GetString("store.path"); path != "" {
		return recordRun(ctx, logger, path, duckdb.Run{
			Sample:      a.sample,
			Project:     a.project,
			TranslateTo: target.String(),
			Dedup:       policy.String(),
			StartedAt:   started,
		}, res.Rows, ref.Files)
	}
	return nil
}

// dataLayout resolves the reference files under root, applying data.<name>
// overrides from the configuration.
func dataLayout(root string) (*refdata.Layout, error) {
	layout := refdata.DefaultLayout(root)
	for _, name := range refdata.Names() {
		if p := viper.GetString("data." + name); p != "" {
			if err := layout.Set(name, p); err != nil {
				return nil, err
			}
		}
	}
	return layout, nil
}

// writeOutput writes rows to path and returns the number of rows written.
func writeOutput(path, project string, rows []*record.Row) (int, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating output file: %w", err)
	}
	tw := output.NewTabWriter(f, project)
	if err := tw.WriteAll(rows); err != nil {
		f.Close()
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return tw.Count(), f.Close()
}

func recordRun(ctx context.Context, logger *zap.Logger, path string, run duckdb.Run, rows []*record.Row, files []refdata.File) error {
	refs := make([]duckdb.ReferenceFile, 0, len(files))
	for _, f := range files {
		ref, err := duckdb.StatReferenceFile(f.Name, f.Path)
		if err != nil {
			return fmt.Errorf("fingerprint %s: %w", f.Name, err)
		}
		refs = append(refs, ref)
	}

	store, err := duckdb.Open(path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	id, err := store.WriteRun(ctx, run, rows, refs)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	logger.Info("recorded run", zap.String("store", path), zap.Stringer("run_id", id))
	return nil
}

// newLogger builds the logger configured by log.level and log.format.
// Logs go to stderr.
func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	var cfg zap.Config
	switch format := viper.GetString("log.format"); format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("log.format: unknown format %q (want console or json)", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}
