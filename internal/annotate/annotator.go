// Package annotate runs one sample through the annotation pipeline: parse
// the variant calls and their transcript annotations, join them, and label
// every transcript row with the evidence that documents it.
package annotate

import (
	"context"
	"fmt"
	"maps"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kunlinho/xsomatic/internal/annovar"
	"github.com/kunlinho/xsomatic/internal/evidence"
	"github.com/kunlinho/xsomatic/internal/gatk"
	"github.com/kunlinho/xsomatic/internal/reconcile"
	"github.com/kunlinho/xsomatic/internal/record"
	"github.com/kunlinho/xsomatic/internal/refdata"
)

// Input names the files of one sample.
type Input struct {
	VariantPath    string // GATK variant-call table
	AnnotationPath string // Annovar exonic variant function table
	Sample         string
}

// Result is the outcome of one Annotate call.
type Result struct {
	Rows        []*record.Row
	Calls       int
	Annotation  annovar.Stats
	Join        record.JoinStats
	Reconcile   reconcile.Stats
	Translation map[record.Source]evidence.TranslationStats
}

// Annotator labels the variants of a sample against loaded reference data.
// It is not safe for concurrent use.
type Annotator struct {
	ref    *refdata.Reference
	policy reconcile.Policy
	logger *zap.Logger
}

// NewAnnotator creates a new annotator over ref.
func NewAnnotator(ref *refdata.Reference, policy reconcile.Policy) *Annotator {
	return &Annotator{
		ref:    ref,
		policy: policy,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and info messages.
func (a *Annotator) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Annotate reads the sample's input files and returns its labelled rows.
func (a *Annotator) Annotate(ctx context.Context, in Input) (*Result, error) {
	var (
		calls     []*gatk.Call
		recs      []*annovar.Record
		annoStats annovar.Stats
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		calls, err = readCalls(in.VariantPath)
		return err
	})
	g.Go(func() error {
		var err error
		recs, annoStats, err = readAnnotations(in.AnnotationPath, a.ref.RetroGenes)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if annoStats.Mismatched > 0 {
		a.logger.Warn("skipped annotations with unpaired transcript lists",
			zap.String("sample", in.Sample),
			zap.Int("records", annoStats.Mismatched))
	}

	variants, joinStats := record.Join(calls, recs, in.Sample)
	a.logger.Info("joined variant calls",
		zap.String("sample", in.Sample),
		zap.Int("calls", len(calls)),
		zap.Int("annotations", len(recs)),
		zap.Int("joined", joinStats.Joined),
		zap.Int("unmatched", joinStats.Unmatched),
		zap.Int("no_read_depth", joinStats.NoReadDepth),
		zap.Int("excluded_transcripts", annoStats.Excluded))

	tiers := a.ref.Tiers()
	matchers := make([]reconcile.Matcher, len(tiers))
	before := make(map[record.Source]evidence.TranslationStats, len(tiers))
	for i, db := range tiers {
		matchers[i] = db
		if tr, ok := db.Strategy().(*evidence.Translate); ok {
			before[db.Source()] = maps.Clone(tr.Stats())
		}
	}

	rc := reconcile.New(a.policy, matchers...)
	rc.SetLogger(a.logger)
	rows := rc.Reconcile(record.Expand(variants))

	translation := make(map[record.Source]evidence.TranslationStats, len(before))
	for _, db := range tiers {
		tr, ok := db.Strategy().(*evidence.Translate)
		if !ok {
			continue
		}
		delta := make(evidence.TranslationStats)
		for k, n := range tr.Stats() {
			if d := n - before[db.Source()][k]; d > 0 {
				delta[k] = d
			}
		}
		translation[db.Source()] = delta
		for k, n := range delta {
			a.logger.Debug("translation outcome",
				zap.String("sample", in.Sample),
				zap.Stringer("source", db.Source()),
				zap.String("outcome", k),
				zap.Int("rows", n))
		}
	}

	return &Result{
		Rows:        rows,
		Calls:       len(calls),
		Annotation:  annoStats,
		Join:        joinStats,
		Reconcile:   rc.Stats(),
		Translation: translation,
	}, nil
}

func readCalls(path string) ([]*gatk.Call, error) {
	p, err := gatk.NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	calls, err := p.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading variant calls %s: %w", path, err)
	}
	return calls, nil
}

func readAnnotations(path string, retro annovar.GeneSet) ([]*annovar.Record, annovar.Stats, error) {
	p, err := annovar.NewParser(path)
	if err != nil {
		return nil, annovar.Stats{}, err
	}
	defer p.Close()
	p.SetExcludedGenes(retro)

	recs, err := p.ReadAll()
	if err != nil {
		return nil, annovar.Stats{}, fmt.Errorf("reading annotations %s: %w", path, err)
	}
	return recs, p.Stats(), nil
}
