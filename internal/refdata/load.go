package refdata

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kunlinho/xsomatic/internal/annovar"
	"github.com/kunlinho/xsomatic/internal/evidence"
	"github.com/kunlinho/xsomatic/internal/ortholog"
	"github.com/kunlinho/xsomatic/internal/record"
)

// MissingError reports a reference file that could not be loaded.
type MissingError struct {
	Name string
	Path string
	Err  error
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("reference data %s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *MissingError) Unwrap() error {
	return e.Err
}

// Reference is the immutable reference data of one run.
type Reference struct {
	PanCancer *evidence.Database
	CBio      *evidence.Database
	Cosmic    *evidence.Database

	RetroGenes annovar.GeneSet
	Files      []File
}

// Tiers returns the evidence databases in priority order.
func (r *Reference) Tiers() []*evidence.Database {
	return []*evidence.Database{r.PanCancer, r.CBio, r.Cosmic}
}

// Loader reads a Layout into a Reference.
type Loader struct {
	layout *Layout
	target ortholog.Species
	logger *zap.Logger
}

// NewLoader creates a loader whose translated databases map dog protein
// changes into target's coordinates.
func NewLoader(layout *Layout, target ortholog.Species) *Loader {
	return &Loader{layout: layout, target: target, logger: zap.NewNop()}
}

// SetLogger sets the logger.
func (l *Loader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load reads every reference file concurrently. The first failure cancels
// the remaining loads and is returned as a *MissingError.
func (l *Loader) Load(ctx context.Context) (*Reference, error) {
	var (
		pan, cbioMuts, cosmicMuts evidence.Set
		cbioIdx, cosmicIdx        *ortholog.Index
		cbioTx, cosmicTx          []evidence.Correspondence
		retro                     annovar.GeneSet
	)

	g, gctx := errgroup.WithContext(ctx)
	spawn := func(name string, load func(path string) (int, error)) {
		path := l.layout.Path(name)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			n, err := load(path)
			if err != nil {
				return &MissingError{Name: name, Path: path, Err: err}
			}
			l.logger.Info("loaded reference file",
				zap.String("name", name),
				zap.String("path", path),
				zap.Int("entries", n),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		})
	}

	spawn(PanCancer, func(p string) (n int, err error) {
		pan, err = evidence.LoadCoordinateSet(p)
		return len(pan), err
	})
	spawn(CBioMutations, func(p string) (n int, err error) {
		cbioMuts, err = evidence.LoadMutationSet(p)
		return len(cbioMuts), err
	})
	spawn(CosmicMutations, func(p string) (n int, err error) {
		cosmicMuts, err = evidence.LoadMutationSet(p)
		return len(cosmicMuts), err
	})
	spawn(CBioAlignment, func(p string) (n int, err error) {
		cbioIdx, err = ortholog.LoadIndex(p)
		if err != nil {
			return 0, err
		}
		return cbioIdx.GeneCount(), nil
	})
	spawn(CosmicAlignment, func(p string) (n int, err error) {
		cosmicIdx, err = ortholog.LoadIndex(p)
		if err != nil {
			return 0, err
		}
		return cosmicIdx.GeneCount(), nil
	})
	spawn(CBioTranscripts, func(p string) (n int, err error) {
		cbioTx, err = evidence.LoadCorrespondence(p)
		return len(cbioTx), err
	})
	spawn(CosmicTranscripts, func(p string) (n int, err error) {
		cosmicTx, err = evidence.LoadCorrespondence(p)
		return len(cosmicTx), err
	})
	spawn(RetroGenes, func(p string) (n int, err error) {
		retro, err = annovar.LoadGeneSet(p)
		return len(retro), err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	cbio := evidence.NewTranslatedDatabase(record.SourceCBio,
		ortholog.NewTranslator(cbioIdx), l.target, cbioMuts, cbioTx)
	cosmic := evidence.NewTranslatedDatabase(record.SourceCosmic,
		ortholog.NewTranslator(cosmicIdx), l.target, cosmicMuts, cosmicTx)
	for _, db := range []*evidence.Database{cbio, cosmic} {
		if tr, ok := db.Strategy().(*evidence.Translate); ok {
			tr.SetLogger(l.logger)
		}
	}

	ref := &Reference{
		PanCancer:  evidence.NewCoordinateDatabase(record.SourcePanCancer, pan),
		CBio:       cbio,
		Cosmic:     cosmic,
		RetroGenes: retro,
		Files:      l.layout.Files(),
	}
	for _, db := range ref.Tiers() {
		l.logger.Info("evidence database ready",
			zap.Stringer("source", db.Source()),
			zap.String("strategy", db.Strategy().Name()),
			zap.Int("keys", db.Size()))
	}
	return ref, nil
}
