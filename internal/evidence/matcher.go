package evidence

import (
	"go.uber.org/zap"

	"github.com/kunlinho/xsomatic/internal/ortholog"
	"github.com/kunlinho/xsomatic/internal/record"
)

// Strategy derives the key a row is looked up by in a database.
type Strategy interface {
	Name() string
	Key(r *record.Row) (string, bool)
}

// GenomicKey matches rows by chrom_start_ref_alt.
type GenomicKey struct{}

func (GenomicKey) Name() string { return "coordinate" }

// Key returns the row's genomic key.
func (GenomicKey) Key(r *record.Row) (string, bool) {
	return r.GenomicKey(), true
}

// TranslationStats counts translation outcomes by outcome or reason name.
type TranslationStats map[string]int

// Translate matches rows by the notation of their protein change in the
// other species.
type Translate struct {
	translator *ortholog.Translator
	target     ortholog.Species
	stats      TranslationStats
	logger     *zap.Logger
}

// NewTranslate creates a strategy translating into target's coordinates.
func NewTranslate(tr *ortholog.Translator, target ortholog.Species) *Translate {
	return &Translate{
		translator: tr,
		target:     target,
		stats:      make(TranslationStats),
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for per-row debug messages.
func (t *Translate) SetLogger(l *zap.Logger) {
	t.logger = l
}

func (t *Translate) Name() string { return "translate_to_" + t.target.String() }

// Counterpart translates the row's protein change.
func (t *Translate) Counterpart(r *record.Row) ortholog.Result {
	m, ok := ortholog.ParseProteinChange(r.ProteinChange)
	if !ok {
		t.logger.Debug("unsupported protein change",
			zap.String("sample", r.Sample),
			zap.String("gene", r.GeneName),
			zap.String("change", r.ProteinChange))
		return ortholog.Result{Outcome: ortholog.NoCounterpart, Reason: ortholog.UnsupportedMutationKind}
	}
	m.Gene = r.GeneName
	return t.translator.Translate(m, t.target)
}

// Key returns the translated notation of the row, if it has one.
func (t *Translate) Key(r *record.Row) (string, bool) {
	res := t.Counterpart(r)
	if res.Outcome == ortholog.NoCounterpart {
		t.stats[res.Reason.String()]++
	} else {
		t.stats[res.Outcome.String()]++
	}
	return res.Matchable()
}

// Stats returns the outcome counts of every Key call so far.
func (t *Translate) Stats() TranslationStats {
	return t.stats
}

// Database is one reference mutation source.
type Database struct {
	source      record.Source
	strategy    Strategy
	keys        Set
	transcripts Set
}

// NewCoordinateDatabase matches rows whose genomic key is in keys.
func NewCoordinateDatabase(source record.Source, keys Set) *Database {
	return NewDatabase(source, GenomicKey{}, keys, nil)
}

// NewTranslatedDatabase matches rows whose protein change, translated into
// target's coordinates, is in mutations. The row's transcript must also be
// listed for the row's gene in the transcript correspondence table.
func NewTranslatedDatabase(source record.Source, tr *ortholog.Translator, target ortholog.Species, mutations Set, correspondence []Correspondence) *Database {
	return NewDatabase(source, NewTranslate(tr, target), mutations, DogTranscripts(correspondence))
}

// NewDatabase assembles a database from its parts. transcripts holds
// TranscriptKey pairs; a nil set disables the transcript check.
func NewDatabase(source record.Source, strategy Strategy, keys, transcripts Set) *Database {
	return &Database{source: source, strategy: strategy, keys: keys, transcripts: transcripts}
}

// Source returns the label rows matched by d receive.
func (d *Database) Source() record.Source {
	return d.source
}

// Strategy returns the key strategy of d.
func (d *Database) Strategy() Strategy {
	return d.strategy
}

// Size returns the number of keys in d.
func (d *Database) Size() int {
	return len(d.keys)
}

// Match reports whether r is documented in d.
func (d *Database) Match(r *record.Row) bool {
	key, ok := d.strategy.Key(r)
	if !ok {
		return false
	}
	if d.transcripts != nil && !d.transcripts.Contains(TranscriptKey(r.GeneName, r.TranscriptID)) {
		return false
	}
	return d.keys.Contains(key)
}
