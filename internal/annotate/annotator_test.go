package annotate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kunlinho/xsomatic/internal/evidence"
	"github.com/kunlinho/xsomatic/internal/ortholog"
	"github.com/kunlinho/xsomatic/internal/reconcile"
	"github.com/kunlinho/xsomatic/internal/record"
	"github.com/kunlinho/xsomatic/internal/refdata"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func loadReference(t *testing.T) *refdata.Reference {
	t.Helper()
	root := t.TempDir()
	layout := refdata.DefaultLayout(root)
	alignment := "Gene\tQueryIdx\tRefIdx\tQueryAA\tRefAA\n" +
		"TP53\t248\t242\tR\tR\n"
	correspondence := "TP53\tENST00000269305\tENSCAFT00000000001\n"
	for name, content := range map[string]string{
		refdata.PanCancer:         "Chrom\tPos\tRef\tAlt\nchr1\t500\tA\tT\n",
		refdata.CBioMutations:     "Gene\tMut_type\nTP53\tTP53_R248W,TP53_R248Q\n",
		refdata.CosmicMutations:   "Gene\tMut_type\nTP53\tTP53_R248L,TP53_R248W\n",
		refdata.CBioAlignment:     alignment,
		refdata.CosmicAlignment:   alignment,
		refdata.CBioTranscripts:   correspondence,
		refdata.CosmicTranscripts: correspondence,
		refdata.RetroGenes:        "ENSCAFG00000099999\n",
	} {
		writeFile(t, layout.Path(name), content)
	}

	ref, err := refdata.NewLoader(layout, ortholog.Human).Load(context.Background())
	require.NoError(t, err)
	return ref
}

func call(chrom, pos, ref, alt, depth string) string {
	return strings.Join([]string{chrom, pos, ".", ref, alt, "50", "PASS", ".", "GT:AD", "0/1:" + depth, "CMT-33"}, "\t") + "\n"
}

func annotation(line, chrom, pos, info, genes string) string {
	return strings.Join([]string{line, "nonsynonymous SNV", info, chrom, pos, pos, "-", "-",
		"het", ".", ".", ".", ".", genes, "CMT-33"}, "\t") + "\n"
}

func writeSample(t *testing.T) Input {
	t.Helper()
	dir := t.TempDir()
	calls := call("chr1", "500", "A", "T", "10,5") +
		call("chr5", "100", "C", "T", "12,8") +
		call("chr5", "200", "G", "A", "0,0") +
		call("chr5", "300", "C", "A", "3,1") +
		call("chr9", "10", "A", "G", "9,1")
	annotations := annotation("line1", "chr1", "500",
		"ENSCAFG00000000009:ENSCAFT00000000009:exon1:c.1A>T:p.M1L,", "FOO") +
		annotation("line2", "chr5", "100",
			"ENSCAFG00000000001:ENSCAFT00000000001:exon7:c.724C>T:p.R242W,ENSCAFG00000000001:ENSCAFT00000000002:exon7:c.724C>T:p.R242W,", "TP53") +
		annotation("line3", "chr5", "200",
			"ENSCAFG00000000001:ENSCAFT00000000001:exon8:c.800G>A:p.R267Q,", "TP53") +
		annotation("line4", "chr5", "300",
			"ENSCAFG00000000001:ENSCAFT00000000001:exon7:c.725G>T:p.R242L,", "TP53") +
		annotation("line5", "chr9", "10",
			"ENSCAFG00000000005:ENSCAFT00000000005:exon2:c.29T>A:p.V10E,ENSCAFG00000099999:ENSCAFT00000099999:exon1:c.2T>A:p.V1E,", "BRAF,RETRO1") +
		annotation("line6", "chr9", "99",
			"ENSCAFG00000000005:ENSCAFT00000000005:exon3:c.40T>A:p.V14E,", "BRAF")

	in := Input{
		VariantPath:    filepath.Join(dir, "calls.txt"),
		AnnotationPath: filepath.Join(dir, "annovar.txt"),
		Sample:         "CMT-33",
	}
	writeFile(t, in.VariantPath, calls)
	writeFile(t, in.AnnotationPath, annotations)
	return in
}

func TestAnnotate(t *testing.T) {
	a := NewAnnotator(loadReference(t), reconcile.DedupRow)
	a.SetLogger(zap.NewNop())

	res, err := a.Annotate(context.Background(), writeSample(t))
	require.NoError(t, err)

	var got []string
	for _, r := range res.Rows {
		got = append(got, r.TranscriptID+":"+r.Source.String())
	}
	assert.Equal(t, []string{
		"ENSCAFT00000000009:Pan-cancer",
		"ENSCAFT00000000001:C-bio",
		"ENSCAFT00000000001:Cosmic",
		"ENSCAFT00000000005:Remained",
	}, got)

	first := res.Rows[0]
	assert.Equal(t, "CMT-33", first.Sample)
	assert.Equal(t, 10, first.RefReads)
	assert.Equal(t, 5, first.AltReads)
	assert.InDelta(t, 1.0/3, first.VAF, 1e-12)
	assert.Equal(t, "A", first.Ref)
	assert.Equal(t, "T", first.Alt)

	assert.Equal(t, 5, res.Calls)
	assert.Equal(t, record.JoinStats{Joined: 4, Unmatched: 1, NoReadDepth: 1}, res.Join)
	assert.Equal(t, 1, res.Annotation.Excluded)
	assert.Equal(t, evidence.TranslationStats{
		"translated":                   3,
		"gene_absent_in_other_species": 1,
	}, res.Translation[record.SourceCBio])
	assert.NotContains(t, res.Translation, record.SourcePanCancer)
}

func TestAnnotate_TranslationStatsPerCall(t *testing.T) {
	a := NewAnnotator(loadReference(t), reconcile.DedupRow)
	in := writeSample(t)

	first, err := a.Annotate(context.Background(), in)
	require.NoError(t, err)
	second, err := a.Annotate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first.Translation, second.Translation)
}

func TestAnnotate_MissingInput(t *testing.T) {
	a := NewAnnotator(loadReference(t), reconcile.DedupRow)
	in := writeSample(t)
	in.VariantPath = filepath.Join(t.TempDir(), "missing.txt")

	_, err := a.Annotate(context.Background(), in)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnnotate_VariantWithoutProteinChange(t *testing.T) {
	dir := t.TempDir()
	in := Input{
		VariantPath:    filepath.Join(dir, "calls.txt"),
		AnnotationPath: filepath.Join(dir, "annovar.txt"),
		Sample:         "CMT-33",
	}
	writeFile(t, in.VariantPath,
		call("chr1", "500", "A", "T", "10,5")+call("chr3", "7", "G", "C", "4,4"))
	writeFile(t, in.AnnotationPath,
		annotation("line1", "chr1", "500", "UNKNOWN", "FOO")+
			annotation("line2", "chr3", "7", "UNKNOWN", "BAR"))

	res, err := NewAnnotator(loadReference(t), reconcile.DedupRow).Annotate(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	pan := res.Rows[0]
	assert.Equal(t, record.SourcePanCancer, pan.Source)
	assert.Equal(t, "chr1_500_A_T", pan.GenomicKey())
	assert.Empty(t, pan.TranscriptID)
	assert.Empty(t, pan.ProteinChange)

	assert.Equal(t, record.SourceRemained, res.Rows[1].Source)
	assert.Equal(t, "chr3_7_G_C", res.Rows[1].GenomicKey())
	assert.Equal(t, evidence.TranslationStats{"unsupported_mutation_kind": 1}, res.Translation[record.SourceCBio])
}
