package refdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunlinho/xsomatic/internal/ortholog"
	"github.com/kunlinho/xsomatic/internal/record"
)

// writeFixtures writes a minimal reference data set under root.
func writeFixtures(t *testing.T, root string) {
	t.Helper()
	alignment := "Gene\tQueryIdx\tRefIdx\tQueryAA\tRefAA\n" +
		"TP53\t248\t242\tR\tR\n"
	files := map[string]string{
		PanCancer:         "Chrom\tPos\tRef\tAlt\nchr1\t500\tA\tT\n",
		CBioMutations:     "Gene\tMut_type\nTP53\tTP53_R248W,TP53_R248Q\n",
		CosmicMutations:   "Gene\tMut_type\nTP53\tTP53_R248L\n",
		CBioAlignment:     alignment,
		CosmicAlignment:   alignment,
		CBioTranscripts:   "TP53\tENST00000269305\tENSCAFT00000026465\n",
		CosmicTranscripts: "TP53\tENST00000269305\tENSCAFT00000026465\n",
		RetroGenes:        "ENSCAFG00000099999\n",
	}
	layout := DefaultLayout(root)
	for name, content := range files {
		path := layout.Path(name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestLayout(t *testing.T) {
	layout := DefaultLayout("/data")
	assert.Equal(t, "/data/data_source/retro_gene_list.txt", layout.Path(RetroGenes))
	assert.Equal(t, "", layout.Path("nope"))

	require.NoError(t, layout.Set(RetroGenes, "/elsewhere/retro.txt"))
	assert.Equal(t, "/elsewhere/retro.txt", layout.Path(RetroGenes))
	require.NoError(t, layout.Set(PanCancer, "pan.txt"))
	assert.Equal(t, "/data/pan.txt", layout.Path(PanCancer))

	assert.Error(t, layout.Set("nope", "x"))

	files := layout.Files()
	require.Len(t, files, len(Names()))
	assert.Equal(t, CBioAlignment, files[0].Name)
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	writeFixtures(t, root)

	ref, err := NewLoader(DefaultLayout(root), ortholog.Human).Load(context.Background())
	require.NoError(t, err)

	tiers := ref.Tiers()
	require.Len(t, tiers, 3)
	assert.Equal(t, record.SourcePanCancer, tiers[0].Source())
	assert.Equal(t, record.SourceCBio, tiers[1].Source())
	assert.Equal(t, record.SourceCosmic, tiers[2].Source())
	assert.Equal(t, 1, ref.PanCancer.Size())
	assert.Equal(t, 2, ref.CBio.Size())
	assert.True(t, ref.RetroGenes.Contains("ENSCAFG00000099999"))
	assert.Len(t, ref.Files, 8)

	row := &record.Row{Fields: record.Fields{
		GeneName: "TP53", TranscriptID: "ENSCAFT00000026465", ProteinChange: "R242W",
	}}
	assert.True(t, ref.CBio.Match(row))
	assert.False(t, ref.Cosmic.Match(row))
}

func TestLoad_Missing(t *testing.T) {
	root := t.TempDir()
	writeFixtures(t, root)
	layout := DefaultLayout(root)
	require.NoError(t, os.Remove(layout.Path(CosmicTranscripts)))

	_, err := NewLoader(layout, ortholog.Human).Load(context.Background())
	require.Error(t, err)
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, CosmicTranscripts, missing.Name)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Canceled(t *testing.T) {
	root := t.TempDir()
	writeFixtures(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLoader(DefaultLayout(root), ortholog.Human).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
