// Package refdata locates and loads the reference tables one annotation
// run needs: the evidence databases, their alignments and transcript
// correspondences, and the retrogene list.
package refdata

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Names of the reference files, as used in configuration (data.<name>).
const (
	PanCancer         = "pan_cancer"
	CBioMutations     = "cbio_mutations"
	CosmicMutations   = "cosmic_mutations"
	CBioAlignment     = "cbio_alignment"
	CosmicAlignment   = "cosmic_alignment"
	CBioTranscripts   = "cbio_transcripts"
	CosmicTranscripts = "cosmic_transcripts"
	RetroGenes        = "retro_genes"
)

var defaultPaths = map[string]string{
	PanCancer:         "data_source/Ge2_Pass_QC_Pan_Cancer_Final_Mutect_annovar_include_syn_mutation_summary.txt",
	CBioMutations:     "data_source/all_studies_c-bio_portal_somatic_mutation.txt",
	CosmicMutations:   "data_source/GRCh37_V95_Cosmic_somatic_mutation.txt",
	CBioAlignment:     "data_source/c-bio_Human_GR37_103_canine_3.199_sequenceAlignment.txt",
	CosmicAlignment:   "data_source/COSMIC_V95_Human_GR37_93_canine_3.199_sequenceAlignment.txt",
	CBioTranscripts:   "data_source/c_bioportal_Human_GR37_103_dog_transcript_3.199.txt",
	CosmicTranscripts: "data_source/COSMIC_Human_GR37_V95_93_dog_transcript_3.199.txt",
	RetroGenes:        "data_source/retro_gene_list.txt",
}

// File is one named reference file.
type File struct {
	Name string
	Path string
}

// Layout maps reference file names to paths. Relative paths are resolved
// against the data root.
type Layout struct {
	root  string
	paths map[string]string
}

// DefaultLayout returns the standard data_source layout under root.
func DefaultLayout(root string) *Layout {
	paths := make(map[string]string, len(defaultPaths))
	for name, p := range defaultPaths {
		paths[name] = p
	}
	return &Layout{root: root, paths: paths}
}

// Set overrides the path of the named file.
func (l *Layout) Set(name, path string) error {
	if _, ok := defaultPaths[name]; !ok {
		return fmt.Errorf("unknown reference file %q", name)
	}
	l.paths[name] = path
	return nil
}

// Path returns the resolved path of the named file.
func (l *Layout) Path(name string) string {
	p, ok := l.paths[name]
	if !ok {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.root, p)
}

// Files returns every reference file, sorted by name.
func (l *Layout) Files() []File {
	files := make([]File, 0, len(l.paths))
	for name := range l.paths {
		files = append(files, File{Name: name, Path: l.Path(name)})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files
}

// Names returns the known reference file names, sorted.
func Names() []string {
	names := make([]string, 0, len(defaultPaths))
	for name := range defaultPaths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
