package annovar

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMismatchedAnnotation is returned when the gene, transcript and protein
// change lists of an annotation string cannot be paired one to one.
var ErrMismatchedAnnotation = errors.New("mismatched transcript annotation")

// Transcript is one transcript-level consequence of a variant.
type Transcript struct {
	GeneName      string // Gene symbol
	GeneID        string // Ensembl gene ID
	TranscriptID  string // Ensembl transcript ID
	ProteinChange string // One-letter protein change without "p.", e.g. G255fs
}

var (
	geneIDPattern        = regexp.MustCompile(`(ENS[A-Z]*G\d+)(?:\.\d+)?:`)
	transcriptIDPattern  = regexp.MustCompile(`(ENS[A-Z]*T\d+)(?:\.\d+)?:`)
	proteinChangePattern = regexp.MustCompile(`p\.([A-Za-z0-9_.*-]*),`)
)

func submatches(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

// ExtractTranscripts pairs the transcripts of an annotation string such as
//
//	ENSCAFG00000023363:ENSCAFT00000000040:exon7:c.762dupA:p.G255fs,
//
// with the comma-separated gene names of the same row. Gene IDs, transcript
// IDs and protein changes must occur equally often. geneNames must list one
// name per transcript, or a single name shared by all of them.
func ExtractTranscripts(info, geneNames string) ([]Transcript, error) {
	geneIDs := submatches(geneIDPattern, info)
	transcriptIDs := submatches(transcriptIDPattern, info)
	changes := submatches(proteinChangePattern, info)

	n := len(transcriptIDs)
	if len(geneIDs) != n || len(changes) != n {
		return nil, ErrMismatchedAnnotation
	}
	if n == 0 {
		return nil, nil
	}

	names := strings.Split(geneNames, ",")
	switch len(names) {
	case n:
	case 1:
		shared := names[0]
		names = make([]string, n)
		for i := range names {
			names[i] = shared
		}
	default:
		return nil, ErrMismatchedAnnotation
	}

	out := make([]Transcript, n)
	for i := range out {
		out[i] = Transcript{
			GeneName:      strings.TrimSpace(names[i]),
			GeneID:        geneIDs[i],
			TranscriptID:  transcriptIDs[i],
			ProteinChange: changes[i],
		}
	}
	return out, nil
}
