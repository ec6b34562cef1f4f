package annovar

import (
	"fmt"
	"strings"

	"github.com/kunlinho/xsomatic/internal/tsv"
)

// GeneSet is a set of Ensembl gene IDs.
type GeneSet map[string]struct{}

// Contains reports whether id is in the set.
func (s GeneSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// LoadGeneSet reads a newline-delimited list of gene IDs, such as the
// retrogene exclusion list.
func LoadGeneSet(path string) (GeneSet, error) {
	f, err := tsv.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gene list: %w", err)
	}
	defer f.Close()

	set := make(GeneSet)
	scanner := tsv.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading gene list: %w", err)
	}
	return set, nil
}
