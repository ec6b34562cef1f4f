package ortholog

// standardResidues holds the single-letter codes accepted on either side
// of a translation: the 20 standard amino acids plus the catch-all X.
var standardResidues = func() [256]bool {
	var set [256]bool
	for _, c := range []byte("ARNDCEQGHILKMFPSTWYVX") {
		set[c] = true
	}
	return set
}()

// IsStandardResidue reports whether code is a single standard residue code.
// Lower-case codes are accepted.
func IsStandardResidue(code string) bool {
	if len(code) != 1 {
		return false
	}
	c := code[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return standardResidues[c]
}
