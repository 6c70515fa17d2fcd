package rmsd

import (
	"fmt"

	"github.com/xymeai/Scaffold-Lab/io/pdb"
)

// PDB is a convenience function for comparing two sets of residues, where
// each set is taken from a chain of a PDB entry. Only carbon-alpha atoms are
// used. It returns the aligned RMSD between the sets and the TM-score
// normalized by the length of the second set.
//
// Each set of atoms is specified by a four-tuple: a PDB entry, a chain
// identifier, and the start and end residue numbers to use as a range.
// (Where the range is inclusive.)
//
// An error is returned if chainId{1,2} does not correspond to a chain in
// entry{1,2}, if a range contains no carbon-alpha atoms, or if the two
// ranges do not correspond to precisely the same number of carbon-alpha
// atoms.
func PDB(entry1 *pdb.Entry, chainId1 byte, start1, end1 int,
	entry2 *pdb.Entry, chainId2 byte, start2, end2 int) (float64, float64, error) {

	struct1, err := rangeCas(entry1, chainId1, start1, end1)
	if err != nil {
		return 0, 0, err
	}
	struct2, err := rangeCas(entry2, chainId2, start2, end2)
	if err != nil {
		return 0, 0, err
	}

	if len(struct1) != len(struct2) {
		return 0, 0, fmt.Errorf("The range '%d-%d' (%d ATOM records for chain "+
			"%c in %s) does not correspond to the same number of carbon-alpha "+
			"atoms as the range '%d-%d' (%d ATOM records for chain %c in %s). "+
			"It is possible that a PDB file does not contain a carbon-alpha "+
			"atom for every residue index in the ranges.",
			start1, end1, len(struct1), chainId1, entry1.Name(),
			start2, end2, len(struct2), chainId2, entry2.Name())
	}

	rms, err := AlignedRMSD(struct1, struct2)
	if err != nil {
		return 0, 0, err
	}
	_, tm, err := TMScore(struct1, struct2)
	if err != nil {
		return 0, 0, err
	}
	return rms, tm, nil
}

// rangeCas picks the carbon-alpha atoms of a chain with residue numbers in
// the inclusive range [start, end].
func rangeCas(entry *pdb.Entry, chainId byte, start, end int) ([]pdb.Coords, error) {
	chain := entry.Chain(chainId)
	if chain == nil {
		return nil, fmt.Errorf("The chain '%c' could not be found in '%s'.",
			chainId, entry.Name())
	}
	cas := make([]pdb.Coords, 0, end-start+1)
	for _, r := range chain.Residues {
		if r.SeqNum < start || r.SeqNum > end {
			continue
		}
		if ca, ok := r.Ca(); ok {
			cas = append(cas, ca)
		}
	}
	if len(cas) == 0 {
		return nil, fmt.Errorf("The range '%d-%d' (for chain %c in %s) does "+
			"not correspond to any carbon-alpha ATOM records.",
			start, end, chainId, entry.Name())
	}
	return cas, nil
}
