package rmsd

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xymeai/Scaffold-Lab/io/pdb"
)

// traceEntry builds a PDB entry holding one chain of CA atoms along the
// synthetic curve, with residue numbers starting at startNum.
func traceEntry(t *testing.T, chain byte, startNum int, points []pdb.Coords) *pdb.Entry {
	t.Helper()
	var b strings.Builder
	for i, p := range points {
		fmt.Fprintf(&b,
			"ATOM  %5d  CA  GLY %c%4d    %8.3f%8.3f%8.3f\n",
			i+1, chain, startNum+i, p.X, p.Y, p.Z)
	}
	entry, err := pdb.ReadFrom(strings.NewReader(b.String()))
	require.NoError(t, err)
	return entry
}

func TestPDBRanges(t *testing.T) {
	points := curve(20)
	entry1 := traceEntry(t, 'A', 1, points)
	entry2 := traceEntry(t, 'B', 101, transform(points))

	// The same trace under a rigid transform: zero RMSD, perfect TM-score.
	rms, tm, err := PDB(entry1, 'A', 1, 20, entry2, 'B', 101, 120)
	require.NoError(t, err)
	require.InDelta(t, 0.0, rms, 1e-8)
	require.InDelta(t, 1.0, tm, 1e-8)

	// A sub-range against its transformed counterpart.
	rms, _, err = PDB(entry1, 'A', 5, 12, entry2, 'B', 105, 112)
	require.NoError(t, err)
	require.InDelta(t, 0.0, rms, 1e-8)
}

func TestPDBErrors(t *testing.T) {
	points := curve(10)
	entry1 := traceEntry(t, 'A', 1, points)
	entry2 := traceEntry(t, 'B', 1, points)

	// Unknown chain.
	_, _, err := PDB(entry1, 'C', 1, 10, entry2, 'B', 1, 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), "'C'")

	// Empty range.
	_, _, err = PDB(entry1, 'A', 900, 910, entry2, 'B', 1, 10)
	require.Error(t, err)
	require.Contains(t, err.Error(), "900-910")

	// Ranges of different sizes.
	_, _, err = PDB(entry1, 'A', 1, 10, entry2, 'B', 1, 5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "same number")
}
