package rmsd

import (
	"fmt"
	"math"

	"github.com/xymeai/Scaffold-Lab/io/pdb"
)

// TMScore computes the template modeling score between two structures whose
// residues are in 1:1 correspondence (the designed backbone and its
// prediction share residue indexing, so no sequence alignment is needed).
//
// The search follows Zhang & Skolnick: seed fragments of decreasing length
// are superposed, the superposition is applied to the whole chain, and the
// pair set is iteratively re-selected under a distance cutoff, keeping the
// best score over all seeds. Scores are length-normalized into (0, 1]; 1.0
// means identical structures.
//
// Two scores are returned: the first normalized by the length of a, the
// second by the length of b. The inputs must have equal length, so the two
// normalizations use the same chain length; both are returned because
// callers conventionally record the second.
func TMScore(a, b []pdb.Coords) (float64, float64, error) {
	n := len(a)
	if n != len(b) {
		return 0, 0, fmt.Errorf("TM-score requires point sets of equal "+
			"length, but the lengths given are %d and %d.", n, len(b))
	}
	if n < 3 {
		return 0, 0, fmt.Errorf("TM-score requires at least 3 residue "+
			"pairs, but only %d were given.", n)
	}

	d0a := d0(len(a))
	d0b := d0(len(b))

	// Seed fragment lengths: the whole chain, then halving down to 4.
	lengths := []int{n}
	for l := n / 2; l >= 4; l /= 2 {
		lengths = append(lengths, l)
	}

	all := identityIndices(n)
	bestA, bestB := 0.0, 0.0
	dist := make([]float64, n)
	for _, l := range lengths {
		step := l / 2
		if step < 1 {
			step = 1
		}
		for start := 0; start+l <= n; start += step {
			sel := all[start : start+l]
			for iter := 0; iter < 20; iter++ {
				align, err := Kabsch(subset(a, sel), subset(b, sel))
				if err != nil {
					break
				}

				scoreA, scoreB := 0.0, 0.0
				for i := 0; i < n; i++ {
					p := align.Apply(a[i])
					dx := p.X - b[i].X
					dy := p.Y - b[i].Y
					dz := p.Z - b[i].Z
					dist[i] = math.Sqrt(dx*dx + dy*dy + dz*dz)
					scoreA += 1.0 / (1.0 + (dist[i]/d0a)*(dist[i]/d0a))
					scoreB += 1.0 / (1.0 + (dist[i]/d0b)*(dist[i]/d0b))
				}
				scoreA /= float64(len(a))
				scoreB /= float64(len(b))
				if scoreA > bestA {
					bestA = scoreA
				}
				if scoreB > bestB {
					bestB = scoreB
				}

				next := selectUnder(dist, d0a)
				if equalIndices(next, sel) || len(next) < 3 {
					break
				}
				sel = next
			}
		}
	}
	return bestA, bestB, nil
}

// d0 is the TM-score normalization distance for a chain of length l. Short
// chains are clamped at 0.5 angstroms.
func d0(l int) float64 {
	d := 1.24*math.Cbrt(float64(l)-15.0) - 1.8
	if d < 0.5 {
		return 0.5
	}
	return d
}

// selectUnder returns the indices of pairs closer than a cutoff, relaxing
// the cutoff until at least 3 pairs qualify (or the cutoff grows past 8
// angstroms, at which point whatever qualifies is returned).
func selectUnder(dist []float64, cutoff float64) []int {
	for {
		sel := make([]int, 0, len(dist))
		for i, d := range dist {
			if d < cutoff {
				sel = append(sel, i)
			}
		}
		if len(sel) >= 3 || cutoff > 8.0 {
			return sel
		}
		cutoff += 0.5
	}
}

func identityIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func subset(points []pdb.Coords, indices []int) []pdb.Coords {
	out := make([]pdb.Coords, len(indices))
	for i, idx := range indices {
		out[i] = points[idx]
	}
	return out
}

func equalIndices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
