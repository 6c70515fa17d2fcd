package rmsd

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/xymeai/Scaffold-Lab/io/pdb"
)

// Alignment is the result of superposing a moving set of coordinates onto a
// fixed set: a proper rotation (determinant +1), a translation, and the RMSD
// of the superposed pairs.
type Alignment struct {
	Rotation    [3][3]float64
	Translation [3]float64
	RMSD        float64
}

// Apply maps a point through the alignment's rotation and translation.
func (a Alignment) Apply(p pdb.Coords) pdb.Coords {
	r, t := a.Rotation, a.Translation
	return pdb.Coords{
		X: r[0][0]*p.X + r[0][1]*p.Y + r[0][2]*p.Z + t[0],
		Y: r[1][0]*p.X + r[1][1]*p.Y + r[1][2]*p.Z + t[1],
		Z: r[2][0]*p.X + r[2][1]*p.Y + r[2][2]*p.Z + t[2],
	}
}

// Kabsch computes the optimal rigid-body superposition of moving onto fixed.
//
// A brief, high-level overview:
//
// Center both point sets by subtracting their centroids.
//
// Compute the 3x3 cross-covariance matrix H between the centered sets.
//
// Compute the SVD (Singular Value Decomposition) of H = U S V^T.
//
// The optimal rotation is R = V U^T. When det(R) < 0 the decomposition has
// produced an improper rotation (a reflection); negating the last column of
// V makes it proper. A reflection must never be returned, since protein
// backbones are chiral.
//
// The translation maps the rotated moving centroid onto the fixed centroid.
//
// Both point sets must have equal length N with N >= 3; anything else is an
// error, since fewer than 3 pairs leaves the rotation ill-conditioned.
func Kabsch(moving, fixed []pdb.Coords) (Alignment, error) {
	n := len(moving)
	if n != len(fixed) {
		return Alignment{}, fmt.Errorf("Superposition requires point sets "+
			"of equal length, but the lengths given are %d and %d.",
			n, len(fixed))
	}
	if n < 3 {
		return Alignment{}, fmt.Errorf("Superposition requires at least 3 "+
			"atom pairs, but only %d were given.", n)
	}

	cm := centroid(moving)
	cf := centroid(fixed)

	// H[i][j] = sum over atoms of moving_i * fixed_j (centered).
	h := make([]float64, 9)
	for k := 0; k < n; k++ {
		m := [3]float64{moving[k].X - cm[0], moving[k].Y - cm[1], moving[k].Z - cm[2]}
		f := [3]float64{fixed[k].X - cf[0], fixed[k].Y - cf[1], fixed[k].Z - cf[2]}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				h[i*3+j] += m[i] * f[j]
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(3, 3, h), mat.SVDFull); !ok {
		return Alignment{}, fmt.Errorf("Singular value decomposition of the " +
			"covariance matrix failed to converge.")
	}
	var u, v, r mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	r.Mul(&v, u.T())
	if mat.Det(&r) < 0 {
		for i := 0; i < 3; i++ {
			v.Set(i, 2, -v.At(i, 2))
		}
		r.Mul(&v, u.T())
	}

	var align Alignment
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			align.Rotation[i][j] = r.At(i, j)
		}
		align.Translation[i] = cf[i] -
			(align.Rotation[i][0]*cm[0] +
				align.Rotation[i][1]*cm[1] +
				align.Rotation[i][2]*cm[2])
	}

	sum := 0.0
	for k := 0; k < n; k++ {
		p := align.Apply(moving[k])
		dx := p.X - fixed[k].X
		dy := p.Y - fixed[k].Y
		dz := p.Z - fixed[k].Z
		sum += dx*dx + dy*dy + dz*dz
	}
	align.RMSD = math.Sqrt(sum / float64(n))
	return align, nil
}

// AlignedRMSD superposes moving onto fixed and returns the RMSD of the
// superposed pairs. The same code path serves whole backbones and motif
// subsets.
func AlignedRMSD(moving, fixed []pdb.Coords) (float64, error) {
	align, err := Kabsch(moving, fixed)
	if err != nil {
		return 0, err
	}
	return align.RMSD, nil
}

// centroid calculates the average position of a set of atoms.
func centroid(atoms []pdb.Coords) [3]float64 {
	var xs, ys, zs float64
	for _, a := range atoms {
		xs += a.X
		ys += a.Y
		zs += a.Z
	}
	n := float64(len(atoms))
	return [3]float64{xs / n, ys / n, zs / n}
}
