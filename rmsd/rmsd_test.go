package rmsd

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xymeai/Scaffold-Lab/io/pdb"
)

func atom(x, y, z float64) pdb.Coords {
	return pdb.Coords{X: x, Y: y, Z: z}
}

func ExampleAlignedRMSD() {
	moving := []pdb.Coords{
		atom(-2.803, -15.373, 24.556),
		atom(0.893, -16.062, 25.147),
		atom(1.368, -12.371, 25.885),
		atom(-1.651, -12.153, 28.177),
		atom(-0.440, -15.218, 30.068),
		atom(2.551, -13.273, 31.372),
		atom(0.105, -11.330, 33.567),
	}
	fixed := []pdb.Coords{
		atom(-14.739, -18.673, 15.040),
		atom(-12.473, -15.810, 16.074),
		atom(-14.802, -13.307, 14.408),
		atom(-17.782, -14.852, 16.171),
		atom(-16.124, -14.617, 19.584),
		atom(-15.029, -11.037, 18.902),
		atom(-18.577, -10.001, 17.996),
	}
	rms, err := AlignedRMSD(moving, fixed)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("RMSD: %f\n", rms)
	// Output:
	// RMSD: 0.719106
}

// curve generates a non-degenerate synthetic backbone trace of n points.
func curve(n int) []pdb.Coords {
	points := make([]pdb.Coords, n)
	for i := range points {
		f := float64(i)
		points[i] = pdb.Coords{
			X: 1.5 * f,
			Y: 2.0 * math.Sin(0.7*f),
			Z: 2.0 * math.Cos(0.3*f),
		}
	}
	return points
}

func rotateZ(p pdb.Coords, angle float64) pdb.Coords {
	sin, cos := math.Sincos(angle)
	return pdb.Coords{
		X: cos*p.X - sin*p.Y,
		Y: sin*p.X + cos*p.Y,
		Z: p.Z,
	}
}

func rotateX(p pdb.Coords, angle float64) pdb.Coords {
	sin, cos := math.Sincos(angle)
	return pdb.Coords{
		X: p.X,
		Y: cos*p.Y - sin*p.Z,
		Z: sin*p.Y + cos*p.Z,
	}
}

// transform applies a fixed rigid transform (two rotations and a
// translation) to every point.
func transform(points []pdb.Coords) []pdb.Coords {
	out := make([]pdb.Coords, len(points))
	for i, p := range points {
		q := rotateX(rotateZ(p, 1.1), -0.6)
		out[i] = pdb.Coords{X: q.X + 4.0, Y: q.Y - 7.5, Z: q.Z + 2.25}
	}
	return out
}

func mirror(points []pdb.Coords) []pdb.Coords {
	out := make([]pdb.Coords, len(points))
	for i, p := range points {
		out[i] = pdb.Coords{X: -p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

func det3(r [3][3]float64) float64 {
	return r[0][0]*(r[1][1]*r[2][2]-r[1][2]*r[2][1]) -
		r[0][1]*(r[1][0]*r[2][2]-r[1][2]*r[2][0]) +
		r[0][2]*(r[1][0]*r[2][1]-r[1][1]*r[2][0])
}

func TestKabschIdentity(t *testing.T) {
	points := curve(25)
	align, err := Kabsch(points, points)
	require.NoError(t, err)
	require.InDelta(t, 0.0, align.RMSD, 1e-9)
	require.InDelta(t, 1.0, det3(align.Rotation), 1e-9)
	for i := 0; i < 3; i++ {
		require.InDelta(t, 0.0, align.Translation[i], 1e-8)
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			require.InDelta(t, want, align.Rotation[i][j], 1e-9)
		}
	}
}

func TestKabschTranslation(t *testing.T) {
	moving := curve(10)
	fixed := make([]pdb.Coords, len(moving))
	for i, p := range moving {
		fixed[i] = pdb.Coords{X: p.X + 5, Y: p.Y + 5, Z: p.Z + 5}
	}
	align, err := Kabsch(moving, fixed)
	require.NoError(t, err)
	require.InDelta(t, 0.0, align.RMSD, 1e-9)
	for i := 0; i < 3; i++ {
		require.InDelta(t, 5.0, align.Translation[i], 1e-8)
	}
}

func TestKabschRigidInvariance(t *testing.T) {
	moving := curve(40)
	fixed := transform(moving)

	align, err := Kabsch(moving, fixed)
	require.NoError(t, err)
	require.InDelta(t, 0.0, align.RMSD, 1e-8)
	require.InDelta(t, 1.0, det3(align.Rotation), 1e-9)

	// The alignment maps each moving point onto its fixed partner.
	for i, p := range moving {
		q := align.Apply(p)
		require.InDelta(t, fixed[i].X, q.X, 1e-7)
		require.InDelta(t, fixed[i].Y, q.Y, 1e-7)
		require.InDelta(t, fixed[i].Z, q.Z, 1e-7)
	}
}

func TestKabschNeverReflects(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 25; trial++ {
		moving := make([]pdb.Coords, 12)
		for i := range moving {
			moving[i] = pdb.Coords{
				X: rng.NormFloat64() * 5,
				Y: rng.NormFloat64() * 5,
				Z: rng.NormFloat64() * 5,
			}
		}
		// A mirror image is the worst case: the best improper "rotation"
		// would superpose it exactly, and must not be chosen.
		align, err := Kabsch(moving, mirror(moving))
		require.NoError(t, err)
		require.InDelta(t, 1.0, det3(align.Rotation), 1e-9)
		require.Greater(t, align.RMSD, 0.0)
	}
}

func TestKabschKnownRMSD(t *testing.T) {
	// Two squares in the XY plane differing only in scale: the optimal
	// rotation is the identity, and every pair is exactly 1 apart.
	moving := []pdb.Coords{
		{X: 1}, {X: -1}, {Y: 1}, {Y: -1},
	}
	fixed := []pdb.Coords{
		{X: 2}, {X: -2}, {Y: 2}, {Y: -2},
	}
	got, err := AlignedRMSD(moving, fixed)
	require.NoError(t, err)
	require.InDelta(t, 1.0, got, 1e-9)
}

func TestKabschErrors(t *testing.T) {
	_, err := Kabsch(curve(5), curve(6))
	require.Error(t, err)
	_, err = Kabsch(curve(2), curve(2))
	require.Error(t, err)
	_, err = AlignedRMSD(curve(3), curve(8))
	require.Error(t, err)
}

func BenchmarkKabsch(b *testing.B) {
	moving := curve(150)
	fixed := transform(moving)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Kabsch(moving, fixed); err != nil {
			b.Fatal(err)
		}
	}
}
