package contig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// seqRange returns [start, start+1, ..., end].
func seqRange(start, end int) []int {
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}

func TestParseMask(t *testing.T) {
	c, err := Parse("15/A45-65/20/A20-30")
	require.NoError(t, err)
	require.Len(t, c, 4)
	require.False(t, c[0].IsMotif())
	require.True(t, c[1].IsMotif())
	require.Equal(t, byte('A'), c[1].Chain)
	require.Equal(t, 45, c[1].Start)
	require.Equal(t, 65, c[1].End)

	total, indices, mask := c.Mask()
	require.Equal(t, 67, total)
	require.Equal(t, 67, c.TotalLength())

	want := append(seqRange(16, 36), seqRange(57, 67)...)
	require.Equal(t, want, indices)

	require.Len(t, mask, 67)
	require.Equal(t, len(want), mask.Count())
	require.Equal(t, want, mask.Indices())
	require.False(t, mask[14])
	require.True(t, mask[15])
	require.True(t, mask[35])
	require.False(t, mask[36])
}

func TestParseSingleResidueMotif(t *testing.T) {
	c, err := Parse("5/A33/5")
	require.NoError(t, err)
	require.Equal(t, 11, c.TotalLength())
	_, indices, _ := c.Mask()
	require.Equal(t, []int{6}, indices)
}

func TestParseScaffoldRange(t *testing.T) {
	// Sampler logs write fully determined scaffold segments as "n-n".
	c, err := Parse("25-25/B25-46/31-31")
	require.NoError(t, err)
	require.Equal(t, 25, c[0].Len())
	require.Equal(t, byte('B'), c[1].Chain)
	require.Equal(t, 31, c[2].Len())

	// An unequal range leaves the design length undetermined.
	_, err = Parse("10-5/A1-3")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Scaffold segment '10-5'")

	_, err = Parse("10-20/A1-3")
	require.Error(t, err)
	require.Contains(t, err.Error(), "ambiguous")
}

func TestParseErrors(t *testing.T) {
	for _, bad := range []string{
		"",
		"15//A45-65",
		"A65-45",
		"A0-5",
		"Ax-5",
		"A5-",
		"abc",
		"-5",
	} {
		_, err := Parse(bad)
		require.Error(t, err, "contig %q", bad)
	}
}

func TestChainAlphabetSkipsIAndO(t *testing.T) {
	require.False(t, IsChainIdent('I'))
	require.False(t, IsChainIdent('O'))
	require.True(t, IsChainIdent('A'))
	require.True(t, IsChainIdent('Z'))

	// "O1-5" is not a motif segment; it fails as a scaffold token instead of
	// silently parsing as chain O.
	_, err := Parse("O1-5")
	require.Error(t, err)
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{
		"15/A45-65/20/A20-30",
		"A1-7/20/A28-79",
		"5/A33/5",
		"100",
	} {
		c, err := Parse(s)
		require.NoError(t, err)
		require.Equal(t, s, c.String())

		again, err := Parse(c.String())
		require.NoError(t, err)
		require.Equal(t, c, again)
	}
}

func TestFromIndices(t *testing.T) {
	indices := append(seqRange(16, 36), seqRange(57, 67)...)
	require.Equal(t, "A16-36/A57-67", IndicesToContig(indices))

	// Unsorted input with duplicates yields the same canonical contig.
	shuffled := []int{67, 16, 20, 17, 18, 19, 16}
	require.Equal(t, "A16-20/A67-67", IndicesToContig(shuffled))

	c := FromIndices(indices)
	require.Equal(t, Contig{
		{Chain: 'A', Start: 16, End: 36},
		{Chain: 'A', Start: 57, End: 67},
	}, c)

	// Re-parsing the serialized form recovers exactly the same index set.
	back, err := Parse(IndicesToContig(indices))
	require.NoError(t, err)
	_, gotIndices, _ := back.Mask()
	// The re-parsed contig has no scaffold segments, so its positions start
	// at 1; map them back through the segments to native numbering.
	require.Len(t, gotIndices, len(indices))
	var native []int
	for _, seg := range back {
		native = append(native, seqRange(seg.Start, seg.End)...)
	}
	require.Equal(t, indices, native)

	require.Equal(t, "", IndicesToContig(nil))
	require.Empty(t, FromIndices(nil))
}

func TestParseRedesign(t *testing.T) {
	segs, err := ParseRedesign("A3-5;A33")
	require.NoError(t, err)
	require.Equal(t, []Segment{
		{Chain: 'A', Start: 3, End: 5},
		{Chain: 'A', Start: 33, End: 33},
	}, segs)

	segs, err = ParseRedesign("")
	require.NoError(t, err)
	require.Nil(t, segs)

	_, err = ParseRedesign("A3-5;;A33")
	require.Error(t, err)
	_, err = ParseRedesign("3-5")
	require.Error(t, err)
}

func TestRemovePositions(t *testing.T) {
	fixed := append(seqRange(16, 36), seqRange(57, 67)...)
	segs, err := ParseRedesign("A20-22;A60")
	require.NoError(t, err)

	got := RemovePositions(fixed, segs)
	want := make([]int, 0, len(fixed))
	for _, i := range fixed {
		if i == 20 || i == 21 || i == 22 || i == 60 {
			continue
		}
		want = append(want, i)
	}
	require.Equal(t, want, got)

	// Removal is a pure function of the position sets.
	require.Equal(t, fixed, RemovePositions(fixed, nil))
	require.Len(t, fixed, 32) // input untouched
}

func TestFormatChainPositions(t *testing.T) {
	pos := []ChainPos{
		{'A', 3}, {'A', 4}, {'A', 5}, {'A', 33},
	}
	require.Equal(t, "A3-5;A33", FormatChainPositions(pos))

	pos = []ChainPos{{'A', 7}, {'A', 8}, {'B', 9}}
	require.Equal(t, "A7-8;B9", FormatChainPositions(pos))

	require.Equal(t, "", FormatChainPositions(nil))

	// FormatChainPositions and ParseRedesign are inverses.
	segs, err := ParseRedesign(FormatChainPositions([]ChainPos{
		{'A', 3}, {'A', 4}, {'A', 5}, {'A', 33},
	}))
	require.NoError(t, err)
	require.Equal(t, []Segment{
		{Chain: 'A', Start: 3, End: 5},
		{Chain: 'A', Start: 33, End: 33},
	}, segs)
}
