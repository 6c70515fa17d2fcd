// Package contig implements the contig grammar used to describe designed
// protein backbones: an ordered, '/'-separated list of motif segments taken
// from a native structure ("A45-65") interleaved with scaffold segments of
// free residues ("15").
//
// The grammar is the source of truth for where motif residues land in a
// design. Everything else (fixed-position lists for sequence design, boolean
// masks for scoring) is derived from it, never edited by hand.
package contig

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ChainAlphabet lists the chain identifiers recognized at the start of a
// motif segment. 'I' and 'O' are excluded since they are easily confused
// with digits.
const ChainAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// IsChainIdent reports whether b is a valid motif chain identifier.
func IsChainIdent(b byte) bool {
	return strings.IndexByte(ChainAlphabet, b) >= 0
}

// Segment is a single element of a contig: either a motif segment lifted
// from chain Chain of a native structure, spanning residues Start through
// End inclusive, or a scaffold segment of Length free residues (Chain == 0).
type Segment struct {
	Chain      byte
	Start, End int
	Length     int
}

// IsMotif reports whether the segment is a motif segment.
func (s Segment) IsMotif() bool {
	return s.Chain != 0
}

// Len returns the number of positions the segment occupies in the design.
func (s Segment) Len() int {
	if s.IsMotif() {
		return s.End - s.Start + 1
	}
	return s.Length
}

func (s Segment) String() string {
	switch {
	case !s.IsMotif():
		return strconv.Itoa(s.Length)
	case s.Start == s.End:
		return fmt.Sprintf("%c%d", s.Chain, s.Start)
	}
	return fmt.Sprintf("%c%d-%d", s.Chain, s.Start, s.End)
}

// Contig is an ordered list of segments.
type Contig []Segment

// Parse parses a contig string like "15/A45-65/20/A20-30".
//
// Motif segments start with a chain identifier and give an inclusive residue
// range (or a single residue, "A33"). Scaffold segments are literal lengths.
// A scaffold segment written as a range is only accepted when both bounds are
// equal (sampler logs emit the "25-25" form); an unequal range leaves the
// design length undetermined and is rejected.
func Parse(s string) (Contig, error) {
	if len(strings.TrimSpace(s)) == 0 {
		return nil, fmt.Errorf("Empty contig string.")
	}
	tokens := strings.Split(s, "/")
	contig := make(Contig, 0, len(tokens))
	for _, tok := range tokens {
		seg, err := parseSegment(tok)
		if err != nil {
			return nil, err
		}
		contig = append(contig, seg)
	}
	return contig, nil
}

func parseSegment(tok string) (Segment, error) {
	if len(tok) == 0 {
		return Segment{}, fmt.Errorf("Empty segment in contig.")
	}
	if IsChainIdent(tok[0]) {
		return parseMotifSegment(tok)
	}
	return parseScaffoldSegment(tok)
}

func parseMotifSegment(tok string) (Segment, error) {
	var start, end int
	var err error

	body := tok[1:]
	if i := strings.IndexByte(body, '-'); i >= 0 {
		if start, err = strconv.Atoi(body[:i]); err != nil {
			return Segment{}, fmt.Errorf("Malformed motif segment '%s': %s.",
				tok, err)
		}
		if end, err = strconv.Atoi(body[i+1:]); err != nil {
			return Segment{}, fmt.Errorf("Malformed motif segment '%s': %s.",
				tok, err)
		}
	} else {
		if start, err = strconv.Atoi(body); err != nil {
			return Segment{}, fmt.Errorf("Malformed motif segment '%s': %s.",
				tok, err)
		}
		end = start
	}
	if start < 1 {
		return Segment{}, fmt.Errorf("Motif segment '%s' must use 1-based "+
			"residue numbers.", tok)
	}
	if end < start {
		return Segment{}, fmt.Errorf("Motif segment '%s' starts after it "+
			"ends.", tok)
	}
	return Segment{Chain: tok[0], Start: start, End: end}, nil
}

func parseScaffoldSegment(tok string) (Segment, error) {
	if i := strings.IndexByte(tok, '-'); i >= 0 {
		lo, errLo := strconv.Atoi(tok[:i])
		hi, errHi := strconv.Atoi(tok[i+1:])
		if errLo != nil || errHi != nil {
			return Segment{}, fmt.Errorf("Malformed scaffold segment '%s'.",
				tok)
		}
		if lo != hi {
			return Segment{}, fmt.Errorf("Scaffold segment '%s' is an "+
				"ambiguous range; scaffold lengths must be fully determined "+
				"integers.", tok)
		}
		return Segment{Length: lo}, nil
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return Segment{}, fmt.Errorf("Malformed scaffold segment '%s': %s.",
			tok, err)
	}
	if n < 0 {
		return Segment{}, fmt.Errorf("Scaffold segment '%s' has negative "+
			"length.", tok)
	}
	return Segment{Length: n}, nil
}

func (c Contig) String() string {
	tokens := make([]string, len(c))
	for i, seg := range c {
		tokens[i] = seg.String()
	}
	return strings.Join(tokens, "/")
}

// TotalLength returns the number of residues in a design built from the
// contig.
func (c Contig) TotalLength() int {
	n := 0
	for _, seg := range c {
		n += seg.Len()
	}
	return n
}

// Motifs returns only the motif segments of the contig, in order.
func (c Contig) Motifs() []Segment {
	segs := make([]Segment, 0, len(c))
	for _, seg := range c {
		if seg.IsMotif() {
			segs = append(segs, seg)
		}
	}
	return segs
}

// Mask is a boolean mask over design positions; true marks motif positions.
type Mask []bool

// Count returns the number of motif positions in the mask.
func (m Mask) Count() int {
	n := 0
	for _, b := range m {
		if b {
			n++
		}
	}
	return n
}

// Indices returns the 1-based positions set in the mask.
func (m Mask) Indices() []int {
	indices := make([]int, 0, len(m))
	for i, b := range m {
		if b {
			indices = append(indices, i+1)
		}
	}
	return indices
}

// Mask walks the contig with a 1-based cursor and returns the total design
// length, the motif positions in design numbering, and the corresponding
// boolean mask. The walk is deterministic: equal contigs always produce
// equal masks.
func (c Contig) Mask() (total int, indices []int, mask Mask) {
	cur := 1
	indices = make([]int, 0, 32)
	for _, seg := range c {
		n := seg.Len()
		if seg.IsMotif() {
			for i := 0; i < n; i++ {
				indices = append(indices, cur+i)
			}
		}
		cur += n
	}
	total = cur - 1
	mask = make(Mask, total)
	for _, idx := range indices {
		mask[idx-1] = true
	}
	return total, indices, mask
}

// FromIndices builds the canonical contig covering the given 1-based design
// positions: consecutive runs are merged into motif segments under the fixed
// chain 'A'. The input need not be sorted or duplicate-free.
func FromIndices(indices []int) Contig {
	contig := make(Contig, 0, 8)
	for _, run := range runs(indices) {
		contig = append(contig, Segment{Chain: 'A', Start: run[0], End: run[1]})
	}
	return contig
}

// IndicesToContig is the serialized form of FromIndices. Every run is
// written in explicit range form ("A33-33"), which is what downstream
// tooling expects.
func IndicesToContig(indices []int) string {
	tokens := make([]string, 0, 8)
	for _, run := range runs(indices) {
		tokens = append(tokens, fmt.Sprintf("A%d-%d", run[0], run[1]))
	}
	return strings.Join(tokens, "/")
}

// runs merges a set of integers into inclusive [start, end] runs of
// consecutive values, sorted ascending with duplicates dropped.
func runs(indices []int) [][2]int {
	if len(indices) == 0 {
		return nil
	}
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)

	rs := make([][2]int, 0, 8)
	start, end := sorted[0], sorted[0]
	for _, idx := range sorted[1:] {
		switch {
		case idx == end:
			continue
		case idx == end+1:
			end = idx
		default:
			rs = append(rs, [2]int{start, end})
			start, end = idx, idx
		}
	}
	return append(rs, [2]int{start, end})
}
