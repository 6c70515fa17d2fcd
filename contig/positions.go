package contig

import (
	"fmt"
	"strings"
)

// ParseRedesign parses a redesign string: a ';'-separated list of motif
// position tokens ("A3-5;A33") naming motif residues whose side chains may
// be redesigned. An empty string is valid and yields no segments.
func ParseRedesign(s string) ([]Segment, error) {
	if len(strings.TrimSpace(s)) == 0 {
		return nil, nil
	}
	tokens := strings.Split(s, ";")
	segs := make([]Segment, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if len(tok) == 0 {
			return nil, fmt.Errorf("Empty position in redesign list '%s'.",
				s)
		}
		if !IsChainIdent(tok[0]) {
			return nil, fmt.Errorf("Redesign position '%s' must start with "+
				"a chain identifier.", tok)
		}
		seg, err := parseMotifSegment(tok)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// RemovePositions returns the positions of fixed not covered by any of the
// given segments. Chain identifiers on the segments are ignored: redesign
// positions live in the same numbering as fixed. The input order is
// preserved and the input slice is not modified.
func RemovePositions(fixed []int, segs []Segment) []int {
	if len(segs) == 0 {
		out := make([]int, len(fixed))
		copy(out, fixed)
		return out
	}
	drop := make(map[int]bool, len(segs)*4)
	for _, seg := range segs {
		for i := seg.Start; i <= seg.End; i++ {
			drop[i] = true
		}
	}
	out := make([]int, 0, len(fixed))
	for _, idx := range fixed {
		if !drop[idx] {
			out = append(out, idx)
		}
	}
	return out
}

// ChainPos is a single residue position on a named chain.
type ChainPos struct {
	Chain byte
	Num   int
}

// FormatChainPositions merges consecutive same-chain positions into run
// tokens and joins them with ';', the inverse of ParseRedesign:
// [A3 A4 A5 A33] becomes "A3-5;A33". Runs are detected in input order.
func FormatChainPositions(positions []ChainPos) string {
	if len(positions) == 0 {
		return ""
	}
	tokens := make([]string, 0, 8)
	cur := Segment{
		Chain: positions[0].Chain,
		Start: positions[0].Num,
		End:   positions[0].Num,
	}
	for _, p := range positions[1:] {
		if p.Chain == cur.Chain && p.Num == cur.End+1 {
			cur.End = p.Num
			continue
		}
		tokens = append(tokens, cur.String())
		cur = Segment{Chain: p.Chain, Start: p.Num, End: p.Num}
	}
	tokens = append(tokens, cur.String())
	return strings.Join(tokens, ";")
}
