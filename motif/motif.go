// Package motif turns contig descriptions into the concrete position sets
// and coordinate selections that sequence design and scoring consume: fixed
// position lists, redesign carve-outs, and motif atom extraction from
// reference structures.
package motif

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xymeai/Scaffold-Lab/contig"
	"github.com/xymeai/Scaffold-Lab/io/pdb"
)

// FixedPositions returns the motif positions of c in design numbering.
// These are the residues whose identities are held fixed during sequence
// design. An empty result is valid: it describes a fully unconstrained
// design.
func FixedPositions(c contig.Contig) []int {
	_, indices, _ := c.Mask()
	return indices
}

// ApplyRedesign removes the positions named by redesign ("A3-5;A33") from
// fixed. Named positions not present in fixed are ignored.
func ApplyRedesign(fixed []int, redesign string) ([]int, error) {
	segs, err := contig.ParseRedesign(redesign)
	if err != nil {
		return nil, err
	}
	return contig.RemovePositions(fixed, segs), nil
}

// FixedPositionString formats positions the way the sequence design tool
// expects them: space-joined integers, sorted, duplicate-free.
func FixedPositionString(fixed []int) string {
	sorted := make([]int, len(fixed))
	copy(sorted, fixed)
	sort.Ints(sorted)

	tokens := make([]string, 0, len(sorted))
	for i, idx := range sorted {
		if i > 0 && idx == sorted[i-1] {
			continue
		}
		tokens = append(tokens, strconv.Itoa(idx))
	}
	return strings.Join(tokens, " ")
}

// Info describes one designed backbone: the structure its motif was lifted
// from, which sample of that design it is, the contig, and which motif
// positions may be redesigned.
type Info struct {
	Name      string
	SampleNum int
	Contig    string
	Redesign  string
}

// FromHeader extracts motif information stamped into a structure file's
// HEADER classification field: "ID,contig" or "ID,contig,redesign".
func FromHeader(e *pdb.Entry) (Info, error) {
	fields := strings.Split(e.Classification, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	switch len(fields) {
	case 2:
		return Info{Name: fields[0], Contig: fields[1]}, nil
	case 3:
		return Info{Name: fields[0], Contig: fields[1], Redesign: fields[2]}, nil
	}
	return Info{}, fmt.Errorf("The HEADER of '%s' does not carry motif "+
		"information; want 'ID,contig[,redesign]', got '%s'.",
		e.Path, e.Classification)
}

// HeaderString is the inverse of FromHeader.
func (inf Info) HeaderString() string {
	if len(inf.Redesign) > 0 {
		return fmt.Sprintf("%s,%s,%s", inf.Name, inf.Contig, inf.Redesign)
	}
	return fmt.Sprintf("%s,%s", inf.Name, inf.Contig)
}

// RedesignFromUNK scans a designed structure for UNK residues, the marker
// samplers emit for motif positions whose side chains may be redesigned,
// and returns them as a redesign spec ("A3-5;A33"). ok is false when the
// structure has no UNK residues.
func RedesignFromUNK(e *pdb.Entry) (spec string, ok bool) {
	positions := make([]contig.ChainPos, 0, 8)
	for _, chain := range e.Chains {
		for _, r := range chain.Residues {
			if r.Name == "UNK" {
				positions = append(positions, contig.ChainPos{
					Chain: chain.Ident,
					Num:   r.SeqNum,
				})
			}
		}
	}
	if len(positions) == 0 {
		return "", false
	}
	return contig.FormatChainPositions(positions), true
}

// Part selects which atoms ExtractCoords returns per motif residue.
type Part int

const (
	// CaOnly selects the alpha-carbon of each residue.
	CaOnly Part = iota
	// Backbone selects the N, CA, C and O atoms of each residue.
	Backbone
)

var backboneAtoms = []string{"N", "CA", "C", "O"}

// ExtractCoords returns the coordinates of the motif described by segs,
// taken from a reference structure. Residue numbers refer to the reference
// numbering. Scaffold segments in segs are ignored, so a full contig may be
// passed directly. A missing chain, residue or atom is an error: scoring
// needs an exact 1:1 correspondence.
func ExtractCoords(e *pdb.Entry, segs []contig.Segment, part Part) ([]pdb.Coords, error) {
	atomNames := backboneAtoms
	if part == CaOnly {
		atomNames = backboneAtoms[1:2]
	}

	coords := make([]pdb.Coords, 0, 64)
	for _, seg := range segs {
		if !seg.IsMotif() {
			continue
		}
		chain := e.Chain(seg.Chain)
		if chain == nil {
			return nil, fmt.Errorf("The chain '%c' could not be found in "+
				"'%s'.", seg.Chain, e.Path)
		}
		for num := seg.Start; num <= seg.End; num++ {
			r := chain.Residue(num)
			if r == nil {
				return nil, fmt.Errorf("Residue %d of chain '%c' has no ATOM "+
					"records in '%s'.", num, seg.Chain, e.Path)
			}
			for _, name := range atomNames {
				c, ok := r.Atom(name)
				if !ok {
					return nil, fmt.Errorf("Residue %d of chain '%c' in '%s' "+
						"is missing its '%s' atom.", num, seg.Chain, e.Path,
						name)
				}
				coords = append(coords, c)
			}
		}
	}
	return coords, nil
}
