package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/xymeai/Scaffold-Lab/cmd/util"
	"github.com/xymeai/Scaffold-Lab/contig"
	"github.com/xymeai/Scaffold-Lab/motif"
)

var flagRedesign = ""

func init() {
	flag.StringVar(&flagRedesign, "redesign", flagRedesign,
		"A redesign spec ('A16-17;A28') subtracted from the motif\n"+
			"positions before the Fixed line is printed.")
	util.FlagParse("contig ...",
		"Prints what a contig describes: the total design length, the\n"+
			"1-based motif positions, the motif mask and the canonical\n"+
			"re-encoding of those positions. Useful for checking what a\n"+
			"sampler's contig will pin down before running an evaluation.")
	util.AssertLeastNArg(1)
}

func main() {
	for i := 0; i < util.NArg(); i++ {
		if i > 0 {
			fmt.Println()
		}
		show(util.Arg(i))
	}
}

func show(s string) {
	ctg := util.ContigParse(s)
	total, indices, mask := ctg.Mask()

	fmt.Printf("Contig: %s\n", ctg)
	fmt.Printf("Length: %d\n", total)
	fmt.Printf("Motif: %d of %d positions\n", mask.Count(), total)
	fmt.Printf("Indices: %s\n", motif.FixedPositionString(indices))
	fmt.Printf("Mask: %s\n", maskString(mask))
	fmt.Printf("Canonical: %s\n", contig.IndicesToContig(indices))

	if len(flagRedesign) > 0 {
		fixed, err := motif.ApplyRedesign(indices, flagRedesign)
		util.Assert(err)
		fmt.Printf("Fixed: %s\n", motif.FixedPositionString(fixed))
	}
}

func maskString(mask contig.Mask) string {
	var b strings.Builder
	for _, m := range mask {
		if m {
			b.WriteByte('#')
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}
