package main

import (
	"fmt"

	"github.com/xymeai/Scaffold-Lab/cmd/util"
	"github.com/xymeai/Scaffold-Lab/rmsd"
)

func init() {
	util.FlagParse(
		"pdb-file chain start end pdb-file chain start end | pdb-file pdb-file",
		"Computes the aligned carbon-alpha RMSD and the TM-score between\n"+
			"two structures. With eight arguments the comparison covers the\n"+
			"given inclusive residue ranges; with two arguments it covers\n"+
			"the whole structures, which must then have the same number of\n"+
			"carbon-alpha atoms. The TM-score is normalized by the length\n"+
			"of the second structure.")
	if util.NArg() != 2 && util.NArg() != 8 {
		util.Usage()
	}
}

func main() {
	var rms, tm float64
	var err error
	if util.NArg() == 2 {
		entry1 := util.PDBRead(util.Arg(0))
		entry2 := util.PDBRead(util.Arg(1))
		cas1, cas2 := entry1.CaAtoms(), entry2.CaAtoms()
		if len(cas1) != len(cas2) {
			util.Fatalf("'%s' has %d carbon-alpha atoms while '%s' has %d. "+
				"Whole-structure comparison needs a 1:1 correspondence.",
				entry1.Name(), len(cas1), entry2.Name(), len(cas2))
		}
		rms, err = rmsd.AlignedRMSD(cas1, cas2)
		util.Assert(err)
		_, tm, err = rmsd.TMScore(cas1, cas2)
		util.Assert(err)
	} else {
		entry1 := util.PDBRead(util.Arg(0))
		entry2 := util.PDBRead(util.Arg(4))
		rms, tm, err = rmsd.PDB(
			entry1, chainId(util.Arg(1)),
			util.ParseInt(util.Arg(2)), util.ParseInt(util.Arg(3)),
			entry2, chainId(util.Arg(5)),
			util.ParseInt(util.Arg(6)), util.ParseInt(util.Arg(7)))
		util.Assert(err)
	}
	fmt.Printf("RMSD: %0.4f\n", rms)
	fmt.Printf("TM-score: %0.4f\n", tm)
}

func chainId(s string) byte {
	if len(s) != 1 {
		util.Fatalf("Chain identifiers are single characters; got '%s'.", s)
	}
	return s[0]
}
