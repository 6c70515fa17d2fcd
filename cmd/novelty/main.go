package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/xymeai/Scaffold-Lab/apps/foldseek"
	"github.com/xymeai/Scaffold-Lab/cmd/util"
)

var (
	flagKeepTmp = false
	flagMaxCPU  = 0.0
)

func init() {
	flag.BoolVar(&flagKeepTmp, "keep-tmp", flagKeepTmp,
		"When set, the structure search scratch directories are kept.")
	flag.Float64Var(&flagMaxCPU, "max-cpu", flagMaxCPU,
		"Searches wait until host CPU use falls below this percentage.\n"+
			"Non-positive disables the gate.")

	util.FlagUse("cpu", "verbose", "env")
	util.FlagParse("pdb-file-or-dir [out-csv]",
		"Searches each backbone against a reference database and reports\n"+
			"its novelty: the TM-score of the best hit, rounded to three\n"+
			"digits. A single backbone's score is printed; a batch is\n"+
			"written as a CSV table to out-csv (stdout when omitted).\n"+
			"Backbones without any hit get an empty score cell.\n\n"+
			"The search tool and reference database are found through the\n"+
			"FOLDSEEK_EXEC and FOLDSEEK_DB environment variables.")
	util.AssertLeastNArg(1)
}

func main() {
	pdbFiles := util.Files(util.Arg(0), ".pdb")
	if len(pdbFiles) == 0 {
		util.Fatalf("No PDB files found in '%s'.", util.Arg(0))
	}
	sort.Strings(pdbFiles)

	conf := foldseek.Default
	conf.Exec = util.Env("FOLDSEEK_EXEC", conf.Exec)
	conf.Database = util.Env("FOLDSEEK_DB", conf.Database)
	conf.KeepTmp = flagKeepTmp
	conf.Verbose = util.FlagVerbose
	if len(conf.Database) == 0 {
		util.Fatalf("A novelty search needs the FOLDSEEK_DB environment variable.")
	}

	if len(pdbFiles) == 1 && util.NArg() == 1 {
		score, err := conf.Novelty(pdbFiles[0])
		util.Assert(err, "Could not search '%s'", pdbFiles[0])
		if !score.Found {
			fmt.Println("NA")
		} else {
			fmt.Println(cell(score))
		}
		return
	}

	scores, errs := conf.RunAll(pdbFiles, util.FlagCpu, flagMaxCPU)

	out := os.Stdout
	if util.NArg() >= 2 {
		out = util.CreateFile(util.Arg(1))
	}
	w := csv.NewWriter(out)
	util.Assert(w.Write([]string{"pdb_path", "pdb_tm"}))
	for i, score := range scores {
		if util.Warning(errs[i], "Could not search '%s'", pdbFiles[i]) {
			continue
		}
		util.Assert(w.Write([]string{score.Path, cell(score)}))
	}
	w.Flush()
	util.Assert(w.Error())
}

// cell formats one score; a backbone without any hit gets an empty cell.
func cell(score foldseek.Score) string {
	if !score.Found {
		return ""
	}
	return strconv.FormatFloat(score.TMScore, 'f', 3, 64)
}
