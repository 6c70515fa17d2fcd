package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"

	"github.com/xymeai/Scaffold-Lab/apps/foldseek"
	"github.com/xymeai/Scaffold-Lab/cmd/util"
	"github.com/xymeai/Scaffold-Lab/results"
)

var (
	flagPrefix  = "esm"
	flagCSV     = ""
	flagSummary = ""
	flagTarget  = ""
	flagCluster = false
	flagNovelty = false
	flagMaxCPU  = 0.0
)

func init() {
	flag.StringVar(&flagPrefix, "prefix", flagPrefix,
		"Which per-backbone tables to merge: 'esm', 'af2' or 'joint'.")
	flag.StringVar(&flagCSV, "csv", flagCSV,
		"Where to write the merged table. Defaults to\n"+
			"results-dir/{prefix}_merged_results.csv.")
	flag.StringVar(&flagSummary, "summary", flagSummary,
		"Where to write the summary report. Defaults to\n"+
			"results-dir/summary.txt.")
	flag.StringVar(&flagTarget, "target", flagTarget,
		"The identifier reported on the summary's 'Evaluated' line.\n"+
			"Defaults to the results directory name.")
	flag.BoolVar(&flagCluster, "cluster", flagCluster,
		"When set, the designable backbones are clustered with the\n"+
			"structure search tool and diversity is reported.")
	flag.BoolVar(&flagNovelty, "novelty", flagNovelty,
		"When set, each designable backbone is searched against the\n"+
			"reference database and the merged table gains a pdb_tm column.")
	flag.Float64Var(&flagMaxCPU, "max-cpu", flagMaxCPU,
		"Novelty searches wait until host CPU use falls below this\n"+
			"percentage. Non-positive disables the gate.")

	util.FlagUse("cpu", "verbose", "env")
	util.FlagParse("results-dir",
		"Merges the per-backbone evaluation tables found under results-dir\n"+
			"into one CSV and reports campaign statistics: designability\n"+
			"against the fixed thresholds, and optionally diversity\n"+
			"(structure clustering of the designable backbones) and novelty\n"+
			"(best TM-score against a reference database).\n\n"+
			"The structure search tool is found through the FOLDSEEK_EXEC\n"+
			"environment variable; -novelty additionally needs FOLDSEEK_DB.")
	util.AssertNArg(1)
}

func main() {
	root := util.Arg(0)
	util.AssertIsDir(root)

	rows, count, err := results.Merge(root, flagPrefix)
	util.Assert(err)
	if count == 0 {
		util.Fatalf("No '%s_eval_results.csv' tables found under '%s'.",
			flagPrefix, root)
	}
	designable := results.DesignableBackbones(rows)
	util.Verbosef("%d of %d backbones designable.\n", len(designable), count)

	diversity, novelty := math.NaN(), math.NaN()
	if flagCluster {
		diversity = clusterDiversity(designable)
	}
	if flagNovelty {
		novelty = noveltySearch(rows, designable)
	}

	csvPath := flagCSV
	if len(csvPath) == 0 {
		csvPath = filepath.Join(root, flagPrefix+"_merged_results.csv")
	}
	err = results.WriteMerged(csvPath, rows)
	util.Assert(err, "Could not write '%s'", csvPath)

	target := flagTarget
	if len(target) == 0 {
		target = filepath.Base(filepath.Clean(root))
	}
	sumPath := flagSummary
	if len(sumPath) == 0 {
		sumPath = filepath.Join(root, "summary.txt")
	}
	err = results.WriteSummary(sumPath, count, len(designable),
		diversity, novelty, target)
	util.Assert(err, "Could not write '%s'", sumPath)
	fmt.Print(results.Summary(count, len(designable), diversity, novelty, target))
}

// clusterDiversity clusters the designable backbones in a scratch directory
// and reports the cluster count relative to their number.
func clusterDiversity(designable []string) float64 {
	if len(designable) == 0 {
		return 0
	}
	dir, err := ioutil.TempDir("", "eval-summary")
	util.Assert(err)
	defer os.RemoveAll(dir)

	for _, pdbPath := range designable {
		util.CopyFile(pdbPath, filepath.Join(dir, filepath.Base(pdbPath)))
	}
	clusters, err := searchConfig().EasyCluster(dir)
	util.Assert(err, "Could not cluster designable backbones")
	return results.Diversity(clusters, len(designable))
}

// noveltySearch looks every designable backbone up in the reference database
// and returns the mean of their best TM-scores. Backbones whose search fails
// are reported and left out of the statistic.
func noveltySearch(rows []results.Row, designable []string) float64 {
	if len(designable) == 0 {
		return math.NaN()
	}
	conf := searchConfig()
	if len(conf.Database) == 0 {
		util.Fatalf("Novelty search needs the FOLDSEEK_DB environment variable.")
	}

	scores, errs := conf.RunAll(designable, util.FlagCpu, flagMaxCPU)
	for _, err := range errs {
		util.Warning(err)
	}

	byPath := make(map[string]float64, len(scores))
	var tms []float64
	for _, score := range scores {
		if !score.Found {
			continue
		}
		byPath[score.Path] = score.TMScore
		tms = append(tms, score.TMScore)
	}
	results.FillNovelty(rows, byPath)
	if len(tms) == 0 {
		return math.NaN()
	}
	return stat.Mean(tms, nil)
}

func searchConfig() foldseek.Config {
	conf := foldseek.Default
	conf.Exec = util.Env("FOLDSEEK_EXEC", conf.Exec)
	conf.Database = util.Env("FOLDSEEK_DB", conf.Database)
	conf.Verbose = util.FlagVerbose
	return conf
}
