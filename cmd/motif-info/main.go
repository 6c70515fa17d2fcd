package main

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/xymeai/Scaffold-Lab/cmd/util"
	"github.com/xymeai/Scaffold-Lab/contig"
	"github.com/xymeai/Scaffold-Lab/motif"
)

func init() {
	util.FlagUse("verbose")
	util.FlagParse("sampler-log [out-csv]",
		"Scrapes the design records from a backbone sampler's log and\n"+
			"writes them as a motif information table (pdb_name, sample_num,\n"+
			"contig, motif_indices, motif_rmsd, time), the format the\n"+
			"-motifs flag of the refold command reads. Output goes to\n"+
			"out-csv, or stdout when omitted.\n\n"+
			"Each design's contig is cross-checked against its sampled\n"+
			"mask; disagreements are reported but still written.")
	util.AssertLeastNArg(1)
}

func main() {
	logPath := util.Arg(0)
	f := util.OpenFile(logPath)
	defer f.Close()

	entries, err := motif.ScanSamplerLog(f)
	util.Assert(err, "Could not scan '%s'", logPath)
	if len(entries) == 0 {
		util.Fatalf("No designs found in '%s'.", logPath)
	}
	util.Verbosef("%d designs found in '%s'.\n", len(entries), logPath)

	out := os.Stdout
	if util.NArg() >= 2 {
		out = util.CreateFile(util.Arg(1))
	}
	w := csv.NewWriter(out)
	util.Assert(w.Write([]string{"pdb_name", "sample_num", "contig",
		"motif_indices", "motif_rmsd", "time"}))
	for _, e := range entries {
		verify(e)
		util.Assert(w.Write([]string{
			e.Name,
			strconv.Itoa(e.Sample),
			e.Contig,
			motif.FixedPositionString(e.Mask.Indices()),
			e.MotifRMSD,
			e.Time,
		}))
	}
	w.Flush()
	util.Assert(w.Error())
}

// verify cross-checks a design's contig against its sampled mask. Designs
// whose log lines were truncated are left alone.
func verify(e motif.LogEntry) {
	if len(e.Contig) == 0 || len(e.Mask) == 0 {
		return
	}
	ctg, err := contig.Parse(e.Contig)
	if util.Warning(err, "Design %s_%d", e.Name, e.Sample) {
		return
	}
	total, _, mask := ctg.Mask()
	if total != len(e.Mask) || !masksEqual(mask, e.Mask) {
		util.Warnf("Design %s_%d: contig '%s' disagrees with the sampled mask.",
			e.Name, e.Sample, e.Contig)
	}
}

func masksEqual(a, b contig.Mask) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
