package main

import (
	"flag"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/xymeai/Scaffold-Lab/apps/colabfold"
	"github.com/xymeai/Scaffold-Lab/apps/esmfold"
	"github.com/xymeai/Scaffold-Lab/apps/proteinmpnn"
	"github.com/xymeai/Scaffold-Lab/cmd/util"
	"github.com/xymeai/Scaffold-Lab/contig"
	"github.com/xymeai/Scaffold-Lab/io/pdb"
	"github.com/xymeai/Scaffold-Lab/motif"
	"github.com/xymeai/Scaffold-Lab/refold"
)

var (
	flagMotifs       = ""
	flagContig       = ""
	flagRedesign     = ""
	flagHeader       = false
	flagUnk          = false
	flagBackends     = "esm"
	flagNumSeqs      = proteinmpnn.Default.NumSeqs
	flagSamplingTemp = proteinmpnn.Default.SamplingTemp
	flagSeed         = proteinmpnn.Default.Seed
	flagBatchSize    = proteinmpnn.Default.BatchSize
	flagCaOnly       = false
	flagTopK         = 0
	flagTries        = refold.DefaultTries
	flagWait         = 10 * time.Second
	flagDevice       = -1

	motifs *motif.Table
)

func init() {
	flag.StringVar(&flagMotifs, "motifs", flagMotifs,
		"A motif information table (CSV with pdb_name, sample_num, contig\n"+
			"and optionally redesign_positions columns). Every backbone must\n"+
			"have a row in the table.")
	flag.StringVar(&flagContig, "contig", flagContig,
		"A contig string applied to every backbone, e.g. '10-15/A15-30/30'.\n"+
			"Overrides -motifs and -header.")
	flag.StringVar(&flagRedesign, "redesign", flagRedesign,
		"Motif positions to release for redesign, e.g. 'A16-17;A28'.\n"+
			"Only used with -contig.")
	flag.BoolVar(&flagHeader, "header", flagHeader,
		"When set, motif information is read from each backbone's HEADER\n"+
			"record ('ID,contig[,redesign]').")
	flag.BoolVar(&flagUnk, "unk", flagUnk,
		"When set, motif positions marked as UNK residues are released\n"+
			"for redesign unless a redesign spec is already given.")
	flag.StringVar(&flagBackends, "backends", flagBackends,
		"Comma-separated folding backends to run: 'esm', 'af2' or both.")
	flag.IntVar(&flagNumSeqs, "num-seqs", flagNumSeqs,
		"The number of sequences to design per backbone.")
	flag.Float64Var(&flagSamplingTemp, "sampling-temp", flagSamplingTemp,
		"The sampling temperature for sequence design.")
	flag.IntVar(&flagSeed, "seed", flagSeed,
		"The random seed for sequence design.")
	flag.IntVar(&flagBatchSize, "batch-size", flagBatchSize,
		"The sequence design batch size.")
	flag.BoolVar(&flagCaOnly, "ca-only", flagCaOnly,
		"When set, sequence design uses CA-only structure features.")
	flag.IntVar(&flagTopK, "top-k", flagTopK,
		"When positive, only the K designed sequences with the best global\n"+
			"score are folded. The original sequence is always folded.")
	flag.IntVar(&flagTries, "tries", flagTries,
		"The number of times to attempt each external step before giving up.")
	flag.DurationVar(&flagWait, "wait", flagWait,
		"The base wait between attempts of a failing external step. The\n"+
			"i'th retry waits i times this long.")
	flag.IntVar(&flagDevice, "device", flagDevice,
		"The CUDA device number to use. When negative, the tools pick.")

	util.FlagUse("verbose", "env")
	util.FlagParse("backbone-dir out-dir",
		"Runs the self-consistency pipeline over every '*.pdb' file found\n"+
			"under backbone-dir: sequences are designed for each backbone,\n"+
			"folded back with the selected backends and scored against the\n"+
			"original shape. Results are written to out-dir/{name} per\n"+
			"backbone; populated directories are skipped, so an interrupted\n"+
			"run may be resumed by running the same command again.\n\n"+
			"External tools are found through the PROTEINMPNN_DIR,\n"+
			"ESMFOLD_EXEC and COLABFOLD_EXEC environment variables.")
	util.AssertNArg(2)
}

func main() {
	backboneSrc := util.Arg(0)
	outRoot := util.Arg(1)

	pdbFiles := util.Files(backboneSrc, ".pdb")
	if len(pdbFiles) == 0 {
		util.Fatalf("No PDB files found in '%s'.", backboneSrc)
	}
	sort.Strings(pdbFiles)

	if len(flagMotifs) > 0 {
		motifs = util.MotifTable(flagMotifs)
	}

	r := &refold.Refolder{
		Designer: designer(),
		Device:   refold.Device{ID: flagDevice},
		Tries:    flagTries,
		Wait:     flagWait,
		TopK:     flagTopK,
	}
	if util.FlagVerbose {
		r.Verbosef = func(format string, v ...interface{}) {
			util.Verbosef(format+"\n", v...)
		}
	}
	for _, b := range strings.Split(flagBackends, ",") {
		switch strings.TrimSpace(b) {
		case "esm":
			conf := esmfold.Default
			conf.Exec = util.Env("ESMFOLD_EXEC", conf.Exec)
			conf.Device = flagDevice
			conf.Verbose = util.FlagVerbose
			r.ESM = refold.ESMFold{Conf: conf}
		case "af2":
			conf := colabfold.Default
			conf.Exec = util.Env("COLABFOLD_EXEC", conf.Exec)
			conf.RandomSeed = flagSeed
			conf.Verbose = util.FlagVerbose
			r.AF2 = refold.ColabFold{Conf: conf}
		case "":
		default:
			util.Fatalf("Unknown folding backend '%s'; want 'esm' or 'af2'.", b)
		}
	}

	progress := util.NewProgress(len(pdbFiles))
	skipped, failed := 0, 0
	for _, fpath := range pdbFiles {
		res, err := evaluate(r, fpath, outRoot)
		if err != nil {
			err = fmt.Errorf("Evaluation of '%s' failed: %s", fpath, err)
			failed++
		} else if res.Skipped {
			skipped++
		}
		progress.JobDone(err)
	}
	progress.Close()

	util.Verbosef("%d backbones evaluated, %d skipped, %d failed.\n",
		len(pdbFiles)-skipped-failed, skipped, failed)
	if failed == len(pdbFiles) {
		util.Fatalf("All %d backbones failed.", failed)
	}
}

func evaluate(r *refold.Refolder, fpath, outRoot string) (*refold.Result, error) {
	m, err := motifFor(fpath)
	if err != nil {
		return nil, err
	}
	return r.Evaluate(fpath, path.Join(outRoot, baseName(fpath)), m)
}

// motifFor resolves the motif constraint for one backbone: an explicit
// -contig wins, then the -motifs table, then the HEADER record. With none of
// those the design is unconstrained and no motif scores are computed.
func motifFor(fpath string) (*refold.Motif, error) {
	var inf motif.Info
	switch {
	case len(flagContig) > 0:
		inf = motif.Info{Contig: flagContig, Redesign: flagRedesign}
	case motifs != nil:
		var ok bool
		if inf, ok = motifs.LookupFile(fpath); !ok {
			return nil, fmt.Errorf("No motif information for '%s'.", fpath)
		}
	case flagHeader:
		entry, err := pdb.Read(fpath)
		if err != nil {
			return nil, err
		}
		if inf, err = motif.FromHeader(entry); err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}

	ctg, err := contig.Parse(inf.Contig)
	if err != nil {
		return nil, err
	}
	m := &refold.Motif{Contig: ctg, Redesign: inf.Redesign}
	if flagUnk && len(m.Redesign) == 0 {
		entry, err := pdb.Read(fpath)
		if err != nil {
			return nil, err
		}
		if spec, ok := motif.RedesignFromUNK(entry); ok {
			m.Redesign = spec
		}
	}
	return m, nil
}

func designer() proteinmpnn.Config {
	conf := proteinmpnn.Default
	conf.Dir = util.Env("PROTEINMPNN_DIR", conf.Dir)
	conf.NumSeqs = flagNumSeqs
	conf.SamplingTemp = flagSamplingTemp
	conf.Seed = flagSeed
	conf.BatchSize = flagBatchSize
	conf.Device = flagDevice
	conf.CaOnly = flagCaOnly
	conf.Verbose = util.FlagVerbose
	return conf
}

func baseName(fpath string) string {
	base := path.Base(fpath)
	return strings.TrimSuffix(base, path.Ext(base))
}
