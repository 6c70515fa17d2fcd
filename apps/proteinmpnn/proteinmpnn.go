// Package proteinmpnn wraps the ProteinMPNN sequence design tool: the helper
// scripts that convert structures to its JSONL input format, the design run
// itself, and a parser for the scored FASTA records it writes.
package proteinmpnn

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/BurntSushi/cmd"
)

// Config locates a ProteinMPNN checkout and carries the sampling parameters
// for a design run.
type Config struct {
	// Python is the interpreter used to run the tool's entry points.
	Python string

	// Dir is the root of the ProteinMPNN checkout. Entry points and helper
	// scripts are resolved relative to it.
	Dir string

	// NumSeqs is the number of sequences designed per backbone.
	NumSeqs int

	// BatchSize is the tool's sampling batch size. It must divide NumSeqs.
	BatchSize int

	SamplingTemp float64
	Seed         int

	// Device is the accelerator ordinal passed to the tool. A negative
	// value lets the tool pick for itself.
	Device int

	// CaOnly selects the carbon-alpha-only model weights, for backbones
	// that carry no other atoms.
	CaOnly bool

	// When true, the tool's stdout and stderr are mapped to the current
	// process's stdout and stderr.
	Verbose bool
}

// Default provides sane defaults for a design run. The sampling temperature
// and seed match the settings evaluation campaigns are run with.
var Default = Config{
	Python:       "python",
	Dir:          "ProteinMPNN",
	NumSeqs:      8,
	BatchSize:    1,
	SamplingTemp: 0.1,
	Seed:         33,
	Device:       -1,
}

func (conf Config) script(name string) string {
	return path.Join(conf.Dir, name)
}

// ParseChains converts every structure under pdbDir into the tool's JSONL
// input format at outJsonl.
func (conf Config) ParseChains(pdbDir, outJsonl string) error {
	return conf.run(
		conf.script("helper_scripts/parse_multiple_chains.py"),
		"--input_path", pdbDir,
		"--output_path", outJsonl,
	)
}

// FixPositions writes a fixed-positions JSONL for the parsed structures,
// pinning the given positions on the given chains. chains is a space-joined
// chain list ("A" or "A B"); positions is a space-joined list of 1-based
// design positions ("16 17 18").
func (conf Config) FixPositions(parsedJsonl, outJsonl, chains, positions string) error {
	return conf.run(
		conf.script("helper_scripts/make_fixed_positions_dict.py"),
		"--input_path", parsedJsonl,
		"--output_path", outJsonl,
		"--chain_list", chains,
		"--position_list", positions,
	)
}

// Design runs sequence design over the parsed structures, writing a
// seqs/<name>.fa file under outDir for every backbone in parsedJsonl.
// fixedJsonl is optional; when non-empty, the positions it pins keep their
// original identities.
func (conf Config) Design(outDir, parsedJsonl, fixedJsonl string) error {
	args := []string{
		conf.script("protein_mpnn_run.py"),
		"--out_folder", outDir,
		"--jsonl_path", parsedJsonl,
		"--num_seq_per_target", strconv.Itoa(conf.NumSeqs),
		"--sampling_temp", strconv.FormatFloat(conf.SamplingTemp, 'g', -1, 64),
		"--seed", strconv.Itoa(conf.Seed),
		"--batch_size", strconv.Itoa(conf.BatchSize),
	}
	if len(fixedJsonl) > 0 {
		args = append(args, "--fixed_positions_jsonl", fixedJsonl)
	}
	if conf.Device >= 0 {
		args = append(args, "--device", strconv.Itoa(conf.Device))
	}
	if conf.CaOnly {
		args = append(args, "--ca_only")
	}
	return conf.run(args...)
}

// SeqsFile returns the path of the FASTA that Design writes for a backbone.
func SeqsFile(outDir, backboneName string) string {
	return path.Join(outDir, "seqs", backboneName+".fa")
}

func (conf Config) run(args ...string) error {
	c := cmd.New(conf.Python, args...)
	if conf.Verbose {
		fmt.Fprintf(os.Stderr, "\n%s\n", c)
		c.Cmd.Stdout = os.Stdout
		c.Cmd.Stderr = os.Stderr
	}
	return c.Run()
}
