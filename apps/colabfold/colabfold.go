// Package colabfold wraps the colabfold_batch executable and digests the
// output directory it leaves behind into per-sample models and confidence
// summaries.
package colabfold

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/cmd"
)

type Config struct {
	// Exec is the colabfold_batch executable.
	Exec string

	NumRecycle int
	RandomSeed int

	// ModelType names the weights to predict with, e.g. "alphafold2_ptm".
	ModelType string

	// NumModels is the number of models predicted per sequence. Cleanup
	// keeps only the best ranked one, so 1 is the economical choice.
	NumModels int

	// AmberRelax turns on Amber relaxation of the predicted models.
	// NumRelax bounds how many models are relaxed, and UseGPURelax moves
	// the relaxation onto the accelerator.
	AmberRelax  bool
	NumRelax    int
	UseGPURelax bool

	// When true, the tool's stdout and stderr are mapped to the current
	// process's stdout and stderr.
	Verbose bool
}

var Default = Config{
	Exec:       "colabfold_batch",
	NumRecycle: 3,
	RandomSeed: 33,
	ModelType:  "alphafold2_ptm",
	NumModels:  1,
}

// Run predicts a structure for every record of fastaPath, writing the tool's
// raw outputs under rawDir. Predictions run from single sequences, with no
// MSA search.
func (conf Config) Run(fastaPath, rawDir string) error {
	if err := os.MkdirAll(rawDir, 0777); err != nil {
		return err
	}
	args := []string{
		fastaPath, rawDir,
		"--msa-mode", "single_sequence",
		"--num-recycle", strconv.Itoa(conf.NumRecycle),
		"--random-seed", strconv.Itoa(conf.RandomSeed),
		"--model-type", conf.ModelType,
		"--num-models", strconv.Itoa(conf.NumModels),
	}
	if conf.AmberRelax {
		args = append(args, "--amber", "--num-relax", strconv.Itoa(conf.NumRelax))
		if conf.UseGPURelax {
			args = append(args, "--use-gpu-relax")
		}
	}
	c := cmd.New(conf.Exec, args...)
	if conf.Verbose {
		fmt.Fprintf(os.Stderr, "\n%s\n", c)
		c.Cmd.Stdout = os.Stdout
		c.Cmd.Stderr = os.Stderr
	}
	return c.Run()
}
