// Package esmfold wraps an ESMFold inference executable. The executable
// takes a FASTA and an output directory, and writes one model PDB plus one
// confidence JSON per record.
package esmfold

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strconv"

	"github.com/BurntSushi/cmd"
	"gonum.org/v1/gonum/stat"

	"github.com/xymeai/Scaffold-Lab/io/fasta"
	"github.com/xymeai/Scaffold-Lab/seq"
)

type Config struct {
	// Exec is the inference executable.
	Exec string

	// Device is the accelerator ordinal passed to the tool. A negative
	// value lets the tool pick for itself.
	Device int

	// When true, the tool's stdout and stderr are mapped to the current
	// process's stdout and stderr.
	Verbose bool
}

var Default = Config{
	Exec:   "esm-fold",
	Device: -1,
}

// Result carries the confidence summary of one folded sequence: the mean
// predicted LDDT, the predicted TM-score and the mean predicted aligned
// error.
type Result struct {
	Plddt float64
	PTM   float64
	PAE   float64
}

// Fold predicts the structure of a single sequence, writes the model to
// outPDB and returns the confidence summary the tool left beside it.
func (conf Config) Fold(s seq.Sequence, outPDB string) (Result, error) {
	tempDir, err := ioutil.TempDir("", "esmfold")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tempDir)

	// The record name becomes the tool's output file name, so use a fixed
	// one rather than the score-laden design header.
	query := path.Join(tempDir, "query.fasta")
	err = fasta.Write(query, []seq.Sequence{seq.New("query", s.String())})
	if err != nil {
		return Result{}, err
	}

	args := []string{"-i", query, "-o", tempDir}
	if conf.Device >= 0 {
		args = append(args, "--device", strconv.Itoa(conf.Device))
	}
	c := cmd.New(conf.Exec, args...)
	if conf.Verbose {
		fmt.Fprintf(os.Stderr, "\n%s\n", c)
		c.Cmd.Stdout = os.Stdout
		c.Cmd.Stderr = os.Stderr
	}
	if err := c.Run(); err != nil {
		return Result{}, err
	}

	model, err := ioutil.ReadFile(path.Join(tempDir, "query.pdb"))
	if err != nil {
		return Result{}, fmt.Errorf("Could not read the model written by "+
			"'%s': %s", conf.Exec, err)
	}
	if err := ioutil.WriteFile(outPDB, model, 0666); err != nil {
		return Result{}, err
	}
	return ReadResult(path.Join(tempDir, "query.json"))
}

// ReadResult loads a confidence JSON. Its "plddt" and "pae" fields may be
// scalars, per-residue vectors or residue-pair matrices; vectors and
// matrices are reduced to their means.
func ReadResult(fpath string) (Result, error) {
	raw, err := ioutil.ReadFile(fpath)
	if err != nil {
		return Result{}, fmt.Errorf("Could not read confidence summary: %s", err)
	}
	var fields struct {
		Plddt json.RawMessage `json:"plddt"`
		PTM   float64         `json:"ptm"`
		PAE   json.RawMessage `json:"pae"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Result{}, fmt.Errorf("Bad confidence summary '%s': %s", fpath, err)
	}

	r := Result{PTM: fields.PTM}
	if r.Plddt, err = meanOf(fields.Plddt); err != nil {
		return Result{}, fmt.Errorf("Bad plddt in '%s': %s", fpath, err)
	}
	if r.PAE, err = meanOf(fields.PAE); err != nil {
		return Result{}, fmt.Errorf("Bad pae in '%s': %s", fpath, err)
	}
	return r, nil
}

// meanOf reduces a JSON number, vector of numbers or matrix of numbers to a
// single mean. A missing field reduces to zero.
func meanOf(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, nil
	}

	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return scalar, nil
	}

	var vector []float64
	if err := json.Unmarshal(raw, &vector); err == nil {
		return mean(vector), nil
	}

	var matrix [][]float64
	if err := json.Unmarshal(raw, &matrix); err != nil {
		return 0, err
	}
	var flat []float64
	for _, row := range matrix {
		flat = append(flat, row...)
	}
	return mean(flat), nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
