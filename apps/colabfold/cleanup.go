package colabfold

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Result is the best ranked prediction for one designed sequence.
type Result struct {
	// PDBPath is where Cleanup moved the model to.
	PDBPath string

	Plddt float64
	PTM   float64
	PAE   float64
}

// Cleanup digests a raw colabfold_batch output directory into outDir. The
// best ranked model of every sequence is copied to outDir/sample_<N>.pdb and
// its confidence JSON is reduced to a Result. Results are keyed by sample
// number.
//
// The tool derives its file names from the FASTA headers, so models of
// designed sequences look like "T_0.1__sample_3__score_..." while the
// original sequence's model keeps the backbone's own name. That prefix is
// what tells the two apart.
func Cleanup(rawDir, outDir string) (map[int]Result, error) {
	files, err := ioutil.ReadDir(rawDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0777); err != nil {
		return nil, err
	}

	results := make(map[int]Result)
	for _, file := range files {
		name := file.Name()
		if !strings.Contains(name, "rank_001") {
			continue
		}

		switch {
		case strings.HasSuffix(name, ".pdb"):
			sample, err := sampleNumber(name)
			if err != nil {
				return nil, err
			}
			model, err := ioutil.ReadFile(path.Join(rawDir, name))
			if err != nil {
				return nil, err
			}
			moved := path.Join(outDir, fmt.Sprintf("sample_%d.pdb", sample))
			if err := ioutil.WriteFile(moved, model, 0666); err != nil {
				return nil, err
			}

			r := results[sample]
			r.PDBPath = moved
			results[sample] = r
		case strings.HasSuffix(name, ".json") && strings.Contains(name, "scores"):
			sample, err := sampleNumber(name)
			if err != nil {
				return nil, err
			}
			plddt, ptm, pae, err := readScores(path.Join(rawDir, name))
			if err != nil {
				return nil, err
			}

			r := results[sample]
			r.Plddt, r.PTM, r.PAE = plddt, ptm, pae
			results[sample] = r
		}
	}
	return results, nil
}

// sampleNumber recovers a design's sample number from a raw output file
// name. Files for the original sequence keep the backbone's name; files for
// designed sequences start with the mangled sampling temperature "T_0" and
// carry the sample number between "sample_" and "__score".
func sampleNumber(name string) (int, error) {
	if !strings.HasPrefix(name, "T_0") {
		return 0, nil
	}
	after := strings.SplitN(name, "sample_", 2)
	if len(after) != 2 {
		return 0, fmt.Errorf("Output file '%s' has no sample number.", name)
	}
	digits := strings.SplitN(after[1], "__score", 2)
	if len(digits) != 2 {
		return 0, fmt.Errorf("Output file '%s' has no sample number.", name)
	}
	sample, err := strconv.Atoi(digits[0])
	if err != nil {
		return 0, fmt.Errorf("Output file '%s' has a bad sample number: %s",
			name, err)
	}
	return sample, nil
}

func readScores(fpath string) (plddt, ptm, pae float64, err error) {
	raw, err := ioutil.ReadFile(fpath)
	if err != nil {
		return 0, 0, 0, err
	}
	var scores struct {
		Plddt []float64   `json:"plddt"`
		PTM   float64     `json:"ptm"`
		PAE   [][]float64 `json:"pae"`
	}
	if err := json.Unmarshal(raw, &scores); err != nil {
		return 0, 0, 0, fmt.Errorf("Bad scores file '%s': %s", fpath, err)
	}

	var flat []float64
	for _, row := range scores.PAE {
		flat = append(flat, row...)
	}
	return mean(scores.Plddt), scores.PTM, mean(flat), nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
