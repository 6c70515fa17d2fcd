// Package results merges per-backbone evaluation tables into one
// project-wide table and computes the summary statistics reported for an
// evaluation campaign: designability, diversity and novelty.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Success thresholds. These are fixed domain constants, not knobs: a
// backbone is designable when some sequence refolds within BackboneRMSDMax
// of it and, if a motif was evaluated, keeps the motif within MotifRMSDMax.
const (
	BackboneRMSDMax = 2.0
	MotifRMSDMax    = 1.0
)

// Row is one merged evaluation record: the scored fields of a results table
// row plus the backbone it belongs to and the backend that folded it.
type Row struct {
	// BackbonePath locates the evaluated backbone's structure file.
	// Empty when the backbone directory held none, which is recorded, not
	// an error.
	BackbonePath string

	// Method is the folding backend, from the joint table's
	// folding_method column or, for per-backend tables, the table prefix.
	Method string

	Sample    int
	Header    string
	Sequence  string
	MPNNScore float64
	RMSD      float64

	// MotifRMSD is meaningful only when HasMotifRMSD is set; tables from
	// unconstrained evaluations have no motif column.
	MotifRMSD    float64
	HasMotifRMSD bool

	TMScore    float64
	Plddt      float64
	PTM        float64
	PAE        float64
	SamplePath string

	// PdbTM is the backbone's novelty score, filled in by FillNovelty
	// when a structure search ran.
	PdbTM    float64
	HasPdbTM bool
}

// Merge walks root for "<prefix>_eval_results.csv" tables (prefix is one of
// esm, af2 or joint) and concatenates their rows, tagging every row with the
// structure file of the backbone directory two levels up from the table.
// Exactly one structure file may live there: more than one is a fatal
// inconsistency, zero leaves the row's backbone reference empty. The second
// return value is the number of tables merged, which is the number of
// evaluated backbones.
func Merge(root, prefix string) ([]Row, int, error) {
	var paths []string
	want := prefix + "_eval_results.csv"
	err := filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && info.Name() == want {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sort.Strings(paths)

	var merged []Row
	for _, p := range paths {
		backbone, err := backboneFile(filepath.Dir(filepath.Dir(p)))
		if err != nil {
			return nil, 0, err
		}
		rows, err := readTable(p, prefix)
		if err != nil {
			return nil, 0, err
		}
		for i := range rows {
			rows[i].BackbonePath = backbone
		}
		merged = append(merged, rows...)
	}
	return merged, len(paths), nil
}

// backboneFile finds the single structure file of a backbone directory.
func backboneFile(dir string) (string, error) {
	pdbs, err := filepath.Glob(filepath.Join(dir, "*.pdb"))
	if err != nil {
		return "", err
	}
	switch len(pdbs) {
	case 0:
		return "", nil
	case 1:
		return pdbs[0], nil
	}
	return "", fmt.Errorf("Found %d structure files under '%s'; a backbone "+
		"directory must hold exactly one.", len(pdbs), dir)
}

// readTable loads one results CSV. Columns the evaluation may omit (the
// motif column, the joint table's backend tag) are optional; the scored
// columns are not.
func readTable(fpath, prefix string) ([]Row, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("Bad results table '%s': %s", fpath, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("Results table '%s' has no header row.", fpath)
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[name] = i
	}
	for _, required := range []string{"sample_idx", "sequence", "rmsd", "tm_score"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("Results table '%s' is missing the '%s' "+
				"column.", fpath, required)
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}
		num := func(name string) (float64, error) {
			s := get(name)
			if len(s) == 0 {
				return 0, nil
			}
			return strconv.ParseFloat(s, 64)
		}

		var row Row
		if row.Sample, err = strconv.Atoi(get("sample_idx")); err != nil {
			return nil, fmt.Errorf("Bad sample_idx in '%s': %s", fpath, err)
		}
		row.Header = get("header")
		row.Sequence = get("sequence")
		row.SamplePath = get("sample_path")
		row.Method = get("folding_method")
		if len(row.Method) == 0 {
			row.Method = prefix
		}

		numbers := []struct {
			name string
			dst  *float64
		}{
			{"mpnn_score", &row.MPNNScore},
			{"rmsd", &row.RMSD},
			{"tm_score", &row.TMScore},
			{"plddt", &row.Plddt},
			{"ptm", &row.PTM},
			{"pae", &row.PAE},
		}
		for _, n := range numbers {
			if *n.dst, err = num(n.name); err != nil {
				return nil, fmt.Errorf("Bad %s in '%s': %s", n.name, fpath, err)
			}
		}
		if s := get("motif_rmsd"); len(s) > 0 {
			if row.MotifRMSD, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("Bad motif_rmsd in '%s': %s", fpath, err)
			}
			row.HasMotifRMSD = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Hits classifies one row against the success thresholds.
type Hits struct {
	// Seq is the overall verdict: the backbone refolded and, when a
	// motif was evaluated, the motif held.
	Seq bool

	Backbone bool
	Motif    bool
}

// Criteria applies the fixed success thresholds to a row. A row without a
// motif RMSD passes the motif criterion vacuously, so its overall verdict
// reduces to the backbone one.
func Criteria(r Row) Hits {
	h := Hits{Backbone: r.RMSD < BackboneRMSDMax, Motif: true}
	if r.HasMotifRMSD {
		h.Motif = r.MotifRMSD < MotifRMSDMax
	}
	h.Seq = h.Backbone && h.Motif
	return h
}

// DesignableBackbones returns the backbones for which at least one row
// passes the overall success criterion, sorted by path. Rows without a
// backbone reference cannot be attributed and are skipped.
func DesignableBackbones(rows []Row) []string {
	seen := make(map[string]bool)
	for _, r := range rows {
		if len(r.BackbonePath) == 0 {
			continue
		}
		if Criteria(r).Seq {
			seen[r.BackbonePath] = true
		}
	}
	backbones := make([]string, 0, len(seen))
	for b := range seen {
		backbones = append(backbones, b)
	}
	sort.Strings(backbones)
	return backbones
}

// FillNovelty copies per-backbone novelty scores into the matching rows.
// Backbones the search produced nothing for keep an unset PdbTM.
func FillNovelty(rows []Row, scores map[string]float64) {
	for i := range rows {
		if tm, ok := scores[rows[i].BackbonePath]; ok {
			rows[i].PdbTM = tm
			rows[i].HasPdbTM = true
		}
	}
}
