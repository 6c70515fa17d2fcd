package motif

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Table indexes per-design motif information read from a CSV file. The file
// must carry a header row with at least the columns pdb_name, sample_num and
// contig; a redesign_positions column is optional. This is the table format
// written by the motif-info tool from sampler logs.
type Table struct {
	rows map[string]Info
}

func tableKey(name string, sample int) string {
	return fmt.Sprintf("%s_%d", name, sample)
}

// ReadTable reads a motif information table from a CSV file.
func ReadTable(fpath string) (*Table, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("Error reading motif table '%s': %s", fpath, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("Motif table '%s' is empty.", fpath)
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"pdb_name", "sample_num", "contig"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("Motif table '%s' is missing the '%s' "+
				"column.", fpath, required)
		}
	}

	tbl := &Table{rows: make(map[string]Info, len(records)-1)}
	for _, rec := range records[1:] {
		name := strings.TrimSuffix(strings.TrimSpace(rec[col["pdb_name"]]), ".pdb")
		sample, err := strconv.Atoi(strings.TrimSpace(rec[col["sample_num"]]))
		if err != nil {
			return nil, fmt.Errorf("Bad sample_num for '%s' in motif table "+
				"'%s': %s", name, fpath, err)
		}
		inf := Info{
			Name:      name,
			SampleNum: sample,
			Contig:    strings.TrimSpace(rec[col["contig"]]),
		}
		if i, ok := col["redesign_positions"]; ok && i < len(rec) {
			inf.Redesign = strings.TrimSpace(rec[i])
		}
		tbl.rows[tableKey(name, sample)] = inf
	}
	return tbl, nil
}

// Len returns the number of designs in the table.
func (t *Table) Len() int {
	return len(t.rows)
}

// Lookup returns the motif information for the given design name and sample
// number.
func (t *Table) Lookup(name string, sample int) (Info, bool) {
	inf, ok := t.rows[tableKey(name, sample)]
	return inf, ok
}

// LookupFile resolves a backbone file named "{name}_{sample}.pdb". The
// sample number is taken from the part after the last underscore, so design
// names may themselves contain underscores.
func (t *Table) LookupFile(fname string) (Info, bool) {
	base := filepath.Base(fname)
	base = strings.TrimSuffix(base, ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))

	i := strings.LastIndexByte(base, '_')
	if i < 0 {
		return Info{}, false
	}
	sample, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return Info{}, false
	}
	return t.Lookup(base[:i], sample)
}
