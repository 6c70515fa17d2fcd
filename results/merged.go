package results

import (
	"encoding/csv"
	"os"
	"strconv"
)

// WriteMerged writes merged rows as one CSV table. The motif and novelty
// columns appear only when some row carries them, mirroring how the
// per-backbone tables treat the motif column.
func WriteMerged(fpath string, rows []Row) error {
	withMotif, withNovelty := false, false
	for _, r := range rows {
		withMotif = withMotif || r.HasMotifRMSD
		withNovelty = withNovelty || r.HasPdbTM
	}

	f, err := os.Create(fpath)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	header := []string{"backbone_path", "folding_method", "sample_idx",
		"header", "sequence", "length", "mpnn_score", "rmsd"}
	if withMotif {
		header = append(header, "motif_rmsd")
	}
	header = append(header, "tm_score", "plddt", "ptm", "pae", "sample_path")
	if withNovelty {
		header = append(header, "pdb_tm")
	}
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}

	for _, r := range rows {
		record := []string{r.BackbonePath, r.Method,
			strconv.Itoa(r.Sample), r.Header, r.Sequence,
			strconv.Itoa(len(r.Sequence)), ftoa(r.MPNNScore), ftoa(r.RMSD)}
		if withMotif {
			record = append(record, optional(r.MotifRMSD, r.HasMotifRMSD))
		}
		record = append(record, ftoa(r.TMScore), ftoa(r.Plddt),
			ftoa(r.PTM), ftoa(r.PAE), r.SamplePath)
		if withNovelty {
			record = append(record, optional(r.PdbTM, r.HasPdbTM))
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ftoa(x float64) string {
	return strconv.FormatFloat(x, 'f', 3, 64)
}

// optional formats a value that not every row carries; rows without it get
// an empty cell.
func optional(x float64, has bool) string {
	if !has {
		return ""
	}
	return ftoa(x)
}
