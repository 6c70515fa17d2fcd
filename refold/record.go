package refold

import (
	"encoding/csv"
	"os"
	"strconv"
)

// Record is one evaluation row: a designed sequence, folded back by one
// backend and scored against its target backbone. Records are immutable
// once written to a table.
type Record struct {
	// Sample is the design's sample number; 0 is the original sequence.
	Sample int

	// Header is the design FASTA header, verbatim.
	Header   string
	Sequence string

	// Score is the design's global score from the sequence designer.
	Score float64

	// RMSD is the whole-backbone aligned RMSD between the refolded
	// structure and the target backbone. MotifRMSD is the same over motif
	// positions only; it is meaningful only when the evaluation ran with
	// a motif.
	RMSD      float64
	MotifRMSD float64

	// TMScore is normalized by the target backbone's length.
	TMScore float64

	Confidence

	// SamplePath is where the refolded structure lives.
	SamplePath string

	// Backend names the folding backend that produced this row.
	Backend string
}

// WriteTable writes records as a CSV results table. withMotif adds the
// motif_rmsd column; withBackend adds the folding_method column used by
// joint tables.
func WriteTable(fpath string, recs []Record, withMotif, withBackend bool) error {
	f, err := os.Create(fpath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"sample_idx", "header", "sequence", "length", "mpnn_score", "rmsd",
	}
	if withMotif {
		header = append(header, "motif_rmsd")
	}
	header = append(header, "tm_score", "plddt", "ptm", "pae", "sample_path")
	if withBackend {
		header = append(header, "folding_method")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range recs {
		row := []string{
			strconv.Itoa(rec.Sample),
			rec.Header,
			rec.Sequence,
			strconv.Itoa(len(rec.Sequence)),
			ftoa(rec.Score),
			ftoa(rec.RMSD),
		}
		if withMotif {
			row = append(row, ftoa(rec.MotifRMSD))
		}
		row = append(row,
			ftoa(rec.TMScore),
			ftoa(rec.Plddt),
			ftoa(rec.PTM),
			ftoa(rec.PAE),
			rec.SamplePath,
		)
		if withBackend {
			row = append(row, rec.Backend)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func ftoa(x float64) string {
	return strconv.FormatFloat(x, 'f', 3, 64)
}
