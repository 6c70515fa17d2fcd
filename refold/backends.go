package refold

import (
	"github.com/xymeai/Scaffold-Lab/apps/colabfold"
	"github.com/xymeai/Scaffold-Lab/apps/esmfold"
	"github.com/xymeai/Scaffold-Lab/apps/proteinmpnn"
	"github.com/xymeai/Scaffold-Lab/seq"
)

// Designer produces candidate sequences for backbones. Implementations are
// external sequence-design tools; the contract over the claimed directory
// is fixed: Design writes one "seqs/<backbone name>.fa" under outDir per
// backbone in parsedJsonl, where each record header carries design scores in
// the grammar proteinmpnn.ParseScores understands.
type Designer interface {
	// ParseChains converts the structures under pdbDir into the designer's
	// input format at parsedJsonl.
	ParseChains(pdbDir, parsedJsonl string) error

	// FixPositions writes a fixed-positions file pinning positions
	// (space-joined 1-based indices) on chains (space-joined letters).
	FixPositions(parsedJsonl, fixedJsonl, chains, positions string) error

	// Design writes designed sequences under outDir. fixedJsonl may be
	// empty, in which case every position is designable.
	Design(outDir, parsedJsonl, fixedJsonl string) error
}

// Confidence bundles a folding backend's self-reported quality estimates
// for one predicted structure: the mean per-residue confidence, the global
// topology confidence and the mean pairwise error. Values are copied
// through to result tables unchanged.
type Confidence struct {
	Plddt float64
	PTM   float64
	PAE   float64
}

// SequenceFolder is a structure-prediction backend invoked once per
// sequence.
type SequenceFolder interface {
	Fold(s seq.Sequence, outPDB string) (Confidence, error)
}

// BatchFolder is a structure-prediction backend invoked once per FASTA,
// leaving raw outputs that Cleanup digests into per-sample predictions.
type BatchFolder interface {
	Fold(fastaPath, rawDir string) error

	// Cleanup normalizes the raw outputs under rawDir into
	// outDir/sample_<N>.pdb files and returns the predictions keyed by
	// sample number.
	Cleanup(rawDir, outDir string) (map[int]Prediction, error)
}

// Prediction is one cleaned-up batch-folding output.
type Prediction struct {
	PDBPath string
	Confidence
}

// ESMFold adapts the esmfold wrapper to the SequenceFolder interface.
type ESMFold struct {
	Conf esmfold.Config
}

func (f ESMFold) Fold(s seq.Sequence, outPDB string) (Confidence, error) {
	r, err := f.Conf.Fold(s, outPDB)
	return Confidence{Plddt: r.Plddt, PTM: r.PTM, PAE: r.PAE}, err
}

// ColabFold adapts the colabfold wrapper to the BatchFolder interface.
type ColabFold struct {
	Conf colabfold.Config
}

func (f ColabFold) Fold(fastaPath, rawDir string) error {
	return f.Conf.Run(fastaPath, rawDir)
}

func (f ColabFold) Cleanup(rawDir, outDir string) (map[int]Prediction, error) {
	results, err := colabfold.Cleanup(rawDir, outDir)
	if err != nil {
		return nil, err
	}
	preds := make(map[int]Prediction, len(results))
	for sample, r := range results {
		preds[sample] = Prediction{
			PDBPath:    r.PDBPath,
			Confidence: Confidence{Plddt: r.Plddt, PTM: r.PTM, PAE: r.PAE},
		}
	}
	return preds, nil
}

var (
	_ Designer       = proteinmpnn.Config{}
	_ SequenceFolder = ESMFold{}
	_ BatchFolder    = ColabFold{}
)
