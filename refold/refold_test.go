package refold

import (
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xymeai/Scaffold-Lab/apps/proteinmpnn"
	"github.com/xymeai/Scaffold-Lab/contig"
	"github.com/xymeai/Scaffold-Lab/io/fasta"
	"github.com/xymeai/Scaffold-Lab/io/pdb"
	"github.com/xymeai/Scaffold-Lab/motif"
	"github.com/xymeai/Scaffold-Lab/seq"
)

// fakeDesigner designs three sequences per backbone in the scored FASTA
// grammar: the original at index 0 and two samples.
type fakeDesigner struct {
	// failDesigns makes the first n Design calls fail.
	failDesigns int

	parseCalls  int
	fixCalls    int
	designCalls int

	// The chain and position lists FixPositions received.
	chains    string
	positions string
}

func (d *fakeDesigner) ParseChains(pdbDir, parsedJsonl string) error {
	d.parseCalls++
	return ioutil.WriteFile(parsedJsonl, []byte("{}\n"), 0666)
}

func (d *fakeDesigner) FixPositions(parsedJsonl, fixedJsonl, chains, positions string) error {
	d.fixCalls++
	d.chains, d.positions = chains, positions
	return ioutil.WriteFile(fixedJsonl, []byte("{}\n"), 0666)
}

func (d *fakeDesigner) Design(outDir, parsedJsonl, fixedJsonl string) error {
	d.designCalls++
	if d.designCalls <= d.failDesigns {
		return fmt.Errorf("designer crashed")
	}
	files, err := ioutil.ReadDir(outDir)
	if err != nil {
		return err
	}
	seqsDir := path.Join(outDir, "seqs")
	if err := os.MkdirAll(seqsDir, 0777); err != nil {
		return err
	}
	for _, f := range files {
		if !strings.HasSuffix(f.Name(), ".pdb") {
			continue
		}
		name := strings.TrimSuffix(f.Name(), ".pdb")
		fa := ">" + name + ", score=1.2000, global_score=1.2000, " +
			"fixed_chains=[], designed_chains=['A'], model_name=v_48_020, " +
			"seed=33\nMKVLATLREM\n" +
			">T=0.1, sample=1, score=0.9000, global_score=0.9500, " +
			"seq_recovery=0.5000\nMKVLATLREG\n" +
			">T=0.1, sample=2, score=0.8000, global_score=0.8500, " +
			"seq_recovery=0.5000\nMKVLATLREA\n"
		err := ioutil.WriteFile(path.Join(seqsDir, name+".fa"), []byte(fa), 0666)
		if err != nil {
			return err
		}
	}
	return nil
}

// fakeESM "folds" by copying a template structure, so refolded and target
// coordinates agree exactly.
type fakeESM struct {
	template string
	folds    int
}

func (f *fakeESM) Fold(s seq.Sequence, outPDB string) (Confidence, error) {
	f.folds++
	if err := copyFile(outPDB, f.template); err != nil {
		return Confidence{}, err
	}
	return Confidence{Plddt: 88.5, PTM: 0.9, PAE: 3.25}, nil
}

// fakeAF2 records the FASTA it was fed and serves one template copy per
// record in it.
type fakeAF2 struct {
	template   string
	folds      int
	fastaGiven string
}

func (f *fakeAF2) Fold(fastaPath, rawDir string) error {
	f.folds++
	f.fastaGiven = fastaPath
	return os.MkdirAll(rawDir, 0777)
}

func (f *fakeAF2) Cleanup(rawDir, outDir string) (map[int]Prediction, error) {
	if err := os.MkdirAll(outDir, 0777); err != nil {
		return nil, err
	}
	seqs, err := fasta.Read(f.fastaGiven)
	if err != nil {
		return nil, err
	}
	scores, err := proteinmpnn.ParseScores(seqs)
	if err != nil {
		return nil, err
	}
	preds := make(map[int]Prediction)
	for _, sc := range scores {
		p := path.Join(outDir, fmt.Sprintf("sample_%d.pdb", sc.Sample))
		if err := copyFile(p, f.template); err != nil {
			return nil, err
		}
		preds[sc.Sample] = Prediction{
			PDBPath:    p,
			Confidence: Confidence{Plddt: 77.0, PTM: 0.8, PAE: 5.5},
		}
	}
	return preds, nil
}

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "refold-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func atomLine(serial int, name, resName string, chain byte, seqNum int,
	x, y, z float64) string {

	if len(name) < 4 {
		name = " " + name
	}
	return fmt.Sprintf("ATOM  %5d %-4s %3s %c%4d    %8.3f%8.3f%8.3f",
		serial, name, resName, chain, seqNum, x, y, z)
}

// writeBackbone writes an n-residue CA trace and returns its path.
func writeBackbone(t *testing.T, dir, name string, n int) string {
	t.Helper()
	lines := make([]string, 0, n+1)
	for i := 0; i < n; i++ {
		x := 1.5 * float64(i)
		y := 2.0 * math.Sin(0.7*float64(i))
		z := 2.0 * math.Cos(0.3*float64(i))
		lines = append(lines, atomLine(i+1, "CA", "ALA", 'A', i+1, x, y, z))
	}
	lines = append(lines, "END")
	fpath := path.Join(dir, name)
	body := strings.Join(lines, "\n") + "\n"
	require.NoError(t, ioutil.WriteFile(fpath, []byte(body), 0666))
	return fpath
}

func TestEvaluatePipeline(t *testing.T) {
	dir := tempDir(t)
	backbone := writeBackbone(t, dir, "2KL8.pdb", 10)
	c, err := contig.Parse("2/A3-5/5")
	require.NoError(t, err)

	des := &fakeDesigner{}
	esm := &fakeESM{template: backbone}
	af2 := &fakeAF2{template: backbone}
	flushes := 0
	r := &Refolder{
		Designer: des,
		ESM:      esm,
		AF2:      af2,
		Device:   Device{ID: -1, Flush: func() { flushes++ }},
		Tries:    1,
	}

	outDir := path.Join(dir, "out", "2KL8")
	res, err := r.Evaluate(backbone, outDir, &Motif{Contig: c})
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.Len(t, res.ESM, 3)
	require.Len(t, res.AF2, 3)

	// The original comes first, then samples in file order.
	for i, want := range []int{0, 1, 2} {
		require.Equal(t, want, res.ESM[i].Sample)
		require.Equal(t, want, res.AF2[i].Sample)
	}

	// Refolding with the exact target coordinates scores perfectly.
	og := res.ESM[0]
	require.Equal(t, "MKVLATLREM", og.Sequence)
	require.Equal(t, 1.2, og.Score)
	require.InDelta(t, 0.0, og.RMSD, 1e-6)
	require.InDelta(t, 1.0, og.TMScore, 1e-6)
	require.InDelta(t, 0.0, og.MotifRMSD, 1e-6)
	require.Equal(t, 88.5, og.Plddt)
	require.Equal(t, 0.9, og.PTM)
	require.Equal(t, 3.25, og.PAE)
	require.Equal(t, "esm", og.Backend)

	require.Equal(t, 77.0, res.AF2[0].Plddt)
	require.Equal(t, "af2", res.AF2[0].Backend)

	// The designer saw the motif as fixed positions on chain A.
	require.Equal(t, 1, des.fixCalls)
	require.Equal(t, "A", des.chains)
	require.Equal(t, "3 4 5", des.positions)

	// Tables on disk: per-backend with the motif column, joint with the
	// backend tag.
	scDir := path.Join(outDir, "self_consistency")
	for _, csvName := range []string{
		"esm_eval_results.csv", "af2_eval_results.csv", "joint_eval_results.csv",
	} {
		body, err := ioutil.ReadFile(path.Join(scDir, csvName))
		require.NoError(t, err)
		require.Contains(t, string(body), "motif_rmsd")
	}
	joint, err := ioutil.ReadFile(path.Join(scDir, "joint_eval_results.csv"))
	require.NoError(t, err)
	require.Contains(t, string(joint), "folding_method")
	require.Equal(t, 7, strings.Count(string(joint), "\n"))

	// The aggregator copy carries the motif in its HEADER.
	stamped, err := pdb.Read(path.Join(outDir, "2KL8.pdb"))
	require.NoError(t, err)
	inf, err := motif.FromHeader(stamped)
	require.NoError(t, err)
	require.Equal(t, "2KL8", inf.Name)
	require.Equal(t, "2/A3-5/5", inf.Contig)

	// One batch fold, one sequence fold per record, no device flushes on
	// the happy path.
	require.Equal(t, 3, esm.folds)
	require.Equal(t, 1, af2.folds)
	require.Equal(t, 0, flushes)
}

func TestEvaluateTopKSelection(t *testing.T) {
	dir := tempDir(t)
	backbone := writeBackbone(t, dir, "5TRV.pdb", 10)

	des := &fakeDesigner{}
	af2 := &fakeAF2{template: backbone}
	r := &Refolder{Designer: des, AF2: af2, Tries: 1, TopK: 1}

	res, err := r.Evaluate(backbone, path.Join(dir, "out", "5TRV"), nil)
	require.NoError(t, err)

	// Original plus the single best-scoring sample (sample 2 at 0.85).
	require.Len(t, res.AF2, 2)
	require.Equal(t, 0, res.AF2[0].Sample)
	require.Equal(t, 2, res.AF2[1].Sample)

	// The batch backend was fed the filtered FASTA, not the full one.
	require.Contains(t, af2.fastaGiven, "top_score_5TRV.fa")
	seqs, err := fasta.Read(af2.fastaGiven)
	require.NoError(t, err)
	require.Len(t, seqs, 2)
	require.Contains(t, seqs[1].Name, "sample=2")

	// No motif: the per-backend table has no motif column and no fixed
	// positions were ever pinned.
	require.Equal(t, 0, des.fixCalls)
	body, err := ioutil.ReadFile(path.Join(
		dir, "out", "5TRV", "self_consistency", "af2_eval_results.csv"))
	require.NoError(t, err)
	require.NotContains(t, string(body), "motif_rmsd")
}

func TestEvaluateSkipsPopulated(t *testing.T) {
	dir := tempDir(t)
	backbone := writeBackbone(t, dir, "2KL8.pdb", 10)

	outDir := path.Join(dir, "out", "2KL8")
	require.NoError(t, os.MkdirAll(outDir, 0777))
	marker := path.Join(outDir, "self_consistency")
	require.NoError(t, os.MkdirAll(marker, 0777))

	des := &fakeDesigner{}
	esm := &fakeESM{template: backbone}
	r := &Refolder{Designer: des, ESM: esm, Tries: 1}

	res, err := r.Evaluate(backbone, outDir, nil)
	require.NoError(t, err)
	require.True(t, res.Skipped)
	require.Empty(t, res.ESM)

	// Zero external invocations and an untouched directory.
	require.Equal(t, 0, des.parseCalls)
	require.Equal(t, 0, des.designCalls)
	require.Equal(t, 0, esm.folds)
	entries, err := ioutil.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestEvaluateRetriesDesigner(t *testing.T) {
	dir := tempDir(t)
	backbone := writeBackbone(t, dir, "2KL8.pdb", 10)

	des := &fakeDesigner{failDesigns: 4}
	esm := &fakeESM{template: backbone}
	flushes := 0
	r := &Refolder{
		Designer: des,
		ESM:      esm,
		Device:   Device{Flush: func() { flushes++ }},
		Tries:    5,
	}

	res, err := r.Evaluate(backbone, path.Join(dir, "out", "2KL8"), nil)
	require.NoError(t, err)
	require.Len(t, res.ESM, 3)

	// Four failures, success on attempt five, a flush after each failure.
	require.Equal(t, 5, des.designCalls)
	require.Equal(t, 4, flushes)
}

func TestEvaluateRetryBoundExhausted(t *testing.T) {
	dir := tempDir(t)
	backbone := writeBackbone(t, dir, "2KL8.pdb", 10)

	des := &fakeDesigner{failDesigns: 5}
	esm := &fakeESM{template: backbone}
	r := &Refolder{Designer: des, ESM: esm, Tries: 5}

	outDir := path.Join(dir, "out", "2KL8")
	_, err := r.Evaluate(backbone, outDir, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Sequence design")

	// Attempt six is never made, nothing was folded and no partial table
	// was written.
	require.Equal(t, 5, des.designCalls)
	require.Equal(t, 0, esm.folds)
	_, statErr := os.Stat(path.Join(outDir, "self_consistency", "esm_eval_results.csv"))
	require.True(t, os.IsNotExist(statErr))
}

func TestEvaluateMaskMismatch(t *testing.T) {
	dir := tempDir(t)
	backbone := writeBackbone(t, dir, "2KL8.pdb", 10)

	// A 7-position contig over a 10-residue backbone must fail loudly at
	// scoring, never silently truncate.
	c, err := contig.Parse("2/A3-5/2")
	require.NoError(t, err)

	des := &fakeDesigner{}
	esm := &fakeESM{template: backbone}
	r := &Refolder{Designer: des, ESM: esm, Tries: 1}

	_, err = r.Evaluate(backbone, path.Join(dir, "out", "2KL8"), &Motif{Contig: c})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Motif mask")
}

func TestSelectTopK(t *testing.T) {
	mk := func(sample int, global float64) proteinmpnn.SeqScore {
		return proteinmpnn.SeqScore{Sample: sample, GlobalScore: global}
	}
	scores := []proteinmpnn.SeqScore{
		{Sample: 0, Original: true, GlobalScore: 1.5},
		mk(1, 0.9), mk(2, 0.7), mk(3, 1.1),
	}

	// k <= 0 keeps file order.
	require.Equal(t, scores, SelectTopK(scores, 0))

	// The original survives at index 0 even though it scores worst;
	// designed sequences come back in ascending score order.
	top2 := SelectTopK(scores, 2)
	require.Len(t, top2, 3)
	require.True(t, top2[0].Original)
	require.Equal(t, 2, top2[1].Sample)
	require.Equal(t, 1, top2[2].Sample)

	// A k beyond the number of designs keeps them all, ranked.
	all := SelectTopK(scores, 10)
	require.Len(t, all, 4)
	require.Equal(t, []int{0, 2, 1, 3},
		[]int{all[0].Sample, all[1].Sample, all[2].Sample, all[3].Sample})

	// The input order is untouched.
	require.Equal(t, 1, scores[1].Sample)
}
