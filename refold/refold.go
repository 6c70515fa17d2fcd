// Package refold drives self-consistency evaluation of designed protein
// backbones: design sequences for a backbone, fold them back with one or two
// prediction backends, and score each refolded structure against the target
// shape. External tools are retried within a fixed bound; a backbone whose
// output directory is already populated is never re-evaluated.
package refold

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/xymeai/Scaffold-Lab/apps/proteinmpnn"
	"github.com/xymeai/Scaffold-Lab/contig"
	"github.com/xymeai/Scaffold-Lab/io/fasta"
	"github.com/xymeai/Scaffold-Lab/io/pdb"
	"github.com/xymeai/Scaffold-Lab/motif"
	"github.com/xymeai/Scaffold-Lab/rmsd"
	"github.com/xymeai/Scaffold-Lab/seq"
)

// State names a backbone's progress through the evaluation pipeline.
type State int

const (
	Pending State = iota
	SequencesGenerated
	Folded
	Scored
	Done
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case SequencesGenerated:
		return "SEQUENCES_GENERATED"
	case Folded:
		return "FOLDED"
	case Scored:
		return "SCORED"
	case Done:
		return "DONE"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Motif is the optional per-backbone constraint: the contig telling which
// positions are motif (fixed during design, scored separately) and a
// redesign spec carving positions back out of the fixed set.
type Motif struct {
	Contig   contig.Contig
	Redesign string
}

// A Refolder evaluates backbones one at a time. Each evaluation runs its
// external steps to completion in order; there is no overlap between
// sequence design and folding within one backbone.
type Refolder struct {
	Designer Designer

	// ESM and AF2 are the two folding backends. Either may be nil to
	// skip it, but at least one must be set.
	ESM SequenceFolder
	AF2 BatchFolder

	// Device is the accelerator handle flushed between retries of a
	// failing external call.
	Device Device

	// Tries bounds every external step's attempts (DefaultTries when not
	// positive); Wait is the base of the linear backoff between attempts.
	Tries int
	Wait  time.Duration

	// TopK, when positive, folds only the best TopK designed sequences
	// by ascending design score. The original sequence is always folded,
	// and always first.
	TopK int

	// Verbosef, when set, receives progress lines (state transitions,
	// skip notices).
	Verbosef func(format string, v ...interface{})
}

// Result is the outcome of one backbone evaluation.
type Result struct {
	// Dir is the backbone's output directory, which doubles as the claim
	// marker against duplicate work.
	Dir string

	// Skipped reports that Dir was already populated, so no external
	// tool was invoked and no table was rewritten.
	Skipped bool

	// ESM and AF2 hold one record per folded sequence, in fold order,
	// for whichever backends ran.
	ESM []Record
	AF2 []Record
}

// Evaluate runs one backbone through the pipeline, writing everything under
// outDir/self_consistency: the backbone copy, designer inputs and outputs,
// per-sample refolded structures and the per-backend results tables (plus a
// joint table tagged by backend when both backends ran). m may be nil for
// unconstrained designs.
//
// If outDir already exists and is non-empty the backbone counts as done:
// Evaluate returns a skipped Result without invoking any external tool.
func (r *Refolder) Evaluate(backbonePath, outDir string, m *Motif) (*Result, error) {
	if r.Designer == nil {
		return nil, fmt.Errorf("A Refolder needs a Designer.")
	}
	if r.ESM == nil && r.AF2 == nil {
		return nil, fmt.Errorf("A Refolder needs at least one folding backend.")
	}

	res := &Result{Dir: outDir}
	if populated(outDir) {
		r.logf("%s: output directory already populated; skipping", outDir)
		res.Skipped = true
		return res, nil
	}

	name := baseName(backbonePath)
	scDir := path.Join(outDir, "self_consistency")
	if err := os.MkdirAll(scDir, 0777); err != nil {
		return nil, err
	}
	r.logf("%s: %s", name, Pending)

	entry, err := pdb.Read(backbonePath)
	if err != nil {
		return nil, err
	}
	refCas := entry.CaAtoms()
	var chains []string
	for _, ch := range entry.Chains {
		chains = append(chains, string(ch.Ident))
	}

	var mask contig.Mask
	if m != nil {
		_, _, mask = m.Contig.Mask()
	}

	// Two copies of the backbone: one at the directory root, where the
	// aggregator expects exactly one structure file per backbone, and one
	// inside the designer's input directory.
	rootCopy := path.Join(outDir, path.Base(backbonePath))
	if err := copyFile(rootCopy, backbonePath); err != nil {
		return nil, err
	}
	if err := copyFile(path.Join(scDir, path.Base(backbonePath)), backbonePath); err != nil {
		return nil, err
	}
	if m != nil {
		// The root copy carries the motif in its HEADER, so a results
		// directory stays interpretable without the table that produced it.
		inf := motif.Info{Name: name, Contig: m.Contig.String(), Redesign: m.Redesign}
		if err := pdb.StampHeader(rootCopy, inf.HeaderString()); err != nil {
			return nil, err
		}
	}

	// PENDING -> SEQUENCES_GENERATED. Only the design run itself is
	// retried; the helper conversions are cheap and deterministic.
	parsed := path.Join(scDir, "parsed_pdbs.jsonl")
	if err := r.Designer.ParseChains(scDir, parsed); err != nil {
		return nil, fmt.Errorf("Parsing chains of '%s' failed: %s", name, err)
	}
	fixedJsonl := ""
	if m != nil {
		fixed := motif.FixedPositions(m.Contig)
		if len(m.Redesign) > 0 {
			if fixed, err = motif.ApplyRedesign(fixed, m.Redesign); err != nil {
				return nil, err
			}
		}
		// No fixed positions left is legitimate: design runs
		// unconstrained.
		if len(fixed) > 0 {
			fixedJsonl = path.Join(scDir, "fixed_pdbs.jsonl")
			err := r.Designer.FixPositions(parsed, fixedJsonl,
				strings.Join(chains, " "), motif.FixedPositionString(fixed))
			if err != nil {
				return nil, fmt.Errorf("Fixing positions of '%s' failed: %s",
					name, err)
			}
		}
	}
	err = Attempt(r.tries(), r.Wait, func() error {
		return r.Designer.Design(scDir, parsed, fixedJsonl)
	}, r.Device.flush)
	if err != nil {
		return nil, fmt.Errorf("Sequence design for '%s' failed: %s", name, err)
	}
	r.logf("%s: %s", name, SequencesGenerated)

	seqs, err := fasta.Read(path.Join(scDir, "seqs", name+".fa"))
	if err != nil {
		return nil, err
	}
	scores, err := proteinmpnn.ParseScores(seqs)
	if err != nil {
		return nil, err
	}
	selected := SelectTopK(scores, r.TopK)

	// SEQUENCES_GENERATED -> FOLDED.
	esmPaths := make(map[int]string, len(selected))
	esmConfs := make(map[int]Confidence, len(selected))
	if r.ESM != nil {
		esmDir := path.Join(scDir, "esmf")
		if err := os.MkdirAll(esmDir, 0777); err != nil {
			return nil, err
		}
		for _, sc := range selected {
			samplePath := path.Join(esmDir, fmt.Sprintf("sample_%d.pdb", sc.Sample))
			var conf Confidence
			err := Attempt(r.tries(), r.Wait, func() error {
				var ferr error
				conf, ferr = r.ESM.Fold(sc.Seq, samplePath)
				return ferr
			}, r.Device.flush)
			if err != nil {
				return nil, fmt.Errorf("Folding sample %d of '%s' failed: %s",
					sc.Sample, name, err)
			}
			esmPaths[sc.Sample] = samplePath
			esmConfs[sc.Sample] = conf
		}
	}
	var preds map[int]Prediction
	if r.AF2 != nil {
		foldInput := path.Join(scDir, "seqs", name+".fa")
		if r.TopK > 0 {
			foldInput = path.Join(scDir, "top_score_"+name+".fa")
			sel := make([]seq.Sequence, len(selected))
			for i, sc := range selected {
				sel[i] = sc.Seq
			}
			if err := fasta.Write(foldInput, sel); err != nil {
				return nil, err
			}
		}
		rawDir := path.Join(scDir, "af2_raw_outputs")
		err := Attempt(r.tries(), r.Wait, func() error {
			return r.AF2.Fold(foldInput, rawDir)
		}, r.Device.flush)
		if err != nil {
			return nil, fmt.Errorf("Batch folding of '%s' failed: %s", name, err)
		}
		if preds, err = r.AF2.Cleanup(rawDir, path.Join(scDir, "af2")); err != nil {
			return nil, err
		}
	}
	r.logf("%s: %s", name, Folded)

	// FOLDED -> SCORED.
	for _, sc := range selected {
		if r.ESM != nil {
			rec, err := r.score(sc, esmConfs[sc.Sample], esmPaths[sc.Sample],
				refCas, mask, "esm")
			if err != nil {
				return nil, err
			}
			res.ESM = append(res.ESM, rec)
		}
		if r.AF2 != nil {
			pred, ok := preds[sc.Sample]
			if !ok {
				return nil, fmt.Errorf("Batch folding of '%s' produced no "+
					"prediction for sample %d.", name, sc.Sample)
			}
			rec, err := r.score(sc, pred.Confidence, pred.PDBPath,
				refCas, mask, "af2")
			if err != nil {
				return nil, err
			}
			res.AF2 = append(res.AF2, rec)
		}
	}
	r.logf("%s: %s", name, Scored)

	// SCORED -> DONE.
	withMotif := m != nil
	if r.ESM != nil {
		err := WriteTable(path.Join(scDir, "esm_eval_results.csv"),
			res.ESM, withMotif, false)
		if err != nil {
			return nil, err
		}
	}
	if r.AF2 != nil {
		err := WriteTable(path.Join(scDir, "af2_eval_results.csv"),
			res.AF2, withMotif, false)
		if err != nil {
			return nil, err
		}
	}
	if r.ESM != nil && r.AF2 != nil {
		joint := make([]Record, 0, len(res.ESM)+len(res.AF2))
		joint = append(joint, res.ESM...)
		joint = append(joint, res.AF2...)
		err := WriteTable(path.Join(scDir, "joint_eval_results.csv"),
			joint, withMotif, true)
		if err != nil {
			return nil, err
		}
	}
	r.logf("%s: %s", name, Done)
	return res, nil
}

// score reads one refolded structure and compares it to the target
// backbone: whole-backbone aligned RMSD, TM-score normalized by the target
// length and, when a mask is given, aligned RMSD over motif positions only.
// The backend's confidence numbers are copied through unchanged.
func (r *Refolder) score(sc proteinmpnn.SeqScore, conf Confidence,
	samplePath string, refCas []pdb.Coords, mask contig.Mask,
	backend string) (Record, error) {

	folded, err := pdb.Read(samplePath)
	if err != nil {
		return Record{}, err
	}
	cas := folded.CaAtoms()
	if len(cas) != len(refCas) {
		return Record{}, fmt.Errorf("Refolded structure '%s' has %d CA "+
			"atoms; the target backbone has %d.",
			samplePath, len(cas), len(refCas))
	}

	rms, err := rmsd.AlignedRMSD(cas, refCas)
	if err != nil {
		return Record{}, err
	}
	_, tm, err := rmsd.TMScore(cas, refCas)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		Sample:     sc.Sample,
		Header:     sc.Seq.Name,
		Sequence:   sc.Seq.String(),
		Score:      sc.GlobalScore,
		RMSD:       rms,
		TMScore:    tm,
		Confidence: conf,
		SamplePath: samplePath,
		Backend:    backend,
	}
	if mask != nil {
		if len(mask) != len(refCas) {
			return Record{}, fmt.Errorf("Motif mask has %d positions; the "+
				"target backbone has %d CA atoms.", len(mask), len(refCas))
		}
		var sub, refSub []pdb.Coords
		for _, i := range mask.Indices() {
			sub = append(sub, cas[i-1])
			refSub = append(refSub, refCas[i-1])
		}
		if rec.MotifRMSD, err = rmsd.AlignedRMSD(sub, refSub); err != nil {
			return Record{}, err
		}
	}
	return rec, nil
}

// SelectTopK applies the pre-folding selection policy: designed sequences
// are ranked by ascending global score and the best k kept, in rank order,
// behind the original sequence, which always survives at index 0. A k that
// is not positive keeps every sequence in file order.
func SelectTopK(scores []proteinmpnn.SeqScore, k int) []proteinmpnn.SeqScore {
	if k <= 0 || len(scores) == 0 {
		return scores
	}
	designed := make([]proteinmpnn.SeqScore, len(scores)-1)
	copy(designed, scores[1:])
	sort.SliceStable(designed, func(i, j int) bool {
		return designed[i].GlobalScore < designed[j].GlobalScore
	})
	if len(designed) > k {
		designed = designed[:k]
	}
	return append([]proteinmpnn.SeqScore{scores[0]}, designed...)
}

func (r *Refolder) tries() int {
	if r.Tries > 0 {
		return r.Tries
	}
	return DefaultTries
}

func (r *Refolder) logf(format string, v ...interface{}) {
	if r.Verbosef != nil {
		r.Verbosef(format, v...)
	}
}

// populated reports whether dir exists and holds at least one entry. A
// populated output directory is the claim marker of a finished or
// in-flight evaluation.
func populated(dir string) bool {
	entries, err := ioutil.ReadDir(dir)
	return err == nil && len(entries) > 0
}

func baseName(fpath string) string {
	base := path.Base(fpath)
	return strings.TrimSuffix(base, path.Ext(base))
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
