package colabfold

import (
	"io/ioutil"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
)

func rawOutputDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "colabfold-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	for name, body := range files {
		require.NoError(t,
			ioutil.WriteFile(path.Join(dir, name), []byte(body), 0666))
	}
	return dir
}

func TestCleanup(t *testing.T) {
	const model = "ATOM      1  CA  ALA A   1       0.000   0.000   0.000\n"
	rawDir := rawOutputDir(t, map[string]string{
		// The original sequence's model keeps the backbone name.
		"2KL8_unrelaxed_rank_001_alphafold2_ptm_model_1_seed_033.pdb": model,
		"2KL8_scores_rank_001_alphafold2_ptm_model_1_seed_033.json": `{
			"plddt": [80.0, 90.0],
			"ptm": 0.8,
			"pae": [[0.0, 2.0], [2.0, 0.0]]
		}`,
		// A designed sequence's files carry the mangled header.
		"T_0.1__sample_3__score_0.886__global_score_0.886_unrelaxed_rank_001_alphafold2_ptm_model_1_seed_033.pdb": model,
		"T_0.1__sample_3__score_0.886__global_score_0.886_scores_rank_001_alphafold2_ptm_model_1_seed_033.json": `{
			"plddt": [70.0],
			"ptm": 0.6,
			"pae": [[1.0]]
		}`,
		// Lower ranked models are ignored.
		"T_0.1__sample_3__score_0.886__global_score_0.886_unrelaxed_rank_002_alphafold2_ptm_model_2_seed_033.pdb": model,
		// So are the tool's logs and configs.
		"config.json": `{}`,
		"log.txt":     "done",
	})
	outDir := path.Join(rawDir, "af2")

	results, err := Cleanup(rawDir, outDir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	og := results[0]
	require.Equal(t, path.Join(outDir, "sample_0.pdb"), og.PDBPath)
	require.Equal(t, 85.0, og.Plddt)
	require.Equal(t, 0.8, og.PTM)
	require.Equal(t, 1.0, og.PAE)

	s3 := results[3]
	require.Equal(t, path.Join(outDir, "sample_3.pdb"), s3.PDBPath)
	require.Equal(t, 70.0, s3.Plddt)
	require.Equal(t, 0.6, s3.PTM)
	require.Equal(t, 1.0, s3.PAE)

	// The models really were copied out.
	for _, r := range results {
		body, err := ioutil.ReadFile(r.PDBPath)
		require.NoError(t, err)
		require.Equal(t, model, string(body))
	}
}

func TestCleanupBadSampleNumber(t *testing.T) {
	rawDir := rawOutputDir(t, map[string]string{
		"T_0.1__sample_x__score_0.886_unrelaxed_rank_001_model_1.pdb": "ATOM\n",
	})

	_, err := Cleanup(rawDir, path.Join(rawDir, "af2"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "sample number")
}

func TestSampleNumber(t *testing.T) {
	n, err := sampleNumber("2KL8_unrelaxed_rank_001_model_1.pdb")
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = sampleNumber("T_0.1__sample_12__score_1.2_unrelaxed_rank_001.pdb")
	require.NoError(t, err)
	require.Equal(t, 12, n)

	_, err = sampleNumber("T_0.1__score_1.2_unrelaxed_rank_001.pdb")
	require.Error(t, err)
}
