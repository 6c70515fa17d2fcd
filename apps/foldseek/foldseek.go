// Package foldseek wraps the foldseek structure search tool for the two jobs
// evaluation needs it for: scoring a designed backbone's similarity to known
// structures (novelty) and clustering a set of backbones (diversity).
package foldseek

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/BurntSushi/cmd"
)

// Config points at a foldseek executable and the reference database to
// search against.
type Config struct {
	Exec string

	// Database is a foldseek database of known structures, e.g. one built
	// from the PDB.
	Database string

	// When true, the temporary directory each search runs in is left
	// behind rather than removed.
	KeepTmp bool

	// When true, the tool's stdout and stderr are mapped to the current
	// process's stdout and stderr.
	Verbose bool
}

var Default = Config{
	Exec: "foldseek",
}

// Hit is one alignment from an easy-search run, in the column order the
// search asks for.
type Hit struct {
	Query  string
	Target string
	EValue float64

	// AlnTMScore is the TM-score of the alignment.
	AlnTMScore float64

	RMSD float64
	Prob float64
}

// EasySearch aligns one structure against the reference database and returns
// the hits in the tool's output order, best first. The search iterates so
// that remote homologs surface, and applies no e-value cutoff.
func (conf Config) EasySearch(pdbPath string) ([]Hit, error) {
	tempDir, err := ioutil.TempDir("", "foldseek")
	if err != nil {
		return nil, err
	}
	if !conf.KeepTmp {
		defer os.RemoveAll(tempDir)
	}

	alnPath := path.Join(tempDir, "aln.tsv")
	c := cmd.New(conf.Exec,
		"easy-search", pdbPath, conf.Database, alnPath,
		path.Join(tempDir, "scratch"),
		"--format-mode", "4",
		"--format-output", "query,target,evalue,alntmscore,rmsd,prob",
		"--alignment-type", "1",
		"--num-iterations", "2",
		"-e", "inf",
	)
	if conf.Verbose {
		fmt.Fprintf(os.Stderr, "\n%s\n", c)
		c.Cmd.Stdout = os.Stdout
		c.Cmd.Stderr = os.Stderr
	}
	if err := c.Run(); err != nil {
		return nil, err
	}

	f, err := os.Open(alnPath)
	if err != nil {
		return nil, fmt.Errorf("Could not read the alignments written by "+
			"'%s': %s", conf.Exec, err)
	}
	defer f.Close()
	return parseHits(f)
}

// parseHits reads an easy-search TSV, skipping the header row that format
// mode 4 prepends.
func parseHits(r io.Reader) ([]Hit, error) {
	var hits []Hit
	scanner := bufio.NewScanner(r)
	for i := 0; scanner.Scan(); i++ {
		line := strings.TrimSpace(scanner.Text())
		if i == 0 || len(line) == 0 {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) != 6 {
			return nil, fmt.Errorf("Alignment row '%s' has %d columns; "+
				"expected 6.", line, len(cols))
		}

		nums := make([]float64, 4)
		for i, col := range cols[2:] {
			f, err := strconv.ParseFloat(col, 64)
			if err != nil {
				return nil, fmt.Errorf("Alignment row '%s' has a bad "+
					"number in column %d: %s", line, i+2, err)
			}
			nums[i] = f
		}
		hits = append(hits, Hit{
			Query:      cols[0],
			Target:     cols[1],
			EValue:     nums[0],
			AlnTMScore: nums[1],
			RMSD:       nums[2],
			Prob:       nums[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// EasyCluster clusters every structure under dir and returns the number of
// clusters found.
func (conf Config) EasyCluster(dir string) (int, error) {
	tempDir, err := ioutil.TempDir("", "foldseek")
	if err != nil {
		return 0, err
	}
	if !conf.KeepTmp {
		defer os.RemoveAll(tempDir)
	}

	prefix := path.Join(tempDir, "clu")
	c := cmd.New(conf.Exec,
		"easy-cluster", dir, prefix, path.Join(tempDir, "scratch"),
		"--alignment-type", "1",
	)
	if conf.Verbose {
		fmt.Fprintf(os.Stderr, "\n%s\n", c)
		c.Cmd.Stdout = os.Stdout
		c.Cmd.Stderr = os.Stderr
	}
	if err := c.Run(); err != nil {
		return 0, err
	}

	f, err := os.Open(prefix + "_cluster.tsv")
	if err != nil {
		return 0, fmt.Errorf("Could not read the clusters written by "+
			"'%s': %s", conf.Exec, err)
	}
	defer f.Close()
	return countClusters(f)
}

// countClusters counts the distinct representatives in an easy-cluster TSV,
// which lists one "representative<TAB>member" pair per line.
func countClusters(r io.Reader) (int, error) {
	reps := make(map[string]bool)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 {
			continue
		}
		rep := strings.SplitN(line, "\t", 2)[0]
		reps[rep] = true
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return len(reps), nil
}
