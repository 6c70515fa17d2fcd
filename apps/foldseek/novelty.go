package foldseek

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Score is one backbone's novelty against the reference database: the
// TM-score of its best alignment, rounded to three decimals. Found is false
// when the search came back empty, which happens for structures unlike
// anything in the database.
type Score struct {
	Path    string
	TMScore float64
	Found   bool
}

// Novelty searches one structure against the reference database and returns
// its best hit's TM-score.
func (conf Config) Novelty(pdbPath string) (Score, error) {
	hits, err := conf.EasySearch(pdbPath)
	if err != nil {
		return Score{Path: pdbPath}, err
	}
	if len(hits) == 0 {
		return Score{Path: pdbPath}, nil
	}
	return Score{
		Path:    pdbPath,
		TMScore: round3(hits[0].AlnTMScore),
		Found:   true,
	}, nil
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// RunAll runs a novelty search for every structure given. The translation
// from paths to scores and errors is index based: scores[i] and errs[i]
// correspond to paths[i].
//
// At most workers searches run at once (GOMAXPROCS when workers is not
// positive). Each search also waits for host CPU utilization to drop to
// maxCPU percent before starting, so a batch can share a machine with the
// folding backends; a non-positive maxCPU disables the gate.
func (conf Config) RunAll(paths []string, workers int, maxCPU float64) ([]Score, []error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	scores := make([]Score, len(paths))
	errs := make([]error, len(paths))
	jobs := make(chan int, 100)
	wg := new(sync.WaitGroup)

	go func() {
		for i := range paths {
			jobs <- i
		}
		close(jobs)
	}()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			for job := range jobs {
				waitForCPU(maxCPU)
				scores[job], errs[job] = conf.Novelty(paths[job])
			}
			wg.Done()
		}()
	}
	wg.Wait()

	return scores, errs
}

// waitForCPU polls host CPU utilization until it drops to maxCPU percent.
// Each poll averages over a second, so the poll is also the backoff. Gating
// is best effort: if utilization cannot be read, the search proceeds.
func waitForCPU(maxCPU float64) {
	if maxCPU <= 0 {
		return
	}
	for {
		pcts, err := cpu.Percent(time.Second, false)
		if err != nil || len(pcts) == 0 {
			return
		}
		if pcts[0] <= maxCPU {
			return
		}
	}
}
