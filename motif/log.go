package motif

import (
	"bufio"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/xymeai/Scaffold-Lab/contig"
)

// LogEntry is one design scraped from a sampler's log: its identity, the
// contig it was sampled with and, when the sampler logged them, the sampled
// motif mask, the sampled motif RMSD and the wall time.
type LogEntry struct {
	Name   string
	Sample int
	Contig string
	Mask   contig.Mask

	// MotifRMSD and Time are carried as logged; nothing downstream
	// computes with them.
	MotifRMSD string
	Time      string
}

var (
	logDesign    = regexp.MustCompile(`\[INFO\] - Making design (\S+)`)
	logMask      = regexp.MustCompile(`'sampled_mask': \['([^']+)'\]`)
	logMask1d    = regexp.MustCompile(`'mask_1d': \[([^\]]*)\]`)
	logMotifRMSD = regexp.MustCompile(`Sampled motif RMSD: (\d+\.\d+)`)
	logFinished  = regexp.MustCompile(`Finished design in (.+) minutes`)
)

// ScanSamplerLog scrapes design records from a sampler's log output. Every
// 'Making design' line opens a record that the following lines fill until
// the next one. A motif RMSD line counts only between the 'Timestep 3,' and
// 'Timestep 2,' marks, where the sampler reports it for the sampled
// structure rather than for a diffusion intermediate; the last one in the
// window wins.
func ScanSamplerLog(r io.Reader) ([]LogEntry, error) {
	var entries []LogEntry
	var cur *LogEntry
	inWindow := false

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if m := logDesign.FindStringSubmatch(line); m != nil {
			if cur != nil {
				entries = append(entries, *cur)
			}
			name, sample, err := designIdent(m[1])
			if err != nil {
				return nil, err
			}
			cur = &LogEntry{Name: name, Sample: sample}
			inWindow = false
			continue
		}
		if cur == nil {
			continue
		}
		if m := logMask.FindStringSubmatch(line); m != nil {
			cur.Contig = m[1]
		}
		if m := logMask1d.FindStringSubmatch(line); m != nil {
			mask, err := parseMask1d(m[1])
			if err != nil {
				return nil, err
			}
			cur.Mask = mask
		}
		if strings.Contains(line, "Timestep 3,") {
			inWindow = true
		}
		if inWindow {
			if m := logMotifRMSD.FindStringSubmatch(line); m != nil {
				cur.MotifRMSD = m[1]
			}
		}
		if strings.Contains(line, "Timestep 2,") {
			inWindow = false
		}
		if m := logFinished.FindStringSubmatch(line); m != nil {
			cur.Time = m[1]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cur != nil {
		entries = append(entries, *cur)
	}
	return entries, nil
}

// designIdent splits a logged design path into the design name and sample
// number, following the '{name}_{num}' file convention. Names may themselves
// contain underscores.
func designIdent(fpath string) (string, int, error) {
	base := path.Base(fpath)
	base = strings.TrimSuffix(base, path.Ext(base))

	i := strings.LastIndexByte(base, '_')
	if i < 0 {
		return "", 0, fmt.Errorf("Design path '%s' has no sample number.", fpath)
	}
	sample, err := strconv.Atoi(base[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("Design path '%s' has a bad sample number: %s",
			fpath, err)
	}
	return base[:i], sample, nil
}

func parseMask1d(s string) (contig.Mask, error) {
	tokens := strings.Split(s, ",")
	mask := make(contig.Mask, 0, len(tokens))
	for _, token := range tokens {
		switch strings.TrimSpace(token) {
		case "True", "true", "1":
			mask = append(mask, true)
		case "False", "false", "0":
			mask = append(mask, false)
		case "":
		default:
			return nil, fmt.Errorf("Unrecognized mask value '%s'.",
				strings.TrimSpace(token))
		}
	}
	return mask, nil
}
