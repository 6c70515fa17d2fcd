package proteinmpnn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xymeai/Scaffold-Lab/seq"
)

// SeqScore is one scored record from a design FASTA. The first record in
// every file is the backbone's original sequence re-scored by the model;
// the rest are sampled designs. Lower scores are better.
type SeqScore struct {
	// Sample is the design's index within the run. The original sequence
	// is sample 0; sampled designs are numbered from 1.
	Sample int

	// Original is true for the re-scored input sequence.
	Original bool

	// Temp is the sampling temperature. Zero for the original record.
	Temp float64

	Score       float64
	GlobalScore float64

	// SeqRecovery is the fraction of positions where a sampled design
	// keeps the original residue. Zero for the original record.
	SeqRecovery float64

	Seq seq.Sequence
}

// ParseScores interprets the records of a design FASTA. The original record
// is headed "name, score=..., global_score=..., ..."; sampled records are
// headed "T=..., sample=N, score=..., global_score=..., seq_recovery=...".
// Records come back in file order, original first.
func ParseScores(seqs []seq.Sequence) ([]SeqScore, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("Cannot parse design scores from an empty FASTA.")
	}
	scores := make([]SeqScore, len(seqs))
	for i, s := range seqs {
		fields := headerFields(s.Name)
		rec := SeqScore{Seq: s}

		var err error
		if rec.Score, err = floatField(fields, "score", s.Name); err != nil {
			return nil, err
		}
		if rec.GlobalScore, err = floatField(fields, "global_score", s.Name); err != nil {
			return nil, err
		}

		if i == 0 {
			rec.Original = true
			rec.Sample = 0
		} else {
			sample, ok := fields["sample"]
			if !ok {
				return nil, fmt.Errorf("Designed record '%s' has no sample number.", s.Name)
			}
			if rec.Sample, err = strconv.Atoi(sample); err != nil {
				return nil, fmt.Errorf("Designed record '%s' has a bad sample "+
					"number '%s': %s", s.Name, sample, err)
			}
			if rec.Temp, err = floatField(fields, "T", s.Name); err != nil {
				return nil, err
			}
			if rec.SeqRecovery, err = floatField(fields, "seq_recovery", s.Name); err != nil {
				return nil, err
			}
		}
		scores[i] = rec
	}
	return scores, nil
}

// headerFields tokenizes a record header into its "key=value" fields.
// List-valued fields like "fixed_chains=['A', 'B']" get mangled by the
// comma split, but every field we read is a scalar that precedes them.
func headerFields(header string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Split(header, ", ") {
		eq := strings.IndexByte(part, '=')
		if eq <= 0 {
			continue
		}
		key := part[:eq]
		if _, seen := fields[key]; !seen {
			fields[key] = part[eq+1:]
		}
	}
	return fields
}

func floatField(fields map[string]string, key, header string) (float64, error) {
	val, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("Record '%s' has no '%s' field.", header, key)
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("Record '%s' has a bad '%s' field '%s': %s",
			header, key, val, err)
	}
	return f, nil
}
