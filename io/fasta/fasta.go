// Package fasta provides reading and writing of FASTA formatted sequence
// files.
//
// Headers are kept verbatim. Several of this project's collaborators encode
// structured information in the header line (sampling temperature, sample
// number, design scores), so the reader never splits or normalizes it.
package fasta

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xymeai/Scaffold-Lab/seq"
)

// Read reads all sequences from a FASTA formatted file.
func Read(fpath string) ([]seq.Sequence, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	seqs, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("Error reading '%s': %s", fpath, err)
	}
	return seqs, nil
}

// ReadFrom reads all sequences from FASTA formatted input. Sequence data
// spanning multiple lines is concatenated. Residue data appearing before the
// first header is an error.
func ReadFrom(r io.Reader) ([]seq.Sequence, error) {
	seqs := make([]seq.Sequence, 0, 4)
	cur := -1

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<16), 1<<22)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case len(line) == 0:
			continue
		case line[0] == '>':
			seqs = append(seqs, seq.Sequence{
				Name: strings.TrimSpace(line[1:]),
			})
			cur = len(seqs) - 1
		default:
			if cur == -1 {
				return nil, fmt.Errorf("Residues appear on line '%s' before "+
					"any sequence header.", line)
			}
			for i := 0; i < len(line); i++ {
				if line[i] == ' ' || line[i] == '\t' {
					continue
				}
				seqs[cur].Residues = append(seqs[cur].Residues,
					seq.Residue(line[i]))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return seqs, nil
}

// Write writes the given sequences to a file in FASTA format, truncating the
// file if it already exists.
func Write(fpath string, seqs []seq.Sequence) error {
	f, err := os.Create(fpath)
	if err != nil {
		return err
	}
	if err := WriteTo(f, seqs); err != nil {
		f.Close()
		return fmt.Errorf("Error writing '%s': %s", fpath, err)
	}
	return f.Close()
}

// WriteTo writes the given sequences in FASTA format. Each sequence is
// written on a single line, since the collaborating tools read records
// line-wise and re-wrapping would corrupt headers paired with their
// sequences.
func WriteTo(w io.Writer, seqs []seq.Sequence) error {
	buf := bufio.NewWriter(w)
	for _, s := range seqs {
		if _, err := fmt.Fprintf(buf, ">%s\n%s\n", s.Name, s.String()); err != nil {
			return err
		}
	}
	return buf.Flush()
}
