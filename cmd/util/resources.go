package util

import (
	"os"
	"strconv"

	"github.com/xymeai/Scaffold-Lab/contig"
	"github.com/xymeai/Scaffold-Lab/io/pdb"
	"github.com/xymeai/Scaffold-Lab/motif"
)

func PDBRead(path string) *pdb.Entry {
	entry, err := pdb.Read(path)
	Assert(err, "Could not open PDB file '%s'", path)
	return entry
}

func MotifTable(path string) *motif.Table {
	table, err := motif.ReadTable(path)
	Assert(err, "Could not read motif table '%s'", path)
	return table
}

func ContigParse(s string) contig.Contig {
	c, err := contig.Parse(s)
	Assert(err, "Could not parse contig '%s'", s)
	return c
}

func OpenFile(path string) *os.File {
	f, err := os.Open(path)
	Assert(err, "Could not open file '%s'", path)
	return f
}

func CreateFile(path string) *os.File {
	f, err := os.Create(path)
	Assert(err, "Could not create file '%s'", path)
	return f
}

func ParseInt(str string) int {
	num, err := strconv.ParseInt(str, 10, 32)
	Assert(err, "Could not parse '%s' as an integer", str)
	return int(num)
}
