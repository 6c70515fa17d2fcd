/*
pdb-rmsd computes the aligned RMSD and the TM-score between two sets of
carbon-alpha ATOM records read from PDB files. Each set of ATOM records is
specified by a four-tuple: a PDB file path, a chain identifier, and an
inclusive range of residue indices. Alternatively, two bare PDB file paths
compare the whole structures. Both sets of carbon-alpha ATOM records must be
exactly the same size.

A PDB file may either be plain text or compressed using the Lempel-Ziv coding
(i.e., gzip). If the PDB file is gzipped, it must end with a '.gz' extension.

Usage:
	pdb-rmsd pdb-file chain-id start stop pdb-file chain-id start stop
	pdb-rmsd pdb-file pdb-file

Details

Superposition uses the Kabsch algorithm for computing the optimal rotation
matrix minimizing the RMSD between two paired sets of points, with the
reflection case corrected. The TM-score is computed with the Zhang-Skolnick
iterative fragment search and is normalized by the length of the second
structure given.
*/
package documentation
