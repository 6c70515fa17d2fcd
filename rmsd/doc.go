/*
Package rmsd implements rigid-body superposition of protein structures with
the Kabsch algorithm, and the superposition-derived quality measures used to
evaluate designed backbones: aligned RMSD and the template modeling score
(TM-score).

A convenience function for computing the RMSD of residue ranges from two PDB
files is also provided.
*/
package rmsd
