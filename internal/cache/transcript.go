// Package cache holds the transcript metadata model and the gateways that
// supply it: an in-memory cache, a JSON fixture loader and a REST client.
package cache

import (
	"strconv"
	"strings"
)

// MANE annotation labels.
const (
	ManeSelect       = "MANE Select"
	ManePlusClinical = "MANE Plus Clinical"
)

// Transcript represents a specific gene isoform as reported by the gateway.
// Coordinates are 1-based, inclusive. Treat as immutable once returned.
type Transcript struct {
	Accession     string   `json:"accession"`      // Accession without version (e.g., NM_000059)
	Version       string   `json:"version"`        // Version suffix, "" if unknown
	GeneSymbol    string   `json:"gene_symbol"`    // Parent gene symbol
	GeneID        string   `json:"gene_id"`        // Parent gene ID (Ensembl or HGNC)
	Biotype       string   `json:"biotype"`        // Transcript biotype
	ManeStatus    string   `json:"mane_status"`    // "", ManeSelect or ManePlusClinical
	Chrom         string   `json:"chrom"`          // Chromosome without "chr"
	Start         int64    `json:"start"`          // Transcript start
	End           int64    `json:"end"`            // Transcript end
	Strand        int8     `json:"strand"`         // +1 or -1
	Exons         []Exon   `json:"exons"`          // Exons in transcript order
	FivePrimeUTR  *Span    `json:"five_prime_utr"` // nil when absent
	ThreePrimeUTR *Span    `json:"three_prime_utr"`
	Assembly      Assembly `json:"assembly"`
}

// Exon represents a single exon within a transcript.
type Exon struct {
	ID     string `json:"id"`     // Exon stable ID
	Number int    `json:"number"` // Exon number (1-based)
	Start  int64  `json:"start"`  // Genomic start (1-based)
	End    int64  `json:"end"`    // Genomic end (1-based, inclusive)
}

// Span is a genomic low/high range, 1-based inclusive.
type Span struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// newSpan orders the ends so Start <= End regardless of strand orientation.
func newSpan(a, b int64) *Span {
	if a > b {
		a, b = b, a
	}
	return &Span{Start: a, End: b}
}

// VersionedAccession returns the accession with its version, e.g. NM_000059.4.
func (t *Transcript) VersionedAccession() string {
	if t.Version == "" {
		return t.Accession
	}
	return t.Accession + "." + t.Version
}

// VersionNumber returns the numeric version, or 0 when missing or non-numeric.
func (t *Transcript) VersionNumber() int {
	n, err := strconv.Atoi(t.Version)
	if err != nil {
		return 0
	}
	return n
}

// IsProteinCoding returns true for protein_coding biotypes. RefSeq mRNA
// accessions without a biotype are treated as coding.
func (t *Transcript) IsProteinCoding() bool {
	if t.Biotype == "" {
		return strings.HasPrefix(t.Accession, "NM_") || strings.HasPrefix(t.Accession, "XM_")
	}
	return t.Biotype == "protein_coding"
}

// IsRefSeqCurated returns true for NM_/NR_ accessions.
func (t *Transcript) IsRefSeqCurated() bool {
	return strings.HasPrefix(t.Accession, "NM_") || strings.HasPrefix(t.Accession, "NR_")
}

// IsManeSelect returns true if the transcript carries the MANE Select label.
func (t *Transcript) IsManeSelect() bool {
	return t.ManeStatus == ManeSelect
}

// IsManePlusClinical returns true if the transcript carries the MANE Plus Clinical label.
func (t *Transcript) IsManePlusClinical() bool {
	return t.ManeStatus == ManePlusClinical
}

// IsReverseStrand returns true if the transcript is on the reverse strand.
func (t *Transcript) IsReverseStrand() bool {
	return t.Strand == -1
}

// NormalizeManeStatus maps gateway spellings ("MANE SELECT", "mane_plus_clinical")
// onto the canonical labels and "None" onto "". Unknown values are returned trimmed.
func NormalizeManeStatus(s string) string {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
	switch key {
	case "MANE SELECT":
		return ManeSelect
	case "MANE PLUS CLINICAL":
		return ManePlusClinical
	case "NONE", "NULL", "-":
		return ""
	}
	return strings.TrimSpace(s)
}
