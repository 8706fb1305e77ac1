package cache

import (
	"context"
	"errors"

	"github.com/inodb/vibe-bed/internal/identifier"
)

// ErrNotFound is returned by a Gateway when an identifier has no data for
// the requested assembly. Callers treat it as a non-fatal "no data" outcome.
var ErrNotFound = errors.New("not found")

// Gateway is the external metadata collaborator. Retry and caching policy
// belong to the implementation.
type Gateway interface {
	// LookupTranscripts returns all transcripts for a gene symbol or
	// transcript accession (without version) in the given assembly.
	LookupTranscripts(ctx context.Context, id string, asm Assembly) ([]*Transcript, error)
	// LookupVariant returns the location and RefSeq annotation of an rsID.
	LookupVariant(ctx context.Context, rsid string, asm Assembly) (*Variant, error)
	// LookupRegion returns gene features overlapping a literal coordinate range.
	LookupRegion(ctx context.Context, region identifier.Region, asm Assembly) ([]GeneFeature, error)
}

// Variant is a resolved rsID. Coordinates are 1-based, inclusive.
type Variant struct {
	RsID                  string   `json:"rsid"`
	Chrom                 string   `json:"chrom"`
	Start                 int64    `json:"start"`
	End                   int64    `json:"end"`
	Strand                int8     `json:"strand"`
	Accession             string   `json:"accession"` // RefSeq transcript, "" if none
	GeneSymbol            string   `json:"gene_symbol"`
	GeneID                string   `json:"gene_id"`
	Consequence           string   `json:"consequence"` // First consequence term on the RefSeq transcript
	AlleleString          string   `json:"allele_string"`
	MostSevereConsequence string   `json:"most_severe_consequence"`
	Assembly              Assembly `json:"assembly"`
}

// GeneFeature is a gene overlapping a genomic region. Name is "" for
// uncharacterised features.
type GeneFeature struct {
	ID       string   `json:"id"`      // Gene identifier (e.g., ENSG00000133703)
	Name     string   `json:"name"`    // Gene symbol (e.g., KRAS)
	Chrom    string   `json:"chrom"`   // Chromosome
	Start    int64    `json:"start"`   // Gene start position (1-based)
	End      int64    `json:"end"`     // Gene end position (1-based, inclusive)
	Strand   int8     `json:"strand"`  // +1 (forward) or -1 (reverse)
	Biotype  string   `json:"biotype"` // Gene biotype (e.g., protein_coding)
	Assembly Assembly `json:"assembly"`
}

// Overlaps returns true if the feature overlaps [start, end] (1-based, inclusive).
func (g *GeneFeature) Overlaps(start, end int64) bool {
	return g.Start <= end && g.End >= start
}
