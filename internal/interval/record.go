// Package interval builds immutable base records from selected transcripts
// and variants, and derives emitted regions from them.
//
// All coordinates here are BED style: 0-based start, half-open end.
package interval

import (
	"fmt"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/identifier"
)

// Bound is an optional BED coordinate.
type Bound struct {
	Pos   int64 `json:"pos"`
	Valid bool  `json:"valid"`
}

// At returns a valid Bound at pos.
func At(pos int64) Bound {
	return Bound{Pos: pos, Valid: true}
}

// Record is one base row: an exon of a selected transcript, or a variant
// or literal coordinate (IsSNP). Records are never modified after creation.
type Record struct {
	Chrom      string `json:"chrom"` // Without "chr" prefix
	Start      int64  `json:"start"` // Full extent, UTR-inclusive
	End        int64  `json:"end"`
	ExonID     string `json:"exon_id"`
	ExonNumber int    `json:"exon_number"`
	Biotype    string `json:"biotype"`
	Accession  string `json:"accession"` // Versioned accession
	Gene       string `json:"gene"`
	GeneID     string `json:"gene_id"`
	Strand     int8   `json:"strand"`

	// UTR markers at the CDS-adjacent boundary. On the + strand the 5' marker
	// is the CDS start and the 3' marker the CDS end; on the - strand they
	// swap ends.
	FivePrimeUTREnd    Bound `json:"five_prime_utr_end"`
	ThreePrimeUTRStart Bound `json:"three_prime_utr_start"`

	ManeStatus string `json:"mane_status"`
	Status     string `json:"status"`
	Alert      string `json:"alert"`
	Warning    string `json:"warning"`
	IsSNP      bool   `json:"is_snp"`
	Source     string `json:"source"` // Identifier token that produced the row
	Index      int    `json:"index"`  // Identifier order index
}

// Region formats the full extent as chrom:start-end.
func (r Record) Region() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// FromTranscript builds one record per exon. UTR markers are computed once
// from the transcript and shared by every exon row.
func FromTranscript(t *cache.Transcript, status, warning, source string, index int) []Record {
	five, three := utrMarkers(t)
	records := make([]Record, 0, len(t.Exons))
	for _, e := range t.Exons {
		records = append(records, Record{
			Chrom:              t.Chrom,
			Start:              e.Start - 1,
			End:                e.End,
			ExonID:             e.ID,
			ExonNumber:         e.Number,
			Biotype:            t.Biotype,
			Accession:          t.VersionedAccession(),
			Gene:               t.GeneSymbol,
			GeneID:             t.GeneID,
			Strand:             t.Strand,
			FivePrimeUTREnd:    five,
			ThreePrimeUTRStart: three,
			ManeStatus:         t.ManeStatus,
			Status:             status,
			Warning:            warning,
			Source:             source,
			Index:              index,
		})
	}
	return records
}

// utrMarkers converts the gateway's 1-based inclusive UTR spans into
// CDS-adjacent BED boundaries.
func utrMarkers(t *cache.Transcript) (five, three Bound) {
	if t.IsReverseStrand() {
		if t.FivePrimeUTR != nil {
			five = At(t.FivePrimeUTR.Start - 1)
		}
		if t.ThreePrimeUTR != nil {
			three = At(t.ThreePrimeUTR.End)
		}
		return five, three
	}
	if t.FivePrimeUTR != nil {
		five = At(t.FivePrimeUTR.End)
	}
	if t.ThreePrimeUTR != nil {
		three = At(t.ThreePrimeUTR.Start - 1)
	}
	return five, three
}

// FromVariant builds the single row for a resolved rsID.
func FromVariant(v *cache.Variant, source string, index int) Record {
	lo, hi := v.Start-1, v.End
	if hi < v.Start {
		// insertions are reported with end = start - 1; anchor on the one
		// base following the insertion point
		lo, hi = v.End, v.Start
	}
	strand := v.Strand
	if strand == 0 {
		strand = 1
	}
	gene, accession := v.GeneSymbol, v.Accession
	if gene == "" {
		gene = "unknown"
	}
	if accession == "" {
		accession = "unknown"
	}
	return Record{
		Chrom:     v.Chrom,
		Start:     lo,
		End:       hi,
		Biotype:   v.Consequence,
		Accession: accession,
		Gene:      gene,
		GeneID:    v.GeneID,
		Strand:    strand,
		Status:    "rsID",
		IsSNP:     true,
		Source:    source,
		Index:     index,
	}
}

// FromCoordinate builds a row for a literal coordinate range. feature is the
// overlapping gene, or nil when nothing overlaps.
func FromCoordinate(region identifier.Region, feature *cache.GeneFeature, alert, source string, index int) Record {
	r := Record{
		Chrom:     region.Chrom,
		Start:     region.Start - 1,
		End:       region.End,
		Accession: "none",
		Gene:      "none",
		GeneID:    "none",
		Biotype:   "none",
		Strand:    1,
		Status:    "Genomic coordinate",
		Alert:     alert,
		IsSNP:     true,
		Source:    source,
		Index:     index,
	}
	if feature != nil {
		r.Accession = feature.ID
		r.GeneID = feature.ID
		r.Gene = feature.Name
		if r.Gene == "" {
			r.Gene = feature.ID
		}
		r.Biotype = feature.Biotype
		if feature.Strand != 0 {
			r.Strand = feature.Strand
		}
	}
	return r
}
