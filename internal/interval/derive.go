package interval

import (
	"fmt"
	"strings"
)

// Options controls trimming and padding of one emission.
type Options struct {
	Padding5           int64
	Padding3           int64
	SNPPadding5        int64
	SNPPadding3        int64
	SeparateSNPPadding bool
	Include5UTR        bool
	Include3UTR        bool
	AddChrPrefix       bool
}

// RegionResult is one emitted row, derived fresh from a Record.
type RegionResult struct {
	Chrom      string `json:"chrom"`
	Start      int64  `json:"start"`
	End        int64  `json:"end"`
	Gene       string `json:"gene"`
	GeneID     string `json:"gene_id"`
	Accession  string `json:"accession"`
	ExonID     string `json:"exon_id"`
	ExonNumber int    `json:"exon_number"`
	Biotype    string `json:"biotype"`
	ManeStatus string `json:"mane_status"`
	IsSNP      bool   `json:"is_snp"`
	Strand     int8   `json:"strand"`
	Status     string `json:"status"`
	Alert      string `json:"alert,omitempty"`
	Warning    string `json:"warning,omitempty"`
}

// Region formats the row as chrom:start-end.
func (r RegionResult) Region() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// Trim applies UTR exclusion to a record's full extent. Variant rows are
// never trimmed.
func Trim(r Record, include5, include3 bool) (start, end int64) {
	start, end = r.Start, r.End
	if r.IsSNP {
		return start, end
	}
	reverse := r.Strand == -1

	if !include5 && r.FivePrimeUTREnd.Valid {
		if reverse {
			end = min(end, r.FivePrimeUTREnd.Pos)
		} else {
			start = max(start, r.FivePrimeUTREnd.Pos)
		}
	}
	if !include3 && r.ThreePrimeUTRStart.Valid {
		if reverse {
			start = max(start, r.ThreePrimeUTRStart.Pos)
		} else {
			end = min(end, r.ThreePrimeUTRStart.Pos)
		}
	}
	return start, end
}

// Derive computes the emitted row for one record. ok is false when UTR
// trimming leaves nothing of the record (an exon lying wholly in an
// excluded UTR).
func Derive(r Record, o Options) (RegionResult, bool) {
	start, end := Trim(r, o.Include5UTR, o.Include3UTR)
	if start >= end && !r.IsSNP {
		return RegionResult{}, false
	}

	p5, p3 := o.Padding5, o.Padding3
	if r.IsSNP {
		p5, p3 = 0, 0
		if o.SeparateSNPPadding {
			p5, p3 = o.SNPPadding5, o.SNPPadding3
		}
	}
	start -= p5
	end += p3
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}

	chrom := r.Chrom
	if o.AddChrPrefix && !strings.HasPrefix(strings.ToLower(chrom), "chr") {
		chrom = "chr" + chrom
	}

	return RegionResult{
		Chrom:      chrom,
		Start:      start,
		End:        end,
		Gene:       r.Gene,
		GeneID:     r.GeneID,
		Accession:  r.Accession,
		ExonID:     r.ExonID,
		ExonNumber: r.ExonNumber,
		Biotype:    r.Biotype,
		ManeStatus: r.ManeStatus,
		IsSNP:      r.IsSNP,
		Strand:     r.Strand,
		Status:     r.Status,
		Alert:      r.Alert,
		Warning:    r.Warning,
	}, true
}

// DeriveAll derives every record in order, dropping rows trimmed away.
func DeriveAll(records []Record, o Options) []RegionResult {
	out := make([]RegionResult, 0, len(records))
	for _, r := range records {
		if rr, ok := Derive(r, o); ok {
			out = append(out, rr)
		}
	}
	return out
}
