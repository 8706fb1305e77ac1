// Package identifier classifies raw genomic identifier tokens.
package identifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the classified type of an input token.
type Kind int

const (
	GeneSymbol Kind = iota
	TranscriptID
	RsID
	CoordinateRange
)

func (k Kind) String() string {
	switch k {
	case GeneSymbol:
		return "gene_symbol"
	case TranscriptID:
		return "transcript_id"
	case RsID:
		return "rsid"
	case CoordinateRange:
		return "coordinate_range"
	}
	return "unknown"
}

// Region is a literal coordinate range as typed by the user (1-based, inclusive).
type Region struct {
	Chrom string // Chromosome without "chr" prefix
	Start int64
	End   int64
}

// String formats the region as chrom:start-end.
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}

// Identifier is a classified input token.
type Identifier struct {
	Token   string // Raw token, trimmed
	Kind    Kind
	Index   int    // Position in the original input order
	Base    string // Transcript accession without version (TranscriptID only)
	Version string // Transcript version, "" if unversioned (TranscriptID only)
	Region  Region // Parsed coordinates (CoordinateRange only)
}

// HasVersion returns true if the token pins an explicit transcript version.
func (id Identifier) HasVersion() bool {
	return id.Kind == TranscriptID && id.Version != ""
}

// LookupKey returns the identifier sent to the metadata gateway.
func (id Identifier) LookupKey() string {
	if id.Kind == TranscriptID {
		return id.Base
	}
	return id.Token
}

var (
	rsidPattern       = regexp.MustCompile(`(?i)^rs\d+$`)
	coordinatePattern = regexp.MustCompile(`(?i)^(chr)?([1-9][0-9]?|X|Y|M|MT):(\d+)-(\d+)$`)
	refseqPattern     = regexp.MustCompile(`(?i)^(NM|NR|XM|XR)_\d+(\.\d+)?$`)
	ensemblPattern    = regexp.MustCompile(`(?i)^ENST\d+(\.\d+)?$`)
	genePattern       = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@-]*$`)
)

// Classify determines the kind of a single token. Rules are checked in
// order: rsID, coordinate range, transcript accession, gene symbol.
func Classify(token string) (Identifier, error) {
	tok := strings.TrimSpace(token)
	if tok == "" {
		return Identifier{}, &MalformedError{Token: token, Reason: "empty identifier"}
	}

	if rsidPattern.MatchString(tok) {
		return Identifier{Token: strings.ToLower(tok), Kind: RsID}, nil
	}

	if strings.Contains(tok, ":") {
		region, err := ParseRegion(tok)
		if err != nil {
			return Identifier{}, err
		}
		return Identifier{Token: tok, Kind: CoordinateRange, Region: region}, nil
	}

	if refseqPattern.MatchString(tok) || ensemblPattern.MatchString(tok) {
		base, version, _ := strings.Cut(strings.ToUpper(tok), ".")
		return Identifier{Token: strings.ToUpper(tok), Kind: TranscriptID, Base: base, Version: version}, nil
	}

	if genePattern.MatchString(tok) {
		return Identifier{Token: tok, Kind: GeneSymbol}, nil
	}

	return Identifier{}, &MalformedError{Token: tok, Reason: "unrecognised identifier"}
}

// ParseRegion parses "chrN:start-end" or "N:start-end".
func ParseRegion(s string) (Region, error) {
	tok := strings.TrimSpace(s)
	m := coordinatePattern.FindStringSubmatch(tok)
	if m == nil {
		return Region{}, &MalformedError{
			Token:  tok,
			Reason: "invalid format, use 'chromosome:start-end' (e.g. 1:200-300 or chr1:200-300)",
		}
	}

	start, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Region{}, &MalformedError{Token: tok, Reason: "invalid start position"}
	}
	end, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return Region{}, &MalformedError{Token: tok, Reason: "invalid end position"}
	}
	if start < 1 {
		return Region{}, &MalformedError{Token: tok, Reason: "start position must be at least 1"}
	}
	if start > end {
		return Region{}, &MalformedError{Token: tok, Reason: "end position cannot be less than start position"}
	}

	chrom := strings.ToUpper(m[2])
	if chrom == "MT" {
		chrom = "M"
	}
	return Region{Chrom: chrom, Start: start, End: end}, nil
}
