// Package output provides BED formatters for emitted regions.
package output

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/inodb/vibe-bed/internal/interval"
)

// Format is a BED column layout.
type Format string

const (
	Raw        Format = "raw"
	Data       Format = "data"
	Sambamba   Format = "sambamba"
	ExomeDepth Format = "exomeDepth"
	CNV        Format = "cnv"
)

// Formats lists every supported layout.
func Formats() []Format {
	return []Format{Raw, Data, Sambamba, ExomeDepth, CNV}
}

// ParseFormat maps a name (case-insensitive) to a Format.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown BED format %q", name)
}

// BEDWriter writes regions as tab-delimited BED lines. The first three
// columns are always chrom, start, end.
type BEDWriter struct {
	w      *bufio.Writer
	format Format
}

// NewBEDWriter creates a new BED writer.
func NewBEDWriter(w io.Writer, format Format) *BEDWriter {
	return &BEDWriter{
		w:      bufio.NewWriter(w),
		format: format,
	}
}

// Write writes a single region.
func (bw *BEDWriter) Write(r interval.RegionResult) error {
	_, err := bw.w.WriteString(FormatLine(r, bw.format) + "\n")
	return err
}

// WriteAll writes every region and flushes.
func (bw *BEDWriter) WriteAll(rows []interval.RegionResult) error {
	for _, r := range rows {
		if err := bw.Write(r); err != nil {
			return fmt.Errorf("write BED line: %w", err)
		}
	}
	return bw.Flush()
}

// Flush flushes any buffered data.
func (bw *BEDWriter) Flush() error {
	return bw.w.Flush()
}

// FormatLine renders one region in the given layout.
func FormatLine(r interval.RegionResult, format Format) string {
	coords := r.Chrom + "\t" + strconv.FormatInt(r.Start, 10) + "\t" + strconv.FormatInt(r.End, 10)
	geneAcc := r.Gene + ";" + r.Accession

	switch format {
	case Data:
		return coords + "\t" + r.GeneID + "\t" + geneAcc
	case Sambamba:
		bare := strings.TrimPrefix(r.Chrom, "chr")
		name := fmt.Sprintf("%s-%d-%d", bare, r.Start, r.End)
		return fmt.Sprintf("%s\t%s\t0\t%s\t%s\t%s", coords, name, strandSymbol(r.Strand), geneAcc, r.GeneID)
	case ExomeDepth:
		return coords + "\t" + r.Gene + "_" + strconv.Itoa(r.ExonNumber)
	case CNV:
		return coords + "\t" + r.Accession
	default:
		return coords + "\t" + r.Gene
	}
}

// strandSymbol maps an Ensembl strand to the BED6 strand column.
func strandSymbol(strand int8) string {
	if strand > 0 {
		return "+"
	}
	return "-"
}

var versionSuffix = regexp.MustCompile(`^(.*)_v(\d+)$`)

// IncrementVersion bumps a file name's version suffix: "panel" becomes
// "panel_v2" and "panel_v2" becomes "panel_v3".
func IncrementVersion(name string) string {
	m := versionSuffix.FindStringSubmatch(name)
	if m == nil {
		return name + "_v2"
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return name + "_v2"
	}
	return fmt.Sprintf("%s_v%d", m[1], n+1)
}
