// Package compare finds regions that differ between a generated region set
// and an externally supplied reference BED.
package compare

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Interval is one reference BED line.
type Interval struct {
	Chrom string // As written in the file
	Start int64
	End   int64
	Name  string // 4th column, "" if absent
	Line  int    // 1-based line number in the source file
}

// String formats the interval as chrom:start-end.
func (iv Interval) String() string {
	return fmt.Sprintf("%s:%d-%d", iv.Chrom, iv.Start, iv.End)
}

// ParseError describes a reference line that could not be parsed.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// ParseBED reads chrom/start/end(/name) lines. Blank, comment, track and
// browser lines are skipped. Lines that fail to parse are returned as
// ParseErrors; parsing continues past them.
func ParseBED(r io.Reader) ([]Interval, []*ParseError, error) {
	var (
		intervals []Interval
		errs      []*ParseError
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "track") || strings.HasPrefix(trimmed, "browser") {
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) < 3 {
			errs = append(errs, &ParseError{Line: lineNo, Text: line, Reason: "expected at least 3 columns"})
			continue
		}

		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || start < 0 {
			errs = append(errs, &ParseError{Line: lineNo, Text: line, Reason: "invalid start"})
			continue
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			errs = append(errs, &ParseError{Line: lineNo, Text: line, Reason: "invalid end"})
			continue
		}
		if end < start {
			errs = append(errs, &ParseError{Line: lineNo, Text: line, Reason: "end before start"})
			continue
		}

		iv := Interval{Chrom: fields[0], Start: start, End: end, Line: lineNo}
		if len(fields) > 3 {
			iv.Name = fields[3]
		}
		intervals = append(intervals, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read reference BED: %w", err)
	}
	return intervals, errs, nil
}

// NormalizeChrom lower-cases a chromosome name and strips any "chr" prefix.
func NormalizeChrom(chrom string) string {
	c := strings.ToLower(strings.TrimSpace(chrom))
	return strings.TrimPrefix(c, "chr")
}
