package compare

import (
	"fmt"
	"io"

	"github.com/inodb/vibe-bed/internal/interval"
)

// Result lists regions present on only one side.
type Result struct {
	UniqueToGenerated []interval.RegionResult
	UniqueToUploaded  []Interval
	ParseErrors       []*ParseError
}

// Identical reports whether both sides matched completely.
func (r Result) Identical() bool {
	return len(r.UniqueToGenerated) == 0 && len(r.UniqueToUploaded) == 0
}

// GeneratedRegions returns unique generated regions as chrom:start-end strings.
func (r Result) GeneratedRegions() []string {
	out := make([]string, len(r.UniqueToGenerated))
	for i, g := range r.UniqueToGenerated {
		out[i] = g.Region()
	}
	return out
}

// UploadedRegions returns unique reference regions as chrom:start-end strings.
func (r Result) UploadedRegions() []string {
	out := make([]string, len(r.UniqueToUploaded))
	for i, u := range r.UniqueToUploaded {
		out[i] = u.String()
	}
	return out
}

// CompareBED parses a reference BED and compares it against generated regions.
// Unparseable lines are reported in Result.ParseErrors; the rest are compared.
func CompareBED(generated []interval.RegionResult, r io.Reader) (Result, error) {
	uploaded, parseErrs, err := ParseBED(r)
	if err != nil {
		return Result{}, fmt.Errorf("compare: %w", err)
	}
	res := Compare(generated, uploaded)
	res.ParseErrors = parseErrs
	return res, nil
}

// Compare returns generated regions overlapping no reference interval and
// reference intervals overlapping no generated region. Chromosomes compare
// case-insensitively without "chr"; overlap is inclusive on both ends.
// Output preserves input order.
func Compare(generated []interval.RegionResult, uploaded []Interval) Result {
	upTrees := buildTrees(len(uploaded), func(i int) (string, int64, int64) {
		return uploaded[i].Chrom, uploaded[i].Start, uploaded[i].End
	})
	genTrees := buildTrees(len(generated), func(i int) (string, int64, int64) {
		return generated[i].Chrom, generated[i].Start, generated[i].End
	})

	var res Result
	for _, g := range generated {
		t, ok := upTrees[NormalizeChrom(g.Chrom)]
		if !ok || !t.Overlaps(g.Start, g.End) {
			res.UniqueToGenerated = append(res.UniqueToGenerated, g)
		}
	}
	for _, u := range uploaded {
		t, ok := genTrees[NormalizeChrom(u.Chrom)]
		if !ok || !t.Overlaps(u.Start, u.End) {
			res.UniqueToUploaded = append(res.UniqueToUploaded, u)
		}
	}
	return res
}

func buildTrees(n int, at func(i int) (string, int64, int64)) map[string]*IntervalTree {
	type cols struct {
		starts, ends []int64
		ids          []int
	}
	byChrom := make(map[string]*cols)
	for i := 0; i < n; i++ {
		chrom, start, end := at(i)
		key := NormalizeChrom(chrom)
		c, ok := byChrom[key]
		if !ok {
			c = &cols{}
			byChrom[key] = c
		}
		c.starts = append(c.starts, start)
		c.ends = append(c.ends, end)
		c.ids = append(c.ids, i)
	}

	trees := make(map[string]*IntervalTree, len(byChrom))
	for chrom, c := range byChrom {
		trees[chrom] = BuildIntervalTree(c.starts, c.ends, c.ids)
	}
	return trees
}
