package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bed/internal/interval"
)

func sampleRegion() interval.RegionResult {
	return interval.RegionResult{
		Chrom:      "chr17",
		Start:      7676520,
		End:        7676594,
		Gene:       "TP53",
		GeneID:     "HGNC:11998",
		Accession:  "NM_000546.6",
		ExonNumber: 2,
		Strand:     -1,
	}
}

func TestFormatLine(t *testing.T) {
	r := sampleRegion()
	tests := []struct {
		format Format
		want   string
	}{
		{Raw, "chr17\t7676520\t7676594\tTP53"},
		{Data, "chr17\t7676520\t7676594\tHGNC:11998\tTP53;NM_000546.6"},
		{Sambamba, "chr17\t7676520\t7676594\t17-7676520-7676594\t0\t-\tTP53;NM_000546.6\tHGNC:11998"},
		{ExomeDepth, "chr17\t7676520\t7676594\tTP53_2"},
		{CNV, "chr17\t7676520\t7676594\tNM_000546.6"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLine(r, tt.format))
		})
	}
}

func TestFormatLine_SambambaStrand(t *testing.T) {
	r := sampleRegion()
	for strand, want := range map[int8]string{1: "+", -1: "-"} {
		r.Strand = strand
		cols := strings.Split(FormatLine(r, Sambamba), "\t")
		require.Len(t, cols, 8)
		assert.Equal(t, want, cols[5], "strand %d", strand)
	}
}

func TestBEDWriter_WriteAll(t *testing.T) {
	var buf bytes.Buffer
	second := sampleRegion()
	second.Chrom, second.Start, second.End, second.ExonNumber = "chr17", 7675993, 7676272, 3

	w := NewBEDWriter(&buf, ExomeDepth)
	require.NoError(t, w.WriteAll([]interval.RegionResult{sampleRegion(), second}))

	assert.Equal(t, "chr17\t7676520\t7676594\tTP53_2\nchr17\t7675993\t7676272\tTP53_3\n", buf.String())
}

func TestBEDWriter_Deterministic(t *testing.T) {
	rows := []interval.RegionResult{sampleRegion()}
	var a, b bytes.Buffer
	require.NoError(t, NewBEDWriter(&a, Sambamba).WriteAll(rows))
	require.NoError(t, NewBEDWriter(&b, Sambamba).WriteAll(rows))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("exomedepth")
	require.NoError(t, err)
	assert.Equal(t, ExomeDepth, f)

	_, err = ParseFormat("gff")
	assert.Error(t, err)
}

func TestIncrementVersion(t *testing.T) {
	assert.Equal(t, "panel_v2", IncrementVersion("panel"))
	assert.Equal(t, "panel_v3", IncrementVersion("panel_v2"))
	assert.Equal(t, "my_panel_v10", IncrementVersion("my_panel_v9"))
	assert.Equal(t, "panel_vx_v2", IncrementVersion("panel_vx"))
}
