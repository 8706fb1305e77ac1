package identifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		token   string
		kind    Kind
		base    string
		version string
	}{
		{"BRCA1", GeneSymbol, "", ""},
		{"c1orf43", GeneSymbol, "", ""},
		{"HLA-DRB1", GeneSymbol, "", ""},
		{"NM_000059.4", TranscriptID, "NM_000059", "4"},
		{"nm_000059", TranscriptID, "NM_000059", ""},
		{"NR_002782.1", TranscriptID, "NR_002782", "1"},
		{"ENST00000357654.9", TranscriptID, "ENST00000357654", "9"},
		{"rs80357906", RsID, "", ""},
		{"RS80357906", RsID, "", ""},
		{"chr17:43044295-43125483", CoordinateRange, "", ""},
		{"X:100-200", CoordinateRange, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			id, err := Classify(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, id.Kind)
			assert.Equal(t, tt.base, id.Base)
			assert.Equal(t, tt.version, id.Version)
		})
	}
}

func TestClassify_RsIDLowercased(t *testing.T) {
	id, err := Classify("RS123")
	require.NoError(t, err)
	assert.Equal(t, "rs123", id.Token)
	assert.Equal(t, "rs123", id.LookupKey())
}

func TestClassify_TranscriptLookupKey(t *testing.T) {
	id, err := Classify("NM_000059.4")
	require.NoError(t, err)
	assert.True(t, id.HasVersion())
	assert.Equal(t, "NM_000059", id.LookupKey())

	id, err = Classify("NM_000059")
	require.NoError(t, err)
	assert.False(t, id.HasVersion())
}

func TestClassify_Malformed(t *testing.T) {
	for _, tok := range []string{"", "   ", "chr1:500-100", "chr1:0-10", "chr0:1-2", "1:abc-def", "BRCA1!", "chr1-100-200:"} {
		t.Run(tok, func(t *testing.T) {
			_, err := Classify(tok)
			require.Error(t, err)
			var me *MalformedError
			assert.ErrorAs(t, err, &me)
		})
	}
}

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion("chr1:200-300")
	require.NoError(t, err)
	assert.Equal(t, Region{Chrom: "1", Start: 200, End: 300}, r)

	r, err = ParseRegion("chrMT:5-5")
	require.NoError(t, err)
	assert.Equal(t, "M", r.Chrom)
	assert.Equal(t, "M:5-5", r.String())

	r, err = ParseRegion("x:1-10")
	require.NoError(t, err)
	assert.Equal(t, "X", r.Chrom)

	_, err = ParseRegion("chr1:300-200")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "end position cannot be less than start position")
}

func TestClassifyBatch_OrderAndMalformed(t *testing.T) {
	b, err := ClassifyBatch([]string{"BRCA1", "bad!token", "NM_000059.4", "rs1", "chr1:500-100", "1:10-20"}, Options{})
	require.NoError(t, err)

	require.Len(t, b.Identifiers, 4)
	assert.Equal(t, "BRCA1", b.Identifiers[0].Token)
	assert.Equal(t, "NM_000059.4", b.Identifiers[1].Token)
	assert.Equal(t, "rs1", b.Identifiers[2].Token)
	assert.Equal(t, CoordinateRange, b.Identifiers[3].Kind)
	for i, id := range b.Identifiers {
		assert.Equal(t, i, id.Index)
	}

	require.Len(t, b.Malformed, 2)
	assert.Equal(t, "bad!token", b.Malformed[0].Token)
	assert.Equal(t, "chr1:500-100", b.Malformed[1].Token)

	assert.Equal(t, 1, b.Count(GeneSymbol))
	assert.Equal(t, 1, b.Count(CoordinateRange))
}

func TestClassifyBatch_Duplicates(t *testing.T) {
	_, err := ClassifyBatch([]string{"BRCA1", "TP53", "brca1", "TP53", "TP53"}, Options{})
	require.Error(t, err)

	var dup *DuplicateIdentifierError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, []string{"brca1", "TP53"}, dup.Tokens)
	assert.Equal(t, "duplicate identifiers: brca1, TP53", err.Error())
}

func TestClassifyBatch_CoordinateDuplicatesNormalized(t *testing.T) {
	_, err := ClassifyBatch([]string{"chr1:10-20", "1:10-20"}, Options{})
	var dup *DuplicateIdentifierError
	require.ErrorAs(t, err, &dup)
}

func TestClassifyBatch_SilentDedup(t *testing.T) {
	b, err := ClassifyBatch([]string{"BRCA1", "TP53", "BRCA1"}, Options{SilentDedup: true})
	require.NoError(t, err)
	require.Len(t, b.Identifiers, 2)
	assert.Equal(t, "BRCA1", b.Identifiers[0].Token)
	assert.Equal(t, "TP53", b.Identifiers[1].Token)
}

func TestSplitTokens(t *testing.T) {
	got := SplitTokens("BRCA1, TP53;NM_000059.4\n rs123\t\tKRAS")
	assert.Equal(t, []string{"BRCA1", "TP53", "NM_000059.4", "rs123", "KRAS"}, got)
	assert.Empty(t, SplitTokens(" ,; \n"))
}

func TestSplitCoordinates(t *testing.T) {
	got := SplitCoordinates("chr1:100-200, 2:5-10\n\nX:1-2\r\n")
	assert.Equal(t, []string{"chr1:100-200", "2:5-10", "X:1-2"}, got)
}

func TestTokensFromBED(t *testing.T) {
	input := "track name=panel\n" +
		"#comment\n" +
		"chr1\t100\t200\tBRCA1;NM_007294.4\n" +
		"chr2\t300\t400\tTP53\n" +
		"chr3\t1\t2\n" +
		"chr4\t5\t6\t.\n"

	tokens, err := TokensFromBED(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"BRCA1", "TP53"}, tokens)
}
