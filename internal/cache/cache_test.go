package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bed/internal/identifier"
)

func loadFixtures(t *testing.T) *Cache {
	t.Helper()
	c := New()
	require.NoError(t, NewLoader(filepath.Join("testdata", "fixtures.json")).LoadAll(c))
	return c
}

func TestLoader_LoadAll(t *testing.T) {
	c := loadFixtures(t)

	assert.Equal(t, 7, c.TranscriptCount())
	assert.Equal(t, []Assembly{GRCh37, GRCh38}, c.Assemblies())

	found, err := c.LookupTranscripts(context.Background(), "NM_000546", GRCh38)
	require.NoError(t, err)
	require.Len(t, found, 1)
	tp53 := found[0]
	assert.Equal(t, "6", tp53.Version)
	assert.Equal(t, "TP53", tp53.GeneSymbol)
	assert.Equal(t, "17", tp53.Chrom, "chr prefix should be stripped")
	assert.Equal(t, ManeSelect, tp53.ManeStatus, "MANE label should be normalized")
	assert.True(t, tp53.IsReverseStrand())
	assert.Len(t, tp53.Exons, 4)
	require.NotNil(t, tp53.FivePrimeUTR)
	assert.Equal(t, int64(7676595), tp53.FivePrimeUTR.Start)
}

func TestLoader_Directory(t *testing.T) {
	c := New()
	require.NoError(t, NewLoader("testdata").LoadAll(c))
	assert.NotZero(t, c.TranscriptCount())
}

func TestLoader_MissingPath(t *testing.T) {
	err := NewLoader(filepath.Join(t.TempDir(), "missing.json")).LoadAll(New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture path not found")
}

func TestCache_LookupTranscripts(t *testing.T) {
	c := loadFixtures(t)
	ctx := context.Background()

	byGene, err := c.LookupTranscripts(ctx, "slc39a14", GRCh38)
	require.NoError(t, err)
	assert.Len(t, byGene, 2)

	byAccession, err := c.LookupTranscripts(ctx, "NM_001128431", GRCh37)
	require.NoError(t, err)
	assert.Len(t, byAccession, 2)

	_, err = c.LookupTranscripts(ctx, "RNU4ATAC", GRCh37)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.LookupTranscripts(ctx, "NOSUCHGENE", GRCh38)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_LookupVariant(t *testing.T) {
	c := loadFixtures(t)
	ctx := context.Background()

	v, err := c.LookupVariant(ctx, "RS80357906", GRCh38)
	require.NoError(t, err)
	assert.Equal(t, "BRCA1", v.GeneSymbol)
	assert.Equal(t, int64(43057063), v.Start)

	_, err = c.LookupVariant(ctx, "rs80357906", GRCh37)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_LookupRegion(t *testing.T) {
	c := loadFixtures(t)
	ctx := context.Background()

	genes, err := c.LookupRegion(ctx, identifier.Region{Chrom: "17", Start: 43125000, End: 43126000}, GRCh38)
	require.NoError(t, err)
	require.Len(t, genes, 2)
	assert.Equal(t, "BRCA1", genes[0].Name)
	assert.Equal(t, "NBR2", genes[1].Name)

	genes, err = c.LookupRegion(ctx, identifier.Region{Chrom: "5", Start: 1, End: 100}, GRCh38)
	require.NoError(t, err)
	assert.Empty(t, genes)
}

func TestParseAssembly(t *testing.T) {
	tests := []struct {
		in   string
		want Assembly
	}{
		{"GRCh38", GRCh38},
		{"grch37", GRCh37},
		{"hg19", GRCh37},
		{"HG38", GRCh38},
	}
	for _, tt := range tests {
		got, err := ParseAssembly(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseAssembly("T2T")
	assert.Error(t, err)
}

func TestTranscript_Helpers(t *testing.T) {
	tr := &Transcript{Accession: "NM_000059", Version: "4"}
	assert.Equal(t, "NM_000059.4", tr.VersionedAccession())
	assert.Equal(t, 4, tr.VersionNumber())
	assert.True(t, tr.IsProteinCoding(), "NM_ without biotype counts as coding")
	assert.True(t, tr.IsRefSeqCurated())

	nr := &Transcript{Accession: "NR_023343", Biotype: "snRNA"}
	assert.False(t, nr.IsProteinCoding())
	assert.Equal(t, "NR_023343", nr.VersionedAccession())
	assert.Equal(t, 0, nr.VersionNumber())

	assert.Equal(t, ManePlusClinical, NormalizeManeStatus("MANE PLUS CLINICAL"))
	assert.Equal(t, ManeSelect, NormalizeManeStatus("mane_select"))
	assert.Equal(t, "", NormalizeManeStatus(""))
	assert.Equal(t, "", NormalizeManeStatus("None"))
}
