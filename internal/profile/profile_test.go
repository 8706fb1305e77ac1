package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bed/internal/interval"
)

func baseRecords() []interval.Record {
	return []interval.Record{
		{
			Chrom: "1", Start: 100, End: 200, Strand: 1, Gene: "FWD1", Accession: "NM_000001.2",
			ExonNumber: 1, FivePrimeUTREnd: interval.At(150), ThreePrimeUTRStart: interval.At(550),
		},
		{
			Chrom: "1", Start: 500, End: 600, Strand: 1, Gene: "FWD1", Accession: "NM_000001.2",
			ExonNumber: 2, FivePrimeUTREnd: interval.At(150), ThreePrimeUTRStart: interval.At(550),
		},
		{Chrom: "17", Start: 999, End: 1000, Strand: 1, Gene: "BRCA1", IsSNP: true},
	}
}

func TestDefaults(t *testing.T) {
	defs := Defaults()
	require.Len(t, defs, 4)
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
		assert.NoError(t, d.Validate())
		assert.Zero(t, d.Padding5)
		assert.False(t, d.Include5UTR)
	}
	assert.Equal(t, []string{Data, Sambamba, ExomeDepth, CNV}, names)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Settings{}.Validate())
	assert.Error(t, Settings{Name: "x", Padding5: -1}.Validate())
	assert.Error(t, Settings{Name: "x", SNPPadding3: -2}.Validate())
	assert.NoError(t, Settings{Name: "x", Padding5: 10, Padding3: 10}.Validate())
}

func TestWith(t *testing.T) {
	s := Settings{Name: CNV}

	s2, err := s.With("padding_5", "25")
	require.NoError(t, err)
	assert.Equal(t, int64(25), s2.Padding5)
	assert.Zero(t, s.Padding5, "receiver is not modified")

	s3, err := s2.With("include_3utr", "true")
	require.NoError(t, err)
	assert.True(t, s3.Include3UTR)

	_, err = s.With("padding_3", "-4")
	assert.Error(t, err)

	_, err = s.With("padding_3", "ten")
	assert.Error(t, err)

	_, err = s.With("colour", "red")
	assert.ErrorContains(t, err, "unknown profile key")
}

func TestRecompute_Idempotent(t *testing.T) {
	records := baseRecords()
	s := Settings{Name: Data, Padding5: 10, Padding3: 10}

	a, err := Recompute(records, s, false, true, true)
	require.NoError(t, err)
	b, err := Recompute(records, s, false, true, true)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.Equal(t, "chr1", a[0].Chrom)
	assert.Equal(t, int64(140), a[0].Start)
	assert.Equal(t, int64(210), a[0].End)
	// SNP row unpadded
	assert.Equal(t, int64(999), a[2].Start)
	assert.Equal(t, int64(1000), a[2].End)
}

func TestRecompute_RejectsInvalidSettings(t *testing.T) {
	_, err := Recompute(baseRecords(), Settings{Name: "bad", Padding3: -1}, true, true, false)
	assert.Error(t, err)
}

func TestRecompute_Reversible(t *testing.T) {
	records := baseRecords()
	s := Settings{Name: Data}

	full, err := Recompute(records, s, true, true, false)
	require.NoError(t, err)
	_, err = Recompute(records, s, false, false, false)
	require.NoError(t, err)
	again, err := Recompute(records, s, true, true, false)
	require.NoError(t, err)

	assert.Equal(t, full, again)
	assert.Equal(t, int64(100), again[0].Start)
	assert.Equal(t, int64(600), again[1].End)
}

func TestEmitter_ProfilesIndependent(t *testing.T) {
	reg, err := NewRegistry(Defaults()...)
	require.NoError(t, err)
	e := NewEmitter(reg, false)
	records := baseRecords()

	dataBefore, err := e.Emit(records, Data)
	require.NoError(t, err)

	cnv, err := reg.Get(CNV)
	require.NoError(t, err)
	cnv, err = cnv.With("padding_5", "500")
	require.NoError(t, err)
	cnv.Include5UTR = true
	require.NoError(t, reg.Set(cnv))

	cnvRows, err := e.Emit(records, CNV)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cnvRows[0].Start, "clamped at zero")

	dataAfter, err := e.Emit(records, Data)
	require.NoError(t, err)
	assert.Equal(t, dataBefore, dataAfter)
}

func TestEmitter_EmitAll(t *testing.T) {
	reg, err := NewRegistry(Defaults()...)
	require.NoError(t, err)

	all, err := NewEmitter(reg, true).EmitAll(baseRecords())
	require.NoError(t, err)
	assert.Len(t, all, 4)
	for name, rows := range all {
		assert.Len(t, rows, 3, name)
	}
}

func TestRegistry_Unknown(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	_, err = reg.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownProfile)

	_, err = NewRegistry(Settings{Name: ""})
	assert.Error(t, err)

	require.NoError(t, reg.Set(Settings{Name: "b"}))
	require.NoError(t, reg.Set(Settings{Name: "a"}))
	assert.Equal(t, []string{"a", "b"}, reg.Names())
}
