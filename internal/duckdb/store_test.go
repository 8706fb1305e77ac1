package duckdb

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/engine"
	"github.com/inodb/vibe-bed/internal/identifier"
	"github.com/inodb/vibe-bed/internal/profile"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fixtureCache(t *testing.T) *cache.Cache {
	t.Helper()
	c := cache.New()
	require.NoError(t, cache.NewLoader("../cache/testdata/fixtures.json").LoadAll(c))
	return c
}

func resolve(t *testing.T, ids ...string) *engine.Session {
	t.Helper()
	sess, err := engine.New(fixtureCache(t)).Resolve(context.Background(), engine.Request{
		Identifiers: ids,
		Assembly:    cache.GRCh38,
	})
	require.NoError(t, err)
	return sess
}

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.db.Ping())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/dir/vibe-bed.duckdb"
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.FileExists(t, path)
}

func TestProfiles_DefaultsAndOverrides(t *testing.T) {
	s := openInMemory(t)

	reg, err := s.Registry()
	require.NoError(t, err)
	assert.Equal(t, []string{profile.CNV, profile.Data, profile.ExomeDepth, profile.Sambamba}, reg.Names())

	cnv, err := reg.Get(profile.CNV)
	require.NoError(t, err)
	cnv, err = cnv.With("padding_5", "100")
	require.NoError(t, err)
	require.NoError(t, s.SaveProfile(cnv))

	// Saving twice replaces.
	cnv.Padding3 = 25
	require.NoError(t, s.SaveProfile(cnv))

	stored, err := s.Profiles()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, cnv, stored[0])

	reg, err = s.Registry()
	require.NoError(t, err)
	got, err := reg.Get(profile.CNV)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Padding5)
	assert.Equal(t, int64(25), got.Padding3)

	data, err := reg.Get(profile.Data)
	require.NoError(t, err)
	assert.Equal(t, int64(0), data.Padding5)
}

func TestSaveProfile_RejectsNegativePadding(t *testing.T) {
	s := openInMemory(t)
	err := s.SaveProfile(profile.Settings{Name: "bad", Padding5: -1})
	require.Error(t, err)

	stored, err := s.Profiles()
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSession_RoundTrip(t *testing.T) {
	s := openInMemory(t)
	sess := resolve(t, "TP53", "SLC39A14", "RNU4ATAC", "NOPE1", "chr5:100-200")
	require.NoError(t, s.SaveSession(sess))

	loaded, err := s.LoadSession(sess.ID)
	require.NoError(t, err)

	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, cache.GRCh38, loaded.Assembly)
	assert.WithinDuration(t, sess.Created, loaded.Created, time.Second)
	assert.Equal(t, []string{"NOPE1"}, loaded.NoData)
	assert.Equal(t, sess.Snapshot().Records(), loaded.Snapshot().Records())

	pending := loaded.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "SLC39A14", pending[0].Gene)
	require.Len(t, pending[0].Candidates, 2)
	assert.Equal(t, "NM_001128431", pending[0].Candidates[0].Accession)
	assert.Equal(t, identifier.GeneSymbol, pending[0].Identifier.Kind)
}

func TestSession_SaveAfterDisambiguation(t *testing.T) {
	s := openInMemory(t)
	sess := resolve(t, "TP53", "SLC39A14")
	require.NoError(t, s.SaveSession(sess))

	loaded, err := s.LoadSession(sess.ID)
	require.NoError(t, err)
	_, err = loaded.ApplyDisambiguation("SLC39A14", "NM_001351657")
	require.NoError(t, err)
	require.NoError(t, s.SaveSession(loaded))

	again, err := s.LoadSession(sess.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Pending())
	snap, err := again.Final()
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Len())

	infos, err := s.Sessions()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, 7, infos[0].Records)
	assert.Equal(t, 0, infos[0].Pending)
}

func TestSession_FailedSaveKeepsEarlierCopy(t *testing.T) {
	s := openInMemory(t)
	sess := resolve(t, "TP53", "SLC39A14")
	require.NoError(t, s.SaveSession(sess))

	// An extra column makes every appended row the wrong width.
	_, err := s.db.Exec(`ALTER TABLE session_records ADD COLUMN extra BIGINT`)
	require.NoError(t, err)

	loaded, err := s.LoadSession(sess.ID)
	require.NoError(t, err)
	_, err = loaded.ApplyDisambiguation("SLC39A14", "NM_001351657")
	require.NoError(t, err)
	require.Error(t, s.SaveSession(loaded))

	again, err := s.LoadSession(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Snapshot().Records(), again.Snapshot().Records())
	require.Len(t, again.Pending(), 1)
	assert.Equal(t, "SLC39A14", again.Pending()[0].Gene)
}

func TestSession_UTRBoundsSurviveRoundTrip(t *testing.T) {
	s := openInMemory(t)
	sess := resolve(t, "TP53", "rs80357906")
	require.NoError(t, s.SaveSession(sess))

	loaded, err := s.LoadSession(sess.ID)
	require.NoError(t, err)

	var sawBound, sawSNP bool
	for _, r := range loaded.Snapshot().Records() {
		if r.IsSNP {
			sawSNP = true
			assert.False(t, r.FivePrimeUTREnd.Valid)
			assert.False(t, r.ThreePrimeUTRStart.Valid)
		} else if r.FivePrimeUTREnd.Valid {
			sawBound = true
		}
	}
	assert.True(t, sawSNP)
	assert.True(t, sawBound)
}

func TestLoadSession_NotFound(t *testing.T) {
	s := openInMemory(t)
	_, err := s.LoadSession("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = s.LatestSessionID()
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestLatestSessionID(t *testing.T) {
	s := openInMemory(t)
	first := resolve(t, "TP53")
	second := resolve(t, "RNU4ATAC")
	second.Created = first.Created.Add(time.Minute)
	require.NoError(t, s.SaveSession(first))
	require.NoError(t, s.SaveSession(second))

	id, err := s.LatestSessionID()
	require.NoError(t, err)
	assert.Equal(t, second.ID, id)
}

// countingGateway counts calls to the wrapped gateway.
type countingGateway struct {
	cache.Gateway
	transcripts, variants, regions atomic.Int32
}

func (g *countingGateway) LookupTranscripts(ctx context.Context, id string, asm cache.Assembly) ([]*cache.Transcript, error) {
	g.transcripts.Add(1)
	return g.Gateway.LookupTranscripts(ctx, id, asm)
}

func (g *countingGateway) LookupVariant(ctx context.Context, rsid string, asm cache.Assembly) (*cache.Variant, error) {
	g.variants.Add(1)
	return g.Gateway.LookupVariant(ctx, rsid, asm)
}

func (g *countingGateway) LookupRegion(ctx context.Context, region identifier.Region, asm cache.Assembly) ([]cache.GeneFeature, error) {
	g.regions.Add(1)
	return g.Gateway.LookupRegion(ctx, region, asm)
}

func TestLookupCache(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)
	upstream := &countingGateway{Gateway: fixtureCache(t)}
	lc := NewLookupCache(s, upstream, 0)

	for i := 0; i < 2; i++ {
		ts, err := lc.LookupTranscripts(ctx, "tp53", cache.GRCh38)
		require.NoError(t, err)
		require.Len(t, ts, 1)
		assert.Equal(t, "NM_000546", ts[0].Accession)
		assert.Len(t, ts[0].Exons, 4)

		v, err := lc.LookupVariant(ctx, "rs80357906", cache.GRCh38)
		require.NoError(t, err)
		assert.Equal(t, "BRCA1", v.GeneSymbol)

		genes, err := lc.LookupRegion(ctx, identifier.Region{Chrom: "17", Start: 43130000, End: 43130100}, cache.GRCh38)
		require.NoError(t, err)
		assert.Len(t, genes, 2)
	}
	assert.Equal(t, int32(1), upstream.transcripts.Load())
	assert.Equal(t, int32(1), upstream.variants.Load())
	assert.Equal(t, int32(1), upstream.regions.Load())

	// Not-found answers are not cached.
	for i := 0; i < 2; i++ {
		_, err := lc.LookupTranscripts(ctx, "NOPE1", cache.GRCh38)
		assert.True(t, errors.Is(err, cache.ErrNotFound))
	}
	assert.Equal(t, int32(3), upstream.transcripts.Load())

	removed, err := lc.Clear()
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	_, err = lc.LookupTranscripts(ctx, "TP53", cache.GRCh38)
	require.NoError(t, err)
	assert.Equal(t, int32(4), upstream.transcripts.Load())
}

func TestLookupCache_Expiry(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)
	upstream := &countingGateway{Gateway: fixtureCache(t)}
	lc := NewLookupCache(s, upstream, time.Nanosecond)

	_, err := lc.LookupTranscripts(ctx, "TP53", cache.GRCh38)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = lc.LookupTranscripts(ctx, "TP53", cache.GRCh38)
	require.NoError(t, err)
	assert.Equal(t, int32(2), upstream.transcripts.Load())
}

func TestLookupCache_ServesEngine(t *testing.T) {
	s := openInMemory(t)
	upstream := &countingGateway{Gateway: fixtureCache(t)}
	e := engine.New(NewLookupCache(s, upstream, 0))

	req := engine.Request{Identifiers: []string{"TP53", "RNU4ATAC"}, Assembly: cache.GRCh38}
	first, err := e.Resolve(context.Background(), req)
	require.NoError(t, err)
	second, err := e.Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Snapshot().Records(), second.Snapshot().Records())
	assert.Equal(t, int32(2), upstream.transcripts.Load())
}
