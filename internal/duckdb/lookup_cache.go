package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/identifier"
)

// Lookup kinds stored in gateway_lookups.
const (
	kindTranscripts = "transcripts"
	kindVariant     = "variant"
	kindRegion      = "region"
)

// LookupCache is a cache.Gateway that answers from gateway_lookups when a
// fresh entry exists and otherwise asks the wrapped gateway, storing the
// answer. Not-found results and errors are never stored.
type LookupCache struct {
	store   *Store
	gateway cache.Gateway
	maxAge  time.Duration // zero means entries never expire

	mu sync.Mutex // serializes writes
}

// NewLookupCache wraps g with a lookup cache in s.
func NewLookupCache(s *Store, g cache.Gateway, maxAge time.Duration) *LookupCache {
	return &LookupCache{store: s, gateway: g, maxAge: maxAge}
}

var _ cache.Gateway = (*LookupCache)(nil)

// LookupTranscripts implements cache.Gateway.
func (lc *LookupCache) LookupTranscripts(ctx context.Context, id string, asm cache.Assembly) ([]*cache.Transcript, error) {
	key := strings.ToUpper(id)
	var ts []*cache.Transcript
	if ok, err := lc.get(kindTranscripts, asm, key, &ts); err != nil || ok {
		return ts, err
	}

	ts, err := lc.gateway.LookupTranscripts(ctx, id, asm)
	if err != nil {
		return nil, err
	}
	return ts, lc.put(kindTranscripts, asm, key, ts)
}

// LookupVariant implements cache.Gateway.
func (lc *LookupCache) LookupVariant(ctx context.Context, rsid string, asm cache.Assembly) (*cache.Variant, error) {
	key := strings.ToLower(rsid)
	var v *cache.Variant
	if ok, err := lc.get(kindVariant, asm, key, &v); err != nil || ok {
		return v, err
	}

	v, err := lc.gateway.LookupVariant(ctx, rsid, asm)
	if err != nil {
		return nil, err
	}
	return v, lc.put(kindVariant, asm, key, v)
}

// LookupRegion implements cache.Gateway.
func (lc *LookupCache) LookupRegion(ctx context.Context, region identifier.Region, asm cache.Assembly) ([]cache.GeneFeature, error) {
	key := region.String()
	var genes []cache.GeneFeature
	if ok, err := lc.get(kindRegion, asm, key, &genes); err != nil || ok {
		return genes, err
	}

	genes, err := lc.gateway.LookupRegion(ctx, region, asm)
	if err != nil {
		return nil, err
	}
	return genes, lc.put(kindRegion, asm, key, genes)
}

// Clear removes every cached lookup and returns how many were removed.
func (lc *LookupCache) Clear() (int64, error) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	res, err := lc.store.db.Exec("DELETE FROM gateway_lookups")
	if err != nil {
		return 0, fmt.Errorf("clear lookup cache: %w", err)
	}
	return res.RowsAffected()
}

func (lc *LookupCache) get(kind string, asm cache.Assembly, key string, dst any) (bool, error) {
	var (
		payload string
		fetched time.Time
	)
	err := lc.store.db.QueryRow(`SELECT payload, fetched_at FROM gateway_lookups
		WHERE kind = ? AND assembly = ? AND identifier = ?`, kind, asm.String(), key).
		Scan(&payload, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query cached %s %s: %w", kind, key, err)
	}
	if lc.maxAge > 0 && time.Since(fetched) > lc.maxAge {
		return false, nil
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return false, fmt.Errorf("decode cached %s %s: %w", kind, key, err)
	}
	return true, nil
}

func (lc *LookupCache) put(kind string, asm cache.Assembly, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", kind, key, err)
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if _, err := lc.store.db.Exec(`INSERT OR REPLACE INTO gateway_lookups
		(kind, assembly, identifier, payload, fetched_at) VALUES (?, ?, ?, ?, ?)`,
		kind, asm.String(), key, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("cache %s %s: %w", kind, key, err)
	}
	return nil
}
