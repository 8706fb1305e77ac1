package cache

import (
	"context"
	"sort"
	"strings"

	"github.com/inodb/vibe-bed/internal/identifier"
)

// Cache is an in-memory Gateway. It is populated up front (fixtures,
// tests) and is safe for concurrent lookups once loading is done.
type Cache struct {
	// transcripts indexed by assembly, then by upper-cased gene symbol and accession
	transcripts map[Assembly]map[string][]*Transcript
	variants    map[Assembly]map[string]*Variant
	// genes indexed by assembly, then chromosome
	genes map[Assembly]map[string][]*GeneFeature
}

// New creates a new empty cache.
func New() *Cache {
	return &Cache{
		transcripts: make(map[Assembly]map[string][]*Transcript),
		variants:    make(map[Assembly]map[string]*Variant),
		genes:       make(map[Assembly]map[string][]*GeneFeature),
	}
}

// AddTranscript adds a transcript to the cache, indexed by gene symbol and
// by accession.
func (c *Cache) AddTranscript(t *Transcript) {
	byKey, ok := c.transcripts[t.Assembly]
	if !ok {
		byKey = make(map[string][]*Transcript)
		c.transcripts[t.Assembly] = byKey
	}
	if t.GeneSymbol != "" {
		k := strings.ToUpper(t.GeneSymbol)
		byKey[k] = append(byKey[k], t)
	}
	if t.Accession != "" {
		k := strings.ToUpper(t.Accession)
		byKey[k] = append(byKey[k], t)
	}
}

// AddVariant adds a resolved rsID.
func (c *Cache) AddVariant(v *Variant) {
	byID, ok := c.variants[v.Assembly]
	if !ok {
		byID = make(map[string]*Variant)
		c.variants[v.Assembly] = byID
	}
	byID[strings.ToLower(v.RsID)] = v
}

// AddGene adds a gene feature for region overlap lookups.
func (c *Cache) AddGene(g *GeneFeature) {
	byChrom, ok := c.genes[g.Assembly]
	if !ok {
		byChrom = make(map[string][]*GeneFeature)
		c.genes[g.Assembly] = byChrom
	}
	byChrom[g.Chrom] = append(byChrom[g.Chrom], g)
}

// LookupTranscripts returns transcripts whose gene symbol or unversioned
// accession equals id (case-insensitive).
func (c *Cache) LookupTranscripts(_ context.Context, id string, asm Assembly) ([]*Transcript, error) {
	found := c.transcripts[asm][strings.ToUpper(id)]
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	out := make([]*Transcript, len(found))
	copy(out, found)
	return out, nil
}

// LookupVariant returns the variant for an rsID.
func (c *Cache) LookupVariant(_ context.Context, rsid string, asm Assembly) (*Variant, error) {
	v, ok := c.variants[asm][strings.ToLower(rsid)]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

// LookupRegion returns genes overlapping the region, ordered by start.
// An empty result is not an error.
func (c *Cache) LookupRegion(_ context.Context, region identifier.Region, asm Assembly) ([]GeneFeature, error) {
	var out []GeneFeature
	for _, g := range c.genes[asm][region.Chrom] {
		if g.Overlaps(region.Start, region.End) {
			out = append(out, *g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// TranscriptCount returns the number of distinct transcripts in the cache.
func (c *Cache) TranscriptCount() int {
	seen := make(map[*Transcript]bool)
	for _, byKey := range c.transcripts {
		for _, ts := range byKey {
			for _, t := range ts {
				seen[t] = true
			}
		}
	}
	return len(seen)
}

// Assemblies returns a sorted list of assemblies with any data in the cache.
func (c *Cache) Assemblies() []Assembly {
	set := make(map[Assembly]bool)
	for a := range c.transcripts {
		set[a] = true
	}
	for a := range c.variants {
		set[a] = true
	}
	for a := range c.genes {
		set[a] = true
	}
	out := make([]Assembly, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
