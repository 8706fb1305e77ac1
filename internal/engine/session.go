package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inodb/vibe-bed/internal/cache"
	"github.com/inodb/vibe-bed/internal/identifier"
	"github.com/inodb/vibe-bed/internal/interval"
	"github.com/inodb/vibe-bed/internal/profile"
	"github.com/inodb/vibe-bed/internal/selector"
)

// Snapshot is an immutable base-record set. Every emission reads from a
// snapshot; none writes back to it.
type Snapshot struct {
	records []interval.Record
}

// NewSnapshot copies records into a snapshot ordered by identifier index.
// Rows of the same identifier keep their relative order.
func NewSnapshot(records []interval.Record) *Snapshot {
	out := make([]interval.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return &Snapshot{records: out}
}

// Records returns a copy of the base records.
func (s *Snapshot) Records() []interval.Record {
	out := make([]interval.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of base records.
func (s *Snapshot) Len() int {
	return len(s.records)
}

// Recompute derives the regions for one profile.
func (s *Snapshot) Recompute(settings profile.Settings, include5, include3, addChr bool) ([]interval.RegionResult, error) {
	return profile.Recompute(s.records, settings, include5, include3, addChr)
}

// Session is the result of one Resolve call.
type Session struct {
	ID       string
	Assembly cache.Assembly
	Created  time.Time

	// NoData lists identifiers with no data in Assembly.
	NoData []string
	// Malformed holds rejected tokens and coordinate lines.
	Malformed []*identifier.MalformedError
	// Errors holds gateway failures other than not found.
	Errors []*LookupError

	mu         sync.RWMutex
	snapshot   *Snapshot
	selections []*selector.Selection
}

func newSession(asm cache.Assembly) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Assembly: asm,
		Created:  time.Now().UTC().Truncate(time.Microsecond),
		snapshot: NewSnapshot(nil),
	}
}

// Restore rebuilds a session from persisted state.
func Restore(id string, asm cache.Assembly, created time.Time, records []interval.Record, pending []*selector.Selection, noData []string) *Session {
	return &Session{
		ID:         id,
		Assembly:   asm,
		Created:    created,
		NoData:     noData,
		snapshot:   NewSnapshot(records),
		selections: pending,
	}
}

// Snapshot returns the current base-record snapshot.
func (s *Session) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Pending returns the selections awaiting a decision, in input order.
func (s *Session) Pending() []*selector.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*selector.Selection
	for _, sel := range s.selections {
		if !sel.Final() {
			out = append(out, sel)
		}
	}
	return out
}

// ApplyDisambiguation resolves one pending gene with choice and returns the
// new snapshot containing that gene's records. gene matches either the gene
// symbol or the identifier as typed.
func (s *Session) ApplyDisambiguation(gene, choice string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sel := range s.selections {
		if sel.Final() || !matchesGene(sel, gene) {
			continue
		}
		resolved, err := sel.Resolve(choice)
		if err != nil {
			return nil, err
		}

		records := append(s.snapshot.Records(), selectionRecords(resolved)...)
		s.snapshot = NewSnapshot(records)
		s.selections[i] = resolved
		return s.snapshot, nil
	}
	return nil, fmt.Errorf("apply disambiguation for %s: %w", gene, selector.ErrNotPending)
}

// Final returns the snapshot once no gene is pending.
func (s *Session) Final() (*Snapshot, error) {
	pending := s.Pending()
	if len(pending) == 0 {
		return s.Snapshot(), nil
	}
	genes := make([]string, len(pending))
	for i, sel := range pending {
		genes[i] = sel.Gene
	}
	return nil, fmt.Errorf("%w: %s", ErrPendingDisambiguation, strings.Join(genes, ", "))
}

func matchesGene(sel *selector.Selection, gene string) bool {
	return strings.EqualFold(sel.Gene, gene) || strings.EqualFold(sel.Identifier.Token, gene)
}
